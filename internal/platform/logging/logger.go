package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pscheid92/moodpulse/internal/platform/correlation"
)

// ParseLevel maps a LOG_LEVEL value to a slog level; unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler builds a text or JSON handler writing to w, wrapped so that
// correlation and update IDs from the context are attached to every record.
func NewHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return correlation.NewHandler(handler)
}

// InitLogger installs the process-wide default logger on stdout.
func InitLogger(level, format string) *slog.Logger {
	logger := slog.New(NewHandler(os.Stdout, level, format))
	slog.SetDefault(logger)
	return logger
}
