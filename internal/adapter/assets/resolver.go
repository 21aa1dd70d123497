package assets

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pscheid92/moodpulse/internal/domain"
)

const extension = ".gif"

type key struct {
	label domain.Emotion
	lang  domain.Language
}

var _ domain.MediaResolver = (*Resolver)(nil)

// Resolver maps (label, language) to an animation under <dir>/<lang>/. Files are
// named after the label key, or after the localized display name with spaces
// written as spaces or underscores.
// The directory is indexed once; files added later are not picked up.
type Resolver struct {
	paths map[key]string
}

func NewResolver(dir string) *Resolver {
	r := &Resolver{paths: make(map[key]string)}
	if dir == "" {
		return r
	}

	for _, lang := range []domain.Language{domain.LanguageRussian, domain.LanguageEnglish} {
		for _, label := range domain.AllEmotions() {
			if path, ok := find(dir, label, lang); ok {
				r.paths[key{label, lang}] = path
			}
		}
	}

	slog.Info("Media assets indexed", "dir", dir, "files", len(r.paths))
	return r
}

func find(dir string, label domain.Emotion, lang domain.Language) (string, bool) {
	display := label.Display(lang)
	candidates := []string{label.String(), display, strings.ReplaceAll(display, " ", "_")}
	for _, name := range candidates {
		path := filepath.Join(dir, string(lang), name+extension)
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

func (r *Resolver) Path(label domain.Emotion, lang domain.Language) (string, bool) {
	path, ok := r.paths[key{label, lang}]
	return path, ok
}
