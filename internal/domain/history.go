package domain

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry records one analyzed message. Entries are never modified.
type HistoryEntry struct {
	ID        uuid.UUID
	Text      string
	Label     Emotion
	Timestamp time.Time
}
