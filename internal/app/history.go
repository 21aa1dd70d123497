package app

import (
	"sync"

	"github.com/pscheid92/moodpulse/internal/domain"
)

// History is the per-user append-only log of analyzed messages.
type History struct {
	mu      sync.RWMutex
	entries map[int64][]domain.HistoryEntry
}

func NewHistory() *History {
	return &History{entries: make(map[int64][]domain.HistoryEntry)}
}

func (h *History) Append(userID int64, entry domain.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[userID] = append(h.entries[userID], entry)
}

// Entries returns a copy of the user's history, oldest first.
func (h *History) Entries(userID int64) []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	src := h.entries[userID]
	out := make([]domain.HistoryEntry, len(src))
	copy(out, src)
	return out
}

// Recent returns up to n entries, newest first.
func (h *History) Recent(userID int64, n int) []domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	src := h.entries[userID]
	if n > len(src) {
		n = len(src)
	}
	out := make([]domain.HistoryEntry, 0, n)
	for i := len(src) - 1; i >= len(src)-n; i-- {
		out = append(out, src[i])
	}
	return out
}

func (h *History) Snapshot() map[int64][]domain.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[int64][]domain.HistoryEntry, len(h.entries))
	for userID, entries := range h.entries {
		cp := make([]domain.HistoryEntry, len(entries))
		copy(cp, entries)
		out[userID] = cp
	}
	return out
}

func (h *History) Restore(entries map[int64][]domain.HistoryEntry) {
	restored := make(map[int64][]domain.HistoryEntry, len(entries))
	for userID, list := range entries {
		cp := make([]domain.HistoryEntry, len(list))
		copy(cp, list)
		restored[userID] = cp
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = restored
}
