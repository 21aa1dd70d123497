package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/moodpulse/internal/domain"
	"github.com/pscheid92/moodpulse/internal/metrics"
)

const documentVersion = 1

// document is the on-disk shape. Keys are plain strings so unknown labels or
// malformed user IDs can be skipped one by one instead of failing the whole load.
type document struct {
	Version     int                        `json:"version"`
	SavedAt     time.Time                  `json:"saved_at"`
	UserVotes   map[string]map[string]int  `json:"user_votes"`
	UserHistory map[string][]historyRecord `json:"user_history"`
	Stats       *statsRecord               `json:"stats,omitempty"`
}

type historyRecord struct {
	ID        string `json:"id,omitempty"`
	Text      string `json:"text"`
	Emotion   string `json:"emotion"`
	Timestamp string `json:"timestamp"`
}

type statsRecord struct {
	Classifications int64 `json:"classifications"`
	CacheHits       int64 `json:"cache_hits"`
	Votes           int64 `json:"votes"`
}

// timestampLayouts accepts our own RFC 3339 output and the zone-less ISO form
// found in older data files.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// Persistence mirrors State into a SnapshotStore as one full document.
type Persistence struct {
	mu    sync.Mutex
	store domain.SnapshotStore
	state *State
	clock clockwork.Clock
}

func NewPersistence(store domain.SnapshotStore, state *State, clock clockwork.Clock) *Persistence {
	return &Persistence{store: store, state: state, clock: clock}
}

// Save writes the full state. Saves are serialized, and each one snapshots state
// after the previous write finished, so an older snapshot never overwrites a newer one.
func (p *Persistence) Save(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := p.clock.Now()
	data, err := encodeDocument(p.state, start)
	if err != nil {
		metrics.SnapshotSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := p.store.Save(ctx, data); err != nil {
		metrics.SnapshotSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	metrics.SnapshotSavesTotal.WithLabelValues("success").Inc()
	metrics.SnapshotSaveDuration.Observe(p.clock.Since(start).Seconds())
	metrics.SnapshotBytes.Set(float64(len(data)))
	return nil
}

// Load restores state from the store. A missing or unreadable document leaves
// state empty; the process keeps starting either way.
func (p *Persistence) Load(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := p.store.Load(ctx)
	if errors.Is(err, domain.ErrSnapshotNotFound) {
		slog.Info("No snapshot found, starting with empty state")
		return
	}
	if err != nil {
		slog.Warn("Failed to read snapshot, starting with empty state", "error", err)
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Snapshot is corrupt, starting with empty state", "error", err)
		return
	}

	tallies := decodeVotes(doc.UserVotes)
	history := decodeHistory(doc.UserHistory)

	p.state.Update(func() {
		p.state.Ledger.Restore(tallies)
		p.state.History.Restore(history)
		if doc.Stats != nil {
			p.state.Counters.Restore(CounterValues{
				Classifications: doc.Stats.Classifications,
				CacheHits:       doc.Stats.CacheHits,
				Votes:           doc.Stats.Votes,
			})
		}
	})
	metrics.LedgerTexts.Set(float64(p.state.Ledger.Len()))

	slog.Info("Snapshot loaded", "texts", p.state.Ledger.Len(), "users", len(history), "version", doc.Version)
}

func encodeDocument(state *State, now time.Time) ([]byte, error) {
	doc := document{
		Version:     documentVersion,
		SavedAt:     now.UTC(),
		UserVotes:   make(map[string]map[string]int),
		UserHistory: make(map[string][]historyRecord),
	}

	var (
		tallies  map[string]domain.VoteTally
		history  map[int64][]domain.HistoryEntry
		counters CounterValues
	)
	state.view(func() {
		tallies = state.Ledger.Snapshot()
		history = state.History.Snapshot()
		counters = state.Counters.Values()
	})

	for text, tally := range tallies {
		votes := make(map[string]int, len(tally))
		for label, n := range tally {
			votes[label.String()] = n
		}
		doc.UserVotes[text] = votes
	}

	for userID, entries := range history {
		records := make([]historyRecord, len(entries))
		for i, e := range entries {
			records[i] = historyRecord{
				ID:        e.ID.String(),
				Text:      e.Text,
				Emotion:   e.Label.String(),
				Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			}
		}
		doc.UserHistory[strconv.FormatInt(userID, 10)] = records
	}

	doc.Stats = &statsRecord{Classifications: counters.Classifications, CacheHits: counters.CacheHits, Votes: counters.Votes}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeVotes(raw map[string]map[string]int) map[string]domain.VoteTally {
	out := make(map[string]domain.VoteTally, len(raw))
	for text, votes := range raw {
		tally := make(domain.VoteTally, len(votes))
		for key, n := range votes {
			label, err := domain.ParseEmotion(key)
			if err != nil {
				slog.Warn("Skipping unknown label in snapshot", "label", key)
				continue
			}
			if n > 0 {
				tally[label] = n
			}
		}
		if len(tally) > 0 {
			out[text] = tally
		}
	}
	return out
}

func decodeHistory(raw map[string][]historyRecord) map[int64][]domain.HistoryEntry {
	out := make(map[int64][]domain.HistoryEntry, len(raw))
	for key, records := range raw {
		userID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			slog.Warn("Skipping history with invalid user id", "user_id", key)
			continue
		}
		entries := make([]domain.HistoryEntry, 0, len(records))
		for _, r := range records {
			label, err := domain.ParseEmotion(r.Emotion)
			if err != nil {
				slog.Warn("Skipping history entry with unknown label", "user_id", userID, "label", r.Emotion)
				continue
			}
			id, err := uuid.Parse(r.ID)
			if err != nil {
				id = uuid.New()
			}
			entries = append(entries, domain.HistoryEntry{
				ID:        id,
				Text:      r.Text,
				Label:     label,
				Timestamp: parseTimestamp(r.Timestamp),
			})
		}
		out[userID] = entries
	}
	return out
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
