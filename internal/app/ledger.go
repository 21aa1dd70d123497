package app

import (
	"sort"
	"sync"

	"github.com/pscheid92/moodpulse/internal/domain"
)

// Ledger is the consensus cache: normalized text → vote tally.
// All reads return copies; RecordVote is the only mutation.
type Ledger struct {
	mu      sync.RWMutex
	tallies map[string]domain.VoteTally
}

func NewLedger() *Ledger {
	return &Ledger{tallies: make(map[string]domain.VoteTally)}
}

// Lookup returns the tally for text if at least one vote was recorded.
func (l *Ledger) Lookup(text string) (domain.VoteTally, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tally, ok := l.tallies[text]
	if !ok {
		return nil, false
	}
	return tally.Clone(), true
}

// RecordVote increments label under text, creating the tally on first vote,
// and returns the tally as it stands after the increment.
func (l *Ledger) RecordVote(text string, label domain.Emotion) domain.VoteTally {
	l.mu.Lock()
	defer l.mu.Unlock()

	tally, ok := l.tallies[text]
	if !ok {
		tally = make(domain.VoteTally)
		l.tallies[text] = tally
	}
	tally[label]++
	return tally.Clone()
}

// Len returns the number of texts with at least one vote.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tallies)
}

// TallyEntry pairs a text with its tally for listings.
type TallyEntry struct {
	Text  string
	Tally domain.VoteTally
}

// Top returns up to limit texts ordered by total votes, then text.
func (l *Ledger) Top(limit int) []TallyEntry {
	l.mu.RLock()
	entries := make([]TallyEntry, 0, len(l.tallies))
	for text, tally := range l.tallies {
		entries = append(entries, TallyEntry{Text: text, Tally: tally.Clone()})
	}
	l.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		ti, tj := entries[i].Tally.Total(), entries[j].Tally.Total()
		if ti != tj {
			return ti > tj
		}
		return entries[i].Text < entries[j].Text
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Snapshot copies the whole ledger for persistence.
func (l *Ledger) Snapshot() map[string]domain.VoteTally {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]domain.VoteTally, len(l.tallies))
	for text, tally := range l.tallies {
		out[text] = tally.Clone()
	}
	return out
}

// Restore replaces the ledger contents. Empty tallies are dropped so a text
// is never cache-routed without a vote behind it.
func (l *Ledger) Restore(tallies map[string]domain.VoteTally) {
	restored := make(map[string]domain.VoteTally, len(tallies))
	for text, tally := range tallies {
		clean := make(domain.VoteTally, len(tally))
		for e, n := range tally {
			if n > 0 {
				clean[e] = n
			}
		}
		if len(clean) > 0 {
			restored[text] = clean
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.tallies = restored
}
