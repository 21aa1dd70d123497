package app

import "sync"

// State bundles the process-wide structures that live for the whole process and
// are persisted together as one document.
//
// Each structure guards itself. A transition that touches more than one of them
// runs inside Update, and snapshots are taken inside view, so a saved document
// never pairs a vote with counters or history from another moment.
type State struct {
	Ledger   *Ledger
	History  *History
	Counters *Counters

	mu sync.RWMutex
}

func NewState() *State {
	return &State{
		Ledger:   NewLedger(),
		History:  NewHistory(),
		Counters: &Counters{},
	}
}

// Update runs fn as one mutation of the whole state.
func (s *State) Update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

func (s *State) view(fn func()) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}
