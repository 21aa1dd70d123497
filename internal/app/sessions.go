package app

import (
	"sync"

	"github.com/pscheid92/moodpulse/internal/domain"
)

// userSlot serializes all transitions of one user and holds that user's pending
// session, if any.
type userSlot struct {
	mu      sync.Mutex
	session *domain.Session
}

// sessionRegistry hands out per-user slots. Different users never block each other.
type sessionRegistry struct {
	mu    sync.Mutex
	slots map[int64]*userSlot
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{slots: make(map[int64]*userSlot)}
}

// acquire locks the user's slot. The caller must call release.
func (r *sessionRegistry) acquire(userID int64) *userSlot {
	r.mu.Lock()
	slot, ok := r.slots[userID]
	if !ok {
		slot = &userSlot{}
		r.slots[userID] = slot
	}
	r.mu.Unlock()

	slot.mu.Lock()
	return slot
}

func (s *userSlot) release() {
	s.mu.Unlock()
}

// peek returns a copy of the user's session without holding the slot.
func (r *sessionRegistry) peek(userID int64) (domain.Session, bool) {
	slot := r.acquire(userID)
	defer slot.release()

	if slot.session == nil {
		return domain.Session{}, false
	}
	return *slot.session, true
}
