package wizard

import (
	"sync"

	"github.com/google/uuid"
)

// Session holds per-visitor flags that outlive a single wizard instance.
type Session struct {
	ID string

	mu              sync.Mutex
	exitIntentShown bool
}

// NewSession returns a session with the given id, or a fresh uuid when id is
// empty.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{ID: id}
}

// ExitIntentShown reports whether the exit-intent prompt was already offered.
func (s *Session) ExitIntentShown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitIntentShown
}

// claimExitIntent marks the prompt shown and reports whether this call was
// the first.
func (s *Session) claimExitIntent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exitIntentShown {
		return false
	}
	s.exitIntentShown = true
	return true
}
