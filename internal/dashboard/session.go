package dashboard

import (
	"context"
	"sync"
)

// Session delivers pipeline results to one consumer until it is closed.
// After Close returns, no result is delivered, including one from a run
// that was already in flight.
type Session struct {
	mu     sync.Mutex
	closed bool
	apply  func(Snapshot)
}

// NewSession creates a session delivering snapshots to apply.
func NewSession(apply func(Snapshot)) *Session {
	return &Session{apply: apply}
}

// Load runs r and delivers its snapshot unless the session has been closed
// in the meantime. It reports whether the snapshot was delivered.
func (s *Session) Load(ctx context.Context, r Runner) bool {
	if s.Closed() {
		return false
	}
	snap := r.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.apply(snap)
	return true
}

// Close stops delivery. It is safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
