// Package serializer guarantees at most one in-flight ingest or synthesis job
// per user. A second request for the same user is rejected immediately with
// models.ErrBusy instead of queueing, so worst-case latency stays bounded
// while a CPU-bound synthesis is running.
package serializer

import (
	"sync"
	"time"

	"github.com/bobarin/voiceclone/internal/models"
)

type Serializer struct {
	mu    sync.Mutex
	slots map[string]*Lease
}

// Lease is the mutual-exclusion token for one user's job slot. Release is
// idempotent and must run on every exit path.
type Lease struct {
	UserID    string
	Kind      models.JobKind
	StartedAt time.Time

	s        *Serializer
	released sync.Once
}

func New() *Serializer {
	return &Serializer{
		slots: make(map[string]*Lease),
	}
}

// Acquire takes the job slot for userID, or returns models.ErrBusy when a
// lease is already outstanding. Never blocks.
func (s *Serializer) Acquire(userID string, kind models.JobKind) (*Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.slots[userID]; held {
		return nil, models.ErrBusy
	}

	lease := &Lease{
		UserID:    userID,
		Kind:      kind,
		StartedAt: time.Now(),
		s:         s,
	}
	s.slots[userID] = lease

	return lease, nil
}

// Held reports whether a lease is currently outstanding for userID.
func (s *Serializer) Held(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, held := s.slots[userID]
	return held
}

// Release frees the user's job slot. Safe to call more than once.
func (l *Lease) Release() {
	l.released.Do(func() {
		l.s.mu.Lock()
		defer l.s.mu.Unlock()
		delete(l.s.slots, l.UserID)
	})
}
