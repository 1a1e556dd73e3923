// Package pipeline implements the two per-user job pipelines: voice sample
// ingest and speech synthesis. Both invoke blocking, CPU-bound external tools
// (the synthesis engine and the transcoder), so their heavy sections run under
// a bounded set of worker slots shared across all users.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/bobarin/voiceclone/internal/models"
	"golang.org/x/sync/semaphore"
)

// Slots bounds how many engine/transcoder invocations run at once. Waiting
// for a slot is itself bounded: after maxWait the caller gets models.ErrBusy
// instead of queueing indefinitely behind expensive synthesis runs.
type Slots struct {
	sem     *semaphore.Weighted
	maxWait time.Duration
}

func NewSlots(capacity int, maxWait time.Duration) *Slots {
	return &Slots{
		sem:     semaphore.NewWeighted(int64(capacity)),
		maxWait: maxWait,
	}
}

// Acquire blocks up to maxWait for a worker slot. On success the returned
// release func must be called on every exit path.
func (s *Slots) Acquire(ctx context.Context) (release func(), err error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.maxWait)
	defer cancel()

	if err := s.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("cancelled while waiting for a worker slot: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: all worker slots taken", models.ErrBusy)
	}

	return func() { s.sem.Release(1) }, nil
}
