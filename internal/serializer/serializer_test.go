package serializer

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/bobarin/voiceclone/internal/models"
)

func TestAcquireRelease(t *testing.T) {
	s := New()

	lease, err := s.Acquire("42", models.JobKindSynthesis)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if !s.Held("42") {
		t.Error("expected slot to be held after acquire")
	}

	if _, err := s.Acquire("42", models.JobKindIngest); !errors.Is(err, models.ErrBusy) {
		t.Errorf("expected ErrBusy for second acquire, got %v", err)
	}

	lease.Release()

	if s.Held("42") {
		t.Error("expected slot to be free after release")
	}

	// Slot is reusable after release
	lease2, err := s.Acquire("42", models.JobKindIngest)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	lease2.Release()
}

func TestAcquireDistinctUsers(t *testing.T) {
	s := New()

	a, err := s.Acquire("1", models.JobKindSynthesis)
	if err != nil {
		t.Fatalf("acquire user 1: %v", err)
	}
	defer a.Release()

	b, err := s.Acquire("2", models.JobKindSynthesis)
	if err != nil {
		t.Fatalf("acquire user 2 should not contend with user 1: %v", err)
	}
	defer b.Release()
}

func TestReleaseIdempotent(t *testing.T) {
	s := New()

	lease, err := s.Acquire("42", models.JobKindSynthesis)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	lease.Release()

	// A second release must not free a slot someone else now holds
	other, err := s.Acquire("42", models.JobKindSynthesis)
	if err != nil {
		t.Fatalf("re-acquire failed: %v", err)
	}

	lease.Release()

	if !s.Held("42") {
		t.Error("duplicate release freed a slot held by another lease")
	}

	other.Release()
}

func TestConcurrentAcquireExactlyOneWins(t *testing.T) {
	s := New()

	const attempts = 50

	var acquired, busy atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	// No goroutine releases, so exactly one of the concurrent attempts can win
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start

			_, err := s.Acquire("42", models.JobKindSynthesis)
			switch {
			case err == nil:
				acquired.Add(1)
			case errors.Is(err, models.ErrBusy):
				busy.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	close(start)
	wg.Wait()

	if acquired.Load() != 1 {
		t.Errorf("expected exactly one successful acquire, got %d", acquired.Load())
	}

	if busy.Load() != attempts-1 {
		t.Errorf("expected %d busy rejections, got %d", attempts-1, busy.Load())
	}
}

func TestConcurrentAcquireWhileHeld(t *testing.T) {
	s := New()

	lease, err := s.Acquire("42", models.JobKindSynthesis)
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer lease.Release()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Acquire("42", models.JobKindIngest); !errors.Is(err, models.ErrBusy) {
				t.Errorf("expected ErrBusy while lease held, got %v", err)
			}
		}()
	}
	wg.Wait()
}
