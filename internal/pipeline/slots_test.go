package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bobarin/voiceclone/internal/models"
)

func TestSlotsBoundedCapacity(t *testing.T) {
	slots := NewSlots(2, 50*time.Millisecond)
	ctx := context.Background()

	release1, err := slots.Acquire(ctx)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	release2, err := slots.Acquire(ctx)
	if err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}

	// Capacity exhausted: the wait is bounded and ends in Busy
	start := time.Now()
	if _, err := slots.Acquire(ctx); !errors.Is(err, models.ErrBusy) {
		t.Fatalf("expected ErrBusy at capacity, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("busy rejection took too long: %v", elapsed)
	}

	release1()

	// A freed slot is acquirable again
	release3, err := slots.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}

	release2()
	release3()
}

func TestSlotsCancelledWait(t *testing.T) {
	slots := NewSlots(1, time.Minute)

	release, err := slots.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if _, err := slots.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled while waiting, got %v", err)
	}
}
