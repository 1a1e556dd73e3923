package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bobarin/voiceclone/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "voices"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func writeCandidate(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "candidate.wav")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write candidate: %v", err)
	}
	return path
}

func TestGetMissingProfile(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Get("42"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPutThenGet(t *testing.T) {
	s := newTestStore(t)

	prof, err := s.Put("42", writeCandidate(t, "normalized audio"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	if prof.UserID != "42" {
		t.Errorf("expected user 42, got %s", prof.UserID)
	}

	got, err := s.Get("42")
	if err != nil {
		t.Fatalf("get after put failed: %v", err)
	}

	data, err := os.ReadFile(got.SamplePath)
	if err != nil {
		t.Fatalf("failed to read sample: %v", err)
	}
	if string(data) != "normalized audio" {
		t.Errorf("sample content mismatch: %q", data)
	}
	if got.SampleSize != int64(len("normalized audio")) {
		t.Errorf("expected size %d, got %d", len("normalized audio"), got.SampleSize)
	}
}

func TestPutOverwritesAtomically(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Put("42", writeCandidate(t, "first sample")); err != nil {
		t.Fatalf("first put failed: %v", err)
	}

	if _, err := s.Put("42", writeCandidate(t, "second sample")); err != nil {
		t.Fatalf("second put failed: %v", err)
	}

	prof, err := s.Get("42")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	data, _ := os.ReadFile(prof.SamplePath)
	if string(data) != "second sample" {
		t.Errorf("expected overwritten content, got %q", data)
	}

	// No staging leftovers next to the committed sample
	if _, err := os.Stat(prof.SamplePath + ".staging"); !os.IsNotExist(err) {
		t.Error("staging file left behind after commit")
	}
}

func TestPutMissingCandidateLeavesProfileIntact(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Put("42", writeCandidate(t, "original")); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	_, err := s.Put("42", filepath.Join(t.TempDir(), "does-not-exist.wav"))
	if !errors.Is(err, models.ErrIOFailure) {
		t.Fatalf("expected ErrIOFailure, got %v", err)
	}

	prof, err := s.Get("42")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	data, _ := os.ReadFile(prof.SamplePath)
	if string(data) != "original" {
		t.Errorf("failed put corrupted prior profile: %q", data)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	if err := s.Delete("42"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing profile, got %v", err)
	}

	if _, err := s.Put("42", writeCandidate(t, "sample")); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	if err := s.Delete("42"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := s.Get("42"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRejectsUnsafeUserIDs(t *testing.T) {
	s := newTestStore(t)

	for _, userID := range []string{"", ".", "..", "a/b", `a\b`, "../evil"} {
		if _, err := s.Get(userID); err == nil || errors.Is(err, models.ErrNotFound) {
			t.Errorf("expected validation error for user id %q, got %v", userID, err)
		}
	}
}
