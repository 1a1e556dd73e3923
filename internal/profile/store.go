// Package profile implements the voice profile store: one normalized voice
// sample per user under a profile root, replaced atomically so a reader never
// observes a half-written file.
package profile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bobarin/voiceclone/internal/models"
)

const sampleFilename = "voice_sample.wav"

type Store struct {
	root string
}

// New creates the store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create profile root %s: %w", dir, err)
	}
	return &Store{root: dir}, nil
}

// Get returns the profile for userID, or models.ErrNotFound.
func (s *Store) Get(userID string) (*models.VoiceProfile, error) {
	path, err := s.samplePath(userID)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat sample for user %s: %w", userID, err)
	}

	return &models.VoiceProfile{
		UserID:     userID,
		SamplePath: path,
		SampleSize: info.Size(),
		UpdatedAt:  info.ModTime(),
	}, nil
}

// Put commits candidatePath as the user's voice sample. The candidate is
// copied to a staging file next to the final path and then renamed into place,
// so an existing profile is either fully replaced or left untouched.
func (s *Store) Put(userID, candidatePath string) (*models.VoiceProfile, error) {
	finalPath, err := s.samplePath(userID)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating profile dir: %v", models.ErrIOFailure, err)
	}

	stagingPath := finalPath + ".staging"
	if err := copyFile(candidatePath, stagingPath); err != nil {
		os.Remove(stagingPath)
		return nil, fmt.Errorf("%w: staging sample: %v", models.ErrIOFailure, err)
	}

	// Rename is atomic within the profile root's filesystem
	if err := os.Rename(stagingPath, finalPath); err != nil {
		os.Remove(stagingPath)
		return nil, fmt.Errorf("%w: committing sample: %v", models.ErrIOFailure, err)
	}

	return s.Get(userID)
}

// Delete removes the user's profile. Returns models.ErrNotFound when no
// profile exists.
func (s *Store) Delete(userID string) error {
	path, err := s.samplePath(userID)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return models.ErrNotFound
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("%w: deleting sample: %v", models.ErrIOFailure, err)
	}

	// Best effort: drop the now-empty per-user directory
	os.Remove(filepath.Dir(path))

	return nil
}

// samplePath validates userID and maps it to voices/<userID>/voice_sample.wav.
// Identifiers that could escape the profile root are rejected outright.
func (s *Store) samplePath(userID string) (string, error) {
	if userID == "" || userID == "." || userID == ".." ||
		strings.ContainsAny(userID, `/\`) {
		return "", fmt.Errorf("invalid user id %q", userID)
	}
	return filepath.Join(s.root, userID, sampleFilename), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
