package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bobarin/voiceclone/internal/models"
	"github.com/bobarin/voiceclone/internal/profile"
	"github.com/bobarin/voiceclone/internal/services"
	"github.com/rs/zerolog/log"
)

// Ingestor turns a raw uploaded audio blob into a committed voice profile:
// stage the blob in a request-scoped temp dir, normalize it through the
// transcoder, validate the canonical format, then atomically commit to the
// profile store. Any failure leaves an existing profile untouched.
type Ingestor struct {
	store      *profile.Store
	transcoder services.Transcoder
	slots      *Slots
	tempDir    string
	sampleRate int
}

func NewIngestor(store *profile.Store, transcoder services.Transcoder, slots *Slots, tempDir string, sampleRate int) *Ingestor {
	return &Ingestor{
		store:      store,
		transcoder: transcoder,
		slots:      slots,
		tempDir:    tempDir,
		sampleRate: sampleRate,
	}
}

// Run ingests blob as userID's voice sample. filenameHint is advisory; only
// its base name is used when staging, and an empty hint gets a default name.
func (p *Ingestor) Run(ctx context.Context, userID string, blob io.Reader, filenameHint string) (*models.VoiceProfile, error) {
	staging, err := os.MkdirTemp(p.tempDir, "ingest-")
	if err != nil {
		return nil, fmt.Errorf("%w: creating staging dir: %v", models.ErrIngestFailed, err)
	}
	// The staging dir is released on every exit path; a failed removal is
	// logged but never masks the primary result.
	defer func() {
		if rmErr := os.RemoveAll(staging); rmErr != nil {
			log.Warn().Msgf("[Ingest] Failed to remove staging dir %s: %v", staging, rmErr)
		}
	}()

	stagedPath := filepath.Join(staging, sanitizeFilename(filenameHint))
	if err := writeBlob(stagedPath, blob); err != nil {
		return nil, fmt.Errorf("%w: staging upload: %v", models.ErrIngestFailed, err)
	}

	// Normalization is a blocking external call; take a bounded worker slot
	releaseSlot, err := p.slots.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer releaseSlot()

	normalizedPath := filepath.Join(staging, "normalized.wav")
	if err := p.transcoder.NormalizeSample(ctx, stagedPath, normalizedPath); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIngestFailed, err)
	}

	if err := services.ValidateSample(normalizedPath, p.sampleRate); err != nil {
		return nil, fmt.Errorf("%w: normalized sample rejected: %v", models.ErrIngestFailed, err)
	}

	prof, err := p.store.Put(userID, normalizedPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrIngestFailed, err)
	}

	log.Info().Msgf("[Ingest] Registered voice sample for user %s (%d bytes)", userID, prof.SampleSize)

	return prof, nil
}

// sanitizeFilename keeps only the base name of an advisory upload filename so
// it can't point staging outside the request's temp dir.
func sanitizeFilename(hint string) string {
	name := filepath.Base(hint)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "upload.audio"
	}
	return name
}

func writeBlob(path string, blob io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, blob); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
