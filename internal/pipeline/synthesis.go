package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bobarin/voiceclone/internal/models"
	"github.com/bobarin/voiceclone/internal/profile"
	"github.com/bobarin/voiceclone/internal/services"
	"github.com/rs/zerolog/log"
)

// Notifier delivers job results back through the messaging gateway. The
// pipeline never touches the gateway's wire protocol.
type Notifier interface {
	Reply(ctx context.Context, userID, text string) error
	ReplyAudio(ctx context.Context, userID, audioPath, filename string) error
}

// Synthesizer runs one synthesis job through its state machine:
//
//	pending -> profile_resolved -> engine_invoked -> transcode_invoked -> delivered
//
// with a failure exit from any state. All intermediate artifacts are deleted
// once the job reaches a terminal state, whether it was delivered or failed.
type Synthesizer struct {
	store      *profile.Store
	engine     services.Engine
	transcoder services.Transcoder
	slots      *Slots
	outputsDir string
}

func NewSynthesizer(store *profile.Store, engine services.Engine, transcoder services.Transcoder, slots *Slots, outputsDir string) (*Synthesizer, error) {
	if err := os.MkdirAll(outputsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create outputs dir %s: %w", outputsDir, err)
	}

	return &Synthesizer{
		store:      store,
		engine:     engine,
		transcoder: transcoder,
		slots:      slots,
		outputsDir: outputsDir,
	}, nil
}

// Run executes req and delivers the result through notify. It returns the
// terminal state the job reached and, for failed jobs, the typed error.
func (p *Synthesizer) Run(ctx context.Context, req models.SynthesisRequest, notify Notifier) (models.JobState, error) {
	state := models.JobStatePending

	// Reject empty text before any engine work is issued
	if strings.TrimSpace(req.Text) == "" {
		return models.JobStateFailed, models.ErrEmptyText
	}

	prof, err := p.store.Get(req.UserID)
	if err != nil {
		return models.JobStateFailed, models.ErrNoVoiceProfile
	}
	state = p.advance(req, state, models.JobStateProfileResolved)

	releaseSlot, err := p.slots.Acquire(ctx)
	if err != nil {
		return models.JobStateFailed, err
	}
	defer releaseSlot()

	// Heads-up before the long CPU-bound stretch; best effort
	if err := notify.Reply(ctx, req.UserID, "🎙️ Generating audio... (this may take time on CPU)"); err != nil {
		log.Debug().Msgf("[Synthesis] Progress reply failed for user %s: %v", req.UserID, err)
	}

	// Unique per request: user id + time discriminator, plus the request id
	// to rule out same-millisecond collisions
	base := fmt.Sprintf("%s_%d_%s", req.UserID, time.Now().UnixMilli(), shortID(req.RequestID.String()))
	rawPath := filepath.Join(p.outputsDir, base+".wav")
	mp3Path := filepath.Join(p.outputsDir, base+".mp3")

	// Unconditional cleanup: both intermediates are gone by the time the job
	// is terminal, regardless of which step failed
	defer p.removeArtifact(rawPath)
	defer p.removeArtifact(mp3Path)

	state = p.advance(req, state, models.JobStateEngineInvoked)

	// A started synthesis cannot be safely interrupted, so the engine runs
	// detached from the request context. A cancelled request discards the
	// result afterwards; cleanup and slot release still run.
	if err := p.engine.Synthesize(context.WithoutCancel(ctx), req.Text, prof.SamplePath, rawPath); err != nil {
		return models.JobStateFailed, fmt.Errorf("%w: %v", models.ErrSynthesisFailed, err)
	}

	if ctx.Err() != nil {
		return models.JobStateFailed, fmt.Errorf("%w: request cancelled, result discarded", models.ErrSynthesisFailed)
	}

	state = p.advance(req, state, models.JobStateTranscodeInvoked)

	if err := p.transcoder.EncodeMP3(ctx, rawPath, mp3Path); err != nil {
		return models.JobStateFailed, fmt.Errorf("%w: %v", models.ErrTranscodeFailed, err)
	}

	artifact := models.SynthesisArtifact{
		RequestID: req.RequestID,
		AudioPath: mp3Path,
		Filename:  base + ".mp3",
		CreatedAt: time.Now(),
	}

	// Delivery failure is reported but does not re-trigger synthesis
	if err := notify.ReplyAudio(ctx, req.UserID, artifact.AudioPath, artifact.Filename); err != nil {
		return models.JobStateFailed, fmt.Errorf("%w: %v", models.ErrDeliveryFailed, err)
	}

	p.advance(req, state, models.JobStateDelivered)

	return models.JobStateDelivered, nil
}

func (p *Synthesizer) advance(req models.SynthesisRequest, from, to models.JobState) models.JobState {
	log.Debug().Msgf("[Synthesis] Job %s (user %s): %s -> %s", req.RequestID, req.UserID, from, to)
	return to
}

func (p *Synthesizer) removeArtifact(path string) {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		log.Warn().Msgf("[Synthesis] Failed to remove artifact %s: %v", path, err)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
