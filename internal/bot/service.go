// Package bot orchestrates inbound gateway commands: it acquires the per-user
// job slot, runs the matching pipeline, and reports the outcome back through
// the gateway. Both the Telegram adapter and the admin API route through here,
// so per-user serialization holds across all entry points.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bobarin/voiceclone/internal/models"
	"github.com/bobarin/voiceclone/internal/pipeline"
	"github.com/bobarin/voiceclone/internal/profile"
	"github.com/bobarin/voiceclone/internal/serializer"
	"github.com/rs/zerolog/log"
)

// User-facing messages, mirrored across success and failure paths.
const (
	msgRegistered    = "✅ Voice sample registered successfully! Now use /say <text> to generate audio in your voice."
	msgIngestFailed  = "❌ Failed to convert the uploaded audio. Make sure the file is a valid audio recording."
	msgBusy          = "⏳ I'm still working on your previous request. Please try again in a moment."
	msgNoProfile     = "No voice sample found. Please register with /registervoice (reply to your voice sample)."
	msgEmptyText     = "Please use /say <text> with the text you want to convert."
	msgDeliveryError = "❌ Generated the audio but could not deliver it. Please try again."
	msgInternal      = "❌ Something went wrong on my side. Please try again later."
)

type Service struct {
	serializer *serializer.Serializer
	store      *profile.Store
	ingestor   *pipeline.Ingestor
	synth      *pipeline.Synthesizer
}

func New(ser *serializer.Serializer, store *profile.Store, ingestor *pipeline.Ingestor, synth *pipeline.Synthesizer) *Service {
	return &Service{
		serializer: ser,
		store:      store,
		ingestor:   ingestor,
		synth:      synth,
	}
}

// RegisterVoice handles a voice-sample upload for userID. The outcome is
// reported to the user through notify; the returned error is for callers that
// surface status codes (the admin API).
func (s *Service) RegisterVoice(ctx context.Context, userID string, blob io.Reader, filenameHint string, notify pipeline.Notifier) error {
	lease, err := s.serializer.Acquire(userID, models.JobKindIngest)
	if err != nil {
		s.reply(ctx, notify, userID, msgBusy)
		return err
	}
	defer lease.Release()

	if _, err := s.ingestor.Run(ctx, userID, blob, filenameHint); err != nil {
		log.Error().Msgf("[Bot] Voice registration failed for user %s: %v", userID, err)
		s.reply(ctx, notify, userID, errorMessage(err))
		return err
	}

	s.reply(ctx, notify, userID, msgRegistered)
	return nil
}

// Synthesize handles a /say request for userID.
func (s *Service) Synthesize(ctx context.Context, userID, text string, notify pipeline.Notifier) error {
	lease, err := s.serializer.Acquire(userID, models.JobKindSynthesis)
	if err != nil {
		s.reply(ctx, notify, userID, msgBusy)
		return err
	}
	defer lease.Release()

	req := models.NewSynthesisRequest(userID, text)

	state, err := s.synth.Run(ctx, req, notify)
	if err != nil {
		log.Error().Msgf("[Bot] Synthesis job %s for user %s ended %s: %v", req.RequestID, userID, state, err)
		s.reply(ctx, notify, userID, errorMessage(err))
		return err
	}

	return nil
}

// GetVoice returns userID's profile metadata, or models.ErrNotFound.
func (s *Service) GetVoice(userID string) (*models.VoiceProfile, error) {
	return s.store.Get(userID)
}

// DeleteVoice removes userID's profile, respecting the per-user job slot so a
// deletion never races an in-flight job's filesystem mutations.
func (s *Service) DeleteVoice(userID string) error {
	lease, err := s.serializer.Acquire(userID, models.JobKindIngest)
	if err != nil {
		return err
	}
	defer lease.Release()

	return s.store.Delete(userID)
}

func (s *Service) reply(ctx context.Context, notify pipeline.Notifier, userID, text string) {
	if err := notify.Reply(ctx, userID, text); err != nil {
		log.Warn().Msgf("[Bot] Failed to send reply to user %s: %v", userID, err)
	}
}

// errorMessage maps the typed error taxonomy to what the user sees. Unknown
// errors are programming errors and get a generic internal-error message.
func errorMessage(err error) string {
	if !models.UserFacing(err) {
		return msgInternal
	}

	switch {
	case errors.Is(err, models.ErrEmptyText):
		return msgEmptyText
	case errors.Is(err, models.ErrNoVoiceProfile):
		return msgNoProfile
	case errors.Is(err, models.ErrBusy):
		return msgBusy
	case errors.Is(err, models.ErrIngestFailed):
		return msgIngestFailed
	case errors.Is(err, models.ErrSynthesisFailed), errors.Is(err, models.ErrTranscodeFailed):
		return fmt.Sprintf("❌ Failed to generate audio: %v", err)
	case errors.Is(err, models.ErrDeliveryFailed):
		return msgDeliveryError
	default:
		return msgInternal
	}
}
