package models

import "errors"

// Error taxonomy. Everything here is recoverable by the user issuing a new
// command; nothing is auto-retried by the core, because synthesis is expensive
// and silent retries would hide cost and latency from the user.
var (
	// ErrNotFound means no voice profile exists for the user.
	ErrNotFound = errors.New("voice profile not found")
	// ErrBusy means another job for the same user is in flight. The caller
	// should retry later; this is contention, not an incident.
	ErrBusy = errors.New("another job is already running for this user")
	// ErrNoVoiceProfile means synthesis was requested before a voice sample
	// was registered.
	ErrNoVoiceProfile = errors.New("no voice sample registered")
	// ErrEmptyText means the synthesis text was empty or whitespace-only.
	ErrEmptyText = errors.New("text to synthesize is empty")
	// ErrIngestFailed means staging or normalization failed during voice
	// registration; any prior profile is left untouched.
	ErrIngestFailed = errors.New("voice registration failed")
	// ErrSynthesisFailed means the synthesis engine invocation failed.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
	// ErrTranscodeFailed means post-synthesis format conversion failed.
	ErrTranscodeFailed = errors.New("audio transcode failed")
	// ErrDeliveryFailed means the gateway could not deliver the artifact.
	// Synthesis is not re-triggered.
	ErrDeliveryFailed = errors.New("could not deliver generated audio")
	// ErrIOFailure means a profile store mutation failed.
	ErrIOFailure = errors.New("profile store write failed")
)

// UserFacing reports whether err belongs to the recoverable taxonomy above.
// Anything else is a programming error and is surfaced as an internal error.
func UserFacing(err error) bool {
	for _, known := range []error{
		ErrNotFound,
		ErrBusy,
		ErrNoVoiceProfile,
		ErrEmptyText,
		ErrIngestFailed,
		ErrSynthesisFailed,
		ErrTranscodeFailed,
		ErrDeliveryFailed,
		ErrIOFailure,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
