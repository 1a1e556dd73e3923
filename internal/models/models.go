package models

import (
	"time"

	"github.com/google/uuid"
)

// Enums

// JobKind identifies the two kinds of per-user jobs that compete for a user's
// job slot.
type JobKind string

const (
	JobKindIngest    JobKind = "ingest"
	JobKindSynthesis JobKind = "synthesis"
)

// JobState tracks a synthesis job through its lifecycle. Terminal states are
// JobStateDelivered and JobStateFailed.
type JobState string

const (
	JobStatePending          JobState = "pending"
	JobStateProfileResolved  JobState = "profile_resolved"
	JobStateEngineInvoked    JobState = "engine_invoked"
	JobStateTranscodeInvoked JobState = "transcode_invoked"
	JobStateDelivered        JobState = "delivered"
	JobStateFailed           JobState = "failed"
)

// Terminal reports whether the state is one of the two terminal states.
func (s JobState) Terminal() bool {
	return s == JobStateDelivered || s == JobStateFailed
}

// Models

// VoiceProfile is the durable record for one user: a single normalized,
// mono, fixed-sample-rate reference sample. At most one profile per user.
type VoiceProfile struct {
	UserID     string    `json:"user_id"`
	SamplePath string    `json:"sample_path"`
	SampleSize int64     `json:"sample_size_bytes"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// SynthesisRequest is the transient input to one synthesis job.
type SynthesisRequest struct {
	RequestID uuid.UUID
	UserID    string
	Text      string
}

// NewSynthesisRequest assigns a fresh request ID to (userID, text).
func NewSynthesisRequest(userID, text string) SynthesisRequest {
	return SynthesisRequest{
		RequestID: uuid.New(),
		UserID:    userID,
		Text:      text,
	}
}

// SynthesisArtifact is the deliverable produced by a completed synthesis job.
// It is owned by the job that produced it and deleted once the job reaches a
// terminal state, whether or not delivery succeeded.
type SynthesisArtifact struct {
	RequestID uuid.UUID
	AudioPath string
	Filename  string
	CreatedAt time.Time
}
