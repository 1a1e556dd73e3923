package services

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// Engine generates speech audio from text, conditioned on a reference voice
// sample. Calls are long-running and CPU-bound; callers are expected to
// dispatch them to a bounded worker slot and must assume a started call cannot
// be safely interrupted mid-synthesis.
type Engine interface {
	Synthesize(ctx context.Context, text, speakerSamplePath, outputPath string) error
}

// XTTSEngine runs an XTTS-style voice-cloning model through the Coqui `tts`
// CLI. Constructed once during startup and injected into the synthesis
// pipeline; the model identifier never changes for the life of the process.
type XTTSEngine struct {
	binary   string
	model    string
	language string
}

// NewXTTSEngine validates that the tts binary is resolvable and returns the
// engine. Resolving up front keeps a missing installation from surfacing as a
// per-request synthesis failure.
func NewXTTSEngine(binary, model, language string) (*XTTSEngine, error) {
	if binary == "" {
		binary = "tts"
	}

	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("tts binary %q not found in PATH: %w", binary, err)
	}

	log.Info().Msgf("[Engine] Using %s with model %s (language: %s)", resolved, model, language)

	return &XTTSEngine{
		binary:   resolved,
		model:    model,
		language: language,
	}, nil
}

// Synthesize invokes the tts CLI with an argument vector. The usual dual
// check applies: a zero exit status must be backed by a non-empty output file.
func (e *XTTSEngine) Synthesize(ctx context.Context, text, speakerSamplePath, outputPath string) error {
	args := []string{
		"--model_name", e.model,
		"--text", text,
		"--speaker_wav", speakerSamplePath,
		"--language_idx", e.language,
		"--out_path", outputPath,
	}

	log.Info().Msgf("[Engine] Synthesizing %q (%d chars) to %s", redactText(text), len(text), outputPath)

	cmd := exec.CommandContext(ctx, e.binary, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("tts execution failed: %w (output: %s)", err, tail(output))
	}

	if err := VerifyOutputFile(outputPath); err != nil {
		return fmt.Errorf("tts exited 0 but %w", err)
	}

	return nil
}

// Model returns the configured model identifier, for startup logging.
func (e *XTTSEngine) Model() string {
	return e.model
}

// redactText trims text for log lines so long prompts don't flood the log.
func redactText(text string) string {
	const keep = 60
	text = strings.TrimSpace(text)
	if len(text) <= keep {
		return text
	}
	return text[:keep] + "..."
}
