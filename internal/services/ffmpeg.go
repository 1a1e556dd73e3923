package services

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Transcoder converts audio between formats. A zero exit status alone is not
// proof of success: implementations must also verify the output file exists
// and is non-empty, because ffmpeg can exit 0 without producing usable output
// (e.g. when the input has no audio stream).
type Transcoder interface {
	// NormalizeSample converts any input audio to the canonical mono wav at
	// the service's fixed sample rate.
	NormalizeSample(ctx context.Context, inputPath, outputPath string) error

	// EncodeMP3 converts a wav file to the deliverable mp3 format.
	EncodeMP3(ctx context.Context, inputPath, outputPath string) error
}

// ---------------------------------------------------------------------------
// FFmpegService
// ---------------------------------------------------------------------------

type FFmpegService struct {
	binary     string
	sampleRate int
}

// NewFFmpegService returns a Transcoder backed by the ffmpeg binary.
// Invocation is always an argument vector, never a shell string, so
// user-controlled paths can't smuggle shell syntax.
func NewFFmpegService(binary string, sampleRate int) *FFmpegService {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegService{
		binary:     binary,
		sampleRate: sampleRate,
	}
}

// NormalizeSample converts inputPath to a mono wav at the canonical sample
// rate, writing it to outputPath.
func (s *FFmpegService) NormalizeSample(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-i", inputPath,
		"-ar", strconv.Itoa(s.sampleRate), // Canonical sample rate
		"-ac", "1", // Mono
		"-y",
		outputPath,
	}

	return s.run(ctx, "normalize sample", args, outputPath)
}

// EncodeMP3 converts a wav file at inputPath to mp3 at outputPath.
func (s *FFmpegService) EncodeMP3(ctx context.Context, inputPath, outputPath string) error {
	args := []string{
		"-i", inputPath,
		"-ar", strconv.Itoa(s.sampleRate),
		"-codec:a", "libmp3lame",
		"-qscale:a", "2",
		"-y",
		outputPath,
	}

	return s.run(ctx, "encode mp3", args, outputPath)
}

// run executes ffmpeg and applies the dual check: non-zero exit is a failure,
// and so is a missing or empty output file despite a zero exit.
func (s *FFmpegService) run(ctx context.Context, label string, args []string, outputPath string) error {
	log.Debug().Msgf("[FFmpeg] %s: %s %s", label, s.binary, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, s.binary, args...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s failed: %w (output: %s)", label, err, tail(output))
	}

	if err := VerifyOutputFile(outputPath); err != nil {
		return fmt.Errorf("ffmpeg %s exited 0 but %w", label, err)
	}

	return nil
}

// GetAudioDuration returns the duration of an audio file in milliseconds,
// using ffprobe from the same toolchain directory as the ffmpeg binary.
func (s *FFmpegService) GetAudioDuration(ctx context.Context, audioPath string) (int, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	}

	cmd := exec.CommandContext(ctx, s.probeBinary(), args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var durationSec float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &durationSec); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return int(durationSec * 1000), nil
}

func (s *FFmpegService) probeBinary() string {
	dir := filepath.Dir(s.binary)
	if dir == "." {
		return "ffprobe"
	}
	return filepath.Join(dir, "ffprobe")
}

// VerifyOutputFile returns an error when path is absent or empty.
func VerifyOutputFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("produced no output file at %s", path)
	}
	if err != nil {
		return fmt.Errorf("could not stat output file %s: %v", path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("produced an empty output file at %s", path)
	}
	return nil
}

// tail keeps the last part of subprocess output for error messages; ffmpeg is
// chatty and the useful diagnostics are at the end.
func tail(output []byte) string {
	const keep = 400
	s := strings.TrimSpace(string(output))
	if len(s) <= keep {
		return s
	}
	return "..." + s[len(s)-keep:]
}
