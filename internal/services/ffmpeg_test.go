package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFFmpegNormalizeSample(t *testing.T) {
	// Last argument is the output path
	bin := fakeBinary(t, "ffmpeg", `
for out in "$@"; do :; done
printf 'normalized' > "$out"
`)

	svc := NewFFmpegService(bin, 22050)

	outPath := filepath.Join(t.TempDir(), "sample.wav")
	if err := svc.NormalizeSample(context.Background(), "in.ogg", outPath); err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if string(data) != "normalized" {
		t.Errorf("unexpected output: %q", data)
	}
}

func TestFFmpegNonZeroExit(t *testing.T) {
	bin := fakeBinary(t, "ffmpeg", "echo 'invalid data found' >&2\nexit 1\n")

	svc := NewFFmpegService(bin, 22050)

	err := svc.NormalizeSample(context.Background(), "in.ogg", filepath.Join(t.TempDir(), "out.wav"))
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "invalid data found") {
		t.Errorf("expected ffmpeg stderr in error, got %v", err)
	}
}

func TestFFmpegZeroExitEmptyOutput(t *testing.T) {
	// Creates the output but leaves it empty; dual check must reject it
	bin := fakeBinary(t, "ffmpeg", `
for out in "$@"; do :; done
: > "$out"
`)

	svc := NewFFmpegService(bin, 22050)

	err := svc.EncodeMP3(context.Background(), "in.wav", filepath.Join(t.TempDir(), "out.mp3"))
	if err == nil {
		t.Fatal("expected error for empty output despite exit 0")
	}
	if !strings.Contains(err.Error(), "empty output file") {
		t.Errorf("expected empty-output detail, got %v", err)
	}
}

func TestTail(t *testing.T) {
	if got := tail([]byte("short")); got != "short" {
		t.Errorf("short output altered: %q", got)
	}

	long := strings.Repeat("x", 1000) + "the useful part"
	got := tail([]byte(long))
	if !strings.HasSuffix(got, "the useful part") {
		t.Errorf("tail lost the end of the output: %q", got)
	}
	if !strings.HasPrefix(got, "...") {
		t.Errorf("expected truncation marker, got %q", got)
	}
	if len(got) > 410 {
		t.Errorf("tail kept too much: %d bytes", len(got))
	}
}
