package services

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// ValidateSample checks that path holds a decodable wav in the canonical
// profile format: mono, at the expected sample rate. Run on every normalized
// sample before it is committed to the profile store, so a profile's sample
// is guaranteed to have passed normalization.
func ValidateSample(path string, sampleRate int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open sample: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	decoder.ReadInfo()
	if decoder.Err() != nil {
		return fmt.Errorf("not a valid wav file: %w", decoder.Err())
	}

	if !decoder.WasPCMAccessed() {
		if err := decoder.FwdToPCM(); err != nil {
			return fmt.Errorf("wav file has no PCM data: %w", err)
		}
	}

	if decoder.NumChans != 1 {
		return fmt.Errorf("expected mono sample, got %d channels", decoder.NumChans)
	}

	if int(decoder.SampleRate) != sampleRate {
		return fmt.Errorf("expected sample rate %d, got %d", sampleRate, decoder.SampleRate)
	}

	if decoder.PCMLen() == 0 {
		return fmt.Errorf("wav file contains no audio data")
	}

	return nil
}
