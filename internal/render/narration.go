package render

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// SpeechSynthesizer produces spoken audio for a piece of text.
type SpeechSynthesizer interface {
	GenerateSpeech(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Prober measures the duration of a media file in seconds.
type Prober interface {
	Probe(ctx context.Context, path string) (float64, error)
}

// NarrationClip is one synthesized speech file with its measured length.
type NarrationClip struct {
	Path     string
	Duration float64
}

// Narrator synthesizes per-slide narration clips into a scratch
// directory. Durations are always measured from the encoded file, never
// estimated from text length.
type Narrator struct {
	tts    SpeechSynthesizer
	prober Prober
}

func NewNarrator(tts SpeechSynthesizer, prober Prober) *Narrator {
	return &Narrator{tts: tts, prober: prober}
}

// Synthesize generates speech for one slide and returns the clip with
// its measured duration. Failures come back as NarrationError so the
// caller can degrade the slide instead of failing the run.
func (n *Narrator) Synthesize(ctx context.Context, scratchDir, text, voiceID string, slideIndex int) (*NarrationClip, error) {
	audio, err := n.tts.GenerateSpeech(ctx, text, voiceID)
	if err != nil {
		return nil, &NarrationError{SlideIndex: slideIndex, Err: err}
	}

	path := filepath.Join(scratchDir, fmt.Sprintf("narration_%04d.mp3", slideIndex))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return nil, &NarrationError{SlideIndex: slideIndex, Err: fmt.Errorf("failed to save clip: %w", err)}
	}

	duration, err := n.prober.Probe(ctx, path)
	if err != nil {
		return nil, &NarrationError{SlideIndex: slideIndex, Err: fmt.Errorf("failed to measure clip: %w", err)}
	}
	if duration <= 0 {
		return nil, &NarrationError{SlideIndex: slideIndex, Err: fmt.Errorf("measured non-positive duration %.3f", duration)}
	}

	log.Printf("[Narrator] Slide %d narration: %.2fs", slideIndex, duration)
	return &NarrationClip{Path: path, Duration: duration}, nil
}
