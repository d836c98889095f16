package services

import "context"

// TTSService converts text into spoken audio. Implementations return
// the encoded audio bytes (MP3) for the caller to persist.
type TTSService interface {
	// GenerateSpeech synthesizes text with the given voice. An empty
	// voiceID selects the provider's default voice.
	GenerateSpeech(ctx context.Context, text, voiceID string) ([]byte, error)
}
