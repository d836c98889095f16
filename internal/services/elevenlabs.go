package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	elevenLabsBaseURL      = "https://api.elevenlabs.io"
	elevenLabsModel        = "eleven_multilingual_v2"
	elevenLabsDefaultVoice = "EXAVITQu4vr4xnSDxMaL"
	elevenLabsOutputFormat = "mp3_44100_128"
)

// ElevenLabsService handles text-to-speech via the ElevenLabs REST API.
type ElevenLabsService struct {
	apiKey  string
	voiceID string
	client  *http.Client
}

var _ TTSService = (*ElevenLabsService)(nil)

// NewElevenLabsService creates the service with a default voice. An
// empty defaultVoice falls back to the builtin narration voice.
func NewElevenLabsService(apiKey, defaultVoice string) *ElevenLabsService {
	if defaultVoice == "" {
		defaultVoice = elevenLabsDefaultVoice
	}
	return &ElevenLabsService{
		apiKey:  apiKey,
		voiceID: defaultVoice,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type elevenLabsRequest struct {
	Text          string                   `json:"text"`
	ModelID       string                   `json:"model_id"`
	VoiceSettings *elevenLabsVoiceSettings `json:"voice_settings,omitempty"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// GenerateSpeech converts text to speech. voiceID overrides the
// service-level default when non-empty.
func (s *ElevenLabsService) GenerateSpeech(ctx context.Context, text, voiceID string) ([]byte, error) {
	voice := s.voiceID
	if voiceID != "" {
		voice = voiceID
	}

	reqBody := elevenLabsRequest{
		Text:    text,
		ModelID: elevenLabsModel,
		VoiceSettings: &elevenLabsVoiceSettings{
			Stability:       0.50,
			SimilarityBoost: 0.75,
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ElevenLabs request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		elevenLabsBaseURL, voice, elevenLabsOutputFormat)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create ElevenLabs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	log.Printf("[ElevenLabs] Generating speech (voiceID=%s, textLen=%d)", voice, len(text))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ElevenLabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ElevenLabs returned status %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ElevenLabs response: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("ElevenLabs returned empty audio")
	}
	return audio, nil
}
