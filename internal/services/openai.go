package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/SGiQ/reelforge/internal/models"
)

// OpenAIService generates slide scripts from a user prompt.
type OpenAIService struct {
	client *openai.Client
}

func NewOpenAIService(apiKey string) *OpenAIService {
	return &OpenAIService{
		client: openai.NewClient(apiKey),
	}
}

type slideScript struct {
	Slides []string `json:"slides"`
}

// GenerateScript produces slideCount short slide texts for a reel using
// OpenAI JSON mode. Slides that come back too long are trimmed to the
// per-slide character limit so the result always validates.
func (s *OpenAIService) GenerateScript(ctx context.Context, prompt, websiteURL string, slideCount int) ([]string, error) {
	if slideCount <= 0 {
		slideCount = 8
	}
	if slideCount > models.MaxSlides {
		slideCount = models.MaxSlides
	}

	systemPrompt := fmt.Sprintf(
		"You write punchy vertical-video slide scripts. Respond with JSON: "+
			`{"slides": ["...", ...]} containing exactly %d slides. `+
			"Each slide is one short sentence or phrase, at most %d characters, "+
			"designed to be read in under 3 seconds on screen.",
		slideCount, models.MaxSlideTextLen)

	userPrompt := prompt
	if websiteURL != "" {
		userPrompt = fmt.Sprintf("%s\n\nBrand website for context: %s", prompt, websiteURL)
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.8,
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	rawContent := resp.Choices[0].Message.Content
	var script slideScript
	if err := json.Unmarshal([]byte(rawContent), &script); err != nil {
		log.Printf("[OpenAI script] parse failed: %v", err)
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(script.Slides) == 0 {
		return nil, fmt.Errorf("script has no slides")
	}

	if len(script.Slides) > models.MaxSlides {
		script.Slides = script.Slides[:models.MaxSlides]
	}
	for i, slide := range script.Slides {
		script.Slides[i] = models.TruncateRunes(strings.TrimSpace(slide), models.MaxSlideTextLen)
	}
	return script.Slides, nil
}
