package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ContentGenerator turns a prompt into a single text reply
type ContentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

var (
	ErrAIUnavailable     = errors.New("AI generation is not configured")
	ErrEmptyAIResponse   = errors.New("empty response from AI")
	ErrInvalidAIResponse = errors.New("invalid response format from AI")
)

// GeminiClient generates text with the Gemini API
type GeminiClient struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGeminiClient creates a client for model using apiKey
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, ErrAIUnavailable
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	block := genai.HarmBlockThresholdBlockMediumAndAbove
	return &GeminiClient{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.7),
			TopK:            genai.Ptr[float32](40),
			TopP:            genai.Ptr[float32](0.95),
			MaxOutputTokens: 8192,
			SafetySettings: []*genai.SafetySetting{
				{Category: genai.HarmCategoryHarassment, Threshold: block},
				{Category: genai.HarmCategoryHateSpeech, Threshold: block},
				{Category: genai.HarmCategorySexuallyExplicit, Threshold: block},
				{Category: genai.HarmCategoryDangerousContent, Threshold: block},
			},
		},
	}, nil
}

// GenerateContent sends prompt and returns the reply text
func (g *GeminiClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyAIResponse
	}
	return text, nil
}

// StripCodeFences removes Markdown code fences around a JSON reply
func StripCodeFences(text string) string {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			// drop the language tag line, e.g. ```json
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "json")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractJSONArray strips fences and any prose around the outermost array
func extractJSONArray(text string) (string, error) {
	s := StripCodeFences(text)
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end < start {
		return "", ErrInvalidAIResponse
	}
	return s[start : end+1], nil
}
