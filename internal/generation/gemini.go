package generation

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiBackend generates through the Gemini API.
type GeminiBackend struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiBackend creates a Gemini client. An empty baseURL uses the
// default endpoint.
func NewGeminiBackend(ctx context.Context, apiKey, baseURL, model string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiBackend{client: client, model: model, temperature: 0.4}, nil
}

func (b *GeminiBackend) Name() string { return "gemini:" + b.model }

func (b *GeminiBackend) Generate(ctx context.Context, call Call) (string, error) {
	parts := make([]*genai.Part, 0, len(call.Parts))
	for _, p := range call.Parts {
		if p.Media != nil {
			parts = append(parts, genai.NewPartFromBytes(p.Media.Data, p.Media.MIMEType))
			continue
		}
		parts = append(parts, genai.NewPartFromText(p.Text))
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(b.temperature),
		ResponseMIMEType: "application/json",
	}
	if call.Schema != nil {
		config.ResponseSchema = call.Schema.Gemini
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}
