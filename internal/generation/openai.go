package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend generates through an OpenAI compatible chat completions API.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIBackend returns a backend calling the chat completions API of an
// OpenAI compatible server. An empty baseURL uses the OpenAI default.
func NewOpenAIBackend(apiKey, baseURL, model string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, errors.New("openai API key is required")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIBackend{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (b *OpenAIBackend) Name() string { return "openai:" + b.model }

func (b *OpenAIBackend) Generate(ctx context.Context, call Call) (string, error) {
	content := make([]openai.ChatMessagePart, 0, len(call.Parts))
	for _, p := range call.Parts {
		if p.Media != nil {
			content = append(content, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    p.Media.String(),
					Detail: openai.ImageURLDetailAuto,
				},
			})
			continue
		}
		content = append(content, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: p.Text})
	}

	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: content},
		},
	}
	if call.Schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   call.Schema.Name,
				Schema: json.RawMessage(call.Schema.JSON),
			},
		}
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("openai returned an empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
