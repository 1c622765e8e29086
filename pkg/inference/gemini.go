package inference

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"fable/pkg/schema"
)

// GeminiInferencer is a chat-style engine backed by the Gemini API.
type GeminiInferencer struct {
	client *genai.Client
	apiKey string
	model  string
}

func NewGeminiInferencer(apiKey string, model string) (*GeminiInferencer, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &GeminiInferencer{
		client: client,
		apiKey: apiKey,
		model:  model,
	}, nil
}

func (o *GeminiInferencer) ChangeConfig(config *genai.ClientConfig) {
	client, err := genai.NewClient(context.Background(), config)
	if err != nil {
		return
	}
	o.client = client
}

func (o *GeminiInferencer) contents(req *Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, turn := range req.Turns {
		var role genai.Role = genai.RoleUser
		if turn.Role == schema.SpeakerAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(cmp.Or(req.MaxTokens, 1024)),
		StopSequences:   req.StopStrings,
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Temperature != 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	return contents, config
}

// Infer sends the assembled turns to Gemini and returns the full output.
func (o *GeminiInferencer) Infer(ctx context.Context, req *Request) (string, error) {
	contents, config := o.contents(req)
	result, err := o.client.Models.GenerateContent(ctx, cmp.Or(req.Model, o.model), contents, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if result.Text() == "" {
		return "", errors.New("empty completion content")
	}
	return result.Text(), nil
}

// Stream sends the assembled turns and emits content deltas as they arrive.
func (o *GeminiInferencer) Stream(ctx context.Context, req *Request, emit func(string) error) error {
	contents, config := o.contents(req)
	for resp, err := range o.client.Models.GenerateContentStream(ctx, cmp.Or(req.Model, o.model), contents, config) {
		if err != nil {
			return fmt.Errorf("gemini stream error: %w", err)
		}
		if text := resp.Text(); text != "" {
			if err := emit(text); err != nil {
				return err
			}
		}
	}
	return nil
}
