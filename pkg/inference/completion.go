package inference

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

// CompletionInferencer is a completion-style engine: it takes the rendered
// literal prompt and the synthesized stop strings instead of structured
// chat messages. Useful for legacy endpoints and local text-completion
// backends driven by an inference template.
type CompletionInferencer struct {
	client *openai.Client
	apiKey string
	model  string
}

func NewCompletionInferencer(apiKey, baseURL, model string) *CompletionInferencer {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &CompletionInferencer{
		client: &client,
		apiKey: apiKey,
		model:  model,
	}
}

func (o *CompletionInferencer) SetModel(model string) {
	o.model = model
}

func (o *CompletionInferencer) params(req *Request) openai.CompletionNewParams {
	params := openai.CompletionNewParams{
		Model: openai.CompletionNewParamsModel(cmp.Or(req.Model, o.model)),
		Prompt: openai.CompletionNewParamsPromptUnion{
			OfString: param.Opt[string]{Value: req.Prompt},
		},
		MaxTokens:   openai.Int(cmp.Or(req.MaxTokens, 1024)),
		Temperature: openai.Float(cmp.Or(req.Temperature, 0.7)),
	}
	if len(req.StopStrings) > 0 {
		params.Stop = openai.CompletionNewParamsStopUnion{OfStringArray: req.StopStrings}
	}
	return params
}

// Infer runs the rendered prompt to completion and returns the output text.
func (o *CompletionInferencer) Infer(ctx context.Context, req *Request) (string, error) {
	resp, err := o.client.Completions.New(ctx, o.params(req))
	if err != nil {
		return "", fmt.Errorf("completion inference error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	return resp.Choices[0].Text, nil
}

// Stream runs the rendered prompt and emits text deltas as they arrive.
func (o *CompletionInferencer) Stream(ctx context.Context, req *Request, emit func(string) error) error {
	stream := o.client.Completions.NewStreaming(ctx, o.params(req))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Text; delta != "" {
			if err := emit(delta); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("completion stream error: %w", err)
	}
	return nil
}
