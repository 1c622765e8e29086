package inference

import (
	"context"

	"fable/pkg/schema"
)

// Request is a fully assembled prompt ready for an engine. Chat engines read
// Turns and SystemPrompt; completion engines read the rendered Prompt plus
// StopStrings and ignore the structured form.
type Request struct {
	Turns        []schema.Turn
	SystemPrompt string
	Prompt       string
	StopStrings  []string

	Model       string
	MaxTokens   int64
	Temperature float64
}

// Inferencer runs model generations. Stream emits raw text chunks as they
// arrive; tag parsing into answer/reasoning happens downstream.
type Inferencer interface {
	Infer(ctx context.Context, req *Request) (string, error)
	Stream(ctx context.Context, req *Request, emit func(chunk string) error) error
}
