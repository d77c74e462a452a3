package service

import (
	"context"

	"carintel/internal/model"
)

// Generator is the text-generation collaborator behind chat and advisory calls
type Generator interface {
	// Generate returns the model's reply for the given conversation
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// StreamingGenerator is a Generator that can also deliver the reply incrementally
type StreamingGenerator interface {
	Generator

	// GenerateStream calls callback for each chunk and returns the full reply
	GenerateStream(ctx context.Context, req GenerateRequest, callback StreamCallback) (string, error)
}

// GenerateRequest is one generation call
type GenerateRequest struct {
	Model       string
	Messages    []model.Message
	Temperature float64
}

// StreamChunk represents a generic streaming response chunk
type StreamChunk struct {
	// Regular content
	Content string

	// Thinking/reasoning content (provider-specific, e.g. DeepSeek on NVIDIA)
	ThinkingContent string

	Role string

	// Whether this is the final chunk
	Done bool
}

// StreamCallback is called for each chunk in streaming mode
type StreamCallback func(chunk *StreamChunk) error

// UserPrompt builds a single-message conversation
func UserPrompt(prompt string) []model.Message {
	return []model.Message{{Role: model.RoleUser, Content: prompt}}
}

// Ensure the clients implement the generator interfaces
var (
	_ StreamingGenerator = (*OpenAIClient)(nil)
	_ Generator          = (*GeminiClient)(nil)
)
