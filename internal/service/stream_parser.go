package service

import (
	"encoding/json"
	"strings"
)

// StreamChunkParser converts one provider-specific SSE payload into a StreamChunk
type StreamChunkParser interface {
	ParseChunk(data []byte) (*StreamChunk, error)
}

// NewStreamChunkParser picks the parser matching the provider behind baseURL
func NewStreamChunkParser(baseURL string) (StreamChunkParser, string) {
	switch {
	case IsNVIDIAProvider(baseURL):
		return &NVIDIAStreamChunkParser{}, "nvidia"
	case IsOpenAIProvider(baseURL):
		return &OpenAIStreamChunkParser{}, "openai"
	default:
		// unknown providers are assumed to speak the OpenAI format
		return &OpenAIStreamChunkParser{}, "openai-compatible"
	}
}

type streamDelta struct {
	Role             string  `json:"role,omitempty"`
	Content          string  `json:"content,omitempty"`
	ReasoningContent *string `json:"reasoning_content,omitempty"`
}

type rawStreamChunk struct {
	Choices []struct {
		Delta        streamDelta `json:"delta"`
		FinishReason string      `json:"finish_reason,omitempty"`
	} `json:"choices"`
}

func decodeStreamChunk(data []byte, withReasoning bool) (*StreamChunk, error) {
	var raw rawStreamChunk
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	chunk := &StreamChunk{}
	if len(raw.Choices) > 0 {
		choice := raw.Choices[0]
		chunk.Role = choice.Delta.Role
		chunk.Content = choice.Delta.Content
		chunk.Done = choice.FinishReason != ""
		if withReasoning && choice.Delta.ReasoningContent != nil {
			chunk.ThinkingContent = *choice.Delta.ReasoningContent
		}
	}
	return chunk, nil
}

// OpenAIStreamChunkParser parses standard OpenAI-format streaming chunks
type OpenAIStreamChunkParser struct{}

// ParseChunk implements StreamChunkParser
func (p *OpenAIStreamChunkParser) ParseChunk(data []byte) (*StreamChunk, error) {
	return decodeStreamChunk(data, false)
}

// NVIDIAStreamChunkParser parses NVIDIA chunks, which carry reasoning_content
type NVIDIAStreamChunkParser struct{}

// ParseChunk implements StreamChunkParser
func (p *NVIDIAStreamChunkParser) ParseChunk(data []byte) (*StreamChunk, error) {
	return decodeStreamChunk(data, true)
}

// IsNVIDIAProvider checks if the base URL is the NVIDIA API
func IsNVIDIAProvider(baseURL string) bool {
	return strings.HasPrefix(baseURL, "https://integrate.api.nvidia.com")
}

// IsOpenAIProvider checks if the base URL is the official OpenAI API
func IsOpenAIProvider(baseURL string) bool {
	return strings.Contains(baseURL, "api.openai.com")
}
