package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carintel/internal/config"
	"carintel/internal/model"
)

func newTestOpenAIClient(baseURL string) *OpenAIClient {
	return NewOpenAIClient(&config.LLMConfig{
		APIKey:          "sk-test",
		APIBase:         baseURL,
		ChatModel:       "gpt-4o-mini",
		ChatTemperature: 0.7,
		ChatExtraBody:   `{"chat_template_kwargs":{"thinking":true}}`,
		Timeout:         5,
		Enabled:         true,
	}, testLogger())
}

func TestOpenAIClient_Generate(t *testing.T) {
	var got ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"  Retail Price: $30,000 CAD  "}}]}`)
	}))
	defer server.Close()

	client := newTestOpenAIClient(server.URL)
	text, err := client.Generate(context.Background(), GenerateRequest{
		Model:       "gpt-4o",
		Messages:    UserPrompt("price please"),
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Retail Price: $30,000 CAD", text)

	assert.Equal(t, "gpt-4o", got.Model)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.3, *got.Temperature)
	assert.Equal(t, []ChatMessage{{Role: "user", Content: "price please"}}, got.Messages)
	assert.False(t, got.Stream)
	assert.Contains(t, got.ExtraBody, "chat_template_kwargs")
}

func TestOpenAIClient_GenerateErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestOpenAIClient(server.URL).Generate(context.Background(), GenerateRequest{Messages: UserPrompt("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")

	disabled := NewOpenAIClient(&config.LLMConfig{APIBase: server.URL}, testLogger())
	assert.False(t, disabled.IsEnabled())
	_, err = disabled.Generate(context.Background(), GenerateRequest{Messages: UserPrompt("hi")})
	assert.ErrorIs(t, err, ErrGeneratorDisabled)
}

func TestOpenAIClient_GenerateStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\",\"content\":\"How many \"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: not-json\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"seats?\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	var chunks []*StreamChunk
	text, err := newTestOpenAIClient(server.URL).GenerateStream(context.Background(), GenerateRequest{
		Messages: []model.Message{{Role: model.RoleUser, Content: "car?"}},
	}, func(chunk *StreamChunk) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "How many seats?", text)
	require.Len(t, chunks, 2)
	assert.Equal(t, "assistant", chunks[0].Role)
	assert.True(t, chunks[1].Done)
}

func TestNewStreamChunkParser(t *testing.T) {
	tests := []struct {
		baseURL  string
		provider string
	}{
		{"https://integrate.api.nvidia.com/v1", "nvidia"},
		{"https://api.openai.com/v1", "openai"},
		{"http://localhost:11434/v1", "openai-compatible"},
	}
	for _, tt := range tests {
		_, provider := NewStreamChunkParser(tt.baseURL)
		assert.Equal(t, tt.provider, provider, tt.baseURL)
	}
}

func TestNVIDIAStreamChunkParser_Reasoning(t *testing.T) {
	data := []byte(`{"choices":[{"delta":{"content":"","reasoning_content":"thinking..."}}]}`)

	chunk, err := (&NVIDIAStreamChunkParser{}).ParseChunk(data)
	require.NoError(t, err)
	assert.Equal(t, "thinking...", chunk.ThinkingContent)

	chunk, err = (&OpenAIStreamChunkParser{}).ParseChunk(data)
	require.NoError(t, err)
	assert.Empty(t, chunk.ThinkingContent)
}
