package prediction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// LLMClient is the subset of go-openai's client the orchestrator
// needs, kept as an interface so tests can stub the model out entirely.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (reply string, err error)
}

// openAIClient calls a Chat Completions-compatible endpoint. BaseURL
// lets this point at any OpenAI-compatible provider, mirroring the
// corpus's per-node API-key/base-URL resolution for LLM calls.
type openAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds an LLMClient against apiKey/baseURL/model.
func NewOpenAIClient(apiKey, baseURL, model string) LLMClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAIClient{client: openai.NewClientWithConfig(cfg), model: model}
}

// Complete sends one system+user message pair and returns the first
// choice's trimmed content.
func (c *openAIClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm call: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// timedComplete wraps Complete with a hard deadline and reports the
// elapsed wall time regardless of outcome, for the orchestrator's
// latency_ms field.
func timedComplete(ctx context.Context, client LLMClient, timeout time.Duration, systemPrompt, userPrompt string) (string, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	reply, err := client.Complete(ctx, systemPrompt, userPrompt)
	elapsed := time.Since(start).Milliseconds()
	return reply, elapsed, err
}
