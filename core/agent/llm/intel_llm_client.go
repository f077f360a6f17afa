// Package llm talks to an OpenAI-compatible API for embeddings, classification,
// summaries and reply drafting.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"intel_server/pkg/resilience"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel          = "gpt-4o-mini"
	DefaultEmbeddingModel = "text-embedding-ada-002"
)

// ErrEmptyResponse is returned when the API answers without choices or vectors.
var ErrEmptyResponse = errors.New("llm: empty response")

// ClientConfig configures a Client. Zero values fall back to defaults.
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	MaxTokens      int
	Temperature    float64
	Timeout        time.Duration
}

// Client implements the embedding, classification, summary and reply ports.
// Every call runs behind its own circuit breaker.
type Client struct {
	api            *openai.Client
	model          string
	embeddingModel openai.EmbeddingModel
	maxTokens      int
	temperature    float32

	chatBreaker  *resilience.Breaker
	embedBreaker *resilience.Breaker
}

func NewClient(cfg ClientConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		api:            openai.NewClientWithConfig(apiCfg),
		model:          cfg.Model,
		embeddingModel: ResolveEmbeddingModel(cfg.EmbeddingModel),
		maxTokens:      cfg.MaxTokens,
		temperature:    float32(cfg.Temperature),
		chatBreaker:    resilience.NewBreaker(resilience.DefaultBreakerConfig("llm-chat", cfg.Timeout)),
		embedBreaker:   resilience.NewBreaker(resilience.DefaultBreakerConfig("llm-embedding", cfg.Timeout)),
	}
}

// ResolveEmbeddingModel maps a configured model name onto the client's enum.
// Names the client does not know resolve to text-embedding-ada-002.
func ResolveEmbeddingModel(name string) openai.EmbeddingModel {
	var m openai.EmbeddingModel
	if err := m.UnmarshalText([]byte(name)); err != nil || m == openai.Unknown {
		return openai.AdaEmbeddingV2
	}
	return m
}

// Model returns the chat model name.
func (c *Client) Model() string {
	return c.model
}

func (c *Client) completeWithSystem(ctx context.Context, systemPrompt, userPrompt string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return resilience.Call(ctx, c.chatBreaker, func(ctx context.Context) (string, error) {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", ErrEmptyResponse
		}
		return resp.Choices[0].Message.Content, nil
	})
}

// Embed returns the embedding of a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one request, preserving input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return resilience.Call(ctx, c.embedBreaker, func(ctx context.Context) ([][]float32, error) {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: c.embeddingModel,
			Input: texts,
		})
		if err != nil {
			return nil, fmt.Errorf("create embeddings: %w", err)
		}
		if len(resp.Data) != len(texts) {
			return nil, fmt.Errorf("%w: %d vectors for %d inputs", ErrEmptyResponse, len(resp.Data), len(texts))
		}

		data := resp.Data
		sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })
		out := make([][]float32, len(data))
		for i, d := range data {
			out[i] = d.Embedding
		}
		return out, nil
	})
}

func truncateBody(body string, maxLen int) string {
	if len(body) <= maxLen {
		return body
	}
	return body[:maxLen] + "..."
}
