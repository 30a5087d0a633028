// Package llm is the boundary to the generation collaborator: an
// OpenAI-compatible chat-completion endpoint, which covers both hosted
// APIs and local inference servers via a base-URL override.
package llm

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// #region generator
// Generator produces text for a prompt at a given sampling temperature.
// Implementations may fail or return malformed output; callers own the
// recovery policy.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
}
// #endregion generator

// #region config
// Config holds client parameters. Reads from env vars: OPENAI_API_KEY,
// OPENAI_MODEL, OPENAI_BASE_URL.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// DefaultConfig returns client configuration from the environment.
func DefaultConfig() Config {
	cfg := Config{
		APIKey: os.Getenv("OPENAI_API_KEY"),
		Model:  "gpt-4o-mini",
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	return cfg
}
// #endregion config

// #region client
// Client wraps the chat-completion API behind the Generator interface.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient builds a Client for the given model endpoint.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set and no base URL override")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(oc),
		model: cfg.Model,
	}, nil
}

// NewClientWithModel returns a Client sharing cfg but targeting model.
// Each configured variant gets its own instance.
func NewClientWithModel(cfg Config, model string) (*Client, error) {
	c, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	c.model = model
	return c, nil
}
// #endregion client

// #region generate
// Generate sends a single-turn completion request.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion (%s): no choices returned", c.model)
	}
	return resp.Choices[0].Message.Content, nil
}
// #endregion generate
