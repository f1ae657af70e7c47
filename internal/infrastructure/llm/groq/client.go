// Package groq generates answers through Groq's OpenAI-compatible chat
// completions API. Any endpoint speaking the same protocol works by
// overriding the base URL.
package groq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ayurparvani/assistant/internal/core/domain"
)

const DefaultBaseURL = "https://api.groq.com/openai/v1"

type Client struct {
	api   *openai.Client
	model string
}

func New(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyError("groq generate", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq generate: response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) Model() string {
	return c.model
}

// classifyError maps endpoint failures onto the domain taxonomy: auth
// errors are terminal, throttling and server errors are temporary.
func classifyError(operation string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden:
			return domain.WrapError(domain.ErrUnauthorized, operation, err)
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500:
			return domain.WrapError(domain.ErrTemporary, operation, err)
		default:
			return fmt.Errorf("%s: %w", operation, err)
		}
	}

	// Transport-level failures (connection refused, DNS, resets) are
	// worth another attempt.
	return domain.WrapError(domain.ErrTemporary, operation, err)
}
