package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropic creates a client. An empty baseURL uses the public API.
func NewAnthropic(apiKey, model, baseURL string) *AnthropicClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	temp := req.Temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(c.model),
		System: req.System,
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(req.User),
				},
			},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return "", anthropicError(err)
	}

	var sb strings.Builder
	for _, part := range resp.Content {
		if part.Text != nil {
			sb.WriteString(*part.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrNoContent
	}
	return sb.String(), nil
}

func anthropicError(err error) error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		msg := "request failed"
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &UpstreamError{Status: reqErr.StatusCode, Message: msg}
	}
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		// The library folds the status code into the wrapping message.
		return &UpstreamError{Message: err.Error()}
	}
	return fmt.Errorf("calling completion API: %w", err)
}
