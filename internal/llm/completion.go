package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/nicofic01/chatbot-backend/internal/config"
	"github.com/nicofic01/chatbot-backend/internal/fault"
	"github.com/nicofic01/chatbot-backend/internal/logger"
)

const defaultSystemPrompt = "You are an assistant specialized in crafting corporate purpose statements. Respond to the user's request accurately and concisely."

// CompletionClient performs a single chat-completion call per request with a
// fixed system instruction, model and output limit. It never retries; every
// failure is mapped to a *fault.UpstreamError with a cause tag.
type CompletionClient struct {
	client       Client
	model        string
	maxTokens    int
	systemPrompt string
	timeout      time.Duration
	hasCred      bool
}

// NewCompletionClient wraps client with the request parameters from cfg.
func NewCompletionClient(client Client, cfg config.LLMConfig) *CompletionClient {
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CompletionClient{
		client:       client,
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: systemPrompt,
		timeout:      timeout,
		hasCred:      cfg.APIKey != "",
	}
}

// Complete sends prompt to the completion service and returns the first
// generated choice's text. The call is bounded by the configured timeout.
func (c *CompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.hasCred {
		return "", &fault.UpstreamError{Cause: fault.CauseAuth, Err: errors.New("missing API credential")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		upstreamErr := classify(err)
		logger.L.Error("completion call failed", "cause", upstreamErr.Cause, "error", err)
		return "", upstreamErr
	}

	if len(resp.Choices) == 0 {
		return "", &fault.UpstreamError{Cause: fault.CauseMalformed, Err: errors.New("response contains no choices")}
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps a go-openai error to an upstream cause tag.
func classify(err error) *fault.UpstreamError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return &fault.UpstreamError{Cause: fault.CauseAuth, Err: err}
		}
		return &fault.UpstreamError{Cause: fault.CauseStatus, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode != 0 {
			return &fault.UpstreamError{Cause: fault.CauseStatus, Err: err}
		}
		return &fault.UpstreamError{Cause: fault.CauseTransport, Err: err}
	}

	// Timeouts, connection resets and the like surface as plain transport
	// errors from the underlying HTTP client.
	return &fault.UpstreamError{Cause: fault.CauseTransport, Err: err}
}
