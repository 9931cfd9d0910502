package llm

import (
	"context"
	"fmt"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a single chat-completion call.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Client completes a chat request and returns the raw text of the first
// choice. Implementations must return *APIError for provider-side failures
// so the retry policy can inspect the status code.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// APIError carries the provider's HTTP status for retry classification.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm provider error (status %d): %s", e.StatusCode, e.Message)
}

// HTTPStatus implements util.StatusCoder.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}
