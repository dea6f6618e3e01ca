package llm

import "context"

// Provider is the interface that all LLM backends implement.
type Provider interface {
	// Complete sends a completion request and returns the response.
	// Errors are classified by the chain: *HTTPError for non-2xx replies,
	// ErrInvalidResponse for undecodable bodies, anything else is transport.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider's name as it appears in attempt records.
	Name() string
}
