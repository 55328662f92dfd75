package core

import (
	"context"
	"time"
)

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete sends the prompt and returns the raw completion text.
	// Errors should be *ReplyError values so the failure kind is preserved.
	Complete(ctx context.Context, prompt Prompt) (string, error)

	// Provider names the backing service for logs and metrics
	Provider() string
}

// Observer receives the outcome of every reply generation.
// kind is empty for successful generations.
type Observer interface {
	ObserveReply(provider string, kind FailureKind, elapsed time.Duration)
}
