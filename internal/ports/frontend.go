package ports

import (
	"context"

	"github.com/mikey/llm-reply-generator/internal/core"
)

// ReplyGenerator produces a reply draft for a request. *core.ReplyService
// satisfies it; frontends depend on this interface so they can be tested
// without an LLM.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, req core.ReplyRequest) core.ReplyResult

	// Provider names the LLM provider behind the generator
	Provider() string
}

// Frontend defines a long-running presentation adapter
type Frontend interface {
	// Name identifies the frontend in logs
	Name() string

	// Start starts the frontend. It must not block.
	Start() error

	// Stop stops the frontend
	Stop() error
}
