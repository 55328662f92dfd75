package frontend

import (
	"context"
	"sync"

	"github.com/mikey/llm-reply-generator/internal/core"
)

// stubGenerator records requests and answers with a fixed result
type stubGenerator struct {
	mu       sync.Mutex
	result   core.ReplyResult
	requests []core.ReplyRequest
}

func (s *stubGenerator) GenerateReply(_ context.Context, req core.ReplyRequest) core.ReplyResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.result
}

func (s *stubGenerator) Provider() string {
	return "stub"
}

func (s *stubGenerator) calls() []core.ReplyRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ReplyRequest, len(s.requests))
	copy(out, s.requests)
	return out
}
