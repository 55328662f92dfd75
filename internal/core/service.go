package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/llm-reply-generator/internal/utils"
	"go.uber.org/zap"
)

// ServiceOptions holds the settings fixed at process start
type ServiceOptions struct {
	// Timeout bounds a single call to the LLM client; zero disables it
	Timeout time.Duration
	// MaxBodySize truncates the embedded email in bytes; zero keeps it whole
	MaxBodySize int
}

// ReplyService is the core service for reply generation
type ReplyService struct {
	llmClient     LLMClient
	textProcessor *utils.TextProcessor
	observer      Observer
	logger        *zap.Logger
	timeout       time.Duration
	maxBodySize   int
}

// NewReplyService creates a new reply service. observer may be nil.
func NewReplyService(
	llmClient LLMClient,
	textProcessor *utils.TextProcessor,
	observer Observer,
	logger *zap.Logger,
	opts ServiceOptions,
) *ReplyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if textProcessor == nil {
		textProcessor = utils.NewTextProcessor(logger)
	}
	return &ReplyService{
		llmClient:     llmClient,
		textProcessor: textProcessor,
		observer:      observer,
		logger:        logger,
		timeout:       opts.Timeout,
		maxBodySize:   opts.MaxBodySize,
	}
}

// Provider returns the name of the configured LLM provider
func (s *ReplyService) Provider() string {
	if s.llmClient == nil {
		return "none"
	}
	return s.llmClient.Provider()
}

// GenerateReply validates the request, sends exactly one prompt to the LLM
// client and converts every outcome into a ReplyResult. It never returns an
// error or panics on behalf of the client.
func (s *ReplyService) GenerateReply(ctx context.Context, req ReplyRequest) (result ReplyResult) {
	start := time.Now()
	provider := s.Provider()
	logger := s.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("provider", provider),
		zap.String("tone", string(req.Tone)),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("LLM client panicked", zap.Any("panic", r))
			result = Failure(KindTransport, fmt.Sprintf("unexpected fault while calling %s: %v", provider, r))
		}
		if s.observer != nil {
			s.observer.ObserveReply(provider, result.Kind, time.Since(start))
		}
	}()

	if err := req.Validate(); err != nil {
		logger.Info("Rejected reply request", zap.Error(err))
		return Failure(KindOf(err), err.Error())
	}

	if s.llmClient == nil {
		err := NewConfigurationError("cannot generate a reply", ErrNoClient)
		logger.Error("Reply service has no LLM client", zap.Error(err))
		return Failure(err.Kind, err.Error())
	}

	body := s.textProcessor.ProcessText(req.OriginalEmail, s.maxBodySize)
	prompt := BuildPrompt(ReplyRequest{OriginalEmail: body, Tone: req.Tone})

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger.Info("Generating reply", zap.Int("email_length", len(req.OriginalEmail)))

	text, err := s.llmClient.Complete(ctx, prompt)
	if err != nil {
		kind := KindOf(err)
		reason := err.Error()
		var re *ReplyError
		if !errors.As(err, &re) {
			if isTimeout(err) {
				reason = fmt.Sprintf("request to %s timed out: %v", provider, err)
			} else {
				reason = fmt.Sprintf("request to %s failed: %v", provider, err)
			}
		}
		logger.Warn("Reply generation failed",
			zap.String("kind", string(kind)),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return Failure(kind, reason)
	}

	reply := strings.TrimSpace(text)
	if reply == "" {
		err := NewServiceError(provider, ErrEmptyCompletion)
		logger.Warn("Reply generation failed", zap.String("kind", string(err.Kind)), zap.Error(err))
		return Failure(err.Kind, err.Error())
	}

	logger.Info("Reply generated",
		zap.Int("reply_length", len(reply)),
		zap.Duration("duration", time.Since(start)))

	return Success(reply)
}
