package factory

import (
	"fmt"

	"github.com/mikey/llm-reply-generator/internal/config"
	"github.com/mikey/llm-reply-generator/internal/core"
	"go.uber.org/zap"
)

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new LLM client based on the configured provider
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	provider := f.cfg.GetLLM().Provider

	f.logger.Info("Creating LLM client", zap.String("provider", provider))

	switch provider {
	case "bedrock":
		return NewBedrockFactory(f.cfg, f.logger).CreateLLMClient()
	case "gemini":
		return NewGeminiFactory(f.cfg, f.logger).CreateLLMClient()
	case "openai":
		return NewOpenAIFactory(f.cfg, f.logger).CreateLLMClient()
	default:
		return nil, core.NewConfigurationError(fmt.Sprintf("unsupported LLM provider: %q", provider), nil)
	}
}
