package factory

import (
	"context"

	"github.com/mikey/llm-reply-generator/internal/adapters/gemini"
	"github.com/mikey/llm-reply-generator/internal/config"
	"github.com/mikey/llm-reply-generator/internal/core"
	"go.uber.org/zap"
)

// GeminiFactory creates Gemini LLM clients
type GeminiFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewGeminiFactory creates a new Gemini factory
func NewGeminiFactory(cfg *config.Config, logger *zap.Logger) *GeminiFactory {
	return &GeminiFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a Gemini LLM client. The caller should Close it.
func (f *GeminiFactory) CreateLLMClient() (core.LLMClient, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, core.NewConfigurationError("gemini (set GEMINI_API_KEY)", core.ErrMissingCredential)
	}

	client, err := gemini.NewGeminiClient(
		context.Background(),
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		f.logger,
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}
