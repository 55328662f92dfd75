package config

import (
	"errors"
	"fmt"

	"github.com/mikey/llm-reply-generator/internal/core"
)

// Providers lists the supported LLM providers
var Providers = []string{"openai", "gemini", "bedrock"}

// Frontends lists the supported daemon frontends
var Frontends = []string{"http", "smtp"}

// Validate checks the settings needed before any request is attempted.
// Problems are returned as a single configuration failure.
func (c *Config) Validate() error {
	var problems []error

	llm := c.GetLLM()
	if _, err := c.GetDuration("llm.timeout"); err != nil {
		problems = append(problems, fmt.Errorf("llm.timeout: %w", err))
	}
	if llm.MaxBodySize < 0 {
		problems = append(problems, fmt.Errorf("llm.max_body_size must not be negative"))
	}

	switch llm.Provider {
	case "openai":
		openaiCfg := c.GetOpenAI()
		if openaiCfg.APIKey == "" {
			problems = append(problems, fmt.Errorf("openai: %w (set OPENAI_API_KEY)", core.ErrMissingCredential))
		}
		if openaiCfg.ModelName == "" {
			problems = append(problems, fmt.Errorf("openai.model_name is required"))
		}
		if openaiCfg.MaxTokens <= 0 {
			problems = append(problems, fmt.Errorf("openai.max_tokens must be positive"))
		}
	case "gemini":
		geminiCfg := c.GetGemini()
		if geminiCfg.APIKey == "" {
			problems = append(problems, fmt.Errorf("gemini: %w (set GEMINI_API_KEY)", core.ErrMissingCredential))
		}
		if geminiCfg.ModelName == "" {
			problems = append(problems, fmt.Errorf("gemini.model_name is required"))
		}
		if geminiCfg.MaxTokens <= 0 {
			problems = append(problems, fmt.Errorf("gemini.max_tokens must be positive"))
		}
	case "bedrock":
		bedrockCfg := c.GetBedrock()
		if bedrockCfg.Region == "" {
			problems = append(problems, fmt.Errorf("bedrock.region is required"))
		}
		if bedrockCfg.ModelID == "" {
			problems = append(problems, fmt.Errorf("bedrock.model_id is required"))
		}
		if bedrockCfg.MaxTokens <= 0 {
			problems = append(problems, fmt.Errorf("bedrock.max_tokens must be positive"))
		}
	default:
		problems = append(problems, fmt.Errorf("unsupported LLM provider: %q (expected one of %v)", llm.Provider, Providers))
	}

	return asConfigurationError(problems)
}

// ValidateServer checks the daemon frontend settings
func (c *Config) ValidateServer() error {
	var problems []error

	frontends := c.GetFrontends()
	if len(frontends) == 0 {
		problems = append(problems, fmt.Errorf("server.frontends must name at least one of %v", Frontends))
	}
	for _, name := range frontends {
		switch name {
		case "http":
			if c.GetHTTP().ListenAddress == "" {
				problems = append(problems, fmt.Errorf("http.listen_address is required"))
			}
		case "smtp":
			smtpCfg := c.GetSMTP()
			if smtpCfg.ListenAddress == "" {
				problems = append(problems, fmt.Errorf("smtp.listen_address is required"))
			}
			if _, err := core.ParseTone(smtpCfg.DefaultTone); err != nil {
				problems = append(problems, fmt.Errorf("smtp.default_tone: %w", err))
			}
			problems = append(problems, validateHeaderNames(smtpCfg.Headers)...)
		default:
			problems = append(problems, fmt.Errorf("unsupported frontend: %q (expected one of %v)", name, Frontends))
		}
	}

	return asConfigurationError(problems)
}

// validateHeaderNames rejects empty names and names that are not valid
// RFC 5322 field names, since they are written into relayed mail.
func validateHeaderNames(h SMTPHeaders) []error {
	var problems []error
	for _, header := range []struct{ key, name string }{
		{"smtp.headers.status", h.Status},
		{"smtp.headers.tone", h.Tone},
		{"smtp.headers.draft", h.Draft},
		{"smtp.headers.error", h.Error},
		{"smtp.headers.requested_tone", h.RequestedTone},
	} {
		if header.name == "" {
			problems = append(problems, fmt.Errorf("%s must not be empty", header.key))
			continue
		}
		for _, r := range header.name {
			if r <= ' ' || r > '~' || r == ':' {
				problems = append(problems, fmt.Errorf("%s: invalid header name %q", header.key, header.name))
				break
			}
		}
	}
	return problems
}

func asConfigurationError(problems []error) error {
	if len(problems) == 0 {
		return nil
	}
	return core.NewConfigurationError("invalid configuration", errors.Join(problems...))
}
