package di

import (
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-reply-generator/internal/adapters/frontend"
	"github.com/mikey/llm-reply-generator/internal/config"
	"github.com/mikey/llm-reply-generator/internal/core"
	"github.com/mikey/llm-reply-generator/internal/logging"
	"github.com/mikey/llm-reply-generator/internal/ports"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// LLM provider flags
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Region      string
	MaxTokens   int
	Temperature float64
	TopP        float64
	MaxBodySize int
	Timeout     time.Duration

	// Request flags
	Tone string

	// Input and output flags
	InputFile  string
	Output     string
	Verbose    bool
	JSONLog    bool
	ConfigFile string

	// Stdout and Stderr default to the process streams
	Stdout io.Writer
	Stderr io.Writer
}

// BindFlags registers the flags on fs. Zero values and negative numbers
// mean "not set" and leave the configuration untouched.
func (flags *CLIFlags) BindFlags(fs *pflag.FlagSet) {
	// LLM provider flags
	fs.StringVar(&flags.Provider, "provider", "", "LLM provider (openai, gemini, bedrock)")
	fs.StringVar(&flags.Model, "model", "", "Model name or Bedrock model ID")
	fs.StringVar(&flags.APIKey, "api-key", "", "API key for the provider (defaults to OPENAI_API_KEY / GEMINI_API_KEY)")
	fs.StringVar(&flags.BaseURL, "base-url", "", "OpenAI-compatible API base URL")
	fs.StringVar(&flags.Region, "region", "", "AWS region for Bedrock")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 0, "Maximum tokens for the reply")
	fs.Float64Var(&flags.Temperature, "temperature", -1, "Temperature for generation")
	fs.Float64Var(&flags.TopP, "top-p", -1, "Top-p for generation")
	fs.IntVar(&flags.MaxBodySize, "max-body-size", 0, "Truncate the email to this many bytes (0 keeps it whole)")
	fs.DurationVar(&flags.Timeout, "timeout", 0, "Timeout for the LLM request")

	// Request flags
	fs.StringVarP(&flags.Tone, "tone", "t", string(core.ToneProfessional), "Reply tone")

	// Input and output flags
	fs.StringVarP(&flags.InputFile, "file", "f", "", "Input email file (reads stdin when omitted)")
	fs.StringVarP(&flags.Output, "output", "o", "text", "Output format (text, json)")
	fs.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file")
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := loadCLIConfig(flags)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Debug("Loaded configuration from file", zap.String("file", used))
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// No metrics for one-shot runs
	if err := container.Provide(func() core.Observer { return nil }); err != nil {
		return nil, err
	}

	if err := provideReplyService(container); err != nil {
		return nil, err
	}

	// Register CLI frontend
	if err := container.Provide(func(flags *CLIFlags, generator ports.ReplyGenerator, logger *zap.Logger) *frontend.CLIFrontend {
		stdout, stderr := flags.Stdout, flags.Stderr
		if stdout == nil {
			stdout = os.Stdout
		}
		if stderr == nil {
			stderr = os.Stderr
		}
		return frontend.NewCLIFrontend(generator, logger, stdout, stderr, flags.Output == "json", flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// loadCLIConfig builds the configuration from the config file, when given,
// or from defaults and the environment, then applies the flags on top
func loadCLIConfig(flags *CLIFlags) (*config.Config, error) {
	var cfg *config.Config
	if flags.ConfigFile != "" {
		var err error
		if cfg, err = config.NewFromFile(flags.ConfigFile); err != nil {
			return nil, err
		}
	} else {
		if err := config.LoadDotEnv(); err != nil {
			return nil, err
		}
		cfg = config.NewFromViper(config.NewEmptyViper())
	}

	applyFlags(cfg, flags)
	return cfg, nil
}

// applyFlags overrides the provider settings with the flags that were set
func applyFlags(cfg *config.Config, flags *CLIFlags) {
	v := cfg.GetViper()

	if flags.Provider != "" {
		v.Set("llm.provider", flags.Provider)
	}
	if flags.Timeout > 0 {
		v.Set("llm.timeout", flags.Timeout.String())
	}
	if flags.MaxBodySize > 0 {
		v.Set("llm.max_body_size", flags.MaxBodySize)
	}

	provider := cfg.GetLLM().Provider
	set := func(key string, value any) {
		v.Set(provider+"."+key, value)
	}

	switch provider {
	case "openai", "gemini":
		if flags.Model != "" {
			set("model_name", flags.Model)
		}
		if flags.APIKey != "" {
			set("api_key", flags.APIKey)
		}
		if flags.BaseURL != "" && provider == "openai" {
			set("base_url", flags.BaseURL)
		}
	case "bedrock":
		if flags.Model != "" {
			set("model_id", flags.Model)
		}
		if flags.Region != "" {
			set("region", flags.Region)
		}
	default:
		// Validate reports the unsupported provider
		return
	}

	if flags.MaxTokens > 0 {
		set("max_tokens", flags.MaxTokens)
	}
	if flags.Temperature >= 0 {
		set("temperature", flags.Temperature)
	}
	if flags.TopP >= 0 {
		set("top_p", flags.TopP)
	}
}
