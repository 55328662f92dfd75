package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override
const EnvPrefix = "REPLY_GENERATOR"

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance.
// A .env file in the working directory is loaded first when present.
func New() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	v := NewEmptyViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/llm-reply-generator/")
	v.AddConfigPath("$HOME/.llm-reply-generator")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromFile creates a configuration instance from an explicit config file
func NewFromFile(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	v := NewEmptyViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults and environment bindings
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	return v
}

// LoadDotEnv loads variables from the given files, or .env when none are given.
// Missing files are ignored and variables already set in the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

func bindEnv(v *viper.Viper) {
	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The provider SDKs' conventional variable names work too
	_ = v.BindEnv("openai.api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY")
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM defaults
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_body_size", 0)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.top_p", 1.0)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 500)
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.top_p", 0.95)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 500)
	v.SetDefault("bedrock.temperature", 0.7)
	v.SetDefault("bedrock.top_p", 0.9)

	// Server defaults
	v.SetDefault("server.frontends", []string{"http"})

	// HTTP frontend defaults
	v.SetDefault("http.listen_address", "0.0.0.0:8080")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "90s")
	v.SetDefault("http.max_request_bytes", 1<<20)

	// SMTP frontend defaults
	v.SetDefault("smtp.listen_address", "0.0.0.0:10026")
	v.SetDefault("smtp.domain", "localhost")
	v.SetDefault("smtp.default_tone", "professional")
	v.SetDefault("smtp.skip_domains", []string{})
	v.SetDefault("smtp.headers.status", "X-Reply-Draft-Status")
	v.SetDefault("smtp.headers.tone", "X-Reply-Draft-Tone")
	v.SetDefault("smtp.headers.draft", "X-Reply-Draft")
	v.SetDefault("smtp.headers.error", "X-Reply-Draft-Error")
	v.SetDefault("smtp.headers.requested_tone", "X-Reply-Tone")
	v.SetDefault("smtp.relay.enabled", true)
	v.SetDefault("smtp.relay.address", "127.0.0.1")
	v.SetDefault("smtp.relay.port", 10025)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
