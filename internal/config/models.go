package config

import (
	"strings"
	"time"
)

// LLMConfig represents the provider-independent LLM settings
type LLMConfig struct {
	Provider    string
	Timeout     time.Duration
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// HTTPConfig represents the configuration for the HTTP frontend
type HTTPConfig struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxRequestBytes int64
}

// SMTPHeaders names the headers written and read by the SMTP frontend
type SMTPHeaders struct {
	Status        string
	Tone          string
	Draft         string
	Error         string
	RequestedTone string
}

// SMTPConfig represents the configuration for the SMTP frontend
type SMTPConfig struct {
	ListenAddress string
	Domain        string
	DefaultTone   string
	SkipDomains   []string
	Headers       SMTPHeaders
	RelayEnabled  bool
	RelayAddress  string
	RelayPort     int
}

// MetricsConfig represents the metrics settings
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// GetLLM returns the LLM configuration. Unparseable durations fall back to zero.
func (c *Config) GetLLM() LLMConfig {
	timeout, _ := c.GetDuration("llm.timeout")
	return LLMConfig{
		Provider:    strings.ToLower(strings.TrimSpace(c.GetString("llm.provider"))),
		Timeout:     timeout,
		MaxBodySize: c.GetInt("llm.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      strings.TrimSpace(c.GetString("openai.api_key")),
		ModelName:   c.GetString("openai.model_name"),
		BaseURL:     c.GetString("openai.base_url"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      strings.TrimSpace(c.GetString("gemini.api_key")),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetFrontends returns the enabled frontend types, lowercased.
// Entries may also be comma separated.
func (c *Config) GetFrontends() []string {
	var frontends []string
	for _, entry := range c.GetStringSlice("server.frontends") {
		for _, name := range strings.Split(entry, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name != "" {
				frontends = append(frontends, name)
			}
		}
	}
	return frontends
}

// GetHTTP returns the HTTP frontend configuration
func (c *Config) GetHTTP() HTTPConfig {
	readTimeout, _ := c.GetDuration("http.read_timeout")
	writeTimeout, _ := c.GetDuration("http.write_timeout")
	return HTTPConfig{
		ListenAddress:   c.GetString("http.listen_address"),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		MaxRequestBytes: int64(c.GetInt("http.max_request_bytes")),
	}
}

// GetSMTP returns the SMTP frontend configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		ListenAddress: c.GetString("smtp.listen_address"),
		Domain:        c.GetString("smtp.domain"),
		DefaultTone:   c.GetString("smtp.default_tone"),
		SkipDomains:   c.GetStringSlice("smtp.skip_domains"),
		Headers: SMTPHeaders{
			Status:        c.GetString("smtp.headers.status"),
			Tone:          c.GetString("smtp.headers.tone"),
			Draft:         c.GetString("smtp.headers.draft"),
			Error:         c.GetString("smtp.headers.error"),
			RequestedTone: c.GetString("smtp.headers.requested_tone"),
		},
		RelayEnabled: c.GetBool("smtp.relay.enabled"),
		RelayAddress: c.GetString("smtp.relay.address"),
		RelayPort:    c.GetInt("smtp.relay.port"),
	}
}

// GetMetrics returns the metrics configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		Enabled: c.GetBool("metrics.enabled"),
		Path:    c.GetString("metrics.path"),
	}
}
