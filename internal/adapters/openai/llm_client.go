package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mikey/llm-reply-generator/internal/core"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const providerName = "openai"

// chatCompleter is the subset of *openai.Client used here
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client      chatCompleter
	modelName   string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client chatCompleter,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClient{
		client:      client,
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// NewSDKClient builds the go-openai client. An empty baseURL keeps the public endpoint.
func NewSDKClient(apiKey, baseURL string) *openai.Client {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(clientCfg)
}

// Provider implements core.LLMClient
func (c *OpenAIClient) Provider() string {
	return providerName
}

// Complete sends the prompt as a chat completion and returns the first choice
func (c *OpenAIClient) Complete(ctx context.Context, prompt core.Prompt) (string, error) {
	var messages []openai.ChatCompletionMessage
	if prompt.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt.User,
	})

	req := openai.ChatCompletionRequest{
		Model:       c.modelName,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyError(err)
	}

	if len(resp.Choices) == 0 {
		return "", core.NewTransportError("openai returned no choices", core.ErrMalformedResponse)
	}

	c.logger.Debug("OpenAI completion received",
		zap.String("model", c.modelName),
		zap.String("response_id", resp.ID),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return resp.Choices[0].Message.Content, nil
}

// classifyError maps go-openai errors onto failure kinds. Errors that never
// reached the service are returned wrapped but unclassified.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		reason := fmt.Sprintf("openai API error (status %d): %s", apiErr.HTTPStatusCode, apiErr.Message)
		if isAuthStatus(apiErr.HTTPStatusCode) {
			return core.NewConfigurationError(reason, err)
		}
		return core.NewServiceError(reason, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		reason := fmt.Sprintf("openai request failed (status %d)", reqErr.HTTPStatusCode)
		if isAuthStatus(reqErr.HTTPStatusCode) {
			return core.NewConfigurationError(reason, err)
		}
		return core.NewServiceError(reason, err)
	}

	return fmt.Errorf("openai chat completion: %w", err)
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
