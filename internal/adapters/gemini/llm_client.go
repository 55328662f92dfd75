package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/mikey/llm-reply-generator/internal/core"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const providerName = "gemini"

// generator produces a raw Gemini response for a prompt
type generator interface {
	Generate(ctx context.Context, prompt core.Prompt) (*genai.GenerateContentResponse, error)
}

// GeminiClient is an implementation of the LLMClient interface using Google Gemini
type GeminiClient struct {
	generator generator
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

// sdkGenerator builds a fresh model per call so that the system
// instruction is never shared between concurrent requests
type sdkGenerator struct {
	client      *genai.Client
	modelName   string
	maxTokens   int32
	temperature float32
	topP        float32
}

func (g *sdkGenerator) Generate(ctx context.Context, prompt core.Prompt) (*genai.GenerateContentResponse, error) {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(g.temperature)
	model.SetTopP(g.topP)
	if g.maxTokens > 0 {
		model.SetMaxOutputTokens(g.maxTokens)
	}
	if prompt.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(prompt.System))
	}
	return model.GenerateContent(ctx, genai.Text(prompt.User))
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	ctx context.Context,
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, core.NewConfigurationError("gemini", core.ErrMissingCredential)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, core.NewConfigurationError("failed to create Gemini client", err)
	}

	c := newGeminiClient(&sdkGenerator{
		client:      client,
		modelName:   modelName,
		maxTokens:   int32(maxTokens),
		temperature: temperature,
		topP:        topP,
	}, modelName, logger)
	c.client = client
	return c, nil
}

func newGeminiClient(gen generator, modelName string, logger *zap.Logger) *GeminiClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{
		generator: gen,
		modelName: modelName,
		logger:    logger,
	}
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Provider implements core.LLMClient
func (c *GeminiClient) Provider() string {
	return providerName
}

// Complete sends the prompt to Gemini and returns the text of the first candidate
func (c *GeminiClient) Complete(ctx context.Context, prompt core.Prompt) (string, error) {
	resp, err := c.generator.Generate(ctx, prompt)
	if err != nil {
		return "", classifyError(err)
	}

	text, finishReason, err := extractText(resp)
	if err != nil {
		return "", err
	}

	c.logger.Debug("Gemini completion received",
		zap.String("model", c.modelName),
		zap.String("finish_reason", finishReason))

	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", "", core.NewTransportError("gemini returned no candidates", core.ErrMalformedResponse)
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return "", "", core.NewTransportError("gemini returned an empty candidate", core.ErrMalformedResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), candidate.FinishReason.String(), nil
}

func classifyError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return core.NewServiceError("gemini blocked the request", err)
	}

	status := 0
	var apiErr *apierror.APIError
	var gErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.HTTPCode() > 0 {
		status = apiErr.HTTPCode()
	} else if errors.As(err, &gErr) {
		status = gErr.Code
	}

	if status != 0 {
		reason := fmt.Sprintf("gemini API error (status %d)", status)
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return core.NewConfigurationError(reason, err)
		}
		return core.NewServiceError(reason, err)
	}

	return fmt.Errorf("gemini generate content: %w", err)
}
