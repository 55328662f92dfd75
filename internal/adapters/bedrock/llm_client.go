package bedrock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/mikey/llm-reply-generator/internal/core"
	"go.uber.org/zap"
)

const providerName = "bedrock"

// converseAPI is the subset of *bedrockruntime.Client used here
type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockClient is an implementation of the LLMClient interface using Amazon Bedrock
type BedrockClient struct {
	client      converseAPI
	modelID     string
	maxTokens   int
	temperature float32
	topP        float32
	logger      *zap.Logger
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(
	client converseAPI,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	logger *zap.Logger,
) *BedrockClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BedrockClient{
		client:      client,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
		topP:        topP,
		logger:      logger,
	}
}

// Provider implements core.LLMClient
func (c *BedrockClient) Provider() string {
	return providerName
}

// Complete sends the prompt through the Converse API, which accepts the
// same request shape for every model family Bedrock hosts
func (c *BedrockClient) Complete(ctx context.Context, prompt core.Prompt) (string, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		Messages: []brtypes.Message{{
			Role: brtypes.ConversationRoleUser,
			Content: []brtypes.ContentBlock{
				&brtypes.ContentBlockMemberText{Value: prompt.User},
			},
		}},
		InferenceConfig: c.inferenceConfig(),
	}
	if prompt.System != "" {
		input.System = []brtypes.SystemContentBlock{
			&brtypes.SystemContentBlockMemberText{Value: prompt.System},
		}
	}

	out, err := c.client.Converse(ctx, input)
	if err != nil {
		return "", classifyError(err)
	}

	text, err := extractOutputText(out)
	if err != nil {
		return "", err
	}

	fields := []zap.Field{
		zap.String("model", c.modelID),
		zap.String("stop_reason", string(out.StopReason)),
	}
	if out.Usage != nil && out.Usage.TotalTokens != nil {
		fields = append(fields, zap.Int32("total_tokens", *out.Usage.TotalTokens))
	}
	c.logger.Debug("Bedrock completion received", fields...)

	return text, nil
}

func (c *BedrockClient) inferenceConfig() *brtypes.InferenceConfiguration {
	inference := &brtypes.InferenceConfiguration{
		Temperature: aws.Float32(c.temperature),
	}
	if c.maxTokens > 0 {
		inference.MaxTokens = aws.Int32(int32(c.maxTokens))
	}
	if c.topP > 0 {
		inference.TopP = aws.Float32(c.topP)
	}
	return inference
}

func extractOutputText(out *bedrockruntime.ConverseOutput) (string, error) {
	if out == nil {
		return "", core.NewTransportError("bedrock response is nil", core.ErrMalformedResponse)
	}
	msgOut, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return "", core.NewTransportError("bedrock response did not include a message output", core.ErrMalformedResponse)
	}

	var builder strings.Builder
	for _, block := range msgOut.Value.Content {
		if textBlock, ok := block.(*brtypes.ContentBlockMemberText); ok {
			builder.WriteString(textBlock.Value)
		}
	}
	return builder.String(), nil
}

func classifyError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("bedrock converse: %w", err)
	}

	reason := fmt.Sprintf("bedrock API error (%s): %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	switch apiErr.ErrorCode() {
	case "AccessDeniedException", "UnrecognizedClientException", "ExpiredTokenException", "ResourceNotFoundException":
		return core.NewConfigurationError(reason, err)
	}
	return core.NewServiceError(reason, err)
}
