package bedrock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/mikey/llm-reply-generator/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubConverse struct {
	out    *bedrockruntime.ConverseOutput
	err    error
	inputs []*bedrockruntime.ConverseInput
}

func (s *stubConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	s.inputs = append(s.inputs, params)
	return s.out, s.err
}

func messageOutput(texts ...string) *bedrockruntime.ConverseOutput {
	var blocks []brtypes.ContentBlock
	for _, text := range texts {
		blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: text})
	}
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: blocks,
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage:      &brtypes.TokenUsage{TotalTokens: aws.Int32(42)},
	}
}

func TestComplete(t *testing.T) {
	stub := &stubConverse{out: messageOutput("Hi there, ", "see you Monday.")}
	client := NewBedrockClient(stub, "anthropic.claude-3-haiku", 300, 0.4, 0.9, zap.NewNop())

	text, err := client.Complete(context.Background(), core.Prompt{System: "be casual", User: "write it"})

	require.NoError(t, err)
	assert.Equal(t, "Hi there, see you Monday.", text)
	assert.Equal(t, "bedrock", client.Provider())

	require.Len(t, stub.inputs, 1)
	input := stub.inputs[0]
	assert.Equal(t, "anthropic.claude-3-haiku", aws.ToString(input.ModelId))
	require.Len(t, input.System, 1)
	assert.Equal(t, "be casual", input.System[0].(*brtypes.SystemContentBlockMemberText).Value)
	require.Len(t, input.Messages, 1)
	assert.Equal(t, "write it", input.Messages[0].Content[0].(*brtypes.ContentBlockMemberText).Value)
	assert.Equal(t, int32(300), aws.ToInt32(input.InferenceConfig.MaxTokens))
}

func TestCompleteWithoutSystemPrompt(t *testing.T) {
	stub := &stubConverse{out: messageOutput("ok")}
	client := NewBedrockClient(stub, "m", 0, 0.7, 0, nil)

	_, err := client.Complete(context.Background(), core.Prompt{User: "u"})

	require.NoError(t, err)
	assert.Empty(t, stub.inputs[0].System)
	assert.Nil(t, stub.inputs[0].InferenceConfig.MaxTokens)
	assert.Nil(t, stub.inputs[0].InferenceConfig.TopP)
}

func TestCompleteMalformed(t *testing.T) {
	client := NewBedrockClient(&stubConverse{out: &bedrockruntime.ConverseOutput{}}, "m", 10, 0.7, 0.9, nil)

	_, err := client.Complete(context.Background(), core.Prompt{User: "u"})

	require.Error(t, err)
	assert.Equal(t, core.KindTransport, core.KindOf(err))
	assert.ErrorIs(t, err, core.ErrMalformedResponse)
}

func TestClassifyError(t *testing.T) {
	denied := &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "not authorized"}
	err := classifyError(denied)
	assert.Equal(t, core.KindConfiguration, core.KindOf(err))
	assert.Contains(t, err.Error(), "not authorized")

	throttled := &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
	assert.Equal(t, core.KindService, core.KindOf(classifyError(throttled)))

	netErr := errors.New("no such host")
	err = classifyError(netErr)
	assert.ErrorIs(t, err, netErr)
	assert.Equal(t, core.KindTransport, core.KindOf(err))
}

func TestCompleteClassifiesServiceError(t *testing.T) {
	stub := &stubConverse{err: &smithy.GenericAPIError{Code: "ModelNotReadyException", Message: "warming up"}}
	client := NewBedrockClient(stub, "m", 10, 0.7, 0.9, nil)

	_, err := client.Complete(context.Background(), core.Prompt{User: "u"})

	assert.Equal(t, core.KindService, core.KindOf(err))
}
