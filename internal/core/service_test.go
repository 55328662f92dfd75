package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubLLMClient records every prompt it receives and replays a fixed answer.
type stubLLMClient struct {
	mu      sync.Mutex
	text    string
	err     error
	panics  bool
	block   bool
	prompts []Prompt
}

func (s *stubLLMClient) Complete(ctx context.Context, prompt Prompt) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.panics {
		panic("boom")
	}
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.text, s.err
}

func (s *stubLLMClient) Provider() string { return "stub" }

func (s *stubLLMClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

type recordingObserver struct {
	kinds []FailureKind
}

func (o *recordingObserver) ObserveReply(_ string, kind FailureKind, _ time.Duration) {
	o.kinds = append(o.kinds, kind)
}

func newTestService(client LLMClient, observer Observer) *ReplyService {
	return NewReplyService(client, nil, observer, zap.NewNop(), ServiceOptions{Timeout: time.Second})
}

func TestGenerateReply_ReturnsTrimmedCompletion(t *testing.T) {
	client := &stubLLMClient{text: "  Thanks for reaching out...\n"}
	service := newTestService(client, nil)

	result := service.GenerateReply(context.Background(), ReplyRequest{
		OriginalEmail: "Can we reschedule?",
		Tone:          ToneFormal,
	})

	require.True(t, result.OK(), "unexpected failure: %s", result.Reason)
	assert.Equal(t, "Thanks for reaching out...", result.Text)
	assert.NoError(t, result.Err())
	assert.Equal(t, 1, client.calls())
}

func TestGenerateReply_PromptEmbedsEmailAndTone(t *testing.T) {
	client := &stubLLMClient{text: "ok"}
	service := newTestService(client, nil)
	email := "Hi team,\n\nCan we move Thursday's sync to Friday?\n\nBest,\nAna"

	service.GenerateReply(context.Background(), ReplyRequest{OriginalEmail: email, Tone: ToneEnthusiastic})

	require.Equal(t, 1, client.calls())
	prompt := client.prompts[0]
	assert.Contains(t, prompt.System, "enthusiastic")
	assert.Contains(t, prompt.User, "enthusiastic")
	assert.Contains(t, prompt.User, email)
}

func TestGenerateReply_EmptyEmailNeverCallsClient(t *testing.T) {
	for _, email := range []string{"", "   ", "\n\t\n"} {
		client := &stubLLMClient{text: "should not be used"}
		observer := &recordingObserver{}
		service := newTestService(client, observer)

		result := service.GenerateReply(context.Background(), ReplyRequest{OriginalEmail: email, Tone: ToneCasual})

		assert.False(t, result.OK())
		assert.Equal(t, KindValidation, result.Kind)
		assert.Empty(t, result.Text)
		assert.Equal(t, 0, client.calls())
		assert.Equal(t, []FailureKind{KindValidation}, observer.kinds)
	}
}

func TestGenerateReply_UnknownToneNeverCallsClient(t *testing.T) {
	client := &stubLLMClient{text: "should not be used"}
	service := newTestService(client, nil)

	result := service.GenerateReply(context.Background(), ReplyRequest{
		OriginalEmail: "Can we reschedule?",
		Tone:          Tone("sarcastic"),
	})

	assert.Equal(t, KindValidation, result.Kind)
	assert.Contains(t, result.Reason, "sarcastic")
	assert.Equal(t, 0, client.calls())

	var re *ReplyError
	require.ErrorAs(t, result.Err(), &re)
	assert.Equal(t, KindValidation, re.Kind)
}

func TestGenerateReply_MissingClientIsConfigurationFailure(t *testing.T) {
	service := newTestService(nil, nil)

	result := service.GenerateReply(context.Background(), ReplyRequest{OriginalEmail: "hello", Tone: ToneFriendly})

	assert.Equal(t, KindConfiguration, result.Kind)
	assert.Contains(t, result.Reason, ErrNoClient.Error())
}

func TestGenerateReply_UnclassifiedErrorIsTransportFailure(t *testing.T) {
	client := &stubLLMClient{err: errors.New("dial tcp 10.0.0.1:443: connect: connection refused")}
	service := newTestService(client, nil)

	result := service.GenerateReply(context.Background(), ReplyRequest{OriginalEmail: "Can we reschedule?", Tone: ToneFormal})

	assert.Equal(t, KindTransport, result.Kind)
	assert.Contains(t, result.Reason, "connection refused")
	assert.Empty(t, result.Text)
	assert.Equal(t, 1, client.calls())
}

func TestGenerateReply_KeepsAdapterFailureKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind FailureKind
	}{
		{"service", NewServiceError("openai returned 429", errors.New("quota exceeded")), KindService},
		{"configuration", NewConfigurationError("openai rejected the credential", ErrMissingCredential), KindConfiguration},
		{"transport", NewTransportError("openai", ErrMalformedResponse), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubLLMClient{err: tt.err}
			service := newTestService(client, nil)

			result := service.GenerateReply(context.Background(), ReplyRequest{OriginalEmail: "hi", Tone: ToneCasual})

			assert.Equal(t, tt.kind, result.Kind)
			assert.Equal(t, tt.err.Error(), result.Reason)
		})
	}
}

func TestGenerateReply_TimeoutIsTransportFailure(t *testing.T) {
	client := &stubLLMClient{block: true}
	service := NewReplyService(client, nil, nil, zap.NewNop(), ServiceOptions{Timeout: 20 * time.Millisecond})

	result := service.GenerateReply(context.Background(), ReplyRequest{OriginalEmail: "hi", Tone: ToneCasual})

	assert.Equal(t, KindTransport, result.Kind)
	assert.Contains(t, result.Reason, "timed out")
}

func TestGenerateReply_PanicIsRecovered(t *testing.T) {
	client := &stubLLMClient{panics: true}
	observer := &recordingObserver{}
	service := newTestService(client, observer)

	var result ReplyResult
	require.NotPanics(t, func() {
		result = service.GenerateReply(context.Background(), ReplyRequest{OriginalEmail: "hi", Tone: ToneCasual})
	})

	assert.Equal(t, KindTransport, result.Kind)
	assert.Contains(t, result.Reason, "boom")
	assert.Equal(t, []FailureKind{KindTransport}, observer.kinds)
}

func TestGenerateReply_BlankCompletionIsServiceFailure(t *testing.T) {
	client := &stubLLMClient{text: " \n "}
	service := newTestService(client, nil)

	result := service.GenerateReply(context.Background(), ReplyRequest{OriginalEmail: "hi", Tone: ToneCasual})

	assert.Equal(t, KindService, result.Kind)
	assert.Equal(t, "stub: "+ErrEmptyCompletion.Error(), result.Reason)
}

func TestGenerateReply_IsIdempotent(t *testing.T) {
	client := &stubLLMClient{text: "Sure, Friday works."}
	service := newTestService(client, nil)
	req := ReplyRequest{OriginalEmail: "Can we reschedule?", Tone: ToneProfessional}

	first := service.GenerateReply(context.Background(), req)
	second := service.GenerateReply(context.Background(), req)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, client.calls())
	assert.Equal(t, client.prompts[0], client.prompts[1])
}

func TestGenerateReply_TruncatesLargeBodies(t *testing.T) {
	client := &stubLLMClient{text: "ok"}
	service := NewReplyService(client, nil, nil, zap.NewNop(), ServiceOptions{MaxBodySize: 10})

	service.GenerateReply(context.Background(), ReplyRequest{OriginalEmail: "0123456789abcdef", Tone: ToneCasual})

	require.Equal(t, 1, client.calls())
	assert.Contains(t, client.prompts[0].User, "0123456789")
	assert.NotContains(t, client.prompts[0].User, "abcdef")
	assert.Contains(t, client.prompts[0].User, "truncated")
}

func TestGenerateReply_ObservesSuccess(t *testing.T) {
	observer := &recordingObserver{}
	service := newTestService(&stubLLMClient{text: "ok"}, observer)

	service.GenerateReply(context.Background(), ReplyRequest{OriginalEmail: "hi", Tone: ToneCasual})

	assert.Equal(t, []FailureKind{""}, observer.kinds)
}
