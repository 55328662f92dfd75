package frontend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mikey/llm-reply-generator/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHTTP(gen *stubGenerator, opts HTTPOptions) *httptest.Server {
	f := NewHTTPFrontend(gen, zap.NewNop(), opts)
	return httptest.NewServer(f.Handler())
}

func postReply(t *testing.T, server *httptest.Server, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(server.URL+"/v1/replies", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestPostReply(t *testing.T) {
	gen := &stubGenerator{result: core.Success("Thanks for reaching out.")}
	server := newTestHTTP(gen, HTTPOptions{})
	defer server.Close()

	resp, data := postReply(t, server, `{"email": "Can we reschedule?", "tone": "Formal"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var body replyResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, replyResponse{Reply: "Thanks for reaching out.", Tone: "formal"}, body)

	calls := gen.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, core.ToneFormal, calls[0].Tone)
	assert.Equal(t, "Can we reschedule?", calls[0].OriginalEmail)
}

func TestPostReplyFailureStatuses(t *testing.T) {
	tests := []struct {
		kind   core.FailureKind
		status int
	}{
		{core.KindValidation, http.StatusUnprocessableEntity},
		{core.KindConfiguration, http.StatusServiceUnavailable},
		{core.KindTransport, http.StatusBadGateway},
		{core.KindService, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			gen := &stubGenerator{result: core.Failure(tt.kind, "it went wrong")}
			server := newTestHTTP(gen, HTTPOptions{})
			defer server.Close()

			resp, data := postReply(t, server, `{"email": "hello", "tone": "casual"}`)

			assert.Equal(t, tt.status, resp.StatusCode)
			var body errorResponse
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Equal(t, errorResponse{Error: "it went wrong", Kind: string(tt.kind)}, body)
		})
	}
}

func TestPostReplyMalformedJSON(t *testing.T) {
	gen := &stubGenerator{}
	server := newTestHTTP(gen, HTTPOptions{})
	defer server.Close()

	resp, _ := postReply(t, server, `{"email": `)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, gen.calls())
}

func TestPostReplyRejectsUnexpectedInput(t *testing.T) {
	gen := &stubGenerator{result: core.Success("unused")}
	server := newTestHTTP(gen, HTTPOptions{})
	defer server.Close()

	for _, body := range []string{
		`{"email": "hello", "tone": "casual"} garbage`,
		`{"email": "hello", "tone": "casual"}{"email": "again"}`,
		`{"email": "hello", "tone": "casual", "tonee": "formal"}`,
	} {
		resp, data := postReply(t, server, body)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		var errBody errorResponse
		require.NoError(t, json.Unmarshal(data, &errBody))
		assert.Equal(t, string(core.KindValidation), errBody.Kind)
	}
	assert.Empty(t, gen.calls())

	resp, _ := postReply(t, server, "{\"email\": \"hello\", \"tone\": \"casual\"}\n")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPostReplyTooLarge(t *testing.T) {
	gen := &stubGenerator{}
	server := newTestHTTP(gen, HTTPOptions{MaxRequestBytes: 64})
	defer server.Close()

	body := fmt.Sprintf(`{"email": %q, "tone": "casual"}`, strings.Repeat("x", 200))
	resp, _ := postReply(t, server, body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Empty(t, gen.calls())
}

func TestTonesAndHealth(t *testing.T) {
	server := newTestHTTP(&stubGenerator{}, HTTPOptions{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/tones")
	require.NoError(t, err)
	defer resp.Body.Close()
	var tones map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tones))
	assert.Equal(t, []string{"formal", "casual", "friendly", "professional", "enthusiastic"}, tones["tones"])

	health, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("reply_generator_up 1\n"))
	})

	server := newTestHTTP(&stubGenerator{}, HTTPOptions{MetricsPath: "/metrics", MetricsHandler: metrics})
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "reply_generator_up")

	disabled := newTestHTTP(&stubGenerator{}, HTTPOptions{})
	defer disabled.Close()
	resp, err = http.Get(disabled.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartStop(t *testing.T) {
	f := NewHTTPFrontend(&stubGenerator{}, nil, HTTPOptions{ListenAddress: "127.0.0.1:0"})
	require.NoError(t, f.Start())

	resp, err := http.Get("http://" + f.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http", f.Name())

	require.NoError(t, f.Stop())
}
