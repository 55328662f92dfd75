package frontend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikey/llm-reply-generator/internal/core"
	"github.com/mikey/llm-reply-generator/internal/ports"
	"go.uber.org/zap"
)

const defaultMaxRequestBytes = 1 << 20

// HTTPOptions configures the HTTP frontend
type HTTPOptions struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxRequestBytes int64
	// MetricsPath and MetricsHandler expose metrics when both are set
	MetricsPath    string
	MetricsHandler http.Handler
}

// HTTPFrontend serves reply generation as a JSON API
type HTTPFrontend struct {
	generator ports.ReplyGenerator
	logger    *zap.Logger
	opts      HTTPOptions
	server    *http.Server
	listener  net.Listener
}

type replyRequestBody struct {
	Email string `json:"email"`
	Tone  string `json:"tone"`
}

type replyResponse struct {
	Reply string `json:"reply"`
	Tone  string `json:"tone"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// NewHTTPFrontend creates a new HTTP frontend
func NewHTTPFrontend(generator ports.ReplyGenerator, logger *zap.Logger, opts HTTPOptions) *HTTPFrontend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRequestBytes <= 0 {
		opts.MaxRequestBytes = defaultMaxRequestBytes
	}
	return &HTTPFrontend{
		generator: generator,
		logger:    logger,
		opts:      opts,
	}
}

// Name implements ports.Frontend
func (f *HTTPFrontend) Name() string {
	return "http"
}

// Handler builds the router
func (f *HTTPFrontend) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(f.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", f.handleHealth)
	if f.opts.MetricsHandler != nil && f.opts.MetricsPath != "" {
		r.Method(http.MethodGet, f.opts.MetricsPath, f.opts.MetricsHandler)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/tones", f.handleTones)
		r.Post("/replies", f.handleReply)
	})

	return r
}

// Start starts listening. It returns once the listener is bound.
func (f *HTTPFrontend) Start() error {
	ln, err := net.Listen("tcp", f.opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.opts.ListenAddress, err)
	}
	f.listener = ln
	f.server = &http.Server{
		Handler:      f.Handler(),
		ReadTimeout:  f.opts.ReadTimeout,
		WriteTimeout: f.opts.WriteTimeout,
	}

	f.logger.Info("HTTP frontend starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address, or the configured one before Start
func (f *HTTPFrontend) Addr() string {
	if f.listener != nil {
		return f.listener.Addr().String()
	}
	return f.opts.ListenAddress
}

// Stop gracefully stops the HTTP server
func (f *HTTPFrontend) Stop() error {
	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return f.server.Shutdown(ctx)
}

func (f *HTTPFrontend) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (f *HTTPFrontend) handleTones(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]core.Tone{"tones": core.Tones()})
}

func (f *HTTPFrontend) handleReply(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, f.opts.MaxRequestBytes)

	var body replyRequestBody
	if err := decodeReplyRequest(r.Body, &body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
				Kind:  string(core.KindValidation),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("invalid JSON body: %v", err),
			Kind:  string(core.KindValidation),
		})
		return
	}

	tone := core.Tone(strings.ToLower(strings.TrimSpace(body.Tone)))
	result := f.generator.GenerateReply(r.Context(), core.ReplyRequest{
		OriginalEmail: body.Email,
		Tone:          tone,
	})

	if !result.OK() {
		writeJSON(w, statusForKind(result.Kind), errorResponse{Error: result.Reason, Kind: string(result.Kind)})
		return
	}
	writeJSON(w, http.StatusOK, replyResponse{Reply: result.Text, Tone: string(tone)})
}

// decodeReplyRequest decodes exactly one JSON object with known fields
func decodeReplyRequest(r io.Reader, body *replyRequestBody) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(body); err != nil {
		return err
	}
	_, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return err
	}
	return errors.New("unexpected data after JSON object")
}

func statusForKind(kind core.FailureKind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusUnprocessableEntity
	case core.KindConfiguration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestLogger emits a structured log line for every HTTP request
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote_ip", r.RemoteAddr),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}
