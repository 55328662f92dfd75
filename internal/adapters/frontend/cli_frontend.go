package frontend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/llm-reply-generator/internal/core"
	"github.com/mikey/llm-reply-generator/internal/ports"
	"go.uber.org/zap"
)

// CLIFrontend renders reply generation for a terminal
type CLIFrontend struct {
	generator  ports.ReplyGenerator
	logger     *zap.Logger
	out        io.Writer
	diag       io.Writer
	jsonOutput bool
	verbose    bool
}

// NewCLIFrontend creates a new CLI frontend. The reply goes to out; the
// verbose summary goes to diag.
func NewCLIFrontend(generator ports.ReplyGenerator, logger *zap.Logger, out, diag io.Writer, jsonOutput, verbose bool) *CLIFrontend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if diag == nil {
		diag = io.Discard
	}
	return &CLIFrontend{
		generator:  generator,
		logger:     logger,
		out:        out,
		diag:       diag,
		jsonOutput: jsonOutput,
		verbose:    verbose,
	}
}

// Run reads an email from input, generates a reply in the given tone and
// renders the outcome. The returned error reports I/O problems only;
// generation failures are rendered and returned in the result.
func (f *CLIFrontend) Run(ctx context.Context, input io.Reader, tone string) (core.ReplyResult, error) {
	raw, err := io.ReadAll(input)
	if err != nil {
		return core.ReplyResult{}, fmt.Errorf("failed to read email: %w", err)
	}

	email, err := parseEmailInput(raw)
	if err != nil {
		f.logger.Warn("Failed to parse email, using raw input", zap.Error(err))
		email = string(raw)
	}

	req := core.ReplyRequest{
		OriginalEmail: email,
		Tone:          core.Tone(strings.ToLower(strings.TrimSpace(tone))),
	}

	if f.verbose {
		f.printSummary(req)
	}

	startTime := time.Now()
	result := f.generator.GenerateReply(ctx, req)
	f.logger.Debug("Reply generation finished",
		zap.Bool("ok", result.OK()),
		zap.Duration("duration", time.Since(startTime)))

	return result, f.render(req.Tone, result)
}

func (f *CLIFrontend) printSummary(req core.ReplyRequest) {
	preview := req.OriginalEmail
	if len(preview) > 500 {
		preview = strings.ToValidUTF8(preview[:500], "") + "..."
	}
	fmt.Fprintf(f.diag, "=== Email Summary ===\n")
	fmt.Fprintf(f.diag, "Provider: %s\n", f.generator.Provider())
	fmt.Fprintf(f.diag, "Tone: %s\n", req.Tone)
	fmt.Fprintf(f.diag, "Length: %d bytes\n", len(req.OriginalEmail))
	fmt.Fprintf(f.diag, "\n%s\n\n", preview)
}

func (f *CLIFrontend) render(tone core.Tone, result core.ReplyResult) error {
	if f.jsonOutput {
		enc := json.NewEncoder(f.out)
		enc.SetIndent("", "  ")
		if result.OK() {
			return enc.Encode(replyResponse{Reply: result.Text, Tone: string(tone)})
		}
		return enc.Encode(errorResponse{Error: result.Reason, Kind: string(result.Kind)})
	}

	var err error
	if result.OK() {
		_, err = fmt.Fprintln(f.out, result.Text)
	} else {
		_, err = fmt.Fprintf(f.out, "Error (%s): %s\n", result.Kind, result.Reason)
	}
	return err
}
