package frontend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/llm-reply-generator/internal/core"
	"github.com/mikey/llm-reply-generator/internal/ports"
	"github.com/mikey/llm-reply-generator/internal/senderfilter"
	"go.uber.org/zap"
)

// Draft status values written to the status header
const (
	DraftGenerated = "generated"
	DraftFailed    = "failed"
	DraftSkipped   = "skipped"
)

const maxHeaderLineLength = 76

// DraftHeaders names the headers written and read by the SMTP frontend
type DraftHeaders struct {
	Status        string
	Tone          string
	Draft         string
	Error         string
	RequestedTone string
}

// SMTPOptions configures the SMTP frontend
type SMTPOptions struct {
	ListenAddress string
	Domain        string
	DefaultTone   core.Tone
	Headers       DraftHeaders
	RelayEnabled  bool
	RelayAddress  string
	RelayPort     int
}

// deliverFunc hands a processed message to the next hop
type deliverFunc func(sender string, recipients []string, data []byte) error

// SMTPFrontend implements a Postfix content filter that annotates each
// message with a drafted reply and relays it onwards
type SMTPFrontend struct {
	generator ports.ReplyGenerator
	senders   *senderfilter.Checker
	logger    *zap.Logger
	opts      SMTPOptions
	server    *smtp.Server
	listener  net.Listener
	deliver   deliverFunc
}

// NewSMTPFrontend creates a new SMTP frontend
func NewSMTPFrontend(
	generator ports.ReplyGenerator,
	senders *senderfilter.Checker,
	logger *zap.Logger,
	opts SMTPOptions,
) *SMTPFrontend {
	if logger == nil {
		logger = zap.NewNop()
	}
	if senders == nil {
		senders = senderfilter.NewChecker(nil, logger)
	}
	if opts.Domain == "" {
		opts.Domain = "localhost"
	}
	f := &SMTPFrontend{
		generator: generator,
		senders:   senders,
		logger:    logger,
		opts:      opts,
	}
	f.deliver = f.relay
	return f
}

// Name implements ports.Frontend
func (f *SMTPFrontend) Name() string {
	return "smtp"
}

// Start starts the SMTP server. It returns once the listener is bound.
func (f *SMTPFrontend) Start() error {
	ln, err := net.Listen("tcp", f.opts.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.opts.ListenAddress, err)
	}
	f.listener = ln

	f.server = smtp.NewServer(&smtpBackend{frontend: f})
	f.server.Addr = f.opts.ListenAddress
	f.server.Domain = f.opts.Domain
	f.server.ReadTimeout = 30 * time.Second
	// Generation happens inside DATA, so the reply to the client may be slow
	f.server.WriteTimeout = 5 * time.Minute
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50

	f.logger.Info("SMTP frontend starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address, or the configured one before Start
func (f *SMTPFrontend) Addr() string {
	if f.listener != nil {
		return f.listener.Addr().String()
	}
	return f.opts.ListenAddress
}

// Stop stops the SMTP server
func (f *SMTPFrontend) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// processMessage returns the message with the draft headers prepended.
// Generation problems are recorded in the headers and never fail the message.
func (f *SMTPFrontend) processMessage(ctx context.Context, sender string, raw []byte) []byte {
	headers := f.draftHeaders(ctx, sender, raw)

	newline := "\n"
	if bytes.Contains(raw, []byte("\r\n")) {
		newline = "\r\n"
	}

	var out bytes.Buffer
	for _, h := range headers {
		value := strings.ReplaceAll(h[1], "\r\n", newline)
		fmt.Fprintf(&out, "%s: %s%s", h[0], value, newline)
	}
	out.Write(raw)
	return out.Bytes()
}

func (f *SMTPFrontend) draftHeaders(ctx context.Context, sender string, raw []byte) [][2]string {
	h := f.opts.Headers
	tone := f.opts.DefaultTone

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		f.logger.Warn("Failed to parse email message", zap.String("sender", sender), zap.Error(err))
		return [][2]string{
			{h.Status, DraftFailed},
			{h.Tone, string(tone)},
			{h.Error, encodeHeaderValue(fmt.Sprintf("%s: unparseable message: %v", core.KindValidation, err))},
		}
	}

	if f.senders.ShouldSkip(sender) || f.senders.ShouldSkip(msg.Header.Get("From")) {
		f.logger.Info("Skipping reply draft", zap.String("sender", sender))
		return [][2]string{{h.Status, DraftSkipped}}
	}

	if requested := msg.Header.Get(h.RequestedTone); requested != "" {
		if parsed, err := core.ParseTone(decodeHeader(requested)); err == nil {
			tone = parsed
		} else {
			f.logger.Debug("Ignoring requested tone", zap.String("tone", requested), zap.Error(err))
		}
	}

	content, err := messageContent(msg)
	if err != nil {
		f.logger.Warn("Failed to extract text content", zap.String("sender", sender), zap.Error(err))
	}

	result := f.generator.GenerateReply(ctx, core.ReplyRequest{OriginalEmail: content, Tone: tone})
	if !result.OK() {
		f.logger.Warn("Failed to draft reply",
			zap.String("sender", sender),
			zap.String("kind", string(result.Kind)),
			zap.String("reason", result.Reason))
		return [][2]string{
			{h.Status, DraftFailed},
			{h.Tone, string(tone)},
			{h.Error, encodeHeaderValue(fmt.Sprintf("%s: %s", result.Kind, result.Reason))},
		}
	}

	f.logger.Info("Drafted reply",
		zap.String("sender", sender),
		zap.String("tone", string(tone)),
		zap.Int("reply_length", len(result.Text)))

	return [][2]string{
		{h.Status, DraftGenerated},
		{h.Tone, string(tone)},
		{h.Draft, encodeHeaderValue(result.Text)},
	}
}

// encodeHeaderValue RFC 2047 encodes a value when needed and folds it
// so that no header line grows past the usual limit
func encodeHeaderValue(value string) string {
	encoded := mime.BEncoding.Encode("utf-8", value)
	if encoded != value {
		// B encoded words never contain spaces, so each one can start a line
		return strings.ReplaceAll(encoded, " =?", "\r\n =?")
	}

	var sb strings.Builder
	lineLength := 0
	for i, word := range strings.Fields(value) {
		if i > 0 {
			if lineLength+1+len(word) > maxHeaderLineLength {
				sb.WriteString("\r\n ")
				lineLength = 1
			} else {
				sb.WriteString(" ")
				lineLength++
			}
		}
		sb.WriteString(word)
		lineLength += len(word)
	}
	return sb.String()
}

// relay sends the processed email back to the MTA using go-smtp
func (f *SMTPFrontend) relay(sender string, recipients []string, data []byte) error {
	if !f.opts.RelayEnabled {
		f.logger.Warn("Relay disabled, dropping processed message", zap.String("sender", sender))
		return nil
	}

	relayAddr := net.JoinHostPort(f.opts.RelayAddress, fmt.Sprint(f.opts.RelayPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", relayAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay %s: %w", relayAddr, err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message has already been accepted
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	frontend *SMTPFrontend
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{frontend: b.frontend}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	frontend   *SMTPFrontend
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	f := s.frontend

	raw, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	processed := f.processMessage(context.Background(), s.sender, raw)

	if err := f.deliver(s.sender, s.recipients, processed); err != nil {
		f.logger.Error("Failed to relay message",
			zap.String("sender", s.sender),
			zap.Error(err))
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 4, 0},
			Message:      "Relay temporarily unavailable",
		}
	}

	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}
