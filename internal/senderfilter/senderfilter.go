// Package senderfilter decides which senders should not receive a drafted reply.
package senderfilter

import (
	"net/mail"
	"strings"

	"go.uber.org/zap"
)

// automatedLocalParts are mailbox names that never expect an answer
var automatedLocalParts = []string{"noreply", "no-reply", "donotreply", "do-not-reply", "mailer-daemon", "postmaster"}

// Checker provides functionality to check whether a sender should be skipped
type Checker struct {
	domains []string
	logger  *zap.Logger
}

// NewChecker creates a new sender checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}

	normalizedDomains := make([]string, 0, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			normalizedDomains = append(normalizedDomains, domain)
		}
	}

	if len(normalizedDomains) > 0 {
		logger.Info("Initialized sender filter", zap.Strings("skip_domains", normalizedDomains))
	}

	return &Checker{
		domains: normalizedDomains,
		logger:  logger,
	}
}

// ShouldSkip reports whether no reply should be drafted for the sender.
// from may be a bare address or a display-name form; an empty sender
// (a bounce) is always skipped.
func (c *Checker) ShouldSkip(from string) bool {
	address := strings.TrimSpace(from)
	if address == "" || address == "<>" {
		return true
	}
	if parsed, err := mail.ParseAddress(address); err == nil {
		address = parsed.Address
	}
	address = strings.Trim(address, "<>")

	at := strings.LastIndex(address, "@")
	if at < 0 {
		return false
	}
	local := strings.ToLower(address[:at])
	domain := strings.ToLower(address[at+1:])

	for _, automated := range automatedLocalParts {
		if local == automated {
			c.logger.Debug("Sender is an automated mailbox", zap.String("email", address))
			return true
		}
	}

	for _, skipped := range c.domains {
		if skipped == domain {
			c.logger.Debug("Sender domain is skipped",
				zap.String("domain", domain),
				zap.String("email", address))
			return true
		}
	}

	return false
}
