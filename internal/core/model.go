package core

import (
	"fmt"
	"strings"
)

// Tone is the stylistic directive applied to a generated reply
type Tone string

const (
	ToneFormal       Tone = "formal"
	ToneCasual       Tone = "casual"
	ToneFriendly     Tone = "friendly"
	ToneProfessional Tone = "professional"
	ToneEnthusiastic Tone = "enthusiastic"
)

var tones = []Tone{ToneFormal, ToneCasual, ToneFriendly, ToneProfessional, ToneEnthusiastic}

// Tones returns the supported tones in display order
func Tones() []Tone {
	out := make([]Tone, len(tones))
	copy(out, tones)
	return out
}

// Valid reports whether t is one of the supported tones
func (t Tone) Valid() bool {
	for _, known := range tones {
		if t == known {
			return true
		}
	}
	return false
}

func (t Tone) String() string {
	return string(t)
}

// ParseTone converts user input into a Tone, ignoring case and surrounding space
func ParseTone(s string) (Tone, error) {
	t := Tone(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTone, s)
	}
	return t, nil
}

// ReplyRequest is the input of a single reply generation
type ReplyRequest struct {
	OriginalEmail string
	Tone          Tone
}

// ReplyResult is the outcome of a single reply generation.
// An empty Kind means the generation succeeded and Text holds the reply.
type ReplyResult struct {
	Text   string
	Kind   FailureKind
	Reason string
}

// Success builds a successful result
func Success(text string) ReplyResult {
	return ReplyResult{Text: text}
}

// Failure builds a failed result
func Failure(kind FailureKind, reason string) ReplyResult {
	return ReplyResult{Kind: kind, Reason: reason}
}

// OK reports whether the result carries a reply
func (r ReplyResult) OK() bool {
	return r.Kind == ""
}

// Err returns the failure as an error, or nil on success
func (r ReplyResult) Err() error {
	if r.OK() {
		return nil
	}
	return &ReplyError{Kind: r.Kind, Reason: r.Reason}
}
