package core

import (
	"fmt"
	"strings"
)

const (
	systemPromptFormat = "You are an assistant that writes replies to emails. " +
		"Write every reply in a %s tone. Respond with the reply text only, without a subject line or commentary."

	userPromptFormat = "Write a reply to the following email in a %s tone.\n\n" +
		"Email content:\n%s"
)

// Prompt is the instruction sent to the text-generation service
type Prompt struct {
	System string
	User   string
}

// Text joins the system and user parts for providers that take a single prompt
func (p Prompt) Text() string {
	if p.System == "" {
		return p.User
	}
	return p.System + "\n\n" + p.User
}

// BuildPrompt formats the instruction for a reply request.
// The email text is embedded as given.
func BuildPrompt(req ReplyRequest) Prompt {
	return Prompt{
		System: fmt.Sprintf(systemPromptFormat, req.Tone),
		User:   fmt.Sprintf(userPromptFormat, req.Tone, req.OriginalEmail),
	}
}

// Validate checks a request before anything is sent
func (r ReplyRequest) Validate() error {
	if strings.TrimSpace(r.OriginalEmail) == "" {
		return NewValidationError("please enter the email content", ErrEmptyEmail)
	}
	if !r.Tone.Valid() {
		return NewValidationError(fmt.Sprintf("tone %q is not one of %s", r.Tone, toneList()), ErrUnknownTone)
	}
	return nil
}

func toneList() string {
	names := make([]string, len(tones))
	for i, t := range tones {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
