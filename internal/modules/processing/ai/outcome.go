package ai

import (
	"context"
	"errors"
	"strings"
)

// OutcomeKind classifies one provider attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeEmpty
	OutcomeError
	OutcomeTimeout
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty_response"
	case OutcomeError:
		return "provider_error"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Outcome is the result of one provider attempt. Content is set only for
// OutcomeSuccess and Reason only for OutcomeError.
type Outcome struct {
	Kind    OutcomeKind
	Content string
	Reason  string
}

func Success(content string) Outcome { return Outcome{Kind: OutcomeSuccess, Content: content} }

func Empty() Outcome { return Outcome{Kind: OutcomeEmpty} }

func Failed(reason string) Outcome { return Outcome{Kind: OutcomeError, Reason: reason} }

func TimedOut() Outcome { return Outcome{Kind: OutcomeTimeout} }

// Classify maps a provider call result onto an Outcome.
func Classify(text string, err error) Outcome {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return TimedOut()
	case err != nil:
		return Failed(err.Error())
	case strings.TrimSpace(text) == "":
		return Empty()
	default:
		return Success(text)
	}
}

// Prompt is the input of one generation attempt.
type Prompt struct {
	System          string
	User            string
	MaxOutputTokens int
}

// Provider is a text-generation backend.
type Provider interface {
	ID() string
	Attempt(ctx context.Context, prompt Prompt) Outcome
}
