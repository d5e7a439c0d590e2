package artifact

import (
	"context"
	"time"

	"github.com/studyhub/core/internal/modules/processing/ai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/studyhub/core/internal/modules/processing/artifact"

// Attempt is one entry of the chain's attempt log.
type Attempt struct {
	ProviderID string
	Index      int
	Outcome    string
	Reason     string
	Duration   time.Duration
}

// Failure is the last thing that went wrong before the chain gave up.
type Failure struct {
	ProviderID string
	Outcome    string
	Reason     string
}

// outcomeRejected marks a successful provider response that the sanitizer
// refused.
const outcomeRejected = "rejected"

// ChainResult is either Validated (ProviderID and Result set) or exhausted
// (Failure set, nil when the chain has no handles).
type ChainResult struct {
	Validated  bool
	ProviderID string
	Result     Sanitized
	Failure    *Failure
	Attempts   []Attempt
}

// Chain tries providers one at a time in priority order until one returns
// output the sanitizer accepts.
type Chain struct {
	handles []ai.Handle
	log     *zap.Logger
	tracer  trace.Tracer
}

func NewChain(handles []ai.Handle, log *zap.Logger) *Chain {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chain{handles: handles, log: log, tracer: otel.Tracer(tracerName)}
}

// Len returns the number of configured handles.
func (c *Chain) Len() int { return len(c.handles) }

func (c *Chain) Run(ctx context.Context, kind Kind, params Parameters, prompt ai.Prompt) ChainResult {
	var res ChainResult
	for i, h := range c.handles {
		attempt, sanitized, ok := c.try(ctx, i, h, kind, params, prompt)
		res.Attempts = append(res.Attempts, attempt)
		if ok {
			res.Validated = true
			res.ProviderID = attempt.ProviderID
			res.Result = sanitized
			res.Failure = nil
			return res
		}
		res.Failure = &Failure{ProviderID: attempt.ProviderID, Outcome: attempt.Outcome, Reason: attempt.Reason}
	}
	return res
}

func (c *Chain) try(ctx context.Context, index int, h ai.Handle, kind Kind, params Parameters, prompt ai.Prompt) (Attempt, Sanitized, bool) {
	ctx, span := c.tracer.Start(ctx, "provider.attempt", trace.WithAttributes(
		attribute.String("provider.id", h.ID()),
		attribute.Int("provider.index", index),
		attribute.String("artifact.kind", string(kind)),
	))
	defer span.End()

	start := time.Now()
	outcome := attemptWithTimeout(ctx, h, prompt)
	attempt := Attempt{
		ProviderID: h.ID(),
		Index:      index,
		Outcome:    outcome.Kind.String(),
		Reason:     outcome.Reason,
	}

	var (
		sanitized Sanitized
		ok        bool
	)
	if outcome.Kind == ai.OutcomeSuccess {
		var err error
		sanitized, err = Sanitize(kind, params, outcome.Content)
		if err != nil {
			attempt.Outcome = outcomeRejected
			attempt.Reason = err.Error()
		} else {
			ok = true
		}
	}
	attempt.Duration = time.Since(start)

	span.SetAttributes(attribute.String("provider.outcome", attempt.Outcome))
	if !ok {
		span.SetStatus(codes.Error, attempt.Outcome)
	}

	fields := []zap.Field{
		zap.String("provider", attempt.ProviderID),
		zap.Int("index", index),
		zap.String("outcome", attempt.Outcome),
		zap.Duration("duration", attempt.Duration),
	}
	if attempt.Reason != "" {
		fields = append(fields, zap.String("reason", attempt.Reason))
	}
	c.log.Info("provider attempt", fields...)
	return attempt, sanitized, ok
}

// attemptWithTimeout bounds the call by the handle's budget even when the
// provider does not watch its context.
func attemptWithTimeout(ctx context.Context, h ai.Handle, prompt ai.Prompt) ai.Outcome {
	if h.Timeout <= 0 {
		return h.Provider.Attempt(ctx, prompt)
	}
	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	done := make(chan ai.Outcome, 1)
	go func() {
		done <- h.Provider.Attempt(ctx, prompt)
	}()

	timer := time.NewTimer(h.Timeout)
	defer timer.Stop()
	select {
	case out := <-done:
		return out
	case <-timer.C:
		return ai.TimedOut()
	}
}
