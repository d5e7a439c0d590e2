package artifact

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Resource is the owned source material an artifact is generated from.
type Resource struct {
	ID    string
	Title string
	Text  string
}

// ResourceLookup resolves a resource for its owner. Missing and foreign
// resources both yield *OwnershipError.
type ResourceLookup interface {
	Lookup(ctx context.Context, resourceID, ownerID string) (*Resource, error)
}

// Result is what a generation request resolves to. Source is a provider id,
// SourceFallback or SourceCache; for cache hits Origin holds the stored source.
// Attempts stays server side: provider failures are logged, never returned.
type Result struct {
	Artifact *Artifact `json:"artifact"`
	Source   string    `json:"source"`
	Origin   string    `json:"origin,omitempty"`
	Degraded bool      `json:"degraded"`
	Attempts []Attempt `json:"-"`
}

// Orchestrator runs one generation request end to end: validate, check
// ownership, consult the store, walk the provider chain, fall back, persist.
type Orchestrator struct {
	resources       ResourceLookup
	store           Store
	chain           *Chain
	log             *zap.Logger
	maxOutputTokens int
}

func NewOrchestrator(resources ResourceLookup, store Store, chain *Chain, log *zap.Logger, maxOutputTokens int) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		resources:       resources,
		store:           store,
		chain:           chain,
		log:             log,
		maxOutputTokens: maxOutputTokens,
	}
}

// Generate normalizes raw and runs it.
func (o *Orchestrator) Generate(ctx context.Context, raw RawRequest) (*Result, error) {
	o.log.Debug("generation validating", zap.String("kind", raw.Kind), zap.String("resource", raw.ResourceID))
	req, err := Normalize(raw)
	if err != nil {
		o.log.Debug("generation rejected", zap.Error(err))
		return nil, err
	}
	return o.Run(ctx, req)
}

// Run executes an already normalized request.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	key := req.Key()
	log := o.log.With(zap.String("key", key.String()))

	resource, err := o.resources.Lookup(ctx, req.ResourceID, req.OwnerID)
	if err != nil {
		log.Debug("generation rejected", zap.Error(err))
		return nil, err
	}

	if !req.ForceRegenerate {
		log.Debug("generation cache check")
		cached, err := o.store.Get(ctx, key)
		if err != nil {
			return nil, &PersistenceError{Err: fmt.Errorf("read artifact: %w", err)}
		}
		if cached != nil {
			log.Debug("generation done", zap.String("source", SourceCache), zap.String("origin", cached.Source))
			return &Result{Artifact: cached, Source: SourceCache, Origin: cached.Source}, nil
		}
	}

	params := req.Parameters
	if params.Topic == "" {
		params.Topic = resource.Title
	}

	log.Debug("generation attempting", zap.Int("providers", o.chain.Len()))
	prompt := BuildPrompt(req.Kind, params, resource.Text, o.maxOutputTokens)
	chainRes := o.chain.Run(context.WithoutCancel(ctx), req.Kind, params, prompt)

	source := chainRes.ProviderID
	result := chainRes.Result
	degraded := !chainRes.Validated
	if degraded {
		log.Debug("generation synthesizing")
		result = Synthesize(req.Kind, params)
		source = SourceFallback
		fields := []zap.Field{zap.Int("attempts", len(chainRes.Attempts))}
		if f := chainRes.Failure; f != nil {
			fields = append(fields,
				zap.String("last_provider", f.ProviderID),
				zap.String("last_outcome", f.Outcome),
				zap.String("last_reason", f.Reason),
			)
		}
		log.Warn("generation degraded to fallback", fields...)
	}

	log.Debug("generation persisting", zap.String("source", source))
	stored, err := o.store.Upsert(context.WithoutCancel(ctx), key, result, source)
	if err != nil {
		log.Error("artifact persist failed", zap.Error(err))
		return nil, &PersistenceError{Err: err}
	}

	log.Debug("generation done", zap.String("source", source))
	return &Result{
		Artifact: stored,
		Source:   source,
		Degraded: degraded,
		Attempts: chainRes.Attempts,
	}, nil
}

// Current returns the stored artifact for key after checking ownership of
// the resource. It never generates.
func (o *Orchestrator) Current(ctx context.Context, key Key) (*Artifact, error) {
	if _, err := o.resources.Lookup(ctx, key.ResourceID, key.OwnerID); err != nil {
		return nil, err
	}
	a, err := o.store.Get(ctx, key)
	if err != nil {
		return nil, &PersistenceError{Err: fmt.Errorf("read artifact: %w", err)}
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// Store exposes the backing store for listing.
func (o *Orchestrator) Store() Store { return o.store }
