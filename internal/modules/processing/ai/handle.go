package ai

import (
	"fmt"
	"time"

	appcfg "github.com/studyhub/core/internal/config"
)

// Handle is one position in a provider chain.
type Handle struct {
	Provider Provider
	Priority int
	Timeout  time.Duration
}

func (h Handle) ID() string { return h.Provider.ID() }

// BuildHandles turns the enabled providers of cfg into chain handles,
// ordered by priority.
func BuildHandles(cfg *appcfg.AppConfig) ([]Handle, error) {
	ordered := cfg.AI.OrderedProviders()
	handles := make([]Handle, 0, len(ordered))
	for _, p := range ordered {
		provider, err := NewProvider(p)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", p.ID, err)
		}
		handles = append(handles, Handle{
			Provider: provider,
			Priority: p.Priority,
			Timeout:  cfg.AttemptTimeoutFor(p),
		})
	}
	return handles, nil
}
