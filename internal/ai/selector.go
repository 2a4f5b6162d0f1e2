package ai

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultModels are tried after any discovered model, in this order.
var DefaultModels = []string{
	"gemini-2.0-flash",
	"gemini-1.5-flash",
	"gemini-1.5-flash-latest",
	"gemini-1.5-pro",
	"gemini-pro",
}

// Selector caches discovered model names and produces the ordered list of
// candidates to try for a conversion. The cache is written by Discover and
// read by every request.
type Selector struct {
	client   Client
	fallback []string
	log      *zap.Logger

	mu         sync.RWMutex
	discovered []string
	group      singleflight.Group
}

// NewSelector creates a Selector. client may be nil when no provider key is
// configured; fallback defaults to DefaultModels when empty.
func NewSelector(client Client, fallback []string, log *zap.Logger) *Selector {
	if len(fallback) == 0 {
		fallback = DefaultModels
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Selector{client: client, fallback: fallback, log: log}
}

// Discover queries the provider and replaces the cache. Concurrent callers
// share one upstream request. On error the previous cache is kept.
func (s *Selector) Discover(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, ErrAPIKeyMissing
	}
	v, err, _ := s.group.Do("discover", func() (any, error) {
		names, err := s.client.ListModels(ctx)
		if err != nil {
			s.log.Warn("model_discovery_failed",
				zap.String("component", "ai"),
				zap.Error(err),
			)
			return nil, err
		}
		s.mu.Lock()
		s.discovered = names
		s.mu.Unlock()
		s.log.Info("model_discovery_done",
			zap.String("component", "ai"),
			zap.Int("models", len(names)),
		)
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(v.([]string)), nil
}

// Cached returns a copy of the discovered model names.
func (s *Selector) Cached() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.discovered)
}

// Candidates returns discovered names followed by the fallback list, with
// duplicates removed and first occurrence order preserved.
func (s *Selector) Candidates() []string {
	s.mu.RLock()
	all := make([]string, 0, len(s.discovered)+len(s.fallback))
	all = append(all, s.discovered...)
	s.mu.RUnlock()
	all = append(all, s.fallback...)
	return dedupe(all)
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func clone(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
