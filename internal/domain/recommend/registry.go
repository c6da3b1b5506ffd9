package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/matiasleandrokruk/echopicks/internal/infra/metadata"
)

// Enricher looks up metadata for one title. A nil record with a nil error
// means no match.
type Enricher interface {
	Name() string
	Lookup(ctx context.Context, title string) (*metadata.Record, error)
}

// SimilarFinder is an Enricher that can list similar titles on its own. It
// backs the model-failure fallback.
type SimilarFinder interface {
	Similar(ctx context.Context, title string, limit int) ([]metadata.Suggestion, error)
}

// Registry maps a canonical category to its enrichment strategy.
type Registry struct {
	byCategory map[string]Enricher
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byCategory: make(map[string]Enricher)}
}

// Register binds e to category. A category can be bound once.
func (r *Registry) Register(category string, e Enricher) error {
	if e == nil {
		return fmt.Errorf("recommend: nil enricher for %q", category)
	}
	key := strings.ToLower(strings.TrimSpace(category))
	if key == "" {
		return fmt.Errorf("recommend: empty category for enricher %s", e.Name())
	}
	if prev, ok := r.byCategory[key]; ok {
		return fmt.Errorf("recommend: category %q already bound to %s", key, prev.Name())
	}
	r.byCategory[key] = e
	return nil
}

// Lookup returns the enricher for category, if any.
func (r *Registry) Lookup(category string) (Enricher, bool) {
	if r == nil {
		return nil, false
	}
	e, ok := r.byCategory[category]
	return e, ok
}

// Categories lists the bound categories in sorted order.
func (r *Registry) Categories() []string {
	out := make([]string, 0, len(r.byCategory))
	for c := range r.byCategory {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
