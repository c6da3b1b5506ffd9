package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/matiasleandrokruk/echopicks/internal/infra/logging"
	"github.com/matiasleandrokruk/echopicks/internal/infra/metrics"
)

// ErrUnavailable is returned while a provider's circuit is open.
var ErrUnavailable = errors.New("metadata: provider unavailable")

// BreakerConfig tunes the circuit breaker wrapped around each Source.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// OpenTimeout is how long the circuit stays open before a trial request.
	OpenTimeout time.Duration
}

type guarded struct {
	src Source
	cb  *gobreaker.CircuitBreaker[any]
}

type guardedSimilar struct {
	guarded
	similar SimilarSource
}

// WithBreaker wraps src in a circuit breaker that also records lookup
// outcomes and state transitions as metrics. If src is a SimilarSource the
// returned value is one too.
func WithBreaker(src Source, cfg BreakerConfig) Source {
	name := src.Name()
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	metrics.SetBreakerState(name, int(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Cancellation by the caller does not count against the provider.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).
				Msg("metadata circuit breaker state change")
			metrics.SetBreakerState(name, int(to))
		},
	})

	g := guarded{src: src, cb: cb}
	if s, ok := src.(SimilarSource); ok {
		return &guardedSimilar{guarded: g, similar: s}
	}
	return &g
}

func (g *guarded) Name() string { return g.src.Name() }

// execute runs fn through the breaker and maps an open circuit to ErrUnavailable.
func (g *guarded) execute(fn func() (any, error)) (any, error) {
	res, err := g.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordLookup(g.Name(), metrics.LookupOpen)
		return nil, fmt.Errorf("%s: %w", g.Name(), ErrUnavailable)
	}
	return res, err
}

func (g *guarded) Lookup(ctx context.Context, title string) (*Record, error) {
	res, err := g.execute(func() (any, error) {
		return g.src.Lookup(ctx, title)
	})
	if errors.Is(err, ErrUnavailable) {
		return nil, err
	}
	if err != nil {
		metrics.RecordLookup(g.Name(), metrics.LookupError)
		return nil, err
	}
	rec, _ := res.(*Record)
	if rec == nil {
		metrics.RecordLookup(g.Name(), metrics.LookupMiss)
		return nil, nil
	}
	metrics.RecordLookup(g.Name(), metrics.LookupHit)
	return rec, nil
}

func (g *guardedSimilar) Similar(ctx context.Context, title string, limit int) ([]Suggestion, error) {
	res, err := g.execute(func() (any, error) {
		out, err := g.similar.Similar(ctx, title, limit)
		if errors.Is(err, ErrNotFound) {
			// ErrNotFound does not count as a failure.
			return nil, nil
		}
		return out, err
	})
	if err != nil {
		return nil, err
	}
	out, _ := res.([]Suggestion)
	return out, nil
}
