package recommend

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/matiasleandrokruk/echopicks/internal/domain/category"
	"github.com/matiasleandrokruk/echopicks/internal/infra/llm"
	"github.com/matiasleandrokruk/echopicks/internal/infra/logging"
	"github.com/matiasleandrokruk/echopicks/internal/infra/metadata"
	"github.com/matiasleandrokruk/echopicks/internal/infra/metrics"
)

// Outcome labels recorded per request.
const (
	OutcomeOK              = "ok"
	OutcomeFallback        = "fallback"
	OutcomeValidationError = "validation_error"
	OutcomeProviderError   = "provider_error"
	OutcomeParseError      = "parse_error"
)

// ModelRouter resolves the generative-text provider for a request.
type ModelRouter interface {
	RouteTo(ctx context.Context, name string) (llm.LLMProvider, error)
}

// Options tunes the pipeline. Zero values fall back to the defaults below.
type Options struct {
	// Provider names the router entry to use; empty selects the router default.
	Provider        string
	LLMTimeout      time.Duration
	MetadataTimeout time.Duration
	// Temperature is nil for the default 0.7; an explicit 0 is kept.
	Temperature     *float32
	MaxTokens       int
	MaxItems        int
	Concurrency     int
	FallbackEnabled bool
}

func (o Options) withDefaults() Options {
	if o.LLMTimeout <= 0 {
		o.LLMTimeout = 30 * time.Second
	}
	if o.MetadataTimeout <= 0 {
		o.MetadataTimeout = 8 * time.Second
	}
	if o.Temperature == nil {
		o.Temperature = llm.Float32(0.7)
	}
	if o.MaxItems <= 0 {
		o.MaxItems = 10
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 5
	}
	return o
}

// Service runs the recommendation pipeline. It holds no per-request state and
// is safe for concurrent use.
type Service struct {
	router   ModelRouter
	registry *Registry
	table    *category.Table
	opts     Options
}

// NewService wires a Service. A nil registry disables enrichment and a nil
// table uses the built-in synonyms.
func NewService(router ModelRouter, registry *Registry, table *category.Table, opts Options) *Service {
	if table == nil {
		table = category.NewTable()
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{router: router, registry: registry, table: table, opts: opts.withDefaults()}
}

// Recommend validates in, asks the model for similar titles and enriches them.
// Errors are *ValidationError, *ProviderError or *ParseError.
func (s *Service) Recommend(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	title := strings.TrimSpace(in.Title)
	rawCat := strings.TrimSpace(in.Category)
	if title == "" || rawCat == "" {
		metrics.RecordRecommendation(metricLabel(""), OutcomeValidationError)
		return nil, &ValidationError{Message: MsgRequired}
	}

	cat := s.table.Normalize(rawCat)
	log := logging.Ctx(ctx).With().Str("category", cat).Str("title", title).Logger()

	items, err := s.generate(ctx, cat, title)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) && s.opts.FallbackEnabled {
			if fb := s.fallback(ctx, cat, title); len(fb) > 0 {
				log.Warn().Err(pe).Int("items", len(fb)).Msg("model call failed, served provider similarity fallback")
				metrics.RecordRecommendation(metricLabel(cat), OutcomeFallback)
				return &Result{Category: cat, Items: fb, Fallback: true}, nil
			}
		}
		outcome := OutcomeProviderError
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			outcome = OutcomeParseError
		}
		log.Error().Err(err).Msg("recommendation failed")
		metrics.RecordRecommendation(metricLabel(cat), outcome)
		return nil, err
	}

	s.enrich(ctx, cat, items)

	log.Info().Int("items", len(items)).Dur("duration", time.Since(start)).Msg("recommendations served")
	metrics.RecordRecommendation(metricLabel(cat), OutcomeOK)
	return &Result{Category: cat, Items: items}, nil
}

// generate performs the single model call and parses its output.
func (s *Service) generate(ctx context.Context, cat, title string) ([]Item, error) {
	name := s.opts.Provider
	provider, err := s.router.RouteTo(ctx, name)
	if err != nil {
		return nil, &ProviderError{Provider: name, Err: err}
	}
	meta := provider.ModelInfo()

	callCtx, cancel := context.WithTimeout(ctx, s.opts.LLMTimeout)
	defer cancel()

	started := time.Now()
	resp, err := provider.ChatCompletion(callCtx, llm.ChatRequest{
		Messages:    buildMessages(cat, title),
		Temperature: s.opts.Temperature,
		MaxTokens:   s.opts.MaxTokens,
	})
	metrics.ObserveLLM(meta.Provider, time.Since(started), err)
	if err != nil {
		return nil, &ProviderError{Provider: meta.Provider, Err: err}
	}

	return parseItems(resp.Content, s.opts.MaxItems)
}

// enrich merges metadata into items in place. Each lookup writes only its own
// slot; failures leave that item untouched.
func (s *Service) enrich(ctx context.Context, cat string, items []Item) {
	e, ok := s.registry.Lookup(cat)
	if !ok {
		return
	}

	it := iter.Iterator[Item]{MaxGoroutines: s.opts.Concurrency}
	it.ForEach(items, func(item *Item) {
		lookupCtx, cancel := context.WithTimeout(ctx, s.opts.MetadataTimeout)
		defer cancel()

		rec, err := e.Lookup(lookupCtx, item.Title)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("provider", e.Name()).Str("title", item.Title).Msg("metadata lookup failed")
			return
		}
		merge(item, rec)
	})
}

// fallback asks the category's provider for similar titles directly.
func (s *Service) fallback(ctx context.Context, cat, title string) []Item {
	e, ok := s.registry.Lookup(cat)
	if !ok {
		return nil
	}
	finder, ok := e.(SimilarFinder)
	if !ok {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.MetadataTimeout)
	defer cancel()

	suggestions, err := finder.Similar(callCtx, title, promptCount)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("provider", e.Name()).Msg("similarity fallback failed")
		return nil
	}

	items := make([]Item, 0, len(suggestions))
	for _, sg := range suggestions {
		item := Item{Title: sg.Title, Reason: sg.Reason}
		merge(&item, sg.Record)
		items = append(items, item)
	}
	return items
}

// merge copies metadata onto item. A model-provided description is kept.
func merge(item *Item, rec *metadata.Record) {
	if rec == nil {
		return
	}
	item.Poster = rec.Poster
	item.Year = rec.Year
	item.Rating = rec.Rating
	if item.Description == "" {
		item.Description = rec.Description
	}
}

// metricLabel bounds label cardinality to the canonical categories.
func metricLabel(cat string) string {
	if category.Known(cat) {
		return cat
	}
	return "other"
}
