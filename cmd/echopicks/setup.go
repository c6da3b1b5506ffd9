package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/matiasleandrokruk/echopicks/internal/api"
	"github.com/matiasleandrokruk/echopicks/internal/domain/category"
	"github.com/matiasleandrokruk/echopicks/internal/domain/recommend"
	"github.com/matiasleandrokruk/echopicks/internal/infra/config"
	"github.com/matiasleandrokruk/echopicks/internal/infra/llm"
	"github.com/matiasleandrokruk/echopicks/internal/infra/logging"
	"github.com/matiasleandrokruk/echopicks/internal/infra/metadata"
	"github.com/matiasleandrokruk/echopicks/internal/web"
)

// buildHandler assembles the full HTTP handler from configuration.
func buildHandler(cfg config.Config, models *llm.Router) (http.Handler, error) {
	table, err := buildCategoryTable(cfg.Categories.SynonymsFile)
	if err != nil {
		return nil, err
	}
	registry, err := buildRegistry(cfg.Metadata, cfg.Breaker)
	if err != nil {
		return nil, err
	}
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	svc := recommend.NewService(models, registry, table, recommend.Options{
		Provider:        cfg.LLM.Provider,
		LLMTimeout:      cfg.LLM.Timeout,
		MetadataTimeout: cfg.Metadata.Timeout,
		Temperature:     llm.Float32(float32(cfg.LLM.Temperature)),
		MaxTokens:       cfg.LLM.MaxTokens,
		MaxItems:        cfg.Recommend.MaxItems,
		Concurrency:     cfg.Recommend.EnrichConcurrency,
		FallbackEnabled: cfg.Recommend.FallbackEnabled,
	})

	return api.NewRouter(api.Deps{
		Recommender: svc,
		Templates:   tmpl,
		CORSOrigins: cfg.Server.CORSOrigins,
		PageSize:    cfg.Recommend.PageSize,
	}), nil
}

// buildModelRouter registers every provider that has credentials. Ollama is
// local and always registered. The selected provider must be among them.
func buildModelRouter(c config.LLMConfig) (*llm.Router, error) {
	router := llm.NewRouter(nil, c.Provider)
	registered := []string{config.ProviderOllama}
	router.Register(config.ProviderOllama, llm.NewOllamaProvider(c.OllamaBaseURL, c.OllamaChatModel))
	if c.GeminiAPIKey != "" {
		router.Register(config.ProviderGemini, llm.NewGeminiProvider(c.GeminiBaseURL, c.GeminiAPIKey, c.GeminiModel))
		registered = append(registered, config.ProviderGemini)
	}
	if c.OpenAIAPIKey != "" {
		router.Register(config.ProviderOpenAI, llm.NewOpenAIProvider(c.OpenAIBaseURL, c.OpenAIAPIKey, c.OpenAIModel))
		registered = append(registered, config.ProviderOpenAI)
	}

	if _, err := router.Route(context.Background()); err != nil {
		return nil, fmt.Errorf("llm provider %q has no API key configured", c.Provider)
	}
	logging.Info().Str("provider", c.Provider).Strs("registered", registered).Msg("llm providers ready")
	return router, nil
}

// checkModel probes the default provider's health endpoint.
func checkModel(ctx context.Context, models *llm.Router) error {
	p, err := models.Route(ctx)
	if err != nil {
		return err
	}
	if err := p.HealthCheck(ctx); err != nil {
		return fmt.Errorf("llm provider %s unreachable: %w", p.ModelInfo().Provider, err)
	}
	return nil
}

// buildRegistry maps each category to its metadata source. A provider with
// no key is left out and its category passes through unenriched.
func buildRegistry(c config.MetadataConfig, b config.BreakerConfig, opts ...metadata.Option) (*recommend.Registry, error) {
	breaker := metadata.BreakerConfig{FailureThreshold: b.FailureThreshold, OpenTimeout: b.OpenTimeout}
	sources := map[string]metadata.Source{}

	if c.TMDBAPIKey != "" {
		sources[category.Movie] = metadata.NewTMDB(c.TMDBAPIKey, c.TMDBLanguage, metadata.MediaMovie, opts...)
		sources[category.TV] = metadata.NewTMDB(c.TMDBAPIKey, c.TMDBLanguage, metadata.MediaTV, opts...)
	}
	if c.GoogleBooksAPIKey != "" {
		sources[category.Book] = metadata.NewGoogleBooks(c.GoogleBooksAPIKey, opts...)
	}
	if c.RAWGAPIKey != "" {
		sources[category.Game] = metadata.NewRAWG(c.RAWGAPIKey, opts...)
	}
	if c.AniListEnabled {
		sources[category.Anime] = metadata.NewAniList(opts...)
	}

	registry := recommend.NewRegistry()
	for _, cat := range category.All() {
		src, ok := sources[cat]
		if !ok {
			logging.Warn().Str("category", cat).Msg("no metadata provider configured; items will not be enriched")
			continue
		}
		if err := registry.Register(cat, metadata.WithBreaker(src, breaker)); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// buildCategoryTable returns the built-in synonyms merged with an optional
// YAML file.
func buildCategoryTable(path string) (*category.Table, error) {
	table := category.NewTable()
	if path == "" {
		return table, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open synonyms file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	extra, err := category.LoadSynonyms(f)
	if err != nil {
		return nil, err
	}
	table.Merge(extra)
	return table, nil
}
