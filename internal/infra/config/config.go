// Package config provides application-wide configuration.
// Values are layered: struct defaults, then an optional YAML file, then
// environment variables. All fields have safe defaults so the binary runs
// locally with nothing but a model API key.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds runtime configuration for echopicks.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	LLM        LLMConfig        `koanf:"llm"`
	Metadata   MetadataConfig   `koanf:"metadata"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Breaker    BreakerConfig    `koanf:"breaker"`
	Categories CategoriesConfig `koanf:"categories"`
	Log        LogConfig        `koanf:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LLMConfig selects and configures the generative-text provider.
type LLMConfig struct {
	Provider    string        `koanf:"provider"` // gemini | openai | ollama
	Timeout     time.Duration `koanf:"timeout"`
	Temperature float64       `koanf:"temperature"`
	MaxTokens   int           `koanf:"max_tokens"`

	GeminiAPIKey  string `koanf:"gemini_api_key"`
	GeminiModel   string `koanf:"gemini_model"`
	GeminiBaseURL string `koanf:"gemini_base_url"`

	OpenAIAPIKey  string `koanf:"openai_api_key"`
	OpenAIModel   string `koanf:"openai_model"`
	OpenAIBaseURL string `koanf:"openai_base_url"`

	OllamaBaseURL   string `koanf:"ollama_base_url"`
	OllamaChatModel string `koanf:"ollama_chat_model"`
}

// MetadataConfig holds per-provider keys. An empty key disables that
// provider's enrichment.
type MetadataConfig struct {
	TMDBAPIKey        string        `koanf:"tmdb_api_key"`
	TMDBLanguage      string        `koanf:"tmdb_language"`
	GoogleBooksAPIKey string        `koanf:"google_books_api_key"`
	RAWGAPIKey        string        `koanf:"rawg_api_key"`
	AniListEnabled    bool          `koanf:"anilist_enabled"`
	Timeout           time.Duration `koanf:"timeout"`
}

// RecommendConfig tunes the recommendation pipeline.
type RecommendConfig struct {
	FallbackEnabled   bool `koanf:"fallback_enabled"`
	MaxItems          int  `koanf:"max_items"`
	EnrichConcurrency int  `koanf:"enrich_concurrency"`
	PageSize          int  `koanf:"page_size"`
}

// BreakerConfig configures the circuit breaker around each metadata provider.
type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
}

// CategoriesConfig points at an optional YAML file of extra category synonyms.
type CategoriesConfig struct {
	SynonymsFile string `koanf:"synonyms_file"`
}

// LogConfig controls zerolog output and optional file rotation.
type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

// LLM provider names accepted by llm.provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "ECHOPICKS_CONFIG"

// DefaultPaths are searched in order when PathEnvVar is unset.
var DefaultPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/echopicks/config.yaml",
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    90 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		LLM: LLMConfig{
			Provider:        ProviderGemini,
			Timeout:         30 * time.Second,
			Temperature:     0.7,
			MaxTokens:       1024,
			GeminiModel:     "gemini-1.5-pro-latest",
			GeminiBaseURL:   "https://generativelanguage.googleapis.com/v1beta",
			OpenAIModel:     "gpt-4o-mini",
			OpenAIBaseURL:   "https://api.openai.com/v1",
			OllamaBaseURL:   "http://localhost:11434",
			OllamaChatModel: "llama3.2:3b",
		},
		Metadata: MetadataConfig{
			TMDBLanguage:   "en-US",
			AniListEnabled: true,
			Timeout:        8 * time.Second,
		},
		Recommend: RecommendConfig{
			FallbackEnabled:   false,
			MaxItems:          10,
			EnrichConcurrency: 5,
			PageSize:          6,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// envKeys maps environment variables to koanf paths.
var envKeys = map[string]string{
	"HTTP_HOST":          "server.host",
	"HTTP_PORT":          "server.port",
	"HTTP_WRITE_TIMEOUT": "server.write_timeout",
	"SHUTDOWN_TIMEOUT":   "server.shutdown_timeout",
	"CORS_ORIGINS":       "server.cors_origins",

	"LLM_PROVIDER":      "llm.provider",
	"LLM_TIMEOUT":       "llm.timeout",
	"LLM_TEMPERATURE":   "llm.temperature",
	"LLM_MAX_TOKENS":    "llm.max_tokens",
	"GEMINI_API_KEY":    "llm.gemini_api_key",
	"GEMINI_MODEL":      "llm.gemini_model",
	"GEMINI_BASE_URL":   "llm.gemini_base_url",
	"OPENAI_API_KEY":    "llm.openai_api_key",
	"OPENAI_MODEL":      "llm.openai_model",
	"OPENAI_BASE_URL":   "llm.openai_base_url",
	"OLLAMA_BASE_URL":   "llm.ollama_base_url",
	"OLLAMA_CHAT_MODEL": "llm.ollama_chat_model",

	"TMDB_API_KEY":         "metadata.tmdb_api_key",
	"TMDB_LANGUAGE":        "metadata.tmdb_language",
	"GOOGLE_BOOKS_API_KEY": "metadata.google_books_api_key",
	"RAWG_API_KEY":         "metadata.rawg_api_key",
	"ANILIST_ENABLED":      "metadata.anilist_enabled",
	"METADATA_TIMEOUT":     "metadata.timeout",

	"RECOMMEND_FALLBACK_ENABLED":   "recommend.fallback_enabled",
	"RECOMMEND_MAX_ITEMS":          "recommend.max_items",
	"RECOMMEND_ENRICH_CONCURRENCY": "recommend.enrich_concurrency",
	"RECOMMEND_PAGE_SIZE":          "recommend.page_size",

	"BREAKER_FAILURE_THRESHOLD": "breaker.failure_threshold",
	"BREAKER_OPEN_TIMEOUT":      "breaker.open_timeout",

	"CATEGORY_SYNONYMS_FILE": "categories.synonyms_file",

	"LOG_LEVEL":  "log.level",
	"LOG_FORMAT": "log.format",
	"LOG_FILE":   "log.file",
}

// sliceKeys are parsed from comma-separated strings when set via env.
var sliceKeys = []string{"server.cors_origins"}

// Load reads configuration from defaults, the config file (if any) and the
// environment, in increasing order of precedence.
func Load() (Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("config: load env: %w", err)
	}

	if err := splitSliceKeys(k); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envTransform maps a known, non-empty env var to its koanf path. Returning
// an empty key makes koanf skip the variable.
func envTransform(key, value string) (string, any) {
	path, ok := envKeys[strings.ToUpper(key)]
	if !ok || strings.TrimSpace(value) == "" {
		return "", nil
	}
	return path, value
}

func splitSliceKeys(k *koanf.Koanf) error {
	for _, path := range sliceKeys {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0, 4)
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("config: set %s: %w", path, err)
		}
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Validate reports every invalid setting, joined.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("llm.provider %q is not one of gemini, openai, ollama", c.LLM.Provider))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout must be positive"))
	}
	if c.Metadata.Timeout <= 0 {
		errs = append(errs, errors.New("metadata.timeout must be positive"))
	}
	if c.Recommend.MaxItems < 1 {
		errs = append(errs, errors.New("recommend.max_items must be at least 1"))
	}
	if c.Recommend.EnrichConcurrency < 1 {
		errs = append(errs, errors.New("recommend.enrich_concurrency must be at least 1"))
	}
	if c.Recommend.PageSize < 1 {
		errs = append(errs, errors.New("recommend.page_size must be at least 1"))
	}
	if c.LLM.Temperature < 0 {
		errs = append(errs, errors.New("llm.temperature must not be negative"))
	}
	if budget := c.RequestBudget(); c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < budget {
		errs = append(errs, fmt.Errorf("server.write_timeout %v is shorter than llm.timeout plus enrichment (%v)",
			c.Server.WriteTimeout, budget))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// RequestBudget is the longest a recommendation request can take: the model
// call plus one metadata timeout per round of concurrent lookups.
func (c Config) RequestBudget() time.Duration {
	if c.Recommend.EnrichConcurrency < 1 || c.Recommend.MaxItems < 1 {
		return c.LLM.Timeout
	}
	rounds := (c.Recommend.MaxItems + c.Recommend.EnrichConcurrency - 1) / c.Recommend.EnrichConcurrency
	return c.LLM.Timeout + time.Duration(rounds)*c.Metadata.Timeout
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
