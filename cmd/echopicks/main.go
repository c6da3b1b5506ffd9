// Echopicks - cross-medium recommendations served over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/matiasleandrokruk/echopicks/internal/infra/config"
	"github.com/matiasleandrokruk/echopicks/internal/infra/logging"
	"github.com/matiasleandrokruk/echopicks/internal/server"
	"github.com/matiasleandrokruk/echopicks/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("echopicks", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config", "", "Path to a YAML config file")
	checkOnly := fs.Bool("check", false, "Validate configuration and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(out, "echopicks: %v\n", err) //nolint:errcheck
		return 1
	}

	if *checkOnly {
		if err := check(cfg); err != nil {
			fmt.Fprintf(out, "echopicks: %v\n", err) //nolint:errcheck
			return 1
		}
		fmt.Fprintln(out, "configuration ok") //nolint:errcheck
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("echopicks exited with error")
		return 1
	}
	return 0
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// check builds every component and probes the selected model provider.
func check(cfg config.Config) error {
	models, err := buildModelRouter(cfg.LLM)
	if err != nil {
		return err
	}
	if _, err := buildHandler(cfg, models); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.LLM.Timeout)
	defer cancel()
	return checkModel(ctx, models)
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests within the configured shutdown timeout.
func serve(ctx context.Context, cfg config.Config) error {
	logging.Init(loggingConfig(cfg.Log))
	defer logging.Close() //nolint:errcheck

	models, err := buildModelRouter(cfg.LLM)
	if err != nil {
		return err
	}
	handler, err := buildHandler(cfg, models)
	if err != nil {
		return err
	}

	probeCtx, cancelProbe := context.WithTimeout(ctx, cfg.LLM.Timeout)
	if err := checkModel(probeCtx, models); err != nil {
		logging.Warn().Err(err).Msg("model provider health check failed; serving anyway")
	}
	cancelProbe()

	srv := server.NewServer(handler, server.FromConfig(cfg.Server))
	logging.Info().
		Str("version", version.Version).
		Str("llm_provider", cfg.LLM.Provider).
		Str("addr", srv.Addr()).
		Msg("echopicks starting")

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

func loggingConfig(c config.LogConfig) logging.Config {
	return logging.Config{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

func printHelp(out io.Writer) {
	helpText := `Echopicks - recommendations across books, movies, anime, games and TV

Usage:
  echopicks [options]

Options:
  --config PATH  Load settings from a YAML file (default: $ECHOPICKS_CONFIG,
                 then ./config.yaml)
  --check        Validate configuration, build every component and probe
                 the selected model provider's health endpoint, then exit
  --version      Show version information
  --help         Show this help message

Environment:
  LLM_PROVIDER         gemini | openai | ollama (default gemini)
  GEMINI_API_KEY       key for the Gemini provider
  OPENAI_API_KEY       key for the OpenAI provider
  TMDB_API_KEY         enables movie and tv enrichment
  GOOGLE_BOOKS_API_KEY enables book enrichment
  RAWG_API_KEY         enables game enrichment
  ANILIST_ENABLED      anime enrichment (default true)

Examples:
  echopicks --version
  GEMINI_API_KEY=... echopicks
  echopicks --config /etc/echopicks/config.yaml --check`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
