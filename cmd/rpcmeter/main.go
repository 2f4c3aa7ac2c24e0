package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rpcmeter/rpcmeter/internal/catalog"
	"github.com/rpcmeter/rpcmeter/internal/llm"
	"github.com/rpcmeter/rpcmeter/internal/plans"
	"github.com/rpcmeter/rpcmeter/internal/server"
	"github.com/rpcmeter/rpcmeter/internal/sources"
)

func main() {
	config, err := parseConfig(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	cat, err := catalog.New(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load catalog")
	}
	table, err := plans.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load plan table")
	}

	fetcher := sources.NewFetcher(logger, config.SourceTimeout)

	// Without an API key the estimator still serves catalog, plan, and
	// estimate requests; only the suggestion endpoint is disabled.
	var provider llm.Provider
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		prompts := llm.NewPromptBuilder(cat, table)
		claude, err := llm.NewClaudeProvider(apiKey, config.LLMModel, prompts, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize suggestion provider")
		}
		provider = claude
	} else {
		logger.Warn().Msg("ANTHROPIC_API_KEY not set; suggestion endpoint disabled")
	}

	srv := server.New(logger, cat, table, fetcher, provider, config.SourceURLs)
	httpServer := &http.Server{
		Addr:              config.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown failed")
		}
	}()

	logger.Info().Str("addr", config.ListenAddr).Msg("starting rpcmeter server")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}
