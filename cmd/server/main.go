// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

// Package main is the entry point for the Vicinus server application.
//
// Vicinus turns a natural-language question about a neighborhood into a
// data-backed "vibe" summary: it resolves the neighborhood through a
// places text search, fetches nearby venues with their ratings and
// reviews, scores review sentiment through a local classifier, and asks
// Gemini to narrate the aggregate statistics. Comparison queries
// ("Soho vs Tribeca") run the pipeline once per side and add a
// comparison narrative.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Places client: Circuit-breaker-wrapped Google Places v1 gateway
//  3. Sentiment client: Local classifier, health-checked at startup
//  4. Gemini client: Rate-limited generative text
//  5. Pipeline: interpret -> locate -> summarize orchestration
//  6. HTTP Server: REST API, embedded frontend, Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Required environment:
//   - GOOGLE_MAPS_API_KEY: Places API credential
//   - GEMINI_API_KEY: Gemini API credential
//
// The sentiment classifier must be reachable (SENTIMENT_URL, default
// http://127.0.0.1:8501) or startup fails.
//
// # Modes
//
//	./vicinus serve    # HTTP server on port 5000
//	./vicinus          # one-shot CLI: read a query from stdin, print JSON
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections and waits up to 10s for in-flight requests.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/vicinus/internal/api"
	"github.com/tomtom215/vicinus/internal/config"
	"github.com/tomtom215/vicinus/internal/llm"
	"github.com/tomtom215/vicinus/internal/logging"
	"github.com/tomtom215/vicinus/internal/places"
	"github.com/tomtom215/vicinus/internal/sentiment"
	"github.com/tomtom215/vicinus/internal/vibe"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("gemini_model", cfg.Gemini.Model).
		Float64("radius_meters", cfg.Places.RadiusMeters).
		Int("max_venues", cfg.Places.MaxVenues).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	placesClient := places.NewCircuitBreakerClient(&cfg.Places)

	sentimentClient := sentiment.NewClient(&cfg.Sentiment)
	if err := sentimentClient.Ping(ctx); err != nil {
		logging.Fatal().Err(err).Msg("Sentiment classifier not reachable")
	}
	logging.Info().Str("url", cfg.Sentiment.URL).Msg("Connected to sentiment classifier")

	geminiClient, err := llm.NewGeminiClient(ctx, &cfg.Gemini)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize Gemini client")
	}

	pipeline := vibe.New(placesClient, geminiClient, sentimentClient, cfg)

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		runServer(ctx, cancel, cfg, pipeline)
		return
	}
	runOnce(ctx, pipeline)
}

// runServer starts the HTTP server and blocks until shutdown.
func runServer(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, pipeline *vibe.Pipeline) {
	handler := api.NewHandler(pipeline, cfg.Pipeline.Timeout)
	router := api.NewRouter(handler, &cfg.API)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("Server shutdown error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// runOnce reads one query from stdin, runs the pipeline, and prints the
// result as JSON to stdout.
func runOnce(ctx context.Context, pipeline *vibe.Pipeline) {
	fmt.Println("Enter a neighborhood or district to learn about its vibe:")
	fmt.Print("> ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		logging.Fatal().Err(err).Msg("Failed to read input")
	}
	userInput := strings.TrimSpace(line)
	if userInput == "" {
		logging.Fatal().Msg("Empty input")
	}

	result, err := pipeline.Run(ctx, userInput)
	if err != nil {
		logging.Fatal().Err(err).Msg("Analysis failed")
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to encode result")
	}
	fmt.Println(string(out))
}
