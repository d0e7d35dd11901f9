// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

// Package config loads and validates Vicinus configuration using Koanf v2
// with layered sources: built-in defaults, an optional YAML config file, and
// environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Vicinus server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Places    PlacesConfig    `koanf:"places"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	Sentiment SentimentConfig `koanf:"sentiment"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// PlacesConfig holds the places API credential and search tuning.
//
// RadiusMeters and MaxVenues are heuristics, not protocol constants; both are
// exposed as configuration so operators can trade coverage for latency/cost.
type PlacesConfig struct {
	APIKey        string        `koanf:"api_key"`
	BaseURL       string        `koanf:"base_url"`
	RadiusMeters  float64       `koanf:"radius_meters" validate:"min=1,max=50000"`
	MaxVenues     int           `koanf:"max_venues" validate:"min=1,max=5000"`
	PageDelay     time.Duration `koanf:"page_delay"`
	Timeout       time.Duration `koanf:"timeout"`
	SampleNameCap int           `koanf:"sample_name_cap" validate:"min=1"`
}

// GeminiConfig holds the generative-text API credential and model selection.
type GeminiConfig struct {
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	RPS     float64       `koanf:"rps"`
	Burst   int           `koanf:"burst"`
	Timeout time.Duration `koanf:"timeout"`
}

// SentimentConfig holds the local sentiment classifier service settings.
// The classifier must be reachable at startup; an unreachable classifier is
// a fatal configuration condition, not a per-request error.
type SentimentConfig struct {
	URL      string        `koanf:"url"`
	MaxChars int           `koanf:"max_chars" validate:"min=1"`
	Timeout  time.Duration `koanf:"timeout"`
}

// PipelineConfig tunes pipeline execution.
type PipelineConfig struct {
	// Workers bounds the concurrent per-venue review fetch+score tasks.
	// 1 reproduces fully sequential behavior.
	Workers int           `koanf:"workers" validate:"min=1,max=64"`
	Timeout time.Duration `koanf:"timeout"`
}

// APIConfig holds inbound API settings.
type APIConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_requests"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// Validate checks the configuration for startup-blocking problems.
// Missing API credentials are caught here: the pipeline cannot degrade
// around an absent credential, so absence is fatal before serving.
func (c *Config) Validate() error {
	if c.Places.APIKey == "" {
		return fmt.Errorf("places API key is required (set GOOGLE_MAPS_API_KEY)")
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("gemini API key is required (set GEMINI_API_KEY)")
	}
	if c.Sentiment.URL == "" {
		return fmt.Errorf("sentiment classifier URL is required (set SENTIMENT_URL)")
	}
	if c.Places.PageDelay < 0 {
		return fmt.Errorf("places page delay must not be negative")
	}
	if err := validateStructRanges(c); err != nil {
		return err
	}
	return nil
}
