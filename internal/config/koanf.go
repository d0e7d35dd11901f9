// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/vicinus/internal/validation"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vicinus/config.yaml",
	"/etc/vicinus/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        5000,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Places: PlacesConfig{
			APIKey:  "",
			BaseURL: "https://places.googleapis.com/v1",
			// 1500m radius and a 1000-venue cap bound per-query latency
			// and upstream cost; both are operator-tunable.
			RadiusMeters: 1500,
			MaxVenues:    1000,
			// The nearby-search upstream requires this warm-up delay
			// before a nextPageToken may be exchanged.
			PageDelay:     2 * time.Second,
			Timeout:       30 * time.Second,
			SampleNameCap: 25,
		},
		Gemini: GeminiConfig{
			APIKey:  "",
			Model:   "gemini-2.0-flash",
			RPS:     0.25, // free-tier default: 15 requests/minute
			Burst:   1,
			Timeout: 60 * time.Second,
		},
		Sentiment: SentimentConfig{
			URL:      "http://127.0.0.1:8501",
			MaxChars: 512, // classifier input window
			Timeout:  15 * time.Second,
		},
		Pipeline: PipelineConfig{
			Workers: 4,
			Timeout: 5 * time.Minute,
		},
		API: APIConfig{
			RateLimitReqs:   100,
			RateLimitWindow: 1 * time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment names are mapped to koanf paths so the well-known variables
	// (GOOGLE_MAPS_API_KEY, GEMINI_API_KEY) keep working unchanged.
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated slices.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated env strings to slices for known
// slice fields. Env vars arrive as strings but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables return "" and are skipped, which keeps unrelated
// environment noise out of the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Credential names match the upstream services' conventional variables.
		"google_maps_api_key": "places.api_key",
		"gemini_api_key":      "gemini.api_key",

		// Places search tuning
		"places_base_url":        "places.base_url",
		"places_radius_meters":   "places.radius_meters",
		"places_max_venues":      "places.max_venues",
		"places_page_delay":      "places.page_delay",
		"places_timeout":         "places.timeout",
		"places_sample_name_cap": "places.sample_name_cap",

		// Gemini tuning
		"gemini_model":   "gemini.model",
		"gemini_rps":     "gemini.rps",
		"gemini_burst":   "gemini.burst",
		"gemini_timeout": "gemini.timeout",

		// Sentiment classifier
		"sentiment_url":       "sentiment.url",
		"sentiment_max_chars": "sentiment.max_chars",
		"sentiment_timeout":   "sentiment.timeout",

		// Pipeline
		"pipeline_workers": "pipeline.workers",
		"pipeline_timeout": "pipeline.timeout",

		// Server
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// API
		"rate_limit_requests": "api.rate_limit_requests",
		"rate_limit_window":   "api.rate_limit_window",
		"cors_origins":        "api.cors_origins",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// validateStructRanges runs the struct-tag range validators over the config.
func validateStructRanges(c *Config) error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("config field validation: %s", verr.Error())
	}
	return nil
}
