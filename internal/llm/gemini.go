// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

// Package llm wraps the Gemini API behind a small text-generation
// interface. A token-bucket rate limiter throttles outbound calls so
// burst traffic (comparison requests fan out to one call per
// neighborhood plus one for the comparison itself) stays inside the
// free-tier quota.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/tomtom215/vicinus/internal/config"
	"github.com/tomtom215/vicinus/internal/logging"
	"github.com/tomtom215/vicinus/internal/metrics"
)

// Generator produces text from a prompt.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiClient implements Generator against the Gemini API.
type GeminiClient struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGeminiClient creates a rate-limited Gemini client.
func NewGeminiClient(ctx context.Context, cfg *config.GeminiConfig) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini client: %w", err)
	}

	return &GeminiClient{
		client:  cli,
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		timeout: cfg.Timeout,
	}, nil
}

// GenerateText sends a single-turn prompt and returns the first
// candidate's text with surrounding whitespace removed.
func (g *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm: rate limiter wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	metrics.RecordUpstreamRequest("gemini", "generate_content", statusLabel(err), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}

	text, err := firstCandidateText(resp)
	if err != nil {
		return "", err
	}

	logging.Ctx(ctx).Debug().Int("prompt_chars", len(prompt)).Int("response_chars", len(text)).Msg("Gemini generation complete")
	return text, nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("llm: response has no candidates")
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", fmt.Errorf("llm: candidate has no content parts")
	}

	var sb strings.Builder
	for _, part := range content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("llm: candidate text is empty")
	}
	return text, nil
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
