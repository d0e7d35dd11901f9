// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

// Package sentiment scores review text against a locally hosted
// sentiment classification service.
//
// The classifier exposes a small JSON API: POST /score takes
// {"text": "..."} and returns {"label": "POSITIVE"|"NEGATIVE",
// "score": 0.0..1.0}. Scores are signed by label: POSITIVE keeps the
// classifier score, NEGATIVE negates it, so every result lands in
// [-1, 1].
//
// Input text is truncated to a configured maximum (default 512
// characters) before scoring, matching the classifier's sequence
// length limit. Truncation counts characters, not bytes.
package sentiment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/vicinus/internal/config"
	"github.com/tomtom215/vicinus/internal/logging"
	"github.com/tomtom215/vicinus/internal/metrics"
	"github.com/tomtom215/vicinus/internal/models"
)

// Scorer assigns signed sentiment scores to review text.
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
	ScoreAll(ctx context.Context, reviews []models.Review) float64
}

// Client calls the local sentiment classification service over HTTP.
type Client struct {
	baseURL  string
	client   *http.Client
	maxChars int
}

// NewClient creates a sentiment client from configuration.
func NewClient(cfg *config.SentimentConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		maxChars: cfg.MaxChars,
	}
}

type scoreRequest struct {
	Text string `json:"text"`
}

type scoreResponse struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Score classifies a single piece of text and returns its signed score.
// Text longer than the configured maximum is truncated before scoring.
func (c *Client) Score(ctx context.Context, text string) (float64, error) {
	runes := []rune(text)
	if len(runes) > c.maxChars {
		text = string(runes[:c.maxChars])
	}

	start := time.Now()
	resp, err := c.post(ctx, "/score", scoreRequest{Text: text})
	metrics.RecordUpstreamRequest("sentiment", "score", statusLabelErr(err), time.Since(start))
	if err != nil {
		return 0, err
	}

	score := resp.Score
	if strings.EqualFold(resp.Label, "NEGATIVE") {
		score = -score
	}
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}

	metrics.SentimentScoredTotal.Inc()
	return score, nil
}

// ScoreAll scores every non-empty review and returns the arithmetic mean.
// Reviews that fail to score are skipped with a warning. When no review
// produces a score the result is 0.
func (c *Client) ScoreAll(ctx context.Context, reviews []models.Review) float64 {
	var sum float64
	var n int
	for _, r := range reviews {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		score, err := c.Score(ctx, r.Text)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Sentiment scoring failed, skipping review")
			continue
		}
		sum += score
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Ping verifies the classifier is reachable. Called once at startup;
// an unreachable classifier is a fatal configuration error.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("sentiment: build health request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sentiment: classifier unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sentiment: classifier health check returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body scoreRequest) (*scoreResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("sentiment: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("sentiment: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sentiment: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("sentiment: classifier returned %d: %s", resp.StatusCode, string(raw))
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("sentiment: decode response: %w", err)
	}
	return &out, nil
}

func statusLabelErr(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
