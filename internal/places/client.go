// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

/*
client.go - Places API Gateway

This file provides the core Client struct and HTTP communication layer for
the places upstream (text search, nearby search, place details).

Client Features:
  - HTTP client with configurable timeout
  - API key authentication via X-Goog-Api-Key header
  - Field masks on every request so the upstream returns only the fields
    the pipeline consumes
  - Typed response schemas with defensive optional-field handling
    (absent fields decode to zero values, never crash a request)
  - Context support for cancellation and timeouts

Pagination:
The nearby search is paginated through an opaque nextPageToken. The upstream
requires a warm-up delay before a token may be exchanged for the next page;
the delay applies only to requests that carry a token, never to the first
request. The delay is issued through an injectable sleep function so tests
can assert its exact placement without waiting.

Related Files:
  - circuit_breaker.go: gobreaker wrapper protecting all three operations
*/
package places

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vicinus/internal/config"
	"github.com/tomtom215/vicinus/internal/logging"
	"github.com/tomtom215/vicinus/internal/metrics"
	"github.com/tomtom215/vicinus/internal/models"
)

// Field masks restrict upstream responses to the fields the pipeline reads.
const (
	searchTextFieldMask   = "places.id,places.location,places.displayName"
	searchNearbyFieldMask = "places.id,places.location,places.displayName,places.rating,places.userRatingCount,nextPageToken"
	reviewsFieldMask      = "reviews.text"
)

// maxErrorBodySize limits how much of an upstream error body is read for
// logging. Prevents unbounded allocation on large error responses.
const maxErrorBodySize = 64 * 1024 // 64KB

// Interface defines the places gateway operations.
//
// Implemented by Client for production use and by mocks in tests. All methods
// accept a context for cancellation and are safe for concurrent use.
//
// Degradation contract:
//   - SearchText: (nil, nil) when the ranked result list is empty ("not found")
//   - SearchNearby: partial accumulation is returned when pagination fails
//     after the first page
//   - GetReviews: non-2xx responses degrade to an empty review list
type Interface interface {
	SearchText(ctx context.Context, query string) (*models.Place, error)
	SearchNearby(ctx context.Context, center models.Location, radiusMeters float64) ([]models.Venue, error)
	GetReviews(ctx context.Context, placeID string) ([]models.Review, error)
}

// Client handles communication with the places HTTP API.
//
// Thread Safety: safe for concurrent use; each call creates its own request.
type Client struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	pageDelay time.Duration
	maxVenues int

	// sleep is the cancellable wait used between paginated requests.
	// Tests replace it to record delay placement.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a places gateway from configuration.
func NewClient(cfg *config.PlacesConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		client:    &http.Client{Timeout: cfg.Timeout},
		pageDelay: cfg.PageDelay,
		maxVenues: cfg.MaxVenues,
		sleep:     ctxSleep,
	}
}

// ctxSleep waits for d or until the context is canceled.
func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readBodyForError reads an upstream response body for error logging (max 64KB).
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}

// Wire schemas for the places upstream. Pointer fields mark pieces the
// upstream may omit entirely; value fields decode absent as zero.

type displayName struct {
	Text string `json:"text"`
}

type placeRecord struct {
	ID              string           `json:"id"`
	Location        *models.Location `json:"location"`
	DisplayName     *displayName     `json:"displayName"`
	Rating          float64          `json:"rating"`
	UserRatingCount int              `json:"userRatingCount"`
}

type searchResponse struct {
	Places        []placeRecord `json:"places"`
	NextPageToken string        `json:"nextPageToken"`
}

type reviewText struct {
	Text string `json:"text"`
}

type reviewRecord struct {
	Text *reviewText `json:"text"`
}

type reviewsResponse struct {
	Reviews []reviewRecord `json:"reviews"`
}

type searchTextRequest struct {
	TextQuery string `json:"textQuery"`
}

type circle struct {
	Center models.Location `json:"center"`
	Radius float64         `json:"radius"`
}

type locationRestriction struct {
	Circle circle `json:"circle"`
}

type searchNearbyRequest struct {
	LocationRestriction locationRestriction `json:"locationRestriction"`
	PageToken           string              `json:"pageToken,omitempty"`
}

// doJSON performs one API request and decodes the JSON response into out.
// A non-2xx status returns an error carrying the status code; the body is
// logged (truncated) for diagnostics.
func (c *Client) doJSON(ctx context.Context, method, url, fieldMask string, body, out interface{}) error {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody := readBodyForError(resp.Body)
		logging.Ctx(ctx).Error().
			Int("status", resp.StatusCode).
			Str("url", url).
			Str("body", string(errBody)).
			Msg("Places API returned non-success status")
		return fmt.Errorf("places request failed with status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode places response: %w", err)
	}
	return nil
}

// SearchText resolves a free-text query to a single place: the first entry
// of the upstream's ranked result list. An empty result list is "not found",
// reported as (nil, nil) rather than an error.
func (c *Client) SearchText(ctx context.Context, query string) (*models.Place, error) {
	start := time.Now()
	var out searchResponse
	err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/places:searchText", searchTextFieldMask,
		&searchTextRequest{TextQuery: query}, &out)
	metrics.RecordUpstreamRequest("places", "search_text", statusLabel(err), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("text search for %q: %w", query, err)
	}

	if len(out.Places) == 0 {
		return nil, nil
	}

	first := out.Places[0]
	place := &models.Place{ID: first.ID}
	if first.Location != nil {
		place.Location = *first.Location
	}
	if first.DisplayName != nil {
		place.DisplayName = first.DisplayName.Text
	}
	return place, nil
}

// SearchNearby fetches all venues within radiusMeters of center, following
// nextPageToken pagination until the upstream stops returning tokens or the
// venue cap is reached.
//
// The mandated warm-up delay runs before every request that carries a page
// token and never before the first request. A failure after the first page
// degrades to the venues accumulated so far; a failure on the first page is
// returned to the caller.
func (c *Client) SearchNearby(ctx context.Context, center models.Location, radiusMeters float64) ([]models.Venue, error) {
	var all []models.Venue
	pageToken := ""

	for {
		req := &searchNearbyRequest{
			LocationRestriction: locationRestriction{
				Circle: circle{Center: center, Radius: radiusMeters},
			},
		}
		if pageToken != "" {
			req.PageToken = pageToken
			// Upstream requires the token to warm up before reuse.
			if err := c.sleep(ctx, c.pageDelay); err != nil {
				return all, err
			}
		}

		start := time.Now()
		var out searchResponse
		err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/places:searchNearby", searchNearbyFieldMask, req, &out)
		metrics.RecordUpstreamRequest("places", "search_nearby", statusLabel(err), time.Since(start))
		if err != nil {
			if len(all) == 0 {
				return nil, fmt.Errorf("nearby search: %w", err)
			}
			logging.Ctx(ctx).Warn().Err(err).
				Int("venues_so_far", len(all)).
				Msg("Nearby search page failed, continuing with partial results")
			return all, nil
		}

		for _, p := range out.Places {
			all = append(all, venueFromRecord(p))
		}
		logging.Ctx(ctx).Debug().
			Int("page_venues", len(out.Places)).
			Int("total_venues", len(all)).
			Msg("Fetched nearby venues page")

		if out.NextPageToken == "" || len(all) >= c.maxVenues {
			break
		}
		pageToken = out.NextPageToken
	}

	if len(all) > c.maxVenues {
		all = all[:c.maxVenues]
	}
	return all, nil
}

// GetReviews fetches the review texts for one place. Non-success responses
// and transport failures degrade to an empty list: missing reviews reduce
// a venue's sentiment to the neutral default, they never fail a request.
func (c *Client) GetReviews(ctx context.Context, placeID string) ([]models.Review, error) {
	start := time.Now()
	var out reviewsResponse
	err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/places/"+placeID, reviewsFieldMask, nil, &out)
	metrics.RecordUpstreamRequest("places", "get_reviews", statusLabel(err), time.Since(start))
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("place_id", placeID).Msg("Review fetch failed, treating as no reviews")
		return nil, nil
	}

	reviews := make([]models.Review, 0, len(out.Reviews))
	for _, r := range out.Reviews {
		if r.Text == nil || r.Text.Text == "" {
			continue
		}
		reviews = append(reviews, models.Review{Text: r.Text.Text})
	}
	return reviews, nil
}

// venueFromRecord converts an upstream place record to the internal venue
// type, treating absent optional fields as zero values.
func venueFromRecord(p placeRecord) models.Venue {
	v := models.Venue{
		ID:              p.ID,
		Rating:          p.Rating,
		UserRatingCount: p.UserRatingCount,
	}
	if p.Location != nil {
		v.Location = *p.Location
	}
	if p.DisplayName != nil {
		v.DisplayName = p.DisplayName.Text
	}
	return v
}

// statusLabel maps a call result to a metrics status label.
func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
