// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

package places

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vicinus/internal/config"
	"github.com/tomtom215/vicinus/internal/models"
)

func testConfig(baseURL string) *config.PlacesConfig {
	return &config.PlacesConfig{
		APIKey:        "test-key",
		BaseURL:       baseURL,
		RadiusMeters:  1500,
		MaxVenues:     1000,
		PageDelay:     2 * time.Second,
		Timeout:       5 * time.Second,
		SampleNameCap: 25,
	}
}

// TestReadBodyForError tests the utility that reads response bodies for error logging
func TestReadBodyForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    io.Reader
		expected string
	}{
		{
			name:     "normal body content",
			input:    strings.NewReader("error message body"),
			expected: "error message body",
		},
		{
			name:     "empty body",
			input:    strings.NewReader(""),
			expected: "",
		},
		{
			name:     "failing reader",
			input:    &failingReader{},
			expected: "(failed to read response body)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := readBodyForError(tt.input)
			if string(result) != tt.expected {
				t.Errorf("readBodyForError() = %q, want %q", string(result), tt.expected)
			}
		})
	}
}

// failingReader is a reader that always fails
type failingReader struct{}

func (f *failingReader) Read(_ []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestReadBodyForErrorTruncation(t *testing.T) {
	t.Parallel()

	result := readBodyForError(strings.NewReader(strings.Repeat("x", maxErrorBodySize+1000)))
	if !strings.HasSuffix(string(result), "... (truncated)") {
		t.Errorf("expected truncation marker on oversized body, got tail %q", string(result[len(result)-30:]))
	}
}

func TestSearchText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		status          int
		response        string
		wantErr         bool
		wantNil         bool
		wantDisplayName string
		wantLat         float64
	}{
		{
			name:   "first result returned",
			status: http.StatusOK,
			response: `{"places": [
				{"location": {"latitude": 40.72, "longitude": -74.0}, "displayName": {"text": "SoHo"}},
				{"location": {"latitude": 41.0, "longitude": -75.0}, "displayName": {"text": "Other"}}
			]}`,
			wantDisplayName: "SoHo",
			wantLat:         40.72,
		},
		{
			name:     "empty result list is not found",
			status:   http.StatusOK,
			response: `{"places": []}`,
			wantNil:  true,
		},
		{
			name:     "missing places field is not found",
			status:   http.StatusOK,
			response: `{}`,
			wantNil:  true,
		},
		{
			name:     "non-2xx is an error",
			status:   http.StatusForbidden,
			response: `{"error": {"message": "key invalid"}}`,
			wantErr:  true,
		},
		{
			name:            "absent optional fields decode to zero values",
			status:          http.StatusOK,
			response:        `{"places": [{"id": "p1"}]}`,
			wantDisplayName: "",
			wantLat:         0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/places:searchText" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.Header.Get("X-Goog-Api-Key"); got != "test-key" {
					t.Errorf("X-Goog-Api-Key = %q, want test-key", got)
				}
				if got := r.Header.Get("X-Goog-FieldMask"); got != searchTextFieldMask {
					t.Errorf("X-Goog-FieldMask = %q, want %q", got, searchTextFieldMask)
				}
				var req searchTextRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if req.TextQuery != "SoHo New York" {
					t.Errorf("textQuery = %q", req.TextQuery)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.response)) //nolint:errcheck
			}))
			defer server.Close()

			client := NewClient(testConfig(server.URL))
			place, err := client.SearchText(context.Background(), "SoHo New York")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if place != nil {
					t.Fatalf("expected nil place, got %+v", place)
				}
				return
			}
			if place == nil {
				t.Fatal("expected place, got nil")
			}
			if place.DisplayName != tt.wantDisplayName {
				t.Errorf("DisplayName = %q, want %q", place.DisplayName, tt.wantDisplayName)
			}
			if place.Location.Latitude != tt.wantLat {
				t.Errorf("Latitude = %v, want %v", place.Location.Latitude, tt.wantLat)
			}
		})
	}
}

// TestSearchNearbyPagination verifies the page-token protocol: three pages
// produce exactly three requests, the warm-up delay runs exactly twice, and
// never before the first request.
func TestSearchNearbyPagination(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var requests int
	var tokens []string

	pages := []string{
		`{"places": [{"id": "a", "displayName": {"text": "A"}, "rating": 4.0, "userRatingCount": 10}], "nextPageToken": "tok1"}`,
		`{"places": [{"id": "b", "displayName": {"text": "B"}, "rating": 4.5, "userRatingCount": 20}], "nextPageToken": "tok2"}`,
		`{"places": [{"id": "c", "displayName": {"text": "C"}, "rating": 5.0, "userRatingCount": 30}]}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchNearbyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		mu.Lock()
		page := requests
		requests++
		tokens = append(tokens, req.PageToken)
		mu.Unlock()

		if page >= len(pages) {
			t.Errorf("unexpected extra request %d", page+1)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(pages[page])) //nolint:errcheck
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))

	var sleeps []int // request count at the moment of each sleep
	client.sleep = func(_ context.Context, d time.Duration) error {
		if d != 2*time.Second {
			t.Errorf("sleep duration = %v, want 2s", d)
		}
		mu.Lock()
		sleeps = append(sleeps, requests)
		mu.Unlock()
		return nil
	}

	venues, err := client.SearchNearby(context.Background(), models.Location{Latitude: 40.72, Longitude: -74.0}, 1500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(venues) != 3 {
		t.Errorf("venues = %d, want 3", len(venues))
	}
	if requests != 3 {
		t.Errorf("requests = %d, want 3", requests)
	}
	if len(sleeps) != 2 {
		t.Fatalf("sleeps = %d, want 2", len(sleeps))
	}
	// No delay before the first request; each delay precedes a token-carrying request.
	if sleeps[0] != 1 || sleeps[1] != 2 {
		t.Errorf("sleep placement = %v, want [1 2]", sleeps)
	}
	wantTokens := []string{"", "tok1", "tok2"}
	for i, want := range wantTokens {
		if tokens[i] != want {
			t.Errorf("request %d pageToken = %q, want %q", i+1, tokens[i], want)
		}
	}
}

func TestSearchNearbyFirstPageFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	client.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := client.SearchNearby(context.Background(), models.Location{}, 1500)
	if err == nil {
		t.Fatal("expected error on first-page failure")
	}
}

func TestSearchNearbyLaterPageFailureKeepsPartial(t *testing.T) {
	t.Parallel()

	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		if requests == 1 {
			w.Write([]byte(`{"places": [{"id": "a", "displayName": {"text": "A"}}], "nextPageToken": "tok1"}`)) //nolint:errcheck
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	client.sleep = func(context.Context, time.Duration) error { return nil }

	venues, err := client.SearchNearby(context.Background(), models.Location{}, 1500)
	if err != nil {
		t.Fatalf("later-page failure must degrade, got error: %v", err)
	}
	if len(venues) != 1 {
		t.Errorf("venues = %d, want 1 partial result", len(venues))
	}
}

func TestSearchNearbyVenueCap(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Every page claims more data; the cap must stop the loop.
		w.Write([]byte(`{"places": [{"id": "a"}, {"id": "b"}, {"id": "c"}], "nextPageToken": "again"}`)) //nolint:errcheck
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxVenues = 5
	client := NewClient(cfg)
	client.sleep = func(context.Context, time.Duration) error { return nil }

	venues, err := client.SearchNearby(context.Background(), models.Location{}, 1500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(venues) != 5 {
		t.Errorf("venues = %d, want cap of 5", len(venues))
	}
}

func TestGetReviews(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		response string
		want     int
	}{
		{
			name:     "reviews returned",
			status:   http.StatusOK,
			response: `{"reviews": [{"text": {"text": "great"}}, {"text": {"text": "bad"}}]}`,
			want:     2,
		},
		{
			name:     "empty review texts skipped",
			status:   http.StatusOK,
			response: `{"reviews": [{"text": {"text": ""}}, {}, {"text": {"text": "ok"}}]}`,
			want:     1,
		},
		{
			name:     "non-2xx degrades to empty",
			status:   http.StatusNotFound,
			response: `{"error": "no such place"}`,
			want:     0,
		},
		{
			name:     "no reviews field",
			status:   http.StatusOK,
			response: `{}`,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/places/p123" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.Header.Get("X-Goog-FieldMask"); got != reviewsFieldMask {
					t.Errorf("X-Goog-FieldMask = %q, want %q", got, reviewsFieldMask)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.response)) //nolint:errcheck
			}))
			defer server.Close()

			client := NewClient(testConfig(server.URL))
			reviews, err := client.GetReviews(context.Background(), "p123")
			if err != nil {
				t.Fatalf("GetReviews must never error, got: %v", err)
			}
			if len(reviews) != tt.want {
				t.Errorf("reviews = %d, want %d", len(reviews), tt.want)
			}
		})
	}
}

func TestCtxSleepCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ctxSleep(ctx, time.Hour); err == nil {
		t.Fatal("expected context error from canceled sleep")
	}
}
