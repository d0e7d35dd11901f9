// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vicinus/internal/config"
	"github.com/tomtom215/vicinus/internal/models"
)

// fakeAnalyzer returns a canned result or error.
type fakeAnalyzer struct {
	result *models.AnalyzeResult
	err    error

	lastInput string
}

func (f *fakeAnalyzer) Run(_ context.Context, userInput string) (*models.AnalyzeResult, error) {
	f.lastInput = userInput
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestAnalyzeHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		analyzer   *fakeAnalyzer
		wantStatus int
		wantCode   string
	}{
		{
			name: "valid request succeeds",
			body: `{"user_input": "Soho"}`,
			analyzer: &fakeAnalyzer{result: &models.AnalyzeResult{
				UserInput:   "Soho",
				DisplayName: "SoHo",
				Summaries:   "lively",
				Places:      []models.VenueSentiment{},
			}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed JSON rejected",
			body:       `{"user_input": `,
			analyzer:   &fakeAnalyzer{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "missing user_input rejected",
			body:       `{}`,
			analyzer:   &fakeAnalyzer{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "oversized user_input rejected",
			body:       `{"user_input": "` + strings.Repeat("x", 600) + `"}`,
			analyzer:   &fakeAnalyzer{},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "pipeline failure maps to bad gateway",
			body:       `{"user_input": "Soho"}`,
			analyzer:   &fakeAnalyzer{err: errors.New("generation failed")},
			wantStatus: http.StatusBadGateway,
			wantCode:   "PIPELINE_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := NewHandler(tt.analyzer, time.Minute)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.Analyze(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			resp := decodeResponse(t, rec)
			if tt.wantCode != "" {
				if resp.Status != "error" || resp.Error == nil {
					t.Fatalf("expected error envelope, got %+v", resp)
				}
				if resp.Error.Code != tt.wantCode {
					t.Errorf("error code = %q, want %q", resp.Error.Code, tt.wantCode)
				}
				return
			}
			if resp.Status != "success" {
				t.Errorf("status = %q, want success", resp.Status)
			}
		})
	}
}

func TestAnalyzeHandlerPassesUserInput(t *testing.T) {
	t.Parallel()

	analyzer := &fakeAnalyzer{result: &models.AnalyzeResult{Places: []models.VenueSentiment{}}}
	handler := NewHandler(analyzer, time.Minute)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"user_input": "Soho vs Tribeca"}`))
	rec := httptest.NewRecorder()
	handler.Analyze(rec, req)

	if analyzer.lastInput != "Soho vs Tribeca" {
		t.Errorf("pipeline received %q, want the raw user input", analyzer.lastInput)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeAnalyzer{}, time.Minute)
	router := NewRouter(handler, &config.APIConfig{})
	srv := router.Setup()

	paths := []string{"/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestHomeServesFrontend(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeAnalyzer{}, time.Minute)
	router := NewRouter(handler, &config.APIConfig{})
	srv := router.Setup()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Vicinus") {
		t.Error("frontend body missing application name")
	}
}

func TestRouterSetsRequestID(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeAnalyzer{result: &models.AnalyzeResult{Places: []models.VenueSentiment{}}}, time.Minute)
	router := NewRouter(handler, &config.APIConfig{})
	srv := router.Setup()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(`{"user_input": "Soho"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeAnalyzer{}, time.Minute)
	router := NewRouter(handler, &config.APIConfig{})
	srv := router.Setup()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", rec.Code)
	}
}
