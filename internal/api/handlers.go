// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

package api

import (
	"context"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/vicinus/internal/logging"
	"github.com/tomtom215/vicinus/internal/models"
	"github.com/tomtom215/vicinus/internal/validation"
)

// maxRequestBodySize caps analyze request bodies. Queries are short
// strings; anything past 64KB is abuse.
const maxRequestBodySize = 64 * 1024

// Analyzer runs the vibe pipeline for one user request.
type Analyzer interface {
	Run(ctx context.Context, userInput string) (*models.AnalyzeResult, error)
}

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	pipeline        Analyzer
	pipelineTimeout time.Duration
}

// NewHandler creates a Handler around the analysis pipeline.
func NewHandler(pipeline Analyzer, pipelineTimeout time.Duration) *Handler {
	return &Handler{pipeline: pipeline, pipelineTimeout: pipelineTimeout}
}

// AnalyzeRequest is the POST /api/v1/analyze request body.
type AnalyzeRequest struct {
	UserInput string `json:"user_input" validate:"required,min=1,max=500"`
}

// Analyze handles POST /api/v1/analyze: run the full pipeline for the
// given user input and return the state record.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req AnalyzeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, &models.APIError{
			Code:    "INVALID_REQUEST",
			Message: "request body must be JSON with a user_input field",
		})
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		ae := verr.ToAPIError()
		respondError(w, r, http.StatusBadRequest, &models.APIError{
			Code:    ae.Code,
			Message: ae.Message,
			Details: ae.Details,
		})
		return
	}

	ctx := r.Context()
	if h.pipelineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.pipelineTimeout)
		defer cancel()
	}

	logging.Ctx(ctx).Info().Str("user_input", req.UserInput).Msg("Analyze request received")

	result, err := h.pipeline.Run(ctx, req.UserInput)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Pipeline run failed")
		respondError(w, r, http.StatusBadGateway, &models.APIError{
			Code:    "PIPELINE_ERROR",
			Message: "analysis could not be completed",
		})
		return
	}

	respondJSON(w, r, http.StatusOK, result, started)
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "healthy"}, time.Now())
}

// HealthLive handles GET /api/v1/health/live. Liveness means the process
// is up and serving; no upstream checks.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

// HealthReady handles GET /api/v1/health/ready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"}, time.Now())
}
