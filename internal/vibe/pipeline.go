// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

package vibe

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/vicinus/internal/config"
	"github.com/tomtom215/vicinus/internal/llm"
	"github.com/tomtom215/vicinus/internal/logging"
	"github.com/tomtom215/vicinus/internal/metrics"
	"github.com/tomtom215/vicinus/internal/models"
	"github.com/tomtom215/vicinus/internal/places"
	"github.com/tomtom215/vicinus/internal/sentiment"
)

// State carries the pipeline's intermediate results between stages. Each
// stage receives the state by value and returns an updated copy; fields a
// stage does not touch pass through unchanged.
type State struct {
	UserInput   string
	SearchQuery string
	Location    *models.Location
	DisplayName string

	Stats     models.AggregateStats
	Places    []models.VenueSentiment
	Summaries string

	CompareInputs []string
	Reports       []models.NeighborhoodReport
	Comparison    string
}

// Pipeline wires the interpret, locate, summarize, and narrate stages
// over the upstream clients.
type Pipeline struct {
	places    places.Interface
	llm       llm.Generator
	sentiment sentiment.Scorer

	radiusMeters  float64
	workers       int
	sampleNameCap int
}

// New builds a pipeline from its upstream clients and configuration.
func New(placesClient places.Interface, generator llm.Generator, scorer sentiment.Scorer, cfg *config.Config) *Pipeline {
	return &Pipeline{
		places:        placesClient,
		llm:           generator,
		sentiment:     scorer,
		radiusMeters:  cfg.Places.RadiusMeters,
		workers:       cfg.Pipeline.Workers,
		sampleNameCap: cfg.Places.SampleNameCap,
	}
}

// Run executes the full pipeline for one user request and returns the
// state record to serialize to the caller. Upstream data failures degrade
// to the no-data report; only generation failures surface as errors.
func (p *Pipeline) Run(ctx context.Context, userInput string) (*models.AnalyzeResult, error) {
	state := State{UserInput: userInput}

	state, err := p.runStage(ctx, "interpret", state, p.interpret)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("single", "error").Inc()
		return nil, err
	}

	if len(state.CompareInputs) >= 2 {
		state, err = p.runComparison(ctx, state)
		if err != nil {
			metrics.PipelineRunsTotal.WithLabelValues("comparison", "error").Inc()
			return nil, err
		}
		metrics.PipelineRunsTotal.WithLabelValues("comparison", "success").Inc()
		return resultFromState(state), nil
	}

	state, err = p.runStage(ctx, "locate", state, p.locate)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("single", "error").Inc()
		return nil, err
	}

	state, err = p.runStage(ctx, "summarize", state, p.summarize)
	if err != nil {
		metrics.PipelineRunsTotal.WithLabelValues("single", "error").Inc()
		return nil, err
	}

	metrics.PipelineRunsTotal.WithLabelValues("single", "success").Inc()
	return resultFromState(state), nil
}

func (p *Pipeline) runStage(ctx context.Context, name string, state State, fn func(context.Context, State) (State, error)) (State, error) {
	start := time.Now()
	next, err := fn(ctx, state)
	metrics.RecordPipelineStage(name, time.Since(start))
	return next, err
}

// locate resolves the search query to a neighborhood center. A query that
// matches nothing leaves Location nil; summarize then short-circuits to
// the no-data report.
func (p *Pipeline) locate(ctx context.Context, state State) (State, error) {
	place, err := p.places.SearchText(ctx, state.SearchQuery)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("search_query", state.SearchQuery).Msg("Text search failed")
		return state, nil
	}
	if place == nil {
		logging.Ctx(ctx).Info().Str("search_query", state.SearchQuery).Msg("No neighborhood matched query")
		return state, nil
	}

	logging.Ctx(ctx).Info().Str("display_name", place.DisplayName).Msg("Found neighborhood")
	loc := place.Location
	state.Location = &loc
	state.DisplayName = place.DisplayName
	return state, nil
}

// summarize fetches nearby venues, aggregates their statistics, and
// generates the neighborhood narrative.
func (p *Pipeline) summarize(ctx context.Context, state State) (State, error) {
	if state.Location == nil {
		state.Summaries = noPlacesSummary
		state.Places = []models.VenueSentiment{}
		state.Stats = models.AggregateStats{NoData: true}
		return state, nil
	}

	venues, err := p.places.SearchNearby(ctx, *state.Location, p.radiusMeters)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Nearby search failed")
		venues = nil
	}
	metrics.VenuesFetched.Observe(float64(len(venues)))

	stats, withSentiment := p.aggregate(ctx, venues)
	state.Stats = stats
	state.Places = withSentiment
	if state.Places == nil {
		state.Places = []models.VenueSentiment{}
	}
	if stats.NoData {
		state.Summaries = noPlacesSummary
		return state, nil
	}

	summary, err := p.narrate(ctx, state.DisplayName, stats)
	if err != nil {
		return state, err
	}
	state.Summaries = summary
	return state, nil
}

// runComparison executes locate+summarize once per compared neighborhood,
// then generates a cross-neighborhood comparison. Each segment of the
// user input is used as a search query directly.
func (p *Pipeline) runComparison(ctx context.Context, state State) (State, error) {
	reports := make([]models.NeighborhoodReport, 0, len(state.CompareInputs))

	for _, name := range state.CompareInputs {
		side := State{UserInput: name, SearchQuery: name}

		side, err := p.runStage(ctx, "locate", side, p.locate)
		if err != nil {
			return state, fmt.Errorf("compare %q: %w", name, err)
		}
		side, err = p.runStage(ctx, "summarize", side, p.summarize)
		if err != nil {
			return state, fmt.Errorf("compare %q: %w", name, err)
		}

		displayName := side.DisplayName
		if displayName == "" {
			displayName = name
		}
		reports = append(reports, models.NeighborhoodReport{
			DisplayName: displayName,
			Stats:       side.Stats,
			Summary:     side.Summaries,
			Venues:      side.Places,
		})
	}

	state.Reports = reports

	start := time.Now()
	comparison, err := p.narrateComparison(ctx, reports)
	metrics.RecordPipelineStage("compare", time.Since(start))
	if err != nil {
		return state, err
	}
	state.Comparison = comparison
	return state, nil
}

func resultFromState(state State) *models.AnalyzeResult {
	result := &models.AnalyzeResult{
		UserInput:      state.UserInput,
		SearchQuery:    state.SearchQuery,
		Location:       state.Location,
		DisplayName:    state.DisplayName,
		Places:         state.Places,
		PlaceCount:     len(state.Places),
		AvgRating:      state.Stats.AvgRating,
		AvgReviewCount: state.Stats.AvgReviewCount,
		AvgPopularity:  state.Stats.AvgPopularity,
		AvgSentiment:   state.Stats.AvgSentiment,
		Summaries:      state.Summaries,
		CompareInputs:  state.CompareInputs,
		Reports:        state.Reports,
		Comparison:     state.Comparison,
	}
	if result.Places == nil {
		result.Places = []models.VenueSentiment{}
	}
	return result
}
