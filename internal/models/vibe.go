// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

// Package models defines the typed schemas shared across the Vicinus pipeline:
// venue records returned by the places upstream, aggregated neighborhood
// statistics, and the result structures serialized to API clients.
package models

// Location is a latitude/longitude pair in floating point degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Review is a single venue review. Only the text is used; the places
// field mask restricts the upstream response to reviews.text.
type Review struct {
	Text string `json:"text"`
}

// Venue is a single place record from the nearby search.
// Rating is 0 when the upstream omits it; UserRatingCount is always >= 0.
type Venue struct {
	ID              string   `json:"id"`
	DisplayName     string   `json:"display_name"`
	Location        Location `json:"location"`
	Rating          float64  `json:"rating"`
	UserRatingCount int      `json:"user_rating_count"`
}

// Place is the resolved neighborhood from a text search: the canonical
// display name and the coordinates subsequent nearby searches center on.
type Place struct {
	ID          string   `json:"id,omitempty"`
	DisplayName string   `json:"display_name"`
	Location    Location `json:"location"`
}

// VenueSentiment pairs a venue with its averaged review sentiment for the
// frontend heatmap.
type VenueSentiment struct {
	DisplayName    string   `json:"displayName"`
	Location       Location `json:"location"`
	SentimentScore float64  `json:"sentiment_score"`
}

// AggregateStats holds the four arithmetic means over all fetched venues of
// one neighborhood plus a bounded sample of venue names for prompt context.
//
// NoData is true when the venue list was empty; all averages are then zero
// and must not be interpreted as measurements.
type AggregateStats struct {
	AvgRating      float64  `json:"avg_rating"`
	AvgReviewCount int      `json:"avg_review_count"`
	AvgPopularity  float64  `json:"avg_popularity"`
	AvgSentiment   float64  `json:"avg_sentiment_score"`
	SampleNames    []string `json:"-"`
	VenueCount     int      `json:"venue_count"`
	NoData         bool     `json:"no_data,omitempty"`
}

// NeighborhoodReport is the full per-neighborhood result: resolved name,
// aggregate statistics, the generated narrative, and the per-venue
// sentiment list for visualization.
type NeighborhoodReport struct {
	DisplayName string           `json:"display_name"`
	Stats       AggregateStats   `json:"stats"`
	Summary     string           `json:"summaries"`
	Venues      []VenueSentiment `json:"places"`
}

// AnalyzeResult is the full state record returned to API and CLI callers.
// Field names mirror the pipeline state keys so the frontend can consume
// the response without translation.
type AnalyzeResult struct {
	UserInput      string           `json:"user_input"`
	SearchQuery    string           `json:"search_query,omitempty"`
	Location       *Location        `json:"location,omitempty"`
	DisplayName    string           `json:"display_name,omitempty"`
	Places         []VenueSentiment `json:"places"`
	PlaceCount     int              `json:"place_count"`
	AvgRating      float64          `json:"avg_rating"`
	AvgReviewCount int              `json:"avg_review_count"`
	AvgPopularity  float64          `json:"avg_popularity"`
	AvgSentiment   float64          `json:"avg_sentiment_score"`
	Summaries      string           `json:"summaries,omitempty"`

	// Comparison fields, populated only for comparison queries.
	CompareInputs []string             `json:"compare_inputs,omitempty"`
	Reports       []NeighborhoodReport `json:"reports,omitempty"`
	Comparison    string               `json:"comparison,omitempty"`
}
