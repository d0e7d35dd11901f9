// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

package vibe

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomtom215/vicinus/internal/models"
)

// noPlacesSummary is returned when a neighborhood resolves but the nearby
// search yields no venues to describe.
const noPlacesSummary = "No places found nearby to summarize."

const summaryPromptTemplate = `
You are a cultural analyst. Describe the overall *sense of place* for the neighborhood "%s".
Use the average ratings (%.1f), review counts (%d), popularity score (%.2f), and sentiment (%.2f) to inform your description.
Mention the general atmosphere and feeling across places such as: %s.

Write a natural, engaging, but concise and short paragraph that captures the vibe and character of the neighborhood. Also include a list three one-word keywords at the bottom that encapsulate the areas unique sense of place.
`

const comparisonPromptTemplate = `
You are a cultural analyst. Compare the sense of place of these neighborhoods based on their summaries and statistics:

%s
Write a short, engaging comparison that highlights what sets each neighborhood apart and which kind of visitor each one suits best.
`

// buildSummaryPrompt renders the narrative prompt for one neighborhood.
// The statistics are embedded with fixed formatting so the model sees
// stable, comparable figures.
func buildSummaryPrompt(displayName string, stats models.AggregateStats) string {
	return fmt.Sprintf(summaryPromptTemplate,
		displayName,
		stats.AvgRating,
		stats.AvgReviewCount,
		stats.AvgPopularity,
		stats.AvgSentiment,
		strings.Join(stats.SampleNames, ", "),
	)
}

// buildComparisonPrompt renders the comparison prompt over per-side reports.
func buildComparisonPrompt(reports []models.NeighborhoodReport) string {
	var sb strings.Builder
	for _, r := range reports {
		fmt.Fprintf(&sb, "Neighborhood %q: average rating %.1f, review counts %d, popularity %.2f, sentiment %.2f.\nSummary: %s\n\n",
			r.DisplayName, r.Stats.AvgRating, r.Stats.AvgReviewCount, r.Stats.AvgPopularity, r.Stats.AvgSentiment, r.Summary)
	}
	return fmt.Sprintf(comparisonPromptTemplate, sb.String())
}

// narrate generates the neighborhood summary from aggregated statistics.
func (p *Pipeline) narrate(ctx context.Context, displayName string, stats models.AggregateStats) (string, error) {
	response, err := p.llm.GenerateText(ctx, buildSummaryPrompt(displayName, stats))
	if err != nil {
		return "", fmt.Errorf("narrate neighborhood: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// narrateComparison generates the cross-neighborhood comparison text.
func (p *Pipeline) narrateComparison(ctx context.Context, reports []models.NeighborhoodReport) (string, error) {
	response, err := p.llm.GenerateText(ctx, buildComparisonPrompt(reports))
	if err != nil {
		return "", fmt.Errorf("narrate comparison: %w", err)
	}
	return strings.TrimSpace(response), nil
}
