// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

// Package vibe implements the analysis pipeline: interpret the user's
// request, locate the neighborhood, fetch and score nearby venues,
// aggregate the statistics, and generate the narrative summary.
package vibe

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/tomtom215/vicinus/internal/logging"
)

// comparisonSeparators splits comparison phrasings such as
// "Soho vs Tribeca", "Soho versus Tribeca", "Soho and Tribeca",
// and "Soho, Tribeca, Chelsea".
var comparisonSeparators = regexp.MustCompile(`(?i)\s+vs\.?\s+|\s+versus\s+|\s+and\s+|,\s*`)

const rewritePromptTemplate = `
You are a travel assistant. The user asked: "%s".
Turn this into a Google Maps search query for the Places API focusing on a neighborhood or district.
Only return the query string.
`

// SplitComparison splits user input on comparison separators and returns
// the trimmed non-empty segments, in input order. A result with two or
// more segments means the input is a comparison query.
func SplitComparison(userInput string) []string {
	parts := comparisonSeparators.Split(userInput, -1)
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

// interpret decides between the comparison and single-neighborhood paths.
// Comparison inputs skip the generative rewrite: each segment is used as
// a search query directly. A single-neighborhood input is rewritten into
// a places search query via one Gemini call.
func (p *Pipeline) interpret(ctx context.Context, state State) (State, error) {
	names := SplitComparison(state.UserInput)
	if len(names) >= 2 {
		logging.Ctx(ctx).Info().Strs("compare_inputs", names).Msg("Detected comparison query")
		state.CompareInputs = names
		return state, nil
	}

	prompt := fmt.Sprintf(rewritePromptTemplate, state.UserInput)
	response, err := p.llm.GenerateText(ctx, prompt)
	if err != nil {
		return state, fmt.Errorf("interpret query: %w", err)
	}

	query := strings.Trim(strings.TrimSpace(response), `"`)
	logging.Ctx(ctx).Info().Str("search_query", query).Msg("Interpreted query")
	state.SearchQuery = query
	return state, nil
}
