// Vicinus - Neighborhood Vibe Analytics and Summarization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vicinus

package vibe

import (
	"context"
	"math"
	"sync"

	"github.com/tomtom215/vicinus/internal/logging"
	"github.com/tomtom215/vicinus/internal/models"
)

// Popularity computes the log-dampened popularity heuristic for one venue.
// Venues missing a rating or review count score zero.
func Popularity(rating float64, reviewCount int) float64 {
	if rating == 0 || reviewCount == 0 {
		return 0
	}
	return rating * math.Log(float64(reviewCount)+1)
}

// venueResult is the per-venue output of the aggregation workers,
// index-addressed so results land in venue order regardless of
// completion order.
type venueResult struct {
	popularity float64
	sentiment  float64
}

// aggregate fetches reviews for every venue, scores their sentiment, and
// reduces the venue set to the four averages. Review fetch and scoring
// run on a bounded worker pool; the reductions are sums, so completion
// order does not affect the result.
//
// An empty venue list returns the no-data sentinel with all averages zero.
func (p *Pipeline) aggregate(ctx context.Context, venues []models.Venue) (models.AggregateStats, []models.VenueSentiment) {
	if len(venues) == 0 {
		return models.AggregateStats{NoData: true}, nil
	}

	results := make([]venueResult, len(venues))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				v := venues[i]
				reviews, err := p.places.GetReviews(ctx, v.ID)
				if err != nil {
					logging.Ctx(ctx).Warn().Err(err).Str("venue", v.DisplayName).Msg("Review fetch failed, scoring without reviews")
					reviews = nil
				}
				results[i] = venueResult{
					popularity: Popularity(v.Rating, v.UserRatingCount),
					sentiment:  p.sentiment.ScoreAll(ctx, reviews),
				}
			}
		}()
	}
	for i := range venues {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var sumRating, sumCount, sumPopularity, sumSentiment float64
	sampleNames := make([]string, 0, p.sampleNameCap)
	withSentiment := make([]models.VenueSentiment, 0, len(venues))

	for i, v := range venues {
		sumRating += v.Rating
		sumCount += float64(v.UserRatingCount)
		sumPopularity += results[i].popularity
		sumSentiment += results[i].sentiment

		if len(sampleNames) < p.sampleNameCap {
			sampleNames = append(sampleNames, v.DisplayName)
		}
		withSentiment = append(withSentiment, models.VenueSentiment{
			DisplayName:    v.DisplayName,
			Location:       v.Location,
			SentimentScore: results[i].sentiment,
		})
	}

	n := float64(len(venues))
	return models.AggregateStats{
		AvgRating:      sumRating / n,
		AvgReviewCount: int(sumCount / n),
		AvgPopularity:  sumPopularity / n,
		AvgSentiment:   sumSentiment / n,
		SampleNames:    sampleNames,
		VenueCount:     len(venues),
	}, withSentiment
}
