package query

import (
	"sort"

	"github.com/normanking/concierge/internal/places"
)

// Relevance scoring weights. The composite score is 0..1: rating carries
// 40%, verification, review volume and proximity 20% each.
const (
	weightRating   = 0.4
	weightVerified = 0.2
	weightReviews  = 0.2
	weightDistance = 0.2

	reviewSaturation  = 50.0 // review counts at or above this score full marks
	distanceHorizonKm = 15.0 // beyond this distance the proximity term is zero
)

// RelevanceScore computes the composite 0..1 ranking value for a place.
func RelevanceScore(p places.Place) float64 {
	rating := p.Rating / 5.0

	verified := 0.0
	if p.Verified {
		verified = 1.0
	}

	reviewTerm := float64(p.ReviewCount) / reviewSaturation
	if reviewTerm > 1 {
		reviewTerm = 1
	}

	proximity := 1 - p.DistanceKm/distanceHorizonKm
	if proximity < 0 {
		proximity = 0
	}

	return weightRating*rating +
		weightVerified*verified +
		weightReviews*reviewTerm +
		weightDistance*proximity
}

// Rank orders items by descending relevance score with a stable tie-break on
// original order. The input slice is not modified.
func Rank(items []places.Place) []places.Place {
	ranked := append([]places.Place(nil), items...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return RelevanceScore(ranked[i]) > RelevanceScore(ranked[j])
	})
	return ranked
}
