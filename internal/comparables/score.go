package comparables

import (
	"math"
	"strings"
)

// Sub-score weights. They sum to exactly 1.0, so the final cap is a
// safety bound rather than an expected-path clamp.
const (
	weightArea     = 0.25
	weightLocation = 0.40
	weightType     = 0.15
	weightQuality  = 0.10
	weightFresh    = 0.10

	// The marketplace exposes no recency data, so freshness is a constant.
	freshnessScore = 0.8
)

// Score computes a weighted similarity in [0,1] between a comparable and
// the queried property. Pure: identical inputs always yield identical
// floats.
func Score(c Comparable, q SearchQuery) float64 {
	area := clamp01(1 - math.Abs(c.AreaHectares-q.Hectareas)/q.Hectareas)

	location := 0.3
	if strings.Contains(strings.ToLower(c.Location), strings.ToLower(q.Localidad)) {
		location = 1.0
	}

	fieldType := 0.5
	if strings.Contains(strings.ToLower(c.Title), strings.ToLower(q.TipoCampo)) {
		fieldType = 1.0
	}

	quality := 0.5
	if c.Thumbnail != "" {
		quality += 0.2
	}
	if c.Lat != nil && c.Lng != nil {
		quality += 0.2
	}
	if c.Price > 0 && c.AreaHectares > 0 {
		quality += 0.1
	}
	quality = clamp01(quality)

	score := weightArea*area +
		weightLocation*location +
		weightType*fieldType +
		weightQuality*quality +
		weightFresh*freshnessScore

	if score > 1 {
		score = 1
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
