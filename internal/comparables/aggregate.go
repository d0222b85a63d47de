package comparables

import (
	"math"
	"sort"
)

// maxComparables caps how many top-scored comparables feed the statistics.
const maxComparables = 20

// Aggregate sorts comparables by descending similarity (stable, so ties
// keep discovery order), keeps the top 20 and derives summary statistics.
// Zero surviving comparables yields a zero-valued result, never an error.
func Aggregate(q SearchQuery, comps []Comparable) EstimationResult {
	if len(comps) == 0 {
		return EstimationResult{
			Comparables: []Comparable{},
		}
	}

	sorted := make([]Comparable, len(comps))
	copy(sorted, comps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SimilarityScore > sorted[j].SimilarityScore
	})

	top := sorted
	if len(top) > maxComparables {
		top = top[:maxComparables]
	}

	var (
		sumPerHectare float64
		sumScore      float64
		minPrice      = top[0].Price
		maxPrice      = top[0].Price
	)
	perHectare := make([]float64, len(top))

	for i, c := range top {
		perHectare[i] = c.PricePerHectare
		sumPerHectare += c.PricePerHectare
		sumScore += c.SimilarityScore
		if c.Price < minPrice {
			minPrice = c.Price
		}
		if c.Price > maxPrice {
			maxPrice = c.Price
		}
	}

	count := float64(len(top))
	meanPerHectare := sumPerHectare / count

	// Deliberate asymmetry: the median estimate projects the market's
	// median per-hectare rate onto this property's actual size, while
	// min/max report absolute listing prices.
	medianPrice := median(perHectare) * q.Hectareas

	avgScore := sumScore / count
	confidence := 0.7*avgScore + 0.3*math.Min(count/10, 1)

	return EstimationResult{
		Comparables:              top,
		TotalFound:               len(comps),
		EstimatedPricePerHectare: math.Round(meanPerHectare),
		EstimatedPriceTotal:      math.Round(meanPerHectare * q.Hectareas),
		MinPrice:                 math.Round(minPrice),
		MaxPrice:                 math.Round(maxPrice),
		MedianPrice:              math.Round(medianPrice),
		ConfidenceScore:          math.Round(confidence*100) / 100,
	}
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
