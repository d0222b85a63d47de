package comparables

// Comparable is a marketplace listing that survived signal extraction and
// can be used as market evidence.
type Comparable struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Price           float64  `json:"price"`
	AreaHectares    float64  `json:"area_hectares"`
	PricePerHectare float64  `json:"price_per_hectare"`
	Permalink       string   `json:"permalink"`
	Thumbnail       string   `json:"thumbnail"`
	Location        string   `json:"location"`
	Lat             *float64 `json:"lat,omitempty"`
	Lng             *float64 `json:"lng,omitempty"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	SimilarityScore float64  `json:"similarity_score"`
}

// EstimationResult is the aggregated market estimate for a query. Never
// mutated after construction, except for the FromCache flag which callers
// set on cache hits.
type EstimationResult struct {
	Comparables              []Comparable `json:"comparables"`
	TotalFound               int          `json:"total_found"`
	EstimatedPricePerHectare float64      `json:"estimated_price_per_hectare"`
	EstimatedPriceTotal      float64      `json:"estimated_price_total"`
	MinPrice                 float64      `json:"min_price"`
	MaxPrice                 float64      `json:"max_price"`
	MedianPrice              float64      `json:"median_price"`
	ConfidenceScore          float64      `json:"confidence_score"`
	FromCache                bool         `json:"from_cache"`
}
