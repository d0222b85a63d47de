package services

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tasagro-dev/tasagro/internal/comparables"
	"github.com/tasagro-dev/tasagro/internal/geo"
	"github.com/tasagro-dev/tasagro/internal/listings"
	"github.com/tasagro-dev/tasagro/internal/logger"
)

var (
	cacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tasagro_estimation_cache_hits_total",
			Help: "Total number of estimation cache hits",
		},
	)

	cacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tasagro_estimation_cache_misses_total",
			Help: "Total number of estimation cache misses",
		},
	)

	estimationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tasagro_estimation_duration_seconds",
			Help:    "Wall-clock time of a full comparables estimation",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
		},
	)
)

// ListingsSearcher fetches one page of candidate listings.
type ListingsSearcher interface {
	Search(ctx context.Context, query string, offset int) (*listings.SearchResult, error)
	PageSize() int
}

// Locator resolves a locality to coordinates, best effort.
type Locator interface {
	Locate(ctx context.Context, localidad, provincia string) (lat, lng float64, found bool)
}

// EstimationService runs the comparables pipeline: cache lookup, external
// search, signal extraction, scoring, aggregation and coordinate
// enrichment.
type EstimationService struct {
	cache    *CacheService
	geocache *GeocodeCacheService
	searcher ListingsSearcher
	geocoder Locator // nil disables enrichment
}

// NewEstimationService wires the pipeline dependencies.
func NewEstimationService(cache *CacheService, geocache *GeocodeCacheService, searcher ListingsSearcher, geocoder Locator) *EstimationService {
	return &EstimationService{
		cache:    cache,
		geocache: geocache,
		searcher: searcher,
		geocoder: geocoder,
	}
}

// Estimate values the queried property from comparable listings.
// Cache-first: an unexpired entry is always honored. Fresh results are
// cached with from_cache=false; the hit response reports true.
func (s *EstimationService) Estimate(ctx context.Context, q comparables.SearchQuery) (*comparables.EstimationResult, error) {
	log := logger.GetLogger("estimation")
	start := time.Now()
	defer func() {
		estimationDuration.Observe(time.Since(start).Seconds())
	}()

	key := q.CacheKey()

	if cached, ok := s.cache.Get(key); ok {
		cacheHitsTotal.Inc()
		log.Infow("estimation served from cache", "key", key)
		cached.FromCache = true
		return cached, nil
	}
	cacheMissesTotal.Inc()

	page, err := s.searcher.Search(ctx, q.SearchText(), q.Page*s.searcher.PageSize())
	if err != nil {
		return nil, err
	}

	var comps []comparables.Comparable
	for _, l := range page.Results {
		c, ok := comparables.BuildComparable(l)
		if !ok {
			continue
		}
		c.SimilarityScore = comparables.Score(c, q)
		comps = append(comps, c)
	}

	log.Infow("candidates processed",
		"key", key,
		"fetched", len(page.Results),
		"survived", len(comps),
	)

	result := comparables.Aggregate(q, comps)

	s.enrichCoordinates(ctx, q, &result)

	s.cache.Put(key, &result)
	result.FromCache = false
	return &result, nil
}

// enrichCoordinates fills missing coordinates on the top comparables by
// geocoding their locality text. Runs after scoring and sorting, so it can
// never perturb ordering. Failures leave coordinates unset.
func (s *EstimationService) enrichCoordinates(ctx context.Context, q comparables.SearchQuery, result *comparables.EstimationResult) {
	if s.geocoder == nil {
		return
	}

	queryLat, queryLng, queryLocated := s.locate(ctx, q.Localidad, q.Provincia)

	var wg sync.WaitGroup
	for i := range result.Comparables {
		c := &result.Comparables[i]
		if c.Lat != nil && c.Lng != nil {
			continue
		}
		if c.Location == "" {
			continue
		}

		wg.Add(1)
		go func(c *comparables.Comparable) {
			defer wg.Done()
			lat, lng, found := s.locate(ctx, c.Location, q.Provincia)
			if !found {
				return
			}
			c.Lat = &lat
			c.Lng = &lng
		}(c)
	}
	wg.Wait()

	if !queryLocated {
		return
	}
	for i := range result.Comparables {
		c := &result.Comparables[i]
		if c.Lat == nil || c.Lng == nil {
			continue
		}
		d := geo.Haversine(queryLat, queryLng, *c.Lat, *c.Lng)
		c.DistanceKm = &d
	}
}

// locate checks the geocode cache before calling the geocoder.
func (s *EstimationService) locate(ctx context.Context, localidad, provincia string) (float64, float64, bool) {
	address := geo.Address(localidad, provincia)

	if s.geocache != nil {
		if lat, lng, ok := s.geocache.Get(address); ok {
			return lat, lng, true
		}
	}

	lat, lng, found := s.geocoder.Locate(ctx, localidad, provincia)
	if !found {
		return 0, 0, false
	}

	if s.geocache != nil {
		s.geocache.Put(address, lat, lng)
	}
	return lat, lng, true
}
