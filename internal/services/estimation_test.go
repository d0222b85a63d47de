package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tasagro-dev/tasagro/internal/comparables"
	"github.com/tasagro-dev/tasagro/internal/listings"
)

type stubSearcher struct {
	result *listings.SearchResult
	err    error
	calls  int
}

func (s *stubSearcher) Search(ctx context.Context, query string, offset int) (*listings.SearchResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubSearcher) PageSize() int { return 50 }

func riocuartoQuery(t *testing.T) comparables.SearchQuery {
	t.Helper()
	q, err := comparables.NewSearchQuery("Córdoba", "Río Cuarto", 200, "agrícola", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return q
}

func TestEstimateEndToEnd(t *testing.T) {
	db := newTestDB(t)
	cache := NewCacheService(db, time.Hour)
	geocache := NewGeocodeCacheService(db, 24*time.Hour)

	searcher := &stubSearcher{
		result: &listings.SearchResult{
			Results: []listings.Listing{
				{ID: "MLA1", Title: "Campo agrícola 150 hectareas", Price: 900000},
				{ID: "MLA2", Title: "Campo 210 hectareas zona Río Cuarto", Price: 1200000},
				{ID: "MLA3", Title: "Campo en venta sobre ruta", Price: 500000},
			},
		},
	}

	svc := NewEstimationService(cache, geocache, searcher, nil)
	q := riocuartoQuery(t)

	result, err := svc.Estimate(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// MLA3 has no parseable area and must have been dropped
	if result.TotalFound != 2 {
		t.Errorf("expected total_found=2, got %d", result.TotalFound)
	}
	if len(result.Comparables) != 2 {
		t.Fatalf("expected 2 comparables, got %d", len(result.Comparables))
	}
	if result.FromCache {
		t.Error("fresh computation should report from_cache=false")
	}
	if result.ConfidenceScore <= 0 || result.ConfidenceScore > 1 {
		t.Errorf("confidence out of range: %v", result.ConfidenceScore)
	}
	for _, c := range result.Comparables {
		if c.Price <= 0 || c.AreaHectares <= 0 {
			t.Errorf("comparable %s violates price/area invariant: %+v", c.ID, c)
		}
	}

	// Second call must be served from cache without touching the searcher.
	cached, err := svc.Estimate(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error on cached call: %v", err)
	}
	if !cached.FromCache {
		t.Error("second call should report from_cache=true")
	}
	if cached.TotalFound != result.TotalFound {
		t.Errorf("cached result diverged: %d != %d", cached.TotalFound, result.TotalFound)
	}
	if searcher.calls != 1 {
		t.Errorf("expected a single external search, got %d", searcher.calls)
	}
}

func TestEstimateZeroSurvivors(t *testing.T) {
	db := newTestDB(t)
	cache := NewCacheService(db, time.Hour)
	geocache := NewGeocodeCacheService(db, 24*time.Hour)

	searcher := &stubSearcher{
		result: &listings.SearchResult{
			Results: []listings.Listing{
				{ID: "MLA1", Title: "Campo sin superficie publicada", Price: 500000},
			},
		},
	}

	svc := NewEstimationService(cache, geocache, searcher, nil)

	result, err := svc.Estimate(context.Background(), riocuartoQuery(t))
	if err != nil {
		t.Fatalf("zero survivors must not be an error: %v", err)
	}
	if result.TotalFound != 0 || result.ConfidenceScore != 0 || len(result.Comparables) != 0 {
		t.Errorf("expected zero-valued result, got %+v", result)
	}
}

func TestEstimatePropagatesSearchFailure(t *testing.T) {
	db := newTestDB(t)
	cache := NewCacheService(db, time.Hour)
	geocache := NewGeocodeCacheService(db, 24*time.Hour)

	searcher := &stubSearcher{
		err: fmt.Errorf("%w: after 3 attempts: boom", listings.ErrSearchUnavailable),
	}

	svc := NewEstimationService(cache, geocache, searcher, nil)
	q := riocuartoQuery(t)

	if _, err := svc.Estimate(context.Background(), q); !errors.Is(err, listings.ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}

	// A failed search must not poison the cache.
	if _, ok := cache.Get(q.CacheKey()); ok {
		t.Error("failed estimation should not be cached")
	}
}

type stubLocator struct {
	lat, lng float64
	found    bool
	calls    int
}

func (s *stubLocator) Locate(ctx context.Context, localidad, provincia string) (float64, float64, bool) {
	s.calls++
	return s.lat, s.lng, s.found
}

func TestEstimateEnrichesCoordinatesWithoutReordering(t *testing.T) {
	db := newTestDB(t)
	cache := NewCacheService(db, time.Hour)
	geocache := NewGeocodeCacheService(db, 24*time.Hour)

	searcher := &stubSearcher{
		result: &listings.SearchResult{
			Results: []listings.Listing{
				{
					ID: "MLA1", Title: "Campo agrícola 200 hectareas Río Cuarto", Price: 1000000,
					Location: &listings.ListingLocation{City: "Río Cuarto", State: "Córdoba"},
				},
				{
					ID: "MLA2", Title: "Campo 500 hectareas", Price: 1500000,
					Location: &listings.ListingLocation{City: "Villa María", State: "Córdoba"},
				},
			},
		},
	}
	locator := &stubLocator{lat: -33.13, lng: -64.35, found: true}

	svc := NewEstimationService(cache, geocache, searcher, locator)

	result, err := svc.Estimate(context.Background(), riocuartoQuery(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The better match stays first regardless of enrichment.
	if result.Comparables[0].ID != "MLA1" {
		t.Errorf("expected MLA1 first, got %s", result.Comparables[0].ID)
	}
	for _, c := range result.Comparables {
		if c.Lat == nil || c.Lng == nil {
			t.Errorf("comparable %s missing enriched coordinates", c.ID)
		}
		if c.DistanceKm == nil {
			t.Errorf("comparable %s missing distance", c.ID)
		}
	}
}

func TestEstimateGeocodingFailureIsNotFatal(t *testing.T) {
	db := newTestDB(t)
	cache := NewCacheService(db, time.Hour)
	geocache := NewGeocodeCacheService(db, 24*time.Hour)

	searcher := &stubSearcher{
		result: &listings.SearchResult{
			Results: []listings.Listing{
				{
					ID: "MLA1", Title: "Campo agrícola 200 hectareas", Price: 1000000,
					Location: &listings.ListingLocation{City: "Río Cuarto", State: "Córdoba"},
				},
			},
		},
	}
	locator := &stubLocator{found: false}

	svc := NewEstimationService(cache, geocache, searcher, locator)

	result, err := svc.Estimate(context.Background(), riocuartoQuery(t))
	if err != nil {
		t.Fatalf("geocoding failure must not abort the pipeline: %v", err)
	}
	if len(result.Comparables) != 1 {
		t.Fatalf("expected 1 comparable, got %d", len(result.Comparables))
	}
	if result.Comparables[0].Lat != nil {
		t.Error("failed geocoding should leave coordinates unset")
	}
}
