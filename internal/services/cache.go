package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/tasagro-dev/tasagro/internal/comparables"
	"github.com/tasagro-dev/tasagro/internal/database"
	"github.com/tasagro-dev/tasagro/internal/logger"
	"github.com/tasagro-dev/tasagro/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheService fronts the search cache table. Reads and writes are best
// effort: any storage failure is logged and degraded to a miss or a
// skipped write, never surfaced to the pipeline.
type CacheService struct {
	db  *database.DB
	ttl time.Duration
	now func() time.Time
}

// NewCacheService builds a cache service with the given entry TTL.
func NewCacheService(db *database.DB, ttl time.Duration) *CacheService {
	return &CacheService{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns the cached estimation for a query hash, or a miss when the
// entry is absent, expired, or unreadable. Callers own the FromCache flag.
func (s *CacheService) Get(key string) (*comparables.EstimationResult, bool) {
	log := logger.GetLogger("cache")

	var entry struct {
		Result    string
		ExpiresAt time.Time
	}
	err := s.db.Model(&models.SearchCache{}).
		Select("result", "expires_at").
		Where("query_hash = ?", key).
		Take(&entry).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("cache read failed for %s: %v", key, err)
		}
		return nil, false
	}

	if !entry.ExpiresAt.After(s.now()) {
		return nil, false
	}

	var result comparables.EstimationResult
	if err := json.Unmarshal([]byte(entry.Result), &result); err != nil {
		log.Warnf("cache payload corrupt for %s: %v", key, err)
		return nil, false
	}

	return &result, true
}

// Put upserts the estimation for a query hash with a fresh expiry. The
// stored payload is always canonical from_cache=false.
func (s *CacheService) Put(key string, result *comparables.EstimationResult) {
	log := logger.GetLogger("cache")

	stored := *result
	stored.FromCache = false

	payload, err := json.Marshal(&stored)
	if err != nil {
		log.Warnf("cache marshal failed for %s: %v", key, err)
		return
	}

	now := s.now()
	entry := models.SearchCache{
		QueryHash: key,
		Result:    string(payload),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "query_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"result", "created_at", "expires_at"}),
	}).Create(&entry).Error
	if err != nil {
		log.Warnf("cache write failed for %s: %v", key, err)
	}
}

// GeocodeCacheService fronts the geocode cache table with the same
// best-effort contract.
type GeocodeCacheService struct {
	db  *database.DB
	ttl time.Duration
	now func() time.Time
}

// NewGeocodeCacheService builds a geocode cache with the given TTL.
func NewGeocodeCacheService(db *database.DB, ttl time.Duration) *GeocodeCacheService {
	return &GeocodeCacheService{
		db:  db,
		ttl: ttl,
		now: time.Now,
	}
}

// Get returns cached coordinates for an address, if unexpired.
func (s *GeocodeCacheService) Get(address string) (lat, lng float64, ok bool) {
	log := logger.GetLogger("cache")

	var entry struct {
		Lat       float64
		Lng       float64
		ExpiresAt time.Time
	}
	err := s.db.Model(&models.GeocodeCache{}).
		Select("lat", "lng", "expires_at").
		Where("address = ?", address).
		Take(&entry).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("geocode cache read failed for %q: %v", address, err)
		}
		return 0, 0, false
	}

	if !entry.ExpiresAt.After(s.now()) {
		return 0, 0, false
	}

	return entry.Lat, entry.Lng, true
}

// Put upserts coordinates for an address.
func (s *GeocodeCacheService) Put(address string, lat, lng float64) {
	log := logger.GetLogger("cache")

	now := s.now()
	entry := models.GeocodeCache{
		Address:   address,
		Lat:       lat,
		Lng:       lng,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"lat", "lng", "created_at", "expires_at"}),
	}).Create(&entry).Error
	if err != nil {
		log.Warnf("geocode cache write failed for %q: %v", address, err)
	}
}
