package comparables

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidQuery marks user input that fails validation.
var ErrInvalidQuery = errors.New("invalid query")

// DefaultRadiusKm is used when the caller does not provide a search radius.
const DefaultRadiusKm = 50.0

// cacheKeyLength is the fixed length of the hex token derived from a query.
const cacheKeyLength = 24

// SearchQuery describes the property being valued. Immutable once built.
type SearchQuery struct {
	Provincia string
	Localidad string
	Hectareas float64
	TipoCampo string
	RadioKm   float64
	Page      int
}

// NewSearchQuery validates raw input and builds a normalized query.
// RadioKm defaults to 50 when zero, Page to 0.
func NewSearchQuery(provincia, localidad string, hectareas float64, tipoCampo string, radioKm float64, page int) (SearchQuery, error) {
	provincia = strings.TrimSpace(provincia)
	localidad = strings.TrimSpace(localidad)
	tipoCampo = strings.TrimSpace(tipoCampo)

	if provincia == "" {
		return SearchQuery{}, fmt.Errorf("%w: provincia is required", ErrInvalidQuery)
	}
	if localidad == "" {
		return SearchQuery{}, fmt.Errorf("%w: localidad is required", ErrInvalidQuery)
	}
	if tipoCampo == "" {
		return SearchQuery{}, fmt.Errorf("%w: tipo_campo is required", ErrInvalidQuery)
	}
	if hectareas <= 0 {
		return SearchQuery{}, fmt.Errorf("%w: hectareas must be greater than zero", ErrInvalidQuery)
	}
	if radioKm < 0 {
		return SearchQuery{}, fmt.Errorf("%w: radio_km cannot be negative", ErrInvalidQuery)
	}
	if radioKm == 0 {
		radioKm = DefaultRadiusKm
	}
	if page < 0 {
		page = 0
	}

	return SearchQuery{
		Provincia: provincia,
		Localidad: localidad,
		Hectareas: hectareas,
		TipoCampo: tipoCampo,
		RadioKm:   radioKm,
		Page:      page,
	}, nil
}

// CacheKey derives a stable fixed-length token from the query fields.
// Two logically identical queries always hash to the same key.
func (q SearchQuery) CacheKey() string {
	parts := []string{
		strings.ToLower(q.Provincia),
		strings.ToLower(q.Localidad),
		strconv.FormatFloat(q.Hectareas, 'f', -1, 64),
		strings.ToLower(q.TipoCampo),
		strconv.FormatFloat(q.RadioKm, 'f', -1, 64),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:cacheKeyLength]
}

// SearchText builds the free-text marketplace query for this property.
func (q SearchQuery) SearchText() string {
	return fmt.Sprintf("campo %s %s %s", q.TipoCampo, q.Localidad, q.Provincia)
}
