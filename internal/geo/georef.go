package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tasagro-dev/tasagro/internal/config"
	"github.com/tasagro-dev/tasagro/internal/logger"
)

// Client resolves locality names to coordinates using the georef API
// (datos.gob.ar). Lookups are best effort: any failure degrades to
// "coordinates unknown" and never aborts the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a georef client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.GeorefBaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type georefResponse struct {
	Localidades []struct {
		Centroide struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"centroide"`
	} `json:"localidades"`
}

// Locate returns the centroid of a locality, optionally narrowed by
// province.
func (c *Client) Locate(ctx context.Context, localidad, provincia string) (lat, lng float64, found bool) {
	log := logger.GetLogger("geo")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/localidades", nil)
	if err != nil {
		log.Warnf("geocode request build failed: %v", err)
		return 0, 0, false
	}

	q := url.Values{}
	q.Set("nombre", localidad)
	if provincia != "" {
		q.Set("provincia", provincia)
	}
	q.Set("campos", "centroide")
	q.Set("max", "1")
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warnf("geocode failed (%s): %v", localidad, err)
		return 0, 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("geocode failed (%s): status=%d", localidad, resp.StatusCode)
		return 0, 0, false
	}

	var result georefResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Warnf("geocode response parse failed: %v", err)
		return 0, 0, false
	}

	if len(result.Localidades) == 0 {
		return 0, 0, false
	}

	centroide := result.Localidades[0].Centroide
	if centroide.Lat == 0 && centroide.Lon == 0 {
		return 0, 0, false
	}

	return centroide.Lat, centroide.Lon, true
}

// Address builds the canonical cache key for a locality lookup.
func Address(localidad, provincia string) string {
	if provincia == "" {
		return localidad
	}
	return fmt.Sprintf("%s, %s", localidad, provincia)
}
