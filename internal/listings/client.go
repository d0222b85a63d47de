package listings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tasagro-dev/tasagro/internal/config"
	"github.com/tasagro-dev/tasagro/internal/logger"
)

// ErrSearchUnavailable marks an external search that failed after all
// retry attempts.
var ErrSearchUnavailable = errors.New("search unavailable")

const (
	// maxAttempts caps the total number of request attempts per search
	maxAttempts = 3
	// defaultBaseDelay is the first backoff delay, doubled per attempt
	defaultBaseDelay = 2 * time.Second

	userAgent = "tasagro-comparables/1.0 (+https://github.com/tasagro-dev/tasagro)"
)

var searchRetriesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "tasagro_listing_search_retries_total",
		Help: "Total number of retried marketplace search requests",
	},
)

// ListingLocation carries the coordinates the marketplace already knows.
type ListingLocation struct {
	City      string  `json:"city"`
	State     string  `json:"state"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Listing is one candidate result from the marketplace search API.
type Listing struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Price     float64          `json:"price"`
	Permalink string           `json:"permalink"`
	Thumbnail string           `json:"thumbnail"`
	Location  *ListingLocation `json:"location,omitempty"`
}

// SearchResult is a single page of candidate listings.
type SearchResult struct {
	Results []Listing `json:"results"`
}

// Client queries a MercadoLibre-style search endpoint restricted to the
// rural-property category.
type Client struct {
	baseURL    string
	siteID     string
	categoryID string
	pageSize   int
	httpClient *http.Client
	baseDelay  time.Duration
}

// NewClient builds a search client from configuration.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.MarketBaseURL,
		siteID:     cfg.MarketSiteID,
		categoryID: cfg.MarketCategoryID,
		pageSize:   cfg.MarketPageSize,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseDelay: defaultBaseDelay,
	}
}

// PageSize returns the fixed page size used for offset pagination.
func (c *Client) PageSize() int {
	return c.pageSize
}

// Search fetches one page of candidate listings for a free-text query.
// Any non-2xx status or transport error is retried with exponential
// backoff (2s, 4s); an empty result set is a valid outcome, not a failure.
func (c *Client) Search(ctx context.Context, query string, offset int) (*SearchResult, error) {
	log := logger.GetLogger("listings")

	searchURL := fmt.Sprintf("%s/sites/%s/search", c.baseURL, c.siteID)

	var lastErr error
	delay := c.baseDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := c.doSearch(ctx, searchURL, query, offset)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			log.Warnf("marketplace search failed (attempt %d/%d): %v — retrying in %v",
				attempt, maxAttempts, err, delay)
			searchRetriesTotal.Inc()

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ErrSearchUnavailable, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return nil, fmt.Errorf("%w: after %d attempts: %w", ErrSearchUnavailable, maxAttempts, lastErr)
}

func (c *Client) doSearch(ctx context.Context, searchURL, query string, offset int) (*SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("category", c.categoryID)
	q.Set("limit", fmt.Sprintf("%d", c.pageSize))
	q.Set("offset", fmt.Sprintf("%d", offset))
	req.URL.RawQuery = q.Encode()

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result SearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
