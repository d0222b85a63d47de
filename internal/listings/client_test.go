package listings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(serverURL string) *Client {
	return &Client{
		baseURL:    serverURL,
		siteID:     "MLA",
		categoryID: "MLA1496",
		pageSize:   50,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseDelay:  time.Millisecond,
	}
}

func TestSearchRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"id":"MLA1","title":"Campo 100 ha","price":500000}]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.Search(context.Background(), "campo agrícola", 0)
	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", attempts)
	}
	if len(result.Results) != 1 || result.Results[0].ID != "MLA1" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestSearchExhaustsRetries(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.Search(context.Background(), "campo", 0)
	if !errors.Is(err, ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
	if attempts != maxAttempts {
		t.Errorf("expected exactly %d attempts, got %d", maxAttempts, attempts)
	}
}

func TestSearchEmptyResultIsNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.Search(context.Background(), "campo en la luna", 0)
	if err != nil {
		t.Fatalf("empty result should be a valid outcome, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
	if len(result.Results) != 0 {
		t.Errorf("expected zero results, got %d", len(result.Results))
	}
}

func TestSearchSendsExpectedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("q") != "campo agrícola Río Cuarto Córdoba" {
			t.Errorf("unexpected q param: %q", q.Get("q"))
		}
		if q.Get("category") != "MLA1496" {
			t.Errorf("unexpected category: %q", q.Get("category"))
		}
		if q.Get("limit") != "50" {
			t.Errorf("unexpected limit: %q", q.Get("limit"))
		}
		if q.Get("offset") != "100" {
			t.Errorf("unexpected offset: %q", q.Get("offset"))
		}
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("unexpected user agent: %q", r.Header.Get("User-Agent"))
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.Search(context.Background(), "campo agrícola Río Cuarto Córdoba", 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchHonorsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.baseDelay = time.Hour // force the retry wait to block on the context

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Search(ctx, "campo", 0)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrSearchUnavailable) {
			t.Errorf("expected ErrSearchUnavailable, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("search did not return after context cancellation")
	}
}
