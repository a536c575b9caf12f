// Package api is a read-only client for the region API.
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/fibermap/internal/metrics"
)

// Operation labels used in logs and metrics.
const (
	OpRegions = "regions"
	OpRegion  = "region"
	OpGeoJSON = "geojson"
)

// Client fetches region features from a fixed base URL.
// It does not retry, cache or interpret error payloads.
type Client struct {
	httpClient *http.Client
	metrics    *metrics.Metrics
	baseURL    string
}

// NewClient creates a region API client. A zero timeout disables the client timeout.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// BaseURL returns the endpoint prefix of every request.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchRegions retrieves all regions as a feature collection.
func (c *Client) FetchRegions(ctx context.Context) (*geojson.FeatureCollection, error) {
	body, err := c.get(ctx, OpRegions, "/regions")
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, c.fail(OpRegions, fmt.Errorf("decode regions: %w", err))
	}
	c.done(OpRegions)
	return fc, nil
}

// FetchRegionByID retrieves a single region.
func (c *Client) FetchRegionByID(ctx context.Context, id string) (*geojson.Feature, error) {
	body, err := c.get(ctx, OpRegion, "/regions/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	f, err := geojson.UnmarshalFeature(body)
	if err != nil {
		return nil, c.fail(OpRegion, fmt.Errorf("decode region %s: %w", id, err))
	}
	c.done(OpRegion)
	return f, nil
}

// FetchRegionsGeoJSON retrieves all regions from the GeoJSON endpoint.
func (c *Client) FetchRegionsGeoJSON(ctx context.Context) (*geojson.FeatureCollection, error) {
	body, err := c.get(ctx, OpGeoJSON, "/regions/geojson")
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, c.fail(OpGeoJSON, fmt.Errorf("decode regions geojson: %w", err))
	}
	c.done(OpGeoJSON)
	return fc, nil
}

// get performs one GET request and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, op, path string) ([]byte, error) {
	u := c.baseURL + path
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, c.fail(op, fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.fail(op, fmt.Errorf("%s request: %w", op, err))
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	c.metrics.APIDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, c.fail(op, fmt.Errorf("read %s response: %w", op, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(op, &StatusError{URL: u, Code: resp.StatusCode})
	}

	log.Trace().
		Str("op", op).
		Str("url", u).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("duration", time.Since(start)).
		Msg("Region API request done")

	return body, nil
}

func (c *Client) done(op string) {
	c.metrics.APIRequests.WithLabelValues(op, "success").Inc()
}

func (c *Client) fail(op string, err error) error {
	c.metrics.APIRequests.WithLabelValues(op, "error").Inc()
	return err
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("region API error: status %d: %s", e.Code, e.URL)
}
