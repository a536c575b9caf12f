package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/fibermap/internal/config"
	"github.com/woozymasta/fibermap/internal/metrics"
	"github.com/woozymasta/fibermap/internal/render"
	"github.com/woozymasta/fibermap/internal/server"
	"github.com/woozymasta/fibermap/internal/shell"
)

type mockFetcher struct {
	fc  *geojson.FeatureCollection
	err error
}

func (m *mockFetcher) FetchRegionsGeoJSON(context.Context) (*geojson.FeatureCollection, error) {
	return m.fc, m.err
}

func regions() *geojson.FeatureCollection {
	khomas := geojson.NewFeature(orb.Polygon{{{16, -22}, {18, -22}, {18, -24}, {16, -24}, {16, -22}}})
	khomas.ID = 1.0
	khomas.Properties = geojson.Properties{"name": "Khomas", "fiber_status": "Active", "population": 0.0}

	kunene := geojson.NewFeature(orb.Polygon{{{12, -17}, {15, -17}, {15, -21}, {12, -21}, {12, -17}}})
	kunene.ID = 2.0
	kunene.Properties = geojson.Properties{"name": "Kunene", "fiber_status": "Planned", "area_km2": 115293.0}

	fc := geojson.NewFeatureCollection()
	fc.Append(khomas)
	fc.Append(kunene)
	return fc
}

func newTestHandler(t *testing.T, f shell.Fetcher, load bool) http.Handler {
	t.Helper()
	m := metrics.New()
	cfg := config.Default()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	sh := shell.New(f, render.NewRenderer(cfg.Map.Overrides, cfg.Map.Precision), clock, m)
	if load {
		_ = sh.Load(context.Background())
	}

	srvCtx, err := server.NewServerContext(cfg, sh, nil, m)
	require.NoError(t, err)
	return srvCtx.Routes()
}

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestIndex_Loading(t *testing.T) {
	h := newTestHandler(t, &mockFetcher{fc: regions()}, false)

	rec := do(h, http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, shell.LoadingMessage)
	assert.NotContains(t, body, "leaflet.js")
	assert.NotContains(t, body, "Legend")
}

func TestIndex_Error(t *testing.T) {
	h := newTestHandler(t, &mockFetcher{err: errors.New("dial tcp: connection refused")}, true)

	body := do(h, http.MethodGet, "/").Body.String()

	assert.Contains(t, body, shell.ErrorMessage)
	assert.NotContains(t, body, "leaflet.js")
	assert.NotContains(t, body, "Region Information")
	assert.NotContains(t, body, "connection refused")
}

func TestIndex_Loaded(t *testing.T) {
	h := newTestHandler(t, &mockFetcher{fc: regions()}, true)

	body := do(h, http.MethodGet, "/").Body.String()

	assert.Contains(t, body, "Namibia Fiber Coverage Map")
	assert.Contains(t, body, "Region Information")
	assert.Contains(t, body, shell.PlaceholderMessage)
	assert.Contains(t, body, "Legend")
	assert.Contains(t, body, "Unavailable")
	assert.Contains(t, body, "leaflet.js")
	assert.Contains(t, body, "Kunene")
	assert.Contains(t, body, "OpenStreetMap")
	assert.Contains(t, body, "Namibia Fiber Coverage Mapper 2025")
}

func TestIndex_UnknownPath(t *testing.T) {
	h := newTestHandler(t, &mockFetcher{fc: regions()}, true)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/missing").Code)
}

func TestMarkers(t *testing.T) {
	h := newTestHandler(t, &mockFetcher{fc: regions()}, true)

	rec := do(h, http.MethodGet, "/api/markers")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		State   string `json:"state"`
		Markers []struct {
			ID     string        `json:"id"`
			Name   string        `json:"name"`
			Center render.LatLng `json:"center"`
			Style  render.Style  `json:"style"`
			Popup  render.Popup  `json:"popup"`
			Index  int           `json:"index"`
		} `json:"markers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "loaded", resp.State)
	require.Len(t, resp.Markers, 2)
	assert.Equal(t, "Khomas", resp.Markers[0].Name)
	assert.Equal(t, shell.ColorActive, resp.Markers[0].Style.FillColor)
	assert.Empty(t, resp.Markers[0].Popup.Population)
	assert.Equal(t, "2", resp.Markers[1].ID)
	assert.Equal(t, render.LatLng{-19.0, 14.0}, resp.Markers[1].Center)
	assert.Equal(t, "115,293", resp.Markers[1].Popup.Area)
}

func TestMarkers_Loading(t *testing.T) {
	h := newTestHandler(t, &mockFetcher{}, false)

	rec := do(h, http.MethodGet, "/api/markers")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"loading","markers":[]}`, rec.Body.String())
}

func TestMarkerClick(t *testing.T) {
	h := newTestHandler(t, &mockFetcher{fc: regions()}, true)

	rec := do(h, http.MethodPost, "/api/markers/0/click")
	require.Equal(t, http.StatusOK, rec.Code)

	var panel shell.Panel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &panel))
	assert.True(t, panel.Selected)
	assert.Equal(t, "Khomas", panel.Name)
	assert.Equal(t, "Active", panel.Status)
	assert.Equal(t, shell.ColorActive, panel.Color)
	assert.Empty(t, panel.Population, "zero population is hidden")

	sel := do(h, http.MethodGet, "/api/selection")
	assert.JSONEq(t, rec.Body.String(), sel.Body.String())

	body := do(h, http.MethodGet, "/").Body.String()
	assert.NotContains(t, body, shell.PlaceholderMessage)
	assert.False(t, strings.Contains(body, "Population:"))
}

func TestMarkerClick_Errors(t *testing.T) {
	loaded := newTestHandler(t, &mockFetcher{fc: regions()}, true)
	assert.Equal(t, http.StatusBadRequest, do(loaded, http.MethodPost, "/api/markers/abc/click").Code)
	assert.Equal(t, http.StatusNotFound, do(loaded, http.MethodPost, "/api/markers/5/click").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(loaded, http.MethodGet, "/api/markers/0/click").Code)

	loading := newTestHandler(t, &mockFetcher{fc: regions()}, false)
	rec := do(loading, http.MethodPost, "/api/markers/0/click")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "not loaded")
}

func TestSelection_Empty(t *testing.T) {
	h := newTestHandler(t, &mockFetcher{fc: regions()}, true)

	var panel shell.Panel
	require.NoError(t, json.Unmarshal(do(h, http.MethodGet, "/api/selection").Body.Bytes(), &panel))
	assert.False(t, panel.Selected)
	assert.Equal(t, shell.PlaceholderMessage, panel.Placeholder)
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, &mockFetcher{fc: regions()}, true)

	rec := do(h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","state":"loaded"}`, rec.Body.String())
}

func TestFaviconAndMetrics(t *testing.T) {
	h := newTestHandler(t, &mockFetcher{fc: regions()}, true)

	fav := do(h, http.MethodGet, "/favicon.ico")
	assert.Equal(t, "image/svg+xml", fav.Header().Get("Content-Type"))
	assert.Contains(t, fav.Body.String(), "<svg")

	met := do(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, met.Code)
	assert.Contains(t, met.Body.String(), "fibermap_http_requests_total")
	assert.Contains(t, met.Body.String(), "fibermap_regions 2")
}

func TestTiles_Disabled(t *testing.T) {
	h := newTestHandler(t, &mockFetcher{fc: regions()}, true)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/tiles/0/0/0.webp").Code)
}
