package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/fibermap/internal/render"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultTitle, cfg.Title)
	assert.Equal(t, DefaultFooter, cfg.Footer)
	assert.Equal(t, [2]float64{-22, 17}, cfg.Map.Center)
	assert.Equal(t, DefaultZoom, cfg.Map.Zoom)
	assert.Equal(t, render.DefaultOverrides(), cfg.Map.Overrides)
	assert.Equal(t, DefaultTileURL, cfg.Tiles.Upstream)
	assert.Equal(t, 4, cfg.Tiles.Concurrency)
	assert.Equal(t, 80, cfg.Tiles.Quality)
	assert.False(t, cfg.Tiles.Cache)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: https://regions.example.com/api/v1/
  timeout: 5s
map:
  center: [-20.5, 18.1]
  zoom: 7
  overrides:
    - id: "3"
      center: [-19.1, 14.2]
    - name: Zambezi
      center: [-17.5, 24.3]
tiles:
  cache: true
  dir: /var/cache/tiles
  upstream: https://tiles.example.com/{z}/{x}/{y}.png
  quality: 250
title: Coverage
footer: Coverage Mapper
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://regions.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, [2]float64{-20.5, 18.1}, cfg.Map.Center)
	assert.Equal(t, 7, cfg.Map.Zoom)
	assert.Equal(t, DefaultPrecision, cfg.Map.Precision)
	assert.Equal(t, []render.Override{
		{ID: "3", Center: render.LatLng{-19.1, 14.2}},
		{Name: "Zambezi", Center: render.LatLng{-17.5, 24.3}},
	}, cfg.Map.Overrides)

	assert.True(t, cfg.Tiles.Cache)
	assert.Equal(t, "/var/cache/tiles", cfg.Tiles.Dir)
	assert.Equal(t, "https://tiles.example.com/{z}/{x}/{y}.png", cfg.Tiles.Upstream)
	assert.Equal(t, 80, cfg.Tiles.Quality, "out of range quality falls back")

	assert.Equal(t, "Coverage", cfg.Title)
	assert.Equal(t, DefaultSubtitle, cfg.Subtitle)
	assert.Equal(t, "Coverage Mapper", cfg.Footer)
}

func TestLoad_KeepsCenterDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, "title: Only a title\n"))
	require.NoError(t, err)

	assert.Equal(t, [2]float64{-22, 17}, cfg.Map.Center)
	assert.Equal(t, DefaultAPIBaseURL, cfg.API.BaseURL)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "api: [unclosed"))
	assert.Error(t, err)
}
