package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/fibermap/internal/config"
	"github.com/woozymasta/fibermap/internal/render"
	"github.com/woozymasta/fibermap/internal/shell"
)

func erongo() *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{{{14, -23}, {16, -23}, {16, -21}, {14, -21}, {14, -23}}})
	f.ID = 7.0
	f.Properties = geojson.Properties{"name": "Erongo", "fiber_status": "Active"}
	return f
}

func TestLoadConfig_UsesConfiguredOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: https://regions.example.com/api/v1
map:
  overrides:
    - id: "7"
      center: [-22.5, 15.1]
`), 0o644))

	cfg, err := loadConfig(Options{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, "https://regions.example.com/api/v1", cfg.API.BaseURL)

	out := exportRegions(cfg, []*geojson.Feature{erongo()})
	require.Len(t, out, 1)
	assert.Equal(t, "7", out[0].ID)
	assert.Equal(t, render.LatLng{-22.5, 15.1}, out[0].Center)
	assert.Equal(t, shell.ColorActive, out[0].Color)
}

func TestLoadConfig_MissingFileAndFlags(t *testing.T) {
	cfg, err := loadConfig(Options{
		ConfigFile: filepath.Join(t.TempDir(), "missing.yaml"),
		API:        "http://api.local/v1/",
		Precision:  0.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "http://api.local/v1", cfg.API.BaseURL)
	assert.Equal(t, 0.5, cfg.Map.Precision)
	assert.Equal(t, render.DefaultOverrides(), cfg.Map.Overrides)
	assert.Equal(t, config.DefaultTitle, cfg.Title)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("map: [unclosed"), 0o644))

	_, err := loadConfig(Options{ConfigFile: path})
	assert.Error(t, err)
}
