// Package config handles configuration loading and shared data structures.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/woozymasta/fibermap/internal/render"

	"gopkg.in/yaml.v3"
)

// Defaults used when the configuration file leaves a value empty.
const (
	DefaultAPIBaseURL  = "http://localhost:8000/api/v1"
	DefaultTileURL     = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	DefaultAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	DefaultTitle       = "Namibia Fiber Coverage Map"
	DefaultSubtitle    = "Visualizing fiber optic coverage across regions"
	DefaultFooter      = "Namibia Fiber Coverage Mapper"
	DefaultTilesDir    = "tiles"
	DefaultZoom        = 6
	DefaultZoomLimit   = 10
	DefaultPrecision   = 1.0
)

// Config represents the root configuration file structure.
type Config struct {
	API   API   `yaml:"api"`
	Map   Map   `yaml:"map"`
	Tiles Tiles `yaml:"tiles"`

	Title    string `yaml:"title,omitempty"`
	Subtitle string `yaml:"subtitle,omitempty"`
	// Footer is the label printed before the current year.
	Footer string `yaml:"footer,omitempty"`
}

// API describes the upstream region API.
type API struct {
	BaseURL string `yaml:"base_url"`
	// Zero means no timeout, a hung request keeps the page loading.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Map holds the initial viewport and the marker placement settings.
type Map struct {
	// Overrides replaces the built-in centre exception table when set.
	Overrides   []render.Override `yaml:"overrides,omitempty"`
	Center      [2]float64        `yaml:"center"` // [Lat, Lng]
	Attribution string            `yaml:"attribution,omitempty"`
	TileURL     string            `yaml:"tile_url,omitempty"`
	Zoom        int               `yaml:"zoom,omitempty"`
	Precision   float64           `yaml:"precision,omitempty"`
}

// Tiles configures the optional local WebP tile mirror.
type Tiles struct {
	Dir         string `yaml:"dir,omitempty"`
	Upstream    string `yaml:"upstream,omitempty"`
	ZoomLimit   int    `yaml:"zoom,omitempty"`
	Concurrency int    `yaml:"concurrency,omitempty"`
	Quality     int    `yaml:"quality,omitempty"`
	Cache       bool   `yaml:"cache"`
}

// Default returns a configuration pointing at a local region API.
func Default() *Config {
	cfg := &Config{
		Map: Map{Center: [2]float64{-22, 17}},
	}
	cfg.Normalize()
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{
		Map: Map{Center: [2]float64{-22, 17}},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()
	return &cfg, nil
}

// Normalize fills empty values with defaults.
func (c *Config) Normalize() {
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultAPIBaseURL
	}

	if c.Title == "" {
		c.Title = DefaultTitle
	}
	if c.Subtitle == "" {
		c.Subtitle = DefaultSubtitle
	}
	if c.Footer == "" {
		c.Footer = DefaultFooter
	}

	if c.Map.TileURL == "" {
		c.Map.TileURL = DefaultTileURL
	}
	if c.Map.Attribution == "" {
		c.Map.Attribution = DefaultAttribution
	}
	if c.Map.Zoom <= 0 {
		c.Map.Zoom = DefaultZoom
	}
	if c.Map.Precision <= 0 {
		c.Map.Precision = DefaultPrecision
	}
	if len(c.Map.Overrides) == 0 {
		c.Map.Overrides = render.DefaultOverrides()
	}

	if c.Tiles.Dir == "" {
		c.Tiles.Dir = DefaultTilesDir
	}
	if c.Tiles.Upstream == "" {
		c.Tiles.Upstream = c.Map.TileURL
	}
	if c.Tiles.ZoomLimit <= 0 {
		c.Tiles.ZoomLimit = DefaultZoomLimit
	}
	if c.Tiles.Concurrency <= 0 {
		c.Tiles.Concurrency = 4
	}
	if c.Tiles.Quality <= 0 || c.Tiles.Quality > 100 {
		c.Tiles.Quality = 80
	}
}
