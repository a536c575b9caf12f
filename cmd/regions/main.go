package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/woozymasta/fibermap/internal/api"
	"github.com/woozymasta/fibermap/internal/config"
	"github.com/woozymasta/fibermap/internal/geo"
	"github.com/woozymasta/fibermap/internal/metrics"
	"github.com/woozymasta/fibermap/internal/render"
	"github.com/woozymasta/fibermap/internal/shell"

	"github.com/jessevdk/go-flags"
	"github.com/paulmach/orb/geojson"
	"gopkg.in/yaml.v3"
)

type Options struct {
	ConfigFile string        `short:"c" long:"config"    env:"CONFIG_FILE"  description:"Path to configuration file" default:"config.yaml"`
	API        string        `short:"u" long:"api"       env:"API_BASE_URL" description:"Region API base URL (overrides config)"`
	Endpoint   string        `short:"e" long:"endpoint"  description:"API operation" choice:"geojson" choice:"regions" choice:"region" default:"geojson"`
	ID         string        `short:"i" long:"id"        description:"Region ID for the region endpoint"`
	Output     string        `short:"o" long:"out"       description:"Output file path. Writes to stdout if empty"`
	Format     string        `short:"f" long:"format"    description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Precision  float64       `long:"precision"           description:"Pole of inaccessibility precision (overrides config)"`
	Timeout    time.Duration `long:"timeout"             description:"Request timeout" default:"30s"`
}

type regionOut struct {
	ID         string        `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string        `json:"name" yaml:"name"`
	Status     string        `json:"status" yaml:"status"`
	Color      string        `json:"color" yaml:"color"`
	Population string        `json:"population,omitempty" yaml:"population,omitempty"`
	Area       string        `json:"area_km2,omitempty" yaml:"area_km2,omitempty"`
	Center     render.LatLng `json:"center" yaml:"center"` // [Lat, Lng]
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Endpoint == "region" && opts.ID == "" {
		fmt.Fprintln(os.Stderr, "Error: --id is required for the region endpoint")
		os.Exit(1)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	client := api.NewClient(cfg.API.BaseURL, opts.Timeout, metrics.New())

	var features []*geojson.Feature
	switch opts.Endpoint {
	case "region":
		var f *geojson.Feature
		f, err = client.FetchRegionByID(ctx, opts.ID)
		if err == nil {
			features = []*geojson.Feature{f}
		}
	case "regions":
		var fc *geojson.FeatureCollection
		fc, err = client.FetchRegions(ctx)
		if err == nil {
			features = fc.Features
		}
	default:
		var fc *geojson.FeatureCollection
		fc, err = client.FetchRegionsGeoJSON(ctx)
		if err == nil {
			features = fc.Features
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching regions: %v\n", err)
		os.Exit(1)
	}

	out := exportRegions(cfg, features)

	// marshal
	var outputData []byte
	if opts.Format == "yaml" {
		outputData, err = yaml.Marshal(out)
	} else {
		outputData, err = json.MarshalIndent(out, "", "  ")
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully wrote %d regions to %s (format: %s)\n", len(out), opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}

// loadConfig reads the same configuration file as the server so computed
// centres match the map. A missing file falls back to defaults.
func loadConfig(opts Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return nil, err
	}

	if opts.API != "" {
		cfg.API.BaseURL = opts.API
		cfg.Normalize()
	}
	if opts.Precision > 0 {
		cfg.Map.Precision = opts.Precision
	}
	return cfg, nil
}

func exportRegions(cfg *config.Config, features []*geojson.Feature) []regionOut {
	markers := render.NewRenderer(cfg.Map.Overrides, cfg.Map.Precision).
		Render(features, shell.RegionStyle, nil)

	out := make([]regionOut, 0, markers.Len())
	for _, mk := range markers.Markers {
		out = append(out, regionOut{
			ID:         mk.ID,
			Name:       mk.Popup.Title,
			Status:     geo.Status(mk.Feature),
			Color:      mk.Style.FillColor,
			Population: mk.Popup.Population,
			Area:       mk.Popup.Area,
			Center:     mk.Center,
		})
	}
	return out
}
