package main

import (
	"context"
	"crypto/tls"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/fibermap/internal/api"
	"github.com/woozymasta/fibermap/internal/config"
	"github.com/woozymasta/fibermap/internal/logger"
	"github.com/woozymasta/fibermap/internal/metrics"
	"github.com/woozymasta/fibermap/internal/processor"
	"github.com/woozymasta/fibermap/internal/render"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"      env:"CONFIG_FILE"  description:"Path to configuration file" default:"config.yaml"`
	APIBaseURL  string `short:"u" long:"api"         env:"API_BASE_URL" description:"Region API base URL (overrides config)"`
	Concurrency int    `short:"p" long:"concurrency" env:"CONCURRENCY"  description:"Concurrent tile downloads"`
	ZoomLimit   int    `short:"z" long:"zoom-limit"  env:"ZOOM_LIMIT"   description:"Highest zoom level to prefetch"`
}

func main() {
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.APIBaseURL != "" {
		cfg.API.BaseURL = opts.APIBaseURL
		cfg.Normalize()
	}

	concurrency := cfg.Tiles.Concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}
	zoomLimit := cfg.Tiles.ZoomLimit
	if opts.ZoomLimit > 0 {
		zoomLimit = opts.ZoomLimit
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	fc, err := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, m).FetchRegionsGeoJSON(ctx)
	if err != nil {
		log.Fatal().Err(err).Str("api", cfg.API.BaseURL).Msg("Failed to fetch regions")
	}

	bound, ok := render.NewRenderer(cfg.Map.Overrides, cfg.Map.Precision).
		Render(fc.Features, nil, nil).
		Bound()
	if !ok {
		log.Fatal().Msg("Regions have no geometry, nothing to prefetch")
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
		},
		Timeout: 15 * time.Second,
	}

	tiles, err := processor.NewTileCache(client, cfg.Tiles, m)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize tile cache")
	}

	log.Info().
		Int("regions", len(fc.Features)).
		Floats64("bound_min", bound.Min[:]).
		Floats64("bound_max", bound.Max[:]).
		Int("zoom_limit", zoomLimit).
		Int("concurrency", concurrency).
		Str("dir", cfg.Tiles.Dir).
		Msg("Starting loader")

	res := tiles.Prefetch(ctx, bound, zoomLimit, concurrency)

	log.Info().
		Int("tiles", res.Tiles).
		Int("failed", res.Failed).
		Msg("Loader finished")
}
