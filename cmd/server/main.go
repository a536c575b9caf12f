package main

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/woozymasta/fibermap/internal/server"
	"github.com/woozymasta/fibermap/internal/shell"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"     env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	APIBaseURL string `short:"u" long:"api"        env:"API_BASE_URL"   description:"Region API base URL (overrides config)"`
	Addr       string `short:"a" long:"addr"       env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"       env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
	TileCache  bool   `short:"t" long:"tile-cache" env:"TILE_CACHE"     description:"Serve tiles from the local WebP cache"`
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", opts.ConfigFile).Msg("Configuration file not found, using defaults")
		cfg = config.Default()
	} else if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.APIBaseURL != "" {
		cfg.API.BaseURL = opts.APIBaseURL
		cfg.Normalize()
	}
	if opts.TileCache {
		cfg.Tiles.Cache = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout, m)
	renderer := render.NewRenderer(cfg.Map.Overrides, cfg.Map.Precision)
	sh := shell.New(client, renderer, clockwork.NewRealClock(), m)

	var tiles *processor.TileCache
	if cfg.Tiles.Cache {
		tiles, err = processor.NewTileCache(&http.Client{Timeout: 15 * time.Second}, cfg.Tiles, m)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize tile cache")
		}
	}

	srvCtx, err := server.NewServerContext(cfg, sh, tiles, m)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server context")
	}

	// Single fetch, cancelled on shutdown
	go func() {
		_ = sh.Load(ctx)
	}()

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().
		Str("addr", listenAddr).
		Str("api", cfg.API.BaseURL).
		Bool("tile_cache", tiles != nil).
		Msg("Web server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Web server stopped")
}
