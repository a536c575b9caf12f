// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/fibermap/internal/processor"
	"github.com/woozymasta/fibermap/internal/render"
	"github.com/woozymasta/fibermap/internal/shell"
)

// Routes registers all handlers and wraps them with the request logger.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/markers", s.HandleMarkers)
	mux.HandleFunc("POST /api/markers/{index}/click", s.HandleMarkerClick)
	mux.HandleFunc("GET /api/selection", s.HandleSelection)
	mux.HandleFunc("GET /tiles/{z}/{x}/{y}", s.HandleTile)
	mux.HandleFunc("GET /healthz", s.HandleHealth)
	mux.Handle("GET /metrics", s.Metrics.Handler())
	mux.HandleFunc("GET /favicon.ico", s.HandleFavicon)
	mux.HandleFunc("GET /{$}", s.HandleIndex)

	return RequestLogger(s.Metrics, mux)
}

type mapConfig struct {
	Markers     []*render.Marker `json:"markers"`
	TileURL     string           `json:"tileURL"`
	Attribution string           `json:"attribution"`
	Center      render.LatLng    `json:"center"`
	Zoom        int              `json:"zoom"`
	MaxZoom     int              `json:"maxZoom"`
}

type pageData struct {
	Legend      []shell.LegendEntry
	Map         mapConfig
	Panel       shell.Panel
	Title       string
	Subtitle    string
	Footer      string
	State       string
	Message     string
	Attribution template.HTML
	CSS         template.CSS
	JS          template.JS
	Year        int
}

// HandleIndex serves the map page rendered from the current application state.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, _ *http.Request) {
	view := s.Shell.View()
	data := pageData{
		Title:    s.Config.Title,
		Subtitle: s.Config.Subtitle,
		Footer:   s.Config.Footer,
		State:    view.State.String(),
		Message:  view.Message,
		Panel:    view.Panel,
		Legend:   view.Legend,
		Year:     view.Year,
		// trusted: comes from the operator config
		Attribution: template.HTML(s.Config.Map.Attribution),
		CSS:         s.css,
		JS:          s.js,
		Map: mapConfig{
			Markers:     view.Markers,
			TileURL:     s.TileURL(),
			Attribution: s.Config.Map.Attribution,
			Center:      s.Config.Map.Center,
			Zoom:        s.Config.Map.Zoom,
			MaxZoom:     s.maxZoom(),
		},
	}

	var buf bytes.Buffer
	if err := s.page.Execute(&buf, data); err != nil {
		log.Error().Err(err).Msg("Failed to render page")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.minifier.Minify("text/html", w, &buf); err != nil {
		log.Warn().Err(err).Msg("Failed to minify page")
	}
}

// HandleMarkers serves the drawn markers as JSON.
func (s *ServerContext) HandleMarkers(w http.ResponseWriter, _ *http.Request) {
	view := s.Shell.View()
	markers := view.Markers
	if markers == nil {
		markers = []*render.Marker{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"state":   view.State.String(),
		"markers": markers,
	})
}

// HandleMarkerClick clicks a marker and returns the updated side panel.
func (s *ServerContext) HandleMarkerClick(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid marker index")
		return
	}

	switch err := s.Shell.Click(index); {
	case errors.Is(err, shell.ErrNotLoaded):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, render.ErrNoMarker):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.Shell.Panel())
}

// HandleSelection serves the side panel of the current selection.
func (s *ServerContext) HandleSelection(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Shell.Panel())
}

// HandleTile serves a WebP tile from the local tile cache.
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	if s.Tiles == nil {
		http.NotFound(w, r)
		return
	}

	z, errZ := strconv.Atoi(r.PathValue("z"))
	x, errX := strconv.Atoi(r.PathValue("x"))
	y, errY := strconv.Atoi(strings.TrimSuffix(r.PathValue("y"), ".webp"))
	if errZ != nil || errX != nil || errY != nil {
		http.NotFound(w, r)
		return
	}

	data, err := s.Tiles.Get(r.Context(), processor.TileCoordinate{Z: z, X: x, Y: y})
	if errors.Is(err, processor.ErrTileRange) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Warn().Err(err).Int("z", z).Int("x", x).Int("y", y).Msg("Failed to get tile")
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(data)
}

// HandleHealth reports liveness together with the load state.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"state":  s.Shell.State().String(),
	})
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

func (s *ServerContext) maxZoom() int {
	if s.Tiles != nil {
		return s.Config.Tiles.ZoomLimit
	}
	return 18
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
