package server

import (
	"fmt"
	"html/template"
	"regexp"

	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/woozymasta/fibermap/assets"
	"github.com/woozymasta/fibermap/internal/config"
	"github.com/woozymasta/fibermap/internal/metrics"
	"github.com/woozymasta/fibermap/internal/processor"
	"github.com/woozymasta/fibermap/internal/shell"
)

// CachedTileURL is the tile template served by the local tile cache.
const CachedTileURL = "/tiles/{z}/{x}/{y}.webp"

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config  *config.Config
	Shell   *shell.Shell
	Tiles   *processor.TileCache // nil when the tile cache is disabled
	Metrics *metrics.Metrics

	minifier *minify.M
	page     *template.Template
	css      template.CSS
	js       template.JS
	Favicon  []byte
}

// NewServerContext minifies the embedded assets and compiles the page template.
func NewServerContext(cfg *config.Config, sh *shell.Shell, tiles *processor.TileCache, m *metrics.Metrics) (*ServerContext, error) {
	mini := NewMinifier()

	cssMin, err := mini.String("text/css", assets.Style)
	if err != nil {
		return nil, fmt.Errorf("minify css: %w", err)
	}
	jsMin, err := mini.String("text/javascript", assets.Script)
	if err != nil {
		return nil, fmt.Errorf("minify js: %w", err)
	}
	svgMin, err := mini.String("image/svg+xml", assets.Favicon)
	if err != nil {
		return nil, fmt.Errorf("minify svg: %w", err)
	}

	page, err := template.New("index").Parse(assets.IndexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}

	log.Debug().
		Int("css_bytes", len(cssMin)).
		Int("js_bytes", len(jsMin)).
		Int("svg_bytes", len(svgMin)).
		Bool("tile_cache", tiles != nil).
		Msg("Page assets prepared")

	return &ServerContext{
		Config:   cfg,
		Shell:    sh,
		Tiles:    tiles,
		Metrics:  m,
		minifier: mini,
		page:     page,
		css:      template.CSS(cssMin),
		js:       template.JS(jsMin),
		Favicon:  []byte(svgMin),
	}, nil
}

// NewMinifier returns a minifier for the page content types.
func NewMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return m
}

// TileURL returns the tile template used by the page.
func (s *ServerContext) TileURL() string {
	if s.Tiles != nil {
		return CachedTileURL
	}
	return s.Config.Map.TileURL
}
