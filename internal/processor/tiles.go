// Package processor handles downloading and converting map tiles.
package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/woozymasta/fibermap/internal/config"
	"github.com/woozymasta/fibermap/internal/metrics"

	"github.com/chai2010/webp"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// TileSize is the edge length of served tiles in pixels.
const TileSize = 256

// ErrTileRange is returned for tile coordinates outside the served pyramid.
var ErrTileRange = errors.New("tile out of range")

var subdomains = []string{"a", "b", "c"}

// TileCoordinate represents a specific tile.
type TileCoordinate struct {
	Z, X, Y int
}

func (t TileCoordinate) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// TileCache mirrors upstream raster tiles to disk as WebP.
type TileCache struct {
	client      *http.Client
	metrics     *metrics.Metrics
	dir         string
	upstream    string
	transparent []byte
	next        atomic.Uint32
	zoomLimit   int
	quality     int
}

// NewTileCache creates a cache for the configured upstream template.
func NewTileCache(client *http.Client, cfg config.Tiles, m *metrics.Metrics) (*TileCache, error) {
	var buf bytes.Buffer
	empty := image.NewNRGBA(image.Rect(0, 0, TileSize, TileSize))
	if err := webp.Encode(&buf, empty, &webp.Options{Lossless: true}); err != nil {
		return nil, fmt.Errorf("encode transparent tile: %w", err)
	}

	return &TileCache{
		client:      client,
		metrics:     m,
		dir:         cfg.Dir,
		upstream:    cfg.Upstream,
		transparent: buf.Bytes(),
		zoomLimit:   cfg.ZoomLimit,
		quality:     cfg.Quality,
	}, nil
}

// Path returns the on-disk location of a tile.
func (c *TileCache) Path(t TileCoordinate) string {
	return filepath.Join(c.dir, strconv.Itoa(t.Z), strconv.Itoa(t.X), strconv.Itoa(t.Y)+".webp")
}

// Get returns the WebP tile, downloading and converting it on a cache miss.
// Tiles missing upstream are answered with a transparent tile which is not stored.
func (c *TileCache) Get(ctx context.Context, t TileCoordinate) ([]byte, error) {
	if !c.inRange(t) {
		return nil, fmt.Errorf("%w: %s", ErrTileRange, t)
	}

	outPath := c.Path(t)
	if data, err := os.ReadFile(outPath); err == nil && len(data) > 0 {
		c.metrics.TileRequests.WithLabelValues("hit").Inc()
		return data, nil
	}

	start := time.Now()
	data, ok, err := c.download(ctx, t)
	if err != nil {
		c.metrics.TileRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	if !ok {
		c.metrics.TileRequests.WithLabelValues("empty").Inc()
		return c.transparent, nil
	}
	c.metrics.TileDownloads.Observe(time.Since(start).Seconds())

	if err := writeFileAtomic(outPath, data); err != nil {
		log.Error().Err(err).Str("path", outPath).Msg("Failed to store tile")
	}

	c.metrics.TileRequests.WithLabelValues("miss").Inc()
	return data, nil
}

func (c *TileCache) inRange(t TileCoordinate) bool {
	if t.Z < 0 || t.Z > c.zoomLimit {
		return false
	}
	n := 1 << t.Z
	return t.X >= 0 && t.X < n && t.Y >= 0 && t.Y < n
}

// download fetches and converts one tile. It reports false when the upstream
// has no usable image for it.
func (c *TileCache) download(ctx context.Context, t TileCoordinate) ([]byte, bool, error) {
	sub := subdomains[int(c.next.Add(1))%len(subdomains)]
	url := buildURL(c.upstream, t, sub)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", "fibermap-tile-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		log.Trace().Str("url", url).Msg("Tile not found (404)")
		return nil, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("tile %s: status code %d", t, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, err
	}

	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		log.Trace().Err(err).Str("url", url).Msg("Failed to decode image")
		return nil, false, nil
	}

	// Filter out empty/1px tiles often returned by map servers for OOB areas
	if img.Bounds().Dx() <= 1 {
		log.Trace().Str("url", url).Msg("Filtered empty tile")
		return nil, false, nil
	}

	img = normalize(img)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: false, Quality: float32(c.quality)}); err != nil {
		return nil, false, fmt.Errorf("encode tile %s: %w", t, err)
	}

	log.Trace().
		Str("url", url).
		Str("format", format).
		Int("bytes", buf.Len()).
		Msg("Tile converted")

	return buf.Bytes(), true, nil
}

// normalize scales high density upstream tiles down to TileSize.
func normalize(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() == TileSize && b.Dy() == TileSize {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, TileSize, TileSize))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func buildURL(tpl string, c TileCoordinate, subdomain string) string {
	s := strings.ReplaceAll(tpl, "{s}", subdomain)
	s = strings.ReplaceAll(s, "{z}", strconv.Itoa(c.Z))
	s = strings.ReplaceAll(s, "{x}", strconv.Itoa(c.X))
	s = strings.ReplaceAll(s, "{y}", strconv.Itoa(c.Y))

	if strings.Contains(s, "{tms_y}") {
		maxCoord := (1 << c.Z) - 1
		tmsY := maxCoord - c.Y
		s = strings.ReplaceAll(s, "{tms_y}", strconv.Itoa(tmsY))
	}

	return s
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".tile-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}
