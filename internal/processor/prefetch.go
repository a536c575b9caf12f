package processor

import (
	"context"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/fibermap/internal/geo"
)

// PrefetchResult summarises a prefetch run.
type PrefetchResult struct {
	Tiles  int
	Failed int
}

// Prefetch fills the cache with every tile covering bound from zoom 0 up to maxZoom.
// Zoom levels are processed in order, each with a pool of concurrency workers.
func (c *TileCache) Prefetch(ctx context.Context, bound orb.Bound, maxZoom, concurrency int) PrefetchResult {
	if maxZoom > c.zoomLimit {
		maxZoom = c.zoomLimit
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	var res PrefetchResult
	for z := 0; z <= maxZoom; z++ {
		if ctx.Err() != nil {
			break
		}

		tiles := TilesInBound(bound, z)
		log.Debug().Int("zoom", z).Int("count", len(tiles)).Msg("Processing zoom level")

		failed := c.processBatch(ctx, concurrency, tiles)
		res.Tiles += len(tiles)
		res.Failed += failed
	}

	return res
}

// TilesInBound lists the tiles covering bound at zoom z.
func TilesInBound(bound orb.Bound, z int) []TileCoordinate {
	minX, minY, maxX, maxY := geo.TileRange(bound, z)

	tiles := make([]TileCoordinate, 0, (maxX-minX+1)*(maxY-minY+1))
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			tiles = append(tiles, TileCoordinate{Z: z, X: x, Y: y})
		}
	}
	return tiles
}

func (c *TileCache) processBatch(ctx context.Context, concurrency int, tiles []TileCoordinate) int {
	jobs := make(chan TileCoordinate, len(tiles))
	for _, t := range tiles {
		jobs <- t
	}
	close(jobs)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				if ctx.Err() != nil {
					return
				}
				if _, err := c.Get(ctx, t); err != nil {
					log.Trace().Err(err).Str("tile", t.String()).Msg("Failed to prefetch tile")
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	return failed
}
