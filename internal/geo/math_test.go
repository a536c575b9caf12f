package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestLonLatToTile(t *testing.T) {
	x, y := LonLatToTile(0, 0, 0)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)

	x, y = LonLatToTile(0.1, -0.1, 1)
	assert.Equal(t, 1, x)
	assert.Equal(t, 1, y)

	x, y = LonLatToTile(-179.9, 89.9, 3)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)

	x, y = LonLatToTile(180, -90, 3)
	assert.Equal(t, 7, x)
	assert.Equal(t, 7, y)
}

func TestTileRange(t *testing.T) {
	namibia := orb.Bound{Min: orb.Point{11.7, -28.9}, Max: orb.Point{25.3, -16.9}}

	minX, minY, maxX, maxY := TileRange(namibia, 2)
	assert.Equal(t, 2, minX)
	assert.Equal(t, 2, minY)
	assert.Equal(t, 2, maxX)
	assert.Equal(t, 2, maxY)

	minX, minY, maxX, maxY = TileRange(namibia, 6)
	assert.LessOrEqual(t, minX, maxX)
	assert.LessOrEqual(t, minY, maxY)
}
