package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// MaxLat is the latitude limit of the Web Mercator projection.
const MaxLat = 85.05112878

// LonLatToTile converts WGS84 coordinates to XYZ tile indexes at zoom z
// using the Web Mercator projection.
func LonLatToTile(lon, lat float64, z int) (x, y int) {
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	n := float64(int(1) << z)
	latRad := lat * math.Pi / 180.0

	x = int(math.Floor((lon + 180.0) / 360.0 * n))
	y = int(math.Floor((1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n))

	maxIdx := int(n) - 1
	return clamp(x, 0, maxIdx), clamp(y, 0, maxIdx)
}

// TileRange returns the inclusive tile index range covering bound at zoom z.
func TileRange(bound orb.Bound, z int) (minX, minY, maxX, maxY int) {
	// tile rows grow southwards
	minX, minY = LonLatToTile(bound.Min[0], bound.Max[1], z)
	maxX, maxY = LonLatToTile(bound.Max[0], bound.Min[1], z)
	return minX, minY, maxX, maxY
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
