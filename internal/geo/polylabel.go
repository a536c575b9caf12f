// Package geo handles region geometry: visual centres, feature properties and tile math.
package geo

import (
	"container/heap"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PoleOfInaccessibility returns the point inside the polygon that is farthest
// from its boundary, accurate to precision in source coordinate units.
//
// The polygon bounding box is covered with square cells which are refined
// from the most promising one until no cell can beat the best distance found
// by more than precision.
func PoleOfInaccessibility(polygon orb.Polygon, precision float64) orb.Point {
	if len(polygon) == 0 || len(polygon[0]) == 0 {
		return orb.Point{}
	}

	bound := polygon[0].Bound()
	width := bound.Max[0] - bound.Min[0]
	height := bound.Max[1] - bound.Min[1]
	if width == 0 || height == 0 {
		return bound.Min
	}
	// Cells never start below precision so slivers keep a bounded grid.
	cellSize := math.Max(precision, math.Min(width, height))
	half := cellSize / 2

	queue := &cellQueue{}
	for x := bound.Min[0]; x < bound.Max[0]; x += cellSize {
		for y := bound.Min[1]; y < bound.Max[1]; y += cellSize {
			heap.Push(queue, newCell(orb.Point{x + half, y + half}, half, polygon))
		}
	}

	best := centroidCell(polygon)
	if boxCell := newCell(bound.Center(), 0, polygon); boxCell.dist > best.dist {
		best = boxCell
	}

	for queue.Len() > 0 {
		c := heap.Pop(queue).(cell)

		if c.dist > best.dist {
			best = c
		}
		if c.max-best.dist <= precision {
			continue
		}

		h := c.half / 2
		heap.Push(queue, newCell(orb.Point{c.center[0] - h, c.center[1] - h}, h, polygon))
		heap.Push(queue, newCell(orb.Point{c.center[0] + h, c.center[1] - h}, h, polygon))
		heap.Push(queue, newCell(orb.Point{c.center[0] - h, c.center[1] + h}, h, polygon))
		heap.Push(queue, newCell(orb.Point{c.center[0] + h, c.center[1] + h}, h, polygon))
	}

	return best.center
}

// LargestPolygon returns the polygon with the biggest area, used to centre multi-part regions.
func LargestPolygon(mp orb.MultiPolygon) (orb.Polygon, bool) {
	var (
		largest orb.Polygon
		maxArea = -1.0
	)
	for _, p := range mp {
		if a := math.Abs(planar.Area(p)); a > maxArea {
			largest, maxArea = p, a
		}
	}
	return largest, maxArea >= 0
}

// SignedDistance is the distance from point to the polygon outline,
// positive inside the polygon and negative outside.
func SignedDistance(point orb.Point, polygon orb.Polygon) float64 {
	inside := false
	minDistSq := math.Inf(1)

	for _, ring := range polygon {
		for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
			a, b := ring[i], ring[j]

			if (a[1] > point[1]) != (b[1] > point[1]) &&
				point[0] < (b[0]-a[0])*(point[1]-a[1])/(b[1]-a[1])+a[0] {
				inside = !inside
			}

			if d := planar.DistanceFromSegmentSquared(a, b, point); d < minDistSq {
				minDistSq = d
			}
		}
	}

	if inside {
		return math.Sqrt(minDistSq)
	}
	return -math.Sqrt(minDistSq)
}

type cell struct {
	center orb.Point
	half   float64 // half the cell size
	dist   float64 // signed distance from center to the polygon
	max    float64 // upper bound of the distance inside the cell
}

func newCell(center orb.Point, half float64, polygon orb.Polygon) cell {
	d := SignedDistance(center, polygon)
	return cell{
		center: center,
		half:   half,
		dist:   d,
		max:    d + half*math.Sqrt2,
	}
}

func centroidCell(polygon orb.Polygon) cell {
	centroid, area := planar.CentroidArea(polygon[0])
	if area == 0 || math.IsNaN(centroid[0]) || math.IsNaN(centroid[1]) {
		return newCell(polygon[0][0], 0, polygon)
	}
	return newCell(centroid, 0, polygon)
}

// cellQueue is a max-heap ordered by the potential distance of a cell.
type cellQueue []cell

func (q cellQueue) Len() int           { return len(q) }
func (q cellQueue) Less(i, j int) bool { return q[i].max > q[j].max }
func (q cellQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *cellQueue) Push(x any)        { *q = append(*q, x.(cell)) }
func (q *cellQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}
