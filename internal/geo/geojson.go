package geo

import (
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Property keys used by the region API.
const (
	PropID         = "id"
	PropName       = "name"
	PropStatus     = "fiber_status"
	PropPopulation = "population"
	PropArea       = "area_km2"
)

// FeatureCollectionType is the discriminator of a region collection.
const FeatureCollectionType = "FeatureCollection"

// Name returns the display name of a region or an empty string.
func Name(f *geojson.Feature) string {
	return f.Properties.MustString(PropName, "")
}

// Status returns the raw connectivity status of a region or an empty string.
func Status(f *geojson.Feature) string {
	return f.Properties.MustString(PropStatus, "")
}

// Population returns the population when it is set and not zero.
// Fractional values are kept as sent by the API.
func Population(f *geojson.Feature) (float64, bool) {
	v, ok := number(f.Properties[PropPopulation])
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}

// Area returns the area in square kilometers when it is set and not zero.
func Area(f *geojson.Feature) (float64, bool) {
	v, ok := number(f.Properties[PropArea])
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}

// Identifier returns the feature id, falling back to the "id" property
// because the region API nests it inside properties.
func Identifier(f *geojson.Feature) any {
	if f.ID != nil {
		return f.ID
	}
	return f.Properties[PropID]
}

// IDString formats an identifier for lookups and URLs.
func IDString(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return ""
	}
}

// Outline returns the polygon used to place a marker for the feature geometry.
// MultiPolygons are reduced to their largest part.
func Outline(g orb.Geometry) (orb.Polygon, bool) {
	switch v := g.(type) {
	case orb.Polygon:
		return v, len(v) > 0
	case orb.MultiPolygon:
		return LargestPolygon(v)
	default:
		return nil, false
	}
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
