package shell

import (
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/woozymasta/fibermap/internal/geo"
	"github.com/woozymasta/fibermap/internal/render"
)

// Status colours.
const (
	ColorActive      = "#4CAF50"
	ColorPlanned     = "#FFC107"
	ColorUnavailable = "#F44336"
	ColorUnknown     = "#9E9E9E"
)

// LegendEntry is one swatch of the status legend.
type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// StatusColor maps a connectivity status to its colour, ignoring case.
// Unknown and empty statuses are grey.
func StatusColor(status string) string {
	switch strings.ToLower(status) {
	case "active":
		return ColorActive
	case "planned":
		return ColorPlanned
	case "unavailable":
		return ColorUnavailable
	default:
		return ColorUnknown
	}
}

// RegionStyle is the marker style of a region.
func RegionStyle(f *geojson.Feature) render.Style {
	return render.Style{
		FillColor:   StatusColor(geo.Status(f)),
		Weight:      1.5,
		Opacity:     1,
		Color:       "white",
		FillOpacity: 0.7,
	}
}

// Legend returns the static status legend.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Label: "Active", Color: ColorActive},
		{Label: "Planned", Color: ColorPlanned},
		{Label: "Unavailable", Color: ColorUnavailable},
	}
}
