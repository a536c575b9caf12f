package render

import (
	"github.com/paulmach/orb/geojson"
	"github.com/woozymasta/fibermap/internal/geo"
)

// LatLng is a map coordinate in the Leaflet order.
type LatLng [2]float64

// Override pins the marker of one region to a hand-picked coordinate.
// Regions are matched by ID, entries without an ID match by display name.
type Override struct {
	ID     string `yaml:"id,omitempty" json:"id,omitempty"`
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Center LatLng `yaml:"center" json:"center"` // [Lat, Lng]
}

// DefaultOverrides returns the exception table for regions whose thin or
// concave outline pushes the computed centre off the landmass.
func DefaultOverrides() []Override {
	return []Override{
		{Name: "Kunene", Center: LatLng{-19.0, 14.0}},
		{Name: "Oshana", Center: LatLng{-18.0, 15.7}},
		{Name: "Oshikoto", Center: LatLng{-18.5, 16.5}},
		{Name: "Omaheke", Center: LatLng{-22.0, 19.5}},
		{Name: "Zambezi", Center: LatLng{-17.8, 24.0}},
	}
}

// Overrides is an indexed exception table.
type Overrides struct {
	byID   map[string]LatLng
	byName map[string]LatLng
}

// NewOverrides indexes the table, later entries win.
func NewOverrides(entries []Override) *Overrides {
	o := &Overrides{
		byID:   make(map[string]LatLng),
		byName: make(map[string]LatLng),
	}
	for _, e := range entries {
		if e.ID != "" {
			o.byID[e.ID] = e.Center
			continue
		}
		if e.Name != "" {
			o.byName[e.Name] = e.Center
		}
	}
	return o
}

// Lookup returns the pinned centre for a feature.
func (o *Overrides) Lookup(f *geojson.Feature) (LatLng, bool) {
	if o == nil {
		return LatLng{}, false
	}
	if id := geo.IDString(geo.Identifier(f)); id != "" {
		if c, ok := o.byID[id]; ok {
			return c, true
		}
	}
	c, ok := o.byName[geo.Name(f)]
	return c, ok
}

// Len returns the number of entries in the table.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.byID) + len(o.byName)
}
