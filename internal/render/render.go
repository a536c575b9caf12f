// Package render places one interactive marker per region on the map.
package render

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/fibermap/internal/geo"
)

// MarkerRadius is the circle marker radius in pixels.
const MarkerRadius = 10

// Fallback labels for regions with missing properties.
const (
	UnnamedRegion = "Unnamed Region"
	UnknownStatus = "N/A"
)

// ErrNoMarker is returned when a click targets a marker that does not exist.
var ErrNoMarker = errors.New("marker not found")

// Style is the visual style of a marker in Leaflet path options naming.
type Style struct {
	FillColor   string  `json:"fillColor"`
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fillOpacity"`
}

// StyleFunc derives the style of a region.
type StyleFunc func(f *geojson.Feature) Style

// ClickFunc receives the region behind a clicked marker.
type ClickFunc func(f *geojson.Feature)

// Popup is the info bubble attached to a marker.
// Population and Area are empty when the value is missing or zero.
type Popup struct {
	Title      string `json:"title"`
	Status     string `json:"status"`
	Population string `json:"population,omitempty"`
	Area       string `json:"area,omitempty"`
}

// Marker is a drawn region marker.
type Marker struct {
	Feature *geojson.Feature `json:"-"`
	onClick ClickFunc

	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Popup  Popup  `json:"popup"`
	Style  Style  `json:"style"`
	Center LatLng `json:"center"` // [Lat, Lng]
	Index  int    `json:"index"`
	Radius int    `json:"radius"`
}

// Click invokes the click callback with the originating region.
func (m *Marker) Click() {
	if m.onClick != nil {
		m.onClick(m.Feature)
	}
}

// Map is the set of markers drawn for a region collection, in input order.
type Map struct {
	Markers []*Marker
}

// Len returns the number of markers.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Markers)
}

// Click clicks the marker at index i.
func (m *Map) Click(i int) error {
	if i < 0 || i >= m.Len() {
		return fmt.Errorf("%w: index %d", ErrNoMarker, i)
	}
	m.Markers[i].Click()
	return nil
}

// Bound returns the extent of all region geometries.
func (m *Map) Bound() (orb.Bound, bool) {
	var (
		bound orb.Bound
		found bool
	)
	for _, mk := range m.Markers {
		if mk.Feature.Geometry == nil {
			continue
		}
		b := mk.Feature.Geometry.Bound()
		if !found {
			bound, found = b, true
			continue
		}
		bound = bound.Union(b)
	}
	return bound, found
}

// Renderer computes marker placement.
type Renderer struct {
	overrides *Overrides
	precision float64
}

// NewRenderer creates a renderer with the given exception table and
// pole of inaccessibility precision.
func NewRenderer(overrides []Override, precision float64) *Renderer {
	return &Renderer{
		overrides: NewOverrides(overrides),
		precision: precision,
	}
}

// Render draws one marker per feature. The style function is evaluated once
// per feature and onClick is wired to every marker.
func (r *Renderer) Render(features []*geojson.Feature, style StyleFunc, onClick ClickFunc) *Map {
	m := &Map{Markers: make([]*Marker, 0, len(features))}

	for i, f := range features {
		mk := &Marker{
			Feature: f,
			onClick: onClick,
			Index:   i,
			ID:      geo.IDString(geo.Identifier(f)),
			Name:    geo.Name(f),
			Center:  r.Center(f),
			Radius:  MarkerRadius,
			Popup:   NewPopup(f),
		}
		if style != nil {
			mk.Style = style(f)
		}
		m.Markers = append(m.Markers, mk)
	}

	log.Debug().
		Int("features", len(features)).
		Int("overrides", r.overrides.Len()).
		Msg("Region markers rendered")

	return m
}

// Center returns the marker position of a region as [Lat, Lng].
func (r *Renderer) Center(f *geojson.Feature) LatLng {
	if c, ok := r.overrides.Lookup(f); ok {
		log.Trace().
			Str("region", geo.Name(f)).
			Floats64("center", c[:]).
			Msg("Using manual centre")
		return c
	}

	if f.Geometry == nil {
		log.Warn().
			Str("region", geo.Name(f)).
			Msg("Region has no geometry, placing marker at origin")
		return LatLng{}
	}

	var p orb.Point
	if poly, ok := geo.Outline(f.Geometry); ok {
		p = geo.PoleOfInaccessibility(poly, r.precision)
	} else {
		p = f.Geometry.Bound().Center()
		log.Trace().
			Str("region", geo.Name(f)).
			Str("geometry", f.Geometry.GeoJSONType()).
			Msg("Geometry is not a polygon, using bounding box centre")
	}

	return LatLng{p[1], p[0]}
}

// NewPopup builds the popup content of a region.
func NewPopup(f *geojson.Feature) Popup {
	p := Popup{
		Title:  geo.Name(f),
		Status: geo.Status(f),
	}
	if p.Title == "" {
		p.Title = UnnamedRegion
	}
	if p.Status == "" {
		p.Status = UnknownStatus
	}
	if n, ok := geo.Population(f); ok {
		p.Population = FormatNumber(n)
	}
	if a, ok := geo.Area(f); ok {
		p.Area = FormatNumber(a)
	}
	return p
}
