package shell

import (
	"maps"

	"github.com/paulmach/orb/geojson"
	"github.com/woozymasta/fibermap/internal/geo"
	"github.com/woozymasta/fibermap/internal/render"
)

// Selection is a copy of the clicked region properties with "id" set to the
// feature identifier.
type Selection map[string]any

// NewSelection copies the feature properties. The feature id always wins over
// an "id" property, even when the feature has none.
func NewSelection(f *geojson.Feature) Selection {
	sel := make(Selection, len(f.Properties)+1)
	maps.Copy(sel, f.Properties)
	sel[geo.PropID] = f.ID
	return sel
}

// Panel is the side panel content.
type Panel struct {
	Name        string `json:"name,omitempty"`
	Status      string `json:"status,omitempty"`
	Color       string `json:"color,omitempty"`
	Population  string `json:"population,omitempty"`
	Area        string `json:"area,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Selected    bool   `json:"selected"`
}

// NewPanel renders the side panel for a selection, nil means nothing selected yet.
// Population and area are shown only when present and not zero.
func NewPanel(sel Selection) Panel {
	if sel == nil {
		return Panel{Placeholder: PlaceholderMessage}
	}

	f := &geojson.Feature{Properties: geojson.Properties(sel)}
	p := Panel{
		Selected: true,
		Name:     geo.Name(f),
		Status:   geo.Status(f),
	}
	if p.Name == "" {
		p.Name = render.UnnamedRegion
	}
	p.Color = StatusColor(p.Status)

	if n, ok := geo.Population(f); ok {
		p.Population = render.FormatNumber(n)
	}
	if a, ok := geo.Area(f); ok {
		p.Area = render.FormatNumber(a)
	}
	return p
}
