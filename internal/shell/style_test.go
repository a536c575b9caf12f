package shell

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
)

func TestStatusColor(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"Active", ColorActive},
		{"ACTIVE", ColorActive},
		{"active", ColorActive},
		{"Planned", ColorPlanned},
		{"unavailable", ColorUnavailable},
		{"UnAvailable", ColorUnavailable},
		{"", ColorUnknown},
		{"decommissioned", ColorUnknown},
		{" active", ColorUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusColor(tt.status))
		})
	}
}

func TestRegionStyle(t *testing.T) {
	f := geojson.NewFeature(orb.Polygon{})
	f.Properties["fiber_status"] = "Planned"

	s := RegionStyle(f)
	assert.Equal(t, ColorPlanned, s.FillColor)
	assert.Equal(t, "white", s.Color)
	assert.Equal(t, 1.5, s.Weight)
	assert.Equal(t, 1.0, s.Opacity)
	assert.Equal(t, 0.7, s.FillOpacity)

	delete(f.Properties, "fiber_status")
	assert.Equal(t, ColorUnknown, RegionStyle(f).FillColor)
}

func TestLegend(t *testing.T) {
	l := Legend()
	assert.Len(t, l, 3)
	assert.Equal(t, LegendEntry{Label: "Active", Color: ColorActive}, l[0])
}
