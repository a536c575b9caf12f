// Package shell owns the application state: load state, region markers and
// the selected region.
package shell

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/woozymasta/fibermap/internal/geo"
	"github.com/woozymasta/fibermap/internal/metrics"
	"github.com/woozymasta/fibermap/internal/render"
)

// Fixed user facing messages.
const (
	LoadingMessage     = "Loading map data..."
	ErrorMessage       = "Failed to load region data. Please check the backend connection."
	PlaceholderMessage = "Click on a region on the map to see details."
)

// ErrNotLoaded is returned for marker operations before the regions are loaded.
var ErrNotLoaded = errors.New("regions are not loaded")

// State is the load state of the application.
type State int

// Load states. Loaded and Error are terminal.
const (
	Loading State = iota
	Loaded
	Error
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Fetcher retrieves the region collection shown on the map.
type Fetcher interface {
	FetchRegionsGeoJSON(ctx context.Context) (*geojson.FeatureCollection, error)
}

// Shell composes the fetcher, the marker renderer and the side panel.
// It is safe for concurrent use.
type Shell struct {
	fetcher  Fetcher
	renderer *render.Renderer
	clock    clockwork.Clock
	metrics  *metrics.Metrics

	mu       sync.RWMutex
	err      error
	markers  *render.Map
	selected Selection
	state    State
	started  bool
}

// New creates a shell in the loading state.
func New(fetcher Fetcher, renderer *render.Renderer, clock clockwork.Clock, m *metrics.Metrics) *Shell {
	m.ShellState.Set(float64(Loading))
	return &Shell{
		fetcher:  fetcher,
		renderer: renderer,
		clock:    clock,
		metrics:  m,
	}
}

// Load fetches the regions once and draws their markers. Any failure moves
// the shell to the Error state for good. Calls after the first one do nothing.
// Cancelling ctx aborts the fetch.
func (s *Shell) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		log.Debug().Msg("Regions already requested, skipping load")
		return nil
	}
	s.started = true
	s.mu.Unlock()

	fc, err := s.fetcher.FetchRegionsGeoJSON(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching regions")
		s.finish(Error, nil, err)
		return err
	}

	var features []*geojson.Feature
	if fc != nil {
		features = fc.Features
	}
	markers := s.renderer.Render(features, RegionStyle, s.Select)
	s.finish(Loaded, markers, nil)

	log.Info().
		Int("regions", markers.Len()).
		Msg("Regions loaded")

	return nil
}

func (s *Shell) finish(state State, markers *render.Map, err error) {
	s.mu.Lock()
	s.state = state
	s.markers = markers
	s.err = err
	s.mu.Unlock()

	s.metrics.ShellState.Set(float64(state))
	s.metrics.Regions.Set(float64(markers.Len()))
}

// State returns the current load state.
func (s *Shell) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Err returns the load failure, nil unless the state is Error.
func (s *Shell) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Markers returns the drawn markers, nil until loaded.
func (s *Shell) Markers() *render.Map {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.markers
}

// Select replaces the selected region with the given feature.
// It is the click callback handed to the renderer.
func (s *Shell) Select(f *geojson.Feature) {
	sel := NewSelection(f)

	s.mu.Lock()
	s.selected = sel
	s.mu.Unlock()

	s.metrics.MarkerClicks.Inc()
	log.Debug().
		Str("region", geo.Name(f)).
		Str("id", geo.IDString(f.ID)).
		Msg("Region selected")
}

// Click clicks the marker at index i.
func (s *Shell) Click(i int) error {
	markers := s.Markers()
	if markers == nil {
		return ErrNotLoaded
	}
	return markers.Click(i)
}

// Selection returns a copy of the selected region, nil if nothing was clicked yet.
func (s *Shell) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	return maps.Clone(s.selected)
}

// Panel renders the side panel for the current selection.
func (s *Shell) Panel() Panel {
	return NewPanel(s.Selection())
}

// View is a consistent snapshot of everything the page shows.
type View struct {
	Markers []*render.Marker
	Legend  []LegendEntry
	Message string
	Panel   Panel
	State   State
	Year    int
}

// View takes a snapshot of the shell for rendering. Markers, panel and legend
// are only filled in the Loaded state.
func (s *Shell) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		State: s.state,
		Year:  s.clock.Now().Year(),
	}

	switch s.state {
	case Loading:
		v.Message = LoadingMessage
	case Error:
		v.Message = ErrorMessage
	case Loaded:
		v.Markers = s.markers.Markers
		v.Panel = NewPanel(s.selected)
		v.Legend = Legend()
	}

	return v
}
