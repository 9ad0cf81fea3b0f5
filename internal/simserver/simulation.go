package simserver

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"sync"

	"github.com/spacehole-rogue/orbitview/internal/view"
	"github.com/spacehole-rogue/orbitview/internal/world"
)

// Time scale bounds accepted on reads.
const (
	MinTimeScale = 0.01
	MaxTimeScale = 100.0
)

// Config sets up a Simulation.
type Config struct {
	Reference      string  // body every selection must contain
	BaseStep       float64 // seconds per step at time scale 1, before StepMultiplier
	StepMultiplier float64
	ViewWidth      int // size of the server's viewport mirror
	ViewHeight     int
	BaseScale      float64
}

// DefaultConfig matches the viewer's defaults: 600 s x 200 per read and an
// 800x600 viewport at 100 px/AU.
func DefaultConfig() Config {
	return Config{
		Reference:      world.DefaultReference,
		BaseStep:       600,
		StepMultiplier: 200,
		ViewWidth:      800,
		ViewHeight:     600,
		BaseScale:      view.DefaultBaseScale,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Reference == "" {
		c.Reference = d.Reference
	}
	if c.BaseStep <= 0 {
		c.BaseStep = d.BaseStep
	}
	if c.StepMultiplier <= 0 {
		c.StepMultiplier = d.StepMultiplier
	}
	if c.ViewWidth <= 0 || c.ViewHeight <= 0 {
		c.ViewWidth, c.ViewHeight = d.ViewWidth, d.ViewHeight
	}
	if c.BaseScale <= 0 {
		c.BaseScale = d.BaseScale
	}
	return c
}

// ViewQuery is the viewport part of a read request.
type ViewQuery struct {
	Move          bool
	MoveX, MoveY  float64
	Zoom          string // "in", "out" or empty
	ResetViewport bool
}

// ParseQuery reads the time scale and viewport changes of a read request.
// A missing scale means 1; a present one is clamped to
// [MinTimeScale, MaxTimeScale].
func ParseQuery(q url.Values) (float64, ViewQuery, error) {
	timeScale := 1.0
	if s := q.Get("scale"); s != "" {
		f, err := parseFinite("scale", s)
		if err != nil {
			return 0, ViewQuery{}, err
		}
		timeScale = math.Max(MinTimeScale, math.Min(f, MaxTimeScale))
	}

	var vq ViewQuery
	if s := q.Get("moveX"); s != "" {
		x, err := parseFinite("moveX", s)
		if err != nil {
			return 0, ViewQuery{}, err
		}
		var y float64
		if s := q.Get("moveY"); s != "" {
			if y, err = parseFinite("moveY", s); err != nil {
				return 0, ViewQuery{}, err
			}
		}
		vq.Move, vq.MoveX, vq.MoveY = true, x, y
	}
	switch z := q.Get("zoom"); z {
	case "", "in", "out":
		vq.Zoom = z
	default:
		return 0, ViewQuery{}, fmt.Errorf("invalid zoom %q", z)
	}
	if s := q.Get("resetViewport"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return 0, ViewQuery{}, fmt.Errorf("invalid resetViewport %q", s)
		}
		vq.ResetViewport = b
	}
	return timeScale, vq, nil
}

func parseFinite(name, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return f, nil
}

// ScreenBody is a body as served, with its position in the server's
// viewport mirror.
type ScreenBody struct {
	world.Body
	ScreenX float64 `json:"screenX"`
	ScreenY float64 `json:"screenY"`
}

// State is one served snapshot.
type State struct {
	Scale  float64      `json:"scale"`
	Bodies []ScreenBody `json:"bodies"`
}

// Simulation is the authoritative body state of the reference backend. It
// is safe for concurrent use.
type Simulation struct {
	cfg     Config
	catalog *Catalog

	mu        sync.Mutex
	selection []string // nil selects the whole catalog
	particles []particle
	camera    *view.Camera
	steps     uint64
}

// NewSimulation loads the whole catalog as the initial run.
func NewSimulation(ctx context.Context, catalog *Catalog, cfg Config) (*Simulation, error) {
	cfg = cfg.withDefaults()
	s := &Simulation{
		cfg:     cfg,
		catalog: catalog,
		camera:  view.NewCamera(cfg.ViewWidth, cfg.ViewHeight, cfg.BaseScale),
	}
	ps, err := s.load(ctx, nil)
	if err != nil {
		return nil, err
	}
	s.particles = ps
	return s, nil
}

// Config returns the effective configuration.
func (s *Simulation) Config() Config { return s.cfg }

// Start replaces the run with the named bodies. On error the current run
// is kept.
func (s *Simulation) Start(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("no bodies selected")
	}
	ps, err := s.load(ctx, names)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.selection = append([]string(nil), names...)
	s.particles = ps
	s.mu.Unlock()
	return nil
}

// Reset reloads the current selection from the catalog and returns its
// initial bodies.
func (s *Simulation) Reset(ctx context.Context) ([]ScreenBody, error) {
	s.mu.Lock()
	names := s.selection
	s.mu.Unlock()

	ps, err := s.load(ctx, names)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.particles = ps
	return s.screenBodies(), nil
}

// Step applies vq to the viewport mirror, advances the bodies by one step
// at timeScale and returns the new state.
func (s *Simulation) Step(timeScale float64, vq ViewQuery) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vq.ResetViewport {
		s.camera.Recenter(s.cfg.ViewWidth, s.cfg.ViewHeight)
		s.camera.ResetZoom()
	}
	if vq.Move {
		s.camera.Pan(vq.MoveX, vq.MoveY)
	}
	switch vq.Zoom {
	case "in":
		s.camera.ZoomIn()
	case "out":
		s.camera.ZoomOut()
	}
	s.camera.Tick()

	step(s.particles, s.cfg.BaseStep*timeScale*s.cfg.StepMultiplier)
	s.steps++
	return State{Scale: s.camera.State().CurrentScale, Bodies: s.screenBodies()}
}

// Steps counts integration steps since creation.
func (s *Simulation) Steps() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}

func (s *Simulation) load(ctx context.Context, names []string) ([]particle, error) {
	var (
		entries []world.CatalogEntry
		err     error
	)
	if names == nil {
		entries, err = s.catalog.All(ctx)
	} else {
		entries, err = s.catalog.Select(ctx, names)
	}
	if err != nil {
		return nil, err
	}
	ps := newParticles(entries)
	if err := initOrbits(ps, s.cfg.Reference); err != nil {
		return nil, err
	}
	return ps, nil
}

// screenBodies must be called with mu held.
func (s *Simulation) screenBodies() []ScreenBody {
	out := make([]ScreenBody, len(s.particles))
	for i, p := range s.particles {
		b := p.body()
		x, y := s.camera.WorldToScreen(b.WorldX, b.WorldY)
		out[i] = ScreenBody{Body: b, ScreenX: x, ScreenY: y}
	}
	return out
}
