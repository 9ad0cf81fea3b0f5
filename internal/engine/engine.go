// Package engine ties the camera, trace history, poller and renderer into
// one per-session viewport engine driven by explicit commands.
package engine

import (
	"errors"
	"image/color"
	"math"
	"time"

	"github.com/spacehole-rogue/orbitview/internal/poll"
	"github.com/spacehole-rogue/orbitview/internal/render"
	"github.com/spacehole-rogue/orbitview/internal/trace"
	"github.com/spacehole-rogue/orbitview/internal/view"
	"github.com/spacehole-rogue/orbitview/internal/world"
)

// Time scale bounds, matching what the backend accepts.
const (
	MinTimeScale = 0.01
	MaxTimeScale = 100.0
)

// Backend is the engine's view of the snapshot poller.
type Backend interface {
	Poll(now time.Time, timeScale float64) bool
	Latest() (world.Snapshot, bool)
	Restarted() bool
	Notices() <-chan poll.Notice
	Pan(dx, dy float64)
	ZoomIn()
	ZoomOut()
	Resize()
	StartSimulation(names []string)
	ResetSimulation()
}

var _ Backend = (*poll.Poller)(nil)

// ErrNoExport is returned by ExportTraces when the engine has no exporter.
var ErrNoExport = errors.New("trace export disabled")

// ExportFunc writes trace history to path.
type ExportFunc func(traces render.Traces, colors map[string]color.NRGBA, path string) error

// Config sets up an Engine.
type Config struct {
	Width, Height int
	TimeScale     float64
	TraceLimit    int
	Selection     []string // bodies started by a StartSimulation without names
	NoticeLimit   int
	Render        render.Options
}

// DefaultConfig is an 800x600 view of the inner planets.
func DefaultConfig() Config {
	return Config{
		Width:       800,
		Height:      600,
		TimeScale:   1,
		TraceLimit:  trace.MaxPoints,
		Selection:   []string{"Mercury", "Venus", "Earth", "Mars"},
		NoticeLimit: 6,
		Render:      render.DefaultOptions(),
	}
}

// Engine owns all per-session mutable viewer state. It is driven from a
// single goroutine: Tick, Draw and ComposeHUD must not run concurrently.
type Engine struct {
	cfg      Config
	backend  Backend
	camera   *view.Camera
	traces   *trace.Store
	renderer *render.Renderer
	hud      *render.HUD
	notices  *NoticeLog
	export   ExportFunc

	bodies    []world.Body
	timeScale float64
	seeded    bool
	adopted   int

	width, height int
	dragging      bool
	pendingResize *Resize

	hasCursor        bool
	cursorX, cursorY float64
}

// New creates an engine drawing snapshots from backend. export may be nil
// to disable ExportTraces.
func New(cfg Config, backend Backend, export ExportFunc) *Engine {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 800, 600
	}
	if cfg.Render.BaseScale <= 0 {
		cfg.Render.BaseScale = view.DefaultBaseScale
	}
	return &Engine{
		cfg:       cfg,
		backend:   backend,
		camera:    view.NewCamera(cfg.Width, cfg.Height, cfg.Render.BaseScale),
		traces:    trace.NewStore(cfg.TraceLimit),
		renderer:  render.NewRenderer(cfg.Render),
		hud:       render.NewHUD(),
		notices:   NewNoticeLog(cfg.NoticeLimit),
		export:    export,
		timeScale: clampTimeScale(cfg.TimeScale),
		width:     cfg.Width,
		height:    cfg.Height,
	}
}

// Tick advances the engine by one frame: it applies cmds in order, lets the
// poller issue requests, restarts the view once a start or reset has
// succeeded, adopts the newest completed snapshot, advances zoom smoothing
// and records trails for an adopted snapshot.
func (e *Engine) Tick(now time.Time, cmds []Command) {
	for _, c := range cmds {
		c.apply(e)
	}
	e.drainNotices()

	e.backend.Poll(now, e.timeScale)
	snap, ok := e.backend.Latest()
	if e.backend.Restarted() {
		e.restart()
	}
	if ok {
		e.adopt(snap)
	}
	e.camera.Tick()
	if ok && e.renderer.Options.ShowTrails {
		e.traces.Record(e.bodies)
	}
}

// Draw renders the current frame onto c.
func (e *Engine) Draw(c render.Canvas) {
	e.renderer.Render(c, render.Frame{
		Bodies: e.bodies,
		Camera: e.camera.State(),
		Traces: e.traces,
	})
}

// ComposeHUD lays out the status overlay into buf.
func (e *Engine) ComposeHUD(buf *render.CellBuffer) {
	e.hud.Compose(buf, e.Status())
}

// Status summarises the engine for the HUD.
func (e *Engine) Status() render.Status {
	s := render.Status{
		Scale:     e.camera.State().CurrentScale,
		TimeScale: e.timeScale,
		Trails:    e.renderer.Options.ShowTrails,
		Orbits:    e.renderer.Options.ShowOrbits,
		Bodies:    len(e.bodies),
		Traces:    e.traces.Len(),
		Notices:   e.notices.Lines(),
	}
	if e.hasCursor {
		x, y := e.camera.ScreenToWorld(e.cursorX, e.cursorY)
		s.HasCursor = true
		s.CursorX, s.CursorY = x/world.AU, y/world.AU
	}
	return s
}

// Camera returns the camera state.
func (e *Engine) Camera() view.State { return e.camera.State() }

// Bodies returns the resident body list.
func (e *Engine) Bodies() []world.Body { return e.bodies }

// Traces returns the trace history.
func (e *Engine) Traces() *trace.Store { return e.traces }

// TimeScale returns the time scale sent with every read.
func (e *Engine) TimeScale() float64 { return e.timeScale }

// Adopted counts snapshots taken from the poller.
func (e *Engine) Adopted() int { return e.adopted }

// Dragging reports whether a pointer drag is in progress.
func (e *Engine) Dragging() bool { return e.dragging }

// Size returns the viewport size.
func (e *Engine) Size() (int, int) { return e.width, e.height }

// Notify adds a local notice to the HUD.
func (e *Engine) Notify(text string, warning bool) { e.notices.Add(text, warning) }

// adopt replaces the body list. The backend's scale seeds the camera only
// on the first snapshot of a run; afterwards the camera is local.
func (e *Engine) adopt(snap world.Snapshot) {
	e.bodies = snap.Bodies
	e.adopted++
	if !e.seeded && snap.Scale > 0 {
		e.camera.SetScale(snap.Scale)
		e.seeded = true
	}
}

// ExportTraces writes the trace history to path.
func (e *Engine) ExportTraces(path string) error {
	if e.export == nil {
		return ErrNoExport
	}
	return e.export(e.traces, e.traceColors(), path)
}

// restart invalidates everything tied to the previous run.
func (e *Engine) restart() {
	e.traces.Clear()
	e.renderer.Forget()
	e.camera.Recenter(e.width, e.height)
	e.camera.ResetZoom()
	e.seeded = false
}

func (e *Engine) drainNotices() {
	ch := e.backend.Notices()
	for {
		select {
		case n := <-ch:
			e.notices.Add(n.String(), n.Level == poll.LevelWarning)
		default:
			return
		}
	}
}

// traceColors maps each traced body to its current color.
func (e *Engine) traceColors() map[string]color.NRGBA {
	out := make(map[string]color.NRGBA, len(e.bodies))
	for _, b := range e.bodies {
		out[b.Name], _ = render.ParseColor(b.Color)
	}
	return out
}

func clampTimeScale(s float64) float64 {
	switch {
	case math.IsNaN(s) || s <= 0:
		return 1
	case s < MinTimeScale:
		return MinTimeScale
	case s > MaxTimeScale:
		return MaxTimeScale
	}
	return s
}
