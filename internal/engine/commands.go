package engine

import (
	"fmt"
	"sync"
)

// Command is one input event consumed by Engine.Tick.
type Command interface {
	apply(e *Engine)
}

// Pan moves the view by a pixel delta.
type Pan struct{ DX, DY float64 }

// ZoomIn and ZoomOut step the target scale.
type (
	ZoomIn  struct{}
	ZoomOut struct{}
)

// StartSimulation begins a new run. Nil Bodies means the configured
// selection. The view restarts once the backend accepts the run.
type StartSimulation struct{ Bodies []string }

// Reset restarts the current run. The view restarts once the backend
// accepts the reset.
type Reset struct{}

// Resize reports a new viewport size.
type Resize struct{ Width, Height int }

// BeginDrag and EndDrag bracket a pointer drag. Resizes that arrive
// during a drag are applied when it ends.
type (
	BeginDrag struct{}
	EndDrag   struct{}
)

// SetTimeScale changes the simulated seconds per step multiplier.
type SetTimeScale struct{ Scale float64 }

// ToggleTrails and ToggleOrbits flip render layers.
type (
	ToggleTrails struct{}
	ToggleOrbits struct{}
)

// Hover reports the pointer position for the HUD readout.
type Hover struct {
	X, Y   float64
	Inside bool
}

// ExportTraces writes the trace history as a plot image.
type ExportTraces struct{ Path string }

func (c Pan) apply(e *Engine) {
	e.camera.Pan(c.DX, c.DY)
	e.backend.Pan(c.DX, c.DY)
}

func (ZoomIn) apply(e *Engine) {
	e.camera.ZoomIn()
	e.backend.ZoomIn()
}

func (ZoomOut) apply(e *Engine) {
	e.camera.ZoomOut()
	e.backend.ZoomOut()
}

func (c StartSimulation) apply(e *Engine) {
	names := c.Bodies
	if names == nil {
		names = e.cfg.Selection
	}
	e.backend.StartSimulation(names)
}

func (Reset) apply(e *Engine) {
	e.backend.ResetSimulation()
}

func (c Resize) apply(e *Engine) {
	if c.Width <= 0 || c.Height <= 0 {
		return
	}
	if e.dragging {
		e.pendingResize = &c
		return
	}
	if c.Width == e.width && c.Height == e.height {
		return
	}
	e.width, e.height = c.Width, c.Height
	e.camera.Recenter(c.Width, c.Height)
	e.backend.Resize()
}

func (BeginDrag) apply(e *Engine) { e.dragging = true }

func (EndDrag) apply(e *Engine) {
	e.dragging = false
	if r := e.pendingResize; r != nil {
		e.pendingResize = nil
		r.apply(e)
	}
}

func (c SetTimeScale) apply(e *Engine) { e.timeScale = clampTimeScale(c.Scale) }

func (ToggleTrails) apply(e *Engine) {
	e.renderer.Options.ShowTrails = !e.renderer.Options.ShowTrails
}

func (ToggleOrbits) apply(e *Engine) {
	e.renderer.Options.ShowOrbits = !e.renderer.Options.ShowOrbits
}

func (c Hover) apply(e *Engine) {
	e.cursorX, e.cursorY, e.hasCursor = c.X, c.Y, c.Inside
}

func (c ExportTraces) apply(e *Engine) {
	if e.export == nil {
		return
	}
	if err := e.ExportTraces(c.Path); err != nil {
		e.notices.Add(fmt.Sprintf("export failed: %v", err), true)
		return
	}
	e.notices.Add("traces written to "+c.Path, false)
}

// Queue collects commands from input handlers for the next tick. It is
// safe for concurrent use.
type Queue struct {
	mu   sync.Mutex
	cmds []Command
}

// Push appends commands.
func (q *Queue) Push(cmds ...Command) {
	q.mu.Lock()
	q.cmds = append(q.cmds, cmds...)
	q.mu.Unlock()
}

// Drain returns and clears the queued commands in push order.
func (q *Queue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	cmds := q.cmds
	q.cmds = nil
	return cmds
}
