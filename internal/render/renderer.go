package render

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/spacehole-rogue/orbitview/internal/view"
	"github.com/spacehole-rogue/orbitview/internal/world"
)

// Traces is the read side of the trace history store.
type Traces interface {
	ForEach(fn func(name string, points []r2.Vec))
}

// Frame is everything one frame is drawn from.
type Frame struct {
	Bodies []world.Body
	Camera view.State
	Traces Traces // may be nil
}

// Renderer draws frames. It caches parsed body colors between frames.
type Renderer struct {
	Options Options
	colors  map[string]bodyColor
	pts     []Point
}

type bodyColor struct {
	raw string
	c   color.NRGBA
}

// NewRenderer creates a renderer with opts.
func NewRenderer(opts Options) *Renderer {
	if opts.BaseScale <= 0 {
		opts.BaseScale = view.DefaultBaseScale
	}
	if opts.MaxZoomMultiplier <= 0 {
		opts.MaxZoomMultiplier = 1.3
	}
	return &Renderer{Options: opts, colors: make(map[string]bodyColor)}
}

// Render draws f onto c: background, trails, orbits, bodies and labels in
// that order.
func (r *Renderer) Render(c Canvas, f Frame) {
	o := r.Options
	if o.Fade {
		c.Fade(WithAlpha(o.Background, o.FadeAlpha))
	} else {
		c.Clear(o.Background)
	}

	byName := make(map[string]*world.Body, len(f.Bodies))
	for i := range f.Bodies {
		b := &f.Bodies[i]
		byName[b.Name] = b
		r.colors[b.Name] = bodyColor{raw: b.Color, c: r.parse(b)}
	}

	if o.ShowTrails && f.Traces != nil {
		r.drawTrails(c, f, byName)
	}
	if o.ShowOrbits {
		r.drawOrbits(c, f, byName)
	}

	radii := make([]float64, len(f.Bodies))
	mult := math.Min(r.ZoomMultiplier(f.Camera), o.MaxZoomMultiplier)
	for i, b := range f.Bodies {
		x, y := view.WorldToScreen(f.Camera, b.WorldX, b.WorldY)
		radius := math.Max(1, b.Radius*mult)
		radii[i] = radius
		clr := r.colors[b.Name].c
		if o.Glow {
			for k := 3; k >= 1; k-- {
				c.FillCircle(x, y, radius*(1+0.5*float64(k)), WithAlpha(clr, uint8(0x18*(4-k))))
			}
		}
		c.FillCircle(x, y, radius, clr)
	}

	for i, b := range f.Bodies {
		if radii[i] < o.LabelMinRadius {
			continue
		}
		x, y := view.WorldToScreen(f.Camera, b.WorldX, b.WorldY)
		c.Text(x+radii[i]+2, y, b.Name, o.LabelColor)
	}
}

// ZoomMultiplier is how much bodies are enlarged at the camera's current
// scale, before the MaxZoomMultiplier cap.
func (r *Renderer) ZoomMultiplier(s view.State) float64 {
	return view.ClampScale(s.CurrentScale) / r.Options.BaseScale
}

// Forget drops cached colors, for a new simulation run.
func (r *Renderer) Forget() {
	r.colors = make(map[string]bodyColor)
}

func (r *Renderer) drawTrails(c Canvas, f Frame, present map[string]*world.Body) {
	o := r.Options
	f.Traces.ForEach(func(name string, points []r2.Vec) {
		if len(points) < 2 {
			return
		}
		clr := White
		if _, ok := present[name]; ok {
			clr = r.colors[name].c
		}
		r.pts = r.pts[:0]
		for _, p := range points {
			x, y := view.WorldToScreen(f.Camera, p.X, p.Y)
			r.pts = append(r.pts, Point{X: x, Y: y})
		}
		c.Polyline(r.pts, o.TrailWidth, WithAlpha(clr, o.TrailAlpha))
	})
}

func (r *Renderer) drawOrbits(c Canvas, f Frame, byName map[string]*world.Body) {
	o := r.Options
	cx, cy := view.WorldToScreen(f.Camera, 0, 0)
	if ref, ok := byName[o.ReferenceBody]; ok {
		cx, cy = view.WorldToScreen(f.Camera, ref.WorldX, ref.WorldY)
	}
	scale := f.Camera.CurrentScale / world.AU
	for _, b := range f.Bodies {
		if !b.HasOrbit() || b.Name == o.ReferenceBody {
			continue
		}
		rx := b.SemiMajorAxis * scale
		ry := b.SemiMinorAxis() * scale
		c.StrokeEllipse(cx, cy, rx, ry, o.OrbitWidth, o.OrbitColor)
	}
}

func (r *Renderer) parse(b *world.Body) color.NRGBA {
	if cached, ok := r.colors[b.Name]; ok && cached.raw == b.Color {
		return cached.c
	}
	c, _ := ParseColor(b.Color)
	return c
}
