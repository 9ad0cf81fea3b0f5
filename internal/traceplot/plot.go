// Package traceplot exports trace history as a static line plot.
package traceplot

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/spacehole-rogue/orbitview/internal/render"
	"github.com/spacehole-rogue/orbitview/internal/world"
)

// ErrEmpty is returned when no trace has enough points to draw.
var ErrEmpty = errors.New("traceplot: no traces to plot")

// Size is the edge length of the square output image.
const Size = 8 * vg.Inch

// missing draws traces whose body has no known color, and white ones that
// would vanish on the plot background.
var missing = color.NRGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}

// Save writes every trace with at least two points to path, one line per
// body in AU. The image format follows the file extension (.png, .svg, .pdf).
func Save(traces render.Traces, colors map[string]color.NRGBA, path string) error {
	p := plot.New()
	p.Title.Text = "Orbital traces"
	p.X.Label.Text = "x (AU)"
	p.Y.Label.Text = "y (AU)"
	p.Add(plotter.NewGrid())

	var lines int
	var lineErr error
	traces.ForEach(func(name string, points []r2.Vec) {
		if lineErr != nil || len(points) < 2 {
			return
		}
		xys := make(plotter.XYs, len(points))
		for i, pt := range points {
			xys[i] = plotter.XY{X: pt.X / world.AU, Y: pt.Y / world.AU}
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			lineErr = fmt.Errorf("trace %s: %w", name, err)
			return
		}
		l.Color = lineColor(colors, name)
		l.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(name, l)
		lines++
	})
	if lineErr != nil {
		return lineErr
	}
	if lines == 0 {
		return ErrEmpty
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(Size, Size, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func lineColor(colors map[string]color.NRGBA, name string) color.Color {
	c, ok := colors[name]
	if !ok || c == render.White || c.A == 0 {
		return missing
	}
	c.A = 0xff
	return c
}
