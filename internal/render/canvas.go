// Package render draws orbit-view frames onto an abstract Canvas. It holds
// no toolkit state, so frames can be rasterised in a window, to a PNG, or
// into a recording canvas in tests.
package render

import "image/color"

// Point is a screen-space position in pixels.
type Point struct {
	X, Y float64
}

// Canvas is a drawing surface. Colors are non-premultiplied.
type Canvas interface {
	// Size returns the surface dimensions in pixels.
	Size() (w, h int)

	// Clear fills the whole surface with c.
	Clear(c color.NRGBA)

	// Fade blends c over the whole surface, leaving a ghost of the
	// previous frame.
	Fade(c color.NRGBA)

	// Polyline strokes connected segments through pts.
	Polyline(pts []Point, width float64, c color.NRGBA)

	// StrokeEllipse outlines an axis-aligned ellipse.
	StrokeEllipse(cx, cy, rx, ry, width float64, c color.NRGBA)

	// FillCircle fills a disc.
	FillCircle(cx, cy, r float64, c color.NRGBA)

	// Text draws s starting at x with its vertical middle at y.
	Text(x, y float64, s string, c color.NRGBA)
}
