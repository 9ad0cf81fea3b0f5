package screen

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/spacehole-rogue/orbitview/internal/render"
)

// EbitenCanvas adapts an ebiten.Image to render.Canvas. Set Dst before
// each frame.
type EbitenCanvas struct {
	Dst    *ebiten.Image
	Glyphs *GridRenderer
}

var _ render.Canvas = (*EbitenCanvas)(nil)

// NewEbitenCanvas creates a canvas that draws labels with glyphs.
func NewEbitenCanvas(glyphs *GridRenderer) *EbitenCanvas {
	return &EbitenCanvas{Glyphs: glyphs}
}

// Size implements render.Canvas.
func (c *EbitenCanvas) Size() (int, int) {
	b := c.Dst.Bounds()
	return b.Dx(), b.Dy()
}

// Clear implements render.Canvas.
func (c *EbitenCanvas) Clear(clr color.NRGBA) {
	c.Dst.Fill(clr)
}

// Fade implements render.Canvas.
func (c *EbitenCanvas) Fade(clr color.NRGBA) {
	w, h := c.Size()
	vector.DrawFilledRect(c.Dst, 0, 0, float32(w), float32(h), clr, false)
}

// Polyline implements render.Canvas.
func (c *EbitenCanvas) Polyline(pts []render.Point, width float64, clr color.NRGBA) {
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		vector.StrokeLine(c.Dst, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), float32(width), clr, true)
	}
}

// StrokeEllipse implements render.Canvas as a closed chain of segments.
func (c *EbitenCanvas) StrokeEllipse(cx, cy, rx, ry, width float64, clr color.NRGBA) {
	if rx <= 0 || ry <= 0 {
		return
	}
	if rx == ry {
		vector.StrokeCircle(c.Dst, float32(cx), float32(cy), float32(rx), float32(width), clr, true)
		return
	}
	n := int(math.Ceil(math.Pi * (rx + ry) / 4))
	n = max(24, min(n, 360))
	px, py := cx+rx, cy
	for i := 1; i <= n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		x, y := cx+rx*math.Cos(a), cy+ry*math.Sin(a)
		vector.StrokeLine(c.Dst, float32(px), float32(py), float32(x), float32(y), float32(width), clr, true)
		px, py = x, y
	}
}

// FillCircle implements render.Canvas.
func (c *EbitenCanvas) FillCircle(cx, cy, r float64, clr color.NRGBA) {
	vector.DrawFilledCircle(c.Dst, float32(cx), float32(cy), float32(r), clr, true)
}

// Text implements render.Canvas.
func (c *EbitenCanvas) Text(x, y float64, s string, clr color.NRGBA) {
	c.Glyphs.DrawText(c.Dst, x, y-float64(c.Glyphs.CellH)/2, s, clr)
}
