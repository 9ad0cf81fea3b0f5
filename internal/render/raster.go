package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// RasterCanvas is a software Canvas backed by an RGBA image. It is used by
// the headless snapshot tool and by tests.
type RasterCanvas struct {
	img  *image.RGBA
	z    *vector.Rasterizer
	face font.Face
}

var _ Canvas = (*RasterCanvas)(nil)

// NewRasterCanvas creates a w x h canvas.
func NewRasterCanvas(w, h int) *RasterCanvas {
	return &RasterCanvas{
		img:  image.NewRGBA(image.Rect(0, 0, w, h)),
		z:    vector.NewRasterizer(w, h),
		face: basicfont.Face7x13,
	}
}

// Image returns the backing image.
func (r *RasterCanvas) Image() *image.RGBA { return r.img }

// Size implements Canvas.
func (r *RasterCanvas) Size() (int, int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

// Clear implements Canvas.
func (r *RasterCanvas) Clear(c color.NRGBA) {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Fade implements Canvas.
func (r *RasterCanvas) Fade(c color.NRGBA) {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Over)
}

// Polyline implements Canvas. Each segment becomes a quad; all quads wind
// the same way so overlaps at joints do not cancel.
func (r *RasterCanvas) Polyline(pts []Point, width float64, c color.NRGBA) {
	if len(pts) < 2 || c.A == 0 {
		return
	}
	hw := math.Max(width, 1) / 2
	r.begin()
	drawn := false
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 || !r.visible(math.Min(a.X, b.X)-hw, math.Min(a.Y, b.Y)-hw, math.Max(a.X, b.X)+hw, math.Max(a.Y, b.Y)+hw) {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw
		r.moveTo(a.X+nx, a.Y+ny)
		r.lineTo(b.X+nx, b.Y+ny)
		r.lineTo(b.X-nx, b.Y-ny)
		r.lineTo(a.X-nx, a.Y-ny)
		r.z.ClosePath()
		drawn = true
	}
	if drawn {
		r.fill(c)
	}
}

// StrokeEllipse implements Canvas as the outer ellipse minus the inner one.
func (r *RasterCanvas) StrokeEllipse(cx, cy, rx, ry, width float64, c color.NRGBA) {
	if rx <= 0 || ry <= 0 || c.A == 0 {
		return
	}
	hw := math.Max(width, 1) / 2
	if !r.visible(cx-rx-hw, cy-ry-hw, cx+rx+hw, cy+ry+hw) {
		return
	}
	r.begin()
	r.ellipse(cx, cy, rx+hw, ry+hw, false)
	if rx > hw && ry > hw {
		r.ellipse(cx, cy, rx-hw, ry-hw, true)
	}
	r.fill(c)
}

// FillCircle implements Canvas.
func (r *RasterCanvas) FillCircle(cx, cy, radius float64, c color.NRGBA) {
	if radius <= 0 || c.A == 0 || !r.visible(cx-radius, cy-radius, cx+radius, cy+radius) {
		return
	}
	r.begin()
	r.ellipse(cx, cy, radius, radius, false)
	r.fill(c)
}

// Text implements Canvas with the 7x13 bitmap face.
func (r *RasterCanvas) Text(x, y float64, s string, c color.NRGBA) {
	d := &font.Drawer{
		Dst:  r.img,
		Src:  image.NewUniform(c),
		Face: r.face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))+4),
	}
	d.DrawString(s)
}

// SavePNG writes the canvas to path.
func (r *RasterCanvas) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	if err := png.Encode(f, r.img); err != nil {
		f.Close()
		return fmt.Errorf("save png: %w", err)
	}
	return f.Close()
}

func (r *RasterCanvas) begin() {
	b := r.img.Bounds()
	r.z.Reset(b.Dx(), b.Dy())
	r.z.DrawOp = draw.Over
}

func (r *RasterCanvas) fill(c color.NRGBA) {
	r.z.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{})
}

func (r *RasterCanvas) visible(x0, y0, x1, y1 float64) bool {
	w, h := r.Size()
	return x1 >= 0 && y1 >= 0 && x0 <= float64(w) && y0 <= float64(h)
}

// ellipse adds a closed polygon approximating the ellipse. reverse flips
// the winding to cut a hole.
func (r *RasterCanvas) ellipse(cx, cy, rx, ry float64, reverse bool) {
	n := int(math.Ceil(math.Pi * (rx + ry) / 2))
	if n < 12 {
		n = 12
	}
	if n > 720 {
		n = 720
	}
	step := 2 * math.Pi / float64(n)
	if reverse {
		step = -step
	}
	r.moveTo(cx+rx, cy)
	for i := 1; i < n; i++ {
		a := step * float64(i)
		r.lineTo(cx+rx*math.Cos(a), cy+ry*math.Sin(a))
	}
	r.z.ClosePath()
}

func (r *RasterCanvas) moveTo(x, y float64) { r.z.MoveTo(float32(x), float32(y)) }
func (r *RasterCanvas) lineTo(x, y float64) { r.z.LineTo(float32(x), float32(y)) }
