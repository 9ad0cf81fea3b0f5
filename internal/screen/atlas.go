// Package screen draws onto an Ebitengine window: a glyph atlas for text
// and an implementation of render.Canvas.
package screen

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	GlyphWidth  = 8
	GlyphHeight = 14
	AtlasCols   = 16
	AtlasRows   = 6

	firstGlyph = 32  // space
	lastGlyph  = 126 // tilde
)

// FontAtlas holds the printable ASCII glyphs and cached sub-images.
type FontAtlas struct {
	image  *ebiten.Image
	glyphs [lastGlyph - firstGlyph + 1]*ebiten.Image
}

// NewFontAtlas rasterises basicfont.Face7x13 into one white-on-transparent
// image. Glyphs are tinted at draw time.
func NewFontAtlas() *FontAtlas {
	img := image.NewNRGBA(image.Rect(0, 0, AtlasCols*GlyphWidth, AtlasRows*GlyphHeight))
	face := basicfont.Face7x13
	for code := firstGlyph; code <= lastGlyph; code++ {
		x, y := cellOrigin(code)
		drawFontGlyph(img, face, x, y, rune(code))
	}

	eimg := ebiten.NewImageFromImage(img)
	a := &FontAtlas{image: eimg}
	for code := firstGlyph; code <= lastGlyph; code++ {
		x, y := cellOrigin(code)
		rect := image.Rect(x, y, x+GlyphWidth, y+GlyphHeight)
		a.glyphs[code-firstGlyph] = eimg.SubImage(rect).(*ebiten.Image)
	}
	return a
}

// Glyph returns the sub-image for an ASCII code. Codes outside the
// printable range map to '?'.
func (a *FontAtlas) Glyph(code byte) *ebiten.Image {
	if code < firstGlyph || code > lastGlyph {
		code = '?'
	}
	return a.glyphs[int(code)-firstGlyph]
}

func cellOrigin(code int) (int, int) {
	i := code - firstGlyph
	return (i % AtlasCols) * GlyphWidth, (i / AtlasCols) * GlyphHeight
}

// drawFontGlyph renders one 7x13 glyph with its baseline 11 pixels down
// the 8x14 cell.
func drawFontGlyph(img *image.NRGBA, face font.Face, cellX, cellY int, r rune) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(cellX, cellY+11),
	}
	d.DrawString(string(r))
}
