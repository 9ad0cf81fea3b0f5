package render

import (
	"fmt"
	"image/color"
	"strings"
)

// CGA 16-color palette indices used by the HUD cell grid.
const (
	ColorBlack        = 0
	ColorBlue         = 1
	ColorGreen        = 2
	ColorCyan         = 3
	ColorRed          = 4
	ColorMagenta      = 5
	ColorBrown        = 6
	ColorLightGray    = 7
	ColorDarkGray     = 8
	ColorLightBlue    = 9
	ColorLightGreen   = 10
	ColorLightCyan    = 11
	ColorLightRed     = 12
	ColorLightMagenta = 13
	ColorYellow       = 14
	ColorWhite        = 15
)

// Palette contains the classic CGA 16-color palette.
var Palette = [16]color.NRGBA{
	{0, 0, 0, 255},
	{0, 0, 170, 255},
	{0, 170, 0, 255},
	{0, 170, 170, 255},
	{170, 0, 0, 255},
	{170, 0, 170, 255},
	{170, 85, 0, 255},
	{170, 170, 170, 255},
	{85, 85, 85, 255},
	{85, 85, 255, 255},
	{85, 255, 85, 255},
	{85, 255, 255, 255},
	{255, 85, 85, 255},
	{255, 85, 255, 255},
	{255, 255, 85, 255},
	{255, 255, 255, 255},
}

// White is the trail color for bodies no longer in the snapshot.
var White = color.NRGBA{255, 255, 255, 255}

// Fallback is used for body colors that cannot be parsed.
var Fallback = White

// named covers the CSS color keywords the backend catalog uses.
var named = map[string]color.NRGBA{
	"black":  {0, 0, 0, 255},
	"white":  {255, 255, 255, 255},
	"red":    {255, 0, 0, 255},
	"green":  {0, 128, 0, 255},
	"blue":   {0, 0, 255, 255},
	"yellow": {255, 255, 0, 255},
	"orange": {255, 165, 0, 255},
	"gray":   {128, 128, 128, 255},
	"grey":   {128, 128, 128, 255},
	"brown":  {165, 42, 42, 255},
	"cyan":   {0, 255, 255, 255},
	"purple": {128, 0, 128, 255},
	"gold":   {255, 215, 0, 255},
	"tan":    {210, 180, 140, 255},
}

// ParseColor parses "#rgb", "#rrggbb", "#rrggbbaa" or a CSS color keyword. ok is false
// and the fallback color is returned when s is not recognised.
func ParseColor(s string) (c color.NRGBA, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if v, found := named[s]; found {
		return v, true
	}
	var r, g, b, a uint8
	switch len(s) {
	case 9:
		if n, err := fmt.Sscanf(s, "#%02x%02x%02x%02x", &r, &g, &b, &a); err == nil && n == 4 {
			return color.NRGBA{r, g, b, a}, true
		}
	case 7:
		if n, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err == nil && n == 3 {
			return color.NRGBA{r, g, b, 255}, true
		}
	case 4:
		if n, err := fmt.Sscanf(s, "#%1x%1x%1x", &r, &g, &b); err == nil && n == 3 {
			return color.NRGBA{r * 17, g * 17, b * 17, 255}, true
		}
	}
	return Fallback, false
}

// WithAlpha returns c with its alpha replaced by a.
func WithAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}
