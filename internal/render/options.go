package render

import (
	"image/color"

	"github.com/spacehole-rogue/orbitview/internal/view"
	"github.com/spacehole-rogue/orbitview/internal/world"
)

// Options controls what a frame contains and how it looks.
type Options struct {
	ShowTrails bool
	ShowOrbits bool
	Glow       bool

	// Fade overlays the previous frame with Background at FadeAlpha
	// instead of clearing it.
	Fade      bool
	FadeAlpha uint8

	TrailAlpha uint8
	TrailWidth float64
	OrbitWidth float64

	// BaseScale is the scale at which bodies are drawn at their nominal radius.
	BaseScale float64
	// MaxZoomMultiplier caps how much zooming in enlarges bodies.
	MaxZoomMultiplier float64
	// LabelMinRadius is the smallest drawn radius that gets a label.
	LabelMinRadius float64

	ReferenceBody string
	Background    color.NRGBA
	LabelColor    color.NRGBA
	OrbitColor    color.NRGBA
}

// DefaultOptions shows trails and labels on a black background.
func DefaultOptions() Options {
	return Options{
		ShowTrails:        true,
		ShowOrbits:        false,
		Glow:              false,
		FadeAlpha:         0x30,
		TrailAlpha:        0x60,
		TrailWidth:        1,
		OrbitWidth:        1,
		BaseScale:         view.DefaultBaseScale,
		MaxZoomMultiplier: 1.3,
		LabelMinRadius:    2,
		ReferenceBody:     world.DefaultReference,
		Background:        color.NRGBA{0, 0, 0, 255},
		LabelColor:        color.NRGBA{255, 255, 255, 255},
		OrbitColor:        color.NRGBA{255, 255, 255, 0x30},
	}
}
