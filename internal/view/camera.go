// Package view holds the camera: pan offset, zoom scale smoothing and the
// world-to-screen transform every drawing operation goes through.
package view

import (
	"math"

	"github.com/spacehole-rogue/orbitview/internal/world"
)

// Camera tuning.
const (
	ZoomFactor       = 1.2  // per ZoomIn/ZoomOut step
	Smoothing        = 0.1  // fraction of the remaining gap closed per Tick
	MinScale         = 1e-6 // floor for any scale, pixels per AU
	DefaultBaseScale = 100.0

	// Below this gap Tick snaps current to target.
	snapEpsilon = 1e-9
)

// State is the camera's full state. CenterX/CenterY is the screen position
// of the world origin; scales are pixels per AU.
type State struct {
	CenterX, CenterY float64
	CurrentScale     float64
	TargetScale      float64
}

// WorldToScreen maps world meters to screen pixels for the given state.
func WorldToScreen(s State, worldX, worldY float64) (float64, float64) {
	return s.CenterX + worldX/world.AU*s.CurrentScale,
		s.CenterY + worldY/world.AU*s.CurrentScale
}

// ScreenToWorld is the inverse of WorldToScreen.
func ScreenToWorld(s State, screenX, screenY float64) (float64, float64) {
	scale := ClampScale(s.CurrentScale)
	return (screenX - s.CenterX) / scale * world.AU,
		(screenY - s.CenterY) / scale * world.AU
}

// ClampScale maps zero, negative, NaN and infinite scales to MinScale.
func ClampScale(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) || s < MinScale {
		return MinScale
	}
	return s
}

// Camera owns the mutable camera state. Not safe for concurrent use; the
// render loop is its only writer.
type Camera struct {
	state State
	base  float64
}

// NewCamera creates a camera centered on a width x height viewport at the
// given base scale.
func NewCamera(width, height int, baseScale float64) *Camera {
	base := ClampScale(baseScale)
	c := &Camera{base: base}
	c.state.CurrentScale = base
	c.state.TargetScale = base
	c.Recenter(width, height)
	return c
}

// State returns a copy of the camera state.
func (c *Camera) State() State { return c.state }

// BaseScale returns the scale the camera was created with.
func (c *Camera) BaseScale() float64 { return c.base }

// Pan shifts the view by a pixel delta.
func (c *Camera) Pan(dx, dy float64) {
	c.state.CenterX += dx
	c.state.CenterY += dy
}

// ZoomIn multiplies the target scale by ZoomFactor.
func (c *Camera) ZoomIn() {
	c.state.TargetScale = ClampScale(c.state.TargetScale * ZoomFactor)
}

// ZoomOut divides the target scale by ZoomFactor.
func (c *Camera) ZoomOut() {
	c.state.TargetScale = ClampScale(c.state.TargetScale / ZoomFactor)
}

// SetTargetScale sets the zoom goal; current follows through Tick.
func (c *Camera) SetTargetScale(s float64) {
	c.state.TargetScale = ClampScale(s)
}

// SetScale sets current and target together, with no smoothing.
func (c *Camera) SetScale(s float64) {
	s = ClampScale(s)
	c.state.CurrentScale = s
	c.state.TargetScale = s
}

// ResetZoom returns both scales to the base scale.
func (c *Camera) ResetZoom() { c.SetScale(c.base) }

// Tick moves the current scale a fixed fraction toward the target.
// Call exactly once per rendered frame.
func (c *Camera) Tick() {
	gap := c.state.TargetScale - c.state.CurrentScale
	if math.Abs(gap) <= snapEpsilon*c.state.TargetScale {
		c.state.CurrentScale = c.state.TargetScale
		return
	}
	c.state.CurrentScale += gap * Smoothing
}

// Settled reports whether the zoom animation has finished.
func (c *Camera) Settled() bool {
	return c.state.CurrentScale == c.state.TargetScale
}

// WorldToScreen maps world meters to screen pixels.
func (c *Camera) WorldToScreen(worldX, worldY float64) (float64, float64) {
	return WorldToScreen(c.state, worldX, worldY)
}

// ScreenToWorld maps screen pixels back to world meters.
func (c *Camera) ScreenToWorld(screenX, screenY float64) (float64, float64) {
	return ScreenToWorld(c.state, screenX, screenY)
}

// Recenter puts the world origin in the middle of a width x height viewport.
func (c *Camera) Recenter(width, height int) {
	c.state.CenterX = float64(width) / 2
	c.state.CenterY = float64(height) / 2
}
