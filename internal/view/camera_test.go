package view

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacehole-rogue/orbitview/internal/world"
)

func TestWorldToScreenScenario(t *testing.T) {
	s := State{CenterX: 400, CenterY: 300, CurrentScale: 173, TargetScale: 173}
	x, y := WorldToScreen(s, 14.96e9, 0) // 0.1 AU
	assert.InDelta(t, 417.3, x, 1e-9)
	assert.InDelta(t, 300.0, y, 1e-9)
}

func TestWorldToScreenOriginIsCenter(t *testing.T) {
	for _, s := range []State{
		{CenterX: 0, CenterY: 0, CurrentScale: 1},
		{CenterX: 400, CenterY: 300, CurrentScale: 173},
		{CenterX: -12.5, CenterY: 9000, CurrentScale: 1e-3},
	} {
		x, y := WorldToScreen(s, 0, 0)
		assert.Equal(t, s.CenterX, x)
		assert.Equal(t, s.CenterY, y)
	}
}

func TestWorldToScreenIsAffine(t *testing.T) {
	s := State{CenterX: 400, CenterY: 300, CurrentScale: 120}
	ax, ay := 1.0e11, -2.0e11
	bx, by := 3.0e10, 5.0e10

	sx, sy := WorldToScreen(s, ax+bx, ay+by)
	x1, y1 := WorldToScreen(s, ax, ay)
	x2, y2 := WorldToScreen(s, bx, by)

	// Not linear: the offset is counted twice in the sum.
	assert.NotEqual(t, x1+x2, sx)
	// Affine: removing one offset restores equality.
	assert.InDelta(t, x1+x2-s.CenterX, sx, 1e-6)
	assert.InDelta(t, y1+y2-s.CenterY, sy, 1e-6)
}

func TestScreenToWorldRoundTrip(t *testing.T) {
	c := NewCamera(800, 600, 173)
	c.Pan(-35, 12)
	wx, wy := c.ScreenToWorld(c.WorldToScreen(2.5e11, -1.1e11))
	assert.InDelta(t, 2.5e11, wx, 1)
	assert.InDelta(t, -1.1e11, wy, 1)
}

func TestZoomInThreeTimes(t *testing.T) {
	c := NewCamera(800, 600, 100)
	c.ZoomIn()
	c.ZoomIn()
	c.ZoomIn()
	assert.InDelta(t, 172.8, c.State().TargetScale, 1e-9)
	assert.Equal(t, 100.0, c.State().CurrentScale, "zoom only moves the target")
}

func TestZoomOutInverse(t *testing.T) {
	c := NewCamera(800, 600, 100)
	c.ZoomIn()
	c.ZoomOut()
	assert.InDelta(t, 100.0, c.State().TargetScale, 1e-9)
}

func TestTickConvergesMonotonically(t *testing.T) {
	c := NewCamera(800, 600, 100)
	c.SetTargetScale(172.8)

	prev := math.Abs(c.State().TargetScale - c.State().CurrentScale)
	for i := 0; i < 200; i++ {
		c.Tick()
		s := c.State()
		gap := math.Abs(s.TargetScale - s.CurrentScale)
		if prev > 0 {
			require.Less(t, gap, prev, "tick %d did not reduce the gap", i)
		}
		require.LessOrEqual(t, s.CurrentScale, s.TargetScale, "tick %d overshot", i)
		prev = gap
	}
	assert.InDelta(t, 172.8, c.State().CurrentScale, 1e-6)
}

func TestTickConvergesDownward(t *testing.T) {
	c := NewCamera(800, 600, 100)
	c.ZoomOut()
	c.ZoomOut()
	target := c.State().TargetScale
	for i := 0; i < 500; i++ {
		c.Tick()
		require.GreaterOrEqual(t, c.State().CurrentScale, target)
	}
	assert.True(t, c.Settled())
}

func TestTickSingleStep(t *testing.T) {
	c := NewCamera(800, 600, 100)
	c.SetTargetScale(200)
	c.Tick()
	assert.InDelta(t, 110.0, c.State().CurrentScale, 1e-9)
}

func TestDegenerateScalesClamped(t *testing.T) {
	c := NewCamera(800, 600, 0)
	assert.Equal(t, MinScale, c.State().CurrentScale)

	for _, bad := range []float64{0, -5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		c.SetScale(bad)
		s := c.State()
		assert.Greater(t, s.CurrentScale, 0.0)
		assert.Greater(t, s.TargetScale, 0.0)
		x, y := c.WorldToScreen(world.AU, world.AU)
		assert.False(t, math.IsNaN(x) || math.IsInf(x, 0))
		assert.False(t, math.IsNaN(y) || math.IsInf(y, 0))
	}

	c.SetScale(MinScale)
	for i := 0; i < 50; i++ {
		c.ZoomOut()
	}
	assert.Equal(t, MinScale, c.State().TargetScale)
	wx, _ := c.ScreenToWorld(10, 0)
	assert.False(t, math.IsInf(wx, 0))
}

func TestPanIndependentOfZoom(t *testing.T) {
	c := NewCamera(800, 600, 100)
	c.ZoomIn()
	c.Tick()
	before := c.State()
	c.Pan(10, -4)
	after := c.State()
	assert.Equal(t, before.CenterX+10, after.CenterX)
	assert.Equal(t, before.CenterY-4, after.CenterY)
	assert.Equal(t, before.CurrentScale, after.CurrentScale)
	assert.Equal(t, before.TargetScale, after.TargetScale)
}

func TestRecenterAndResetZoom(t *testing.T) {
	c := NewCamera(800, 600, 173)
	c.Pan(50, 50)
	c.ZoomIn()
	c.Recenter(1024, 768)
	c.ResetZoom()
	assert.Equal(t, State{CenterX: 512, CenterY: 384, CurrentScale: 173, TargetScale: 173}, c.State())
	assert.Equal(t, 173.0, c.BaseScale())
}
