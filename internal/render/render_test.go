package render

import (
	"image/color"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacehole-rogue/orbitview/internal/trace"
	"github.com/spacehole-rogue/orbitview/internal/view"
	"github.com/spacehole-rogue/orbitview/internal/world"
)

type op struct {
	Kind  string
	X, Y  float64
	R, R2 float64
	Text  string
	Color color.NRGBA
	Pts   []Point
}

// recorder is a Canvas that logs every call.
type recorder struct {
	w, h int
	ops  []op
}

func (r *recorder) Size() (int, int)    { return r.w, r.h }
func (r *recorder) Clear(c color.NRGBA) { r.ops = append(r.ops, op{Kind: "clear", Color: c}) }
func (r *recorder) Fade(c color.NRGBA)  { r.ops = append(r.ops, op{Kind: "fade", Color: c}) }
func (r *recorder) Polyline(pts []Point, w float64, c color.NRGBA) {
	r.ops = append(r.ops, op{Kind: "polyline", Color: c, Pts: append([]Point(nil), pts...)})
}
func (r *recorder) StrokeEllipse(cx, cy, rx, ry, w float64, c color.NRGBA) {
	r.ops = append(r.ops, op{Kind: "ellipse", X: cx, Y: cy, R: rx, R2: ry, Color: c})
}
func (r *recorder) FillCircle(cx, cy, radius float64, c color.NRGBA) {
	r.ops = append(r.ops, op{Kind: "circle", X: cx, Y: cy, R: radius, Color: c})
}
func (r *recorder) Text(x, y float64, s string, c color.NRGBA) {
	r.ops = append(r.ops, op{Kind: "text", X: x, Y: y, Text: s, Color: c})
}

func (r *recorder) kinds() []string {
	var out []string
	for _, o := range r.ops {
		if len(out) == 0 || out[len(out)-1] != o.Kind {
			out = append(out, o.Kind)
		}
	}
	return out
}

func (r *recorder) only(kind string) []op {
	var out []op
	for _, o := range r.ops {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}

func camera(scale float64) view.State {
	return view.State{CenterX: 400, CenterY: 300, CurrentScale: scale, TargetScale: scale}
}

func solar() []world.Body {
	return []world.Body{
		{Name: "Sun", Radius: 10, Color: "#ffff00"},
		{Name: "Earth", WorldX: world.AU, Radius: 5, Color: "#0000ff", SemiMajorAxis: world.AU, Eccentricity: 0.5},
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#ff8000", color.NRGBA{255, 128, 0, 255}, true},
		{"#F80", color.NRGBA{255, 136, 0, 255}, true},
		{"#ff800080", color.NRGBA{255, 128, 0, 128}, true},
		{"#ff8000zz", White, false},
		{" yellow ", color.NRGBA{255, 255, 0, 255}, true},
		{"#zzzzzz", White, false},
		{"", White, false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestRenderOrder(t *testing.T) {
	store := trace.NewStore(0)
	store.Record(solar())
	b := solar()
	b[1].WorldY = world.AU / 10
	store.Record(b)

	opts := DefaultOptions()
	opts.ShowOrbits = true
	rec := &recorder{w: 800, h: 600}
	NewRenderer(opts).Render(rec, Frame{Bodies: b, Camera: camera(100), Traces: store})

	assert.Equal(t, []string{"clear", "polyline", "ellipse", "circle", "text"}, rec.kinds())
}

func TestFadeInsteadOfClear(t *testing.T) {
	opts := DefaultOptions()
	opts.Fade = true
	rec := &recorder{w: 10, h: 10}
	NewRenderer(opts).Render(rec, Frame{Camera: camera(100)})
	require.Len(t, rec.ops, 1)
	assert.Equal(t, "fade", rec.ops[0].Kind)
	assert.Equal(t, opts.FadeAlpha, rec.ops[0].Color.A)
}

func TestBodyRadiusUsesCappedZoomMultiplier(t *testing.T) {
	tests := []struct {
		scale float64
		want  float64
	}{
		{100, 5},     // multiplier 1
		{50, 2.5},    // zoomed out shrinks
		{1000, 6.5},  // capped at 1.3
		{1, 1},       // never below one pixel
	}
	for _, tt := range tests {
		rec := &recorder{w: 800, h: 600}
		NewRenderer(DefaultOptions()).Render(rec, Frame{Bodies: solar()[1:], Camera: camera(tt.scale)})
		circles := rec.only("circle")
		require.Len(t, circles, 1)
		assert.InDelta(t, tt.want, circles[0].R, 1e-9, "scale %v", tt.scale)
	}
}

func TestBodiesGoThroughCameraTransform(t *testing.T) {
	rec := &recorder{w: 800, h: 600}
	cam := camera(173)
	bodies := []world.Body{{Name: "Probe", WorldX: 14.96e9, Radius: 3, Color: "white"}}
	NewRenderer(DefaultOptions()).Render(rec, Frame{Bodies: bodies, Camera: cam})

	c := rec.only("circle")[0]
	assert.InDelta(t, 417.3, c.X, 1e-9)
	assert.InDelta(t, 300, c.Y, 1e-9)

	label := rec.only("text")[0]
	assert.Equal(t, "Probe", label.Text)
	assert.InDelta(t, c.X+c.R+2, label.X, 1e-9)
	assert.InDelta(t, c.Y, label.Y, 1e-9)
}

func TestSmallBodiesAreNotLabelled(t *testing.T) {
	opts := DefaultOptions()
	opts.LabelMinRadius = 4
	rec := &recorder{w: 800, h: 600}
	bodies := []world.Body{{Name: "Big", Radius: 5}, {Name: "Dust", Radius: 1}}
	NewRenderer(opts).Render(rec, Frame{Bodies: bodies, Camera: camera(100)})

	texts := rec.only("text")
	require.Len(t, texts, 1)
	assert.Equal(t, "Big", texts[0].Text)
}

func TestTrailsUseBodyColorOrWhite(t *testing.T) {
	store := trace.NewStore(0)
	gone := []world.Body{{Name: "Comet", Color: "#ff0000"}}
	store.Record(gone)
	gone[0].WorldX = world.AU
	store.Record(gone)
	store.Record(solar())
	store.Record(solar())

	rec := &recorder{w: 800, h: 600}
	NewRenderer(DefaultOptions()).Render(rec, Frame{Bodies: solar(), Camera: camera(100), Traces: store})

	lines := rec.only("polyline")
	// Sun and Earth never moved, but still have two points each.
	require.Len(t, lines, 3)
	assert.Equal(t, color.NRGBA{255, 255, 255, 0x60}, lines[0].Color, "absent body trail is white")
	assert.Equal(t, color.NRGBA{255, 255, 0, 0x60}, lines[1].Color)
	if diff := cmp.Diff([]Point{{400, 300}, {500, 300}}, lines[0].Pts); diff != "" {
		t.Errorf("trail points (-want +got):\n%s", diff)
	}
}

func TestTrailsHidden(t *testing.T) {
	store := trace.NewStore(0)
	store.Record(solar())
	store.Record(solar())
	opts := DefaultOptions()
	opts.ShowTrails = false
	rec := &recorder{w: 800, h: 600}
	NewRenderer(opts).Render(rec, Frame{Bodies: solar(), Camera: camera(100), Traces: store})
	assert.Empty(t, rec.only("polyline"))
}

func TestOrbitEllipseCenteredOnReference(t *testing.T) {
	opts := DefaultOptions()
	opts.ShowOrbits = true
	bodies := solar()
	bodies[0].WorldX = -world.AU / 2

	rec := &recorder{w: 800, h: 600}
	NewRenderer(opts).Render(rec, Frame{Bodies: bodies, Camera: camera(100)})
	ellipses := rec.only("ellipse")
	require.Len(t, ellipses, 1)
	e := ellipses[0]
	assert.InDelta(t, 350, e.X, 1e-9)
	assert.InDelta(t, 300, e.Y, 1e-9)
	assert.InDelta(t, 100, e.R, 1e-9)
	assert.InDelta(t, 50, e.R2, 1e-9, "semi-minor is a(1-e)")

	rec = &recorder{w: 800, h: 600}
	NewRenderer(opts).Render(rec, Frame{Bodies: bodies[1:], Camera: camera(100)})
	e = rec.only("ellipse")[0]
	assert.InDelta(t, 400, e.X, 1e-9, "world origin without a reference body")
}

func TestGlowDrawsRingsBeforeBody(t *testing.T) {
	opts := DefaultOptions()
	opts.Glow = true
	rec := &recorder{w: 800, h: 600}
	NewRenderer(opts).Render(rec, Frame{Bodies: solar()[:1], Camera: camera(100)})
	circles := rec.only("circle")
	require.Len(t, circles, 4)
	for i := 1; i < 4; i++ {
		assert.Less(t, circles[i].R, circles[i-1].R)
	}
	assert.Equal(t, uint8(255), circles[3].Color.A)
}

func TestHUDCompose(t *testing.T) {
	buf := NewCellBuffer(100, 10)
	h := NewHUD()
	h.Compose(buf, Status{
		Scale: 172.8, TimeScale: 2, Trails: true, Bodies: 3,
		HasCursor: true, CursorX: 1, CursorY: -0.5,
		Notices: []NoticeLine{{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}, {Text: "start failed", Warning: true}},
	})

	assert.True(t, strings.HasPrefix(buf.RowText(0), " 1 AU = 173px   time x2   trails on   orbits off   bodies 3"), buf.RowText(0))
	assert.Equal(t, " cursor 1.000, -0.500 AU", buf.RowText(1))
	assert.Equal(t, " b", buf.RowText(4))
	assert.Equal(t, " start failed", buf.RowText(7))
	assert.Equal(t, uint8(ColorYellow), buf.Get(1, 7).FG)
	assert.Equal(t, " "+DefaultHelp, buf.RowText(9))
}

func TestDrawCellsGroupsRuns(t *testing.T) {
	buf := NewCellBuffer(12, 2)
	buf.WriteString(0, 0, "ab", ColorWhite, ColorBlack)
	buf.WriteString(2, 0, "cd", ColorYellow, ColorBlack)
	buf.WriteString(5, 1, "x", ColorWhite, ColorBlack)

	rec := &recorder{}
	DrawCells(rec, buf, 8, 14)
	texts := rec.only("text")
	require.Len(t, texts, 3)
	assert.Equal(t, op{Kind: "text", X: 0, Y: 7, Text: "ab", Color: Palette[ColorWhite]}, texts[0])
	assert.Equal(t, op{Kind: "text", X: 16, Y: 7, Text: "cd", Color: Palette[ColorYellow]}, texts[1])
	assert.Equal(t, op{Kind: "text", X: 40, Y: 21, Text: "x", Color: Palette[ColorWhite]}, texts[2])
}

// assertPixel allows for antialiasing coverage just short of full.
func assertPixel(t *testing.T, want color.RGBA, got color.RGBA, msg string) {
	t.Helper()
	near := func(a, b uint8) bool { return math.Abs(float64(a)-float64(b)) <= 3 }
	if !near(want.R, got.R) || !near(want.G, got.G) || !near(want.B, got.B) {
		t.Errorf("%s: got %v, want %v", msg, got, want)
	}
}

func TestRasterCanvasPixels(t *testing.T) {
	c := NewRasterCanvas(100, 100)
	c.Clear(color.NRGBA{0, 0, 0, 255})
	c.FillCircle(50, 50, 10, color.NRGBA{255, 0, 0, 255})

	assertPixel(t, color.RGBA{255, 0, 0, 255}, c.Image().RGBAAt(50, 50), "disc center")
	assertPixel(t, color.RGBA{0, 0, 0, 255}, c.Image().RGBAAt(5, 5), "background")

	c.StrokeEllipse(50, 50, 30, 20, 2, color.NRGBA{0, 255, 0, 255})
	assertPixel(t, color.RGBA{0, 255, 0, 255}, c.Image().RGBAAt(79, 50), "on the ring")
	assertPixel(t, color.RGBA{255, 0, 0, 255}, c.Image().RGBAAt(50, 50), "ring leaves the inside alone")

	c.Polyline([]Point{{0, 90}, {50, 90}, {50, 99}}, 3, color.NRGBA{0, 0, 255, 255})
	assertPixel(t, color.RGBA{0, 0, 255, 255}, c.Image().RGBAAt(25, 90), "first segment")
	assertPixel(t, color.RGBA{0, 0, 255, 255}, c.Image().RGBAAt(50, 95), "second segment")
}

func TestRasterCanvasOffscreenShapesAreSkipped(t *testing.T) {
	c := NewRasterCanvas(20, 20)
	c.Clear(color.NRGBA{0, 0, 0, 255})
	c.FillCircle(-100, -100, 5, color.NRGBA{255, 255, 255, 255})
	c.StrokeEllipse(1e6, 0, 10, 10, 1, color.NRGBA{255, 255, 255, 255})
	c.Polyline([]Point{{-50, -50}, {-40, -40}}, 2, color.NRGBA{255, 255, 255, 255})
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			require.Equal(t, color.RGBA{0, 0, 0, 255}, c.Image().RGBAAt(x, y))
		}
	}
}

func TestRasterCanvasTextAndPNG(t *testing.T) {
	c := NewRasterCanvas(60, 20)
	c.Clear(color.NRGBA{0, 0, 0, 255})
	c.Text(2, 10, "Sun", color.NRGBA{255, 255, 255, 255})

	lit := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 60; x++ {
			if c.Image().RGBAAt(x, y).R > 0 {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 10)

	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, c.SavePNG(path))
}

func TestRenderToRaster(t *testing.T) {
	store := trace.NewStore(0)
	for i := 0; i < 50; i++ {
		a := float64(i) / 50 * math.Pi
		store.Record([]world.Body{{Name: "Earth", WorldX: world.AU * math.Cos(a), WorldY: world.AU * math.Sin(a)}})
	}
	opts := DefaultOptions()
	opts.ShowOrbits = true
	opts.Glow = true
	c := NewRasterCanvas(800, 600)
	NewRenderer(opts).Render(c, Frame{Bodies: solar(), Camera: camera(100), Traces: store})
	assertPixel(t, color.RGBA{255, 255, 0, 255}, c.Image().RGBAAt(400, 300), "sun drawn at origin")
}
