package simserver

import (
	"context"
	"math"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/spacehole-rogue/orbitview/internal/monitoring"
	"github.com/spacehole-rogue/orbitview/internal/world"
)

func init() { monitoring.SetLogger(nil) }

func memCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := OpenCatalog(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func names(entries []world.CatalogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestCatalogSeedsDefaults(t *testing.T) {
	c := memCatalog(t)
	all, err := c.All(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(world.DefaultCatalog(), all); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogSelectKeepsCatalogOrder(t *testing.T) {
	c := memCatalog(t)
	got, err := c.Select(context.Background(), []string{"Mars", "Sun", "Earth"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Sun", "Earth", "Mars"}, names(got))

	_, err = c.Select(context.Background(), []string{"Sun", "Vulcan", "Krypton"})
	assert.ErrorContains(t, err, "unknown bodies: Vulcan, Krypton")

	_, err = c.Select(context.Background(), nil)
	assert.Error(t, err)
}

func TestCatalogPersistsAndUpserts(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bodies.db")

	c, err := OpenCatalog(ctx, path)
	require.NoError(t, err)
	require.NoError(t, c.Seed(ctx, []world.CatalogEntry{
		{Name: "Earth", Mass: 1, X: 42, Radius: 9, Color: "red"},
		{Name: "Ceres", Mass: 9.4e20, X: 4.1e11, Radius: 2, Color: "#999", SemiMajorAxis: 4.1e11},
	}))
	require.NoError(t, c.Close())

	c, err = OpenCatalog(ctx, path)
	require.NoError(t, err)
	defer c.Close()
	all, err := c.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(world.DefaultCatalog())+1)
	assert.Equal(t, "Ceres", all[len(all)-1].Name)

	earth, err := c.Select(ctx, []string{"Earth"})
	require.NoError(t, err)
	assert.Equal(t, 42.0, earth[0].X)
	assert.Equal(t, "red", earth[0].Color)
}

func TestInitOrbitsCircularVelocity(t *testing.T) {
	ps := newParticles([]world.CatalogEntry{
		{Name: "Sun", Mass: 1.989e30},
		{Name: "Earth", Mass: 5.972e24, X: world.AU, SemiMajorAxis: world.AU},
		{Name: "Rock", Mass: 1, Y: -world.AU},
	})
	require.NoError(t, initOrbits(ps, "Sun"))

	want := math.Sqrt(G * 1.989e30 / world.AU)
	assert.Equal(t, r2.Vec{}, ps[0].vel)
	assert.InDelta(t, 0, ps[1].vel.X, 1e-6)
	assert.InDelta(t, want, ps[1].vel.Y, 1)
	// No semi-major axis: circular speed, still counter-clockwise.
	assert.InDelta(t, want, ps[2].vel.X, 1)
	assert.InDelta(t, 0, ps[2].vel.Y, 1e-6)
}

func TestInitOrbitsNeedsReference(t *testing.T) {
	ps := newParticles([]world.CatalogEntry{{Name: "Earth", Mass: 1, X: 1}})
	assert.ErrorContains(t, initOrbits(ps, "Sun"), "must include Sun")
}

func TestStepKeepsCircularOrbit(t *testing.T) {
	ps := newParticles([]world.CatalogEntry{
		{Name: "Sun", Mass: 1.989e30},
		{Name: "Earth", Mass: 5.972e24, X: world.AU, SemiMajorAxis: world.AU},
	})
	require.NoError(t, initOrbits(ps, "Sun"))

	const dt = 600 * 200
	steps := int(365.25 * 86400 / dt)
	for i := 0; i < steps; i++ {
		step(ps, dt)
		r := r2.Norm(r2.Sub(ps[1].pos, ps[0].pos))
		require.InEpsilon(t, world.AU, r, 0.02, "step %d", i)
	}
	// Roughly one full revolution brings Earth back near its start.
	assert.Less(t, r2.Norm(r2.Sub(ps[1].pos, r2.Vec{X: world.AU})), 0.1*world.AU)
}

func TestStepConservesMomentum(t *testing.T) {
	ps := newParticles([]world.CatalogEntry{
		{Name: "A", Mass: 3e24, X: -1e10},
		{Name: "B", Mass: 1e24, X: 2e10, VY: 10},
	})
	momentum := func() r2.Vec {
		var m r2.Vec
		for _, p := range ps {
			m = r2.Add(m, r2.Scale(p.entry.Mass, p.vel))
		}
		return m
	}
	before := momentum()
	for i := 0; i < 50; i++ {
		step(ps, 3600)
	}
	after := momentum()
	assert.InEpsilon(t, before.Y, after.Y, 1e-9)
	assert.InDelta(t, before.X, after.X, 1e12)
	assert.NotEqual(t, -1e10, ps[0].pos.X)
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantScale float64
		wantView  ViewQuery
		wantErr   string
	}{
		{name: "defaults", query: "", wantScale: 1},
		{name: "clamp low", query: "scale=0.0001", wantScale: MinTimeScale},
		{name: "clamp high", query: "scale=1e6", wantScale: MaxTimeScale},
		{name: "move", query: "scale=2&moveX=-5&moveY=7", wantScale: 2, wantView: ViewQuery{Move: true, MoveX: -5, MoveY: 7}},
		{name: "move x only", query: "moveX=3", wantScale: 1, wantView: ViewQuery{Move: true, MoveX: 3}},
		{name: "zoom", query: "zoom=out&resetViewport=true", wantScale: 1, wantView: ViewQuery{Zoom: "out", ResetViewport: true}},
		{name: "bad scale", query: "scale=fast", wantErr: "invalid scale"},
		{name: "nan scale", query: "scale=NaN", wantErr: "invalid scale"},
		{name: "bad move", query: "moveX=1&moveY=up", wantErr: "invalid moveY"},
		{name: "bad zoom", query: "zoom=sideways", wantErr: "invalid zoom"},
		{name: "bad reset", query: "resetViewport=maybe", wantErr: "invalid resetViewport"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			scale, vq, err := ParseQuery(q)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScale, scale)
			assert.Equal(t, tt.wantView, vq)
		})
	}
}

func TestSimulationStartResetAndViewport(t *testing.T) {
	ctx := context.Background()
	sim, err := NewSimulation(ctx, memCatalog(t), Config{})
	require.NoError(t, err)

	st := sim.Step(1, ViewQuery{})
	assert.Len(t, st.Bodies, len(world.DefaultCatalog()))
	assert.Equal(t, 100.0, st.Scale)
	assert.Equal(t, uint64(1), sim.Steps())

	require.NoError(t, sim.Start(ctx, []string{"Sun", "Earth"}))
	st = sim.Step(1, ViewQuery{Zoom: "in"})
	require.Len(t, st.Bodies, 2)
	assert.InDelta(t, 102.0, st.Scale, 1e-9) // 100 + (120-100)*0.1
	sun := st.Bodies[0]
	// The Sun drifts a few hundred meters per step; that is far below a pixel.
	assert.InDelta(t, 400.0, sun.ScreenX, 1e-3)
	assert.InDelta(t, 300.0, sun.ScreenY, 1e-3)

	st = sim.Step(1, ViewQuery{Move: true, MoveX: 10, MoveY: -10})
	assert.InDelta(t, 410.0, st.Bodies[0].ScreenX, 1e-3)
	assert.InDelta(t, 290.0, st.Bodies[0].ScreenY, 1e-3)

	st = sim.Step(1, ViewQuery{ResetViewport: true})
	assert.InDelta(t, 400.0, st.Bodies[0].ScreenX, 1e-3)
	assert.Equal(t, 100.0, st.Scale)

	earth := st.Bodies[1]
	require.NotEqual(t, world.AU, earth.WorldX)
	bodies, err := sim.Reset(ctx)
	require.NoError(t, err)
	require.Len(t, bodies, 2)
	assert.Equal(t, world.AU, bodies[1].WorldX)
	assert.Equal(t, 0.0, bodies[1].WorldY)
}

func TestSimulationStartFailureKeepsRun(t *testing.T) {
	ctx := context.Background()
	sim, err := NewSimulation(ctx, memCatalog(t), Config{})
	require.NoError(t, err)
	require.NoError(t, sim.Start(ctx, []string{"Sun", "Mars"}))

	assert.Error(t, sim.Start(ctx, nil))
	assert.Error(t, sim.Start(ctx, []string{"Earth"})) // no reference body
	assert.Error(t, sim.Start(ctx, []string{"Sun", "Vulcan"}))

	st := sim.Step(1, ViewQuery{})
	assert.Equal(t, []string{"Sun", "Mars"}, []string{st.Bodies[0].Name, st.Bodies[1].Name})

	bodies, err := sim.Reset(ctx)
	require.NoError(t, err)
	assert.Len(t, bodies, 2)
}
