package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacehole-rogue/orbitview/internal/engine"
	"github.com/spacehole-rogue/orbitview/internal/poll"
	"github.com/spacehole-rogue/orbitview/internal/simserver"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadViewerPartialKeepsDefaults(t *testing.T) {
	path := writeFile(t, "viewer.json", `{
		"backend": "http://sim:9000",
		"poll_interval": "100ms",
		"width": 1024,
		"selection": ["Earth", "Jupiter"],
		"render": {"show_orbits": true, "background": "#102030"}
	}`)
	c, err := LoadViewer(path)
	require.NoError(t, err)

	assert.Equal(t, "http://sim:9000", c.GetBackend())
	assert.False(t, c.GetStream())
	assert.Equal(t, "", c.GetMetricsAddr())
	assert.Equal(t, engine.DefaultFrameRate, c.GetFrameRate())

	p := c.PollConfig()
	want := poll.DefaultConfig()
	want.Interval = 100 * time.Millisecond
	assert.Equal(t, want, p)

	e := c.EngineConfig()
	assert.Equal(t, 1024, e.Width)
	assert.Equal(t, 600, e.Height)
	assert.Equal(t, []string{"Earth", "Jupiter"}, e.Selection)
	assert.True(t, e.Render.ShowOrbits)
	assert.True(t, e.Render.ShowTrails)
	assert.Equal(t, color.NRGBA{0x10, 0x20, 0x30, 0xff}, e.Render.Background)
}

func TestEmptyViewerIsDefaults(t *testing.T) {
	c := &Viewer{}
	require.NoError(t, c.Validate())
	assert.Equal(t, DefaultBackend, c.GetBackend())
	assert.Equal(t, poll.DefaultConfig(), c.PollConfig())
	assert.Equal(t, engine.DefaultConfig(), c.EngineConfig())
}

func TestViewerOverrides(t *testing.T) {
	c := &Viewer{
		Stream:        ptrBool(true),
		MetricsAddr:   ptrString(":9100"),
		FrameRate:     ptrInt(30),
		MaxInFlight:   ptrInt(2),
		PanRate:       ptrFloat64(10),
		TimeScale:     ptrFloat64(5),
		ReferenceBody: ptrString("Sol"),
		Render: &RenderOptions{
			Glow:      ptrBool(true),
			BaseScale: ptrFloat64(173),
		},
	}
	require.NoError(t, c.Validate())
	assert.True(t, c.GetStream())
	assert.Equal(t, ":9100", c.GetMetricsAddr())
	assert.Equal(t, 30, c.GetFrameRate())

	p := c.PollConfig()
	assert.Equal(t, 2, p.MaxInFlight)
	assert.Equal(t, 10.0, p.PanRate)
	assert.Equal(t, "Sol", p.ReferenceBody)

	e := c.EngineConfig()
	assert.Equal(t, 5.0, e.TimeScale)
	assert.Equal(t, "Sol", e.Render.ReferenceBody)
	assert.True(t, e.Render.Glow)
	assert.Equal(t, 173.0, e.Render.BaseScale)
}

func TestViewerValidate(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{name: "backend scheme", json: `{"backend":"sim:9000"}`, wantErr: "backend must be an http(s) URL"},
		{name: "poll interval", json: `{"poll_interval":"often"}`, wantErr: "invalid poll_interval"},
		{name: "negative timeout", json: `{"request_timeout":"-1s"}`, wantErr: "request_timeout must be positive"},
		{name: "zero width", json: `{"width":0}`, wantErr: "width must be positive"},
		{name: "pan rate", json: `{"pan_rate":-3}`, wantErr: "pan_rate must be positive"},
		{name: "time scale", json: `{"time_scale":1000}`, wantErr: "time_scale must be between"},
		{name: "selection", json: `{"selection":["Earth"," "]}`, wantErr: "empty name"},
		{name: "background", json: `{"render":{"background":"plaid"}}`, wantErr: "invalid render.background"},
		{name: "base scale", json: `{"render":{"base_scale":0}}`, wantErr: "render.base_scale must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadViewer(writeFile(t, "viewer.json", tt.json))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	_, err := LoadViewer(writeFile(t, "viewer.yaml", `{}`))
	assert.ErrorContains(t, err, ".json extension")

	_, err = LoadViewer(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "stat config file")

	_, err = LoadViewer(writeFile(t, "viewer.json", `{"width": "wide"}`))
	assert.ErrorContains(t, err, "parse config JSON")

	big := `{"selection":["` + strings.Repeat("x", maxFileSize) + `"]}`
	_, err = LoadViewer(writeFile(t, "viewer.json", big))
	assert.ErrorContains(t, err, "too large")
}

func TestLoadServer(t *testing.T) {
	path := writeFile(t, "orbitd.json", `{
		"listen": "127.0.0.1:9000",
		"db_path": ":memory:",
		"stream_interval": "50ms",
		"base_step": 300,
		"metrics": false
	}`)
	c, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", c.GetListen())
	assert.Equal(t, ":memory:", c.GetDBPath())
	assert.False(t, c.GetMetrics())

	sim := c.SimConfig()
	want := simserver.DefaultConfig()
	want.BaseStep = 300
	assert.Equal(t, want, sim)
	assert.Equal(t, 50*time.Millisecond, c.ServerConfig().StreamInterval)
}

func TestServerDefaultsAndValidate(t *testing.T) {
	c := &Server{}
	require.NoError(t, c.Validate())
	assert.Equal(t, DefaultListen, c.GetListen())
	assert.Equal(t, DefaultDBPath, c.GetDBPath())
	assert.True(t, c.GetMetrics())
	assert.Equal(t, simserver.DefaultConfig(), c.SimConfig())
	assert.Equal(t, simserver.DefaultStreamInterval, c.ServerConfig().StreamInterval)

	assert.ErrorContains(t, (&Server{Listen: ptrString("")}).Validate(), "listen")
	assert.ErrorContains(t, (&Server{StepMultiplier: ptrFloat64(0)}).Validate(), "step_multiplier")
	assert.ErrorContains(t, (&Server{StreamInterval: ptrString("soon")}).Validate(), "stream_interval")
}
