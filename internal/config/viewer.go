package config

import (
	"fmt"
	"strings"

	"github.com/spacehole-rogue/orbitview/internal/engine"
	"github.com/spacehole-rogue/orbitview/internal/poll"
	"github.com/spacehole-rogue/orbitview/internal/render"
)

// DefaultBackend is the backend URL used when none is configured.
const DefaultBackend = "http://localhost:8080"

// Viewer configures cmd/orbitview and cmd/orbitsnap.
type Viewer struct {
	// Backend connection
	Backend        *string  `json:"backend,omitempty"`
	Stream         *bool    `json:"stream,omitempty"`        // use the WebSocket snapshot stream
	PollInterval   *string  `json:"poll_interval,omitempty"` // duration string like "33ms"
	MaxInFlight    *int     `json:"max_in_flight,omitempty"`
	PanRate        *float64 `json:"pan_rate,omitempty"` // pan flushes per second
	PanBurst       *int     `json:"pan_burst,omitempty"`
	RequestTimeout *string  `json:"request_timeout,omitempty"`
	MetricsAddr    *string  `json:"metrics_addr,omitempty"` // empty disables /metrics

	// Viewport
	Width      *int     `json:"width,omitempty"`
	Height     *int     `json:"height,omitempty"`
	FrameRate  *int     `json:"frame_rate,omitempty"`
	TimeScale  *float64 `json:"time_scale,omitempty"`
	TraceLimit *int     `json:"trace_limit,omitempty"`

	// Simulation
	ReferenceBody *string  `json:"reference_body,omitempty"`
	Selection     []string `json:"selection,omitempty"`

	Render *RenderOptions `json:"render,omitempty"`
}

// RenderOptions overrides render.Options.
type RenderOptions struct {
	ShowTrails        *bool    `json:"show_trails,omitempty"`
	ShowOrbits        *bool    `json:"show_orbits,omitempty"`
	Glow              *bool    `json:"glow,omitempty"`
	Fade              *bool    `json:"fade,omitempty"`
	BaseScale         *float64 `json:"base_scale,omitempty"`
	MaxZoomMultiplier *float64 `json:"max_zoom_multiplier,omitempty"`
	LabelMinRadius    *float64 `json:"label_min_radius,omitempty"`
	Background        *string  `json:"background,omitempty"` // CSS color
}

// LoadViewer loads a viewer configuration file.
func LoadViewer(path string) (*Viewer, error) {
	c := &Viewer{}
	if err := load(path, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// Validate checks the values that are set.
func (c *Viewer) Validate() error {
	if c.Backend != nil {
		b := *c.Backend
		if !strings.HasPrefix(b, "http://") && !strings.HasPrefix(b, "https://") {
			return fmt.Errorf("backend must be an http(s) URL, got %q", b)
		}
	}
	if err := validateDuration("poll_interval", c.PollInterval); err != nil {
		return err
	}
	if err := validateDuration("request_timeout", c.RequestTimeout); err != nil {
		return err
	}
	for name, v := range map[string]*int{
		"max_in_flight": c.MaxInFlight,
		"pan_burst":     c.PanBurst,
		"width":         c.Width,
		"height":        c.Height,
		"frame_rate":    c.FrameRate,
		"trace_limit":   c.TraceLimit,
	} {
		if err := validatePositiveInt(name, v); err != nil {
			return err
		}
	}
	if err := validatePositive("pan_rate", c.PanRate); err != nil {
		return err
	}
	if c.TimeScale != nil {
		if ts := *c.TimeScale; !(ts >= engine.MinTimeScale && ts <= engine.MaxTimeScale) {
			return fmt.Errorf("time_scale must be between %g and %g, got %g",
				engine.MinTimeScale, engine.MaxTimeScale, ts)
		}
	}
	for _, n := range c.Selection {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("selection contains an empty name")
		}
	}
	if r := c.Render; r != nil {
		if err := validatePositive("render.base_scale", r.BaseScale); err != nil {
			return err
		}
		if err := validatePositive("render.max_zoom_multiplier", r.MaxZoomMultiplier); err != nil {
			return err
		}
		if r.Background != nil {
			if _, ok := render.ParseColor(*r.Background); !ok {
				return fmt.Errorf("invalid render.background %q", *r.Background)
			}
		}
	}
	return nil
}

// GetBackend returns the backend base URL.
func (c *Viewer) GetBackend() string {
	if c.Backend == nil || *c.Backend == "" {
		return DefaultBackend
	}
	return *c.Backend
}

// GetStream reports whether snapshots come from the WebSocket stream.
func (c *Viewer) GetStream() bool {
	if c.Stream == nil {
		return false
	}
	return *c.Stream
}

// GetMetricsAddr returns the metrics listen address, empty when disabled.
func (c *Viewer) GetMetricsAddr() string {
	if c.MetricsAddr == nil {
		return ""
	}
	return *c.MetricsAddr
}

// GetFrameRate returns the animation rate in frames per second.
func (c *Viewer) GetFrameRate() int {
	if c.FrameRate == nil {
		return engine.DefaultFrameRate
	}
	return *c.FrameRate
}

// PollConfig overlays the poller settings on poll.DefaultConfig.
func (c *Viewer) PollConfig() poll.Config {
	p := poll.DefaultConfig()
	p.Interval = duration(c.PollInterval, p.Interval)
	p.RequestTimeout = duration(c.RequestTimeout, p.RequestTimeout)
	if c.MaxInFlight != nil {
		p.MaxInFlight = *c.MaxInFlight
	}
	if c.PanRate != nil {
		p.PanRate = *c.PanRate
	}
	if c.PanBurst != nil {
		p.PanBurst = *c.PanBurst
	}
	if c.ReferenceBody != nil && *c.ReferenceBody != "" {
		p.ReferenceBody = *c.ReferenceBody
	}
	return p
}

// EngineConfig overlays the viewport and render settings on
// engine.DefaultConfig.
func (c *Viewer) EngineConfig() engine.Config {
	e := engine.DefaultConfig()
	if c.Width != nil {
		e.Width = *c.Width
	}
	if c.Height != nil {
		e.Height = *c.Height
	}
	if c.TimeScale != nil {
		e.TimeScale = *c.TimeScale
	}
	if c.TraceLimit != nil {
		e.TraceLimit = *c.TraceLimit
	}
	if len(c.Selection) > 0 {
		e.Selection = append([]string(nil), c.Selection...)
	}
	if c.ReferenceBody != nil && *c.ReferenceBody != "" {
		e.Render.ReferenceBody = *c.ReferenceBody
	}
	if r := c.Render; r != nil {
		r.apply(&e.Render)
	}
	return e
}

func (r *RenderOptions) apply(o *render.Options) {
	if r.ShowTrails != nil {
		o.ShowTrails = *r.ShowTrails
	}
	if r.ShowOrbits != nil {
		o.ShowOrbits = *r.ShowOrbits
	}
	if r.Glow != nil {
		o.Glow = *r.Glow
	}
	if r.Fade != nil {
		o.Fade = *r.Fade
	}
	if r.BaseScale != nil {
		o.BaseScale = *r.BaseScale
	}
	if r.MaxZoomMultiplier != nil {
		o.MaxZoomMultiplier = *r.MaxZoomMultiplier
	}
	if r.LabelMinRadius != nil {
		o.LabelMinRadius = *r.LabelMinRadius
	}
	if r.Background != nil {
		if bg, ok := render.ParseColor(*r.Background); ok {
			o.Background = bg
		}
	}
}
