package config

import (
	"fmt"

	"github.com/spacehole-rogue/orbitview/internal/simserver"
)

// Defaults of the reference backend.
const (
	DefaultListen = ":8080"
	DefaultDBPath = "bodies.db"
)

// Server configures cmd/orbitd.
type Server struct {
	Listen         *string  `json:"listen,omitempty"`
	DBPath         *string  `json:"db_path,omitempty"` // ":memory:" for a throwaway catalog
	StreamInterval *string  `json:"stream_interval,omitempty"`
	BaseStep       *float64 `json:"base_step,omitempty"` // seconds per step at time scale 1
	StepMultiplier *float64 `json:"step_multiplier,omitempty"`
	ReferenceBody  *string  `json:"reference_body,omitempty"`
	Metrics        *bool    `json:"metrics,omitempty"` // serve /metrics, default true
}

// LoadServer loads a backend configuration file.
func LoadServer(path string) (*Server, error) {
	c := &Server{}
	if err := load(path, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}

// Validate checks the values that are set.
func (c *Server) Validate() error {
	if c.Listen != nil && *c.Listen == "" {
		return fmt.Errorf("listen must not be empty")
	}
	if c.DBPath != nil && *c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if err := validateDuration("stream_interval", c.StreamInterval); err != nil {
		return err
	}
	if err := validatePositive("base_step", c.BaseStep); err != nil {
		return err
	}
	return validatePositive("step_multiplier", c.StepMultiplier)
}

// GetListen returns the HTTP listen address.
func (c *Server) GetListen() string {
	if c.Listen == nil {
		return DefaultListen
	}
	return *c.Listen
}

// GetDBPath returns the catalog database path.
func (c *Server) GetDBPath() string {
	if c.DBPath == nil {
		return DefaultDBPath
	}
	return *c.DBPath
}

// GetMetrics reports whether /metrics is served.
func (c *Server) GetMetrics() bool {
	if c.Metrics == nil {
		return true
	}
	return *c.Metrics
}

// SimConfig overlays the physics settings on simserver.DefaultConfig.
func (c *Server) SimConfig() simserver.Config {
	s := simserver.DefaultConfig()
	if c.BaseStep != nil {
		s.BaseStep = *c.BaseStep
	}
	if c.StepMultiplier != nil {
		s.StepMultiplier = *c.StepMultiplier
	}
	if c.ReferenceBody != nil && *c.ReferenceBody != "" {
		s.Reference = *c.ReferenceBody
	}
	return s
}

// ServerConfig returns the HTTP server settings. The registry is attached
// by the caller.
func (c *Server) ServerConfig() simserver.ServerConfig {
	return simserver.ServerConfig{
		StreamInterval: duration(c.StreamInterval, simserver.DefaultStreamInterval),
	}
}
