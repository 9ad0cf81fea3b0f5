// Package poll retrieves body snapshots from the simulation backend on a
// bounded cadence and hands them to the render loop through a single-slot
// latest-snapshot cell.
package poll

import (
	"context"
	"net/url"
	"strconv"

	"github.com/spacehole-rogue/orbitview/internal/world"
)

// Zoom directions understood by the backend.
const (
	ZoomIn  = "in"
	ZoomOut = "out"
)

// Query is one read request against the simulation endpoint. Besides the
// time scale, it may carry at most one viewport command.
type Query struct {
	TimeScale     float64
	Move          bool
	MoveX, MoveY  float64
	Zoom          string // ZoomIn, ZoomOut or empty
	ResetViewport bool
}

// Values encodes q as URL query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("scale", strconv.FormatFloat(q.TimeScale, 'g', -1, 64))
	if q.Move {
		v.Set("moveX", strconv.FormatFloat(q.MoveX, 'g', -1, 64))
		v.Set("moveY", strconv.FormatFloat(q.MoveY, 'g', -1, 64))
	}
	if q.Zoom != "" {
		v.Set("zoom", q.Zoom)
	}
	if q.ResetViewport {
		v.Set("resetViewport", "true")
	}
	return v
}

// kind names the query for metrics.
func (q Query) kind() string {
	switch {
	case q.Move:
		return "pan"
	case q.Zoom == ZoomIn:
		return "zoom_in"
	case q.Zoom == ZoomOut:
		return "zoom_out"
	case q.ResetViewport:
		return "resize"
	}
	return "poll"
}

// Source is the backend as seen by the poller.
type Source interface {
	// Fetch performs one read request.
	Fetch(ctx context.Context, q Query) (world.Snapshot, error)

	// Start begins a new run with exactly the given bodies.
	Start(ctx context.Context, names []string) error

	// Reset restarts the current run and returns its initial bodies, which
	// may be empty when the backend only acknowledges.
	Reset(ctx context.Context) ([]world.Body, error)
}
