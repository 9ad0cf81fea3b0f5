package engine

import (
	"context"
	"time"

	"github.com/spacehole-rogue/orbitview/internal/timeutil"
)

// DefaultFrameRate is the driver's tick rate in frames per second.
const DefaultFrameRate = 60

// Driver runs an Engine on a fixed-rate ticker, for use without a window
// toolkit that owns the loop.
type Driver struct {
	Engine    *Engine
	Queue     *Queue
	Clock     timeutil.Clock
	FrameRate int

	// MaxFrames stops Run after that many frames when positive.
	MaxFrames int

	// Frame is called after every tick with the frame number, starting
	// at 1. A non-nil error stops Run.
	Frame func(n int) error
}

// Run ticks the engine until ctx is done, MaxFrames is reached or Frame
// fails. It returns ctx.Err() on cancellation and nil on MaxFrames.
func (d *Driver) Run(ctx context.Context) error {
	clock := d.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	rate := d.FrameRate
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	tk := clock.NewTicker(time.Second / time.Duration(rate))
	defer tk.Stop()

	for n := 1; ; n++ {
		var now time.Time
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now = <-tk.C():
		}
		var cmds []Command
		if d.Queue != nil {
			cmds = d.Queue.Drain()
		}
		d.Engine.Tick(now, cmds)
		if d.Frame != nil {
			if err := d.Frame(n); err != nil {
				return err
			}
		}
		if d.MaxFrames > 0 && n >= d.MaxFrames {
			return nil
		}
	}
}
