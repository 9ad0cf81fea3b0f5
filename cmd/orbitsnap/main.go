// orbitsnap runs the viewer without a window for a fixed number of frames
// and writes the final frame, and optionally a trace plot, to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spacehole-rogue/orbitview/internal/config"
	"github.com/spacehole-rogue/orbitview/internal/engine"
	"github.com/spacehole-rogue/orbitview/internal/render"
	"github.com/spacehole-rogue/orbitview/internal/session"
)

func main() {
	configPath := flag.String("config", "", "viewer config file (.json)")
	backend := flag.String("backend", "", "simulation backend base URL")
	stream := flag.Bool("stream", false, "receive snapshots over the WebSocket stream")
	frames := flag.Int("frames", 300, "frames to run before writing the snapshot")
	start := flag.String("start", "", "comma-separated bodies to start before the first frame")
	out := flag.String("out", "orbits.png", "final frame PNG path")
	plotPath := flag.String("plot", "", "also write a trace plot (.png, .svg or .pdf)")
	flag.Parse()

	if *frames <= 0 {
		log.Fatalf("-frames must be positive")
	}
	cfg := &config.Viewer{}
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadViewer(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *backend != "" {
		cfg.Backend = backend
	}
	if *stream {
		cfg.Stream = stream
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *frames, splitNames(*start), *out, *plotPath); err != nil {
		log.Fatalf("orbitsnap: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Viewer, frames int, start []string, out, plotPath string) error {
	sess, err := session.New(ctx, cfg, nil)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.Close()

	if len(start) > 0 {
		sess.Queue.Push(engine.StartSimulation{Bodies: start})
	}

	d := &engine.Driver{
		Engine:    sess.Engine,
		Queue:     sess.Queue,
		Clock:     sess.Clock,
		FrameRate: cfg.GetFrameRate(),
		MaxFrames: frames,
		Frame: func(n int) error {
			if n < frames {
				return nil
			}
			return snapshot(sess.Engine, out, plotPath)
		},
	}
	if err := d.Run(ctx); err != nil {
		return err
	}
	log.Printf("%d frames, %d snapshots adopted, wrote %s", frames, sess.Engine.Adopted(), out)
	return nil
}

// HUD cell size on the raster canvas, matching basicfont.Face7x13.
const cellW, cellH = 7, 13

// snapshot renders the current frame with its HUD to a PNG and exports the
// traces.
func snapshot(e *engine.Engine, out, plotPath string) error {
	w, h := e.Size()
	c := render.NewRasterCanvas(w, h)
	e.Draw(c)
	hud := render.NewCellBuffer(w/cellW, h/cellH)
	e.ComposeHUD(hud)
	render.DrawCells(c, hud, cellW, cellH)
	if err := c.SavePNG(out); err != nil {
		return err
	}
	if plotPath == "" {
		return nil
	}
	if err := e.ExportTraces(plotPath); err != nil {
		return fmt.Errorf("plot: %w", err)
	}
	return nil
}

func splitNames(s string) []string {
	var names []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
