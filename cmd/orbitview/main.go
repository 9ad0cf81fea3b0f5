package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/spacehole-rogue/orbitview/internal/config"
	"github.com/spacehole-rogue/orbitview/internal/engine"
	"github.com/spacehole-rogue/orbitview/internal/render"
	"github.com/spacehole-rogue/orbitview/internal/screen"
	"github.com/spacehole-rogue/orbitview/internal/session"
)

const title = "orbitview"

// Game is the Ebitengine game struct. It turns input into engine commands
// and draws the engine's frame; all viewer state lives in the engine.
type Game struct {
	done   <-chan struct{}
	sess   *session.Session
	canvas *screen.EbitenCanvas
	glyphs *screen.GridRenderer
	hud    *render.CellBuffer

	dragging     bool
	prevX, prevY int
	width        int
	height       int
}

func NewGame(ctx context.Context, sess *session.Session) *Game {
	glyphs := screen.NewGridRenderer(screen.NewFontAtlas(), screen.GlyphWidth, screen.GlyphHeight)
	w, h := sess.Engine.Size()
	return &Game{
		done:   ctx.Done(),
		sess:   sess,
		canvas: screen.NewEbitenCanvas(glyphs),
		glyphs: glyphs,
		hud:    render.NewCellBuffer(w/screen.GlyphWidth, h/screen.GlyphHeight),
		width:  w,
		height: h,
	}
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	select {
	case <-g.done:
		return ebiten.Termination
	default:
	}
	q := g.sess.Queue
	e := g.sess.Engine

	// Pan (drag)
	mx, my := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.dragging = true
		q.Push(engine.BeginDrag{})
	case g.dragging && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		g.dragging = false
		q.Push(engine.EndDrag{})
	case g.dragging:
		if dx, dy := mx-g.prevX, my-g.prevY; dx != 0 || dy != 0 {
			q.Push(engine.Pan{DX: float64(dx), DY: float64(dy)})
		}
	}
	g.prevX, g.prevY = mx, my
	inside := mx >= 0 && my >= 0 && mx < g.width && my < g.height
	q.Push(engine.Hover{X: float64(mx), Y: float64(my), Inside: inside})

	// Zoom
	_, wheelY := ebiten.Wheel()
	if wheelY > 0 || inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		q.Push(engine.ZoomIn{})
	}
	if wheelY < 0 || inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		q.Push(engine.ZoomOut{})
	}

	// Simulation and layers
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		q.Push(engine.StartSimulation{})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		q.Push(engine.Reset{})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		q.Push(engine.ToggleTrails{})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		q.Push(engine.ToggleOrbits{})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		q.Push(engine.SetTimeScale{Scale: e.TimeScale() / 2})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		q.Push(engine.SetTimeScale{Scale: e.TimeScale() * 2})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		path := fmt.Sprintf("traces-%s.png", time.Now().Format("20060102-150405"))
		q.Push(engine.ExportTraces{Path: path})
	}

	e.Tick(g.sess.Clock.Now(), q.Drain())
	return nil
}

func (g *Game) Draw(scr *ebiten.Image) {
	g.canvas.Dst = scr
	g.sess.Engine.Draw(g.canvas)

	w, h := scr.Bounds().Dx(), scr.Bounds().Dy()
	g.hud.Resize(w/screen.GlyphWidth, h/screen.GlyphHeight)
	g.sess.Engine.ComposeHUD(g.hud)
	g.glyphs.Draw(scr, g.hud)
}

// Layout follows the window size so the view recenters on resize.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.sess.Queue.Push(engine.Resize{Width: outsideWidth, Height: outsideHeight})
	}
	return outsideWidth, outsideHeight
}

func main() {
	configPath := flag.String("config", "", "viewer config file (.json)")
	backend := flag.String("backend", "", "simulation backend base URL")
	stream := flag.Bool("stream", false, "receive snapshots over the WebSocket stream")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address")
	selection := flag.String("select", "", "comma-separated bodies to start with S")
	flag.Parse()

	cfg := &config.Viewer{}
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadViewer(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	applyFlags(cfg, *backend, *stream, *metricsAddr, *selection)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := session.New(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("start session: %v", err)
	}

	w, h := sess.Engine.Size()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cfg.GetFrameRate())

	err = ebiten.RunGame(NewGame(ctx, sess))
	sess.Close()
	if err != nil {
		log.Fatal(err)
	}
}

// applyFlags overrides config values with flags that were set.
func applyFlags(cfg *config.Viewer, backend string, stream bool, metricsAddr, selection string) {
	if backend != "" {
		cfg.Backend = &backend
	}
	if stream {
		cfg.Stream = &stream
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = &metricsAddr
	}
	if selection != "" {
		cfg.Selection = nil
		for _, n := range strings.Split(selection, ",") {
			if n = strings.TrimSpace(n); n != "" {
				cfg.Selection = append(cfg.Selection, n)
			}
		}
	}
}
