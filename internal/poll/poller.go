package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/spacehole-rogue/orbitview/internal/metrics"
	"github.com/spacehole-rogue/orbitview/internal/monitoring"
	"github.com/spacehole-rogue/orbitview/internal/timeutil"
	"github.com/spacehole-rogue/orbitview/internal/world"
)

// Config tunes the poller.
type Config struct {
	Interval       time.Duration // cadence of background reads
	MaxInFlight    int           // cap on concurrent background reads
	PanRate        float64       // pan flushes per second
	PanBurst       int
	ReferenceBody  string // prepended to every start request
	RequestTimeout time.Duration
	NoticeBuffer   int
}

// DefaultConfig polls about 30 times a second.
func DefaultConfig() Config {
	return Config{
		Interval:       time.Second / 30,
		MaxInFlight:    4,
		PanRate:        30,
		PanBurst:       4,
		ReferenceBody:  world.DefaultReference,
		RequestTimeout: 2 * time.Second,
		NoticeBuffer:   16,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = d.MaxInFlight
	}
	if c.PanRate <= 0 {
		c.PanRate = d.PanRate
	}
	if c.PanBurst <= 0 {
		c.PanBurst = d.PanBurst
	}
	if c.ReferenceBody == "" {
		c.ReferenceBody = d.ReferenceBody
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.NoticeBuffer <= 0 {
		c.NoticeBuffer = d.NoticeBuffer
	}
	return c
}

// Poller issues backend requests on behalf of the render loop. Poll and the
// command methods are called from the driver goroutine; requests run on
// their own goroutines and report back only through the latest-snapshot
// cell and the notice channel.
type Poller struct {
	ctx     context.Context
	src     Source
	clock   timeutil.Clock
	cfg     Config
	limiter *rate.Limiter
	metrics *metrics.Poller
	notices chan Notice
	wg      sync.WaitGroup

	mu        sync.Mutex
	latest    world.Snapshot
	fresh     bool
	gen       uint64 // bumped by start/reset; older responses are discarded
	pending   bool   // a start or reset is in flight; nothing is published
	restarted bool   // a start or reset succeeded since the last Restarted
	inFlight  int
	lastPoll  time.Time
	timeScale float64
	panX      float64
	panY      float64
}

// New creates a poller bound to the session context ctx. Cancelling ctx
// aborts all outstanding requests. m may be nil.
func New(ctx context.Context, src Source, clock timeutil.Clock, cfg Config, m *metrics.Poller) *Poller {
	cfg = cfg.withDefaults()
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Poller{
		ctx:       ctx,
		src:       src,
		clock:     clock,
		cfg:       cfg,
		limiter:   rate.NewLimiter(rate.Limit(cfg.PanRate), cfg.PanBurst),
		metrics:   m,
		notices:   make(chan Notice, cfg.NoticeBuffer),
		timeScale: 1,
	}
}

// ReferenceBody is the body every start request includes.
func (p *Poller) ReferenceBody() string { return p.cfg.ReferenceBody }

// Poll runs one driver tick: it flushes coalesced pan deltas when the rate
// limiter allows and issues a background read when the cadence has elapsed
// and fewer than MaxInFlight reads are outstanding. It reports whether a
// cadence read was issued. Poll never blocks on the network.
func (p *Poller) Poll(now time.Time, timeScale float64) bool {
	p.mu.Lock()
	if timeScale > 0 {
		p.timeScale = timeScale
	}
	var pan *Query
	if (p.panX != 0 || p.panY != 0) && p.limiter.AllowN(now, 1) {
		pan = &Query{TimeScale: p.timeScale, Move: true, MoveX: p.panX, MoveY: p.panY}
		p.panX, p.panY = 0, 0
	}
	due := p.lastPoll.IsZero() || now.Sub(p.lastPoll) >= p.cfg.Interval
	issue := false
	if due {
		p.lastPoll = now
		if p.inFlight < p.cfg.MaxInFlight {
			p.inFlight++
			issue = true
		}
	}
	q := Query{TimeScale: p.timeScale}
	gen := p.gen
	p.mu.Unlock()

	if pan != nil {
		p.command(*pan)
	}
	if due && !issue {
		p.metrics.FetchSkipped()
	}
	if issue {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.fetch(q, gen, true)
		}()
	}
	return issue
}

// FetchSnapshot performs one synchronous read and publishes the result.
// On failure the cell is left untouched and the error is logged and
// returned.
func (p *Poller) FetchSnapshot(ctx context.Context, timeScale float64) error {
	p.mu.Lock()
	if timeScale > 0 {
		p.timeScale = timeScale
	}
	q := Query{TimeScale: p.timeScale}
	gen := p.gen
	p.mu.Unlock()
	return p.fetchWith(ctx, q, gen, false)
}

// Latest takes the most recently completed snapshot out of the cell. ok is
// false when nothing new has completed since the previous call. While a
// start or reset is in flight the cell stays empty.
func (p *Poller) Latest() (world.Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.fresh {
		return world.Snapshot{}, false
	}
	p.fresh = false
	return p.latest, true
}

// Restarted reports, once, that a start or reset succeeded. Any snapshot
// Latest returned before that call belongs to the new run.
func (p *Poller) Restarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := p.restarted
	p.restarted = false
	return r
}

// InFlight returns the number of outstanding background reads.
func (p *Poller) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// Notices delivers command outcomes. Notices are dropped when the buffer is
// full.
func (p *Poller) Notices() <-chan Notice { return p.notices }

// Pan queues a viewport move. Deltas accumulate until the next flush.
func (p *Poller) Pan(dx, dy float64) {
	p.mu.Lock()
	p.panX += dx
	p.panY += dy
	p.mu.Unlock()
}

// ZoomIn asks the backend viewport to zoom in.
func (p *Poller) ZoomIn() { p.command(Query{TimeScale: p.currentTimeScale(), Zoom: ZoomIn}) }

// ZoomOut asks the backend viewport to zoom out.
func (p *Poller) ZoomOut() { p.command(Query{TimeScale: p.currentTimeScale(), Zoom: ZoomOut}) }

// Resize asks the backend to reset its viewport after a window resize.
func (p *Poller) Resize() {
	p.command(Query{TimeScale: p.currentTimeScale(), ResetViewport: true})
}

// StartSimulation begins a new run with names, prepending the reference
// body when absent. No snapshot is published until the backend answers;
// on success reads issued before the answer are discarded, on failure the
// current run carries on.
func (p *Poller) StartSimulation(names []string) {
	names = world.WithReference(names, p.cfg.ReferenceBody)
	gen := p.bump()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(p.ctx, p.cfg.RequestTimeout)
		defer cancel()
		if err := p.src.Start(ctx, names); err != nil {
			monitoring.Logf("poll: start %v: %v", names, err)
			p.metrics.Command("start", metrics.OutcomeError)
			p.settle(gen)
			p.notify(Notice{Level: LevelWarning, Text: "start failed", Err: err})
			return
		}
		p.metrics.Command("start", metrics.OutcomeOK)
		p.bumpIf(gen)
		p.notify(Notice{Level: LevelInfo, Text: "simulation started"})
	}()
}

// ResetSimulation restarts the current run.
func (p *Poller) ResetSimulation() {
	gen := p.bump()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(p.ctx, p.cfg.RequestTimeout)
		defer cancel()
		bodies, err := p.src.Reset(ctx)
		if err != nil {
			monitoring.Logf("poll: reset: %v", err)
			p.metrics.Command("reset", metrics.OutcomeError)
			p.settle(gen)
			p.notify(Notice{Level: LevelWarning, Text: "reset failed", Err: err})
			return
		}
		p.metrics.Command("reset", metrics.OutcomeOK)
		if next, ok := p.bumpIf(gen); ok && len(bodies) > 0 {
			p.publish(world.Snapshot{Bodies: bodies}, next)
		}
		p.notify(Notice{Level: LevelInfo, Text: "simulation reset"})
	}()
}

// Wait blocks until every outstanding request has finished.
func (p *Poller) Wait() { p.wg.Wait() }

func (p *Poller) currentTimeScale() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timeScale
}

// command sends a viewport command read. Its response is published like a
// cadence read but does not count against MaxInFlight.
func (p *Poller) command(q Query) {
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(p.ctx, p.cfg.RequestTimeout)
		defer cancel()
		snap, err := p.src.Fetch(ctx, q)
		if err != nil {
			monitoring.Logf("poll: %s command: %v", q.kind(), err)
			p.metrics.Command(q.kind(), metrics.OutcomeError)
			return
		}
		p.metrics.Command(q.kind(), metrics.OutcomeOK)
		p.publish(snap, gen)
	}()
}

// fetch runs a cadence read under the request timeout.
func (p *Poller) fetch(q Query, gen uint64, counted bool) {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.RequestTimeout)
	defer cancel()
	_ = p.fetchWith(ctx, q, gen, counted)
}

func (p *Poller) fetchWith(ctx context.Context, q Query, gen uint64, counted bool) error {
	start := p.clock.Now()
	p.metrics.FetchStarted()
	snap, err := p.src.Fetch(ctx, q)
	if counted {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}
	elapsed := p.clock.Now().Sub(start)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			monitoring.Logf("poll: fetch snapshot: %v", err)
		}
		p.metrics.FetchDone(metrics.OutcomeError, elapsed)
		return err
	}
	if !p.publish(snap, gen) {
		p.metrics.FetchDone(metrics.OutcomeDropped, elapsed)
		return nil
	}
	p.metrics.FetchDone(metrics.OutcomeOK, elapsed)
	return nil
}

// publish stores snap unless a start or reset has happened since the
// request was issued or is still pending. Completion order wins among
// same-generation reads.
func (p *Poller) publish(snap world.Snapshot, gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.pending {
		return false
	}
	p.latest = snap
	p.fresh = true
	return true
}

// bump starts a pending generation and clears any snapshot of the old one.
func (p *Poller) bump() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.fresh = false
	p.pending = true
	p.panX, p.panY = 0, 0
	return p.gen
}

// bumpIf starts a new generation only if no other start or reset has
// superseded gen, so reads issued while the command was in flight are
// dropped.
func (p *Poller) bumpIf(gen uint64) (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		return p.gen, false
	}
	p.gen++
	p.fresh = false
	p.pending = false
	p.restarted = true
	return p.gen, true
}

// settle ends the pending state after a failed start or reset, unless a
// newer one has been issued. Reads issued meanwhile belong to the current
// run and may publish again.
func (p *Poller) settle(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen == gen {
		p.pending = false
	}
}

func (p *Poller) notify(n Notice) {
	select {
	case p.notices <- n:
	default:
		monitoring.Logf("poll: notice dropped: %s", n)
	}
}
