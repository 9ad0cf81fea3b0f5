// Package session wires one viewer session: backend client, snapshot
// poller, metrics and the viewport engine.
package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spacehole-rogue/orbitview/internal/client"
	"github.com/spacehole-rogue/orbitview/internal/config"
	"github.com/spacehole-rogue/orbitview/internal/engine"
	"github.com/spacehole-rogue/orbitview/internal/metrics"
	"github.com/spacehole-rogue/orbitview/internal/monitoring"
	"github.com/spacehole-rogue/orbitview/internal/poll"
	"github.com/spacehole-rogue/orbitview/internal/timeutil"
	"github.com/spacehole-rogue/orbitview/internal/traceplot"
)

// catalogTimeout bounds the startup catalog lookup.
const catalogTimeout = 2 * time.Second

// Session is a running viewer session.
type Session struct {
	Engine    *engine.Engine
	Poller    *poll.Poller
	Queue     *engine.Queue
	Clock     timeutil.Clock
	Source    *client.HTTPSource
	Registry  *prometheus.Registry
	Selection []string // bodies started by StartSimulation{}

	cancel  context.CancelFunc
	metrics *http.Server
	done    chan struct{}
}

// New connects to the configured backend. The session's background work
// stops when ctx is done or Close is called.
func New(ctx context.Context, cfg *config.Viewer, clock timeutil.Clock) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		Queue:    &engine.Queue{},
		Clock:    clock,
		Registry: prometheus.NewRegistry(),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	s.Source = client.NewHTTPSource(cfg.GetBackend(), nil, "")
	var src poll.Source = s.Source
	if cfg.GetStream() {
		stream := client.NewStreamSource(s.Source)
		src = stream
		go func() {
			defer close(s.done)
			if err := stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				monitoring.Logf("stream: %v", err)
			}
		}()
	} else {
		close(s.done)
	}

	s.Poller = poll.New(ctx, src, clock, cfg.PollConfig(), metrics.NewPoller(s.Registry))

	ecfg := cfg.EngineConfig()
	if len(cfg.Selection) == 0 {
		if names, err := s.catalogSelection(ctx, s.Poller.ReferenceBody()); err != nil {
			monitoring.Logf("catalog unavailable, using default selection: %v", err)
		} else if len(names) > 0 {
			ecfg.Selection = names
		}
	}
	s.Selection = ecfg.Selection
	s.Engine = engine.New(ecfg, s.Poller, traceplot.Save)

	if addr := cfg.GetMetricsAddr(); addr != "" {
		s.metrics = &http.Server{Addr: addr, Handler: metrics.Handler(s.Registry)}
		go func() {
			if err := s.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				monitoring.Logf("metrics server: %v", err)
			}
		}()
	}
	monitoring.Logf("session %s connected to %s", s.Source.Session(), cfg.GetBackend())
	return s, nil
}

// catalogSelection lists every catalog body except the reference body.
func (s *Session) catalogSelection(ctx context.Context, ref string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()
	entries, err := s.Source.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Name != ref {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// Close stops background work and waits for outstanding requests.
func (s *Session) Close() error {
	s.cancel()
	var err error
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err = s.metrics.Shutdown(ctx)
		cancel()
	}
	s.Poller.Wait()
	<-s.done
	return err
}
