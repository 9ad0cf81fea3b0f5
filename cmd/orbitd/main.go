// orbitd is the reference simulation backend: an n-body integrator over a
// SQLite body catalog, served over HTTP and WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/spacehole-rogue/orbitview/internal/config"
	"github.com/spacehole-rogue/orbitview/internal/simserver"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "backend config file (.json)")
	listen := flag.String("listen", "", "HTTP listen address")
	dbPath := flag.String("db", "", "body catalog database path")
	flag.Parse()

	cfg := &config.Server{}
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadServer(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *listen != "" {
		cfg.Listen = listen
	}
	if *dbPath != "" {
		cfg.DBPath = dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("orbitd: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Server) error {
	cat, err := simserver.OpenCatalog(ctx, cfg.GetDBPath())
	if err != nil {
		return err
	}
	defer cat.Close()

	sim, err := simserver.NewSimulation(ctx, cat, cfg.SimConfig())
	if err != nil {
		return err
	}

	scfg := cfg.ServerConfig()
	if cfg.GetMetrics() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		scfg.Registry = reg
	}

	srv := &http.Server{
		Addr:        cfg.GetListen(),
		Handler:     simserver.NewServer(sim, scfg).Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("serving on %s (catalog %s)", srv.Addr, cfg.GetDBPath())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Println("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
