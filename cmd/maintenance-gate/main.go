package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/conradoqg/maintenance-gate/internal/collector"
	"github.com/conradoqg/maintenance-gate/internal/config"
	"github.com/conradoqg/maintenance-gate/internal/gate"
	"github.com/conradoqg/maintenance-gate/internal/logx"
	"github.com/conradoqg/maintenance-gate/internal/maintenance"
	"github.com/conradoqg/maintenance-gate/internal/remote"
	"github.com/conradoqg/maintenance-gate/internal/store"
)

func main() {
	var (
		configPath    string
		listenAddress string
	)
	flag.StringVar(&configPath, "config", "config.yaml", "Path to config YAML (empty: environment only)")
	flag.StringVar(&listenAddress, "listen", "", "Listen address, overrides server.listen")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("failed to load config from %s: %v", configPath, err)
		os.Exit(1)
	}
	if listenAddress != "" {
		cfg.Server.Listen = listenAddress
	}
	logx.SetLevelFromString(cfg.Common.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		logx.Errorf("%v", err)
		os.Exit(1)
	}
}

// run serves until ctx is done. The store is closed before it returns.
func run(ctx context.Context, cfg *config.Config) error {
	st, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store at %s: %w", cfg.Store.Driver, cfg.Store.Path, err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logx.Warnf("close store: %v", err)
		}
	}()

	var src remote.Source
	if s := remote.FromConfig(cfg); s != nil {
		src = s
		logx.Infof("remote status document: %s", s.URL())
	} else {
		logx.Infof("no remote status document configured; using local store only")
	}

	res := maintenance.New(src, st, maintenance.Options{
		CacheDuration: cfg.Maintenance.CacheDuration,
		Fallback:      cfg.Maintenance.FallbackToLocalStorage,
	})
	logx.Infof("local maintenance flag at startup: %t", res.LocalStatus(ctx))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collector.New(res))

	g := gate.New(res, cfg.Server.MaintenancePage, cfg.Server.AllowPrefixes)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle(gate.APIPath, g.APIHandler())
	if cfg.Server.SiteDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.Server.SiteDir)))
	}

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      g.Middleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Common.Timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logx.Warnf("server shutdown: %v", err)
		}
	}()

	logx.Infof("maintenance-gate listening on %s", cfg.Server.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	<-shutdownDone
	return nil
}
