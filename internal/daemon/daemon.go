// Package daemon implements continuous mode: it serves the published site,
// rebuilds on source changes and on a schedule, exposes Prometheus metrics,
// and optionally publishes build events to NATS.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/buildstore"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Options selects which daemon facilities run. Preview mode disables the
// schedule and events and serves from a temporary output directory.
type Options struct {
	Source string
	Output string
	Listen string

	EnableSchedule bool
	Store          *buildstore.Store
	Publisher      *EventPublisher
}

// Daemon coordinates the watcher, scheduler, HTTP server, and rebuilds.
type Daemon struct {
	cfg  *config.Config
	opts Options

	metrics   *Metrics
	debouncer *Debouncer
	watcher   *Watcher
	scheduler *Scheduler
	server    *http.Server

	building atomic.Bool
	wg       sync.WaitGroup
	cancel   context.CancelFunc
}

// New assembles a daemon; nothing runs until Start.
func New(cfg *config.Config, opts Options) (*Daemon, error) {
	d := &Daemon{cfg: cfg, opts: opts, metrics: NewMetrics()}
	d.debouncer = NewDebouncer(300*time.Millisecond, 5*time.Second, func() {
		d.rebuild(context.Background())
	})

	watcher, err := NewWatcher(opts.Source, d.debouncer)
	if err != nil {
		return nil, fmt.Errorf("watch source directory: %w", err)
	}
	d.watcher = watcher

	if opts.EnableSchedule {
		scheduler, err := NewScheduler(time.Duration(cfg.Daemon.RebuildInterval), func() {
			d.rebuild(context.Background())
		})
		if err != nil {
			return nil, err
		}
		d.scheduler = scheduler
	}

	d.server = &http.Server{
		Addr:              opts.Listen,
		Handler:           d.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return d, nil
}

// Start runs the initial build and launches all daemon loops. It returns once
// everything is running; use Stop for shutdown.
func (d *Daemon) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// The initial build runs synchronously so the server never serves an
	// empty site.
	d.rebuild(runCtx)

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		d.debouncer.Run(runCtx)
	}()
	go func() {
		defer d.wg.Done()
		d.watcher.Run(runCtx)
	}()

	if d.scheduler != nil {
		d.scheduler.Start()
	}

	go func() {
		slog.Info("Serving site", logfields.URL("http://"+d.server.Addr), logfields.Output(d.opts.Output))
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", logfields.Error(err))
		}
	}()
	return nil
}

// Stop shuts everything down, waiting up to ctx's deadline.
func (d *Daemon) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}
	if d.scheduler != nil {
		if err := d.scheduler.Stop(); err != nil {
			slog.Warn("Scheduler shutdown failed", logfields.Error(err))
		}
	}
	if d.opts.Publisher != nil {
		d.opts.Publisher.Close()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return d.server.Shutdown(ctx)
}

// rebuild runs one build pass; overlapping triggers collapse into the running
// build (the debouncer queues a follow-up via the next fs event or tick).
func (d *Daemon) rebuild(ctx context.Context) {
	if !d.building.CompareAndSwap(false, true) {
		slog.Debug("Rebuild already in progress, trigger dropped")
		return
	}
	defer d.building.Store(false)

	result, err := build.Run(ctx, d.cfg, build.Options{
		Source:        d.opts.Source,
		Output:        d.opts.Output,
		Store:         d.opts.Store,
		SkipUnchanged: d.opts.Store != nil,
	})
	if err != nil {
		slog.Error("Rebuild failed", logfields.Error(err))
		return
	}

	d.metrics.ObserveBuild(result)

	if d.opts.Publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := d.opts.Publisher.PublishBuild(pubCtx, result); err != nil {
			slog.Warn("Build event publish failed", logfields.RunID(result.RunID), logfields.Error(err))
		}
	}
}
