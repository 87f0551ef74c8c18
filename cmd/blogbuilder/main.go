package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/buildstore"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/daemon"
	"git.home.luguber.info/inful/blogbuilder/internal/gitsource"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Source  string `arg:"" optional:"" help:"Source directory (default from config)"`
		Output  string `arg:"" optional:"" help:"Output directory (default from config)"`
		FromGit string `help:"Clone content from this git repository URL; <source> is then relative to the checkout"`
		Branch  string `help:"Branch to check out with --from-git"`
		State   string `help:"Build history database path (default from config)"`
	} `cmd:"" help:"Build the site from a source directory into an output directory"`

	Preview struct {
		Source string `arg:"" optional:"" help:"Source directory (default from config)"`
		Port   int    `short:"p" help:"Port to serve the preview on" default:"8080"`
	} `cmd:"" help:"Build into a temporary directory, serve it, and rebuild on change"`

	Daemon struct{} `cmd:"" help:"Start continuous mode: serve, watch, scheduled rebuilds, metrics"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	var err error
	switch ctx.Command() {
	case "build", "build <source>", "build <source> <output>":
		err = runBuild()
	case "preview", "preview <source>":
		err = runPreview()
	case "daemon":
		err = runDaemon()
	case "init":
		err = config.Init(CLI.Config, CLI.Init.Force)
	}
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfigOrDefault loads the configuration file when present; a missing
// file yields defaults so `build <source> <output>` works without one.
func loadConfigOrDefault(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Debug("No configuration file, using defaults", "path", path)
		cfg := &config.Config{}
		cfg.Normalize()
		return cfg, nil
	}
	return config.Load(path)
}

func runBuild() error {
	cfg, err := loadConfigOrDefault(CLI.Config)
	if err != nil {
		return err
	}

	source := CLI.Build.Source
	if source == "" {
		source = cfg.Source
	}
	output := CLI.Build.Output
	if output == "" {
		output = cfg.Output
	}

	if CLI.Build.FromGit != "" {
		ws, err := gitsource.NewWorkspace()
		if err != nil {
			return err
		}
		defer func() {
			if err := ws.Cleanup(); err != nil {
				slog.Warn("Failed to cleanup workspace", "error", err)
			}
		}()

		checkout, err := ws.Clone(CLI.Build.FromGit, CLI.Build.Branch)
		if err != nil {
			return err
		}
		source = filepath.Join(checkout, source)
		if _, err := os.Stat(source); err != nil {
			return fmt.Errorf("source directory %s not found in checkout: %w", source, err)
		}
	}

	statePath := CLI.Build.State
	if statePath == "" {
		statePath = cfg.State
	}
	store, err := buildstore.Open(statePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := build.Run(context.Background(), cfg, build.Options{
		Source: source,
		Output: output,
		Store:  store,
	})
	if err != nil {
		return err
	}
	return result.Err()
}

func runPreview() error {
	cfg, err := loadConfigOrDefault(CLI.Config)
	if err != nil {
		return err
	}

	source := CLI.Preview.Source
	if source == "" {
		source = cfg.Source
	}

	output, err := os.MkdirTemp("", "blogbuilder-preview-")
	if err != nil {
		return fmt.Errorf("create preview output directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(output) }()

	opts := daemon.Options{
		Source: source,
		Output: output,
		Listen: fmt.Sprintf(":%d", CLI.Preview.Port),
	}
	return runDaemonLoop(cfg, opts)
}

func runDaemon() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	store, err := buildstore.Open(cfg.State)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	opts := daemon.Options{
		Source:         cfg.Source,
		Output:         cfg.Output,
		Listen:         cfg.Daemon.Listen,
		EnableSchedule: true,
		Store:          store,
	}

	if cfg.Daemon.NATS != nil && cfg.Daemon.NATS.URL != "" {
		publisher, err := daemon.NewEventPublisher(cfg.Daemon.NATS)
		if err != nil {
			return err
		}
		opts.Publisher = publisher
	}

	return runDaemonLoop(cfg, opts)
}

// runDaemonLoop runs a daemon until an interrupt or termination signal.
func runDaemonLoop(cfg *config.Config, opts daemon.Options) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg, opts)
	if err != nil {
		return err
	}
	if err := d.Start(ctx); err != nil {
		return err
	}

	slog.Info("Running, waiting for shutdown signal...")
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := d.Stop(stopCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stop daemon: %w", err)
	}
	return nil
}
