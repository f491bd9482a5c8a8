// Mcp serves the mikey tools to an MCP client over stdin/stdout.
// Logs go to stderr; stdout carries only protocol messages.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/linnemanlabs/go-core/cfg"
	"github.com/linnemanlabs/go-core/log"
	v "github.com/linnemanlabs/go-core/version"

	"github.com/linnemanlabs/mikey/internal/app"
	vc "github.com/linnemanlabs/mikey/internal/cfg"
	"github.com/linnemanlabs/mikey/internal/mcpserver"
)

const appName = "mikey"
const component = "mcp"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v.AppName = appName
	v.Component = component
	vi := v.Get()

	var (
		engineCfg vc.EngineConfig
		logCfg    log.Config
	)
	engineCfg.RegisterFlags(flag.CommandLine)
	logCfg.RegisterFlags(flag.CommandLine)
	var showVersion bool
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")

	flag.Parse()
	if showVersion {
		// stderr, stdout belongs to the protocol
		fmt.Fprintf(os.Stderr,
			"%s (%s) %s (commit=%s, build_date=%s, go=%s)\n",
			vi.AppName, vi.Component, vi.Version, vi.Commit, vi.BuildDate, vi.GoVersion,
		)
		return nil
	}

	cfg.FillFromEnv(flag.CommandLine, "MIKEY_", func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})

	if err := errors.Join(engineCfg.Validate(), logCfg.Validate()); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	lg, err := log.New(logCfg.ToOptions(v.AppName))
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	L := lg.With("component", vi.Component)
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"catalog_dir", engineCfg.CatalogDir,
		"dedup_window_ms", engineCfg.DedupWindowMillis,
	)

	rt, err := app.Open(ctx, app.Options{Engine: engineCfg, Logger: L})
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.Watching() {
		go func() {
			if err := rt.Watch(ctx); err != nil {
				L.Error(ctx, err, "catalog watcher stopped")
			}
		}()
	}

	server := mcpserver.New(rt.Tools, vi.Version, L)
	L.Info(ctx, "serving mcp over stdio", "tools", len(rt.Tools.Tools()))

	if err := mcpserver.Serve(ctx, server); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}

	L.Info(context.Background(), "shutdown complete")
	return nil
}
