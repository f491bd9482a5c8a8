// Package app assembles the pieces every binary needs: the protocol catalog
// and its store, the protocol registry, the trigger service and the tool
// registry.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/mikey/internal/cfg"
	"github.com/linnemanlabs/mikey/internal/postgres"
	"github.com/linnemanlabs/mikey/internal/protocol"
	"github.com/linnemanlabs/mikey/internal/protocol/catalog"
	"github.com/linnemanlabs/mikey/internal/protocol/memstore"
	"github.com/linnemanlabs/mikey/internal/protocol/pgstore"
	"github.com/linnemanlabs/mikey/internal/tools"
	"github.com/linnemanlabs/mikey/internal/trigger"
)

// Options configure Open.
type Options struct {
	Engine cfg.EngineConfig
	Logger log.Logger

	// Metrics receives trigger and tool metrics. Nil disables them.
	Metrics prometheus.Registerer

	// Clock drives the dedup cache. Nil means the system clock.
	Clock trigger.Clock
}

// Runtime is the assembled application.
type Runtime struct {
	Store     protocol.Store
	Protocols *protocol.Registry
	Prompts   *trigger.Service
	Tools     *tools.Registry

	watcher *catalog.Watcher
	closers []func()
}

// Open loads the catalog, seeds the store and wires the services.
// Close must be called to release the database pool when one is opened.
func Open(ctx context.Context, opts Options) (*Runtime, error) {
	L := opts.Logger
	if L == nil {
		L = log.Nop()
	}
	ec := opts.Engine

	ps, source, err := loadCatalog(ec.CatalogDir)
	if err != nil {
		return nil, err
	}
	L.Info(ctx, "loaded protocol catalog", "source", source, "protocols", len(ps))

	rt := &Runtime{}

	if ec.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, ec.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres pool: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		pgStore, err := pgstore.New(ctx, pool)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("pgstore init: %w", err)
		}
		if err := pgStore.Replace(ctx, ps); err != nil {
			rt.Close()
			return nil, fmt.Errorf("seed catalog: %w", err)
		}
		rt.Store = pgStore
		L.Info(ctx, "using postgres store")
	} else {
		rt.Store = memstore.New(ps...)
		L.Info(ctx, "using in-memory store (no database-url configured)")
	}

	rt.Protocols = protocol.NewRegistry(rt.Store)

	var promptHooks trigger.ServiceHooks
	rt.Tools = tools.NewRegistry()
	if opts.Metrics != nil {
		promptHooks = trigger.NewMetrics(opts.Metrics).Hooks()
		rt.Tools.SetHooks(tools.NewMetrics(opts.Metrics).Hooks())
	}

	cache := trigger.NewCache(opts.Clock, ec.DedupWindow(), ec.DedupSweepThreshold)
	engine := trigger.NewEngine(rt.Protocols, rt.Protocols)
	rt.Prompts = trigger.NewService(engine, cache, L, promptHooks)

	tools.RegisterAll(rt.Tools, rt.Protocols, rt.Prompts)
	for _, t := range rt.Tools.Tools() {
		L.Info(ctx, "registered tool", "name", t.Name())
	}

	if ec.CatalogDir != "" && ec.WatchCatalog {
		rt.watcher = catalog.NewWatcher(ec.CatalogDir, L, rt.Store.Replace)
	}

	return rt, nil
}

func loadCatalog(dir string) ([]*protocol.Protocol, string, error) {
	if dir == "" {
		ps, err := catalog.Builtin()
		if err != nil {
			return nil, "", fmt.Errorf("load builtin catalog: %w", err)
		}
		return ps, "builtin", nil
	}
	ps, err := catalog.LoadDir(dir)
	if err != nil {
		return nil, "", fmt.Errorf("load catalog: %w", err)
	}
	return ps, dir, nil
}

// Watching reports whether Watch will reload the catalog.
func (rt *Runtime) Watching() bool { return rt.watcher != nil }

// Watch reloads the catalog directory on change until ctx is cancelled.
// It returns immediately when no directory is being watched.
func (rt *Runtime) Watch(ctx context.Context) error {
	if rt.watcher == nil {
		return nil
	}
	return rt.watcher.Run(ctx)
}

// Close releases resources opened by Open.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
