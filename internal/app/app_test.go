package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/mikey/internal/cfg"
	"github.com/linnemanlabs/mikey/internal/trigger"
)

func engineConfig() cfg.EngineConfig {
	return cfg.EngineConfig{DedupWindowMillis: 5000, DedupSweepThreshold: 100, WatchCatalog: true}
}

func TestOpen_Builtin(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	rt, err := Open(context.Background(), Options{Engine: engineConfig(), Logger: log.Nop(), Metrics: reg})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()

	if rt.Watching() {
		t.Error("builtin catalog should not be watched")
	}
	if err := rt.Watch(context.Background()); err != nil {
		t.Errorf("Watch without dir = %v, want nil", err)
	}

	res, err := rt.Prompts.Process(context.Background(), trigger.Request{Prompt: "I'm confused about the architecture, can you explain?"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Outcome() != trigger.OutcomeAnalyzed {
		t.Fatalf("outcome = %s, want analyzed", res.Outcome())
	}
	if len(res.TriggeredProtocols) == 0 {
		t.Error("expected triggered protocols from builtin catalog")
	}

	call := rt.Tools.Call(context.Background(), "protocol_read", json.RawMessage(`{"protocol_id":"error-recovery"}`))
	if call.IsError {
		t.Fatalf("protocol_read: %s", call.Text())
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	for _, want := range []string{"mikey_prompts_total", "mikey_tool_calls_total"} {
		if !names[want] {
			t.Errorf("metric %s not registered", want)
		}
	}
}

func TestOpen_NilMetrics(t *testing.T) {
	t.Parallel()

	rt, err := Open(context.Background(), Options{Engine: engineConfig()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()

	if got := len(rt.Tools.Tools()); got != 6 {
		t.Errorf("tools = %d, want 6", got)
	}
}

func TestOpen_CatalogDirWatched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("a.yaml", "id: alpha\nname: Alpha\ntier: 1\nkeywords: [deploy]\n")

	ec := engineConfig()
	ec.CatalogDir = dir
	rt, err := Open(context.Background(), Options{Engine: ec})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()

	if !rt.Watching() {
		t.Fatal("catalog dir should be watched")
	}
	ps, err := rt.Store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ps) != 1 || ps[0].ID != "alpha" {
		t.Fatalf("store = %v, want [alpha]", ps)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Rewrite slower than the debounce until the watcher has registered.
	deadline := time.After(10 * time.Second)
	rewrite := time.NewTicker(time.Second)
	defer rewrite.Stop()
	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()

	write("b.yaml", "id: beta\nname: Beta\ntier: 2\n")
	for {
		select {
		case <-poll.C:
			if _, ok, _ := rt.Protocols.LookupByID(context.Background(), "beta"); ok {
				return
			}
		case <-rewrite.C:
			write("b.yaml", "id: beta\nname: Beta\ntier: 2\n")
		case <-deadline:
			t.Fatal("catalog change was not picked up")
		}
	}
}

func TestOpen_NoWatchWhenDisabled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("id: alpha\nname: Alpha\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	ec := engineConfig()
	ec.CatalogDir = dir
	ec.WatchCatalog = false

	rt, err := Open(context.Background(), Options{Engine: ec})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()
	if rt.Watching() {
		t.Error("Watching() = true with watch disabled")
	}
}

func TestOpen_BadCatalog(t *testing.T) {
	t.Parallel()

	ec := engineConfig()
	ec.CatalogDir = filepath.Join(t.TempDir(), "missing")
	if _, err := Open(context.Background(), Options{Engine: ec}); err == nil {
		t.Fatal("expected error for missing catalog dir")
	}
}
