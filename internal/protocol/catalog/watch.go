package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/mikey/internal/protocol"
)

// DefaultDebounce is the quiet period after the last file event before
// the directory is reloaded.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a catalog directory when its YAML files change.
type Watcher struct {
	dir      string
	logger   log.Logger
	debounce time.Duration
	onChange func(context.Context, []*protocol.Protocol) error
}

// NewWatcher creates a watcher for dir. onChange receives the full,
// freshly loaded catalog after every successful reload.
func NewWatcher(dir string, logger log.Logger, onChange func(context.Context, []*protocol.Protocol) error) *Watcher {
	if logger == nil {
		logger = log.Nop()
	}
	return &Watcher{
		dir:      dir,
		logger:   logger.With("component", "catalog_watch", "dir", dir),
		debounce: DefaultDebounce,
		onChange: onChange,
	}
}

// SetDebounce overrides the reload quiet period.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run blocks until ctx is cancelled. A catalog that fails to load is
// logged and skipped; the previous contents stay in place.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Info(ctx, "watching protocol catalog")

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isDocument(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "catalog watch error", "err", err)

		case <-timer.C:
			w.reload(ctx)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	ps, err := LoadDir(w.dir)
	if err != nil {
		w.logger.Error(ctx, err, "catalog reload failed, keeping previous catalog")
		return
	}
	if err := w.onChange(ctx, ps); err != nil {
		w.logger.Error(ctx, err, "apply reloaded catalog")
		return
	}
	w.logger.Info(ctx, "protocol catalog reloaded", "count", len(ps))
}
