package catalog

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the catalog when a table file in the watched directory
// changes. A failed reload keeps the previous snapshot.
type Watcher struct {
	catalog  *Catalog
	dir      string
	log      *slog.Logger
	debounce time.Duration

	// OnReload, when set, runs after every successful reload.
	OnReload func(c *Catalog)
}

// NewWatcher constructs a Watcher for the given catalog directory.
func NewWatcher(catalog *Catalog, dir string, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}

	return &Watcher{
		catalog:  catalog,
		dir:      dir,
		log:      log,
		debounce: 2 * time.Second,
	}
}

// Run watches the catalog directory until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return err
	}

	w.log.Info("catalog watcher started", slog.String("dir", w.dir))

	// Editors and exporters emit bursts of write events; coalesce them
	// into a single reload per debounce window.
	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.log.Info("catalog watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !isCatalogFile(event.Name) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil

			if err := w.catalog.Reload(w.dir); err != nil {
				w.log.Error("catalog reload failed, keeping previous snapshot", slog.Any("error", err))
				continue
			}
			w.log.Info("catalog reloaded", slog.String("dir", w.dir), slog.Int("spells", w.catalog.SpellCount()))

			if w.OnReload != nil {
				w.OnReload(w.catalog)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("catalog watcher error", slog.Any("error", err))
		}
	}
}

func isCatalogFile(path string) bool {
	switch filepath.Base(path) {
	case classesFile, spellsFile, rulebooksFile:
		return true
	}
	return false
}
