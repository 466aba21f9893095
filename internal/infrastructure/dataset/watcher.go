package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/crwatch/backend/internal/domain"
)

// DefaultDebounce is how long the watcher waits for writes to settle
const DefaultDebounce = 500 * time.Millisecond

// Reloader is anything that can refresh its snapshot on demand
type Reloader interface {
	Reload(ctx context.Context) (*domain.Snapshot, error)
}

// Watcher reloads the dataset when its file changes on disk.
// The parent directory is watched so editors that replace the file
// through a rename are picked up too.
type Watcher struct {
	path     string
	debounce time.Duration
	reloader Reloader
	logger   zerolog.Logger
}

// NewWatcher creates a watcher for the dataset file at path
func NewWatcher(path string, debounce time.Duration, reloader Reloader, logger zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		reloader: reloader,
		logger:   logger.With().Str("component", "dataset_watcher").Str("path", path).Logger(),
	}
}

// Run watches until ctx is cancelled. Reload failures are logged and the
// watcher keeps running.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.logger.Info().Dur("debounce", w.debounce).Msg("watching dataset file")

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("dataset watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug().Str("op", event.Op.String()).Msg("dataset file changed")

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watcher error")

		case <-timerC:
			timerC = nil
			// Failures are logged by the store and the old snapshot is kept
			_, _ = w.reloader.Reload(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
