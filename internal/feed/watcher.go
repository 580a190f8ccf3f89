package feed

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher turns writes to a SQLite database file, or its WAL and journal,
// into a single debounced callback.
type Watcher struct {
	dbPath   string
	debounce time.Duration
	onChange func()
	log      zerolog.Logger
	watcher  *fsnotify.Watcher
	names    map[string]bool
}

func NewWatcher(dbPath string, debounce time.Duration, onChange func(), logger zerolog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	base := filepath.Base(abs)
	return &Watcher{
		dbPath:   abs,
		debounce: debounce,
		onChange: onChange,
		log:      logger,
		watcher:  w,
		names:    map[string]bool{base: true, base + "-wal": true, base + "-journal": true},
	}, nil
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	// The directory is watched because SQLite replaces and creates sidecar files.
	dir := filepath.Dir(w.dbPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Debug().Str("dir", dir).Dur("debounce", w.debounce).Msg("watching database")

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("database watcher error")
		case <-timerC:
			timer = nil
			timerC = nil
			w.log.Debug().Msg("database changed")
			if w.onChange != nil {
				w.onChange()
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !w.names[filepath.Base(ev.Name)] {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}
