package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/eventfolio/eventfolio/pkg/core"
)

// Watch observes document changes under the catalog root and emits them on
// the returned channel until ctx is cancelled. pattern, when non-empty, is
// a doublestar glob applied to root-relative paths; otherwise only
// recognized document files are reported. Best effort: enumeration races
// with concurrent writers are inherent.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	events := make(chan core.Event, 64)
	w := newWatchWorker(s, pattern, events)

	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		if err := w.Stop(context.Background()); err != nil && s.config.Logger != nil {
			s.config.Logger.Warn("watcher stop failed", "error", err)
		}
		close(events)
		return nil
	})

	return events, nil
}

type watchWorker struct {
	*worker.BaseWorker
	store     *Store
	pattern   string
	events    chan<- core.Event
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(store *Store, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("catalog-watcher"),
		store:      store,
		pattern:    pattern,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := w.store.recursiveAdd(watcher); err != nil {
		_ = watcher.Close()
		return err
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(50 * time.Millisecond)
	w.store.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}
	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

func (w *watchWorker) run(ctx context.Context) error {
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()

	err := w.loop(ctx)

	// Drain in-flight timers before the events channel is closed upstream.
	w.debouncer.stopAndWait(5 * time.Second)
	return err
}

func (w *watchWorker) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.handleEvent(ctx, event)

		case werr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			if w.store.config.Logger != nil {
				w.store.config.Logger.Error("fsnotify error", "error", werr)
			}
		}
	}
}

func (w *watchWorker) handleEvent(ctx context.Context, event fsnotify.Event) {
	// New directories need an explicit watch on kernels without recursive
	// notification.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.store.ignoredDir(event.Name) {
				_ = w.watcher.Add(event.Name)
			}
			return
		}
	}

	rel, err := filepath.Rel(w.store.Root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if w.store.loc.skip(rel) || !w.matches(rel) {
		return
	}

	eType := mapEventType(event)
	if eType == "" {
		return
	}

	w.debouncer.add(core.Event{
		Type:      eType,
		Path:      rel,
		Timestamp: time.Now().Unix(),
	}, func(e core.Event) {
		select {
		case w.events <- e:
		case <-ctx.Done():
		}
	})
}

// matches filters events to catalog documents, or to the caller's pattern
// when one was supplied.
func (w *watchWorker) matches(rel string) bool {
	base := filepath.Base(rel)
	if strings.HasSuffix(base, lockSuffix) || strings.HasPrefix(base, TempFilePrefix) {
		return false
	}
	if w.pattern != "" {
		ok, err := doublestar.Match(w.pattern, rel)
		return err == nil && ok
	}
	return base == docFilename || base == docFilenameAlt || filepath.Ext(base) == ".md"
}

func mapEventType(event fsnotify.Event) core.EventType {
	switch {
	case event.Has(fsnotify.Create):
		return core.EventCreate
	case event.Has(fsnotify.Write):
		return core.EventModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return core.EventDelete
	default:
		return ""
	}
}

// recursiveAdd registers every directory under the root with the watcher,
// skipping ignored subtrees.
func (s *Store) recursiveAdd(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != s.Root && s.ignoredDir(path) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func (s *Store) ignoredDir(path string) bool {
	name := filepath.Base(path)
	return ignoredDirs[name] || name == s.config.SystemDir
}
