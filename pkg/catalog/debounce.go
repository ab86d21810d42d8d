package catalog

import (
	"sync"
	"time"

	"github.com/eventfolio/eventfolio/pkg/core"
)

// debouncer coalesces bursts of filesystem events per document path so a
// single editor save does not fan out into several emissions.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// add schedules fn(e) after the debounce delay, replacing any pending
// emission for the same path.
func (b *debouncer) add(e core.Event, fn func(core.Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}

	if t, ok := b.timers[e.Path]; ok && t.Stop() {
		b.wg.Done()
	}

	b.wg.Add(1)
	b.timers[e.Path] = time.AfterFunc(b.delay, func() {
		defer b.wg.Done()
		b.mu.Lock()
		delete(b.timers, e.Path)
		b.mu.Unlock()
		fn(e)
	})
}

// stopAndWait stops accepting new events and waits (bounded) for all
// in-flight timers to finish, so the caller can safely close downstream
// channels.
func (b *debouncer) stopAndWait(timeout time.Duration) {
	b.mu.Lock()
	b.stopped = true
	for path, t := range b.timers {
		if t.Stop() {
			b.wg.Done()
		}
		delete(b.timers, path)
	}
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
