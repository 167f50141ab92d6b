package fs

import (
	"sync"
	"time"

	"github.com/vellumkit/vellum/pkg/core"
)

// debouncer coalesces bursts of identical events: editors and git commonly
// touch a file several times in quick succession, and consumers only care
// about the last state.
type debouncer struct {
	window time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window: window,
		timers: make(map[string]*time.Timer),
	}
}

// add schedules emit for the event after the debounce window. A newer event
// with the same slug and type resets the window and supersedes the old one.
func (d *debouncer) add(e core.Event, emit func(core.Event)) {
	key := string(e.Type) + ":" + e.Slug

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if t, ok := d.timers[key]; ok {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
	}

	d.wg.Add(1)
	d.timers[key] = time.AfterFunc(d.window, func() {
		defer d.wg.Done()
		d.mu.Lock()
		delete(d.timers, key)
		stopped := d.stopped
		d.mu.Unlock()
		if stopped {
			return
		}
		emit(e)
	})
}

// stopAndWait cancels pending timers and waits for in-flight emits, so the
// caller can safely close the channel emits write to.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
