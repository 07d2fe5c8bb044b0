package server

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

// Debouncer coalesces bursts of work per document: only the last function
// scheduled for a URI within the delay runs. A zero delay runs functions
// immediately on the calling goroutine.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	byURI map[string]func(func())
}

// NewDebouncer creates a debouncer with the given delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay, byURI: map[string]func(func()){}}
}

// Do schedules f for uri.
func (d *Debouncer) Do(uri string, f func()) {
	d.mu.Lock()
	if d.delay <= 0 {
		d.mu.Unlock()
		f()
		return
	}
	debounced, ok := d.byURI[uri]
	if !ok {
		debounced = debounce.New(d.delay)
		d.byURI[uri] = debounced
	}
	d.mu.Unlock()

	debounced(f)
}

// Forget drops the pending function of uri.
func (d *Debouncer) Forget(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if debounced, ok := d.byURI[uri]; ok {
		debounced(func() {})
		delete(d.byURI, uri)
	}
}

// SetDelay changes the delay for functions scheduled from now on.
func (d *Debouncer) SetDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if delay == d.delay {
		return
	}
	for _, debounced := range d.byURI {
		debounced(func() {})
	}
	d.delay = delay
	d.byURI = map[string]func(func()){}
}
