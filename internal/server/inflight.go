package server

import (
	"context"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map/v2"
)

type pass struct {
	id     uint64
	cancel context.CancelFunc
}

// Inflight tracks the running analysis pass of each document. Starting a
// pass for a document cancels the one it supersedes.
type Inflight struct {
	passes cmap.ConcurrentMap[string, *pass]
	seq    atomic.Uint64
}

// NewInflight creates an empty registry.
func NewInflight() *Inflight {
	return &Inflight{passes: cmap.New[*pass]()}
}

// Begin registers a new pass for uri and returns its context. done must be
// called when the pass ends; it releases the context and unregisters the
// pass unless a newer one replaced it.
func (f *Inflight) Begin(parent context.Context, uri string) (ctx context.Context, done func()) {
	ctx, cancel := context.WithCancel(parent)
	current := &pass{id: f.seq.Add(1), cancel: cancel}

	f.passes.Upsert(uri, current, func(exists bool, previous, next *pass) *pass {
		if exists {
			previous.cancel()
		}
		return next
	})

	return ctx, func() {
		cancel()
		f.passes.RemoveCb(uri, func(_ string, p *pass, exists bool) bool {
			return exists && p.id == current.id
		})
	}
}

// Cancel stops the running pass of uri, if any.
func (f *Inflight) Cancel(uri string) {
	if p, ok := f.passes.Pop(uri); ok {
		p.cancel()
	}
}

// CancelAll stops every running pass.
func (f *Inflight) CancelAll() {
	for _, uri := range f.passes.Keys() {
		f.Cancel(uri)
	}
}

// Len returns the number of running passes.
func (f *Inflight) Len() int {
	return f.passes.Count()
}
