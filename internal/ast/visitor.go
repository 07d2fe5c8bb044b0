package ast

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrCancelled is returned when a traversal stops because its context
	// was cancelled.
	ErrCancelled = errors.New("operation cancelled")

	// ErrParseUnavailable is returned when no syntax tree can be obtained for
	// a document.
	ErrParseUnavailable = errors.New("parse unavailable")
)

// Handler processes one node. It owns the decision to descend: call
// v.Generic(node) to visit the children.
type Handler func(v *Visitor, node *Node)

// Visitor performs a pre-order traversal, dispatching each node to the most
// specific handler registered for its kind or one of the kind's ancestors.
// The context is polled before every node.
type Visitor struct {
	ctx      context.Context
	handlers [kindCount]Handler
	fallback Handler
	stopped  bool
	err      error
}

// NewVisitor creates a visitor bound to ctx. A nil ctx never cancels.
func NewVisitor(ctx context.Context) *Visitor {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Visitor{ctx: ctx}
}

// On registers h for kind and, through the hierarchy, for every kind below it
// that has no handler of its own.
func (v *Visitor) On(kind Kind, h Handler) *Visitor {
	if kind < kindCount {
		v.handlers[kind] = h
	}
	return v
}

// Default replaces the handler used when no kind in a node's ancestry has
// one. Without it, unhandled nodes are simply descended into.
func (v *Visitor) Default(h Handler) *Visitor {
	v.fallback = h
	return v
}

// Walk visits root and its descendants. It returns an error wrapping
// ErrCancelled if the context was cancelled before the walk completed.
func (v *Visitor) Walk(root *Node) error {
	v.stopped = false
	v.err = nil
	v.Visit(root)
	return v.err
}

// Visit dispatches a single node.
func (v *Visitor) Visit(node *Node) {
	if node == nil || v.stopped {
		return
	}
	if err := v.ctx.Err(); err != nil {
		v.err = fmt.Errorf("%w: %w", ErrCancelled, err)
		v.stopped = true
		return
	}

	if h := v.handlerFor(node.Kind); h != nil {
		h(v, node)
		return
	}
	if v.fallback != nil {
		v.fallback(v, node)
		return
	}
	v.Generic(node)
}

// Generic visits the children of node in declaration order.
func (v *Visitor) Generic(node *Node) {
	node.EachChild(v.Visit)
}

// Stop ends the traversal early without an error.
func (v *Visitor) Stop() {
	v.stopped = true
}

// Stopped reports whether the traversal was stopped or cancelled.
func (v *Visitor) Stopped() bool {
	return v.stopped
}

func (v *Visitor) handlerFor(kind Kind) Handler {
	for cur := kind; ; {
		if cur < kindCount {
			if h := v.handlers[cur]; h != nil {
				return h
			}
		}
		parent, ok := cur.Parent()
		if !ok {
			return nil
		}
		cur = parent
	}
}

// Skip is a handler that neither records nor descends.
func Skip(*Visitor, *Node) {}

// Inspect calls fn for every node in pre-order until fn returns false for a
// node, in which case that node's children are skipped.
func Inspect(ctx context.Context, root *Node, fn func(*Node) bool) error {
	return NewVisitor(ctx).Default(func(v *Visitor, node *Node) {
		if fn(node) {
			v.Generic(node)
		}
	}).Walk(root)
}
