// Package visitor dispatches syntax nodes to handlers keyed by node kind.
package visitor

import (
	"nominal/internal/engine/ast"
)

// Handler processes one node and returns a result.
type Handler[R any] func(n *ast.Node) R

// KindVisitor maps node kinds to handlers. Kinds without a handler, and
// nodes whose kind is outside the known set, go to the fallback, which is
// the single place unhandled shapes are dealt with.
type KindVisitor[R any] struct {
	handlers map[ast.Kind]Handler[R]
	fallback Handler[R]
}

// New returns a visitor whose unhandled kinds go to fallback.
func New[R any](fallback Handler[R]) *KindVisitor[R] {
	return &KindVisitor[R]{
		handlers: make(map[ast.Kind]Handler[R]),
		fallback: fallback,
	}
}

// On registers fn for every given kind, replacing earlier registrations.
func (v *KindVisitor[R]) On(fn Handler[R], kinds ...ast.Kind) *KindVisitor[R] {
	for _, k := range kinds {
		v.handlers[k] = fn
	}
	return v
}

// Visit dispatches n. A nil node yields the zero result.
func (v *KindVisitor[R]) Visit(n *ast.Node) R {
	if n == nil {
		var zero R
		return zero
	}
	if n.Kind.Valid() {
		if fn, ok := v.handlers[n.Kind]; ok {
			return fn(n)
		}
	}
	if v.fallback == nil {
		var zero R
		return zero
	}
	return v.fallback(n)
}
