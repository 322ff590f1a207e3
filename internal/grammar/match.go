package grammar

import (
	"context"
	"log/slog"
)

// Sink receives the value produced by a successful match.
type Sink[T any] func(T)

// Set passes v to the sink, nil sinks are ignored.
func (s Sink[T]) Set(v T) {
	if s != nil {
		s(v)
	}
}

// Matcher is implemented by every grammar element.
//
// Match either consumes input, invokes sink at most once and returns true,
// or returns false and leaves the cursor where it was on entry.
// A nil sink turns the call into pure lookahead.
type Matcher[T any] interface {
	Match(cur *Cursor, sink Sink[T]) bool
}

// MatcherFunc adapts an ordinary function to the [Matcher] interface.
type MatcherFunc[T any] func(cur *Cursor, sink Sink[T]) bool

// Match calls fn(cur, sink).
func (fn MatcherFunc[T]) Match(cur *Cursor, sink Sink[T]) bool { return fn(cur, sink) }

// Read applies m and returns the produced value.
func Read[T any](cur *Cursor, m Matcher[T]) (T, bool) {
	var val T
	ok := m.Match(cur, func(v T) { val = v })
	return val, ok
}

// Skip applies m for its boolean outcome only.
func Skip[T any](cur *Cursor, m Matcher[T]) bool { return m.Match(cur, nil) }

// Atomic wraps m so that the cursor is restored whenever m fails,
// even if m itself does not honour the contract.
func Atomic[T any](m Matcher[T]) Matcher[T] {
	return MatcherFunc[T](func(cur *Cursor, sink Sink[T]) bool {
		pos := cur.Pos()
		if m.Match(cur, sink) {
			return true
		}
		cur.SetPos(pos)
		return false
	})
}

type named[T any] struct {
	name string
	m    Matcher[T]
}

// Named labels m for tracing.
// A labelled element that fails without restoring the cursor is reported and repaired.
func Named[T any](name string, m Matcher[T]) Matcher[T] { return named[T]{name, m} }

func (n named[T]) Match(cur *Cursor, sink Sink[T]) bool {
	start := cur.Pos()
	ok := n.m.Match(cur, sink)
	if !ok && cur.Pos() != start {
		if l := cur.Logger(); l != nil {
			l.LogAttrs(context.Background(), slog.LevelError, "grammar element left cursor moved after failure",
				slog.String("element", n.name),
				slog.Int("start", start),
				slog.Int("pos", cur.Pos()),
			)
		}
		cur.SetPos(start)
	}
	cur.trace(n.name, start, ok)
	return ok
}

func (n named[T]) String() string { return n.name }

// First tries each matcher in order and returns the first successful one.
func First[T any](ms ...Matcher[T]) Matcher[T] {
	return MatcherFunc[T](func(cur *Cursor, sink Sink[T]) bool {
		for _, m := range ms {
			if m.Match(cur, sink) {
				return true
			}
			if cur.Err() != nil {
				return false
			}
		}
		return false
	})
}

// Map converts the value produced by m with fn.
func Map[T, U any](m Matcher[T], fn func(T) U) Matcher[U] {
	return MatcherFunc[U](func(cur *Cursor, sink Sink[U]) bool {
		if sink == nil {
			return m.Match(cur, nil)
		}
		return m.Match(cur, func(v T) { sink(fn(v)) })
	})
}
