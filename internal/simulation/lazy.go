package simulation

import (
	"sync"
	"sync/atomic"
)

// lazy holds a value that is computed on first access and cached afterwards.
type lazy[T any] struct {
	once     sync.Once
	computed atomic.Bool
	val      T
	err      error
}

func (l *lazy[T]) get(compute func() (T, error)) (T, error) {
	l.once.Do(func() {
		l.val, l.err = compute()
		l.computed.Store(true)
	})
	return l.val, l.err
}

// Computed reports whether the value has been computed.
func (l *lazy[T]) Computed() bool {
	return l.computed.Load()
}

// optional is a value that may be absent from the log.
type optional[T any] struct {
	v  T
	ok bool
}

func some[T any](v T) (optional[T], error) { return optional[T]{v: v, ok: true}, nil }

func none[T any]() (optional[T], error) { return optional[T]{}, nil }
