package util

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Task is the result of a function running in its own goroutine.
type Task[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn in a new goroutine with ctx. A panic in fn is recovered and
// returned as the task's error.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.err = fmt.Errorf("task panicked: %v\n%s", r, debug.Stack())
			}
		}()
		t.val, t.err = fn(ctx)
	}()
	return t
}

// Done returns a channel closed once the task has finished.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then calls fn with the task's result once it finishes. It does not block.
func (t *Task[T]) Then(fn func(T, error)) {
	go func() {
		<-t.done
		fn(t.val, t.err)
	}()
}
