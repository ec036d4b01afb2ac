package coro

import (
	"errors"
	"fmt"
)

// Sentinel errors. Check these with errors.Is, not ==, since Shutdown's
// assertion failure wraps ErrNotEmpty with additional context.
var (
	// ErrQueueFull is returned by Scheduler.Add when the admission queue is
	// at capacity.
	ErrQueueFull = errors.New("coro: admission queue full")

	// ErrShutdown is returned by Scheduler.Add once Scheduler.Shutdown has
	// been called, and used to unwind a coroutine's goroutine if the
	// scheduler is torn down while it's still suspended.
	ErrShutdown = errors.New("coro: scheduler is shutting down")

	// ErrNotEmpty is the assertion failure raised by Shutdown if live work
	// remains: computations are still live, or the ready deque, awaiting
	// map, or promise map are non-empty. A correct driver never triggers this; it indicates the
	// driver shut down before draining the scheduler (Size() != 0).
	ErrNotEmpty = errors.New("coro: scheduler has live work at shutdown")
)

// PanicError wraps a value recovered from a panic inside a coroutine body.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("coro: panic in coroutine: %v", e.Value)
}

// Unwrap returns the recovered value if it was itself an error, enabling
// errors.Is/errors.As to see through to it.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
