package coro

// Yield is handed to a [Func] so it can suspend itself. Each call blocks the
// coroutine's goroutine until the scheduler resumes it, returning either the
// value the scheduler fed back in, or the error it raised instead (a
// send/throw duality).
//
// What may be yielded (the sum the scheduler pattern-matches on):
//
//   - Spawn: run a nested [Func] as a child computation. Resumes with a
//     [PromiseHandle] for the child, not its result.
//   - PromiseHandle: await a handle previously returned by Yield.
//   - Now: ask for the current logical tick time (returned as int64).
//   - anything else: a bare I/O submission, routed through the bus by kind.
//     Resumes with a [PromiseHandle] for the submission, just like Spawn —
//     yield that handle again to actually await its completion.
type Yield func(yielded any) (resumed any, err error)

// Func is a coroutine body. It receives a Yield closure to suspend itself
// with, and returns its final value or an error.
type Func func(yield Yield) (any, error)

// Spawn wraps a nested Func to be run as a child computation. Yielding a
// Spawn is how a coroutine spawns a child and receives back the
// PromiseHandle it can later await.
type Spawn struct {
	Fn Func
}

// Now is yielded to request the scheduler's current logical tick time. The
// scheduler resumes the coroutine with that time as an int64.
type Now struct{}

// PromiseHandle is an opaque token identifying one pending computation
// (coroutine or bare submission). It is awaitable by yielding it: the
// coroutine blocks until the referenced computation's [FinalValue] is set.
//
// Handles are distinguished by identity (here, a monotonically increasing
// id), never by contents, and are not resolvable externally — only the
// scheduler that created one can ever resolve it.
type PromiseHandle struct {
	id uint64
}

// FinalValue is the terminal outcome of a computation: exactly one of a
// success Value or a non-nil Err. Once produced it is immutable.
type FinalValue struct {
	Value any
	Err   error
}

// Ok reports whether the FinalValue is a success.
func (f FinalValue) Ok() bool { return f.Err == nil }
