// Package coro implements a cooperative, generator-based coroutine
// scheduler.
//
// A [Func] suspends by yielding one of four kinds of value: a [Spawn]
// (a nested coroutine to run as a child), a [PromiseHandle] (await a
// previously yielded child or submission), [Now] (ask for the current
// logical time), or a bare submission (dispatched through a
// [coro/aio.Bus]). Spawning and submitting both hand back a
// [PromiseHandle] immediately — yielding it a second time is what actually
// awaits the result, exactly as for a spawned child. The [Scheduler] drives
// coroutines to completion via single-threaded ticks, resuming a coroutine
// once whatever it's awaiting produces a final value.
//
// Go has no native generator/send/throw protocol, so each [Func] body
// runs on its own goroutine, synchronized with the scheduler goroutine
// through a pair of unbuffered handoff channels; the coroutine only ever
// proceeds while the scheduler is blocked waiting on it, and vice versa, so
// exactly one of the two goroutines is ever actually running. That handoff
// discipline is what makes the scheduler's ready deque, awaiting map, and
// promise map safe to touch without locks: they are only ever mutated from
// the scheduler's own goroutine.
package coro
