// Package aio implements the I/O bus: it routes submissions to subsystems
// by kind, collects their completions into a bounded completion queue, and
// hands them back in batches. It is the shared contract between the
// scheduler and whatever concrete subsystems (echo, function-invocation,
// and — out of this core's scope — a storage layer) a caller attaches.
//
// [System] is the production bus, backed by worker goroutines; [Dst] is a
// deterministic simulation bus for fuzz-style testing, which runs no
// workers at all and instead processes submissions synchronously on Flush,
// with seeded failure injection.
package aio

// Kind is implemented by submission payloads that route themselves to a
// named subsystem. A value that doesn't implement Kind — in practice a bare
// func() (any, error) — routes to the reserved FunctionKind instead.
type Kind interface {
	// Kind names the subsystem this submission routes to.
	Kind() string
}

// FunctionKind is the reserved subsystem name that bare callables
// (func() (any, error), with no Kind method of their own) route to.
const FunctionKind = "function"

// Callback is invoked exactly once per submitted SQE, with either its
// result or the error it failed with (never both).
type Callback func(result any, err error)

// SQE (Submission Queue Entry) pairs a kind-tagged submission with the
// callback to invoke once it completes. Tags are propagated unchanged to
// the resulting CQE — useful for correlating completions back to the call
// site, but otherwise opaque to the bus.
type SQE struct {
	Submission any
	Callback   Callback
	Tags       map[string]string
}

func (s SQE) kind() string {
	if k, ok := s.Submission.(Kind); ok {
		return k.Kind()
	}
	return FunctionKind
}

// CQE (Completion Queue Entry) is a settled SQE.
type CQE struct {
	Result   any
	Err      error
	Callback Callback
	Tags     map[string]string
}

// Invoke calls the completion's callback with its result or error.
func (c CQE) Invoke() {
	c.Callback(c.Result, c.Err)
}

// Subsystem is what the bus requires of each registered I/O backend:
// process() is the synchronous core, used both by worker goroutines (in
// System) and by the deterministic driver (in Dst); enqueue/start/stop/
// flush are the lifecycle and backpressure surface.
type Subsystem interface {
	// Kind names the subsystem; must be unique across a bus.
	Kind() string

	// Size is this subsystem's own bounded queue capacity. A bus asserts
	// it is no larger than the bus's own completion-queue capacity at
	// Attach time.
	Size() int

	// Start spins up whatever worker goroutines this subsystem needs.
	Start()

	// Stop drains and joins those workers.
	Stop()

	// Flush delivers the current logical tick time. Reference subsystems
	// (echo, function) have no use for it and implement it as a no-op; a
	// subsystem that batches on its own schedule would use it instead.
	Flush(time int64)

	// Enqueue submits one SQE to the subsystem's own bounded queue,
	// non-blocking: false means the queue was full and the caller (the
	// bus) must deliver a backpressure error via sqe.Callback instead.
	Enqueue(sqe SQE) bool

	// Process runs a batch of SQEs to completion synchronously. Used both
	// by worker goroutines and directly by Dst.
	Process(batch []SQE) []CQE
}

// CompletionSink is the narrow capability a Subsystem needs in order to
// deliver completions back to whichever bus it was attached to, from its
// own worker goroutines.
type CompletionSink interface {
	PushCompletion(cqe CQE)
}

// Bus is the contract both System and Dst satisfy, so a Scheduler (or a
// test) can be built against either.
type Bus interface {
	CompletionSink

	// Attach registers a subsystem. A duplicate kind, or a subsystem whose
	// own size exceeds the bus's completion-queue capacity, is a
	// programming error, not a runtime condition — it panics.
	Attach(s Subsystem)

	Start()
	Stop()
	Flush(time int64)

	// Dispatch routes sqe to the subsystem named by its kind. A kind with
	// no attached subsystem is, likewise, a programming error and panics
	// (in System, from Dispatch itself; in Dst, from the next Flush).
	Dispatch(sqe SQE)

	// Dequeue removes up to n completions, non-blocking.
	Dequeue(n int) []CQE

	// Shutdown stops every subsystem and drains the completion queue.
	Shutdown()
}
