package aio

import "errors"

// Sentinel errors delivered via an SQE's Callback.
var (
	// ErrQueueFull is delivered when a subsystem's own bounded queue
	// rejects an Enqueue.
	ErrQueueFull = errors.New("aio: submission queue full")

	// ErrSimulatedPreFailure is injected by Dst in place of processing a
	// submission at all.
	ErrSimulatedPreFailure = errors.New("aio: simulated failure before processing")

	// ErrSimulatedPostFailure is injected by Dst in place of a subsystem's
	// real result, after processing ran.
	ErrSimulatedPostFailure = errors.New("aio: simulated failure after processing")

	// ErrShuttingDown is delivered to any SQE dispatched after Shutdown.
	ErrShuttingDown = errors.New("aio: bus is shutting down")
)
