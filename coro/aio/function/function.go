// Package function is the reference subsystem for bare callables: a
// submission with no Kind method routes to aio.FunctionKind, and this
// package's Subsystem runs it directly, synchronously, on a worker. It
// exists so a coroutine can fire off arbitrary blocking work through the
// same bus used for everything else rather than spawning its own goroutine.
package function

import (
	"github.com/joeycumines/go-coro/coro/aio"
)

// Func is the shape a submission must have to run on this subsystem: note
// it has no Kind method, so it falls through SQE.kind()'s default to
// aio.FunctionKind.
type Func func() (any, error)

// Config mirrors echo.Config: Size bounds the admission queue, BatchSize and
// Workers tune the underlying go-microbatch engine. A function submission
// rarely benefits from batching (each is independent work), so BatchSize is
// usually left at 1; it is still routed through aio.WorkerPool for the same
// bounded-backpressure and worker-pool lifecycle every subsystem shares.
type Config struct {
	Size      int
	BatchSize int
	Workers   int
}

// New builds the function aio.Subsystem.
func New(cfg Config, sink aio.CompletionSink) aio.Subsystem {
	return aio.NewWorkerPool(aio.FunctionKind, aio.WorkerConfig{
		Size:      cfg.Size,
		BatchSize: cfg.BatchSize,
		Workers:   cfg.Workers,
	}, sink, func(batch []aio.SQE) []aio.CQE {
		out := make([]aio.CQE, len(batch))
		for i, sqe := range batch {
			fn, ok := sqe.Submission.(Func)
			if !ok {
				out[i] = aio.CQE{Err: ErrNotAFunc, Callback: sqe.Callback, Tags: sqe.Tags}
				continue
			}
			result, err := fn()
			out[i] = aio.CQE{Result: result, Err: err, Callback: sqe.Callback, Tags: sqe.Tags}
		}
		return out
	})
}
