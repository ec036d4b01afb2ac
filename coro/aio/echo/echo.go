// Package echo is a reference I/O subsystem: it echoes its input back as
// its result after an artificial per-batch delay, standing in for a
// subsystem that would otherwise talk to a real backend.
package echo

import (
	"time"

	"github.com/joeycumines/go-coro/coro/aio"
)

// Kind is the subsystem name submissions of type Submission route to.
const Kind = "echo"

// Submission is what callers submit through the echo subsystem.
type Submission struct {
	Value string
}

// Kind implements aio.Kind.
func (Submission) Kind() string { return Kind }

// Config controls the echo subsystem: Size bounds the admission queue,
// BatchSize/Workers control the github.com/joeycumines/go-microbatch engine
// underneath, and Delay is applied once per processed batch (not per
// submission), so a caller can observe batching behavior in tests.
type Config struct {
	Size      int
	BatchSize int
	Workers   int
	Delay     time.Duration
}

// New builds an echo aio.Subsystem. It is a thin configuration of
// aio.WorkerPool: the only domain logic is Process, which just returns each
// submission's Value back as its Result.
func New(cfg Config, sink aio.CompletionSink) aio.Subsystem {
	return aio.NewWorkerPool(Kind, aio.WorkerConfig{
		Size:      cfg.Size,
		BatchSize: cfg.BatchSize,
		Workers:   cfg.Workers,
	}, sink, func(batch []aio.SQE) []aio.CQE {
		if cfg.Delay > 0 {
			time.Sleep(cfg.Delay)
		}
		out := make([]aio.CQE, len(batch))
		for i, sqe := range batch {
			sub, _ := sqe.Submission.(Submission)
			out[i] = aio.CQE{
				Result:   sub.Value,
				Callback: sqe.Callback,
				Tags:     sqe.Tags,
			}
		}
		return out
	})
}
