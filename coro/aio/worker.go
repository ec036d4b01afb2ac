package aio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	microbatch "github.com/joeycumines/go-microbatch"
)

// WorkerConfig configures a WorkerPool.
type WorkerConfig struct {
	// Size bounds the subsystem's own admission queue; Enqueue returns
	// false once it's full.
	Size int

	// BatchSize caps how many SQEs microbatch.Batcher groups per Process
	// call. See github.com/joeycumines/go-microbatch's BatcherConfig.MaxSize.
	BatchSize int

	// FlushInterval bounds how long an incomplete batch waits before being
	// processed anyway. See BatcherConfig.FlushInterval.
	FlushInterval time.Duration

	// Workers is both the number of goroutines draining the admission
	// queue and microbatch's MaxConcurrency (how many Process calls may
	// run at once).
	Workers int
}

func (c WorkerConfig) withDefaults() WorkerConfig {
	if c.Size <= 0 {
		c.Size = 100
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 10 * time.Millisecond
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	return c
}

// WorkerPool is a generic Subsystem: a bounded admission channel (Enqueue's
// non-blocking backpressure gate) feeding a github.com/joeycumines/go-microbatch
// Batcher that groups and processes submissions concurrently. Both
// reference subsystems (coro/aio/echo, coro/aio/function) are thin
// configurations of this type; a storage-backed subsystem would be another
// one.
//
// Precondition: Enqueue must not be called concurrently with Stop. In this
// module that always holds, because only the scheduler's single goroutine
// ever calls Dispatch (which calls Enqueue), and the scheduler only ever
// calls Shutdown (which calls Stop) once it has asserted no submissions
// remain in flight.
type WorkerPool struct {
	kind    string
	cfg     WorkerConfig
	sink    CompletionSink
	process func([]SQE) []CQE

	sq      chan SQE
	closed  atomic.Bool
	batcher *microbatch.Batcher[SQE]
	wg      sync.WaitGroup
}

// NewWorkerPool builds a WorkerPool. process must be safe to call
// concurrently if cfg.Workers > 1.
func NewWorkerPool(kind string, cfg WorkerConfig, sink CompletionSink, process func([]SQE) []CQE) *WorkerPool {
	cfg = cfg.withDefaults()
	return &WorkerPool{
		kind:    kind,
		cfg:     cfg,
		sink:    sink,
		process: process,
		sq:      make(chan SQE, cfg.Size),
	}
}

func (w *WorkerPool) Kind() string { return w.kind }

func (w *WorkerPool) Size() int { return w.cfg.Size }

func (w *WorkerPool) Start() {
	w.batcher = microbatch.NewBatcher(&microbatch.BatcherConfig{
		MaxSize:        w.cfg.BatchSize,
		FlushInterval:  w.cfg.FlushInterval,
		MaxConcurrency: w.cfg.Workers,
	}, func(_ context.Context, jobs []SQE) error {
		for _, cqe := range w.process(jobs) {
			w.sink.PushCompletion(cqe)
		}
		return nil
	})

	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go w.drain()
	}
}

// drain pulls submissions off the admission queue and hands them to the
// shared batcher, which is what actually groups and runs them.
func (w *WorkerPool) drain() {
	defer w.wg.Done()
	for sqe := range w.sq {
		if _, err := w.batcher.Submit(context.Background(), sqe); err != nil {
			sqe.Callback(nil, err)
		}
	}
}

func (w *WorkerPool) Stop() {
	if !w.closed.CompareAndSwap(false, true) {
		return
	}
	close(w.sq)
	w.wg.Wait()
	_ = w.batcher.Shutdown(context.Background())
}

// Flush is a no-op: the reference subsystems have nothing time-dependent to
// do on a tick boundary. A subsystem that does (e.g. flushing its own
// internal batch early) would override this behavior by not using
// WorkerPool directly.
func (w *WorkerPool) Flush(time int64) {}

func (w *WorkerPool) Enqueue(sqe SQE) bool {
	if w.closed.Load() {
		return false
	}
	select {
	case w.sq <- sqe:
		return true
	default:
		return false
	}
}

func (w *WorkerPool) Process(batch []SQE) []CQE {
	return w.process(batch)
}
