package aio_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/go-coro/coro/aio"
	"github.com/joeycumines/go-coro/coro/aio/echo"
	"github.com/joeycumines/go-coro/coro/aio/function"
	"github.com/stretchr/testify/require"
)

func TestSystem_EchoRoundTrip(t *testing.T) {
	sys := aio.NewSystem(16)
	sys.Attach(echo.New(echo.Config{Size: 16, BatchSize: 4, Workers: 1}, sys))
	sys.Start()
	defer sys.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	var result any
	var cbErr error
	sys.Dispatch(aio.SQE{
		Submission: echo.Submission{Value: "hello"},
		Callback: func(r any, err error) {
			result, cbErr = r, err
			wg.Done()
		},
	})

	require.Eventually(t, func() bool {
		n := sys.Dequeue(1)
		for _, cqe := range n {
			cqe.Invoke()
		}
		return len(n) > 0
	}, time.Second, time.Millisecond)

	wg.Wait()
	require.NoError(t, cbErr)
	require.Equal(t, "hello", result)
}

func TestSystem_FunctionRoundTrip(t *testing.T) {
	sys := aio.NewSystem(16)
	sys.Attach(function.New(function.Config{Size: 16, BatchSize: 1, Workers: 1}, sys))
	sys.Start()
	defer sys.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	var result any
	var cbErr error
	sys.Dispatch(aio.SQE{
		Submission: function.Func(func() (any, error) { return 42, nil }),
		Callback: func(r any, err error) {
			result, cbErr = r, err
			wg.Done()
		},
	})

	require.Eventually(t, func() bool {
		n := sys.Dequeue(1)
		for _, cqe := range n {
			cqe.Invoke()
		}
		return len(n) > 0
	}, time.Second, time.Millisecond)

	wg.Wait()
	require.NoError(t, cbErr)
	require.Equal(t, 42, result)
}

func TestSystem_FunctionFailurePropagates(t *testing.T) {
	sys := aio.NewSystem(16)
	sys.Attach(function.New(function.Config{Size: 16, BatchSize: 1, Workers: 1}, sys))
	sys.Start()
	defer sys.Stop()

	sentinel := require.New(t)
	var wg sync.WaitGroup
	wg.Add(1)
	var cbErr error
	sys.Dispatch(aio.SQE{
		Submission: function.Func(func() (any, error) { return nil, assertErr }),
		Callback: func(_ any, err error) {
			cbErr = err
			wg.Done()
		},
	})

	require.Eventually(t, func() bool {
		n := sys.Dequeue(1)
		for _, cqe := range n {
			cqe.Invoke()
		}
		return len(n) > 0
	}, time.Second, time.Millisecond)

	wg.Wait()
	sentinel.ErrorIs(cbErr, assertErr)
}

func TestSystem_AttachDuplicateKindPanics(t *testing.T) {
	sys := aio.NewSystem(16)
	sub := function.New(function.Config{Size: 4, BatchSize: 1, Workers: 1}, sys)
	sys.Attach(sub)
	require.Panics(t, func() { sys.Attach(sub) })
}

func TestSystem_AttachOversizedSubsystemPanics(t *testing.T) {
	sys := aio.NewSystem(4)
	sub := function.New(function.Config{Size: 100, BatchSize: 1, Workers: 1}, sys)
	require.Panics(t, func() { sys.Attach(sub) })
}

func TestSystem_DispatchUnknownKindPanics(t *testing.T) {
	sys := aio.NewSystem(16)
	require.Panics(t, func() {
		sys.Dispatch(aio.SQE{Submission: echo.Submission{Value: "x"}})
	})
}

func TestSystem_DispatchWhenSubsystemFullDeliversQueueFull(t *testing.T) {
	sys := aio.NewSystem(16)
	block := make(chan struct{})
	// sys.Stop waits for every hung worker goroutine to drain, so block must
	// be closed (unblocking them) before Stop runs: deferred calls execute
	// LIFO, so Stop is deferred first and close(block) last.
	defer sys.Stop()
	defer close(block)

	// A single-worker, unbuffered-batch subsystem whose jobs all hang on
	// block: submitting faster than one job can drain eventually saturates
	// its bounded queue and backpressure kicks in.
	fn := function.New(function.Config{Size: 1, BatchSize: 1, Workers: 1}, sys)
	sys.Attach(fn)
	sys.Start()

	var (
		mu      sync.Mutex
		sawFull bool
	)
	hang := function.Func(func() (any, error) { <-block; return nil, nil })
	// Dispatch is synchronous: on backpressure it invokes Callback with
	// ErrQueueFull before returning, so there's nothing to wait for here —
	// only an enqueued-but-hung job would call back later (or never), which
	// this loop never blocks on.
	require.Eventually(t, func() bool {
		sys.Dispatch(aio.SQE{
			Submission: hang,
			Callback: func(_ any, err error) {
				if err != nil {
					mu.Lock()
					sawFull = sawFull || errors.Is(err, aio.ErrQueueFull)
					mu.Unlock()
				}
			},
		})
		mu.Lock()
		defer mu.Unlock()
		return sawFull
	}, 2*time.Second, time.Microsecond)
}

var assertErr = &sentinelErr{"boom"}

type sentinelErr struct{ s string }

func (e *sentinelErr) Error() string { return e.s }
