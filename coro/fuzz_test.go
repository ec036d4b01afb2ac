package coro

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/joeycumines/go-coro/coro/aio"
	"github.com/joeycumines/go-coro/coro/aio/echo"
	"github.com/joeycumines/go-coro/coro/aio/function"
	"github.com/stretchr/testify/require"
)

// echoChain yields n sequential echo submissions, feeding each completion's
// value into the next submission, and returns the last one.
func echoChain(n int) Func {
	return func(yield Yield) (any, error) {
		last := "seed"
		for i := 0; i < n; i++ {
			handle, err := yield(echo.Submission{Value: fmt.Sprintf("%s.%d", last, i)})
			if err != nil {
				return nil, err
			}
			v, err := yield(handle)
			if err != nil {
				return nil, err
			}
			last = v.(string)
		}
		return last, nil
	}
}

// funcChain yields n sequential bare function submissions, summing their
// results.
func funcChain(n int) Func {
	return func(yield Yield) (any, error) {
		acc := 0
		for i := 0; i < n; i++ {
			handle, err := yield(function.Func(func() (any, error) { return 1, nil }))
			if err != nil {
				return nil, err
			}
			v, err := yield(handle)
			if err != nil {
				return nil, err
			}
			acc += v.(int)
		}
		return acc, nil
	}
}

// driveDst runs the standard driver loop against a deterministic bus: unlike
// a worker-backed aio.System, aio.Dst only produces completions when Flush
// is called, so each tick polls prior completions, steps the scheduler, then
// flushes to materialize the submissions that step dispatched.
func driveDst(t *testing.T, sched *Scheduler, dst *aio.Dst, maxTicks int64) {
	t.Helper()
	var tick int64
	for tick = 1; sched.Size() > 0 && tick < maxTicks; tick++ {
		for sched.PollCompletions(1024) > 0 {
		}
		sched.RunUntilBlocked(tick)
		dst.Flush(tick)
	}
	for sched.PollCompletions(1024) > 0 {
	}
	sched.RunUntilBlocked(tick)
	require.Less(t, tick, maxTicks, "driveDst: scheduler did not quiesce within the tick budget")
}

// TestScheduler_DeterministicFuzzAllComputationsResolve drives a batch of
// coroutines admitted under a seeded deterministic bus with non-zero
// failure injection probability: every one of them must reach a resolved
// external future — success or failure, never a hang — within a tick
// budget, for every seed.
func TestScheduler_DeterministicFuzzAllComputationsResolve(t *testing.T) {
	const (
		nCoros       = 100
		p            = 0.2
		maxDepth     = 6
		maxTickBound = 10_000
	)

	for _, seed := range []int64{1, 2, 3, 17, 101, 4242} {
		seed := seed
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			dst := aio.NewDst(seed, p)
			dst.Attach(echo.New(echo.Config{Size: 256, BatchSize: 8, Workers: 1}, dst))
			dst.Attach(function.New(function.Config{Size: 256, BatchSize: 8, Workers: 1}, dst))

			sched := NewScheduler(dst, nCoros+1)

			r := rand.New(rand.NewSource(seed))
			handles := make([]*Handle, 0, nCoros)
			for i := 0; i < nCoros; i++ {
				depth := r.Intn(maxDepth) + 1
				var body Func
				if r.Intn(2) == 0 {
					body = echoChain(depth)
				} else {
					body = funcChain(depth)
				}
				h, err := sched.Add(body)
				require.NoError(t, err)
				handles = append(handles, h)
			}

			driveDst(t, sched, dst, maxTickBound)

			require.Zero(t, sched.Size())
			for i, h := range handles {
				select {
				case <-h.Done():
				default:
					t.Fatalf("handle %d never resolved", i)
				}
			}
			sched.Shutdown()
		})
	}
}
