package aio

import (
	"fmt"
	"sync"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-coro/coro/corolog"
)

// System is the production Bus: each attached Subsystem runs its own worker
// goroutines (started by Subsystem.Start), and completions are funneled back
// through a single bounded channel.
type System struct {
	cq      chan CQE
	logger  *corolog.Logger
	limiter *catrate.Limiter

	mu         sync.Mutex
	subsystems map[string]Subsystem
	started    bool
	stopped    bool
}

// NewSystem builds a System whose completion queue holds up to cap
// outstanding CQEs before PushCompletion blocks.
func NewSystem(cap int, opts ...Option) *System {
	o := resolveSystemOptions(opts)
	return &System{
		cq:         make(chan CQE, cap),
		logger:     o.logger,
		limiter:    newBackpressureLimiter(o.backpressureRates),
		subsystems: make(map[string]Subsystem),
	}
}

// Attach registers s. Per the Bus contract, a duplicate kind or a subsystem
// whose queue is larger than the bus's own completion queue is a
// programming error, so this panics rather than returning an error.
func (s *System) Attach(sub Subsystem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subsystems[sub.Kind()]; exists {
		panic(fmt.Sprintf("aio: subsystem kind %q already attached", sub.Kind()))
	}
	if sub.Size() > cap(s.cq) {
		panic(fmt.Sprintf("aio: subsystem %q size %d exceeds bus capacity %d", sub.Kind(), sub.Size(), cap(s.cq)))
	}
	s.subsystems[sub.Kind()] = sub
}

func (s *System) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	for _, sub := range s.subsystems {
		sub.Start()
	}
}

func (s *System) Stop() {
	s.mu.Lock()
	subs := make([]Subsystem, 0, len(s.subsystems))
	for _, sub := range s.subsystems {
		subs = append(subs, sub)
	}
	s.stopped = true
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Stop()
	}
}

func (s *System) Flush(time int64) {
	s.mu.Lock()
	subs := make([]Subsystem, 0, len(s.subsystems))
	for _, sub := range s.subsystems {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub.Flush(time)
	}
}

// Dispatch routes sqe to the subsystem named by its kind, delivering
// ErrQueueFull (with a rate-limited log line) if that subsystem's own queue
// rejects it. A kind with no attached subsystem panics.
func (s *System) Dispatch(sqe SQE) {
	kind := sqe.kind()
	s.mu.Lock()
	sub, ok := s.subsystems[kind]
	stopped := s.stopped
	s.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("aio: invalid submission kind %q", kind))
	}
	if stopped {
		sqe.Callback(nil, ErrShuttingDown)
		return
	}
	if !sub.Enqueue(sqe) {
		s.logBackpressure(kind)
		sqe.Callback(nil, ErrQueueFull)
	}
}

func (s *System) logBackpressure(kind string) {
	if s.logger == nil {
		return
	}
	if s.limiter != nil {
		if _, ok := s.limiter.Allow(kind); !ok {
			return
		}
	}
	s.logger.Warning().Str("kind", kind).Log("aio: submission queue full")
}

// PushCompletion delivers cqe to the bus's completion queue, blocking if
// it's momentarily full: backpressure between a subsystem's workers and the
// scheduler's drain loop.
func (s *System) PushCompletion(cqe CQE) {
	s.cq <- cqe
}

// Dequeue removes up to n completions without blocking.
func (s *System) Dequeue(n int) []CQE {
	out := make([]CQE, 0, n)
	for i := 0; i < n; i++ {
		select {
		case cqe := <-s.cq:
			out = append(out, cqe)
		default:
			return out
		}
	}
	return out
}

// Shutdown stops every subsystem and drains the completion queue, logging a
// warning with the count of any completions still in it; their callbacks
// are not invoked. A caller that reaches Shutdown with a non-empty queue has
// already violated the scheduler's own invariant that dequeue drains fully
// before a shutdown is attempted.
func (s *System) Shutdown() {
	s.Stop()
	if leftover := s.Dequeue(len(s.cq)); len(leftover) > 0 && s.logger != nil {
		s.logger.Warning().Int("count", len(leftover)).Log("aio: shutdown with undelivered completions")
	}
}
