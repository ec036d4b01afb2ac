package coro

import (
	"container/list"
	"fmt"
	"sync"

	"github.com/joeycumines/go-coro/coro/aio"
	"github.com/joeycumines/go-coro/coro/corolog"
)

// admissionEntry is one (computation, external future) pair sitting in the
// admission queue.
type admissionEntry struct {
	body   Computation
	handle *Handle
}

// Scheduler runs coroutines cooperatively on top of an [aio.Bus]. Its
// internal bookkeeping (the ready deque, the awaiting and
// promise maps) is scheduler-local and only ever touched from one driver
// goroutine — the one calling RunUntilBlocked, PollCompletions and
// Shutdown. The admission queue is the one exception: [Scheduler.Add] is
// safe to call from any goroutine, the same way multiple request handlers
// might all admit background work concurrently; it's a bounded, thread-safe,
// non-blocking queue that the driver goroutine alone drains, at the start of
// each RunUntilBlocked.
type Scheduler struct {
	bus    aio.Bus
	logger *corolog.Logger

	admission   chan admissionEntry
	admissionMu sync.Mutex
	closed      bool

	ready    *list.List      // of *ipc, ready to be sent into
	awaiting map[uint64]*ipc // blocker ipc id -> blocked (awaiting) ipc
	promises map[uint64]*ipc // promise id -> child ipc, removed on first await

	nextID        uint64
	nextPromiseID uint64
	liveCount     int

	logicalTime int64
}

// NewScheduler builds a Scheduler driving coroutines through bus, with an
// admission queue bounded to admissionCapacity entries.
func NewScheduler(bus aio.Bus, admissionCapacity int, opts ...Option) *Scheduler {
	if admissionCapacity <= 0 {
		admissionCapacity = 256
	}
	o := resolveSchedulerOptions(opts)
	return &Scheduler{
		bus:       bus,
		logger:    o.logger,
		admission: make(chan admissionEntry, admissionCapacity),
		ready:     list.New(),
		awaiting:  make(map[uint64]*ipc),
		promises:  make(map[uint64]*ipc),
	}
}

// Add admits a new root [Computation] — either a [Func] (a coroutine) or a
// bare unit of work — and returns a [Handle] that settles once it finishes.
// Admission is non-blocking: if the admission queue is saturated, Add
// returns [ErrQueueFull] and the Handle is nil; if the scheduler has been
// shut down, it returns [ErrShutdown]. This is the only way to introduce
// work into a Scheduler from the outside; everything else is spawned from
// within a running coroutine via [Spawn].
func (s *Scheduler) Add(body Computation) (*Handle, error) {
	h := newHandle()
	s.admissionMu.Lock()
	defer s.admissionMu.Unlock()
	if s.closed {
		return nil, ErrShutdown
	}
	select {
	case s.admission <- admissionEntry{body: body, handle: h}:
		return h, nil
	default:
		return nil, ErrQueueFull
	}
}

func (s *Scheduler) allocID() uint64 {
	id := s.nextID
	s.nextID++
	return id
}

// Size reports the number of computations still live: admitted but not yet
// drained, queued, blocked awaiting a child or I/O completion, or spawned
// but not yet drained. A driver loop polls this to know when it's safe to
// Shutdown.
func (s *Scheduler) Size() int { return s.liveCount + len(s.admission) }

// RunUntilBlocked drains the admission queue (FIFO) onto the ready deque,
// advances logicalTime to time (fed back to any coroutine that yields
// [Now]), and steps ready computations until none remain runnable — i.e.
// until every live coroutine is blocked on a child, an I/O completion, or
// has finished. Its postcondition is that the ready deque is empty; on
// entry the deque may already hold computations that PollCompletions
// unblocked.
func (s *Scheduler) RunUntilBlocked(time int64) {
	s.drainAdmission()
	s.logicalTime = time
	for s.step() {
	}
}

// Tick performs one unblock pass followed by stepping to quiescence. The
// unblock pass isn't a separate scan over the awaiting map — settle
// unblocks a waiter the instant its blocker finalizes, whether that happens
// mid-step or from a completion processed by PollCompletions — so by the
// time Tick or RunUntilBlocked is called, every unblock that could have
// happened already has. The two are therefore equivalent here; Tick exists
// under its own name for callers that think of their driver loop in terms
// of discrete ticks rather than "run until blocked".
func (s *Scheduler) Tick(time int64) {
	s.RunUntilBlocked(time)
}

func (s *Scheduler) drainAdmission() {
	for {
		select {
		case e, ok := <-s.admission:
			if !ok {
				return
			}
			p := newIPC(s.allocID(), e.body)
			p.handle = e.handle
			s.liveCount++
			if p.isCoroutine() {
				s.ready.PushFront(p)
			} else {
				s.dispatchBare(p)
			}
		default:
			return
		}
	}
}

// step pops one ready computation and drives it one step forward. It
// reports whether it did any work.
func (s *Scheduler) step() bool {
	el := s.ready.Back()
	if el == nil {
		return false
	}
	s.ready.Remove(el)
	p := el.Value.(*ipc)

	yielded, final, isFinal := p.send()
	if isFinal {
		s.finalize(p, final)
		return true
	}

	switch y := yielded.(type) {
	case Spawn:
		s.handleSpawn(p, y)
	case PromiseHandle:
		s.handleAwait(p, y)
	case Now:
		p.next = resumeMsg{value: s.logicalTime}
		s.ready.PushFront(p)
	default:
		s.handleSubmission(p, yielded)
	}
	return true
}

// handleSpawn admits y.Fn as a new child computation, allocates a promise
// for it, and arranges for p to resume (on its next turn) with the
// PromiseHandle it can later await. The child and then p are both pushed via
// PushFront onto a deque that step pops from the back, so the freshly
// spawned child is stepped to its first suspension before p resumes with
// its handle.
func (s *Scheduler) handleSpawn(p *ipc, y Spawn) {
	child := newIPC(s.allocID(), Computation(y.Fn))
	s.liveCount++
	promiseID := s.nextPromiseID
	s.nextPromiseID++
	s.promises[promiseID] = child

	s.ready.PushFront(child)
	p.next = resumeMsg{value: PromiseHandle{id: promiseID}}
	s.ready.PushFront(p)
}

// handleAwait resolves a yielded PromiseHandle: if the referenced
// computation has already finished, p resumes immediately with its result;
// otherwise p is parked in awaiting until it does.
func (s *Scheduler) handleAwait(p *ipc, h PromiseHandle) {
	child, ok := s.promises[h.id]
	if !ok {
		panic(fmt.Sprintf("coro: await of unknown or already-awaited promise %d", h.id))
	}
	delete(s.promises, h.id)

	if child.final != nil {
		p.next = resumeMsg{value: child.final.Value, err: child.final.Err}
		s.ready.PushFront(p)
		return
	}
	s.awaiting[child.id] = p
}

// handleSubmission treats a bare (non-Spawn/PromiseHandle/Now) yielded value
// as an I/O submission: exactly like handleSpawn, it's wrapped in its own
// ipc, given a promise immediately handed back to p, and dispatched through
// the bus. p resumes holding that promise — it may yield it straight back to
// await the completion, or hold onto it (even past return, per the
// post-final drain rule) the same as it would a spawned child's handle. The
// only difference from a Spawn is how the child ipc is driven to final: a
// bus dispatch instead of a ready-deque step.
func (s *Scheduler) handleSubmission(p *ipc, submission any) {
	child := newIPC(s.allocID(), submission)
	s.liveCount++
	promiseID := s.nextPromiseID
	s.nextPromiseID++
	s.promises[promiseID] = child

	s.dispatchBare(child)
	p.next = resumeMsg{value: PromiseHandle{id: promiseID}}
	s.ready.PushFront(p)
}

// dispatchBare submits a non-coroutine computation's body directly to the
// bus, settling its ipc once the completion arrives.
func (s *Scheduler) dispatchBare(p *ipc) {
	s.bus.Dispatch(aio.SQE{
		Submission: p.body,
		Callback: func(result any, err error) {
			fv := FinalValue{Value: result, Err: err}
			p.final = &fv
			s.settle(p, fv)
		},
	})
}

// finalize records p's terminal outcome the first time it's reached. If p
// is still holding promises it spawned but never explicitly awaited, it's
// pushed back onto the ready deque so the next step drains one — via
// ipc.send's post-final path, which yields each pending handle as if it
// were genuinely awaited, so every spawned child still gets removed from
// the promise map (and, if still running, properly joined) even when its
// parent never got around to awaiting it. Only once nothing is left
// pending does p actually settle.
func (s *Scheduler) finalize(p *ipc, fv FinalValue) {
	if p.final == nil {
		p.final = &fv
	}
	if len(p.pending) > 0 {
		s.ready.PushFront(p)
		return
	}
	s.settle(p, fv)
}

// settle resolves p's external Handle (if any — only ipcs admitted via Add
// have one) and unblocks whatever computation was awaiting it. p.final must
// already be set.
func (s *Scheduler) settle(p *ipc, fv FinalValue) {
	s.liveCount--
	if p.handle != nil {
		p.handle.settle(fv)
	}
	s.unblock(p)
}

func (s *Scheduler) unblock(p *ipc) {
	parent, ok := s.awaiting[p.id]
	if !ok {
		return
	}
	delete(s.awaiting, p.id)
	parent.next = resumeMsg{value: p.final.Value, err: p.final.Err}
	s.ready.PushFront(parent)
}

// PollCompletions drains up to n completions from the bus and invokes their
// callbacks — each of which is one of the Callback closures built in
// dispatchBare, so this is how a bus worker goroutine's result re-enters the
// Scheduler's single-threaded bookkeeping. It returns the number processed.
// A driver loop calls this (then RunUntilBlocked) repeatedly until Size is
// zero, then calls Shutdown.
func (s *Scheduler) PollCompletions(n int) int {
	cqes := s.bus.Dequeue(n)
	for _, cqe := range cqes {
		cqe.Invoke()
	}
	if len(cqes) > 0 && s.logger != nil {
		s.logger.Trace().Int("count", len(cqes)).Log("coro: polled completions")
	}
	return len(cqes)
}

// Shutdown closes the admission queue (subsequent Add calls fail with
// ErrShutdown) and stops the bus. Calling it while computations remain live
// is a programming error — the driver loop must poll Size down to zero
// first — so it panics rather than silently abandoning outstanding work.
func (s *Scheduler) Shutdown() {
	s.admissionMu.Lock()
	s.closed = true
	close(s.admission)
	s.admissionMu.Unlock()

	if s.liveCount != 0 || s.ready.Len() != 0 || len(s.awaiting) != 0 || len(s.promises) != 0 {
		panic(fmt.Errorf(
			"%w (live=%d ready=%d awaiting=%d promises=%d)",
			ErrNotEmpty, s.liveCount, s.ready.Len(), len(s.awaiting), len(s.promises),
		))
	}
	s.bus.Shutdown()
}
