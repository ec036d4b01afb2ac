package coro

// Computation is either a Func (a coroutine, restartable and resumable) or
// a bare unit of work: any value with no internal suspension points, routed
// straight through the I/O bus by kind (see coro/aio). A bare work unit is
// typically a function.Func (the reserved "function" kind; that subsystem
// rejects any other callable type with function.ErrNotAFunc) or a value
// implementing aio's Kind interface.
type Computation any

// ipc (in-process computation) is the scheduler's bookkeeping record for one
// live Computation. It is only ever touched from the scheduler's own
// goroutine — even though its coroutine's body runs on a separate goroutine,
// that goroutine is blocked inside Yield for the entire time the scheduler
// is doing anything with the ipc.
type ipc struct {
	id   uint64
	body Computation
	gen  *generator // non-nil iff body is a Func

	next resumeMsg // fed into the next call to send

	final *FinalValue

	// pending holds promises this coroutine has received (via a yielded
	// Spawn/submission) but not yet awaited. If the coroutine returns while
	// holding some, each later send drains one instead of reanimating the
	// coroutine.
	pending []PromiseHandle

	// handle is set iff this ipc was admitted externally via Scheduler.Add.
	handle *Handle
}

func newIPC(id uint64, body Computation) *ipc {
	p := &ipc{id: id, body: body}
	if fn, ok := body.(Func); ok {
		p.gen = newGenerator(fn)
	}
	return p
}

// isCoroutine reports whether this ipc wraps a resumable Func, as opposed
// to a bare unit of work.
func (p *ipc) isCoroutine() bool { return p.gen != nil }

// send drives the coroutine one step forward (or drains a pending promise /
// returns the stored result, once final). Bare work units never call send;
// they are dispatched once, directly, by the scheduler's step algorithm.
func (p *ipc) send() (yielded any, final FinalValue, isFinal bool) {
	if p.final != nil {
		if n := len(p.pending); n > 0 {
			h := p.pending[n-1]
			p.pending = p.pending[:n-1]
			return h, FinalValue{}, false
		}
		return nil, *p.final, true
	}

	// Resuming with a PromiseHandle hands it to the coroutine; until the
	// coroutine yields that same handle back (to await it) or terminates,
	// it's "pending" — held but not yet awaited.
	if h, ok := p.next.value.(PromiseHandle); ok && p.next.err == nil {
		p.pending = append(p.pending, h)
	}

	out := p.gen.Advance(p.next.value, p.next.err)
	p.next = resumeMsg{}

	if out.isFinal {
		return nil, out.final, true
	}

	if h, ok := out.yielded.(PromiseHandle); ok {
		p.removePending(h)
	}

	return out.yielded, FinalValue{}, false
}

func (p *ipc) removePending(h PromiseHandle) {
	for i, q := range p.pending {
		if q == h {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			return
		}
	}
}
