package coro

// genOutput is what a coroutine's goroutine hands back across outCh: either
// a yielded value, or its FinalValue if the body returned or raised.
type genOutput struct {
	yielded any
	final   FinalValue
	isFinal bool
}

// resumeMsg is what the scheduler hands into a coroutine's goroutine across
// resumeCh to drive its next step: a resumed value, or an error to raise at
// the suspension point.
type resumeMsg struct {
	value any
	err   error
}

// generator drives a Func's goroutine one suspension at a time. Exactly one
// of {generator goroutine, caller of Advance} is ever runnable: Advance
// blocks until the body either yields again or terminates, and the body's
// Yield call blocks until Advance is called again (see doc.go).
type generator struct {
	resumeCh chan resumeMsg
	outCh    chan genOutput
}

func newGenerator(fn Func) *generator {
	g := &generator{
		resumeCh: make(chan resumeMsg),
		outCh:    make(chan genOutput),
	}
	go g.run(fn)
	return g
}

func (g *generator) run(fn Func) {
	// The body doesn't start executing until the first Advance.
	if _, ok := <-g.resumeCh; !ok {
		return
	}

	final := g.call(fn)
	g.outCh <- genOutput{final: final, isFinal: true}
}

// call invokes fn, converting a panic into a FinalValue.
func (g *generator) call(fn Func) (final FinalValue) {
	defer func() {
		if r := recover(); r != nil {
			final = FinalValue{Err: &PanicError{Value: r}}
		}
	}()

	yield := func(yielded any) (any, error) {
		g.outCh <- genOutput{yielded: yielded}
		r, ok := <-g.resumeCh
		if !ok {
			// Scheduler shut down mid-suspension; there is nowhere left for
			// this goroutine to report to, so it exits without yielding
			// again. Correct programs never observe this (shutdown asserts
			// no live work remains first).
			panic(ErrShutdown)
		}
		return r.value, r.err
	}

	v, err := fn(yield)
	return FinalValue{Value: v, Err: err}
}

// Advance resumes the coroutine with a resumed value or an error to raise,
// and returns what it does next.
func (g *generator) Advance(value any, err error) genOutput {
	g.resumeCh <- resumeMsg{value: value, err: err}
	return <-g.outCh
}
