package aio

import (
	"fmt"
	"math/rand"
)

// Dst is a deterministic simulation Bus for fuzz-style testing: it runs no
// worker goroutines at all. Dispatch files a submission into an in-memory
// pending list at a random position; Flush then partitions the pending list
// by kind and, per submission, optionally injects a failure before or after
// calling the subsystem's Process synchronously — all driven off a
// caller-seeded math/rand.Rand, so a run is exactly reproducible from its
// seed.
type Dst struct {
	rng *rand.Rand
	p   float64

	subsystems map[string]Subsystem
	pending    []SQE
	completed  []CQE

	lastFlush int64
	started   bool
}

// NewDst builds a Dst. p is the per-submission probability of injecting a
// failure (split evenly between before- and after-processing); seed makes
// the run reproducible.
func NewDst(seed int64, p float64) *Dst {
	return &Dst{
		rng:        rand.New(rand.NewSource(seed)),
		p:          p,
		subsystems: make(map[string]Subsystem),
		lastFlush:  -1,
	}
}

func (d *Dst) Attach(sub Subsystem) {
	if _, exists := d.subsystems[sub.Kind()]; exists {
		panic(fmt.Sprintf("aio: subsystem kind %q already attached", sub.Kind()))
	}
	d.subsystems[sub.Kind()] = sub
}

// Start and Stop are no-ops: a Dst never runs worker goroutines, so a
// subsystem's own Start/Stop (which would spin up a microbatch.Batcher) is
// never invoked. Processing happens synchronously inside Flush instead.
func (d *Dst) Start() { d.started = true }
func (d *Dst) Stop()  { d.started = false }

// Flush processes every pending submission and advances the simulation
// clock to time. The clock must strictly increase between calls; violating
// that is a panic, since it signals a driver bug, not a runtime condition a
// caller must handle.
func (d *Dst) Flush(time int64) {
	if time <= d.lastFlush {
		panic(fmt.Sprintf("aio: dst flush time %d did not advance past %d", time, d.lastFlush))
	}
	d.lastFlush = time

	byKind := make(map[string][]SQE)
	order := make([]string, 0, len(d.subsystems))
	for _, sqe := range d.pending {
		k := sqe.kind()
		if _, seen := byKind[k]; !seen {
			order = append(order, k)
		}
		byKind[k] = append(byKind[k], sqe)
	}
	d.pending = d.pending[:0]

	for _, kind := range order {
		sub, ok := d.subsystems[kind]
		if !ok {
			panic(fmt.Sprintf("aio: invalid submission kind %q", kind))
		}
		d.flushKind(sub, byKind[kind])
	}

	for _, sub := range d.subsystems {
		sub.Flush(time)
	}
}

func (d *Dst) flushKind(sub Subsystem, sqes []SQE) {
	var toProcess []SQE
	var postFailure []bool
	for _, sqe := range sqes {
		if d.p > 0 && d.rng.Float64() < d.p {
			if d.rng.Float64() < 0.5 {
				d.completed = append(d.completed, CQE{
					Err:      ErrSimulatedPreFailure,
					Callback: sqe.Callback,
					Tags:     sqe.Tags,
				})
				continue
			}
			toProcess = append(toProcess, sqe)
			postFailure = append(postFailure, true)
			continue
		}
		toProcess = append(toProcess, sqe)
		postFailure = append(postFailure, false)
	}
	if len(toProcess) == 0 {
		return
	}
	results := sub.Process(toProcess)
	for i, cqe := range results {
		if i < len(postFailure) && postFailure[i] {
			cqe.Result = nil
			cqe.Err = ErrSimulatedPostFailure
		}
		d.completed = append(d.completed, cqe)
	}
}

// Dispatch inserts sqe into the pending list at a uniformly random
// position, so the order subsystems observe submissions in is not simply
// submission order.
func (d *Dst) Dispatch(sqe SQE) {
	idx := 0
	if n := len(d.pending); n > 0 {
		idx = d.rng.Intn(n + 1)
	}
	d.pending = append(d.pending, SQE{})
	copy(d.pending[idx+1:], d.pending[idx:])
	d.pending[idx] = sqe
}

func (d *Dst) PushCompletion(cqe CQE) {
	d.completed = append(d.completed, cqe)
}

// Dequeue removes up to n completions, in the order Flush produced them.
func (d *Dst) Dequeue(n int) []CQE {
	if n > len(d.completed) {
		n = len(d.completed)
	}
	out := d.completed[:n]
	d.completed = d.completed[n:]
	return out
}

func (d *Dst) Shutdown() {
	d.Stop()
}
