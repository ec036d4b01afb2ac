package aio

import (
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-coro/coro/corolog"
)

// Option configures a System (the production Bus): a small closure-over-config
// type rather than a struct of fields, so zero-value Option slices are
// harmless.
type Option func(*systemOptions)

type systemOptions struct {
	logger            *corolog.Logger
	backpressureRates map[time.Duration]int
}

// WithLogger attaches a structured logger (see coro/corolog) to a System.
// Unset, a System uses corolog.Default; pass nil to silence it entirely.
func WithLogger(l *corolog.Logger) Option {
	return func(o *systemOptions) { o.logger = l }
}

// WithBackpressureLogRate rate-limits, per subsystem kind, how often a
// "submission queue full" warning is logged — using
// github.com/joeycumines/go-catrate the way a production service would
// throttle any other noisy-under-overload log line. It never throttles the
// ErrQueueFull delivered to the caller, only the ambient log about it.
// The default, if unset, is 1 log line per subsystem kind per second.
func WithBackpressureLogRate(rates map[time.Duration]int) Option {
	return func(o *systemOptions) { o.backpressureRates = rates }
}

func resolveSystemOptions(opts []Option) systemOptions {
	o := systemOptions{
		logger:            corolog.Default(),
		backpressureRates: map[time.Duration]int{time.Second: 1},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

func newBackpressureLimiter(rates map[time.Duration]int) *catrate.Limiter {
	if len(rates) == 0 {
		return nil
	}
	return catrate.NewLimiter(rates)
}
