package coro

import "github.com/joeycumines/go-coro/coro/corolog"

// Option configures a Scheduler.
type Option func(*schedulerOptions)

type schedulerOptions struct {
	logger *corolog.Logger
}

// WithLogger attaches a structured logger. Unset, a Scheduler uses
// [corolog.Default]; pass nil to silence it entirely.
func WithLogger(l *corolog.Logger) Option {
	return func(o *schedulerOptions) { o.logger = l }
}

func resolveSchedulerOptions(opts []Option) schedulerOptions {
	o := schedulerOptions{logger: corolog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
