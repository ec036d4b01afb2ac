// Package corolog wires the scheduler and I/O bus into a swappable
// structured logger. The default backend is github.com/joeycumines/stumpy,
// a JSON logiface.Writer.
package corolog

import (
	"io"
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger type accepted throughout coro and coro/aio.
type Logger = logiface.Logger[*stumpy.Event]

var (
	mu      sync.RWMutex
	current *Logger
)

func init() {
	current = New(io.Discard)
}

// New builds a Logger writing newline-delimited JSON to w.
func New(w io.Writer) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(logiface.LevelTrace),
	)
}

// SetDefault replaces the package-level default logger, used by components
// that aren't given an explicit logger via WithLogger.
func SetDefault(l *Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = New(io.Discard)
	}
	current = l
}

// Default returns the package-level default logger.
func Default() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}
