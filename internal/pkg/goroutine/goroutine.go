// Package goroutine runs named background tasks under a concurrency cap and
// collects their errors and panics.
package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/shandysiswandi/sigil/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine = 16

var (
	// ErrClosed is returned by Go after Wait has been called.
	ErrClosed = errors.New("goroutine: manager is closed")
	// ErrLimitReached is returned by Go when every slot is busy.
	ErrLimitReached = errors.New("goroutine: concurrency limit reached")
	// ErrPanic wraps a recovered panic.
	ErrPanic = errors.New("goroutine: task panicked")
)

// Manager runs tasks in goroutines and remembers what they returned.
type Manager struct {
	mu     sync.Mutex
	errs   []error
	wg     sync.WaitGroup
	sema   chan struct{}
	closed bool
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = DefaultMaxGoroutine
	}
	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go starts f under name. It does not block: when no slot is free or the
// manager is closed the task is not started and the reason is returned.
func (g *Manager) Go(ctx context.Context, name string, f func(ctx context.Context) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrClosed
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached", "task", name)
		return ErrLimitReached
	}

	g.wg.Go(func() {
		defer func() { <-g.sema }()

		if err := run(ctx, name, f); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, fmt.Errorf("%s: %w", name, err))
			g.mu.Unlock()
		}
	})

	return nil
}

func run(ctx context.Context, name string, f func(ctx context.Context) error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			slog.ErrorContext(ctx, "panic occurred in goroutine", "task", name, "panic", rvr, "stack", stacktrace.Frames(stack))
			err = fmt.Errorf("%w: %v", ErrPanic, rvr)
		}
	}()

	if ctx.Err() != nil {
		slog.WarnContext(ctx, "goroutine canceled before start", "task", name, "because", ctx.Err())
		return nil
	}

	return f(ctx)
}

// Wait closes the manager, blocks until every task has returned and reports
// their joined errors.
func (g *Manager) Wait() error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
