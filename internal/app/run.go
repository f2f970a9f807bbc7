package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shandysiswandi/sigil/internal/authenticator/inbound"
	"github.com/shandysiswandi/sigil/internal/authenticator/usecase"
)

const (
	exitFailure = 1
	exitUsage   = 2
)

// Start runs the command in args and returns a channel closed once it has
// finished or the process received a termination signal.
func (a *App) Start(args []string) <-chan struct{} {
	terminateChan := make(chan struct{})
	done := make(chan struct{})

	if err := a.goroutine.Go(a.ctx, "cli", func(ctx context.Context) error {
		defer close(done)
		err := a.cli.Run(ctx, args)
		if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(a.stderr, "sigil:", err)
		}
		a.exitCode = exitStatus(err)
		return nil
	}); err != nil {
		slog.Error("failed to start command", "error", err)
		a.exitCode = exitFailure
		close(done)
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigint)

		select {
		case <-sigint:
			slog.Debug("termination signal received")
		case <-done:
		}

		if a.cancel != nil {
			a.cancel()
		}

		close(terminateChan)
	}()

	return terminateChan
}

func exitStatus(err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	case errors.Is(err, inbound.ErrUsage):
		return exitUsage
	default:
		return exitFailure
	}
}

// Watch streams code snapshots for every account, one per tick, until ctx is
// done. The first snapshot is sent immediately.
func (a *App) Watch(ctx context.Context) <-chan []usecase.Display {
	ch := make(chan []usecase.Display)
	interval := a.config.GetMillisecond("app.tick_interval_millis")
	if interval <= 0 {
		interval = time.Second
	}

	err := a.goroutine.Go(ctx, "watch", func(ctx context.Context) error {
		defer close(ch)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			displays, err := a.authenticator.Codes(ctx, time.Time{})
			if err != nil {
				return fmt.Errorf("refresh codes: %w", err)
			}

			select {
			case ch <- displays:
			case <-ctx.Done():
				return nil
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return nil
			}
		}
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to start watcher", "error", err)
		close(ch)
	}

	return ch
}

// Stop cancels outstanding work, waits for background tasks and closes
// resources in reverse order of creation.
func (a *App) Stop(ctx context.Context) {
	a.close(ctx)
}

func (a *App) close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	if a.goroutine != nil {
		if err := a.goroutine.Wait(); err != nil {
			slog.ErrorContext(ctx, "error from goroutines executions", "error", err)
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", c.name, "error", err)
		}
	}
	a.closers = nil
}
