package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/sigil/internal/authenticator/inbound"
	"github.com/shandysiswandi/sigil/internal/authenticator/outbound/bolt"
	"github.com/shandysiswandi/sigil/internal/authenticator/usecase"
	"github.com/shandysiswandi/sigil/internal/pkg/clock"
	"github.com/shandysiswandi/sigil/internal/pkg/config"
	"github.com/shandysiswandi/sigil/internal/pkg/goroutine"
	"github.com/shandysiswandi/sigil/internal/pkg/instrument"
	"github.com/shandysiswandi/sigil/internal/pkg/storage"
	"github.com/shandysiswandi/sigil/internal/pkg/uid"
	"github.com/shandysiswandi/sigil/internal/pkg/validator"
)

// App wires dependencies and manages the process lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uuid      uid.StringID

	// resources
	dbConn    *pgxpool.Pool
	boltStore *bolt.Store
	storage   storage.Storage

	// modules
	authenticator *usecase.Usecase
	cli           *inbound.CLI

	stderr   io.Writer
	exitCode int
	closers  []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// Options overrides process-level inputs, mainly for tests.
type Options struct {
	Config config.Config
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New builds the application from the config file named by CONFIG_PATH, or
// the per-user default. Failures are fatal.
func New() *App {
	a, err := NewWithOptions(context.Background(), Options{})
	if err != nil {
		slog.Error("failed to init application", "error", err)
		os.Exit(1)
	}
	return a
}

// NewWithOptions builds the application and reports the first wiring error.
// Resources opened before the failure are released.
func NewWithOptions(ctx context.Context, opts Options) (*App, error) {
	ctx, cancel := context.WithCancel(ctx)
	a := &App{
		ctx:    ctx,
		cancel: cancel,
		config: opts.Config,
		stderr: orDefault[io.Writer](opts.Stderr, os.Stderr),
	}

	steps := []func() error{
		a.initConfig,
		a.initInstrument,
		a.initLibraries,
		a.initDatabase,
		a.initBolt,
		a.initStorage,
		a.initModules,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			a.close(context.Background())
			cancel()
			return nil, err
		}
	}

	a.cli = inbound.NewCLI(a.authenticator, a.Watch,
		orDefault[io.Reader](opts.Stdin, os.Stdin),
		orDefault[io.Writer](opts.Stdout, os.Stdout),
		a.stderr,
	)

	return a, nil
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// Authenticator exposes the wired usecases.
func (a *App) Authenticator() *usecase.Usecase {
	return a.authenticator
}

// ExitCode is the status the process should exit with once Stop returns.
func (a *App) ExitCode() int {
	return a.exitCode
}
