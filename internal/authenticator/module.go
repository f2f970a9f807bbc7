package authenticator

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/sigil/internal/authenticator/outbound/bolt"
	"github.com/shandysiswandi/sigil/internal/authenticator/outbound/db"
	"github.com/shandysiswandi/sigil/internal/authenticator/outbound/memory"
	"github.com/shandysiswandi/sigil/internal/authenticator/usecase"
	"github.com/shandysiswandi/sigil/internal/pkg/clock"
	"github.com/shandysiswandi/sigil/internal/pkg/instrument"
	"github.com/shandysiswandi/sigil/internal/pkg/storage"
	"github.com/shandysiswandi/sigil/internal/pkg/uid"
	"github.com/shandysiswandi/sigil/internal/pkg/validator"
)

// Dependency wires the authenticator. At most one of DBConn and BoltStore is
// expected; with neither, accounts live in memory.
type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"-"`
	BoltStore  *bolt.Store                `validate:"-"`
	Storage    storage.Storage            `validate:"-"`
	Archive    usecase.ArchiveConfig      `validate:"-"`
	QRSize     int                        `validate:"gte=0"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(ctx context.Context, dep Dependency) (*usecase.Usecase, error) {
	if dep.Validator == nil {
		return nil, fmt.Errorf("authenticator: validator is required")
	}
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	store, err := newStore(ctx, dep)
	if err != nil {
		return nil, err
	}

	return usecase.New(usecase.Dependency{
		Store:      store,
		Validator:  dep.Validator,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		Storage:    dep.Storage,
		Archive:    dep.Archive,
		QRSize:     dep.QRSize,
	}), nil
}

func newStore(ctx context.Context, dep Dependency) (usecase.Store, error) {
	switch {
	case dep.DBConn != nil:
		pg := db.NewDB(dep.DBConn, dep.Instrument, dep.UUID, dep.Clock)
		if err := pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("authenticator: migrate accounts table: %w", err)
		}
		return pg, nil
	case dep.BoltStore != nil:
		return dep.BoltStore, nil
	default:
		return memory.NewStore(dep.UUID, dep.Clock), nil
	}
}
