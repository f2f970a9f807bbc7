package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/clock"
	"github.com/shandysiswandi/sigil/internal/pkg/instrument"
	"github.com/shandysiswandi/sigil/internal/pkg/storage"
	"github.com/shandysiswandi/sigil/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// Store persists accounts. List returns accounts ordered by Order then
// Created. Add assigns ID, Created and Order.
type Store interface {
	List(ctx context.Context) ([]entity.Account, error)
	Get(ctx context.Context, id string) (*entity.Account, error)
	Add(ctx context.Context, draft entity.AccountDraft) (*entity.Account, error)
	Update(ctx context.Context, acc entity.Account) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) error
}

// ArchiveConfig locates encrypted backups in object storage.
type ArchiveConfig struct {
	Bucket string
	Prefix string
	// Keep is how many archives survive pruning after an upload. Zero keeps
	// everything.
	Keep int
}

type Usecase struct {
	store     Store
	validator validator.Validator
	clock     clock.Clocker
	ins       instrument.Instrumentation
	storage   storage.Storage
	archive   ArchiveConfig
	qrSize    int

	restoredCounter metric.Int64Counter
}

type Dependency struct {
	Store      Store
	Validator  validator.Validator
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
	// Storage is optional. Archive operations fail with
	// entity.ErrArchiveNotConfigured without it.
	Storage storage.Storage
	Archive ArchiveConfig
	QRSize  int
}

func New(dep Dependency) *Usecase {
	counter, err := dep.Instrument.Meter("authenticator.usecase").Int64Counter(
		"authenticator.restore.accounts",
		metric.WithDescription("Accounts processed by restore, by outcome"),
	)
	if err != nil {
		slog.Warn("failed to create restore counter", "error", err)
		counter = metricnoop.Int64Counter{}
	}

	qrSize := dep.QRSize
	if qrSize <= 0 {
		qrSize = defaultQRSize
	}

	return &Usecase{
		store:           dep.Store,
		validator:       dep.Validator,
		clock:           dep.Clock,
		ins:             dep.Instrument,
		storage:         dep.Storage,
		archive:         dep.Archive,
		qrSize:          qrSize,
		restoredCounter: counter,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("authenticator.usecase").Start(ctx, name)
}

func (s *Usecase) countRestore(ctx context.Context, res *RestoreResult) {
	s.restoredCounter.Add(ctx, int64(res.Restored), metric.WithAttributes(attribute.String("outcome", "restored")))
	s.restoredCounter.Add(ctx, int64(res.Skipped), metric.WithAttributes(attribute.String("outcome", "skipped")))
}
