package usecase

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/backup"
	"github.com/shandysiswandi/sigil/internal/pkg/goerror"
)

type (
	ExportBackupInput struct {
		Password string `validate:"required"`
	}

	ExportBackupOutput struct {
		FileName string
		Data     []byte
	}

	ImportBackupInput struct {
		Data     []byte `validate:"required"`
		Password string `validate:"required"`
	}

	ImportFileInput struct {
		Name     string `validate:"required"`
		Data     []byte `validate:"required"`
		Password string
	}
)

// ExportBackup encrypts every stored account into a backup container.
func (s *Usecase) ExportBackup(ctx context.Context, in ExportBackupInput) (*ExportBackupOutput, error) {
	ctx, span := s.startSpan(ctx, "ExportBackup")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.exportBackup(ctx, in.Password)
}

func (s *Usecase) exportBackup(ctx context.Context, password string) (*ExportBackupOutput, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}

	plaintext, err := backup.EncodeRecords(records)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode backup records", "error", err)
		return nil, goerror.NewServer(err)
	}

	container, err := backup.Seal(password, plaintext)
	if err != nil {
		slog.ErrorContext(ctx, "failed to seal backup", "error", err)
		return nil, goerror.NewServer(err)
	}

	data, err := container.Marshal()
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal backup container", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ExportBackupOutput{FileName: backup.FileName(s.clock.Now()), Data: data}, nil
}

func (s *Usecase) records(ctx context.Context) ([]backup.Record, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list accounts", "error", err)
		return nil, goerror.NewServer(err)
	}

	return lo.Map(accounts, func(a entity.Account, _ int) backup.Record { return a.Record() }), nil
}

// ImportBackup decrypts a backup container and restores its accounts.
func (s *Usecase) ImportBackup(ctx context.Context, in ImportBackupInput) (*RestoreResult, error) {
	ctx, span := s.startSpan(ctx, "ImportBackup")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.importBackup(ctx, in.Data, in.Password)
}

func (s *Usecase) importBackup(ctx context.Context, data []byte, password string) (*RestoreResult, error) {
	container, err := backup.ParseContainer(data)
	if err != nil {
		return nil, backupError(err)
	}

	plaintext, err := backup.Open(container, password)
	if err != nil {
		slog.WarnContext(ctx, "failed to open backup", "error", err)
		return nil, backupError(err)
	}

	records, err := backup.DecodeRecords(plaintext)
	if err != nil {
		return nil, backupError(err)
	}

	return s.restoreRecords(ctx, records)
}

func (s *Usecase) restoreRecords(ctx context.Context, records []backup.Record) (*RestoreResult, error) {
	return s.restore(ctx, lo.Map(records, func(r backup.Record, _ int) entity.AccountDraft {
		return entity.DraftFromRecord(r)
	}))
}

func backupError(err error) error {
	switch {
	case errors.Is(err, backup.ErrUnsupportedVersion):
		return goerror.NewBusiness(err, goerror.CodeUnsupported)
	case errors.Is(err, backup.ErrIncorrectPasswordOrCorrupted):
		return goerror.NewBusiness(err, goerror.CodeUnauthorized)
	case errors.Is(err, backup.ErrInvalidFormat), errors.Is(err, backup.ErrDecodedDataNotArray):
		return goerror.NewInvalidFormat(err)
	default:
		return goerror.NewServer(err)
	}
}

// ExportCSV writes every stored account as plaintext CSV.
func (s *Usecase) ExportCSV(ctx context.Context) ([]byte, error) {
	ctx, span := s.startSpan(ctx, "ExportCSV")
	defer span.End()

	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := backup.WriteCSV(&buf, records); err != nil {
		slog.ErrorContext(ctx, "failed to write csv", "error", err)
		return nil, goerror.NewServer(err)
	}

	return buf.Bytes(), nil
}

func (s *Usecase) ImportCSV(ctx context.Context, data []byte) (*RestoreResult, error) {
	ctx, span := s.startSpan(ctx, "ImportCSV")
	defer span.End()

	records, err := backup.ReadCSV(bytes.NewReader(data))
	if err != nil {
		slog.WarnContext(ctx, "failed to read csv", "error", err)
		return nil, backupError(err)
	}

	return s.restoreRecords(ctx, records)
}

// ImportJSON restores a plaintext JSON export, either a bare array or an
// object wrapping one such as a 2FAS export.
func (s *Usecase) ImportJSON(ctx context.Context, data []byte) (*RestoreResult, error) {
	ctx, span := s.startSpan(ctx, "ImportJSON")
	defer span.End()

	records, err := backup.ReadJSON(data)
	if err != nil {
		slog.WarnContext(ctx, "failed to read json", "error", err)
		return nil, backupError(err)
	}

	return s.restoreRecords(ctx, records)
}

// ImportFile picks the importer by file extension. A .json file shaped like a
// backup container is decrypted with the password; any other .json is read as
// plaintext.
func (s *Usecase) ImportFile(ctx context.Context, in ImportFileInput) (*RestoreResult, error) {
	ctx, span := s.startSpan(ctx, "ImportFile")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	switch strings.ToLower(filepath.Ext(in.Name)) {
	case ".csv":
		return s.ImportCSV(ctx, in.Data)
	case ".json":
		if !backup.IsContainer(in.Data) {
			return s.ImportJSON(ctx, in.Data)
		}
		if in.Password == "" {
			return nil, goerror.NewInvalidInput(entity.ErrPasswordRequired, "password", "is required for encrypted backups")
		}
		return s.importBackup(ctx, in.Data, in.Password)
	default:
		slog.WarnContext(ctx, "unsupported import file", "name", in.Name)
		return nil, goerror.NewBusiness(entity.ErrUnsupportedFileType, goerror.CodeUnsupported)
	}
}
