package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/goerror"
	"github.com/shandysiswandi/sigil/internal/pkg/storage"
)

type (
	RestoreArchiveInput struct {
		Key      string `validate:"required"`
		Password string `validate:"required"`
	}

	DeleteArchiveInput struct {
		Key string `validate:"required"`
	}
)

// ArchiveBackup uploads an encrypted backup to the configured bucket. Keys are
// stamped with the upload time so several backups a day do not collide.
func (s *Usecase) ArchiveBackup(ctx context.Context, in ExportBackupInput) (*storage.ObjectInfo, error) {
	ctx, span := s.startSpan(ctx, "ArchiveBackup")
	defer span.End()

	if s.storage == nil {
		return nil, goerror.NewBusiness(entity.ErrArchiveNotConfigured, goerror.CodeUnavailable)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	out, err := s.exportBackup(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	if err := s.storage.EnsureBucket(ctx, s.archive.Bucket); err != nil {
		slog.ErrorContext(ctx, "failed to ensure bucket", "bucket", s.archive.Bucket, "error", err)
		return nil, goerror.NewServer(err)
	}

	key := path.Join(s.archive.Prefix, s.clock.Now().UTC().Format("20060102T150405Z")+"-"+out.FileName)
	info, err := s.storage.PutObject(ctx, s.archive.Bucket, key, bytes.NewReader(out.Data), storage.PutOptions{
		Size:        int64(len(out.Data)),
		ContentType: "application/json",
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to upload backup", "bucket", s.archive.Bucket, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.pruneArchives(ctx)

	return &info, nil
}

// pruneArchives removes all but the newest Keep archives. Failures are logged
// only; the upload that triggered pruning already succeeded.
func (s *Usecase) pruneArchives(ctx context.Context) {
	if s.archive.Keep <= 0 {
		return
	}

	list, err := s.listArchives(ctx)
	if err != nil {
		slog.WarnContext(ctx, "failed to list backups for pruning", "error", err)
		return
	}
	if len(list) <= s.archive.Keep {
		return
	}

	for _, o := range list[s.archive.Keep:] {
		if err := s.storage.DeleteObject(ctx, s.archive.Bucket, o.Key); err != nil {
			slog.WarnContext(ctx, "failed to prune backup", "key", o.Key, "error", err)
			continue
		}
		slog.InfoContext(ctx, "pruned backup", "key", o.Key)
	}
}

// listArchives returns archives newest first. Keys start with the upload
// timestamp, so reverse key order is reverse upload order.
func (s *Usecase) listArchives(ctx context.Context) ([]storage.ObjectInfo, error) {
	list, err := s.storage.ListObjects(ctx, s.archive.Bucket, s.archive.Prefix, storage.ListOptions{})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(list, func(a, b storage.ObjectInfo) int { return strings.Compare(b.Key, a.Key) })
	return list, nil
}

// ListArchives lists archived backups under the configured prefix, newest
// first.
func (s *Usecase) ListArchives(ctx context.Context) ([]storage.ObjectInfo, error) {
	ctx, span := s.startSpan(ctx, "ListArchives")
	defer span.End()

	if s.storage == nil {
		return nil, goerror.NewBusiness(entity.ErrArchiveNotConfigured, goerror.CodeUnavailable)
	}

	list, err := s.listArchives(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list backups", "bucket", s.archive.Bucket, "error", err)
		return nil, goerror.NewServer(err)
	}

	return list, nil
}

// RestoreArchive downloads an archived backup and restores it.
func (s *Usecase) RestoreArchive(ctx context.Context, in RestoreArchiveInput) (*RestoreResult, error) {
	ctx, span := s.startSpan(ctx, "RestoreArchive")
	defer span.End()

	if s.storage == nil {
		return nil, goerror.NewBusiness(entity.ErrArchiveNotConfigured, goerror.CodeUnavailable)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	rc, _, err := s.storage.GetObject(ctx, s.archive.Bucket, in.Key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, goerror.NewBusiness(err, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to download backup", "bucket", s.archive.Bucket, "key", in.Key, "error", err)
		return nil, goerror.NewServer(err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		slog.ErrorContext(ctx, "failed to read backup", "key", in.Key, "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.importBackup(ctx, data, in.Password)
}

// DeleteArchive removes one archived backup. Unknown keys are not an error.
func (s *Usecase) DeleteArchive(ctx context.Context, in DeleteArchiveInput) error {
	ctx, span := s.startSpan(ctx, "DeleteArchive")
	defer span.End()

	if s.storage == nil {
		return goerror.NewBusiness(entity.ErrArchiveNotConfigured, goerror.CodeUnavailable)
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.storage.DeleteObject(ctx, s.archive.Bucket, in.Key); err != nil {
		slog.ErrorContext(ctx, "failed to delete backup", "bucket", s.archive.Bucket, "key", in.Key, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
