package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/goerror"
)

type RestoreResult struct {
	Restored int
	Skipped  int
}

// Restore merges drafts into the store. Duplicates are judged against a single
// snapshot taken before the batch, so two equal drafts in one batch are both
// added unless the store itself rejects the second.
func (s *Usecase) Restore(ctx context.Context, drafts []entity.AccountDraft) (*RestoreResult, error) {
	ctx, span := s.startSpan(ctx, "Restore")
	defer span.End()

	return s.restore(ctx, drafts)
}

func (s *Usecase) restore(ctx context.Context, drafts []entity.AccountDraft) (*RestoreResult, error) {
	existing, err := s.store.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list accounts for restore", "error", err)
		return nil, goerror.NewServer(err)
	}

	seen := lo.SliceToMap(existing, func(a entity.Account) (entity.Identity, struct{}) {
		return a.Identity(), struct{}{}
	})

	res := &RestoreResult{}
	for _, d := range drafts {
		if _, dup := seen[d.Identity()]; dup {
			res.Skipped++
			continue
		}

		d.Type = entity.TypeTOTP
		_, err := s.store.Add(ctx, d.WithDefaults())
		if errors.Is(err, goerror.ErrConflict) {
			res.Skipped++
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "failed to add restored account", "issuer", d.Issuer, "restored", res.Restored, "error", err)
			return nil, goerror.NewServer(err)
		}

		res.Restored++
	}

	s.countRestore(ctx, res)

	return res, nil
}
