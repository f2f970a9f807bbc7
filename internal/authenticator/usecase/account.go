package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/goerror"
	"github.com/shandysiswandi/sigil/internal/pkg/otp"
)

type (
	AddAccountInput struct {
		Issuer    string `validate:"max=256"`
		Label     string `validate:"required_without=Issuer,max=256"`
		Secret    string `validate:"required,base32"`
		Algorithm string `validate:"omitempty,otpalgo"`
		Digits    int    `validate:"omitempty,oneof=6 7 8"`
		Period    int    `validate:"omitempty,gt=0,lte=300"`
		Folder    string `validate:"max=128"`
	}

	UpdateAccountInput struct {
		ID     string  `validate:"required"`
		Issuer *string `validate:"omitempty,max=256"`
		Label  *string `validate:"omitempty,max=256"`
		Folder *string `validate:"omitempty,max=128"`
		Order  *int    `validate:"omitempty,gte=0"`
	}
)

func (s *Usecase) ListAccounts(ctx context.Context) ([]entity.Account, error) {
	ctx, span := s.startSpan(ctx, "ListAccounts")
	defer span.End()

	accounts, err := s.store.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list accounts", "error", err)
		return nil, goerror.NewServer(err)
	}

	return accounts, nil
}

func (s *Usecase) AddAccount(ctx context.Context, in AddAccountInput) (*entity.Account, error) {
	ctx, span := s.startSpan(ctx, "AddAccount")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	secret, err := otp.NormalizeSecret(in.Secret)
	if err != nil {
		return nil, goerror.NewInvalidInput(err, "secret", "must be valid base32")
	}

	alg, err := otp.ParseAlgorithm(in.Algorithm)
	if err != nil {
		return nil, goerror.NewInvalidInput(err, "algorithm", "must be one of SHA1 SHA256 SHA512 MD5")
	}

	draft := entity.AccountDraft{
		Issuer:    strings.TrimSpace(in.Issuer),
		Label:     strings.TrimSpace(in.Label),
		Secret:    secret,
		Algorithm: alg,
		Digits:    in.Digits,
		Period:    in.Period,
		Type:      entity.TypeTOTP,
		Folder:    strings.TrimSpace(in.Folder),
	}.WithNames().WithDefaults()

	existing, err := s.store.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list accounts", "error", err)
		return nil, goerror.NewServer(err)
	}

	if lo.ContainsBy(existing, func(a entity.Account) bool { return a.Identity() == draft.Identity() }) {
		slog.WarnContext(ctx, "account already exists", "issuer", draft.Issuer, "label", draft.Label)
		return nil, goerror.NewBusiness(entity.ErrDuplicateAccount, goerror.CodeConflict)
	}

	acc, err := s.store.Add(ctx, draft)
	if errors.Is(err, goerror.ErrConflict) {
		return nil, goerror.NewBusiness(entity.ErrDuplicateAccount, goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to add account", "issuer", draft.Issuer, "error", err)
		return nil, goerror.NewServer(err)
	}

	return acc, nil
}

func (s *Usecase) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*entity.Account, error) {
	ctx, span := s.startSpan(ctx, "UpdateAccount")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	existing, err := s.store.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list accounts", "error", err)
		return nil, goerror.NewServer(err)
	}

	acc, ok := lo.Find(existing, func(a entity.Account) bool { return a.ID == in.ID })
	if !ok {
		slog.WarnContext(ctx, "account not found", "account_id", in.ID)
		return nil, goerror.NewBusiness(entity.ErrAccountNotFound, goerror.CodeNotFound)
	}

	if in.Issuer != nil {
		acc.Issuer = strings.TrimSpace(*in.Issuer)
	}
	if in.Label != nil {
		acc.Label = strings.TrimSpace(*in.Label)
	}
	if in.Folder != nil {
		acc.Folder = strings.TrimSpace(*in.Folder)
	}
	if in.Order != nil {
		acc.Order = *in.Order
	}

	clash := lo.ContainsBy(existing, func(a entity.Account) bool {
		return a.ID != acc.ID && a.Identity() == acc.Identity()
	})
	if clash {
		return nil, goerror.NewBusiness(entity.ErrDuplicateAccount, goerror.CodeConflict)
	}

	err = s.store.Update(ctx, acc)
	switch {
	case errors.Is(err, goerror.ErrNotFound):
		return nil, goerror.NewBusiness(entity.ErrAccountNotFound, goerror.CodeNotFound)
	case errors.Is(err, goerror.ErrConflict):
		return nil, goerror.NewBusiness(entity.ErrDuplicateAccount, goerror.CodeConflict)
	case err != nil:
		slog.ErrorContext(ctx, "failed to update account", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &acc, nil
}

func (s *Usecase) DeleteAccount(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "DeleteAccount")
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return goerror.NewInvalidInput(entity.ErrAccountNotFound, "id", "is required")
	}

	err := s.store.Delete(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "account_id", id)
		return goerror.NewBusiness(entity.ErrAccountNotFound, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete account", "account_id", id, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// DeleteAccounts removes every listed account. Unknown ids are ignored.
func (s *Usecase) DeleteAccounts(ctx context.Context, ids []string) error {
	ctx, span := s.startSpan(ctx, "DeleteAccounts")
	defer span.End()

	ids = lo.Uniq(lo.Compact(ids))
	if len(ids) == 0 {
		return nil
	}

	if err := s.store.DeleteMany(ctx, ids); err != nil {
		slog.ErrorContext(ctx, "failed to delete accounts", "count", len(ids), "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
