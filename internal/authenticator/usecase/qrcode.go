package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/goerror"
	"github.com/shandysiswandi/sigil/internal/pkg/otp"
	"github.com/shandysiswandi/sigil/internal/pkg/otpauth"
	"github.com/shandysiswandi/sigil/internal/pkg/qrcode"
)

const defaultQRSize = 256

// AccountURI renders the stored account as an otpauth:// provisioning URI.
func (s *Usecase) AccountURI(ctx context.Context, id string) (string, error) {
	ctx, span := s.startSpan(ctx, "AccountURI")
	defer span.End()

	key, err := s.accountKey(ctx, id)
	if err != nil {
		return "", err
	}

	return key.URI(), nil
}

// AccountQRCode renders the account's provisioning URI as a PNG. A size of
// zero uses the configured default.
func (s *Usecase) AccountQRCode(ctx context.Context, id string, size int) ([]byte, error) {
	ctx, span := s.startSpan(ctx, "AccountQRCode")
	defer span.End()

	key, err := s.accountKey(ctx, id)
	if err != nil {
		return nil, err
	}

	if size <= 0 {
		size = s.qrSize
	}

	img, err := qrcode.PNG(key.URI(), size)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render qr code", "account_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	return img, nil
}

func (s *Usecase) getAccount(ctx context.Context, id string) (*entity.Account, error) {
	acc, err := s.store.Get(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "account_id", id)
		return nil, goerror.NewBusiness(entity.ErrAccountNotFound, goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get account", "account_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	return acc, nil
}

// accountKey refuses MD5 accounts since otpauth URIs with MD5 do not parse
// back in.
func (s *Usecase) accountKey(ctx context.Context, id string) (*otpauth.Key, error) {
	acc, err := s.getAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if acc.Algorithm == otp.AlgorithmMD5 {
		slog.WarnContext(ctx, "refusing to export md5 account", "account_id", id)
		return nil, goerror.NewBusiness(entity.ErrMD5NotExportable, goerror.CodeUnsupported)
	}

	return keyFromAccount(acc), nil
}

func keyFromAccount(acc *entity.Account) *otpauth.Key {
	return &otpauth.Key{
		Issuer:    acc.Issuer,
		Label:     acc.Label,
		Secret:    acc.Secret,
		Algorithm: acc.Algorithm,
		Digits:    acc.Digits,
		Period:    acc.Period,
	}
}
