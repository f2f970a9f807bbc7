package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/goerror"
	"github.com/shandysiswandi/sigil/internal/pkg/migration"
	"github.com/shandysiswandi/sigil/internal/pkg/otpauth"
)

type ImportTextResult struct {
	RestoreResult
	Failed int
}

// ParseURI turns an otpauth:// or otpauth-migration:// URI into drafts. A
// provisioning URI yields exactly one draft.
func (s *Usecase) ParseURI(ctx context.Context, raw string) ([]entity.AccountDraft, error) {
	ctx, span := s.startSpan(ctx, "ParseURI")
	defer span.End()

	drafts, err := parseURI(ctx, raw)
	if err != nil {
		return nil, uriError(err)
	}

	return drafts, nil
}

func parseURI(ctx context.Context, raw string) ([]entity.AccountDraft, error) {
	raw = strings.TrimSpace(raw)
	scheme, _, _ := strings.Cut(raw, ":")

	if strings.EqualFold(scheme, migration.Scheme) {
		params, err := migration.ParseURL(raw)
		if err != nil {
			return nil, err
		}
		// HOTP entries are kept and restored as TOTP accounts.
		if n := lo.CountBy(params, func(p migration.Parameters) bool { return p.Type == migration.TypeHOTP }); n > 0 {
			slog.WarnContext(ctx, "migration payload carries hotp entries, importing them as totp", "count", n)
		}
		return lo.Map(params, func(p migration.Parameters, _ int) entity.AccountDraft {
			return draftFromKey(p.Key())
		}), nil
	}

	key, err := otpauth.Parse(raw)
	if err != nil {
		return nil, err
	}

	return []entity.AccountDraft{draftFromKey(key)}, nil
}

func draftFromKey(k *otpauth.Key) entity.AccountDraft {
	return entity.AccountDraft{
		Issuer:    k.Issuer,
		Label:     k.Label,
		Secret:    k.Secret,
		Algorithm: k.Algorithm,
		Digits:    k.Digits,
		Period:    k.Period,
		Type:      entity.TypeTOTP,
	}.WithNames()
}

func uriError(err error) error {
	if errors.Is(err, entity.ErrOnlyTOTPSupported) {
		return goerror.NewBusiness(err, goerror.CodeUnsupported)
	}
	return goerror.NewInvalidFormat(err)
}

// ImportURI parses a single URI and restores what it contains.
func (s *Usecase) ImportURI(ctx context.Context, raw string) (*RestoreResult, error) {
	ctx, span := s.startSpan(ctx, "ImportURI")
	defer span.End()

	drafts, err := parseURI(ctx, raw)
	if err != nil {
		slog.WarnContext(ctx, "failed to parse uri", "error", err)
		return nil, uriError(err)
	}

	return s.restore(ctx, drafts)
}

// ImportText restores every URI found one per line. Lines that do not parse
// are counted in Failed and otherwise ignored.
func (s *Usecase) ImportText(ctx context.Context, text string) (*ImportTextResult, error) {
	ctx, span := s.startSpan(ctx, "ImportText")
	defer span.End()

	var (
		drafts []entity.AccountDraft
		failed int
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parsed, err := parseURI(ctx, line)
		if err != nil {
			slog.WarnContext(ctx, "skipping unparseable line", "error", err)
			failed++
			continue
		}
		drafts = append(drafts, parsed...)
	}

	res, err := s.restore(ctx, drafts)
	if err != nil {
		return nil, err
	}

	return &ImportTextResult{RestoreResult: *res, Failed: failed}, nil
}
