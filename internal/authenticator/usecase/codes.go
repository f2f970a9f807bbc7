package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/goerror"
	"github.com/shandysiswandi/sigil/internal/pkg/otp"
)

// Display is an account with its code for one instant. Err is set instead of
// Code when the account cannot produce one.
type Display struct {
	Account   entity.Account
	Code      string
	Remaining float64
	Counter   uint64
	Err       error
}

// Codes generates the current code of every stored account at the given
// instant. A zero at uses the usecase clock.
func (s *Usecase) Codes(ctx context.Context, at time.Time) ([]Display, error) {
	ctx, span := s.startSpan(ctx, "Codes")
	defer span.End()

	if at.IsZero() {
		at = s.clock.Now()
	}

	accounts, err := s.store.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list accounts", "error", err)
		return nil, goerror.NewServer(err)
	}

	out := make([]Display, 0, len(accounts))
	for _, acc := range accounts {
		d := Display{Account: acc}

		code, err := generate(acc, at)
		if err != nil {
			slog.WarnContext(ctx, "failed to generate code", "account_id", acc.ID, "error", err)
			d.Err = err
		} else {
			d.Code = code.Value
			d.Remaining = code.Remaining
			d.Counter = code.Counter
		}

		out = append(out, d)
	}

	return out, nil
}

func generate(acc entity.Account, at time.Time) (otp.Code, error) {
	params, err := acc.OTPParams()
	if err != nil {
		return otp.Code{}, err
	}
	return otp.Generate(params, at)
}
