package otp

import (
	"encoding/base32"
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const (
	// DefaultPeriod is the step size in seconds used when a period is not set.
	DefaultPeriod = 30
	// DefaultDigits is the code length used when digits is not set.
	DefaultDigits = 6
)

// ErrUnsupportedAlgorithm is returned for a hash name the engine does not know.
var ErrUnsupportedAlgorithm = errors.New("otp: unsupported algorithm")

// Params holds what the engine needs to produce a code.
type Params struct {
	Secret    []byte
	Algorithm Algorithm
	Digits    int
	Period    int
}

// Code is a generated one-time password.
type Code struct {
	// Value is the zero-padded decimal code.
	Value string
	// Remaining is the fraction of the current period left, in (0, 1].
	Remaining float64
	// Counter is the time step the code was derived from.
	Counter uint64
}

// Generate returns the TOTP code for p at the given instant.
//
// Digits above 8 are the caller's responsibility; the engine does not validate
// them.
func Generate(p Params, at time.Time) (Code, error) {
	alg, err := p.Algorithm.hash()
	if err != nil {
		return Code{}, err
	}

	period := p.Period
	if period <= 0 {
		period = DefaultPeriod
	}
	digits := p.Digits
	if digits <= 0 {
		digits = DefaultDigits
	}

	secs := at.Unix()
	if secs < 0 {
		secs = 0
	}
	counter := uint64(secs) / uint64(period)

	value, err := hotp.GenerateCodeCustom(
		base32.StdEncoding.EncodeToString(p.Secret),
		counter,
		hotp.ValidateOpts{Digits: otp.Digits(digits), Algorithm: alg},
	)
	if err != nil {
		return Code{}, err
	}

	return Code{
		Value:     value,
		Remaining: float64(int64(period)-secs%int64(period)) / float64(period),
		Counter:   counter,
	}, nil
}

// GenerateAt is Generate for a millisecond epoch timestamp.
func GenerateAt(p Params, unixMillis int64) (Code, error) {
	return Generate(p, time.UnixMilli(unixMillis))
}
