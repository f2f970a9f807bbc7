// Package otpauth parses and builds otpauth:// provisioning URIs.
package otpauth

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/shandysiswandi/sigil/internal/pkg/otp"
)

const (
	// Scheme is the URI scheme of a single-account provisioning URI.
	Scheme = "otpauth"
	// TypeTOTP is the only supported OTP type.
	TypeTOTP = "totp"
)

var (
	// ErrInvalidURI is returned for anything that is not a well-formed otpauth URI.
	ErrInvalidURI = errors.New("otpauth: invalid uri")
	// ErrOnlyTOTPSupported is returned for otpauth URIs of any type other than totp.
	ErrOnlyTOTPSupported = errors.New("otpauth: only totp is supported")
)

// Key is the account descriptor carried by a provisioning URI.
type Key struct {
	Issuer    string
	Label     string
	Secret    string
	Algorithm otp.Algorithm
	Digits    int
	Period    int
}

// Parse decodes an otpauth://totp/ URI.
//
// The label is split on its first colon into issuer and label. An explicit
// issuer query parameter wins over the issuer found in the label. Unknown
// algorithms and non-numeric digits or period are rejected rather than
// defaulted. The secret is returned as unpadded upper-case base32.
func Parse(raw string) (*Key, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, ErrInvalidURI
	}
	if !strings.EqualFold(u.Scheme, Scheme) {
		return nil, ErrInvalidURI
	}
	if !strings.EqualFold(u.Host, TypeTOTP) {
		if u.Host == "" {
			return nil, ErrInvalidURI
		}
		return nil, ErrOnlyTOTPSupported
	}

	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, ErrInvalidURI
	}

	key := &Key{
		Algorithm: otp.AlgorithmSHA1,
		Digits:    otp.DefaultDigits,
		Period:    otp.DefaultPeriod,
	}

	secret := strings.TrimSpace(q.Get("secret"))
	if secret == "" {
		return nil, ErrInvalidURI
	}
	if key.Secret, err = otp.NormalizeSecret(secret); err != nil || key.Secret == "" {
		return nil, ErrInvalidURI
	}

	label := strings.TrimPrefix(u.Path, "/")
	if issuer, name, ok := strings.Cut(label, ":"); ok {
		key.Issuer = strings.TrimSpace(issuer)
		key.Label = strings.TrimSpace(name)
	} else {
		key.Label = strings.TrimSpace(label)
	}

	if q.Has("issuer") {
		key.Issuer = strings.TrimSpace(q.Get("issuer"))
	}

	if q.Has("algorithm") {
		alg, err := otp.ParseAlgorithm(q.Get("algorithm"))
		if err != nil || alg == otp.AlgorithmMD5 {
			return nil, ErrInvalidURI
		}
		key.Algorithm = alg
	}

	if q.Has("digits") {
		if key.Digits, err = strconv.Atoi(strings.TrimSpace(q.Get("digits"))); err != nil {
			return nil, ErrInvalidURI
		}
	}

	if q.Has("period") {
		if key.Period, err = strconv.Atoi(strings.TrimSpace(q.Get("period"))); err != nil {
			return nil, ErrInvalidURI
		}
	}

	return key, nil
}

// URI renders the key as an otpauth://totp/ URI. Defaults are still written
// out so other authenticators never have to guess.
func (k *Key) URI() string {
	label := k.Label
	if k.Issuer != "" {
		label = k.Issuer + ":" + k.Label
	}

	q := url.Values{}
	q.Set("secret", k.Secret)
	if k.Issuer != "" {
		q.Set("issuer", k.Issuer)
	}
	q.Set("algorithm", k.Algorithm.Or(otp.AlgorithmSHA1).String())
	q.Set("digits", strconv.Itoa(orDefault(k.Digits, otp.DefaultDigits)))
	q.Set("period", strconv.Itoa(orDefault(k.Period, otp.DefaultPeriod)))

	u := url.URL{
		Scheme:   Scheme,
		Host:     TypeTOTP,
		Path:     "/" + label,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
