package otp

import (
	"encoding/base32"
	"errors"
	"strings"
)

// ErrInvalidSecret is returned when a secret is not valid base32.
var ErrInvalidSecret = errors.New("otp: secret is not valid base32")

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// DecodeSecret decodes base32 text leniently: whitespace and padding are
// ignored and lowercase is accepted.
func DecodeSecret(s string) ([]byte, error) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	s = strings.TrimRight(s, "=")

	raw, err := b32.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidSecret
	}
	return raw, nil
}

// EncodeSecret returns unpadded upper-case base32.
func EncodeSecret(raw []byte) string {
	return b32.EncodeToString(raw)
}

// NormalizeSecret canonicalizes base32 text, reporting ErrInvalidSecret for
// anything that does not decode.
func NormalizeSecret(s string) (string, error) {
	raw, err := DecodeSecret(s)
	if err != nil {
		return "", err
	}
	return EncodeSecret(raw), nil
}
