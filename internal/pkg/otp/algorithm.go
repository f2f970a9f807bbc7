package otp

import (
	"strings"

	"github.com/pquerna/otp"
)

// Algorithm names the HMAC hash used to derive codes.
type Algorithm string

const (
	AlgorithmSHA1   Algorithm = "SHA1"
	AlgorithmSHA256 Algorithm = "SHA256"
	AlgorithmSHA512 Algorithm = "SHA512"
	AlgorithmMD5    Algorithm = "MD5"
)

// ParseAlgorithm accepts the usual spellings ("sha1", "SHA-256", ...). An empty
// string yields SHA1.
func ParseAlgorithm(s string) (Algorithm, error) {
	name := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	switch Algorithm(name) {
	case "":
		return AlgorithmSHA1, nil
	case AlgorithmSHA1, AlgorithmSHA256, AlgorithmSHA512, AlgorithmMD5:
		return Algorithm(name), nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}

// Or returns a, or def when a is empty.
func (a Algorithm) Or(def Algorithm) Algorithm {
	if a == "" {
		return def
	}
	return a
}

func (a Algorithm) String() string {
	return string(a)
}

func (a Algorithm) hash() (otp.Algorithm, error) {
	switch a {
	case AlgorithmSHA1, "":
		return otp.AlgorithmSHA1, nil
	case AlgorithmSHA256:
		return otp.AlgorithmSHA256, nil
	case AlgorithmSHA512:
		return otp.AlgorithmSHA512, nil
	case AlgorithmMD5:
		return otp.AlgorithmMD5, nil
	default:
		return 0, ErrUnsupportedAlgorithm
	}
}
