// Package qrcode renders provisioning URIs as QR code images.
package qrcode

import (
	"errors"

	qr "github.com/skip2/go-qrcode"
)

// MinSize is the smallest image edge, in pixels, that stays scannable.
const MinSize = 64

var ErrEmptyContent = errors.New("qrcode: empty content")

// PNG encodes content as a square PNG of size pixels with medium error
// correction. Sizes below MinSize are raised to it.
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	if size < MinSize {
		size = MinSize
	}
	return qr.Encode(content, qr.Medium, size)
}
