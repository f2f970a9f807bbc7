package backup

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Version is the only container version this package reads or writes.
	Version = 1
	// Iterations is the PBKDF2 round count.
	Iterations = 100_000

	saltSize     = 16
	gcmNonceSize = 12
	aesKeyLen    = 32
)

var (
	// ErrInvalidFormat indicates the input is not a parseable container or export.
	ErrInvalidFormat = errors.New("backup: invalid backup file format")
	// ErrUnsupportedVersion indicates a container version other than 1.
	ErrUnsupportedVersion = errors.New("backup: unsupported backup version")
	// ErrIncorrectPasswordOrCorrupted covers every decryption failure so that a
	// wrong password and a tampered file look the same.
	ErrIncorrectPasswordOrCorrupted = errors.New("backup: incorrect password or corrupted file")
	// ErrDecodedDataNotArray indicates the decrypted payload is not a JSON list.
	ErrDecodedDataNotArray = errors.New("backup: decrypted data is not a list of accounts")
)

// Container is the on-disk encrypted backup.
type Container struct {
	V    int    `json:"v"`
	Salt string `json:"salt"`
	IV   string `json:"iv"`
	Data string `json:"data"`
}

// Seal encrypts plaintext under a key derived from password.
func Seal(password string, plaintext []byte) (*Container, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("backup: salt generation failed: %w", err)
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("backup: nonce generation failed: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, nil)

	return &Container{
		V:    Version,
		Salt: base64.StdEncoding.EncodeToString(salt),
		IV:   base64.StdEncoding.EncodeToString(nonce),
		Data: base64.StdEncoding.EncodeToString(sealed),
	}, nil
}

// Open decrypts the container.
func Open(c *Container, password string) ([]byte, error) {
	if c == nil {
		return nil, ErrInvalidFormat
	}
	if c.V != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, c.V)
	}

	salt, err := base64.StdEncoding.DecodeString(c.Salt)
	if err != nil {
		return nil, ErrIncorrectPasswordOrCorrupted
	}
	nonce, err := base64.StdEncoding.DecodeString(c.IV)
	if err != nil || len(nonce) != gcmNonceSize {
		return nil, ErrIncorrectPasswordOrCorrupted
	}
	sealed, err := base64.StdEncoding.DecodeString(c.Data)
	if err != nil {
		return nil, ErrIncorrectPasswordOrCorrupted
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrIncorrectPasswordOrCorrupted
	}

	return plaintext, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, Iterations, aesKeyLen, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("backup: aes init failed: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, gcmNonceSize)
	if err != nil {
		return nil, fmt.Errorf("backup: gcm init failed: %w", err)
	}

	return gcm, nil
}

// ParseContainer decodes container JSON.
func ParseContainer(data []byte) (*Container, error) {
	var c Container
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, ErrInvalidFormat
	}
	return &c, nil
}

// IsContainer reports whether data is a JSON object carrying the v, salt and
// data keys of an encrypted backup.
func IsContainer(data []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	for _, k := range []string{"v", "salt", "data"} {
		if _, ok := probe[k]; !ok {
			return false
		}
	}
	return true
}

// Marshal renders the container as two-space indented JSON.
func (c *Container) Marshal() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// EncodeRecords serializes records as the plaintext payload of a container.
func EncodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.Marshal(records)
}

// DecodeRecords parses a decrypted payload, which must be a JSON list.
func DecodeRecords(plaintext []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(plaintext)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrDecodedDataNotArray
	}

	var records []Record
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return records, nil
}
