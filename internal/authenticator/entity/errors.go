package entity

import (
	"errors"

	"github.com/shandysiswandi/sigil/internal/pkg/backup"
	"github.com/shandysiswandi/sigil/internal/pkg/migration"
	"github.com/shandysiswandi/sigil/internal/pkg/otp"
	"github.com/shandysiswandi/sigil/internal/pkg/otpauth"
)

// Error kinds surfaced by the authenticator. Most are raised by the codec
// packages and re-exported here so callers only import one place.
var (
	ErrInvalidURI                   = otpauth.ErrInvalidURI
	ErrOnlyTOTPSupported            = otpauth.ErrOnlyTOTPSupported
	ErrUnsupportedAlgorithm         = otp.ErrUnsupportedAlgorithm
	ErrMalformedMigrationPayload    = migration.ErrMalformedPayload
	ErrInvalidBackupFormat          = backup.ErrInvalidFormat
	ErrUnsupportedBackupVersion     = backup.ErrUnsupportedVersion
	ErrIncorrectPasswordOrCorrupted = backup.ErrIncorrectPasswordOrCorrupted
	ErrDecodedDataNotArray          = backup.ErrDecodedDataNotArray

	ErrDuplicateAccount     = errors.New("authenticator: duplicate account")
	ErrAccountNotFound      = errors.New("authenticator: account not found")
	ErrUnsupportedFileType  = errors.New("authenticator: unsupported import file type")
	ErrArchiveNotConfigured = errors.New("authenticator: backup archive storage is not configured")
	ErrPasswordRequired     = errors.New("authenticator: password is required for encrypted backups")
	ErrMD5NotExportable     = errors.New("authenticator: md5 accounts cannot be exported as otpauth uri")
)
