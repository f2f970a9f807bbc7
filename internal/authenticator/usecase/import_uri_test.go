package usecase

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/shandysiswandi/sigil/internal/authenticator/entity"
	"github.com/shandysiswandi/sigil/internal/pkg/goerror"
	"github.com/shandysiswandi/sigil/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func migrationURI(entries ...[]byte) string {
	var payload []byte
	for _, e := range entries {
		payload = protowire.AppendTag(payload, 1, protowire.BytesType)
		payload = protowire.AppendBytes(payload, e)
	}
	return "otpauth-migration://offline?data=" + base64.RawURLEncoding.EncodeToString(payload)
}

func migrationEntry(secret []byte, name, issuer string, alg, digits uint64) []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, secret)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, name)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendString(b, issuer)
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, alg)
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, digits)
	b = protowire.AppendTag(b, 6, protowire.VarintType)
	b = protowire.AppendVarint(b, 2)
	return b
}

func TestParseURI(t *testing.T) {
	env := newTestEnv(t)

	drafts, err := env.uc.ParseURI(context.Background(), "otpauth://totp/ACME:alice?secret=JBSWY3DPEHPK3PXP&digits=8&period=60&algorithm=SHA512")
	require.NoError(t, err)
	assert.Equal(t, []entity.AccountDraft{{
		Issuer: "ACME", Label: "alice", Secret: "JBSWY3DPEHPK3PXP",
		Algorithm: otp.AlgorithmSHA512, Digits: 8, Period: 60, Type: entity.TypeTOTP,
	}}, drafts)

	drafts, err = env.uc.ParseURI(context.Background(), migrationURI(
		migrationEntry([]byte("Hello!\xde\xad\xbe\xef"), "octo", "GitHub", 2, 2),
		migrationEntry([]byte{0x01, 0x02}, "root", "AWS", 1, 1),
	))
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	assert.Equal(t, entity.AccountDraft{
		Issuer: "GitHub", Label: "octo", Secret: "JBSWY3DPEHPK3PXP",
		Algorithm: otp.AlgorithmSHA256, Digits: 8, Period: 30, Type: entity.TypeTOTP,
	}, drafts[0])
	assert.Equal(t, otp.AlgorithmSHA1, drafts[1].Algorithm)
	assert.Equal(t, 6, drafts[1].Digits)
}

func TestParseURI_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		err  error
		code goerror.Code
	}{
		{name: "hotp", raw: "otpauth://hotp/x?secret=ABC", err: entity.ErrOnlyTOTPSupported, code: goerror.CodeUnsupported},
		{name: "no secret", raw: "otpauth://totp/x", err: entity.ErrInvalidURI, code: goerror.CodeInvalidFormat},
		{name: "other scheme", raw: "https://example.com", err: entity.ErrInvalidURI, code: goerror.CodeInvalidFormat},
		{name: "bad migration", raw: "otpauth-migration://offline?data=!!!", err: entity.ErrMalformedMigrationPayload, code: goerror.CodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.uc.ParseURI(context.Background(), tt.raw)

			assert.ErrorIs(t, err, tt.err)
			assertCode(t, err, tt.code)
		})
	}
}

func TestImportURI(t *testing.T) {
	env := newTestEnv(t)
	uri := "otpauth://totp/GitHub:octo?secret=JBSWY3DPEHPK3PXP&issuer=GitHub"

	res, err := env.uc.ImportURI(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, &RestoreResult{Restored: 1}, res)

	res, err = env.uc.ImportURI(context.Background(), uri)
	require.NoError(t, err)
	assert.Equal(t, &RestoreResult{Skipped: 1}, res)

	_, err = env.uc.ImportURI(context.Background(), "otpauth://hotp/x?secret=ABC")
	assert.ErrorIs(t, err, entity.ErrOnlyTOTPSupported)
}

func TestImportText(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	env.seed(t, entity.AccountDraft{Issuer: "GitHub", Label: "octo", Secret: "JBSWY3DPEHPK3PXP"})

	text := strings.Join([]string{
		"otpauth://totp/GitHub:octo?secret=JBSWY3DPEHPK3PXP",
		"",
		"   ",
		"not a uri",
		"otpauth://totp/AWS:root?secret=GEZDGNBV",
		migrationURI(migrationEntry([]byte{0xaa, 0xbb}, "m", "Migrated", 1, 1)),
		"otpauth://hotp/x?secret=ABC",
	}, "\r\n")

	// Act
	res, err := env.uc.ImportText(context.Background(), text)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, &ImportTextResult{RestoreResult: RestoreResult{Restored: 2, Skipped: 1}, Failed: 2}, res)
	assert.Len(t, env.list(t), 3)
}

func TestImportURI_CanonicalSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{name: "lowercase", secret: "jbswy3dpehpk3pxp"},
		{name: "padded", secret: "JBSWY3DPEHPK3PXP%3D%3D%3D"},
		{name: "spaced", secret: "JBSW%20Y3DP%20EHPK%203PXP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			env := newTestEnv(t)
			_, err := env.uc.ImportURI(context.Background(), "otpauth://totp/GitHub:octo?secret=JBSWY3DPEHPK3PXP")
			require.NoError(t, err)

			// Act
			res, err := env.uc.ImportURI(context.Background(), "otpauth://totp/GitHub:octo?secret="+tt.secret)

			// Assert
			require.NoError(t, err)
			assert.Equal(t, &RestoreResult{Skipped: 1}, res)
			accounts := env.list(t)
			require.Len(t, accounts, 1)
			assert.Equal(t, "JBSWY3DPEHPK3PXP", accounts[0].Secret)
		})
	}
}

func TestImportURI_InvalidSecret(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.uc.ImportURI(context.Background(), "otpauth://totp/x?secret=!!!not-base32")

	assert.Nil(t, res)
	assert.ErrorIs(t, err, entity.ErrInvalidURI)
	assertCode(t, err, goerror.CodeInvalidFormat)
	assert.Empty(t, env.list(t))
}

func TestImportURI_PartiallyMalformedMigration(t *testing.T) {
	// Arrange
	env := newTestEnv(t)
	var payload []byte
	payload = protowire.AppendTag(payload, 1, protowire.BytesType)
	payload = protowire.AppendBytes(payload, migrationEntry([]byte{0x01, 0x02}, "root", "AWS", 1, 1))
	payload = append(payload, 0x0a, 0x05, 0x01)
	uri := "otpauth-migration://offline?data=" + base64.RawURLEncoding.EncodeToString(payload)

	// Act
	res, err := env.uc.ImportURI(context.Background(), uri)

	// Assert
	assert.Nil(t, res)
	assert.ErrorIs(t, err, entity.ErrMalformedMigrationPayload)
	assert.Empty(t, env.list(t))
}

func TestParseURI_UnknownNames(t *testing.T) {
	env := newTestEnv(t)

	drafts, err := env.uc.ParseURI(context.Background(), "otpauth://totp/?secret=JBSWY3DP")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, entity.UnknownName, drafts[0].Issuer)
	assert.Equal(t, entity.UnknownName, drafts[0].Label)

	drafts, err = env.uc.ParseURI(context.Background(), migrationURI(migrationEntry([]byte{0x01}, "", "", 1, 1)))
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, entity.UnknownName, drafts[0].Issuer)
	assert.Equal(t, entity.UnknownName, drafts[0].Label)
}
