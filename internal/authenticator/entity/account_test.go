package entity

import (
	"testing"

	"github.com/shandysiswandi/sigil/internal/pkg/backup"
	"github.com/shandysiswandi/sigil/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountDraft_WithDefaults(t *testing.T) {
	got := AccountDraft{Issuer: "i", Label: "l", Secret: "s"}.WithDefaults()

	assert.Equal(t, AccountDraft{Issuer: "i", Label: "l", Secret: "s", Algorithm: otp.AlgorithmSHA1, Digits: 6, Period: 30, Type: TypeTOTP}, got)

	kept := AccountDraft{Algorithm: otp.AlgorithmSHA512, Digits: 8, Period: 60, Type: "totp"}.WithDefaults()
	assert.Equal(t, otp.AlgorithmSHA512, kept.Algorithm)
	assert.Equal(t, 8, kept.Digits)
	assert.Equal(t, 60, kept.Period)
}

func TestAccountDraft_WithNames(t *testing.T) {
	assert.Equal(t, AccountDraft{Issuer: UnknownName, Label: UnknownName}, AccountDraft{Label: "  "}.WithNames())
	assert.Equal(t, AccountDraft{Issuer: "i", Label: "l"}, AccountDraft{Issuer: "i", Label: "l"}.WithNames())
}

func TestAccount_RecordRoundTrip(t *testing.T) {
	acc := NewAccount("id-1", 1700000000000, 3, AccountDraft{
		Issuer: "GitHub", Label: "octo", Secret: "JBSWY3DPEHPK3PXP",
		Algorithm: otp.AlgorithmSHA256, Digits: 8, Period: 30, Type: TypeTOTP, Folder: "dev",
	})

	rec := acc.Record()
	assert.Equal(t, "id-1", rec.ID)
	assert.Equal(t, "SHA256", rec.Algorithm)
	assert.Equal(t, 3, rec.Order)

	assert.Equal(t, acc.Draft(), DraftFromRecord(rec))
	assert.Equal(t, acc.Identity(), acc.Draft().Identity())
}

func TestDraftFromRecord_UnknownAlgorithmKept(t *testing.T) {
	d := DraftFromRecord(backup.Record{Secret: "A", Algorithm: "sha-1"})
	assert.Equal(t, otp.AlgorithmSHA1, d.Algorithm)

	d = DraftFromRecord(backup.Record{Secret: "A", Algorithm: "whirlpool"})
	assert.Equal(t, otp.Algorithm("whirlpool"), d.Algorithm)
}

func TestAccount_OTPParams(t *testing.T) {
	p, err := Account{Secret: "JBSWY3DPEHPK3PXP", Digits: 6, Period: 30}.OTPParams()
	require.NoError(t, err)
	assert.Equal(t, "Hello!\xde\xad\xbe\xef", string(p.Secret))

	_, err = Account{Secret: "!!"}.OTPParams()
	assert.ErrorIs(t, err, otp.ErrInvalidSecret)
}

func TestSortAccounts(t *testing.T) {
	accounts := []Account{
		{ID: "c", Order: 1, Created: 30},
		{ID: "a", Order: 1, Created: 10},
		{ID: "b", Order: 0, Created: 99},
	}

	SortAccounts(accounts)

	assert.Equal(t, "b", accounts[0].ID)
	assert.Equal(t, "a", accounts[1].ID)
	assert.Equal(t, "c", accounts[2].ID)
}
