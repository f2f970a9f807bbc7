package entity

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shandysiswandi/sigil/internal/pkg/otp"
)

// TypeTOTP is the only account type stored.
const TypeTOTP = "totp"

// Account is a stored authenticator entry. ID, Created and Order are owned by
// the store.
type Account struct {
	ID        string        `json:"id"`
	Issuer    string        `json:"issuer"`
	Label     string        `json:"label"`
	Secret    string        `json:"secret"`
	Algorithm otp.Algorithm `json:"algorithm"`
	Digits    int           `json:"digits"`
	Period    int           `json:"period"`
	Type      string        `json:"type"`
	Folder    string        `json:"folder,omitempty"`
	Created   int64         `json:"created"`
	Order     int           `json:"order"`
}

// AccountDraft is an account before the store has assigned its identity.
type AccountDraft struct {
	Issuer    string
	Label     string
	Secret    string
	Algorithm otp.Algorithm
	Digits    int
	Period    int
	Type      string
	Folder    string
}

// Identity is the triple two accounts must not share.
type Identity struct {
	Issuer string
	Label  string
	Secret string
}

// Identity returns the duplicate-detection key. Comparison is exact and case
// sensitive.
func (a Account) Identity() Identity {
	return Identity{Issuer: a.Issuer, Label: a.Label, Secret: a.Secret}
}

// Identity returns the duplicate-detection key.
func (d AccountDraft) Identity() Identity {
	return Identity{Issuer: d.Issuer, Label: d.Label, Secret: d.Secret}
}

// Draft strips the store-assigned fields.
func (a Account) Draft() AccountDraft {
	return AccountDraft{
		Issuer:    a.Issuer,
		Label:     a.Label,
		Secret:    a.Secret,
		Algorithm: a.Algorithm,
		Digits:    a.Digits,
		Period:    a.Period,
		Type:      a.Type,
		Folder:    a.Folder,
	}
}

// UnknownName replaces an empty issuer or label on accounts added from a URI
// or by hand.
const UnknownName = "Unknown"

// WithNames fills an empty issuer or label with UnknownName.
func (d AccountDraft) WithNames() AccountDraft {
	if strings.TrimSpace(d.Issuer) == "" {
		d.Issuer = UnknownName
	}
	if strings.TrimSpace(d.Label) == "" {
		d.Label = UnknownName
	}
	return d
}

// WithDefaults fills unset parameters with SHA1, 6 digits, 30 seconds and
// type totp.
func (d AccountDraft) WithDefaults() AccountDraft {
	d.Algorithm = d.Algorithm.Or(otp.AlgorithmSHA1)
	if d.Digits <= 0 {
		d.Digits = otp.DefaultDigits
	}
	if d.Period <= 0 {
		d.Period = otp.DefaultPeriod
	}
	if strings.TrimSpace(d.Type) == "" {
		d.Type = TypeTOTP
	}
	return d
}

// OTPParams decodes the secret into engine parameters.
func (a Account) OTPParams() (otp.Params, error) {
	secret, err := otp.DecodeSecret(a.Secret)
	if err != nil {
		return otp.Params{}, err
	}
	return otp.Params{
		Secret:    secret,
		Algorithm: a.Algorithm,
		Digits:    a.Digits,
		Period:    a.Period,
	}, nil
}

// NewAccount materializes a draft with store-assigned fields.
func NewAccount(id string, created int64, order int, d AccountDraft) Account {
	return Account{
		ID:        id,
		Issuer:    d.Issuer,
		Label:     d.Label,
		Secret:    d.Secret,
		Algorithm: d.Algorithm,
		Digits:    d.Digits,
		Period:    d.Period,
		Type:      d.Type,
		Folder:    d.Folder,
		Created:   created,
		Order:     order,
	}
}

// SortAccounts orders accounts by Order then Created, the order every store
// lists in.
func SortAccounts(accounts []Account) {
	slices.SortStableFunc(accounts, func(a, b Account) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.Created, b.Created), cmp.Compare(a.ID, b.ID))
	})
}
