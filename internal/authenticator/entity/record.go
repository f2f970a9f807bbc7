package entity

import (
	"github.com/shandysiswandi/sigil/internal/pkg/backup"
	"github.com/shandysiswandi/sigil/internal/pkg/otp"
)

// Record converts the account to its backup form.
func (a Account) Record() backup.Record {
	return backup.Record{
		ID:        a.ID,
		Issuer:    a.Issuer,
		Label:     a.Label,
		Secret:    a.Secret,
		Algorithm: a.Algorithm.String(),
		Digits:    a.Digits,
		Period:    a.Period,
		Type:      a.Type,
		Folder:    a.Folder,
		Created:   a.Created,
		Order:     a.Order,
	}
}

// DraftFromRecord drops the store-assigned fields of a backup record. An
// algorithm name that does not parse is kept verbatim so code generation
// reports it.
func DraftFromRecord(r backup.Record) AccountDraft {
	alg, err := otp.ParseAlgorithm(r.Algorithm)
	if err != nil {
		alg = otp.Algorithm(r.Algorithm)
	}
	return AccountDraft{
		Issuer:    r.Issuer,
		Label:     r.Label,
		Secret:    r.Secret,
		Algorithm: alg,
		Digits:    r.Digits,
		Period:    r.Period,
		Type:      r.Type,
		Folder:    r.Folder,
	}
}
