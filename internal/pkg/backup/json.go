package backup

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// arrayKeys are tried first when a JSON export is an object rather than a list.
var arrayKeys = []string{"services", "accounts", "entries", "tokens"}

type twoFASOTP struct {
	Label     string `json:"label"`
	Account   string `json:"account"`
	Issuer    string `json:"issuer"`
	Digits    int    `json:"digits"`
	Period    int    `json:"period"`
	Algorithm string `json:"algorithm"`
	TokenType string `json:"tokenType"`
}

type jsonEntry struct {
	Issuer    string     `json:"issuer"`
	Label     string     `json:"label"`
	Account   string     `json:"account"`
	Name      string     `json:"name"`
	Secret    string     `json:"secret"`
	Algorithm string     `json:"algorithm"`
	Digits    int        `json:"digits"`
	Period    int        `json:"period"`
	Type      string     `json:"type"`
	Folder    string     `json:"folder"`
	OTP       *twoFASOTP `json:"otp"`
}

func (e jsonEntry) record() Record {
	r := Record{
		Issuer:    e.Issuer,
		Label:     lo.CoalesceOrEmpty(e.Label, e.Account),
		Secret:    strings.TrimSpace(e.Secret),
		Algorithm: e.Algorithm,
		Digits:    e.Digits,
		Period:    e.Period,
		Type:      e.Type,
		Folder:    e.Folder,
	}

	if o := e.OTP; o != nil {
		r.Issuer = lo.CoalesceOrEmpty(r.Issuer, o.Issuer, e.Name)
		r.Label = lo.CoalesceOrEmpty(r.Label, o.Account, o.Label)
		r.Algorithm = lo.CoalesceOrEmpty(r.Algorithm, o.Algorithm)
		r.Digits = lo.CoalesceOrEmpty(r.Digits, o.Digits)
		r.Period = lo.CoalesceOrEmpty(r.Period, o.Period)
		r.Type = lo.CoalesceOrEmpty(r.Type, strings.ToLower(o.TokenType))
	}

	r.Issuer = lo.CoalesceOrEmpty(r.Issuer, e.Name)
	r.Algorithm = lo.CoalesceOrEmpty(r.Algorithm, "SHA1")
	r.Digits = lo.CoalesceOrEmpty(r.Digits, 6)
	r.Period = lo.CoalesceOrEmpty(r.Period, 30)
	r.Type = lo.CoalesceOrEmpty(r.Type, "totp")

	return r
}

// ReadJSON parses a plaintext JSON export: either a bare list of accounts or
// an object whose list-valued key holds them (2FAS "services" and similar).
// Missing algorithm, digits and period fall back to SHA1, 6 and 30. Entries
// without a secret are dropped.
func ReadJSON(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrInvalidFormat
	}

	var entries []jsonEntry
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, ErrInvalidFormat
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, ErrInvalidFormat
		}
		found := false
		for _, key := range candidateKeys(obj) {
			raw := bytes.TrimSpace(obj[key])
			if len(raw) == 0 || raw[0] != '[' {
				continue
			}
			if err := json.Unmarshal(raw, &entries); err != nil {
				continue
			}
			found = true
			break
		}
		if !found {
			return nil, ErrInvalidFormat
		}
	default:
		return nil, ErrInvalidFormat
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		r := e.record()
		if r.Secret == "" {
			continue
		}
		records = append(records, r)
	}

	return records, nil
}

func candidateKeys(obj map[string]json.RawMessage) []string {
	rest := lo.Without(lo.Keys(obj), arrayKeys...)
	slices.Sort(rest)

	known := lo.Filter(arrayKeys, func(k string, _ int) bool {
		_, ok := obj[k]
		return ok
	})

	return append(known, rest...)
}
