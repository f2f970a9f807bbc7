package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []Record
		wantErr bool
	}{
		{
			name: "bare array with defaults",
			in:   `[{"issuer":"GitHub","label":"octo","secret":" ABC "}]`,
			want: []Record{{Issuer: "GitHub", Label: "octo", Secret: "ABC", Algorithm: "SHA1", Digits: 6, Period: 30, Type: "totp"}},
		},
		{
			name: "2fas services",
			in: `{"schemaVersion":4,"services":[
				{"name":"Google","secret":"JBSWY3DPEHPK3PXP","otp":{"account":"me@gmail.com","issuer":"Google","digits":8,"period":30,"algorithm":"SHA256","tokenType":"TOTP"}},
				{"name":"NoIssuer","secret":"ABC","otp":{"label":"lbl"}}
			]}`,
			want: []Record{
				{Issuer: "Google", Label: "me@gmail.com", Secret: "JBSWY3DPEHPK3PXP", Algorithm: "SHA256", Digits: 8, Period: 30, Type: "totp"},
				{Issuer: "NoIssuer", Label: "lbl", Secret: "ABC", Algorithm: "SHA1", Digits: 6, Period: 30, Type: "totp"},
			},
		},
		{
			name: "unknown array key",
			in:   `{"meta":{"x":1},"items":[{"issuer":"I","label":"L","secret":"S","digits":8}]}`,
			want: []Record{{Issuer: "I", Label: "L", Secret: "S", Algorithm: "SHA1", Digits: 8, Period: 30, Type: "totp"}},
		},
		{
			name: "entries without secret dropped",
			in:   `[{"issuer":"a"},{"issuer":"b","secret":"S"}]`,
			want: []Record{{Issuer: "b", Secret: "S", Algorithm: "SHA1", Digits: 6, Period: 30, Type: "totp"}},
		},
		{name: "object without list", in: `{"a":1}`, wantErr: true},
		{name: "scalar", in: `42`, wantErr: true},
		{name: "broken", in: `[{`, wantErr: true},
		{name: "empty", in: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadJSON([]byte(tt.in))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
