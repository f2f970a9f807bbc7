package goerror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = errors.New("pkg: sentinel")

type fieldErr map[string]string

func (f fieldErr) Error() string             { return "fields" }
func (f fieldErr) Values() map[string]string { return f }

func TestWrappersKeepSentinel(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType Type
		wantCode Code
	}{
		{"server", NewServer(errSentinel), TypeServer, CodeInternal},
		{"business", NewBusiness(errSentinel, CodeConflict), TypeBusiness, CodeConflict},
		{"format", NewInvalidFormat(fmt.Errorf("%w: detail", errSentinel)), TypeValidation, CodeInvalidFormat},
		{"input", NewInvalidInput(errSentinel), TypeValidation, CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, errSentinel)

			ge, ok := As(tt.err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, ge.Type())
			assert.Equal(t, tt.wantCode, ge.Code())
		})
	}
}

func TestNewInvalidInput_Fields(t *testing.T) {
	err := NewInvalidInput(fieldErr{"secret": "secret must be base32"})

	ge, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"secret": "secret must be base32"}, ge.Fields())

	err = NewInvalidInput(nil, "digits", "must be 6 or 8")
	ge, ok = As(err)
	require.True(t, ok)
	assert.Equal(t, "must be 6 or 8", ge.Fields()["digits"])
	assert.Equal(t, "Validation error", ge.Error())

	err = NewInvalidInput(nil, "odd")
	ge, _ = As(err)
	assert.Equal(t, CodeInvalidFormat, ge.Code())
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "ERROR_CODE_CONFLICT", CodeConflict.String())
	assert.Equal(t, "ERROR_TYPE_BUSINESS", TypeBusiness.String())
	assert.Contains(t, NewServer(errSentinel).(*Error).String(), "ERROR_CODE_INTERNAL")
}
