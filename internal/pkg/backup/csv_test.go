package backup

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer

	err := WriteCSV(&buf, []Record{
		{Issuer: "Acme, Inc.", Label: `say "hi"`, Secret: "ABC", Type: "totp", Algorithm: "SHA1", Digits: 6, Period: 30},
		{Issuer: "Plain", Label: "multi\nline", Secret: "DEF", Type: "totp", Algorithm: "SHA256", Digits: 8, Period: 60, Folder: " spaced"},
	})
	require.NoError(t, err)

	want := "issuer,label,secret,type,algorithm,digits,period,folder\n" +
		"\"Acme, Inc.\",\"say \"\"hi\"\"\",ABC,totp,SHA1,6,30,\n" +
		"Plain,\"multi\nline\",DEF,totp,SHA256,8,60, spaced\n"
	assert.Equal(t, want, buf.String())
}

func TestCSV_RoundTrip(t *testing.T) {
	in := []Record{
		{Issuer: "Acme, Inc.", Label: `say "hi"`, Secret: "ABC", Type: "totp", Algorithm: "SHA1", Digits: 6, Period: 30, Folder: "f"},
		{Issuer: "", Label: "x\r\ny", Secret: "DEF", Type: "totp", Algorithm: "SHA512", Digits: 8, Period: 45},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, in[0], got[0])
	assert.Equal(t, "DEF", got[1].Secret)
	assert.Equal(t, 45, got[1].Period)
}

func TestReadCSV(t *testing.T) {
	t.Run("blank lines and short rows", func(t *testing.T) {
		in := "issuer,label,secret,type,algorithm,digits,period\n\nA,b,C,totp,SHA1,,\n"

		got, err := ReadCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, Record{Issuer: "A", Label: "b", Secret: "C", Type: "totp", Algorithm: "SHA1"}, got[0])
	})

	t.Run("header mismatch", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("name,secret\nx,y\n"))
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})

	t.Run("bad digits", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(CSVHeader + "\nA,b,C,totp,SHA1,six,30,\n"))
		assert.ErrorIs(t, err, ErrInvalidFormat)
	})
}
