package migration

import (
	"bytes"
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/shandysiswandi/sigil/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

type fixture struct {
	secret    []byte
	name      string
	issuer    string
	algorithm uint64
	digits    uint64
	otpType   uint64
	counter   uint64
}

func (f fixture) encode() []byte {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, f.secret)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendString(b, f.name)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendString(b, f.issuer)
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, f.algorithm)
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, f.digits)
	b = protowire.AppendTag(b, 6, protowire.VarintType)
	b = protowire.AppendVarint(b, f.otpType)
	if f.counter > 0 {
		b = protowire.AppendTag(b, 7, protowire.VarintType)
		b = protowire.AppendVarint(b, f.counter)
	}
	return b
}

func payload(entries ...fixture) []byte {
	var b []byte
	for _, e := range entries {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, e.encode())
	}
	// version, batch size, batch index, batch id
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, 1)
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, 1)
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, 0)
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, 123456789)
	return b
}

func TestDecode(t *testing.T) {
	buf := payload(
		fixture{secret: []byte("Hello!\xde\xad\xbe\xef"), name: "alice@example.com", issuer: "Example", algorithm: 1, digits: 1, otpType: 2},
		fixture{secret: []byte{1, 2, 3}, name: "bob", issuer: "Corp", algorithm: 3, digits: 2, otpType: 2},
		fixture{secret: []byte{9}, name: "legacy", algorithm: 4, digits: 7, otpType: 1, counter: 42},
	)

	got, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, Parameters{Secret: []byte("Hello!\xde\xad\xbe\xef"), Name: "alice@example.com", Issuer: "Example", Algorithm: otp.AlgorithmSHA1, Digits: 6, Type: TypeTOTP}, got[0])
	assert.Equal(t, otp.AlgorithmSHA512, got[1].Algorithm)
	assert.Equal(t, 8, got[1].Digits)
	assert.Equal(t, otp.AlgorithmMD5, got[2].Algorithm)
	assert.Equal(t, 6, got[2].Digits)
	assert.Equal(t, TypeHOTP, got[2].Type)
	assert.Equal(t, uint64(42), got[2].Counter)

	key := got[0].Key()
	assert.Equal(t, "JBSWY3DPEHPK3PXP", key.Secret)
	assert.Equal(t, "Example", key.Issuer)
	assert.Equal(t, "alice@example.com", key.Label)
	assert.Equal(t, 30, key.Period)
}

func TestDecode_Empty(t *testing.T) {
	got, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_Deterministic(t *testing.T) {
	buf := payload(fixture{secret: []byte("abc"), name: "n", issuer: "i", algorithm: 2, digits: 1, otpType: 2})

	a, err := Decode(buf)
	require.NoError(t, err)
	b, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecode_SkipsUnknownWireTypes(t *testing.T) {
	entry := fixture{secret: []byte("abc"), name: "n", issuer: "i", algorithm: 2, digits: 1, otpType: 2}.encode()
	entry = protowire.AppendTag(entry, 20, protowire.Fixed32Type)
	entry = protowire.AppendFixed32(entry, 7)
	entry = protowire.AppendTag(entry, 21, protowire.Fixed64Type)
	entry = protowire.AppendFixed64(entry, 7)
	entry = protowire.AppendTag(entry, 22, protowire.StartGroupType)
	entry = protowire.AppendTag(entry, 1, protowire.VarintType)
	entry = protowire.AppendVarint(entry, 5)
	entry = protowire.AppendTag(entry, 2, protowire.StartGroupType)
	entry = protowire.AppendTag(entry, 1, protowire.BytesType)
	entry = protowire.AppendString(entry, "nested")
	entry = protowire.AppendTag(entry, 2, protowire.EndGroupType)
	entry = protowire.AppendTag(entry, 22, protowire.EndGroupType)
	// known field number carried with an unexpected wire type
	entry = protowire.AppendTag(entry, 4, protowire.BytesType)
	entry = protowire.AppendString(entry, "x")

	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.BytesType)
	buf = protowire.AppendBytes(buf, entry)
	buf = protowire.AppendTag(buf, 9, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, 1)

	got, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "n", got[0].Name)
	assert.Equal(t, otp.AlgorithmSHA256, got[0].Algorithm)
}

func TestDecode_Malformed(t *testing.T) {
	good := payload(fixture{secret: []byte("abc"), name: "n", issuer: "i", algorithm: 1, digits: 1, otpType: 2})

	// a complete entry followed by one whose length runs past the buffer
	var partial []byte
	partial = protowire.AppendTag(partial, 1, protowire.BytesType)
	partial = protowire.AppendBytes(partial, fixture{secret: []byte("abc"), name: "n", issuer: "i", algorithm: 1, digits: 1, otpType: 2}.encode())
	partial = append(partial, 0x0a, 0x05, 0x01)

	tests := []struct {
		name string
		buf  []byte
	}{
		{name: "truncated", buf: good[:len(good)/2]},
		{name: "length past end", buf: []byte{0x0a, 0x05, 0x01}},
		{name: "dangling varint", buf: []byte{0x10, 0x80}},
		{name: "varint too long", buf: append([]byte{0x10}, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01)},
		{name: "varint overflows 64 bits", buf: append([]byte{0x10}, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02)},
		{name: "wire type 6", buf: []byte{0x0e}},
		{name: "wire type 7", buf: []byte{0x0f}},
		{name: "fixed64 past end", buf: []byte{0x11, 0x01, 0x02}},
		{name: "fixed32 past end", buf: []byte{0x15, 0x01}},
		{name: "unterminated group", buf: []byte{0x13, 0x08, 0x01}},
		{name: "bad nested entry", buf: []byte{0x0a, 0x02, 0x0a, 0x09}},
		{name: "good entry then truncated entry", buf: partial},
		{name: "groups nested too deep", buf: bytes.Repeat([]byte{0x0b}, 1_000_000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.buf)
			assert.ErrorIs(t, err, ErrMalformedPayload)
			assert.Nil(t, got)
		})
	}
}

func TestDecode_NestedGroupsWithinLimit(t *testing.T) {
	// Arrange
	buf := append(bytes.Repeat([]byte{0x0b}, maxGroupDepth), bytes.Repeat([]byte{0x0c}, maxGroupDepth)...)

	// Act
	got, err := Decode(buf)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_VarintMaxValue(t *testing.T) {
	// Arrange
	var buf []byte
	buf = protowire.AppendTag(buf, 5, protowire.VarintType)
	buf = protowire.AppendVarint(buf, ^uint64(0))

	// Act
	got, err := Decode(buf)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseURL(t *testing.T) {
	buf := payload(
		fixture{secret: []byte{0xfb, 0xff, 0xfe}, name: "a", issuer: "A", algorithm: 1, digits: 1, otpType: 2},
		fixture{secret: []byte("zz"), name: "b", issuer: "B", algorithm: 1, digits: 1, otpType: 2},
	)

	t.Run("standard alphabet escaped", func(t *testing.T) {
		raw := "otpauth-migration://offline?data=" + url.QueryEscape(base64.StdEncoding.EncodeToString(buf))
		got, err := ParseURL(raw)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("standard alphabet with raw plus", func(t *testing.T) {
		raw := "otpauth-migration://offline?data=" + base64.StdEncoding.EncodeToString(buf)
		got, err := ParseURL(raw)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("url safe alphabet", func(t *testing.T) {
		raw := "otpauth-migration://offline?data=" + base64.RawURLEncoding.EncodeToString(buf)
		got, err := ParseURL(raw)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xfb, 0xff, 0xfe}, got[0].Secret)
	})

	t.Run("missing data", func(t *testing.T) {
		_, err := ParseURL("otpauth-migration://offline")
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := ParseURL("otpauth://offline?data=AAAA")
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := ParseURL("otpauth-migration://offline?data=%%%")
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})
}
