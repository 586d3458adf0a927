package pw_varint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	testCases := []struct {
		name   string
		value  uint64
		format Format
		expect []byte
	}{
		{"zero one-terminated lsb", 0, OneTerminatedLeastSignificant, []byte{0x01}},
		{"zero zero-terminated lsb", 0, ZeroTerminatedLeastSignificant, []byte{0x00}},
		{"one byte one-terminated lsb", 0x52, OneTerminatedLeastSignificant, []byte{0xa5}},
		{"two bytes one-terminated lsb", 0x80, OneTerminatedLeastSignificant, []byte{0x00, 0x03}},
		{"one byte zero-terminated msb", 1, ZeroTerminatedMostSignificant, []byte{0x01}},
		{"two bytes zero-terminated msb", 1024, ZeroTerminatedMostSignificant, []byte{0x80, 0x08}},
		{"one byte one-terminated msb", 1, OneTerminatedMostSignificant, []byte{0x81}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, Encode(tc.value, tc.format))
		})
	}
}

func TestDecode(t *testing.T) {
	testCases := []struct {
		name     string
		input    []byte
		format   Format
		value    uint64
		consumed int
	}{
		{"empty", nil, OneTerminatedLeastSignificant, 0, 0},
		{"unterminated", []byte{0x00, 0x02}, OneTerminatedLeastSignificant, 0, 0},
		{"one byte", []byte{0xa5}, OneTerminatedLeastSignificant, 0x52, 1},
		{"two bytes", []byte{0x00, 0x03}, OneTerminatedLeastSignificant, 0x80, 2},
		{"trailing garbage ignored", []byte{0xa5, 0xff, 0xff}, OneTerminatedLeastSignificant, 0x52, 1},
		{"zero-terminated msb", []byte{0x80, 0x08}, ZeroTerminatedMostSignificant, 1024, 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			value, consumed := Decode(tc.input, tc.format)
			require.Equal(t, tc.consumed, consumed)
			require.Equal(t, tc.value, value)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	formats := []Format{
		ZeroTerminatedLeastSignificant,
		ZeroTerminatedMostSignificant,
		OneTerminatedLeastSignificant,
		OneTerminatedMostSignificant,
	}
	values := []uint64{0, 1, 0x7f, 0x80, 0x3fff, 0x4000, 1<<32 - 1, 1<<63 + 17}

	for _, format := range formats {
		for _, value := range values {
			encoded := Encode(value, format)
			require.Len(t, encoded, EncodedSize(value))

			decoded, consumed := Decode(encoded, format)
			require.Equal(t, len(encoded), consumed)
			require.Equal(t, value, decoded)
		}
	}
}
