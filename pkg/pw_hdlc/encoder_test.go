package pw_hdlc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeInformationFrame(t *testing.T) {
	testCases := []struct {
		name    string
		address uint64
		control byte
		payload []byte
		expect  []byte
	}{
		{
			"ui frame",
			0x52, 0x03, []byte("hello"),
			helloWire,
		},
		{
			"empty payload",
			0, 0x03, nil,
			[]byte{0x7e, 0x01, 0x03, 0x04, 0x72, 0xcb, 0xc1, 0x7e},
		},
		{
			"reserved bytes escaped",
			0x52, 0x03, []byte{0x7e, 0x7d, 0x21},
			[]byte{0x7e, 0xa5, 0x03, 0x7d, 0x5e, 0x7d, 0x5d, 0x21, 0xaa, 0x1a, 0xc7, 0xe4, 0x7e},
		},
		{
			"multi-byte address",
			300, 0xf1, []byte{0x01, 0x02},
			[]byte{0x7e, 0x58, 0x05, 0xf1, 0x01, 0x02, 0xaf, 0xca, 0x8c, 0xba, 0x7e},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, EncodeInformationFrame(tc.address, tc.control, tc.payload))
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{0x00},
		{0x7e, 0x7d, 0x5e, 0x5d},
		[]byte("a longer payload with text and \x7e\x7d reserved bytes"),
		bytes.Repeat([]byte{0x7e}, 64),
	}
	addresses := []uint64{0, 1, 0x52, 127, 128, 1 << 20, 1<<64 - 1}

	d := NewFrameDecoder()
	for _, address := range addresses {
		for _, payload := range payloads {
			frames := collect(d, EncodeInformationFrame(address, 0x03, payload))

			require.Len(t, frames, 1)
			require.True(t, frames[0].Ok())
			require.Equal(t, address, frames[0].Address())
			require.Equal(t, byte(0x03), frames[0].Control())
			if len(payload) == 0 {
				require.Empty(t, frames[0].Data())
			} else {
				require.Equal(t, payload, frames[0].Data())
			}
		}
	}
}

func TestEncoderWritePayload(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf, 0x52)

	n, err := e.WritePayload([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, len(helloWire), n)
	require.Equal(t, helloWire, buf.Bytes())
}

func TestEscapeSelfInverse(t *testing.T) {
	for _, b := range []byte{kFlag, kEscape} {
		require.Equal(t, b, EscapeByte(EscapeByte(b)))
	}
	require.Equal(t, kEscapedFlag, EscapeByte(kFlag))
	require.Equal(t, kEscapedEscape, EscapeByte(kEscape))
}
