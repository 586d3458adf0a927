package pw_hdlc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Wire vectors captured from a device running the lite protocol.
func TestLiteDecodeReferenceVectors(t *testing.T) {
	testCases := []struct {
		name   string
		wire   []byte
		status FrameStatus
		data   []byte
	}{
		{"one byte payload", []byte{0x7e, 0x41, 0x15, 0xb9, 0x7e}, StatusOK, []byte("A")},
		{"empty payload", []byte{0x7e, 0xff, 0xff, 0x7e}, StatusOK, []byte{}},
		{"escaped escape byte", []byte{0x7e, 0x7d, 0x5d, 0xca, 0x4e, 0x7e}, StatusOK, []byte{0x7d}},
		{"corrupt fcs", []byte{0x7e, 0x41, 0x15, 0xb8, 0x7e}, StatusFCSMismatch, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frames := NewLiteFrameDecoder().Process(tc.wire)

			require.Len(t, frames, 1)
			require.Equal(t, tc.status, frames[0].Status())
			if tc.status == StatusOK {
				require.Equal(t, tc.data, frames[0].Data())
			}
			require.Equal(t, NoAddress, frames[0].Address())
		})
	}
}

func TestLiteEncode(t *testing.T) {
	require.Equal(t, []byte{0x7e, 0x41, 0x15, 0xb9, 0x7e}, EncodeLiteFrame([]byte("A")))
	require.Equal(t, []byte{0x7e, 0xff, 0xff, 0x7e}, EncodeLiteFrame(nil))
	require.Equal(t, []byte{0x7e, 0x7d, 0x5d, 0xca, 0x4e, 0x7e}, EncodeLiteFrame([]byte{0x7d}))
}

func TestLiteRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{0x01, 0x02, 0x03},
		{0x7e, 0x7d, 0x7e},
		[]byte("lite frames carry raw payload plus a 16-bit FCS"),
	}

	d := NewLiteFrameDecoder()
	for _, payload := range payloads {
		frames := d.Process(EncodeLiteFrame(payload))
		require.Len(t, frames, 1)
		require.True(t, frames[0].Ok())
		require.Equal(t, payload, frames[0].Data())
	}
}

func TestLiteDiscardsNoiseBeforeSync(t *testing.T) {
	d := NewLiteFrameDecoder()

	frames := d.Process(append([]byte{0x01, 0x02, 0x03}, EncodeLiteFrame([]byte("A"))...))

	require.Len(t, frames, 1)
	require.True(t, frames[0].Ok())
	require.Equal(t, 3, d.DiscardedBytes())
}

func TestLiteInvalidEscapeResynchronizes(t *testing.T) {
	d := NewLiteFrameDecoder()

	frames := d.Process([]byte{0x7e, 0x41, 0x7d, 0x01})
	require.Empty(t, frames)

	frames = d.Process(EncodeLiteFrame([]byte("A")))
	require.Len(t, frames, 1)
	require.True(t, frames[0].Ok())
}
