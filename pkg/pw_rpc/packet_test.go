package pw_rpc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestPacketMarshalKnownBytes(t *testing.T) {
	packet := &Packet{
		Type:      PacketTypeResponse,
		ChannelID: 1,
		ServiceID: 0x42d6c0a5,
		MethodID:  0x8b470ee9,
		Payload:   []byte("hi"),
		Status:    codes.NotFound,
	}

	expect := []byte{
		0x08, 0x01,
		0x10, 0x01,
		0x1d, 0xa5, 0xc0, 0xd6, 0x42,
		0x25, 0xe9, 0x0e, 0x47, 0x8b,
		0x2a, 0x02, 'h', 'i',
		0x30, 0x05,
	}
	require.Equal(t, expect, packet.Marshal())
}

func TestPacketRoundTrip(t *testing.T) {
	testCases := []struct {
		name   string
		packet Packet
	}{
		{"zero", Packet{}},
		{"request", Packet{
			Type:      PacketTypeRequest,
			ChannelID: 1,
			ServiceID: Hash("pw.rpc.Benchmark"),
			MethodID:  Hash("UnaryEcho"),
			Payload:   []byte{0x0a, 0x03, 'f', 'o', 'o'},
		}},
		{"server error", Packet{
			Type:      PacketTypeServerError,
			ChannelID: 1,
			ServiceID: 2,
			MethodID:  3,
			Status:    codes.Unimplemented,
			CallID:    7,
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := UnmarshalPacket(tc.packet.Marshal())
			require.NoError(t, err)
			require.Equal(t, &tc.packet, decoded)
		})
	}
}

func TestUnmarshalPacketSkipsUnknownFields(t *testing.T) {
	data := (&Packet{Type: PacketTypeResponse, ChannelID: 1}).Marshal()
	data = protowire.AppendTag(data, 99, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte("future extension"))

	packet, err := UnmarshalPacket(data)
	require.NoError(t, err)
	require.Equal(t, PacketTypeResponse, packet.Type)
	require.Equal(t, uint32(1), packet.ChannelID)
}

func TestUnmarshalPacketMalformed(t *testing.T) {
	_, err := UnmarshalPacket([]byte{0x08})
	require.ErrorIs(t, err, ErrMalformedPacket)

	_, err = UnmarshalPacket([]byte{0x2a, 0x10, 0x01})
	require.ErrorIs(t, err, ErrMalformedPacket)
}

func TestHash(t *testing.T) {
	testCases := []struct {
		in     string
		expect uint32
	}{
		{"", 0},
		{"pw.rpc.Benchmark", 0xd7d70c1d},
		{"UnaryEcho", 0x024e8b55},
		{"pw.test.TestService", 0x42d6c0a5},
		{"Echo", 0x8b470ee9},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.expect, Hash(tc.in), "hash of %q", tc.in)
	}
}
