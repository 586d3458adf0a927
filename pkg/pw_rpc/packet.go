// Package pw_rpc is a client for Pigweed RPC servers reached over an
// HDLC-framed byte stream. It implements grpc.ClientConnInterface, so
// grpc-generated client stubs work against embedded devices unchanged.
package pw_rpc

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/encoding/protowire"
)

// PacketType enumerates the pw.rpc packet types.
type PacketType uint32

const (
	PacketTypeRequest           PacketType = 0
	PacketTypeResponse          PacketType = 1
	PacketTypeClientError       PacketType = 2
	PacketTypeServerError       PacketType = 3
	PacketTypeDeprecatedCancel  PacketType = 4
	PacketTypeClientStream      PacketType = 5
	PacketTypeServerStream      PacketType = 6
	PacketTypeRequestCompletion PacketType = 7
)

func (t PacketType) String() string {
	switch t {
	case PacketTypeRequest:
		return "REQUEST"
	case PacketTypeResponse:
		return "RESPONSE"
	case PacketTypeClientError:
		return "CLIENT_ERROR"
	case PacketTypeServerError:
		return "SERVER_ERROR"
	case PacketTypeDeprecatedCancel:
		return "DEPRECATED_CANCEL"
	case PacketTypeClientStream:
		return "CLIENT_STREAM"
	case PacketTypeServerStream:
		return "SERVER_STREAM"
	case PacketTypeRequestCompletion:
		return "REQUEST_COMPLETION"
	}
	return fmt.Sprintf("PacketType(%d)", uint32(t))
}

// Field numbers of the pw.rpc.internal.Packet message. Service and method
// ids are fixed32 on the wire; everything else is a varint or bytes
// field.
const (
	fieldType      = 1
	fieldChannelID = 2
	fieldServiceID = 3
	fieldMethodID  = 4
	fieldPayload   = 5
	fieldStatus    = 6
	fieldCallID    = 7
)

var ErrMalformedPacket = errors.New("malformed rpc packet")

// Packet is one pw.rpc packet. Payload holds a serialized user message;
// Status carries the pw_status code, which shares values with grpc codes.
type Packet struct {
	Type      PacketType
	ChannelID uint32
	ServiceID uint32
	MethodID  uint32
	Payload   []byte
	Status    codes.Code
	CallID    uint32
}

// Marshal serializes the packet. Zero-valued fields are omitted,
// proto3-style.
func (p *Packet) Marshal() []byte {
	var out []byte
	if p.Type != 0 {
		out = protowire.AppendTag(out, fieldType, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(p.Type))
	}
	if p.ChannelID != 0 {
		out = protowire.AppendTag(out, fieldChannelID, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(p.ChannelID))
	}
	if p.ServiceID != 0 {
		out = protowire.AppendTag(out, fieldServiceID, protowire.Fixed32Type)
		out = protowire.AppendFixed32(out, p.ServiceID)
	}
	if p.MethodID != 0 {
		out = protowire.AppendTag(out, fieldMethodID, protowire.Fixed32Type)
		out = protowire.AppendFixed32(out, p.MethodID)
	}
	if len(p.Payload) > 0 {
		out = protowire.AppendTag(out, fieldPayload, protowire.BytesType)
		out = protowire.AppendBytes(out, p.Payload)
	}
	if p.Status != 0 {
		out = protowire.AppendTag(out, fieldStatus, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(p.Status))
	}
	if p.CallID != 0 {
		out = protowire.AppendTag(out, fieldCallID, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(p.CallID))
	}
	return out
}

// UnmarshalPacket parses one packet, ignoring unknown fields.
func UnmarshalPacket(data []byte) (*Packet, error) {
	packet := &Packet{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, ErrMalformedPacket
		}
		data = data[n:]

		switch {
		case num == fieldType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, ErrMalformedPacket
			}
			packet.Type = PacketType(v)
			data = data[n:]
		case num == fieldChannelID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, ErrMalformedPacket
			}
			packet.ChannelID = uint32(v)
			data = data[n:]
		case num == fieldServiceID && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return nil, ErrMalformedPacket
			}
			packet.ServiceID = v
			data = data[n:]
		case num == fieldMethodID && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return nil, ErrMalformedPacket
			}
			packet.MethodID = v
			data = data[n:]
		case num == fieldPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, ErrMalformedPacket
			}
			packet.Payload = append([]byte(nil), v...)
			data = data[n:]
		case num == fieldStatus && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, ErrMalformedPacket
			}
			packet.Status = codes.Code(v)
			data = data[n:]
		case num == fieldCallID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, ErrMalformedPacket
			}
			packet.CallID = uint32(v)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, ErrMalformedPacket
			}
			data = data[n:]
		}
	}

	return packet, nil
}
