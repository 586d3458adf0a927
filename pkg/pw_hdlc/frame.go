package pw_hdlc

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/pwkit/pwkit/pkg/pw_varint"
)

// FrameStatus classifies the result of decoding one frame. The decoder
// never returns errors; malformed input becomes a Frame carrying one of
// the non-OK statuses.
type FrameStatus int

const (
	StatusOK FrameStatus = iota
	StatusFCSMismatch
	StatusFramingError
	StatusBadAddress
)

func (s FrameStatus) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusFCSMismatch:
		return "FCS_MISMATCH"
	case StatusFramingError:
		return "FRAMING_ERROR"
	case StatusBadAddress:
		return "BAD_ADDRESS"
	}
	return fmt.Sprintf("FrameStatus(%d)", int(s))
}

// NoAddress is the address reported on frames whose address field could
// not be parsed.
const NoAddress = uint64(math.MaxUint64)

// Frame is the immutable parsed result of one frame, valid or not.
type Frame struct {
	rawEncoded []byte
	rawDecoded []byte
	status     FrameStatus
	address    uint64
	control    byte
	data       []byte
}

// RawEncoded returns the frame's bytes as seen on the wire, excluding the
// delimiter flags.
func (f Frame) RawEncoded() []byte {
	return f.rawEncoded
}

// RawDecoded returns the frame's bytes after unescaping.
func (f Frame) RawDecoded() []byte {
	return f.rawDecoded
}

func (f Frame) Status() FrameStatus {
	return f.status
}

// Ok reports whether the frame was parsed and verified successfully.
func (f Frame) Ok() bool {
	return f.status == StatusOK
}

// Address returns the decoded address field, or NoAddress when parsing
// failed before the address was recovered.
func (f Frame) Address() uint64 {
	return f.address
}

func (f Frame) Control() byte {
	return f.control
}

// Data returns the frame payload: the bytes between the control byte and
// the frame check sequence.
func (f Frame) Data() []byte {
	return f.data
}

func (f Frame) String() string {
	if f.Ok() {
		return fmt.Sprintf("Frame(address=%d, control=0x%02x, data=%d bytes)", f.address, f.control, len(f.data))
	}
	return fmt.Sprintf("Frame(%s, %d raw bytes)", f.status, len(f.rawEncoded))
}

// frameFromDecoded validates one candidate frame's unescaped content and
// classifies the result. rawEncoded is kept verbatim for diagnostics.
func frameFromDecoded(rawEncoded, rawDecoded []byte) Frame {
	frame := Frame{
		rawEncoded: rawEncoded,
		rawDecoded: rawDecoded,
		status:     StatusFramingError,
		address:    NoAddress,
	}

	if len(rawDecoded) < kMinContentSizeBytes {
		return frame
	}

	content := rawDecoded[:len(rawDecoded)-kFcsSize]
	fcs := binary.LittleEndian.Uint32(rawDecoded[len(rawDecoded)-kFcsSize:])
	if crc32.ChecksumIEEE(content) != fcs {
		frame.status = StatusFCSMismatch
		return frame
	}

	address, addressSize := pw_varint.Decode(rawDecoded, pw_varint.OneTerminatedLeastSignificant)
	if addressSize == 0 || addressSize+kControlSize > len(content) {
		frame.status = StatusBadAddress
		return frame
	}

	frame.status = StatusOK
	frame.address = address
	frame.control = rawDecoded[addressSize]
	frame.data = rawDecoded[addressSize+kControlSize : len(rawDecoded)-kFcsSize]
	return frame
}

// framingErrorFrame wraps bytes that could not form a frame.
func framingErrorFrame(rawEncoded, rawDecoded []byte) Frame {
	return Frame{
		rawEncoded: rawEncoded,
		rawDecoded: rawDecoded,
		status:     StatusFramingError,
		address:    NoAddress,
	}
}

// FrameFromWire parses a frame directly from its on-wire bytes (with
// escape sequences, without delimiter flags). It is intended for tests
// and offline analysis of captured traffic; live streams should go
// through FrameDecoder.
func FrameFromWire(rawEncoded []byte) Frame {
	rawDecoded := make([]byte, 0, len(rawEncoded))
	escaped := false
	for _, b := range rawEncoded {
		switch {
		case escaped:
			if b != kEscapedFlag && b != kEscapedEscape {
				return framingErrorFrame(rawEncoded, rawDecoded)
			}
			rawDecoded = append(rawDecoded, EscapeByte(b))
			escaped = false
		case b == kEscape:
			escaped = true
		case b == kFlag:
			return framingErrorFrame(rawEncoded, rawDecoded)
		default:
			rawDecoded = append(rawDecoded, b)
		}
	}
	if escaped {
		return framingErrorFrame(rawEncoded, rawDecoded)
	}
	return frameFromDecoded(rawEncoded, rawDecoded)
}
