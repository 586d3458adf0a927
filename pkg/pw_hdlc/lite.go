package pw_hdlc

import (
	"encoding/binary"

	"github.com/sigurn/crc16"
)

// The lite protocol variant predates the addressed frame format: frame
// content is just the payload followed by a two-byte CRC-16/CCITT-FALSE
// frame check sequence, with the same flag and escape bytes. It survives
// on links to devices that never migrated; treat it as a distinct
// protocol version, not a mode of FrameDecoder.

const kLiteFcsSize = 2

var kLiteCrcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// EncodeLiteFrame builds one lite-variant frame around payload.
func EncodeLiteFrame(payload []byte) []byte {
	content := make([]byte, 0, len(payload)+kLiteFcsSize)
	content = append(content, payload...)

	var fcs [kLiteFcsSize]byte
	binary.LittleEndian.PutUint16(fcs[:], crc16.Checksum(payload, kLiteCrcTable))
	content = append(content, fcs[:]...)

	frame := make([]byte, 0, 2*len(content)+2)
	frame = append(frame, kFlag)
	frame = escapeInto(frame, content)
	frame = append(frame, kFlag)
	return frame
}

// LiteFrameDecoder is the incremental decoder for the lite variant. Bytes
// seen before the first flag are dropped and counted rather than reported
// as a frame.
type LiteFrameDecoder struct {
	synced    bool
	escaped   bool
	rawData   []byte
	content   []byte
	discarded int
}

func NewLiteFrameDecoder() *LiteFrameDecoder {
	return &LiteFrameDecoder{}
}

// DiscardedBytes returns the total number of bytes dropped while hunting
// for a frame boundary.
func (d *LiteFrameDecoder) DiscardedBytes() int {
	return d.discarded
}

func (d *LiteFrameDecoder) clear() {
	d.rawData = d.rawData[:0]
	d.content = d.content[:0]
	d.escaped = false
}

func (d *LiteFrameDecoder) emit(status FrameStatus) *Frame {
	frame := Frame{
		rawEncoded: append([]byte(nil), d.rawData...),
		rawDecoded: append([]byte(nil), d.content...),
		status:     status,
		address:    NoAddress,
	}
	if status == StatusOK {
		frame.data = frame.rawDecoded[:len(frame.rawDecoded)-kLiteFcsSize]
	}
	d.clear()
	return &frame
}

// Feed consumes one byte and returns the completed Frame, if any.
func (d *LiteFrameDecoder) Feed(b byte) *Frame {
	if !d.synced {
		if b == kFlag {
			d.synced = true
			d.clear()
		} else {
			d.discarded++
		}
		return nil
	}

	if b == kFlag {
		if d.escaped {
			return d.emit(StatusFramingError)
		}
		if len(d.content) == 0 {
			d.clear()
			return nil
		}
		if len(d.content) < kLiteFcsSize {
			return d.emit(StatusFramingError)
		}

		payload := d.content[:len(d.content)-kLiteFcsSize]
		fcs := binary.LittleEndian.Uint16(d.content[len(d.content)-kLiteFcsSize:])
		if crc16.Checksum(payload, kLiteCrcTable) != fcs {
			return d.emit(StatusFCSMismatch)
		}
		return d.emit(StatusOK)
	}

	d.rawData = append(d.rawData, b)
	switch {
	case d.escaped:
		d.escaped = false
		if b != kEscapedFlag && b != kEscapedEscape {
			// Invalid escape sequence; drop the frame and resynchronize.
			d.discarded += len(d.rawData)
			d.clear()
			d.synced = false
			return nil
		}
		d.content = append(d.content, EscapeByte(b))
	case b == kEscape:
		d.escaped = true
	default:
		d.content = append(d.content, b)
	}
	return nil
}

// Process feeds a chunk through the decoder and collects completed
// frames.
func (d *LiteFrameDecoder) Process(data []byte) []Frame {
	var frames []Frame
	for _, b := range data {
		if frame := d.Feed(b); frame != nil {
			frames = append(frames, *frame)
		}
	}
	return frames
}
