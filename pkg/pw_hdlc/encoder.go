package pw_hdlc

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"sync"

	"github.com/pwkit/pwkit/pkg/pw_varint"
)

// EncodeInformationFrame builds one transmit-ready frame: delimiter flag,
// escaped address varint, control byte, payload and little-endian CRC32
// frame check sequence, closing flag.
func EncodeInformationFrame(address uint64, control byte, payload []byte) []byte {
	addressBytes := pw_varint.Encode(address, pw_varint.OneTerminatedLeastSignificant)

	content := make([]byte, 0, len(addressBytes)+kControlSize+len(payload)+kFcsSize)
	content = append(content, addressBytes...)
	content = append(content, control)
	content = append(content, payload...)

	var fcs [kFcsSize]byte
	binary.LittleEndian.PutUint32(fcs[:], crc32.ChecksumIEEE(content))
	content = append(content, fcs[:]...)

	// Worst case every content byte escapes to two.
	frame := make([]byte, 0, 2*len(content)+2)
	frame = append(frame, kFlag)
	frame = escapeInto(frame, content)
	frame = append(frame, kFlag)
	return frame
}

// EncodeUIFrame builds an unnumbered-information frame, the frame type
// Pigweed links use for all traffic.
func EncodeUIFrame(address uint64, payload []byte) []byte {
	return EncodeInformationFrame(address, kUnnumberedUFrame, payload)
}

// Encoder writes HDLC frames to an underlying byte stream. Concurrent
// writers interleave at frame granularity.
type Encoder struct {
	writer  io.Writer
	address uint64
	mu      sync.Mutex
}

// NewEncoder returns an Encoder that frames every payload for the given
// peer address.
func NewEncoder(writer io.Writer, address uint64) *Encoder {
	return &Encoder{
		writer:  writer,
		address: address,
	}
}

// WritePayload emits one UI frame carrying payload. It returns the number
// of bytes written to the underlying stream.
func (e *Encoder) WritePayload(payload []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.writer.Write(EncodeUIFrame(e.address, payload))
}

// WriteFrame emits one frame with an explicit control byte.
func (e *Encoder) WriteFrame(control byte, payload []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.writer.Write(EncodeInformationFrame(e.address, control, payload))
}
