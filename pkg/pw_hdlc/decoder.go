package pw_hdlc

import (
	"iter"

	"github.com/rs/zerolog/log"
)

type decoderState int

const (
	stateInterFrame decoderState = iota
	stateFrame
	stateFrameEscape
)

// FrameDecoder is an incremental decoder for a stream of HDLC frames. It
// consumes the stream one byte at a time and produces a Frame whenever a
// frame boundary is crossed, classifying malformed input instead of
// returning errors.
//
// A FrameDecoder is owned by a single logical byte stream and is not safe
// for concurrent use.
type FrameDecoder struct {
	state decoderState

	// rawData logs every non-flag byte seen since the last frame
	// boundary, escape sequences included, for diagnostics.
	rawData []byte
	// decodedData accumulates the unescaped frame content.
	decodedData []byte
}

func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{state: stateInterFrame}
}

// clear resets both buffers without releasing their backing arrays, so
// steady-state decoding does not allocate per frame.
func (d *FrameDecoder) clear() {
	d.rawData = d.rawData[:0]
	d.decodedData = d.decodedData[:0]
}

// takeBuffers copies out the accumulated bytes for an emitted Frame and
// clears the decoder for the next one.
func (d *FrameDecoder) takeBuffers() ([]byte, []byte) {
	rawEncoded := append([]byte(nil), d.rawData...)
	rawDecoded := append([]byte(nil), d.decodedData...)
	d.clear()
	return rawEncoded, rawDecoded
}

// Feed consumes one byte and returns the completed Frame, if any. It
// never fails: noise, checksum mismatches, and bad escape sequences all
// surface as Frames with a non-OK status.
func (d *FrameDecoder) Feed(b byte) *Frame {
	switch d.state {
	case stateInterFrame:
		if b == kFlag {
			d.state = stateFrame

			// Report any stray bytes read before synchronization.
			if len(d.rawData) > 0 {
				frame := framingErrorFrame(d.takeBuffers())
				return &frame
			}
			return nil
		}
		d.rawData = append(d.rawData, b)
		return nil

	case stateFrame:
		if b == kFlag {
			// Back-to-back flags are not an error; adjacent frames may
			// share a single boundary flag.
			if len(d.decodedData) == 0 {
				d.clear()
				return nil
			}
			rawEncoded, rawDecoded := d.takeBuffers()
			frame := frameFromDecoded(rawEncoded, rawDecoded)
			return &frame
		}

		d.rawData = append(d.rawData, b)
		if b == kEscape {
			d.state = stateFrameEscape
		} else {
			d.decodedData = append(d.decodedData, b)
		}
		return nil

	case stateFrameEscape:
		if b == kFlag {
			// The flag character cannot be escaped; abandon the frame.
			d.state = stateFrame
			frame := framingErrorFrame(d.takeBuffers())
			return &frame
		}

		d.rawData = append(d.rawData, b)
		if b == kEscapedFlag || b == kEscapedEscape {
			d.state = stateFrame
			d.decodedData = append(d.decodedData, EscapeByte(b))
		} else {
			// Invalid escape sequence; drop the frame silently and hunt
			// for the next boundary. The discarded bytes stay in rawData
			// so the inter-frame state reports them.
			d.state = stateInterFrame
		}
		return nil
	}

	return nil
}

// Process feeds data through the decoder, yielding a Frame for each
// boundary crossed. The sequence is lazy and single-use; decoder state
// persists across calls, so a byte stream may be processed in chunks of
// any size.
func (d *FrameDecoder) Process(data []byte) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for _, b := range data {
			if frame := d.Feed(b); frame != nil {
				if !yield(*frame) {
					return
				}
			}
		}
	}
}

// ProcessValidFrames behaves like Process but yields only verified
// frames, logging a warning for each one discarded.
func (d *FrameDecoder) ProcessValidFrames(data []byte) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for frame := range d.Process(data) {
			if !frame.Ok() {
				log.Warn().
					Stringer("status", frame.Status()).
					Int("discarded_bytes", len(frame.RawEncoded())).
					Msg("dropped malformed HDLC frame")
				continue
			}
			if !yield(frame) {
				return
			}
		}
	}
}
