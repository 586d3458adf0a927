// Package pw_hdlc implements the HDLC-derived framing used by Pigweed
// links to carry binary payloads (RPC packets, log records) over an
// unstructured serial or socket byte stream.
package pw_hdlc

const (
	kFlag           = byte(0x7E)
	kEscape         = byte(0x7D)
	kEscapeConstant = byte(0x20)

	kEscapedFlag   = byte(0x5E)
	kEscapedEscape = byte(0x5D)

	kUnnumberedUFrame = byte(0x03)

	kControlSize = 1
	kFcsSize     = 4

	// Minimum decoded frame content: one address byte, the control byte,
	// and the four FCS bytes.
	kMinContentSizeBytes = 6
)

// NeedsEscaping reports whether b is one of the two reserved bytes that
// must be escaped inside a frame body.
func NeedsEscaping(b byte) bool {
	return b == kFlag || b == kEscape
}

// EscapeByte applies the self-inverse escape transform.
func EscapeByte(b byte) byte {
	return b ^ kEscapeConstant
}

// escapeInto appends data to out with reserved bytes replaced by their
// two-byte escape sequences.
func escapeInto(out, data []byte) []byte {
	for _, b := range data {
		if NeedsEscaping(b) {
			out = append(out, kEscape, EscapeByte(b))
		} else {
			out = append(out, b)
		}
	}
	return out
}
