// Package pw_varint implements the variable-length integer encodings used
// by Pigweed wire formats. Each encoded byte carries seven data bits plus a
// terminator flag; the four formats differ in the flag's bit position and
// in which flag value marks the final byte.
package pw_varint

// Format selects the terminator flag's value and bit position.
type Format int

const (
	ZeroTerminatedLeastSignificant Format = 0
	ZeroTerminatedMostSignificant  Format = 1
	OneTerminatedLeastSignificant  Format = 2
	OneTerminatedMostSignificant   Format = 3
)

const (
	// MaxVarint32SizeBytes is the maximum encoded size of a uint32.
	MaxVarint32SizeBytes = 5
	// MaxVarint64SizeBytes is the maximum encoded size of a uint64.
	MaxVarint64SizeBytes = 10
)

func (f Format) zeroTerminated() bool {
	return f&0b10 == 0
}

func (f Format) leastSignificant() bool {
	return f&0b01 == 0
}

// Encode returns the minimal-length encoding of val. The zero value
// encodes to a single byte.
func Encode(val uint64, format Format) []byte {
	output := make([]byte, 0, MaxVarint64SizeBytes)

	valueShift := 0
	termShift := 7
	if format.leastSignificant() {
		valueShift = 1
		termShift = 0
	}

	term := byte(1) << termShift
	if format.zeroTerminated() {
		term = 0
	}

	for {
		b := (byte(val) & 0x7f) << valueShift
		val >>= 7
		if val == 0 {
			b |= term
		} else {
			b |= term ^ (byte(1) << termShift)
		}
		output = append(output, b)
		if val == 0 {
			return output
		}
	}
}

// EncodedSize returns the number of bytes Encode produces for val.
func EncodedSize(val uint64) int {
	size := 1
	for val >>= 7; val != 0; val >>= 7 {
		size++
	}
	return size
}

// Decode reads one varint from the front of input. It returns the decoded
// value and the number of bytes consumed; consumed is 0 when input is
// exhausted (or exceeds the 64-bit maximum) before a terminating byte
// appears.
func Decode(input []byte, format Format) (uint64, int) {
	var mask byte = 0x7f
	var shift uint = 0
	if format.leastSignificant() {
		mask = 0xfe
		shift = 1
	}

	// Reports whether b closes the varint.
	isLast := func(b byte) bool {
		if format.zeroTerminated() {
			return b & ^mask == 0
		}
		return b & ^mask != 0
	}

	maxCount := min(MaxVarint64SizeBytes, len(input))

	value := uint64(0)
	for count := 0; count < maxCount; count++ {
		value |= uint64((input[count]&mask)>>shift) << (7 * count)
		if isLast(input[count]) {
			return value, count + 1
		}
	}

	return 0, 0
}
