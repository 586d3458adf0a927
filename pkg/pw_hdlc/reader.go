package pw_hdlc

import (
	"context"
	"errors"
	"io"
)

// ErrCancelled reports that the caller's context ended before a frame was
// read.
var ErrCancelled = errors.New("read cancelled")

// Reader pulls frames out of an io.Reader, driving an internal
// FrameDecoder. It is the receive-side glue for callers that own a
// net.Conn or serial port rather than a byte slice.
type Reader struct {
	reader  io.Reader
	decoder *FrameDecoder
	pending []Frame
	buf     [256]byte
}

func NewReader(reader io.Reader) *Reader {
	return &Reader{
		reader:  reader,
		decoder: NewFrameDecoder(),
	}
}

// Next returns the next frame from the stream, valid or not. It blocks on
// the underlying reader; the context is checked between reads, so
// cancelling it stops a caller that is looping on Next once the current
// read returns.
func (r *Reader) Next(ctx context.Context) (Frame, error) {
	for {
		if len(r.pending) > 0 {
			frame := r.pending[0]
			r.pending = r.pending[1:]
			return frame, nil
		}

		select {
		case <-ctx.Done():
			return Frame{}, ErrCancelled
		default:
		}

		n, err := r.reader.Read(r.buf[:])
		for frame := range r.decoder.Process(r.buf[:n]) {
			r.pending = append(r.pending, frame)
		}
		if err != nil && len(r.pending) == 0 {
			return Frame{}, err
		}
	}
}
