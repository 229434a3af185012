// Package pushback provides a byte reader that allows bytes to be pushed
// back and read again.  The frame scanner uses it to back off when a byte
// that looked like the start of a message frame turns out not to be.
package pushback

import (
	"io"
)

// Reader is a byte source with pushback.
type Reader struct {
	// pushBackBuffer contains any bytes that have been pushed back.
	pushBackBuffer []byte
	// source supplies the bytes.
	source io.ByteReader
}

// New creates a Reader that takes its bytes from source.
func New(source io.ByteReader) *Reader {
	return &Reader{source: source}
}

// GetNextByte gets the next byte.  If bytes have been pushed back, it
// returns the first of them instead.  At the end of the input it returns
// io.EOF.
func (r *Reader) GetNextByte() (byte, error) {
	if len(r.pushBackBuffer) > 0 {
		b := r.pushBackBuffer[0]
		r.pushBackBuffer = r.pushBackBuffer[1:]
		return b, nil
	}

	if r.source == nil {
		return 0, io.EOF
	}

	return r.source.ReadByte()
}

// PushBack pushes back bytes - the next calls of GetNextByte will return
// them, in order, rather than reading from the source.  They go in front of
// any bytes pushed back earlier and not yet read.
func (r *Reader) PushBack(b ...byte) {
	buffer := make([]byte, 0, len(b)+len(r.pushBackBuffer))
	buffer = append(buffer, b...)
	r.pushBackBuffer = append(buffer, r.pushBackBuffer...)
}
