package bitstring

import (
	"errors"
	"fmt"
)

// ErrShort is returned when a Reader is asked for more bits than remain.
var ErrShort = errors.New("bit string too short")

// Reader walks a binary-digit string field by field.  As with Builder, the
// first error sticks and later reads return zero.
type Reader struct {
	bits string
	pos  int
	err  error
}

// NewReader returns a Reader positioned at the start of bits.  The string
// is checked once here so that the field reads cannot meet a bad digit.
func NewReader(bits string) *Reader {
	r := Reader{bits: bits}
	r.err = checkBinary(bits)
	return &r
}

// Unsigned reads an unsigned field of the given width.
func (r *Reader) Unsigned(width int) uint64 {
	field, ok := r.take(width)
	if !ok {
		return 0
	}
	v, err := BinaryToUnsignedInt(field)
	if err != nil {
		r.err = err
		return 0
	}
	return v
}

// Signed reads a two's complement field of the given width.
func (r *Reader) Signed(width int) int64 {
	field, ok := r.take(width)
	if !ok {
		return 0
	}
	v, err := BinaryToSignedInt(field)
	if err != nil {
		r.err = err
		return 0
	}
	return v
}

// Bool reads a one-bit flag.
func (r *Reader) Bool() bool {
	return r.Unsigned(1) == 1
}

// Skip moves past width bits.
func (r *Reader) Skip(width int) {
	r.take(width)
}

// Pos returns the number of bits consumed.
func (r *Reader) Pos() int {
	return r.pos
}

// Remaining returns the number of bits not yet consumed.
func (r *Reader) Remaining() int {
	return len(r.bits) - r.pos
}

// Err returns the first error met while reading, if any.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) take(width int) (string, bool) {
	if r.err != nil {
		return "", false
	}
	if width < 0 || r.pos+width > len(r.bits) {
		r.err = fmt.Errorf("%w: want %d bits at position %d, have %d",
			ErrShort, width, r.pos, len(r.bits)-r.pos)
		return "", false
	}
	field := r.bits[r.pos : r.pos+width]
	r.pos += width
	return field, true
}
