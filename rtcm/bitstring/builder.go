package bitstring

import (
	"fmt"
	"strings"
)

// Builder accumulates fixed-width fields into a binary-digit string.  The
// first error sticks: once a field fails to fit, later appends are ignored
// and Err returns that error.
type Builder struct {
	sb  strings.Builder
	err error
}

// AppendUnsigned adds v as an unsigned field of the given width.
func (b *Builder) AppendUnsigned(v uint64, width int) {
	if b.err != nil {
		return
	}
	bits, err := UnsignedToBinary(v, width)
	if err != nil {
		b.err = err
		return
	}
	b.sb.WriteString(bits)
}

// AppendSigned adds v as a two's complement field of the given width.
func (b *Builder) AppendSigned(v int64, width int) {
	if b.err != nil {
		return
	}
	bits, err := SignedToBinary(v, width)
	if err != nil {
		b.err = err
		return
	}
	b.sb.WriteString(bits)
}

// AppendBool adds a one-bit flag.
func (b *Builder) AppendBool(flag bool) {
	if flag {
		b.AppendUnsigned(1, 1)
	} else {
		b.AppendUnsigned(0, 1)
	}
}

// AppendBits adds a binary-digit string as it stands.
func (b *Builder) AppendBits(bits string) {
	if b.err != nil {
		return
	}
	if err := checkBinary(bits); err != nil {
		b.err = err
		return
	}
	b.sb.WriteString(bits)
}

// Len returns the number of bits appended so far.
func (b *Builder) Len() int {
	return b.sb.Len()
}

// String returns the accumulated binary-digit string.
func (b *Builder) String() string {
	return b.sb.String()
}

// Err returns the first error met while appending, if any.
func (b *Builder) Err() error {
	if b.err != nil {
		return fmt.Errorf("bit %d: %w", b.sb.Len(), b.err)
	}
	return nil
}
