// The field package packs and unpacks the fixed parts of RTCM3 messages.
//
// A message layout is an ordered list of fields, each with a name, a width
// in bits, a signedness and a scale factor (the value of the least
// significant bit).  Pack divides each value by its scale factor, rounds to
// the nearest integer (half away from zero) and writes the result in the
// given width.  Unpack reads the raw integer and multiplies it by the scale
// factor.  So the only code peculiar to each message type is its layout and
// the mapping between the layout's values and the message's own struct.
package field

import (
	"errors"
	"fmt"
	"math"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// ErrMissingValue is returned by Pack when a field has no value.
var ErrMissingValue = errors.New("no value for field")

// Field describes one field of a message.
type Field struct {
	// Name identifies the value in a Values map.
	Name string
	// Width is the width of the field in bits.
	Width int
	// Signed is true for a two's complement field.
	Signed bool
	// Scale is the value of one unit of the raw field.  Zero means 1.
	Scale float64
}

// Layout is an ordered list of fields.
type Layout []Field

// Values maps field names to values in physical units.
type Values map[string]float64

// Uint returns a field of width bits holding an unsigned integer.
func Uint(name string, width int) Field {
	return Field{Name: name, Width: width}
}

// Int returns a field of width bits holding a signed integer.
func Int(name string, width int) Field {
	return Field{Name: name, Width: width, Signed: true}
}

// Bool returns a one-bit flag.
func Bool(name string) Field {
	return Field{Name: name, Width: 1}
}

// ScaledUint returns an unsigned field with the given scale factor.
func ScaledUint(name string, width int, scale float64) Field {
	return Field{Name: name, Width: width, Scale: scale}
}

// ScaledInt returns a signed field with the given scale factor.
func ScaledInt(name string, width int, scale float64) Field {
	return Field{Name: name, Width: width, Signed: true, Scale: scale}
}

// Bits returns the total width of the layout.
func (layout Layout) Bits() int {
	total := 0
	for _, f := range layout {
		total += f.Width
	}
	return total
}

// Pack appends the values to b in the order of the layout.
func (layout Layout) Pack(b *bitstring.Builder, values Values) error {
	for _, f := range layout {
		v, ok := values[f.Name]
		if !ok {
			return fmt.Errorf("%w %s", ErrMissingValue, f.Name)
		}
		if err := f.Pack(b, v); err != nil {
			return err
		}
	}
	return nil
}

// Unpack reads the fields of the layout from r.
func (layout Layout) Unpack(r *bitstring.Reader) (Values, error) {
	values := make(Values, len(layout))
	for _, f := range layout {
		values[f.Name] = f.Unpack(r)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// Pack appends one value to b.
func (f Field) Pack(b *bitstring.Builder, value float64) error {
	var scaled float64
	if inv, ok := f.reciprocal(); ok {
		scaled = value * inv
	} else {
		scaled = value / f.scale()
	}
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) {
		return fmt.Errorf("%s: %w: %v", f.Name, bitstring.ErrOverflow, value)
	}
	if scaled >= math.MaxInt64 || scaled < math.MinInt64 {
		return fmt.Errorf("%s: %w: %v", f.Name, bitstring.ErrOverflow, value)
	}

	raw := utils.Round(scaled)

	if f.Signed {
		b.AppendSigned(raw, f.Width)
	} else {
		if raw < 0 {
			return fmt.Errorf("%s: %w: %v is negative", f.Name, bitstring.ErrOverflow, value)
		}
		b.AppendUnsigned(uint64(raw), f.Width)
	}

	if err := b.Err(); err != nil {
		return fmt.Errorf("%s: %w", f.Name, err)
	}
	return nil
}

// Unpack reads one value from r.  After a read error it returns zero; the
// error is kept in r.
//
// When the scale factor is the reciprocal of a whole number, as 0.0001 is,
// the raw value is divided by that number rather than multiplied by the
// scale factor, so a decimal value such as 1114104.5999 comes back as the
// nearest float64 to itself.
func (f Field) Unpack(r *bitstring.Reader) float64 {
	var raw float64
	if f.Signed {
		raw = float64(r.Signed(f.Width))
	} else {
		raw = float64(r.Unsigned(f.Width))
	}
	if inv, ok := f.reciprocal(); ok {
		return raw / inv
	}
	return raw * f.scale()
}

// reciprocal returns 1/scale if that's a whole number greater than 1.
func (f Field) reciprocal() (float64, bool) {
	if f.Scale == 0 || f.Scale >= 1 {
		return 0, false
	}
	inv := 1 / f.Scale
	if inv != math.Trunc(inv) {
		return 0, false
	}
	return inv, true
}

func (f Field) scale() float64 {
	if f.Scale == 0 {
		return 1
	}
	return f.Scale
}
