// The bitstring package converts between hexadecimal text, binary-digit text
// and integer or floating point values.
//
// A binary-digit string is a string of '0' and '1' characters, most significant
// bit first.  Its length is the width of the field that it represents, so leading
// zeros matter and are never stripped.  A hex string maps to a binary-digit string
// positionally, four bits per hex digit.
//
// Malformed input (a '2' in a binary-digit string, a 'G' in a hex string) is a
// caller error.  The functions return ErrMalformed rather than a plausible but
// wrong value.
package bitstring

import (
	"errors"
	"fmt"
	"strings"
)

// MaxScaledWidth is the widest binary-digit string that BinaryToScaledDouble
// will interpret.  Anything wider gives zero.
const MaxScaledWidth = 64

// ErrMalformed is returned when the input contains characters that are not
// binary (or hex) digits.
var ErrMalformed = errors.New("malformed bit string")

// ErrOverflow is returned when a value does not fit into the requested width.
var ErrOverflow = errors.New("value does not fit in field")

const hexDigits = "0123456789ABCDEF"

// HexToBinary converts a hex string to a binary-digit string, four binary
// digits per hex digit, so "2A" gives "00101010" and "100" gives
// "000100000000".  Lower case hex digits are accepted.
func HexToBinary(hex string) (string, error) {
	var sb strings.Builder
	sb.Grow(len(hex) * 4)
	for i := 0; i < len(hex); i++ {
		v, ok := hexValue(hex[i])
		if !ok {
			return "", fmt.Errorf("%w: %q is not a hex digit in %q", ErrMalformed, hex[i], hex)
		}
		for shift := 3; shift >= 0; shift-- {
			if (v>>shift)&1 == 1 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String(), nil
}

// BinaryToHex converts a binary-digit string to an upper case hex string.
// The input is padded on the left with zeros to a multiple of four bits
// first, so "11" gives "3" and a 13-bit string gives four hex digits.
func BinaryToHex(binary string) (string, error) {
	if err := checkBinary(binary); err != nil {
		return "", err
	}

	if rem := len(binary) % 4; rem != 0 {
		binary = strings.Repeat("0", 4-rem) + binary
	}

	var sb strings.Builder
	sb.Grow(len(binary) / 4)
	for i := 0; i < len(binary); i += 4 {
		var v byte
		for j := 0; j < 4; j++ {
			v = v<<1 | (binary[i+j] - '0')
		}
		sb.WriteByte(hexDigits[v])
	}
	return sb.String(), nil
}

// HexToUnsignedInt interprets a hex string as an unsigned integer.
func HexToUnsignedInt(hex string) (uint64, error) {
	binary, err := HexToBinary(hex)
	if err != nil {
		return 0, err
	}
	return BinaryToUnsignedInt(binary)
}

// HexToSignedInt interprets a hex string as a two's complement signed integer
// over a width of four bits per hex digit, so "2A" is 42 and "D6" is -42.
func HexToSignedInt(hex string) (int64, error) {
	binary, err := HexToBinary(hex)
	if err != nil {
		return 0, err
	}
	return BinaryToSignedInt(binary)
}

// BinaryToUnsignedInt interprets a binary-digit string as an unsigned integer.
// The string may be at most 64 digits long.
func BinaryToUnsignedInt(binary string) (uint64, error) {
	if err := checkBinary(binary); err != nil {
		return 0, err
	}
	if len(binary) > 64 {
		return 0, fmt.Errorf("%w: %d bits will not fit in 64", ErrOverflow, len(binary))
	}

	var result uint64
	for i := 0; i < len(binary); i++ {
		result = result<<1 | uint64(binary[i]-'0')
	}
	return result, nil
}

// BinaryToSignedInt interprets a binary-digit string as a two's complement
// signed integer over exactly its own width: a leading '1' means the value
// is negative.  The string may be at most 64 digits long.
func BinaryToSignedInt(binary string) (int64, error) {
	u, err := BinaryToUnsignedInt(binary)
	if err != nil {
		return 0, err
	}
	return signExtend(u, len(binary)), nil
}

// BinaryToScaledDouble interprets a binary-digit string as a two's complement
// signed integer and returns it as a float64.  Strings wider than
// MaxScaledWidth give 0 and no error.  No arithmetic is attempted on them.
func BinaryToScaledDouble(binary string) (float64, error) {
	if err := checkBinary(binary); err != nil {
		return 0, err
	}
	if len(binary) > MaxScaledWidth {
		return 0, nil
	}
	v, err := BinaryToSignedInt(binary)
	if err != nil {
		return 0, err
	}
	return float64(v), nil
}

// UnsignedToBinary renders v as a binary-digit string exactly width digits long.
func UnsignedToBinary(v uint64, width int) (string, error) {
	if width < 0 || width > 64 {
		return "", fmt.Errorf("%w: width %d", ErrOverflow, width)
	}
	if width < 64 && v>>uint(width) != 0 {
		return "", fmt.Errorf("%w: %d in %d unsigned bits", ErrOverflow, v, width)
	}
	return render(v, width), nil
}

// SignedToBinary renders v as a two's complement binary-digit string exactly
// width digits long.
func SignedToBinary(v int64, width int) (string, error) {
	if width < 1 || width > 64 {
		return "", fmt.Errorf("%w: width %d", ErrOverflow, width)
	}
	if width < 64 {
		limit := int64(1) << uint(width-1)
		if v < -limit || v >= limit {
			return "", fmt.Errorf("%w: %d in %d signed bits", ErrOverflow, v, width)
		}
	}
	return render(uint64(v), width), nil
}

// render writes the bottom width bits of v, most significant first.
func render(v uint64, width int) string {
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = '0' + byte(v&1)
		v >>= 1
	}
	return string(buf)
}

// signExtend treats the bottom width bits of u as a two's complement value.
func signExtend(u uint64, width int) int64 {
	if width == 0 || width >= 64 {
		return int64(u)
	}
	if u>>(uint(width)-1)&1 == 1 {
		// unsigned value - 2^width
		return int64(u) - int64(1)<<uint(width)
	}
	return int64(u)
}

func checkBinary(binary string) error {
	for i := 0; i < len(binary); i++ {
		if binary[i] != '0' && binary[i] != '1' {
			return fmt.Errorf("%w: %q is not a binary digit", ErrMalformed, binary[i])
		}
	}
	return nil
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
