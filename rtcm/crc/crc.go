// The crc package computes and checks the CRC-24Q that ends every RTCM3
// message frame.  The check covers the frame leader and the payload, never
// the check bytes themselves.
package crc

import (
	"encoding/hex"
	"fmt"

	"github.com/goblimey/go-crc24q/crc24q"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// Compute returns the CRC-24Q of the given bytes.
func Compute(data []byte) uint32 {
	return crc24q.Hash(data)
}

// ComputeHex returns the CRC-24Q of the bytes represented by a hex string.
func ComputeHex(hexData string) (uint32, error) {
	data, err := decodeHex(hexData)
	if err != nil {
		return 0, err
	}
	return Compute(data), nil
}

// Append returns data with the three CRC bytes added.
func Append(data []byte) []byte {
	crc := Compute(data)
	return append(data, crc24q.HiByte(crc), crc24q.MiByte(crc), crc24q.LoByte(crc))
}

// Check returns true if the last three bytes of frame are the CRC-24Q of
// the bytes before them.
func Check(frame []byte) bool {
	if len(frame) <= utils.CRCLengthBytes {
		return false
	}

	end := len(frame) - utils.CRCLengthBytes
	crc := Compute(frame[:end])

	return frame[end] == crc24q.HiByte(crc) &&
		frame[end+1] == crc24q.MiByte(crc) &&
		frame[end+2] == crc24q.LoByte(crc)
}

// Verify recomputes the CRC of a whole message given as hex and compares it
// with the trailing 24 bits.  Malformed hex, an odd number of digits or a
// message with nothing but a CRC gives false.
func Verify(hexMessage string) bool {
	data, err := decodeHex(hexMessage)
	if err != nil {
		return false
	}
	return Check(data)
}

func decodeHex(hexData string) ([]byte, error) {
	if len(hexData)%2 != 0 {
		return nil, fmt.Errorf("%w: odd number of hex digits (%d)",
			bitstring.ErrMalformed, len(hexData))
	}
	data, err := hex.DecodeString(hexData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bitstring.ErrMalformed, err)
	}
	return data, nil
}
