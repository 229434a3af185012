// The frame package assembles and takes apart the RTCM3 message frame.
//
// A frame is a three-byte leader, a payload and a three-byte CRC.  The leader
// is the start of message byte 0xd3 followed by 6 reserved bits (always zero)
// and a 10-bit payload length in bytes.  The payload starts with a 12-bit
// message type and is padded with zero bits to a byte boundary.  The CRC-24Q
// covers the leader and the payload.
//
//	+----------+--------+-----------+--------------------+----------+
//	| preamble | fill   | length    | payload            | CRC      |
//	| 8 bits   | 6 bits | 10 bits   | length * 8 bits    | 24 bits  |
//	+----------+--------+-----------+--------------------+----------+
//
// At the codec boundary a frame is carried as upper case hex text.  The
// WrapBytes and UnwrapBytes functions work on the equivalent binary form.
package frame

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/crc"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// Status codes returned by the status-code form of the decoders.
const (
	StatusOK             = 0
	StatusFrameIntegrity = 1
	StatusMessageType    = 2
	StatusMalformed      = 3
)

// ErrFrameIntegrity means that the text is not a good frame: bad hex, bad
// preamble, wrong length or CRC mismatch.
var ErrFrameIntegrity = errors.New("frame integrity failure")

// ErrMessageType means that the frame is good but carries the wrong message.
var ErrMessageType = errors.New("message type mismatch")

// ErrPayloadTooLong means that the payload won't fit in 1023 bytes.
var ErrPayloadTooLong = errors.New("payload too long")

// ErrPayloadTooShort means that the payload is too short for its contents.
var ErrPayloadTooShort = errors.New("payload too short")

// Wrap pads the payload bits to a byte boundary, adds the leader and the CRC
// and returns the frame as upper case hex.  The payload must start with the
// 12-bit message type.
func Wrap(payloadBits string) (string, error) {
	if len(payloadBits) < utils.MessageTypeLengthBits {
		return "", fmt.Errorf("%w: %d bits, expected at least %d",
			ErrPayloadTooShort, len(payloadBits), utils.MessageTypeLengthBits)
	}

	if rem := len(payloadBits) % 8; rem != 0 {
		payloadBits += strings.Repeat("0", 8-rem)
	}

	payloadHex, err := bitstring.BinaryToHex(payloadBits)
	if err != nil {
		return "", err
	}

	payload, err := hex.DecodeString(payloadHex)
	if err != nil {
		return "", fmt.Errorf("%w: %v", bitstring.ErrMalformed, err)
	}

	frame, err := WrapBytes(payload)
	if err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(frame)), nil
}

// WrapBytes adds the leader and the CRC to a payload.
func WrapBytes(payload []byte) ([]byte, error) {
	if len(payload) > utils.MaxPayloadLengthBytes {
		return nil, fmt.Errorf("%w: %d bytes, maximum %d",
			ErrPayloadTooLong, len(payload), utils.MaxPayloadLengthBytes)
	}

	frame := make([]byte, 0, utils.LeaderLengthBytes+len(payload)+utils.CRCLengthBytes)
	frame = append(frame,
		utils.StartOfMessageFrame,
		byte(len(payload)>>8)&0x03,
		byte(len(payload)&0xff))
	frame = append(frame, payload...)

	return crc.Append(frame), nil
}

// UnwrapBytes checks the leader, the declared length and the CRC of a frame
// and returns the payload.
func UnwrapBytes(frame []byte) ([]byte, error) {
	if len(frame) < utils.LeaderLengthBytes+utils.CRCLengthBytes {
		return nil, fmt.Errorf("%w: %d bytes is too short for a frame",
			ErrFrameIntegrity, len(frame))
	}

	if frame[0] != utils.StartOfMessageFrame {
		return nil, fmt.Errorf("%w: preamble is 0x%02x, expected 0x%02x",
			ErrFrameIntegrity, frame[0], utils.StartOfMessageFrame)
	}

	// The bottom two bits of byte 1 and all of byte 2 hold the length.
	declared := int(frame[1]&0x03)<<8 | int(frame[2])
	actual := len(frame) - utils.LeaderLengthBytes - utils.CRCLengthBytes
	if declared != actual {
		return nil, fmt.Errorf("%w: declared payload length %d, actual %d",
			ErrFrameIntegrity, declared, actual)
	}

	if !crc.Check(frame) {
		return nil, fmt.Errorf("%w: CRC check failed", ErrFrameIntegrity)
	}

	payload := frame[utils.LeaderLengthBytes : utils.LeaderLengthBytes+declared]

	if len(payload)*8 < utils.MessageTypeLengthBits {
		return nil, fmt.Errorf("%w: %d bytes will not hold a message type",
			ErrPayloadTooShort, len(payload))
	}

	return payload, nil
}

// Unwrap checks a hex frame and returns the message type and the rest of
// the payload as binary digits, starting just after the message type.  The
// payload bits include any padding.
func Unwrap(hexFrame string) (int, string, error) {
	if len(hexFrame)%2 != 0 {
		return utils.NonRTCMMessage, "", fmt.Errorf("%w: odd number of hex digits (%d)",
			ErrFrameIntegrity, len(hexFrame))
	}

	frame, err := hex.DecodeString(hexFrame)
	if err != nil {
		return utils.NonRTCMMessage, "", fmt.Errorf("%w: %v", ErrFrameIntegrity, err)
	}

	payload, err := UnwrapBytes(frame)
	if err != nil {
		return utils.NonRTCMMessage, "", err
	}

	messageType := int(utils.GetBitsAsUint64(payload, 0, utils.MessageTypeLengthBits))

	bits, err := bitstring.HexToBinary(hex.EncodeToString(payload))
	if err != nil {
		return utils.NonRTCMMessage, "", err
	}

	return messageType, bits[utils.MessageTypeLengthBits:], nil
}

// Expect is Unwrap followed by a check that the message type is the one
// wanted.
func Expect(hexFrame string, wantType int) (string, error) {
	messageType, bits, err := Unwrap(hexFrame)
	if err != nil {
		return "", err
	}

	if messageType != wantType {
		return "", fmt.Errorf("%w: expected message type %d got %d",
			ErrMessageType, wantType, messageType)
	}

	return bits, nil
}

// Status maps an error from a decoder onto a status code.
func Status(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrFrameIntegrity):
		return StatusFrameIntegrity
	case errors.Is(err, ErrMessageType):
		return StatusMessageType
	default:
		return StatusMalformed
	}
}
