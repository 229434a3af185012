// Package rtcm3 decodes RTCM3 message frames of any of the types that the
// codec handles.  It takes the message type from the frame and dispatches
// to the right message package, and it can pick frames out of a stream of
// bytes that may also contain other data such as NMEA sentences.
package rtcm3

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goblimey/rtcm3codec/rtcm/crc"
	"github.com/goblimey/rtcm3codec/rtcm/frame"
	"github.com/goblimey/rtcm3codec/rtcm/msm"
	"github.com/goblimey/rtcm3codec/rtcm/type1001"
	"github.com/goblimey/rtcm3codec/rtcm/type1005"
	"github.com/goblimey/rtcm3codec/rtcm/type1019"
	"github.com/goblimey/rtcm3codec/rtcm/type1045"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// Message contains an RTCM3 message, possibly broken out into readable form,
// or a stream of non-RTCM data.  Message type NonRTCMMessage indicates the
// second case.
type Message struct {
	// MessageType is the type of the RTCM message (the message number).
	// RTCM messages all have a positive message number.  Type NonRTCMMessage
	// is negative and indicates a stream of bytes that doesn't contain a
	// valid RTCM message, for example an NMEA message or a corrupt RTCM.
	MessageType int

	// Valid is true if the message is valid - the CRC check passes and there
	// are no errors found while decoding the message.
	Valid bool

	// CRCValid is true if the Cyclic Redundancy Check bits are valid.
	CRCValid bool

	// ErrorMessage contains any error message encountered while decoding
	// the message.
	ErrorMessage string

	// StatusCode is 0 if the message was decoded, otherwise one of the
	// frame.Status values.
	StatusCode int

	// RawData is the message frame in its original binary form
	// including the header and the CRC.
	RawData []byte

	// Readable is a broken out version of the RTCM message, nil if the
	// message could not be decoded or the type is not handled.
	Readable fmt.Stringer

	// LogLevel controls the data produced by String.
	LogLevel slog.Level
}

// NewNonRTCM creates a Non-RTCM message.
func NewNonRTCM(bitStream []byte) *Message {
	message := Message{
		MessageType:  utils.NonRTCMMessage,
		RawData:      bitStream,
		ErrorMessage: "not an RTCM message frame",
		StatusCode:   frame.StatusFrameIntegrity,
	}
	return &message
}

// Handled returns true if the codec can decode messages of the given type.
func Handled(messageType int) bool {
	switch messageType {
	case utils.MessageType1001, utils.MessageType1002, utils.MessageType1003,
		utils.MessageType1004, utils.MessageType1005, utils.MessageType1006,
		utils.MessageType1019, utils.MessageType1045:
		return true
	}
	return utils.MSM(messageType)
}

// Decode decodes a message frame given as hex.  It never fails: any error
// is recorded in the result, which holds the broken out message if all is
// well.
func Decode(hexFrame string, logLevel slog.Level) *Message {
	raw, err := hex.DecodeString(strings.TrimSpace(hexFrame))
	if err != nil {
		message := NewNonRTCM(nil)
		message.ErrorMessage = fmt.Sprintf("%v: %v", frame.ErrFrameIntegrity, err)
		return message
	}
	return DecodeFrame(raw, logLevel)
}

// DecodeFrame decodes a message frame given in its binary form.
func DecodeFrame(raw []byte, logLevel slog.Level) *Message {

	message := Message{
		MessageType: utils.NonRTCMMessage,
		RawData:     raw,
		LogLevel:    logLevel,
		CRCValid:    crc.Check(raw),
	}

	// Show the message type even if the frame is bad, if there's enough of it.
	if len(raw) >= utils.LeaderLengthBytes+2 && raw[0] == utils.StartOfMessageFrame {
		message.MessageType = int(utils.GetBitsAsUint64(raw, utils.LeaderLengthBits, utils.MessageTypeLengthBits))
	}

	hexFrame := strings.ToUpper(hex.EncodeToString(raw))
	messageType, bits, err := frame.Unwrap(hexFrame)
	if err == nil {
		message.MessageType = messageType
		message.Readable, err = dispatch(messageType, bits, logLevel)
	}

	if err != nil {
		message.Readable = nil
		message.ErrorMessage = err.Error()
		message.StatusCode = frame.Status(err)
		slog.Debug("decode failed", "message_type", message.MessageType, "error", err)
		return &message
	}

	message.Valid = true
	return &message
}

// dispatch hands the payload to the package for the message type.  A type
// that isn't handled gives a nil result and no error.
func dispatch(messageType int, bits string, logLevel slog.Level) (fmt.Stringer, error) {
	switch {
	case type1001.Observation(messageType):
		return type1001.GetMessage(messageType, bits, logLevel)
	case messageType == utils.MessageType1005:
		return type1005.GetMessage(bits, logLevel)
	case messageType == utils.MessageType1006:
		return type1005.GetMessage1006(bits, logLevel)
	case messageType == utils.MessageType1019:
		return type1019.GetMessage(bits, logLevel)
	case messageType == utils.MessageType1045:
		return type1045.GetMessage(bits, logLevel)
	case utils.MSM(messageType):
		return msm.GetMessage(messageType, bits, logLevel)
	}
	return nil, nil
}

// Err returns the error found while decoding, as a value that can be
// tested with errors.Is against the frame errors, or nil.
func (message *Message) Err() error {
	if message.Valid {
		return nil
	}
	var sentinel error
	switch message.StatusCode {
	case frame.StatusFrameIntegrity:
		sentinel = frame.ErrFrameIntegrity
	case frame.StatusMessageType:
		sentinel = frame.ErrMessageType
	default:
		sentinel = frame.ErrPayloadTooShort
	}
	if message.ErrorMessage == "" {
		return sentinel
	}
	return fmt.Errorf("%w (%s)", sentinel, message.ErrorMessage)
}

// String takes the given Message object and returns it
// as a readable string.
func (message *Message) String() string {

	display := fmt.Sprintf("message type %d, frame length %d %s\n",
		message.MessageType, len(message.RawData), message.Status())

	if message.LogLevel == slog.LevelDebug || !message.Valid {
		display += hex.Dump(message.RawData) + "\n"
	}

	if len(message.ErrorMessage) > 0 {
		display += message.ErrorMessage + "\n"
	}

	if message.MessageType == utils.NonRTCMMessage || !message.Valid {
		return display
	}

	if message.Readable == nil {
		display += fmt.Sprintf("message type %d is not handled\n", message.MessageType)
		return display
	}

	return display + message.Readable.String()
}

// Status returns the status of the message - valid, CRC check failed and so on.
func (message *Message) Status() string {
	if message.Valid {
		return "valid"
	}
	if message.CRCValid {
		return "CRC check passed"
	}
	return "CRC check failed"
}
