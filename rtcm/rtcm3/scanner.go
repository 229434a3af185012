package rtcm3

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/goblimey/rtcm3codec/rtcm/crc"
	"github.com/goblimey/rtcm3codec/rtcm/pushback"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// errNotRTCM is returned by getMessageLength when the bytes can't be the
// start of a message frame.
var errNotRTCM = errors.New("not the start of an RTCM message frame")

// Scanner reads messages from a byte stream.
type Scanner struct {
	pb       *pushback.Reader
	logLevel slog.Level
	// readErr is a read error held back until the data read before it has
	// been returned.
	readErr error
}

// NewScanner creates a Scanner reading from r.
func NewScanner(r io.Reader, logLevel slog.Level) *Scanner {
	var byteReader io.ByteReader
	if br, ok := r.(io.ByteReader); ok {
		byteReader = br
	} else {
		byteReader = bufio.NewReader(r)
	}
	return &Scanner{pb: pushback.New(byteReader), logLevel: logLevel}
}

// Next returns the next message in the stream.  The stream should contain
// RTCM3 message frames but they may be interspersed with messages in other
// formats such as NMEA, UBX etc.  The result is either a decoded message or
// some non-RTCM data that precedes a message.  At the end of the input it
// returns io.EOF.  If reading fails, any data read before the failure is
// returned first and the error on the following call and every call after.
func (scanner *Scanner) Next() (*Message, error) {
	if scanner.readErr != nil {
		return nil, scanner.readErr
	}
	raw, isRTCM, err := FetchNextMessageFrame(scanner.pb)
	if err != nil {
		scanner.readErr = err
		if len(raw) == 0 {
			return nil, err
		}
		return NewNonRTCM(raw), nil
	}
	if !isRTCM {
		return NewNonRTCM(raw), nil
	}
	return DecodeFrame(raw, scanner.logLevel), nil
}

// FetchNextMessageFrame gets the next message frame from the reader.  It
// returns either a complete frame with a good CRC or some bytes that are not
// an RTCM message frame, and a flag saying which.  If it encounters the end
// of the input before it has read anything, it returns io.EOF.  If it has
// read something, it returns that and the next call gets io.EOF.  Any other
// read error is returned along with the bytes read before it, which are not
// an RTCM message frame.
func FetchNextMessageFrame(pb *pushback.Reader) ([]byte, bool, error) {

	// A valid RTCM3 message frame is a leader containing the start of message
	// byte 0xd3 and two bytes containing a 10-bit message length, zero padded
	// to the left, for example 0xd3, 0x00, 0x8a.  The variable-length message
	// comes next and always starts with a 12-bit message type.  The frame then
	// ends with a 3-byte Cyclic Redundancy Check value.
	//
	// Encountering a 0xd3 byte doesn't guarantee the start of an RTCM message.
	// We may just have blundered across one in some other binary data.  We
	// only know we have an RTCM message frame when we have scanned and checked
	// the CRC.

	// Phase 1: eat bytes until we see the start of message frame byte.
	frame, eatError := eatUntilStartOfFrame(pb)

	if eatError != nil {
		if len(frame) == 0 || !errors.Is(eatError, io.EOF) {
			return frame, false, eatError
		}
		// The end of the input will be picked up on the next call.
		return frame, false, nil
	}

	if len(frame) > 1 || frame[0] != utils.StartOfMessageFrame {
		// We have some non-RTCM.
		if frame[len(frame)-1] == utils.StartOfMessageFrame {
			// Push the start byte back so we see it next time.
			pb.PushBack(utils.StartOfMessageFrame)
			return frame[:len(frame)-1], false, nil
		}
		return frame, false, nil
	}

	// Phase 2: the frame buffer contains the start of message frame byte.
	// Read enough to find the length.
	const leaderAndMessageType = utils.LeaderLengthBytes + 2

	for len(frame) < leaderAndMessageType {
		b, err := pb.GetNextByte()
		if err != nil {
			return backOff(pb, frame, err)
		}
		frame = append(frame, b)
	}

	messageLength, lengthError := getMessageLength(frame)
	if lengthError != nil {
		// Some other data that just happens to contain the start of frame
		// byte.  Push back everything after it, which may hold a real frame.
		pb.PushBack(frame[1:]...)
		return frame[:1], false, nil
	}

	// Phase 3: get the rest of the message frame.
	frameLength := int(messageLength) + utils.LeaderLengthBytes + utils.CRCLengthBytes

	for len(frame) < frameLength {
		b, err := pb.GetNextByte()
		if err != nil {
			return backOff(pb, frame, err)
		}
		frame = append(frame, b)
	}

	// Phase 4: check the CRC.
	if !crc.Check(frame) {
		pb.PushBack(frame[1:]...)
		return frame[:1], false, nil
	}

	return frame, true, nil
}

// backOff handles a read error part way through a frame.  At the end of the
// input the start byte may have been a stray in some other data, with real
// frames among the bytes after it, so it returns the start byte as non-RTCM
// and pushes the rest back to be scanned again.  Any other error ends the
// data, so it returns everything read with the error.
func backOff(pb *pushback.Reader, frame []byte, err error) ([]byte, bool, error) {
	if !errors.Is(err, io.EOF) {
		return frame, false, err
	}
	if len(frame) > 1 {
		pb.PushBack(frame[1:]...)
	}
	return frame[:1], false, nil
}

// eatUntilStartOfFrame reads bytes until it encounters a byte signifying the
// start of a message frame or the input is exhausted.  It returns what it
// has eaten.  If there is an error it returns what it read so far and the
// error.
func eatUntilStartOfFrame(pb *pushback.Reader) ([]byte, error) {
	stuff := make([]byte, 0)
	for {
		b, err := pb.GetNextByte()
		if err != nil {
			return stuff, err
		}
		stuff = append(stuff, b)

		if b == utils.StartOfMessageFrame {
			return stuff, nil
		}
	}
}

// getMessageLength extracts the message length from the start of an RTCM
// message frame or returns an error, implying that this is not the start of
// a valid message.  The bit stream must be at least 5 bytes long.
func getMessageLength(bitStream []byte) (uint, error) {

	if len(bitStream) < utils.LeaderLengthBytes+2 {
		return 0, fmt.Errorf("%w: too short to hold the leader and message type", errNotRTCM)
	}

	if bitStream[0] != utils.StartOfMessageFrame {
		return 0, fmt.Errorf("%w: starts with 0x%02x", errNotRTCM, bitStream[0])
	}

	// The next six bits must be zero.
	sanityCheck := utils.GetBitsAsUint64(bitStream, 8, 6)
	if sanityCheck != 0 {
		return 0, fmt.Errorf("%w: bits 8-13 of header are %d, must be 0", errNotRTCM, sanityCheck)
	}

	length := uint(utils.GetBitsAsUint64(bitStream, 14, 10))
	if length == 0 {
		return 0, fmt.Errorf("%w: zero length message", errNotRTCM)
	}

	return length, nil
}
