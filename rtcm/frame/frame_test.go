package frame

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// A type 1005 message, station 2003, GPS only.
const message1005 = "D300133ED7D30202980EDEEF34B4BD62AC0941986F33360B98"

func TestUnwrapAndWrap(t *testing.T) {
	messageType, bits, err := Unwrap(message1005)
	require.NoError(t, err)
	assert.Equal(t, utils.MessageType1005, messageType)
	// 19 bytes of payload less the message type.
	assert.Equal(t, 19*8-12, len(bits))

	typeBits, err := bitstring.UnsignedToBinary(uint64(messageType), 12)
	require.NoError(t, err)

	got, err := Wrap(typeBits + bits)
	require.NoError(t, err)
	assert.Equal(t, message1005, got)

	// Lower case input is accepted.
	lowerType, _, err := Unwrap(strings.ToLower(message1005))
	require.NoError(t, err)
	assert.Equal(t, utils.MessageType1005, lowerType)
}

func TestWrapPadsToByteBoundary(t *testing.T) {
	// A 12-bit message type 4095 and 1 bit of data, padded to 2 bytes.
	got, err := Wrap("1111111111111")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "D30002FFF8"), got)
	assert.Equal(t, (3+2+3)*2, len(got))

	messageType, bits, err := Unwrap(got)
	require.NoError(t, err)
	assert.Equal(t, 4095, messageType)
	assert.Equal(t, "1000", bits)
}

func TestWrapLimits(t *testing.T) {
	_, err := Wrap("101")
	assert.ErrorIs(t, err, ErrPayloadTooShort)

	longest := strings.Repeat("0", utils.MaxPayloadLengthBytes*8)
	got, err := Wrap(longest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "D303FF"), got[:6])

	_, err = Wrap(longest + "1")
	assert.ErrorIs(t, err, ErrPayloadTooLong)

	_, err = Wrap("0000000000002")
	assert.ErrorIs(t, err, bitstring.ErrMalformed)
}

func TestUnwrapFailures(t *testing.T) {
	var testData = []struct {
		Description string
		Frame       string
	}{
		{"odd length", "FFFFFFFFFFF"},
		{"not hex", "D3000ZFFF800"},
		{"bad preamble", "D200133ED7D30202980EDEEF34B4BD62AC0941986F33360B98"},
		{"bad CRC", "D300133ED7D30202980EDEEF34B4BD62AC0941986F33360B99"},
		{"declared length too long", "D300143ED7D30202980EDEEF34B4BD62AC0941986F33360B98"},
		{"truncated", message1005[:len(message1005)-2]},
		{"too short", "D30000"},
	}

	for _, td := range testData {
		messageType, bits, err := Unwrap(td.Frame)
		assert.ErrorIs(t, err, ErrFrameIntegrity, td.Description)
		assert.Equal(t, utils.NonRTCMMessage, messageType, td.Description)
		assert.Empty(t, bits, td.Description)
		assert.Equal(t, StatusFrameIntegrity, Status(err), td.Description)
	}
}

func TestUnwrapEmptyPayload(t *testing.T) {
	// A good frame with one byte of payload can't hold a message type.
	frame, err := WrapBytes([]byte{0x3e})
	require.NoError(t, err)

	_, err = UnwrapBytes(frame)
	assert.ErrorIs(t, err, ErrPayloadTooShort)
	assert.Equal(t, StatusMalformed, Status(err))
}

func TestExpect(t *testing.T) {
	bits, err := Expect(message1005, utils.MessageType1005)
	require.NoError(t, err)
	assert.Len(t, bits, 19*8-12)

	_, err = Expect(message1005, utils.MessageType1019)
	assert.ErrorIs(t, err, ErrMessageType)
	assert.Equal(t, StatusMessageType, Status(err))
	assert.Contains(t, err.Error(), "expected message type 1019 got 1005")
}

func TestStatus(t *testing.T) {
	assert.Equal(t, StatusOK, Status(nil))
	assert.Equal(t, StatusMalformed, Status(bitstring.ErrShort))
	assert.Equal(t, StatusMalformed, Status(ErrPayloadTooShort))
}

func TestWrapBytesRoundTrip(t *testing.T) {
	payload := []byte{0x3e, 0xd0, 0x01, 0x02, 0x03}
	frame, err := WrapBytes(payload)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xd3, 0x00, 0x05}, frame[:3])

	got, err := UnwrapBytes(frame)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
