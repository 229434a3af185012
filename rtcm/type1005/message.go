// The type1005 package handles messages of type 1005, the position of a
// stationary reference station, and type 1006, which adds the height of the
// antenna above the marker.
package type1005

import (
	"fmt"
	"log/slog"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/field"
	"github.com/goblimey/rtcm3codec/rtcm/frame"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// The antenna reference point coordinates are in units of 1/10,000 of a metre.
const coordinateScale = 0.0001

// layout is the message after the 12-bit message type.
var layout = field.Layout{
	field.Uint("stationID", 12),
	field.Uint("itrfYear", 6),
	field.Bool("gps"),
	field.Bool("glonass"),
	field.Bool("galileo"),
	field.Bool("referenceStation"),
	field.ScaledInt("x", 38, coordinateScale),
	field.Bool("oscillator"),
	field.Uint("reserved", 1),
	field.ScaledInt("y", 38, coordinateScale),
	field.Uint("quarterCycle", 2),
	field.ScaledInt("z", 38, coordinateScale),
}

// layout1006 adds the 16-bit antenna height to the 1005 layout.
var layout1006 = append(append(field.Layout{}, layout...),
	field.ScaledUint("height", 16, coordinateScale))

// Message contains a message of type 1005 - antenna position - or 1006 -
// antenna position and height.
type Message struct {
	// MessageType - uint12 - 1005 or 1006.
	MessageType uint `json:"message_type,omitempty"`

	// StationID - uint12.
	StationID uint `json:"station_id,omitempty"`

	// Reserved for ITRF Realisaton Year - uint6.
	ITRFRealisationYear uint `json:"itrf_realisation_year,omitempty"`

	// The constellations that the station serves.
	GPS     bool `json:"gps,omitempty"`
	Glonass bool `json:"glonass,omitempty"`
	Galileo bool `json:"galileo,omitempty"`

	// ReferenceStation is the reference station indicator, true for a
	// non-physical (virtual) station.
	ReferenceStation bool `json:"reference_station,omitempty"`

	// AntennaRefX is the antenna Reference Point coordinate X in ECEF
	// in metres.  It travels as an int38 in 0.0001 m units.
	AntennaRefX float64 `json:"antenna_ref_x,omitempty"`

	// SingleReceiverOscillator is true if all of the raw data comes from
	// one receiver oscillator.
	SingleReceiverOscillator bool `json:"single_receiver_oscillator,omitempty"`

	// AntennaRefY is the antenna Reference Point coordinate Y in ECEF.
	AntennaRefY float64 `json:"antenna_ref_y,omitempty"`

	// QuarterCycleIndicator - uint2.
	QuarterCycleIndicator uint `json:"quarter_cycle_indicator,omitempty"`

	// AntennaRefZ is the antenna Reference Point coordinate Z in ECEF.
	AntennaRefZ float64 `json:"antenna_ref_z,omitempty"`

	// AntennaHeight is the height of the antenna reference point above the
	// marker in metres, type 1006 only - uint16 in 0.0001 m units.
	AntennaHeight float64 `json:"antenna_height,omitempty"`

	// logLevel is s slog-style logging level.
	logLevel slog.Level
}

// New creates a new type 1005 message.  The fields not given here are zero.
func New(stationID uint, x, y, z float64, gps, glonass, galileo bool, logLevel slog.Level) *Message {

	message := Message{
		MessageType: utils.MessageType1005,
		StationID:   stationID,
		GPS:         gps,
		Glonass:     glonass,
		Galileo:     galileo,
		AntennaRefX: x,
		AntennaRefY: y,
		AntennaRefZ: z,
		logLevel:    logLevel,
	}

	return &message
}

// Encode returns a type 1005 frame in hex for the given station.
func Encode(stationID uint, x, y, z float64, gps, glonass, galileo bool) (string, error) {
	return New(stationID, x, y, z, gps, glonass, galileo, slog.LevelInfo).Encode()
}

// New1006 creates a type 1006 message, a type 1005 with the antenna height.
func New1006(stationID uint, x, y, z, height float64, gps, glonass, galileo bool, logLevel slog.Level) *Message {
	message := New(stationID, x, y, z, gps, glonass, galileo, logLevel)
	message.MessageType = utils.MessageType1006
	message.AntennaHeight = height
	return message
}

// ReferenceFrame returns the type 1005 frame for station 2003 at ECEF
// (1114104.5999, -4850729.7108, 3975521.4643) serving GPS only, which is
// D300133ED7D30202980EDEEF34B4BD62AC0941986F33360B98.
func ReferenceFrame() string {
	frame, _ := Encode(2003, 1114104.5999, -4850729.7108, 3975521.4643, true, false, false)
	return frame
}

// Encode returns the message as a hex frame.
func (message *Message) Encode() (string, error) {
	var b bitstring.Builder
	b.AppendUnsigned(uint64(message.MessageType), utils.MessageTypeLengthBits)

	values := field.Values{
		"stationID":        float64(message.StationID),
		"itrfYear":         float64(message.ITRFRealisationYear),
		"gps":              flag(message.GPS),
		"glonass":          flag(message.Glonass),
		"galileo":          flag(message.Galileo),
		"referenceStation": flag(message.ReferenceStation),
		"x":                message.AntennaRefX,
		"oscillator":       flag(message.SingleReceiverOscillator),
		"reserved":         0,
		"y":                message.AntennaRefY,
		"quarterCycle":     float64(message.QuarterCycleIndicator),
		"z":                message.AntennaRefZ,
	}

	l := layout
	switch message.MessageType {
	case utils.MessageType1005:
	case utils.MessageType1006:
		l = layout1006
		values["height"] = message.AntennaHeight
	default:
		return "", fmt.Errorf("%w: message type %d is not a station position",
			frame.ErrMessageType, message.MessageType)
	}

	if err := l.Pack(&b, values); err != nil {
		return "", fmt.Errorf("message type %d: %w", message.MessageType, err)
	}

	return frame.Wrap(b.String())
}

// String returns a text version of a message type 1005 or 1006.
func (message *Message) String() string {

	display := fmt.Sprintf("stationID %d, ITRF realisation year %d,",
		message.StationID, message.ITRFRealisationYear)

	if message.logLevel == slog.LevelDebug {
		display += fmt.Sprintf(" GPS %v, GLONASS %v, Galileo %v, reference station %v,\n",
			message.GPS, message.Glonass, message.Galileo, message.ReferenceStation)
		display += fmt.Sprintf("single receiver oscillator %v, quarter cycle indicator %d,\n",
			message.SingleReceiverOscillator, message.QuarterCycleIndicator)
	} else {
		display += "\n"
	}

	display += fmt.Sprintf("ECEF coords in metres (%.4f, %.4f, %.4f)\n",
		message.AntennaRefX, message.AntennaRefY, message.AntennaRefZ)

	if message.MessageType == utils.MessageType1006 {
		display += fmt.Sprintf("antenna height %.4f\n", message.AntennaHeight)
	}

	if message.logLevel != slog.LevelDebug {
		display += "\n"
	}
	return display
}

// Decode checks a hex frame and returns the type 1005 message that it
// carries.
func Decode(hexFrame string, logLevel slog.Level) (*Message, error) {
	bits, err := frame.Expect(hexFrame, utils.MessageType1005)
	if err != nil {
		return nil, err
	}
	return GetMessage(bits, logLevel)
}

// Decode1006 checks a hex frame and returns the type 1006 message that it
// carries.
func Decode1006(hexFrame string, logLevel slog.Level) (*Message, error) {
	bits, err := frame.Expect(hexFrame, utils.MessageType1006)
	if err != nil {
		return nil, err
	}
	return GetMessage1006(bits, logLevel)
}

// GetMessage returns the message given the payload bits that follow the
// message type.
func GetMessage(bits string, logLevel slog.Level) (*Message, error) {
	return getMessage(utils.MessageType1005, layout, bits, logLevel)
}

// GetMessage1006 returns the type 1006 message given the payload bits that
// follow the message type.
func GetMessage1006(bits string, logLevel slog.Level) (*Message, error) {
	return getMessage(utils.MessageType1006, layout1006, bits, logLevel)
}

func getMessage(messageType int, l field.Layout, bits string, logLevel slog.Level) (*Message, error) {

	// Check that the payload is long enough.
	want := utils.MessageTypeLengthBits + l.Bits()
	if len(bits)+utils.MessageTypeLengthBits < want {
		return nil, fmt.Errorf("%w: overrun - expected %d bits in a message type %d, got %d",
			frame.ErrPayloadTooShort, want, messageType, len(bits)+utils.MessageTypeLengthBits)
	}

	v, err := l.Unpack(bitstring.NewReader(bits))
	if err != nil {
		return nil, err
	}

	message := Message{
		MessageType:              uint(messageType),
		StationID:                uint(v["stationID"]),
		ITRFRealisationYear:      uint(v["itrfYear"]),
		GPS:                      v["gps"] == 1,
		Glonass:                  v["glonass"] == 1,
		Galileo:                  v["galileo"] == 1,
		ReferenceStation:         v["referenceStation"] == 1,
		AntennaRefX:              v["x"],
		SingleReceiverOscillator: v["oscillator"] == 1,
		AntennaRefY:              v["y"],
		QuarterCycleIndicator:    uint(v["quarterCycle"]),
		AntennaRefZ:              v["z"],
		AntennaHeight:            v["height"],
		logLevel:                 logLevel,
	}

	return &message, nil
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
