// The type1045 package handles messages of type 1045, the F/NAV broadcast
// ephemeris of a Galileo satellite.
package type1045

import (
	"fmt"
	"log/slog"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/field"
	"github.com/goblimey/rtcm3codec/rtcm/frame"
	"github.com/goblimey/rtcm3codec/rtcm/gnss"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// layout is the message after the 12-bit message type.
var layout = field.Layout{
	field.Uint("prn", 6),
	field.Uint("week", 12),
	field.Uint("iodnav", 10),
	field.Uint("sisa", 8),
	field.ScaledInt("idot", 14, gnss.IDOTLSB),
	field.ScaledUint("toc", 14, gnss.GalileoTimeLSB),
	field.ScaledInt("af2", 6, gnss.GalileoAf2LSB),
	field.ScaledInt("af1", 21, gnss.GalileoAf1LSB),
	field.ScaledInt("af0", 31, gnss.GalileoAf0LSB),
	field.ScaledInt("crs", 16, gnss.HarmonicRadiusLSB),
	field.ScaledInt("deltaN", 16, gnss.DeltaNLSB),
	field.ScaledInt("m0", 32, gnss.AngleLSB),
	field.ScaledInt("cuc", 16, gnss.HarmonicAngleLSB),
	field.ScaledUint("e", 32, gnss.EccentricityLSB),
	field.ScaledInt("cus", 16, gnss.HarmonicAngleLSB),
	field.ScaledUint("sqrtA", 32, gnss.SqrtALSB),
	field.ScaledUint("toe", 14, gnss.GalileoTimeLSB),
	field.ScaledInt("cic", 16, gnss.HarmonicAngleLSB),
	field.ScaledInt("omega0", 32, gnss.AngleLSB),
	field.ScaledInt("cis", 16, gnss.HarmonicAngleLSB),
	field.ScaledInt("i0", 32, gnss.AngleLSB),
	field.ScaledInt("crc", 16, gnss.HarmonicRadiusLSB),
	field.ScaledInt("omega", 32, gnss.AngleLSB),
	field.ScaledInt("omegaDot", 24, gnss.OmegaDotLSB),
	field.ScaledInt("bgd", 10, gnss.GalileoBGDLSB),
	field.Uint("e5aHealth", 2),
	field.Bool("e5aDataValid"),
	field.Uint("reserved", 7),
}

// lengthOfMessageInBits is the length of the payload before padding - 496.
var lengthOfMessageInBits = utils.MessageTypeLengthBits + layout.Bits()

// Message contains a message of type 1045.
type Message struct {
	// MessageType - uint12 - always 1045.
	MessageType uint

	Ephemeris gnss.GalileoEphemeris

	logLevel slog.Level
}

// New creates a message of type 1045 from an ephemeris.
func New(ephemeris gnss.GalileoEphemeris, logLevel slog.Level) *Message {
	return &Message{
		MessageType: utils.MessageType1045,
		Ephemeris:   ephemeris,
		logLevel:    logLevel,
	}
}

// Encode returns a type 1045 frame in hex carrying the ephemeris.
func Encode(ephemeris gnss.GalileoEphemeris) (string, error) {
	return New(ephemeris, slog.LevelInfo).Encode()
}

// ReferenceFrame returns the type 1045 frame of an ephemeris for satellite 5
// with OMEGADOT of 53 LSBs, the E5a data validity bit set and everything
// else zero.
func ReferenceFrame() string {
	ephemeris := gnss.GalileoEphemeris{
		PRN:          5,
		OmegaDot:     53 * gnss.OmegaDotLSB,
		E5aDataValid: true,
	}
	frame, _ := Encode(ephemeris)
	return frame
}

// Encode returns the message as a hex frame.
func (message *Message) Encode() (string, error) {
	var b bitstring.Builder
	b.AppendUnsigned(utils.MessageType1045, utils.MessageTypeLengthBits)

	if err := layout.Pack(&b, toValues(&message.Ephemeris)); err != nil {
		return "", fmt.Errorf("message type 1045: %w", err)
	}

	return frame.Wrap(b.String())
}

// Decode checks a hex frame and returns the type 1045 message that it
// carries.
func Decode(hexFrame string, logLevel slog.Level) (*Message, error) {
	bits, err := frame.Expect(hexFrame, utils.MessageType1045)
	if err != nil {
		return nil, err
	}
	return GetMessage(bits, logLevel)
}

// DecodeInto decodes a hex frame into the caller's ephemeris and returns a
// status code from the frame package.  On failure the ephemeris is not
// touched.
func DecodeInto(hexFrame string, ephemeris *gnss.GalileoEphemeris) int {
	message, err := Decode(hexFrame, slog.LevelInfo)
	if err != nil {
		return frame.Status(err)
	}
	*ephemeris = message.Ephemeris
	return frame.StatusOK
}

// GetMessage returns the message given the payload bits that follow the
// message type.
func GetMessage(bits string, logLevel slog.Level) (*Message, error) {

	if len(bits)+utils.MessageTypeLengthBits < lengthOfMessageInBits {
		return nil, fmt.Errorf("%w: overrun - expected %d bits in a message type 1045, got %d",
			frame.ErrPayloadTooShort, lengthOfMessageInBits, len(bits)+utils.MessageTypeLengthBits)
	}

	v, err := layout.Unpack(bitstring.NewReader(bits))
	if err != nil {
		return nil, err
	}

	return New(fromValues(v), logLevel), nil
}

// String returns a text version of the message.
func (message *Message) String() string {
	e := &message.Ephemeris

	display := fmt.Sprintf("Galileo satellite %d, week %d, IODnav %d, toc %.0f, toe %.0f, E5a health %d, E5a data valid %v\n",
		e.PRN, e.Week, e.IODnav, e.Toc, e.Toe, e.E5aHealth, e.E5aDataValid)

	if message.logLevel == slog.LevelDebug {
		display += fmt.Sprintf("SISA %d, clock af0 %g, af1 %g, af2 %g, BGD E5a/E1 %g\n",
			e.SISA, e.Af0, e.Af1, e.Af2, e.BGDE5aE1)
		display += fmt.Sprintf("sqrtA %g, e %g, i0 %g, OMEGA0 %g, omega %g, M0 %g\n",
			e.SqrtA, e.Eccentricity, e.I0, e.Omega0, e.Omega, e.M0)
		display += fmt.Sprintf("delta n %g, IDOT %g, OMEGADOT %g\n",
			e.DeltaN, e.IDOT, e.OmegaDot)
		display += fmt.Sprintf("Crs %g, Crc %g, Cuc %g, Cus %g, Cic %g, Cis %g\n",
			e.Crs, e.Crc, e.Cuc, e.Cus, e.Cic, e.Cis)
	}

	return display
}

func toValues(e *gnss.GalileoEphemeris) field.Values {
	v := field.Values{
		"prn":       float64(e.PRN),
		"week":      float64(e.Week),
		"iodnav":    float64(e.IODnav),
		"sisa":      float64(e.SISA),
		"idot":      e.IDOT,
		"toc":       e.Toc,
		"af2":       e.Af2,
		"af1":       e.Af1,
		"af0":       e.Af0,
		"crs":       e.Crs,
		"deltaN":    e.DeltaN,
		"m0":        e.M0,
		"cuc":       e.Cuc,
		"e":         e.Eccentricity,
		"cus":       e.Cus,
		"sqrtA":     e.SqrtA,
		"toe":       e.Toe,
		"cic":       e.Cic,
		"omega0":    e.Omega0,
		"cis":       e.Cis,
		"i0":        e.I0,
		"crc":       e.Crc,
		"omega":     e.Omega,
		"omegaDot":  e.OmegaDot,
		"bgd":       e.BGDE5aE1,
		"e5aHealth": float64(e.E5aHealth),
		"reserved":  0,
	}
	if e.E5aDataValid {
		v["e5aDataValid"] = 1
	} else {
		v["e5aDataValid"] = 0
	}
	return v
}

func fromValues(v field.Values) gnss.GalileoEphemeris {
	return gnss.GalileoEphemeris{
		PRN:          uint(v["prn"]),
		Week:         uint(v["week"]),
		IODnav:       uint(v["iodnav"]),
		SISA:         uint(v["sisa"]),
		IDOT:         v["idot"],
		Toc:          v["toc"],
		Af2:          v["af2"],
		Af1:          v["af1"],
		Af0:          v["af0"],
		Crs:          v["crs"],
		DeltaN:       v["deltaN"],
		M0:           v["m0"],
		Cuc:          v["cuc"],
		Eccentricity: v["e"],
		Cus:          v["cus"],
		SqrtA:        v["sqrtA"],
		Toe:          v["toe"],
		Cic:          v["cic"],
		Omega0:       v["omega0"],
		Cis:          v["cis"],
		I0:           v["i0"],
		Crc:          v["crc"],
		Omega:        v["omega"],
		OmegaDot:     v["omegaDot"],
		BGDE5aE1:     v["bgd"],
		E5aHealth:    uint(v["e5aHealth"]),
		E5aDataValid: v["e5aDataValid"] == 1,
	}
}
