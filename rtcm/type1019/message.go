// The type1019 package handles messages of type 1019, the broadcast
// ephemeris of a GPS satellite.
package type1019

import (
	"fmt"
	"log/slog"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/field"
	"github.com/goblimey/rtcm3codec/rtcm/frame"
	"github.com/goblimey/rtcm3codec/rtcm/gnss"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// layout is the message after the 12-bit message type.  Angles travel in
// semicircles, so their scale factors carry a factor of pi.
var layout = field.Layout{
	field.Uint("prn", 6),
	field.Uint("week", 10),
	field.Uint("ura", 4),
	field.Uint("codeOnL2", 2),
	field.ScaledInt("idot", 14, gnss.IDOTLSB),
	field.Uint("iode", 8),
	field.ScaledUint("toc", 16, gnss.GPSTimeLSB),
	field.ScaledInt("af2", 8, gnss.GPSAf2LSB),
	field.ScaledInt("af1", 16, gnss.GPSAf1LSB),
	field.ScaledInt("af0", 22, gnss.GPSAf0LSB),
	field.Uint("iodc", 10),
	field.ScaledInt("crs", 16, gnss.HarmonicRadiusLSB),
	field.ScaledInt("deltaN", 16, gnss.DeltaNLSB),
	field.ScaledInt("m0", 32, gnss.AngleLSB),
	field.ScaledInt("cuc", 16, gnss.HarmonicAngleLSB),
	field.ScaledUint("e", 32, gnss.EccentricityLSB),
	field.ScaledInt("cus", 16, gnss.HarmonicAngleLSB),
	field.ScaledUint("sqrtA", 32, gnss.SqrtALSB),
	field.ScaledUint("toe", 16, gnss.GPSTimeLSB),
	field.ScaledInt("cic", 16, gnss.HarmonicAngleLSB),
	field.ScaledInt("omega0", 32, gnss.AngleLSB),
	field.ScaledInt("cis", 16, gnss.HarmonicAngleLSB),
	field.ScaledInt("i0", 32, gnss.AngleLSB),
	field.ScaledInt("crc", 16, gnss.HarmonicRadiusLSB),
	field.ScaledInt("omega", 32, gnss.AngleLSB),
	field.ScaledInt("omegaDot", 24, gnss.OmegaDotLSB),
	field.ScaledInt("tgd", 8, gnss.GPSTGDLSB),
	field.Uint("health", 6),
	field.Bool("l2p"),
	field.Bool("fit"),
}

// lengthOfMessageInBits is the length of the payload before padding - 488.
var lengthOfMessageInBits = utils.MessageTypeLengthBits + layout.Bits()

// Message contains a message of type 1019.
type Message struct {
	// MessageType - uint12 - always 1019.
	MessageType uint

	Ephemeris gnss.GPSEphemeris

	logLevel slog.Level
}

// New creates a message of type 1019 from an ephemeris.
func New(ephemeris gnss.GPSEphemeris, logLevel slog.Level) *Message {
	return &Message{
		MessageType: utils.MessageType1019,
		Ephemeris:   ephemeris,
		logLevel:    logLevel,
	}
}

// Encode returns a type 1019 frame in hex carrying the ephemeris.
func Encode(ephemeris gnss.GPSEphemeris) (string, error) {
	return New(ephemeris, slog.LevelInfo).Encode()
}

// ReferenceFrame returns the type 1019 frame of an ephemeris for satellite 3
// with IODC 4, an eccentricity of twice its LSB, the fit interval flag set
// and everything else zero.
func ReferenceFrame() string {
	ephemeris := gnss.GPSEphemeris{
		PRN:          3,
		IODC:         4,
		Eccentricity: 2 * gnss.EccentricityLSB,
		FitInterval:  true,
	}
	frame, _ := Encode(ephemeris)
	return frame
}

// Encode returns the message as a hex frame.
func (message *Message) Encode() (string, error) {
	var b bitstring.Builder
	b.AppendUnsigned(utils.MessageType1019, utils.MessageTypeLengthBits)

	if err := layout.Pack(&b, toValues(&message.Ephemeris)); err != nil {
		return "", fmt.Errorf("message type 1019: %w", err)
	}

	return frame.Wrap(b.String())
}

// Decode checks a hex frame and returns the type 1019 message that it
// carries.
func Decode(hexFrame string, logLevel slog.Level) (*Message, error) {
	bits, err := frame.Expect(hexFrame, utils.MessageType1019)
	if err != nil {
		return nil, err
	}
	return GetMessage(bits, logLevel)
}

// DecodeInto decodes a hex frame into the caller's ephemeris and returns a
// status code from the frame package.  On failure the ephemeris is not
// touched.
func DecodeInto(hexFrame string, ephemeris *gnss.GPSEphemeris) int {
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
		return nil, fmt.Errorf("%w: overrun - expected %d bits in a message type 1019, got %d",
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

	display := fmt.Sprintf("GPS satellite %d, week %d, IODE %d, IODC %d, toc %.0f, toe %.0f, health %d\n",
		e.PRN, e.Week, e.IODE, e.IODC, e.Toc, e.Toe, e.Health)

	if message.logLevel != slog.LevelDebug {
		return display
	}

	display += fmt.Sprintf("URA %d, code on L2 %d, L2P data flag %v, fit interval %v\n",
		e.URA, e.CodeOnL2, e.L2PDataFlag, e.FitInterval)
	display += fmt.Sprintf("clock af0 %g, af1 %g, af2 %g, TGD %g\n",
		e.Af0, e.Af1, e.Af2, e.TGD)
	display += fmt.Sprintf("sqrtA %g, e %g, i0 %g, OMEGA0 %g, omega %g, M0 %g\n",
		e.SqrtA, e.Eccentricity, e.I0, e.Omega0, e.Omega, e.M0)
	display += fmt.Sprintf("delta n %g, IDOT %g, OMEGADOT %g\n",
		e.DeltaN, e.IDOT, e.OmegaDot)
	display += fmt.Sprintf("Crs %g, Crc %g, Cuc %g, Cus %g, Cic %g, Cis %g\n",
		e.Crs, e.Crc, e.Cuc, e.Cus, e.Cic, e.Cis)

	return display
}

func toValues(e *gnss.GPSEphemeris) field.Values {
	return field.Values{
		"prn":      float64(e.PRN),
		"week":     float64(e.Week),
		"ura":      float64(e.URA),
		"codeOnL2": float64(e.CodeOnL2),
		"idot":     e.IDOT,
		"iode":     float64(e.IODE),
		"toc":      e.Toc,
		"af2":      e.Af2,
		"af1":      e.Af1,
		"af0":      e.Af0,
		"iodc":     float64(e.IODC),
		"crs":      e.Crs,
		"deltaN":   e.DeltaN,
		"m0":       e.M0,
		"cuc":      e.Cuc,
		"e":        e.Eccentricity,
		"cus":      e.Cus,
		"sqrtA":    e.SqrtA,
		"toe":      e.Toe,
		"cic":      e.Cic,
		"omega0":   e.Omega0,
		"cis":      e.Cis,
		"i0":       e.I0,
		"crc":      e.Crc,
		"omega":    e.Omega,
		"omegaDot": e.OmegaDot,
		"tgd":      e.TGD,
		"health":   float64(e.Health),
		"l2p":      flag(e.L2PDataFlag),
		"fit":      flag(e.FitInterval),
	}
}

func fromValues(v field.Values) gnss.GPSEphemeris {
	return gnss.GPSEphemeris{
		PRN:          uint(v["prn"]),
		Week:         uint(v["week"]),
		URA:          uint(v["ura"]),
		CodeOnL2:     uint(v["codeOnL2"]),
		IDOT:         v["idot"],
		IODE:         uint(v["iode"]),
		Toc:          v["toc"],
		Af2:          v["af2"],
		Af1:          v["af1"],
		Af0:          v["af0"],
		IODC:         uint(v["iodc"]),
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
		TGD:          v["tgd"],
		Health:       uint(v["health"]),
		L2PDataFlag:  v["l2p"] == 1,
		FitInterval:  v["fit"] == 1,
	}
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
