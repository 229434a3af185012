// The gnss package holds the records that the message codecs read when
// encoding and fill when decoding: broadcast ephemerides and observations.
// The receiver that produces them owns them.  The codecs only copy values
// in and out.
package gnss

import "github.com/goblimey/rtcm3codec/rtcm/utils"

// Scale factors (least significant bit values) of the broadcast ephemeris
// fields, in the units of the record fields.  Angles are carried in
// semicircles on the wire and held in radians, so the angular LSBs include
// a factor of pi.
const (
	// IDOTLSB is the LSB of the rate of inclination angle (rad/s).
	IDOTLSB = 0x1p-43 * utils.SemiCircle
	// DeltaNLSB is the LSB of the mean motion difference (rad/s).
	DeltaNLSB = 0x1p-43 * utils.SemiCircle
	// AngleLSB is the LSB of M0, OMEGA0, i0 and omega (rad).
	AngleLSB = 0x1p-31 * utils.SemiCircle
	// OmegaDotLSB is the LSB of the rate of right ascension (rad/s).
	OmegaDotLSB = 0x1p-43 * utils.SemiCircle
	// HarmonicAngleLSB is the LSB of Cuc, Cus, Cic and Cis (rad).
	HarmonicAngleLSB = 0x1p-29
	// HarmonicRadiusLSB is the LSB of Crs and Crc (m).
	HarmonicRadiusLSB = 0x1p-5
	// EccentricityLSB is the LSB of the eccentricity (dimensionless).
	EccentricityLSB = 0x1p-33
	// SqrtALSB is the LSB of the square root of the semi-major axis (m^0.5).
	SqrtALSB = 0x1p-19

	// GPSTimeLSB is the LSB of the GPS toc and toe (s).
	GPSTimeLSB = 16
	// GPSAf2LSB is the LSB of the GPS clock drift rate (s/s^2).
	GPSAf2LSB = 0x1p-55
	// GPSAf1LSB is the LSB of the GPS clock drift (s/s).
	GPSAf1LSB = 0x1p-43
	// GPSAf0LSB is the LSB of the GPS clock bias (s).
	GPSAf0LSB = 0x1p-31
	// GPSTGDLSB is the LSB of the GPS group delay (s).
	GPSTGDLSB = 0x1p-31

	// GalileoTimeLSB is the LSB of the Galileo toc and toe (s).
	GalileoTimeLSB = 60
	// GalileoAf2LSB is the LSB of the Galileo clock drift rate (s/s^2).
	GalileoAf2LSB = 0x1p-59
	// GalileoAf1LSB is the LSB of the Galileo clock drift (s/s).
	GalileoAf1LSB = 0x1p-46
	// GalileoAf0LSB is the LSB of the Galileo clock bias (s).
	GalileoAf0LSB = 0x1p-34
	// GalileoBGDLSB is the LSB of the E5a/E1 broadcast group delay (s).
	GalileoBGDLSB = 0x1p-32
)

// GPSEphemeris is the broadcast ephemeris of one GPS satellite.
type GPSEphemeris struct {
	PRN  uint // satellite number 1-32
	Week uint // GPS week number modulo 1024

	// URA is the user range accuracy index (SV accuracy).
	URA      uint
	CodeOnL2 uint

	IDOT float64 // rad/s
	IODE uint
	IODC uint

	Toc float64 // clock reference time (s of week)
	Af2 float64
	Af1 float64
	Af0 float64

	Crs          float64 // m
	DeltaN       float64 // rad/s
	M0           float64 // rad
	Cuc          float64 // rad
	Eccentricity float64
	Cus          float64 // rad
	SqrtA        float64 // m^0.5
	Toe          float64 // ephemeris reference time (s of week)
	Cic          float64 // rad
	Omega0       float64 // rad
	Cis          float64 // rad
	I0           float64 // rad
	Crc          float64 // m
	Omega        float64 // rad
	OmegaDot     float64 // rad/s
	TGD          float64 // s

	Health      uint
	L2PDataFlag bool
	// FitInterval is true if the curve fit interval is more than four hours.
	FitInterval bool
}

// GalileoEphemeris is the F/NAV broadcast ephemeris of one Galileo satellite.
type GalileoEphemeris struct {
	PRN    uint // satellite number 1-36
	Week   uint // Galileo week number modulo 4096
	IODnav uint

	// SISA is the signal in space accuracy index.
	SISA uint

	IDOT float64 // rad/s
	Toc  float64 // s of week
	Af2  float64
	Af1  float64
	Af0  float64

	Crs          float64
	DeltaN       float64
	M0           float64
	Cuc          float64
	Eccentricity float64
	Cus          float64
	SqrtA        float64
	Toe          float64
	Cic          float64
	Omega0       float64
	Cis          float64
	I0           float64
	Crc          float64
	Omega        float64
	OmegaDot     float64

	// BGDE5aE1 is the E5a/E1 broadcast group delay (s).
	BGDE5aE1 float64

	E5aHealth uint
	// E5aDataValid is the E5a data validity status bit.
	E5aDataValid bool
}
