// the utils package contains general-purpose values and functions for the
// RTCM codec software.
package utils

import "math"

// StartOfMessageFrame is the value of the byte that starts an RTCM3 message frame.
const StartOfMessageFrame byte = 0xd3

// MaxPayloadLengthBytes is the largest payload that the 10-bit length field
// in the frame leader can describe.
const MaxPayloadLengthBytes = 1023

// NonRTCMMessage indicates a Message that does not contain RTCM data, for
// example a corrupt frame or a string of hex that isn't a frame at all.
const NonRTCMMessage = -1

// RTCM3 Message types.
const MessageType1001 = 1001 // L1-only GPS RTK observables.
const MessageType1002 = 1002 // Extended L1-only GPS RTK observables.
const MessageType1003 = 1003 // L1&L2 GPS RTK observables.
const MessageType1004 = 1004 // Extended L1&L2 GPS RTK observables.
const MessageType1005 = 1005 // Base position.
const MessageType1006 = 1006 // Base position and antenna height.
const MessageType1019 = 1019 // GPS ephemeris.
const MessageType1045 = 1045 // Galileo F/NAV ephemeris.

// The Multiple Signal Messages for a constellation are numbered from a base
// value.  MSM1 for GPS is 1071, MSM7 for GPS is 1077 and so on.
const MSMBaseGPS = 1070
const MSMBaseGlonass = 1080
const MSMBaseGalileo = 1090
const MSMBaseSBAS = 1100
const MSMBaseQZSS = 1110
const MSMBaseBeidou = 1120

// The MSM types most often seen from base stations.
const MessageTypeMSM4GPS = MSMBaseGPS + 4
const MessageTypeMSM7GPS = MSMBaseGPS + 7
const MessageTypeMSM4Glonass = MSMBaseGlonass + 4
const MessageTypeMSM7Glonass = MSMBaseGlonass + 7
const MessageTypeMSM4Galileo = MSMBaseGalileo + 4
const MessageTypeMSM7Galileo = MSMBaseGalileo + 7
const MessageTypeMSM4Beidou = MSMBaseBeidou + 4
const MessageTypeMSM7Beidou = MSMBaseBeidou + 7

// MaxTimestamp is the maximum timestamp value.  The timestamp is 30 bits
// giving milliseconds since the start of the week BUT it must be less than
// seven days worth of milliseconds.
const MaxTimestamp = (7 * 24 * 3600 * 1000) - 1

// MaxTimestampGlonass is the maximum timestamp value for Glonass -
// a day value of 6 and a millisecond value of
// ((24 hours worth of milliseconds) - 1)
const MaxTimestampGlonass = (6 << 27) + ((24 * 3600 * 1000) - 1)

// GPSLeapSeconds is the duration that GPS time is ahead of UTC
// in seconds, correct from the start of 2017/01/01.
const GPSLeapSeconds = -18

// GlonassInvalidDay is the invalid value for the day part of the timestamp.
const GlonassInvalidDay = 7

// GlonassDayBitMask is used to extract the Glonass day from the timestamp
// in an MSM.  The 30 bit time value is a 3 bit day (0 is Sunday)
// followed by a 27 bit value giving milliseconds since the start of the
// day.
const GlonassDayBitMask = 0x38000000 // 0011 1000 0000 0000 0000 0000 0000 0000

// BeidouTimeBehindGPSSeconds is the number of seconds that BeiDou time is
// behind GPS time.  The MSM timestamp for BeiDou is milliseconds of the
// BeiDou week.
const BeidouTimeBehindGPSSeconds = 14

// SpeedOfLightMS is the speed of light in metres per second.
const SpeedOfLightMS = 299792458.0

// OneLightMillisecond is the distance in metres traveled by light in one
// millisecond.  The value can be used to convert a range in milliseconds to a
// distance in metres.  The speed of light is 299792458.0 metres/second.
const OneLightMillisecond float64 = 299792.458

// SemiCircle is the number of radians in one semicircle.  Ephemeris angles
// are carried in semicircles on the wire and in radians in the records.
const SemiCircle = math.Pi

// Signal frequencies in Hz.  Galileo uses the same frequencies as GPS but gives
// them different names - GPS L5 is Galileo E5a, and so on.

// Freq1 is the L1/E1 signal frequency in Hz.
const Freq1 float64 = 1.57542e9

// Freq2 is the L2 frequency in Hz.
const Freq2 float64 = 1.22760e9

// Freq5 is the L5/E5a frequency in Hz.
const Freq5 float64 = 1.17645e9

// Freq6 is the E6/LEX frequency (Hz).
const Freq6 float64 = 1.27875e9

// Freq7 is the E5b requency (Hz).
const Freq7 float64 = 1.20714e9

// Freq8 is the E5a+b  frequency (Hz).
const Freq8 float64 = 1.191795e9

// FreqL1Glonass is the GLONASS G1 base frequency (Hz).
const FreqL1Glonass float64 = 1.60200e9

// BiasFreq1Glo is the GLONASS G1 bias frequency (Hz/n).
const BiasFreq1Glo float64 = 0.56250e6

// FreqL2Glonass is the GLONASS G2 base frequency (Hz).
const FreqL2Glonass float64 = 1.24600e9

// BiasFreq2Glo is the GLONASS G2 bias frequency (Hz/n).
const BiasFreq2Glo float64 = 0.43750e6

// FreqB1Beidou is the BeiDou B1 frequency (Hz).
const FreqB1Beidou float64 = 1.561098e9

// FreqB3Beidou is the BeiDou B3 frequency (Hz).
const FreqB3Beidou float64 = 1.26852e9

// LeaderLengthBytes is the length of the message frame leader in bytes.
const LeaderLengthBytes = 3

// LeaderLengthBits is the length of the message frame leader in bits.
const LeaderLengthBits = LeaderLengthBytes * 8

// CRCLengthBytes is the length of the Cyclic Redundancy check value in bytes.
const CRCLengthBytes = 3

// MessageTypeLengthBits is the length of the message type at the start of
// every payload.
const MessageTypeLengthBits = 12

// MillisIn24Hours is 24 hours in milliseconds.
const MillisIn24Hours = 24 * 3600 * 1000

// MillisIn7Days is 7 days in milliseconds.
const MillisIn7Days = 7 * 24 * 3600 * 1000

// MSMLevel returns 1-7 if the message type is a Multiple Signal Message of
// that level for a supported constellation, otherwise 0.
func MSMLevel(messageType int) int {
	if messageType < MSMBaseGPS || messageType > MSMBaseBeidou+7 {
		return 0
	}
	level := messageType % 10
	if level < 1 || level > 7 {
		return 0
	}
	return level
}

// MSM returns true if the message type is a Multiple Signal Message.
func MSM(messageType int) bool {
	return MSMLevel(messageType) > 0
}

// MSM4 returns true if the message type is an MSM4.
func MSM4(messageType int) bool {
	return MSMLevel(messageType) == 4
}

// MSM7 returns true if the message type is an MSM7.
func MSM7(messageType int) bool {
	return MSMLevel(messageType) == 7
}

// MSMMessageType returns the message type for an MSM of the given level
// and constellation base.
func MSMMessageType(base, level int) int {
	return base + level
}

// GetConstellation returns the constellation given an MSM message type.
func GetConstellation(messageType int) string {

	if !MSM(messageType) {
		return "unknown constellation"
	}

	switch messageType - messageType%10 {
	case MSMBaseGPS:
		return "GPS"
	case MSMBaseGlonass:
		return "GLONASS"
	case MSMBaseGalileo:
		return "Galileo"
	case MSMBaseSBAS:
		return "SBAS"
	case MSMBaseQZSS:
		return "QZSS"
	case MSMBaseBeidou:
		return "BeiDou"
	default:
		return "unknown constellation"
	}
}

// GetTitle returns a short title for the message types that the codec handles.
func GetTitle(messageType int) string {

	switch messageType {
	case MessageType1001:
		return "L1-Only GPS RTK Observables"
	case MessageType1002:
		return "Extended L1-Only GPS RTK Observables"
	case MessageType1003:
		return "L1&L2 GPS RTK Observables"
	case MessageType1004:
		return "Extended L1&L2 GPS RTK Observables"
	case MessageType1005:
		return "Stationary RTK Reference Station ARP"
	case MessageType1006:
		return "Stationary RTK Reference Station ARP with Antenna Height"
	case MessageType1019:
		return "GPS Ephemerides"
	case MessageType1045:
		return "Galileo F/NAV Satellite Ephemeris Data"
	}

	switch MSMLevel(messageType) {
	case 1:
		return "Compact Pseudoranges"
	case 2:
		return "Compact PhaseRanges"
	case 3:
		return "Compact Pseudoranges and PhaseRanges"
	case 4:
		return "Full Pseudoranges and PhaseRanges plus CNR"
	case 5:
		return "Full Pseudoranges, PhaseRanges, PhaseRangeRate and CNR"
	case 6:
		return "Full Pseudoranges and PhaseRanges plus CNR (high resolution)"
	case 7:
		return "Full Pseudoranges, PhaseRanges, PhaseRangeRate and CNR (high resolution)"
	}

	return "unknown message type"
}

// ParseTimestamp returns the number of days and the remaining
// number of milliseconds in a 30-bit timestamp.
func ParseTimestamp(constellation string, timestamp uint) (days uint, millis uint, ok bool) {

	if constellation == "GLONASS" {
		// A Glonass timestamp is a 3-bit number of days and a
		// 27-bit number of milliseconds from the start of the day.
		// Day zero is Sunday.  A days value of 7 is illegal.
		if timestamp>>30 != 0 {
			return 0, 0, false
		}
		days = timestamp >> 27
		millis = timestamp &^ GlonassDayBitMask
		if days >= GlonassInvalidDay || millis >= MillisIn24Hours {
			return 0, 0, false
		}
		return days, millis, true
	}

	// For all other constellation the timestamp is milliseconds
	// since the start of the week.
	if timestamp > MaxTimestamp {
		return 0, 0, false
	}

	return timestamp / MillisIn24Hours, timestamp % MillisIn24Hours, true
}

// GetBitsAsUint64 extracts len bits from a slice of  bytes, starting
// at bit position pos and returns them as a uint.  See RTKLIB's getbitu.
func GetBitsAsUint64(buff []byte, pos uint, len uint) uint64 {
	var result uint64 = 0
	for i := pos; i < pos+len; i++ {
		byteNumber := i / 8
		// Shift the contents down to put the desired bit at the bottom.
		var shiftBy uint = 7 - i%8
		bit := (uint64(buff[byteNumber]) >> shiftBy) & 1
		// Shift the result up one bit and glue in the extracted bit.
		result = (result << 1) | bit
	}
	return result
}

// Round rounds a scaled value to the nearest integer, half away from zero.
func Round(x float64) int64 {
	return int64(math.Round(x))
}

// EqualWithin return true if the given float64 values are equal
// within (precision) decimal places after rounding.  (This can fail if
// either of the numbers or the difference between them are too large.)
func EqualWithin(precision uint, f1, f2 float64) bool {

	// see http://docs.oracle.com/cd/E19957-01/806-3568/ncg_goldberg.html

	var scaleFactor float64 = math.Pow(10, float64(precision))

	f1 = math.Round(f1 * scaleFactor)
	f2 = math.Round(f2 * scaleFactor)

	return math.Abs(f1-f2) <= 0.1
}
