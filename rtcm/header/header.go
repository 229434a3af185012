// The header package handles a Multiple Signal Message (MSM) header.
package header

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/frame"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// Field lengths in bits.
const lenStationID = 12
const lenEpochTime = 30
const lenMultipleMessageFlag = 1
const lenIssueOfDataStation = 3
const lenSessionTransmissionTime = 7
const lenClockSteeringIndicator = 2
const lenExternalClockIndicator = 2
const lenGNSSDivergenceFreeSmoothingIndicator = 1
const lenGNSSSmoothingInterval = 3
const lenSatelliteMask = 64
const lenSignalMask = 32

// MaxLengthOfCellMask is the maximum length of the cell mask.
const MaxLengthOfCellMask = 64

// The minimum length of an MSM header, including the message type - 169.
const minBitsInHeader = utils.MessageTypeLengthBits + lenStationID +
	lenEpochTime + lenMultipleMessageFlag + lenIssueOfDataStation +
	lenSessionTransmissionTime + lenClockSteeringIndicator +
	lenExternalClockIndicator + lenGNSSDivergenceFreeSmoothingIndicator +
	lenGNSSSmoothingInterval + lenSatelliteMask +
	lenSignalMask

const secondsInWeek = 7 * 24 * 3600
const secondsInDay = 24 * 3600

// Moscow time is three hours ahead of UTC.
const moscowOffsetSeconds = 3 * 3600

// ErrCellMaskTooLong means that the satellites and signals need a cell mask
// longer than 64 bits.
var ErrCellMaskTooLong = errors.New("cell mask too long")

// Header holds the header for MSM Messages.  Message types 1071 to 1077,
// 1081 to 1087 and so on have an MSM header at the start.
type Header struct {

	// MessageType - uint12 - one of 1074, 1077 etc.
	MessageType int

	// Constellation - one of "GPS, "BeiDou" etc.
	Constellation string

	// StationID - uint12.
	StationID uint

	// EpochTime - uint30.
	// The structure of the 30 bits varies with the constellation.  For GPS
	// and Galileo it's the number of milliseconds from the start of the
	// current GPS week, which starts at midnight GMT at the start of Sunday
	// (in GPS time, a few leap seconds before UTC).  For Beidou it's
	// similar but 14 seconds behind GPS.  For GLONASS the top three bits
	// are the day of the week (0 is Sunday) and the rest are milliseconds
	// from the start of the day in the Moscow time zone.
	EpochTime uint

	// MultipleMessage - bit(1) - true if more MSMs follow for this
	// constellation, station and epoch time.
	MultipleMessage bool

	// IssueOfDataStation - uint3.
	IssueOfDataStation uint

	// SessionTransmissionTime - uint7.
	SessionTransmissionTime uint

	// ClockSteeringIndicator - uint2.
	ClockSteeringIndicator uint

	// ExternalClockIndicator - uint2.
	ExternalClockIndicator uint

	// GNSSDivergenceFreeSmoothingIndicator - bit(1).
	GNSSDivergenceFreeSmoothingIndicator bool

	// GNSSSmoothingInterval - uint3.
	GNSSSmoothingInterval uint

	// SatelliteMask is 64 bits, one bit per satellite.  Bit 63
	// is set if signals were observed from satellite 1, bit 62 for
	// satellite 2 and so on.  For example 101000..... means that
	// signals from satellites 1 and 3 were observed.
	SatelliteMask uint64

	// SignalMask is 32 bits, one per signal.  Bit 31 is set if
	// signal 1 was observed from any satellite, bit 30 is set if
	// signal 2 was observed from any satellite, and so on.
	SignalMask uint32

	// CellMask is an array of bits nSat X nSig where nSat is the
	// number of observed satellites (the number of bits set in the
	// satellite mask) and nSig is the number of signals types observed
	// across all of the satellites (the number of bits set in the
	// signal mask).  It's guaranteed to be <= 64 bits, held in the bottom
	// of the uint64.
	//
	// For example, if signals 1, 3 and 5 were observed from satellite 1 and
	// signals 1 and 2 were observed from satellite 3, the satellite mask will
	// have bits 63 and 61 set.  The signal mask will have bits 31, 30, 29 and
	// 27 set. The cell mask will be a table 2 X 4 bits long.  In this example,
	// each element indicates whether signals 1, 2, 3 and/or 5 were observed for
	// that satellite so the array would be 1011, 1100.
	CellMask uint64

	// Satellites is a slice made from the Satellite Mask bits.  If the satellite
	// mask has bits 63 and 61 set, signals were observed from satellites 1 and 3,
	// the slice will have two elements and will contain {1, 3}.
	Satellites []uint

	// Signals is a slice made from the signal mask.  If signals 1, 2, 3 and 5 were
	// observed from the satellites, the slice will have four elements and will
	// contain {1, 2, 3, 5}
	Signals []uint

	// Cells is a slice of slices representing the cell mask, one row per
	// satellite and one column per signal.
	Cells [][]bool

	// NumSignalCells is the total number of signal cells in the message, the
	// number of bits set in the cell mask.
	NumSignalCells int
}

// New creates a Header.
func New(
	messageType int,
	stationID uint,
	epochTime uint,
	multipleMessage bool,
	issueOfDataStation uint,
	sessionTransmissionTime uint,
	clockSteeringIndicator uint,
	externalClockIndicator uint,
	gnssDivergenceFreeSmoothingIndicator bool,
	gnssSmoothingInterval uint,
	satelliteMask uint64,
	signalMask uint32,
	cellMask uint64,
) *Header {

	satellites := getSatellites(satelliteMask)

	signals := getSignals(signalMask)

	cells := getCells(cellMask, len(satellites), len(signals))

	header := Header{
		MessageType:                          messageType,
		Constellation:                        utils.GetConstellation(messageType),
		StationID:                            stationID,
		EpochTime:                            epochTime,
		MultipleMessage:                      multipleMessage,
		IssueOfDataStation:                   issueOfDataStation,
		SessionTransmissionTime:              sessionTransmissionTime,
		ClockSteeringIndicator:               clockSteeringIndicator,
		ExternalClockIndicator:               externalClockIndicator,
		GNSSDivergenceFreeSmoothingIndicator: gnssDivergenceFreeSmoothingIndicator,
		GNSSSmoothingInterval:                gnssSmoothingInterval,
		SatelliteMask:                        satelliteMask,
		SignalMask:                           signalMask,
		CellMask:                             cellMask,
		Satellites:                           satellites,
		Signals:                              signals,
		Cells:                                cells,
		NumSignalCells:                       bits.OnesCount64(cellMask),
	}

	return &header
}

// String return a text version of the MSMHeader.
func (header *Header) String() string {

	line := fmt.Sprintf("type %d %s %s\n",
		header.MessageType, header.Constellation, utils.GetTitle(header.MessageType))

	days, millis, ok := utils.ParseTimestamp(header.Constellation, header.EpochTime)
	if ok {
		line += fmt.Sprintf("epoch time %d (%dd %s)\n",
			header.EpochTime, days, formatMillis(millis))
	} else {
		line += fmt.Sprintf("epoch time %d - illegal timestamp\n", header.EpochTime)
	}

	mode := "single"
	if header.MultipleMessage {
		mode = "multiple"
	}
	line += fmt.Sprintf("stationID %d, %s message, issue of data station %d\n",
		header.StationID, mode, header.IssueOfDataStation)
	line += fmt.Sprintf("session transmit time %d, clock steering %d, external clock %d\n",
		header.SessionTransmissionTime, header.ClockSteeringIndicator, header.ExternalClockIndicator)
	line += fmt.Sprintf("divergence free smoothing %v, smoothing interval %d\n",
		header.GNSSDivergenceFreeSmoothingIndicator, header.GNSSSmoothingInterval)
	line += fmt.Sprintf("%d satellites, %d signal types, %d signals\n",
		len(header.Satellites), len(header.Signals), header.NumSignalCells)

	return line
}

// Encode appends the header, starting with the message type, to b.
func (header *Header) Encode(b *bitstring.Builder) error {

	if !utils.MSM(header.MessageType) {
		return fmt.Errorf("message type %d is not an MSM", header.MessageType)
	}

	lenCellMask := len(header.Satellites) * len(header.Signals)
	if lenCellMask > MaxLengthOfCellMask {
		return fmt.Errorf("%w: %d satellites and %d signals need %d bits, expected <= %d",
			ErrCellMaskTooLong, len(header.Satellites), len(header.Signals),
			lenCellMask, MaxLengthOfCellMask)
	}

	b.AppendUnsigned(uint64(header.MessageType), utils.MessageTypeLengthBits)
	b.AppendUnsigned(uint64(header.StationID), lenStationID)
	b.AppendUnsigned(uint64(header.EpochTime), lenEpochTime)
	b.AppendBool(header.MultipleMessage)
	b.AppendUnsigned(uint64(header.IssueOfDataStation), lenIssueOfDataStation)
	b.AppendUnsigned(uint64(header.SessionTransmissionTime), lenSessionTransmissionTime)
	b.AppendUnsigned(uint64(header.ClockSteeringIndicator), lenClockSteeringIndicator)
	b.AppendUnsigned(uint64(header.ExternalClockIndicator), lenExternalClockIndicator)
	b.AppendBool(header.GNSSDivergenceFreeSmoothingIndicator)
	b.AppendUnsigned(uint64(header.GNSSSmoothingInterval), lenGNSSSmoothingInterval)
	b.AppendUnsigned(header.SatelliteMask, lenSatelliteMask)
	b.AppendUnsigned(uint64(header.SignalMask), lenSignalMask)
	if lenCellMask > 0 {
		b.AppendUnsigned(header.CellMask, lenCellMask)
	}

	if err := b.Err(); err != nil {
		return fmt.Errorf("MSM header: %w", err)
	}
	return nil
}

// GetMSMHeader reads the header of an MSM from r, which must be positioned
// just after the message type.  On return r is positioned at the start of
// the satellite data, which comes next.
//
// The MSMHeader contains:
//
//	a 12-bit unsigned message type (1071, 1081 ... MSM1 ... 1077 ... MSM7)
//	a 12-bit unsigned station ID
//	a 30-bit unsigned timestamp
//	a boolean multiple message flag
//	a 3-bit unsigned Issue Of Data Station
//	a 7-bit unsigned session transmission time value
//	a 2-bit unsigned clock steering indicator
//	a 2-bit unsigned external clock indicator
//	a boolean GNSS Divergence Free Smoothing Indicator
//	a 3-bit GNSS Smoothing Interval
//	a 64-bit satellite mask (one bit set per satellite observed)
//	a 32-bit signal mask (one bit set per signal type observed)
//	a cell mask (nSatellites X nSignals) bits long, 64 bits or less
//
// The satellite, signal and cell masks together show which signals were
// received ("observed") from which satellites.  If signal 3 was received
// from satellite 7, signals 3 and 5 from satellite 9 and signal 5 from
// satellite 15, the bits for satellites 7, 9 and 15 are set in the
// satellite mask and the bits for signals 3 and 5 in the signal mask.  The
// cell mask is 3X2 bits long, "10 11 01".  The message then contains three
// satellite cells and four signal cells.
func GetMSMHeader(messageType int, r *bitstring.Reader) (*Header, error) {

	if !utils.MSM(messageType) {
		return nil, fmt.Errorf("%w: message type %d is not an MSM",
			frame.ErrMessageType, messageType)
	}

	// We don't know the length of the header yet, but we have a minimum.
	lenBitStream := r.Remaining() + utils.MessageTypeLengthBits
	if lenBitStream < minBitsInHeader {
		return nil, fmt.Errorf("%w: bitstream is too short for an MSM header - got %d bits, expected at least %d",
			frame.ErrPayloadTooShort, lenBitStream, minBitsInHeader)
	}

	stationID := uint(r.Unsigned(lenStationID))
	epochTime := uint(r.Unsigned(lenEpochTime))
	multipleMessage := r.Bool()
	issueOfDataStation := uint(r.Unsigned(lenIssueOfDataStation))
	sessionTransmissionTime := uint(r.Unsigned(lenSessionTransmissionTime))
	clockSteeringIndicator := uint(r.Unsigned(lenClockSteeringIndicator))
	externalClockIndicator := uint(r.Unsigned(lenExternalClockIndicator))
	gnssDivergenceFreeSmoothingIndicator := r.Bool()
	gnssSmoothingInterval := uint(r.Unsigned(lenGNSSSmoothingInterval))
	satelliteMask := r.Unsigned(lenSatelliteMask)
	signalMask := uint32(r.Unsigned(lenSignalMask))

	if err := r.Err(); err != nil {
		return nil, err
	}

	// The last component of the header is the cell mask.  This is variable
	// length - (number of signals) X (number of satellites) bits, no more
	// than MaxLengthOfCellMask bits long.
	lenCellMask := bits.OnesCount64(satelliteMask) * bits.OnesCount32(signalMask)

	if lenCellMask > MaxLengthOfCellMask {
		return nil, fmt.Errorf("%w: cellMask is %d bits - expected <= %d",
			ErrCellMaskTooLong, lenCellMask, MaxLengthOfCellMask)
	}

	if r.Remaining() < lenCellMask {
		return nil, fmt.Errorf("%w: bitstream is too short for an MSM header with %d cell mask bits - got %d bits, expected at least %d",
			frame.ErrPayloadTooShort, lenCellMask, lenBitStream, minBitsInHeader+lenCellMask)
	}

	var cellMask uint64
	if lenCellMask > 0 {
		cellMask = r.Unsigned(lenCellMask)
	}

	header := New(messageType, stationID, epochTime, multipleMessage, issueOfDataStation,
		sessionTransmissionTime, clockSteeringIndicator, externalClockIndicator,
		gnssDivergenceFreeSmoothingIndicator, gnssSmoothingInterval,
		satelliteMask, signalMask, cellMask)

	return header, nil
}

// EpochTime returns the 30-bit epoch time field of an MSM of the given type
// for observations taken at the given GPS time of week in seconds.
func EpochTime(messageType int, gpsTimeOfWeek float64) uint {

	switch utils.GetConstellation(messageType) {
	case "GLONASS":
		t := wrapWeek(gpsTimeOfWeek + utils.GPSLeapSeconds + moscowOffsetSeconds)
		day := math.Floor(t / secondsInDay)
		millis := math.Round((t - day*secondsInDay) * 1000)
		if millis >= utils.MillisIn24Hours {
			millis -= utils.MillisIn24Hours
			day = math.Mod(day+1, 7)
		}
		return uint(day)<<27 | uint(millis)

	case "BeiDou":
		t := wrapWeek(gpsTimeOfWeek - utils.BeidouTimeBehindGPSSeconds)
		return uint(math.Round(t*1000)) % utils.MillisIn7Days

	default:
		return uint(math.Round(wrapWeek(gpsTimeOfWeek)*1000)) % utils.MillisIn7Days
	}
}

// GPSTimeOfWeek is the inverse of EpochTime.  It returns false if the epoch
// time is not legal for the constellation.
func GPSTimeOfWeek(messageType int, epochTime uint) (float64, bool) {

	constellation := utils.GetConstellation(messageType)
	days, millis, ok := utils.ParseTimestamp(constellation, epochTime)
	if !ok {
		return 0, false
	}

	t := float64(days*utils.MillisIn24Hours+millis) / 1000

	switch constellation {
	case "GLONASS":
		return wrapWeek(t - moscowOffsetSeconds - utils.GPSLeapSeconds), true
	case "BeiDou":
		return wrapWeek(t + utils.BeidouTimeBehindGPSSeconds), true
	}
	return t, true
}

// BuildSatelliteMask returns the satellite mask for a list of satellite
// numbers, 1 to 64.
func BuildSatelliteMask(satellites []uint) uint64 {
	var mask uint64
	for _, satNum := range satellites {
		if satNum >= 1 && satNum <= lenSatelliteMask {
			mask |= 1 << (lenSatelliteMask - satNum)
		}
	}
	return mask
}

// BuildSignalMask returns the signal mask for a list of signal IDs, 1 to
// 32.
func BuildSignalMask(signals []uint) uint32 {
	var mask uint32
	for _, sigNum := range signals {
		if sigNum >= 1 && sigNum <= lenSignalMask {
			mask |= 1 << (lenSignalMask - sigNum)
		}
	}
	return mask
}

// BuildCellMask returns the cell mask for a table of cells, one row per
// satellite.  The first cell is the most significant of the mask bits.
func BuildCellMask(cells [][]bool) uint64 {
	var mask uint64
	for _, row := range cells {
		for _, cell := range row {
			mask <<= 1
			if cell {
				mask |= 1
			}
		}
	}
	return mask
}

// getSatellites gets a satellite list from the given bit mask.
func getSatellites(satelliteMask uint64) []uint {

	// Bit 63 of the mask is satellite number 1, bit 62 is 2, bit 0 is 64.
	// If signals were observed from satellites 3, 7 and 9, the slice will
	// contain {3, 7, 9}.
	satellites := make([]uint, 0)
	for satNum := 1; satNum <= lenSatelliteMask; satNum++ {
		bitPosition := lenSatelliteMask - satNum
		if (satelliteMask>>bitPosition)&1 == 1 {
			satellites = append(satellites, uint(satNum))
		}
	}

	return satellites
}

// getSignals gets a signal list from the given bit mask.
func getSignals(signalMask uint32) []uint {
	// Bit 31 of the mask is signal number 1, bit 30 is 2, bit 0 is 32.
	signals := make([]uint, 0)
	for sigNum := 1; sigNum <= lenSignalMask; sigNum++ {
		bitPosition := lenSignalMask - sigNum
		if (signalMask>>bitPosition)&1 == 1 {
			signals = append(signals, uint(sigNum))
		}
	}

	return signals
}

// getCells gets the cell list.  The bits form a two-dimensional array of
// (number of satellites) X (number of signals) bits.  If the receiver
// observed two signal types from three satellites, both types from the
// first, just the first type from the second and just the second type from
// the third, the mask is 11 10 01 and the result is
// {{t, t}, {t, f}, {f, t}}.
func getCells(cellMask uint64, numberOfSatellites, numberOfSignalTypes int) [][]bool {

	numberOfCells := numberOfSatellites * numberOfSignalTypes
	cellNumber := 0
	cells := make([][]bool, 0, numberOfSatellites)
	for i := 0; i < numberOfSatellites; i++ {
		row := make([]bool, 0, numberOfSignalTypes)
		for j := 0; j < numberOfSignalTypes; j++ {
			cellNumber++
			bitPosition := numberOfCells - cellNumber
			row = append(row, (cellMask>>bitPosition)&1 == 1)
		}
		cells = append(cells, row)
	}
	return cells
}

// wrapWeek returns t modulo one week, in the range [0, 604800).
func wrapWeek(t float64) float64 {
	t = math.Mod(t, secondsInWeek)
	if t < 0 {
		t += secondsInWeek
	}
	return t
}

// formatMillis formats a count of milliseconds within a day.
func formatMillis(millis uint) string {
	h := millis / 3600000
	m := (millis % 3600000) / 60000
	s := (millis % 60000) / 1000
	ms := millis % 1000
	return fmt.Sprintf("%dh %dm %ds %dms", h, m, s, ms)
}
