// The satellite package contains code to handle the satellite cells of a
// Multiple Signal Message (MSM1 to MSM7).  The satellite cells follow the
// header in the message.  Each cell contains the data about one satellite:
// the approximate (rough) range and, depending on the MSM level, the
// extended satellite information and the rough phase range rate.  The rough
// range is expressed in light milliseconds, ie the approximate transit time
// of the signals from the satellite to the GNSS device.  Each signal cell
// contains a small delta which is added to the rough value given here to give
// the transit time of that signal.
//
// In the bit stream the data is laid out field by field, not cell by cell:
// all of the whole millisecond values, then all of the extended info values
// and so on.
package satellite

import (
	"fmt"
	"math"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/frame"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// InvalidRange is the invalid value for the whole millis range.
const InvalidRange = 0xff

// InvalidPhaseRangeRate is the invalid value for the phase range rate.
// 14 bit two's complement 10 0000 0000 0000
const InvalidPhaseRangeRate = -8192

// NoExtendedInfo is the extended info value for a GLONASS satellite with an
// unknown frequency channel.
const NoExtendedInfo = 15

// Lengths of the fields in the bitStream.
const lenWholeMillis = 8
const lenExtendedInfo = 4
const lenFractionalMillis = 10
const lenPhaseRangeRate = 14

// fractionsPerMilli is the scale of the fractional part of the range,
// 2^-10 milliseconds.
const fractionsPerMilli = 1 << lenFractionalMillis

// maxPhaseRangeRate is the largest rough phase range rate in m/s.
const maxPhaseRangeRate = 8191

// Cell holds the data from one satellite cell of a Multiple Signal Message.
type Cell struct {
	// The field names, types and sizes and invalid values are shown in comments
	// in rtklib rtcm3.c - see the function decode_msm_head() and friends.

	// ID is the satellite ID, 1-64.
	ID uint

	// RangeWholeMillis - uint8 - the number of integer milliseconds in the
	// GNSS Satellite range (ie the transit time of the signals).  0xff
	// indicates an invalid value.  MSM1 to MSM3 don't carry this field so
	// the range is modulo one millisecond and this value is zero.
	RangeWholeMillis uint

	// ExtendedInfo - uint4.  Extended Satellite Information, MSM5 and MSM7
	// only.  For GLONASS it's the frequency channel plus 7.
	ExtendedInfo uint

	// RangeFractionalMillis - unit10.  The fractional part of the range
	// in units of 2^-10 milliseconds.
	RangeFractionalMillis uint

	// PhaseRangeRate - int14 - metres per second, MSM5 and MSM7 only.
	// InvalidPhaseRangeRate in other messages.
	PhaseRangeRate int
}

// New creates a satellite cell from the given values.
func New(id, wholeMillis, fractionalMillis, extendedInfo uint, phaseRangeRate int) *Cell {

	cell := Cell{
		ID:                    id,
		RangeWholeMillis:      wholeMillis,
		RangeFractionalMillis: fractionalMillis,
		ExtendedInfo:          extendedInfo,
		PhaseRangeRate:        phaseRangeRate,
	}

	return &cell
}

// NewFromMeasurements creates a satellite cell from a rough range in metres
// and a rough phase range rate in metres per second.  A range of zero or
// less, or too large to encode, gives an invalid range.  A rate of zero or
// too large to encode gives an invalid rate.
func NewFromMeasurements(id uint, roughRangeMetres, phaseRangeRate float64, extendedInfo uint) *Cell {

	wholeMillis := uint(InvalidRange)
	var fractionalMillis uint
	if roughRangeMetres > 0 && roughRangeMetres <= InvalidRange*utils.OneLightMillisecond {
		fractions := uint(utils.Round(roughRangeMetres / utils.OneLightMillisecond * fractionsPerMilli))
		wholeMillis = fractions >> lenFractionalMillis
		fractionalMillis = fractions & (fractionsPerMilli - 1)
		if wholeMillis >= InvalidRange {
			wholeMillis = InvalidRange
			fractionalMillis = 0
		}
	}

	rate := InvalidPhaseRangeRate
	if phaseRangeRate != 0 && math.Abs(phaseRangeRate) <= maxPhaseRangeRate {
		rate = int(utils.Round(phaseRangeRate))
	}

	return New(id, wholeMillis, fractionalMillis, extendedInfo, rate)
}

// RangeValid is true if the rough range is present.
func (cell *Cell) RangeValid() bool {
	return cell.RangeWholeMillis != InvalidRange
}

// RateValid is true if the rough phase range rate is present.
func (cell *Cell) RateValid() bool {
	return cell.PhaseRangeRate != InvalidPhaseRangeRate
}

// RangeInMillis returns the rough range in milliseconds, or 0 if it's invalid.
func (cell *Cell) RangeInMillis() float64 {
	if !cell.RangeValid() {
		return 0
	}
	return float64(cell.RangeWholeMillis) + float64(cell.RangeFractionalMillis)/fractionsPerMilli
}

// RangeInMetres returns the rough range in metres, or 0 if it's invalid.
func (cell *Cell) RangeInMetres() float64 {
	return cell.RangeInMillis() * utils.OneLightMillisecond
}

func (cell *Cell) String() string {

	var approxRange string
	if cell.RangeValid() {
		approxRange = fmt.Sprintf("%.3f", cell.RangeInMillis())
	} else {
		approxRange = "invalid"
	}

	var phaseRangeRate string
	if cell.RateValid() {
		phaseRangeRate = fmt.Sprintf("%d", cell.PhaseRangeRate)
	} else {
		phaseRangeRate = "invalid"
	}

	return fmt.Sprintf("%2d {%s, %d, %s}",
		cell.ID, approxRange, cell.ExtendedInfo, phaseRangeRate)
}

// CellLengthInBits returns the length of a satellite cell in an MSM of the
// given level, 1 to 7.
func CellLengthInBits(level int) int {
	switch level {
	case 4, 6:
		return lenWholeMillis + lenFractionalMillis
	case 5, 7:
		return lenWholeMillis + lenExtendedInfo + lenFractionalMillis + lenPhaseRangeRate
	}
	return lenFractionalMillis
}

// Encode appends the satellite cells of an MSM of the given level to b,
// field by field.
func Encode(b *bitstring.Builder, level int, cells []Cell) {

	extended := level == 5 || level == 7
	whole := extended || level == 4 || level == 6

	if whole {
		for i := range cells {
			b.AppendUnsigned(uint64(cells[i].RangeWholeMillis), lenWholeMillis)
		}
	}

	if extended {
		for i := range cells {
			b.AppendUnsigned(uint64(cells[i].ExtendedInfo), lenExtendedInfo)
		}
	}

	for i := range cells {
		// With no whole millis field an invalid range can't be flagged.
		fraction := cells[i].RangeFractionalMillis
		if !cells[i].RangeValid() {
			fraction = 0
		}
		b.AppendUnsigned(uint64(fraction), lenFractionalMillis)
	}

	if extended {
		for i := range cells {
			b.AppendSigned(int64(cells[i].PhaseRangeRate), lenPhaseRangeRate)
		}
	}
}

// GetSatelliteCells extracts the satellite cell data from an MSM of the
// given level.  The reader must be positioned at the start of the satellite
// data, just after the header.  satellites gives the IDs of the satellites
// from which signals were observed, in mask order.  If the bitstream is not
// long enough to contain the cells, it returns an error.
func GetSatelliteCells(r *bitstring.Reader, level int, satellites []uint) ([]Cell, error) {
	// If signals were observed from satellites 2, 3 and 15, the bitstream
	// contains a list of three rough range values, followed by a list of
	// three extended info values, followed by three fractional range values,
	// and so on.  It's more convenient to represent these data as a list of
	// cells, one cell per satellite, so we gather all the values and then
	// create the cells.

	minBits := len(satellites) * CellLengthInBits(level)
	if r.Remaining() < minBits {
		return nil, fmt.Errorf("%w: overrun - not enough data for %d MSM%d satellite cells - need %d bits, got %d",
			frame.ErrPayloadTooShort, len(satellites), level, minBits, r.Remaining())
	}

	extended := level == 5 || level == 7
	whole := extended || level == 4 || level == 6

	wholeMillis := make([]uint, len(satellites))
	if whole {
		for i := range satellites {
			wholeMillis[i] = uint(r.Unsigned(lenWholeMillis))
		}
	}

	extendedInfo := make([]uint, len(satellites))
	if extended {
		for i := range satellites {
			extendedInfo[i] = uint(r.Unsigned(lenExtendedInfo))
		}
	}

	fractionalMillis := make([]uint, len(satellites))
	for i := range satellites {
		fractionalMillis[i] = uint(r.Unsigned(lenFractionalMillis))
	}

	phaseRangeRate := make([]int, len(satellites))
	for i := range satellites {
		if extended {
			phaseRangeRate[i] = int(r.Signed(lenPhaseRangeRate))
		} else {
			phaseRangeRate[i] = InvalidPhaseRangeRate
		}
	}

	if err := r.Err(); err != nil {
		return nil, err
	}

	satData := make([]Cell, 0, len(satellites))
	for i := range satellites {
		satCell := New(satellites[i], wholeMillis[i],
			fractionalMillis[i], extendedInfo[i], phaseRangeRate[i])
		satData = append(satData, *satCell)
	}

	return satData, nil
}
