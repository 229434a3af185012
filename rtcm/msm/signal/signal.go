// Package signal contains code to handle the data from the signal cells of a
// Multiple Signal Message (MSM1 to MSM7).  Each signal cell holds small
// deltas which are added to the rough values in the satellite cell to give
// the measurements for one signal from one satellite.  Which fields are
// present, and their sizes and scales, depend on the MSM level.
package signal

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/frame"
	"github.com/goblimey/rtcm3codec/rtcm/header"
	"github.com/goblimey/rtcm3codec/rtcm/locktime"
	"github.com/goblimey/rtcm3codec/rtcm/msm/satellite"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// Lengths of the fields.  The ones with an "Ext" suffix are the extended
// resolution versions used by MSM6 and MSM7.
const lenRangeDelta = 15
const lenRangeDeltaExt = 20
const lenPhaseRangeDelta = 22
const lenPhaseRangeDeltaExt = 24
const lenLockTimeIndicator = 4
const lenLockTimeIndicatorExt = 10
const lenHalfCycleAmbiguity = 1
const lenCNR = 6
const lenCNRExt = 10
const lenPhaseRangeRateDelta = 15

// The invalid values are the most negative value of each signed field.
const (
	InvalidRangeDelta          = -16384
	InvalidRangeDeltaExt       = -524288
	InvalidPhaseRangeDelta     = -2097152
	InvalidPhaseRangeDeltaExt  = -8388608
	InvalidPhaseRangeRateDelta = -16384
)

// Limits of the deltas in metres and metres per second.
const maxRangeDelta = 292.7
const maxPhaseRangeDelta = 1171.0
const maxPhaseRangeRateDelta = 1.6383

// phaseRangeRateScale is the scale of the fine phase range rate, m/s.
const phaseRangeRateScale = 0.0001

// cnrScaleExt is the scale of the extended resolution CNR, dB-Hz.
const cnrScaleExt = 0.0625

// format describes the signal fields of one MSM level.  A zero length
// means that the field is not present.
type format struct {
	lenRange      int
	rangeScale    float64 // milliseconds
	lenPhaseRange int
	phaseScale    float64 // milliseconds
	lenLock       int
	lenHalfCycle  int
	lenCNR        int
	cnrScale      float64 // dB-Hz
	lenRate       int
}

var formats = [8]format{
	1: {lenRange: lenRangeDelta, rangeScale: 0x1p-24},
	2: {lenPhaseRange: lenPhaseRangeDelta, phaseScale: 0x1p-29,
		lenLock: lenLockTimeIndicator, lenHalfCycle: lenHalfCycleAmbiguity},
	3: {lenRange: lenRangeDelta, rangeScale: 0x1p-24,
		lenPhaseRange: lenPhaseRangeDelta, phaseScale: 0x1p-29,
		lenLock: lenLockTimeIndicator, lenHalfCycle: lenHalfCycleAmbiguity},
	4: {lenRange: lenRangeDelta, rangeScale: 0x1p-24,
		lenPhaseRange: lenPhaseRangeDelta, phaseScale: 0x1p-29,
		lenLock: lenLockTimeIndicator, lenHalfCycle: lenHalfCycleAmbiguity,
		lenCNR: lenCNR, cnrScale: 1},
	5: {lenRange: lenRangeDelta, rangeScale: 0x1p-24,
		lenPhaseRange: lenPhaseRangeDelta, phaseScale: 0x1p-29,
		lenLock: lenLockTimeIndicator, lenHalfCycle: lenHalfCycleAmbiguity,
		lenCNR: lenCNR, cnrScale: 1, lenRate: lenPhaseRangeRateDelta},
	6: {lenRange: lenRangeDeltaExt, rangeScale: 0x1p-29,
		lenPhaseRange: lenPhaseRangeDeltaExt, phaseScale: 0x1p-31,
		lenLock: lenLockTimeIndicatorExt, lenHalfCycle: lenHalfCycleAmbiguity,
		lenCNR: lenCNRExt, cnrScale: cnrScaleExt},
	7: {lenRange: lenRangeDeltaExt, rangeScale: 0x1p-29,
		lenPhaseRange: lenPhaseRangeDeltaExt, phaseScale: 0x1p-31,
		lenLock: lenLockTimeIndicatorExt, lenHalfCycle: lenHalfCycleAmbiguity,
		lenCNR: lenCNRExt, cnrScale: cnrScaleExt, lenRate: lenPhaseRangeRateDelta},
}

// invalid returns the invalid marker of a signed field, the most negative
// value it can hold.
func invalid(length int) int {
	return -(1 << (length - 1))
}

// CellLengthInBits returns the length of a signal cell in an MSM of the
// given level, 1 to 7.
func CellLengthInBits(level int) int {
	if level < 1 || level > 7 {
		return 0
	}
	f := formats[level]
	return f.lenRange + f.lenPhaseRange + f.lenLock + f.lenHalfCycle + f.lenCNR + f.lenRate
}

// Cell holds the data from a Multiple Signal Message for one signal from one
// satellite.
type Cell struct {
	// Field names, sizes, invalid values etc are derived from rtklib rtcm3.c
	// (decode_msm4 and decode_msm7) plus other clues from the igs BNC application.

	// ID is the ID of the signal, 1-32.
	ID uint

	// Level is the MSM level, 1-7.
	Level int

	// Wavelength is the wavelength of the signal, 0 if it's not known.
	Wavelength float64

	// RangeDelta - int15 or int20.  A scaled value representing a small
	// signed delta to be added to the rough range from the satellite cell.
	RangeDelta int

	// PhaseRangeDelta - int22 or int24.  Scaled and added to the rough range
	// it gives the carrier phase as a range.
	PhaseRangeDelta int

	// LockTimeIndicator - uint4 or uint10.
	LockTimeIndicator uint

	// HalfCycleAmbiguity flag - 1 bit.
	HalfCycleAmbiguity bool

	// CarrierToNoiseRatio - uint6 (1 dB-Hz) or uint10 (2^-4 dB-Hz).
	CarrierToNoiseRatio uint

	// PhaseRangeRateDelta - int15 - in tenths of a millimetre per second.
	PhaseRangeRateDelta int

	Satellite *satellite.Cell

	// LogLevel controls the data output by String.
	LogLevel slog.Level
}

// New creates a signal cell.
func New(
	signalID uint,
	level int,
	satelliteCell *satellite.Cell,
	rangeDelta int,
	phaseRangeDelta int,
	lockTimeIndicator uint,
	halfCycleAmbiguity bool,
	cnr uint,
	phaseRangeRateDelta int,
	wavelength float64,
	logLevel slog.Level,
) *Cell {

	cell := Cell{
		ID:                  signalID,
		Level:               level,
		Wavelength:          wavelength,
		RangeDelta:          rangeDelta,
		PhaseRangeDelta:     phaseRangeDelta,
		LockTimeIndicator:   lockTimeIndicator,
		HalfCycleAmbiguity:  halfCycleAmbiguity,
		CarrierToNoiseRatio: cnr,
		PhaseRangeRateDelta: phaseRangeRateDelta,
		Satellite:           satelliteCell,
		LogLevel:            logLevel,
	}

	return &cell
}

// Measurements holds the values of one signal in natural units.  A zero
// value means that the measurement is absent.
type Measurements struct {
	RangeMetres         float64
	PhaseRangeMetres    float64
	PhaseRangeRateMS    float64 // metres per second
	LockTimeSeconds     float64
	HalfCycleAmbiguity  bool
	CarrierToNoiseRatio float64 // dB-Hz
}

// NewFromMeasurements creates a signal cell of an MSM at the given level.
// The deltas are taken from the rough values in the satellite cell.  The
// satellite cell must be the one used to encode the message, holding the
// whole rough range, even for MSM1 to MSM3 which only send the fraction.
func NewFromMeasurements(
	signalID uint,
	level int,
	satelliteCell *satellite.Cell,
	m *Measurements,
	wavelength float64,
) *Cell {

	f := formats[level]
	roughRange := satelliteCell.RangeInMetres()

	rangeDelta := invalid(lenRange(f))
	if f.lenRange > 0 && m.RangeMetres != 0 && satelliteCell.RangeValid() {
		delta := m.RangeMetres - roughRange
		if math.Abs(delta) <= maxRangeDelta {
			rangeDelta = int(utils.Round(delta / utils.OneLightMillisecond / f.rangeScale))
		}
	}

	phaseRangeDelta := invalid(lenPhaseRange(f))
	if f.lenPhaseRange > 0 && m.PhaseRangeMetres != 0 && satelliteCell.RangeValid() {
		delta := m.PhaseRangeMetres - roughRange
		if math.Abs(delta) <= maxPhaseRangeDelta {
			phaseRangeDelta = int(utils.Round(delta / utils.OneLightMillisecond / f.phaseScale))
		}
	}

	var lock uint
	switch f.lenLock {
	case lenLockTimeIndicator:
		lock = locktime.MSM(m.LockTimeSeconds)
	case lenLockTimeIndicatorExt:
		lock = locktime.Extended(m.LockTimeSeconds)
	}

	var cnr uint
	if f.lenCNR > 0 && m.CarrierToNoiseRatio > 0 {
		maxCNR := float64(uint(1)<<f.lenCNR - 1)
		cnr = uint(math.Min(maxCNR, float64(utils.Round(m.CarrierToNoiseRatio/f.cnrScale))))
	}

	rateDelta := InvalidPhaseRangeRateDelta
	if f.lenRate > 0 && m.PhaseRangeRateMS != 0 && satelliteCell.RateValid() {
		delta := m.PhaseRangeRateMS - float64(satelliteCell.PhaseRangeRate)
		if math.Abs(delta) <= maxPhaseRangeRateDelta {
			rateDelta = int(utils.Round(delta / phaseRangeRateScale))
		}
	}

	return New(signalID, level, satelliteCell, rangeDelta, phaseRangeDelta,
		lock, m.HalfCycleAmbiguity, cnr, rateDelta, wavelength, slog.LevelInfo)
}

// lenRange gives the length of the range field used for its invalid marker.
// MSM2 has no range field but its cells still carry the marker.
func lenRange(f format) int {
	if f.lenRange == 0 {
		return lenRangeDelta
	}
	return f.lenRange
}

func lenPhaseRange(f format) int {
	if f.lenPhaseRange == 0 {
		return lenPhaseRangeDelta
	}
	return f.lenPhaseRange
}

func (cell *Cell) format() format {
	if cell.Level < 1 || cell.Level > 7 {
		return format{}
	}
	return formats[cell.Level]
}

// RangeValid is true if the cell and its satellite give a pseudorange.
func (cell *Cell) RangeValid() bool {
	f := cell.format()
	return f.lenRange > 0 && cell.Satellite != nil && cell.Satellite.RangeValid() &&
		cell.RangeDelta != invalid(f.lenRange)
}

// PhaseRangeValid is true if the cell and its satellite give a carrier
// phase.
func (cell *Cell) PhaseRangeValid() bool {
	f := cell.format()
	return f.lenPhaseRange > 0 && cell.Satellite != nil && cell.Satellite.RangeValid() &&
		cell.PhaseRangeDelta != invalid(f.lenPhaseRange)
}

// PhaseRangeRateValid is true if the cell and its satellite give a phase
// range rate.
func (cell *Cell) PhaseRangeRateValid() bool {
	f := cell.format()
	return f.lenRate > 0 && cell.Satellite != nil && cell.Satellite.RateValid() &&
		cell.PhaseRangeRateDelta != InvalidPhaseRangeRateDelta
}

// RangeInMetres gives the distance from the satellite to the GNSS device
// derived from the values in the satellite and signal cell, or 0 if the
// values are invalid.  For MSM1 to MSM3 the result is modulo one light
// millisecond.
func (cell *Cell) RangeInMetres() float64 {
	if !cell.RangeValid() {
		return 0
	}
	delta := float64(cell.RangeDelta) * cell.format().rangeScale * utils.OneLightMillisecond
	return cell.Satellite.RangeInMetres() + delta
}

// PhaseRangeInMetres gives the carrier phase as a range in metres, or 0 if
// the values are invalid.
func (cell *Cell) PhaseRangeInMetres() float64 {
	if !cell.PhaseRangeValid() {
		return 0
	}
	delta := float64(cell.PhaseRangeDelta) * cell.format().phaseScale * utils.OneLightMillisecond
	return cell.Satellite.RangeInMetres() + delta
}

// PhaseRange returns the carrier phase in cycles, or 0 if it's invalid or
// the wavelength is not known.
func (cell *Cell) PhaseRange() float64 {
	// In the RTKLIB, the decode_msm7 function uses the range from the
	// satellite and the phase range from the signal cell to derive the
	// carrier phase:
	//
	// /* carrier-phase (cycle) */
	// if (r[i]!=0.0&&cp[j]>-1E12&&wl>0.0) {
	//    rtcm->obs.data[index].L[ind[k]]=(r[i]+cp[j])/wl;
	// }
	if cell.Wavelength == 0 {
		return 0
	}
	return cell.PhaseRangeInMetres() / cell.Wavelength
}

// PhaseRangeRate returns the phase range rate in metres per second, or 0 if
// it's invalid.
func (cell *Cell) PhaseRangeRate() float64 {
	if !cell.PhaseRangeRateValid() {
		return 0
	}
	return float64(cell.Satellite.PhaseRangeRate) +
		float64(cell.PhaseRangeRateDelta)*phaseRangeRateScale
}

// PhaseRangeRateDoppler gets the doppler value in Hz from the phase range
// rate, or 0 if it's invalid or the wavelength is not known.
func (cell *Cell) PhaseRangeRateDoppler() float64 {
	// RTKLIB save_msm_obs reverses the sign:
	//
	// /* doppler (hz) */
	// if (rr&&rrf&&rrf[j]>-1E12&&wl>0.0) {
	//     rtcm->obs.data[index].D[ind[k]]=(float)(-(rr[i]+rrf[j])/wl);
	// }
	if cell.Wavelength == 0 || !cell.PhaseRangeRateValid() {
		return 0
	}
	return -cell.PhaseRangeRate() / cell.Wavelength
}

// LockTime returns the minimum lock time in seconds given by the lock time
// indicator.
func (cell *Cell) LockTime() float64 {
	switch cell.format().lenLock {
	case lenLockTimeIndicator:
		return locktime.MSMSeconds(cell.LockTimeIndicator)
	case lenLockTimeIndicatorExt:
		return locktime.ExtendedSeconds(cell.LockTimeIndicator)
	}
	return 0
}

// CNR returns the carrier to noise ratio in dB-Hz, 0 if it's not present.
func (cell *Cell) CNR() float64 {
	return float64(cell.CarrierToNoiseRatio) * cell.format().cnrScale
}

// String returns a readable version of a signal cell.
func (cell *Cell) String() string {

	var satelliteID uint
	if cell.Satellite != nil {
		satelliteID = cell.Satellite.ID
	}

	rangeMetres := "invalid"
	if cell.RangeValid() {
		if cell.LogLevel == slog.LevelDebug {
			rangeMetres = fmt.Sprintf("(%d, %.3f)", cell.RangeDelta, cell.RangeInMetres())
		} else {
			rangeMetres = fmt.Sprintf("%.3f", cell.RangeInMetres())
		}
	}

	var phaseRange string
	switch {
	case !cell.PhaseRangeValid():
		phaseRange = "invalid"
	case cell.Wavelength == 0:
		// The calculation involves dividing by the wavelength
		// so that must be non-zero.
		phaseRange = "no wavelength"
	case cell.LogLevel == slog.LevelDebug:
		phaseRange = fmt.Sprintf("(%d, %.3f)", cell.PhaseRangeDelta, cell.PhaseRange())
	default:
		phaseRange = fmt.Sprintf("%.3f", cell.PhaseRange())
	}

	// The doppler matches the doppler value in RINEX format.
	var doppler string
	switch {
	case !cell.PhaseRangeRateValid():
		doppler = "invalid"
	case cell.Wavelength == 0:
		doppler = "no wavelength"
	default:
		doppler = fmt.Sprintf("%.3f", cell.PhaseRangeRateDoppler())
	}

	return fmt.Sprintf("%2d %2d {%s, %s, %s, %d, %v, %.2f}",
		satelliteID, cell.ID, rangeMetres, phaseRange, doppler,
		cell.LockTimeIndicator, cell.HalfCycleAmbiguity, cell.CNR())
}

// Encode appends the signal cells of an MSM of the given level to b, field
// by field.
func Encode(b *bitstring.Builder, level int, cells []Cell) {

	f := formats[level]

	if f.lenRange > 0 {
		for i := range cells {
			b.AppendSigned(int64(cells[i].RangeDelta), f.lenRange)
		}
	}
	if f.lenPhaseRange > 0 {
		for i := range cells {
			b.AppendSigned(int64(cells[i].PhaseRangeDelta), f.lenPhaseRange)
		}
	}
	if f.lenLock > 0 {
		for i := range cells {
			b.AppendUnsigned(uint64(cells[i].LockTimeIndicator), f.lenLock)
		}
	}
	if f.lenHalfCycle > 0 {
		for i := range cells {
			b.AppendBool(cells[i].HalfCycleAmbiguity)
		}
	}
	if f.lenCNR > 0 {
		for i := range cells {
			b.AppendUnsigned(uint64(cells[i].CarrierToNoiseRatio), f.lenCNR)
		}
	}
	if f.lenRate > 0 {
		for i := range cells {
			b.AppendSigned(int64(cells[i].PhaseRangeRateDelta), f.lenRate)
		}
	}
}

// GetSignalCells gets the data from the signal cells of an MSM.  The reader
// must be positioned at the start of the signal data.  The result is a
// slice of slices, one outer slice per satellite in the header and one cell
// per observed signal.  wavelength gives the wavelength of a signal from a
// satellite, 0 if it's not known.
func GetSignalCells(
	r *bitstring.Reader,
	level int,
	header *header.Header,
	satCells []satellite.Cell,
	wavelength func(satCell *satellite.Cell, signalID uint) float64,
	logLevel slog.Level,
) ([][]Cell, error) {
	// The signal data is laid out field by field.  If we observe one signal
	// from satellite 2, two from satellite 3 and two from satellite 15, there
	// are five sets of signal data.  First come the range delta values for
	// each of the five signals, then all of the phase range delta values,
	// and so on.

	if level < 1 || level > 7 {
		return nil, fmt.Errorf("%w: MSM level %d", frame.ErrMessageType, level)
	}

	numSignalCells := header.NumSignalCells
	minBits := numSignalCells * CellLengthInBits(level)
	if r.Remaining() < minBits {
		return nil, fmt.Errorf("%w: overrun - want %d MSM%d signal cells (%d bits), got %d bits",
			frame.ErrPayloadTooShort, numSignalCells, level, minBits, r.Remaining())
	}

	f := formats[level]

	readSigned := func(length int, missing int) []int {
		values := make([]int, numSignalCells)
		for i := range values {
			if length > 0 {
				values[i] = int(r.Signed(length))
			} else {
				values[i] = missing
			}
		}
		return values
	}

	readUnsigned := func(length int) []uint {
		values := make([]uint, numSignalCells)
		if length > 0 {
			for i := range values {
				values[i] = uint(r.Unsigned(length))
			}
		}
		return values
	}

	rangeDelta := readSigned(f.lenRange, invalid(lenRange(f)))
	phaseRangeDelta := readSigned(f.lenPhaseRange, invalid(lenPhaseRange(f)))
	lockTimeIndicator := readUnsigned(f.lenLock)
	halfCycleAmbiguity := readUnsigned(f.lenHalfCycle)
	cnr := readUnsigned(f.lenCNR)
	phaseRangeRateDelta := readSigned(f.lenRate, InvalidPhaseRangeRateDelta)

	if err := r.Err(); err != nil {
		return nil, err
	}

	// For example if the satellite mask in the header contains {3, 5, 8} and
	// the cell mask contains {{1,5},{1},{5}} then we received signals 1 and 5
	// from satellite 3, signal 1 from satellite 5 and signal 5 from
	// satellite 8.  The order information is distributed over the satellite,
	// signal and cell masks.

	signalCells := make([][]Cell, len(header.Satellites))

	// c is the index into the slices of signal fields captured above.
	c := 0

	for i := range header.Cells {
		signalCells[i] = make([]Cell, 0)
		for j := range header.Cells[i] {
			if !header.Cells[i][j] {
				continue
			}

			signalID := header.Signals[j]

			var wl float64
			if wavelength != nil {
				wl = wavelength(&satCells[i], signalID)
			}

			cell := New(
				signalID,
				level,
				&satCells[i],
				rangeDelta[c],
				phaseRangeDelta[c],
				lockTimeIndicator[c],
				halfCycleAmbiguity[c] == 1,
				cnr[c],
				phaseRangeRateDelta[c],
				wl,
				logLevel,
			)

			signalCells[i] = append(signalCells[i], *cell)

			c++
		}
	}

	return signalCells, nil
}
