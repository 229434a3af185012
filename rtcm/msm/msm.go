// Package msm handles Multiple Signal Messages, levels 1 to 7, for GPS,
// GLONASS, Galileo, SBAS, QZSS and BeiDou (message types 1071-1077,
// 1081-1087 and so on).  A message is a header followed by the satellite
// cells and then the signal cells.  The level controls which measurements
// are carried and at what resolution:
//
//	MSM1  pseudorange
//	MSM2  carrier phase
//	MSM3  pseudorange and carrier phase
//	MSM4  as MSM3 plus CNR
//	MSM5  as MSM4 plus phase range rate (doppler)
//	MSM6  as MSM4 with extended resolution
//	MSM7  as MSM5 with extended resolution
//
// MSM1 to MSM3 don't carry the whole milliseconds of the rough range, so
// their pseudorange is modulo one light millisecond.
package msm

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/frame"
	"github.com/goblimey/rtcm3codec/rtcm/gnss"
	"github.com/goblimey/rtcm3codec/rtcm/header"
	"github.com/goblimey/rtcm3codec/rtcm/msm/satellite"
	"github.com/goblimey/rtcm3codec/rtcm/msm/signal"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// ErrDuplicateSignal means that an observation set holds the same signal
// from the same satellite twice.
var ErrDuplicateSignal = errors.New("duplicate signal")

// maxGlonassChannel is the highest GLONASS frequency channel.  The lowest
// is -7.
const maxGlonassChannel = 6

// glonassChannelOffset is added to the channel to give the extended info.
const glonassChannelOffset = 7

// Params holds the values for the MSM header that don't come from the
// observations.
type Params struct {
	StationID uint

	// GPSTimeOfWeek is the time of the observations in seconds from the
	// start of the GPS week.  It's converted to the epoch time of the
	// constellation.
	GPSTimeOfWeek float64

	// MultipleMessage is set if more MSMs follow for the same epoch.
	MultipleMessage bool

	IssueOfDataStation      uint
	SessionTransmissionTime uint
	ClockSteeringIndicator  uint
	ExternalClockIndicator  uint
	DivergenceFree          bool
	SmoothingInterval       uint
}

// Message is a broken-out version of a Multiple Signal Message.
type Message struct {
	// Header is the MSM Header
	Header *header.Header

	// Satellites is a list of the satellites for which signals
	// were observed.
	Satellites []satellite.Cell

	// Signals is a list of sublists, one sublist per satellite,
	// of signals at different frequencies observed by the base
	// station from the satellites in the Satellite list.
	Signals [][]signal.Cell

	// Level is the MSM level, 1 to 7.
	Level int
}

// New creates an MSM Message.
func New(header *header.Header, satellites []satellite.Cell, signals [][]signal.Cell) *Message {
	message := Message{
		Header:     header,
		Satellites: satellites,
		Signals:    signals,
		Level:      utils.MSMLevel(header.MessageType),
	}

	return &message
}

// String return a text version of the Message.
func (message *Message) String() string {
	result :=
		message.Header.String() +
			message.DisplaySatelliteCells() +
			message.DisplaySignalCells()

	return result
}

// DisplaySatelliteCells returns a text version of the satellite cells in the
// Multiple Signal Message (MSM).
func (message *Message) DisplaySatelliteCells() string {

	if len(message.Satellites) < 1 {
		return "No Satellites\n"
	}

	heading := fmt.Sprintf("%d Satellites\nsatellite ID {range ms, extended info, phase range rate m/s}\n",
		len(message.Satellites))

	body := ""
	for i := range message.Satellites {
		body += message.Satellites[i].String() + "\n"
	}

	return heading + body
}

// DisplaySignalCells returns a text version of the signal data from the signal
// cells in a multiple signal message.
func (message *Message) DisplaySignalCells() string {

	if message.Header.NumSignalCells < 1 {
		return "No Signals\n"
	}

	heading := fmt.Sprintf(
		"%d Signals\nsat ID sig ID {range m, phase range cycles, doppler, lock time ind, half cycle ambiguity, CNR}\n",
		message.Header.NumSignalCells)

	body := ""

	for i := range message.Signals {
		for j := range message.Signals[i] {
			body += message.Signals[i][j].String() + "\n"
		}
	}

	return heading + body
}

// Decode unwraps a message frame given in hex and decodes the MSM in it.
func Decode(hexFrame string, logLevel slog.Level) (*Message, error) {
	messageType, bits, err := frame.Unwrap(hexFrame)
	if err != nil {
		return nil, err
	}

	if !utils.MSM(messageType) {
		return nil, fmt.Errorf("%w: message type %d is not an MSM",
			frame.ErrMessageType, messageType)
	}

	return GetMessage(messageType, bits, logLevel)
}

// GetMessage presents an MSM as broken out fields.  bits is the payload of
// the message following the message type.
func GetMessage(messageType int, bits string, logLevel slog.Level) (*Message, error) {

	r := bitstring.NewReader(bits)

	msmHeader, err := header.GetMSMHeader(messageType, r)
	if err != nil {
		return nil, err
	}

	level := utils.MSMLevel(messageType)

	satellites, err := satellite.GetSatelliteCells(r, level, msmHeader.Satellites)
	if err != nil {
		return nil, err
	}

	system, _ := gnss.SystemFromMessageType(messageType)
	wavelength := func(satCell *satellite.Cell, signalID uint) float64 {
		channel, ok := glonassChannel(system, level, satCell)
		if !ok {
			return 0
		}
		return gnss.Wavelength(system, gnss.MSMSignalCode(system, int(signalID)), channel)
	}

	signals, err := signal.GetSignalCells(r, level, msmHeader, satellites, wavelength, logLevel)
	if err != nil {
		return nil, err
	}

	return New(msmHeader, satellites, signals), nil
}

// glonassChannel returns the frequency channel of a satellite.  It's always
// zero outside GLONASS.  A GLONASS channel is only known from the extended
// info of an MSM5 or MSM7.
func glonassChannel(system byte, level int, satCell *satellite.Cell) (int, bool) {
	if system != gnss.Glonass {
		return 0, true
	}
	if level != 5 && level != 7 {
		return 0, false
	}
	if satCell.ExtendedInfo > maxGlonassChannel+glonassChannelOffset {
		return 0, false
	}
	return int(satCell.ExtendedInfo) - glonassChannelOffset, true
}

// Observations converts the message to an observation set.  The tracking
// channels are numbered from 1 in the order of the signal cells.  Signals
// with a reserved ID are left out.  A GLONASS carrier phase or doppler needs
// the frequency channel, so they are only given for MSM5 and MSM7.
func (message *Message) Observations() gnss.ObservationSet {

	set := make(gnss.ObservationSet)

	system, ok := gnss.SystemFromMessageType(message.Header.MessageType)
	if !ok {
		return set
	}

	channel := 1
	for i := range message.Signals {
		for j := range message.Signals[i] {
			cell := &message.Signals[i][j]
			code := gnss.MSMSignalCode(system, int(cell.ID))
			if code == "" {
				continue
			}

			glonassFrequencyChannel, known := glonassChannel(system, message.Level, cell.Satellite)

			set[channel] = gnss.Observation{
				System:                  system,
				PRN:                     cell.Satellite.ID,
				Signal:                  code,
				PseudorangeM:            cell.RangeInMetres(),
				CarrierPhaseCycles:      cell.PhaseRange(),
				DopplerHz:               cell.PhaseRangeRateDoppler(),
				CNR0dBHz:                cell.CNR(),
				LockTimeS:               cell.LockTime(),
				HalfCycleAmbiguity:      cell.HalfCycleAmbiguity,
				GlonassFrequencyChannel: glonassFrequencyChannel,
				GlonassChannelKnown:     known && system == gnss.Glonass,
			}
			channel++
		}
	}

	return set
}

// Encode produces an MSM frame in hex of the given type from the
// observations of its constellation in the set.  Observations of other
// constellations, of signals with no MSM signal ID and of satellites
// outside 1-64 are ignored.  Measurements that can't be represented are
// sent as invalid.
func Encode(messageType int, params Params, observations gnss.ObservationSet) (string, error) {

	system, ok := gnss.SystemFromMessageType(messageType)
	if !ok {
		return "", fmt.Errorf("%w: message type %d is not an MSM",
			frame.ErrMessageType, messageType)
	}
	level := utils.MSMLevel(messageType)

	// Gather the signals of each satellite, keyed by signal ID.
	bySatellite := make(map[uint]map[uint]gnss.Observation)
	signalSeen := make(map[uint]bool)
	for _, obs := range observations.Filter(system) {
		id := gnss.MSMSignalID(system, obs.Signal)
		if id == 0 || obs.PRN < 1 || obs.PRN > 64 {
			continue
		}
		if bySatellite[obs.PRN] == nil {
			bySatellite[obs.PRN] = make(map[uint]gnss.Observation)
		}
		if _, dup := bySatellite[obs.PRN][uint(id)]; dup {
			return "", fmt.Errorf("%w: %c%02d %s", ErrDuplicateSignal, system, obs.PRN, obs.Signal)
		}
		bySatellite[obs.PRN][uint(id)] = obs
		signalSeen[uint(id)] = true
	}

	satellites := make([]uint, 0, len(bySatellite))
	for prn := range bySatellite {
		satellites = append(satellites, prn)
	}
	sort.Slice(satellites, func(i, j int) bool { return satellites[i] < satellites[j] })

	signals := make([]uint, 0, len(signalSeen))
	for id := range signalSeen {
		signals = append(signals, id)
	}
	sort.Slice(signals, func(i, j int) bool { return signals[i] < signals[j] })

	if len(satellites)*len(signals) > header.MaxLengthOfCellMask {
		return "", fmt.Errorf("%w: %d satellites and %d signals",
			header.ErrCellMaskTooLong, len(satellites), len(signals))
	}

	cells := make([][]bool, len(satellites))
	satCells := make([]satellite.Cell, len(satellites))
	sigCells := make([]signal.Cell, 0)

	for i, prn := range satellites {
		cells[i] = make([]bool, len(signals))
		satCells[i] = *roughValues(system, level, prn, signals, bySatellite[prn])

		for j, id := range signals {
			obs, ok := bySatellite[prn][id]
			if !ok {
				continue
			}
			cells[i][j] = true

			wavelength := observedWavelength(system, &obs)
			m := measurements(&obs, wavelength)
			sigCells = append(sigCells,
				*signal.NewFromMeasurements(id, level, &satCells[i], m, wavelength))
		}
	}

	msmHeader := header.New(
		messageType,
		params.StationID,
		header.EpochTime(messageType, params.GPSTimeOfWeek),
		params.MultipleMessage,
		params.IssueOfDataStation,
		params.SessionTransmissionTime,
		params.ClockSteeringIndicator,
		params.ExternalClockIndicator,
		params.DivergenceFree,
		params.SmoothingInterval,
		header.BuildSatelliteMask(satellites),
		header.BuildSignalMask(signals),
		header.BuildCellMask(cells),
	)

	var b bitstring.Builder
	if err := msmHeader.Encode(&b); err != nil {
		return "", err
	}
	satellite.Encode(&b, level, satCells)
	signal.Encode(&b, level, sigCells)
	if err := b.Err(); err != nil {
		return "", fmt.Errorf("MSM%d: %w", level, err)
	}

	return frame.Wrap(b.String())
}

// roughValues creates the satellite cell.  The rough range comes from the
// first signal with a pseudorange and the rough phase range rate from the
// first signal with a doppler.
func roughValues(system byte, level int, prn uint, signals []uint, observed map[uint]gnss.Observation) *satellite.Cell {

	var roughRange, roughRate float64
	var extendedInfo uint

	for _, id := range signals {
		obs, ok := observed[id]
		if !ok {
			continue
		}
		if roughRange == 0 && obs.PseudorangeM != 0 {
			roughRange = obs.PseudorangeM
		}
		wavelength := observedWavelength(system, &obs)
		if roughRate == 0 && obs.DopplerHz != 0 && wavelength > 0 {
			roughRate = -obs.DopplerHz * wavelength
		}
		if system == gnss.Glonass {
			channel := obs.GlonassFrequencyChannel
			if !obs.GlonassChannelKnown ||
				channel < -glonassChannelOffset || channel > maxGlonassChannel {
				extendedInfo = satellite.NoExtendedInfo
			} else {
				extendedInfo = uint(channel + glonassChannelOffset)
			}
		}
	}

	if level != 5 && level != 7 {
		roughRate = 0
		extendedInfo = 0
	}

	return satellite.NewFromMeasurements(prn, roughRange, roughRate, extendedInfo)
}

// observedWavelength returns the carrier wavelength of an observation, or 0
// for a GLONASS signal whose frequency channel is not known.
func observedWavelength(system byte, obs *gnss.Observation) float64 {
	if system == gnss.Glonass && !obs.GlonassChannelKnown {
		return 0
	}
	return gnss.Wavelength(system, obs.Signal, obs.GlonassFrequencyChannel)
}

// measurements converts an observation to the units of the signal cell.
func measurements(obs *gnss.Observation, wavelength float64) *signal.Measurements {
	m := signal.Measurements{
		RangeMetres:         obs.PseudorangeM,
		LockTimeSeconds:     obs.LockTimeS,
		HalfCycleAmbiguity:  obs.HalfCycleAmbiguity,
		CarrierToNoiseRatio: obs.CNR0dBHz,
	}
	if wavelength > 0 {
		m.PhaseRangeMetres = obs.CarrierPhaseCycles * wavelength
		m.PhaseRangeRateMS = -obs.DopplerHz * wavelength
	}
	return &m
}

// ReferenceFrame returns an MSM1 frame from station 1234 at 25 seconds into
// the GPS week, with pseudoranges from three satellites over two signals:
// G2 and G4 on 1C and G32 on 2S.
func ReferenceFrame() (string, error) {
	observations := gnss.ObservationSet{
		1: {System: gnss.GPS, PRN: 2, Signal: "1C", PseudorangeM: 20000000},
		2: {System: gnss.GPS, PRN: 4, Signal: "1C", PseudorangeM: 20000010},
		3: {System: gnss.GPS, PRN: 32, Signal: "2S", PseudorangeM: 20000020},
	}
	params := Params{StationID: 1234, GPSTimeOfWeek: 25}
	return Encode(utils.MSMMessageType(utils.MSMBaseGPS, 1), params, observations)
}
