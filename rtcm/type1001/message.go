// The type1001 package handles the legacy GPS RTK observation messages:
// 1001 (L1 only), 1002 (extended L1 only), 1003 (L1 and L2) and 1004
// (extended L1 and L2).
//
// The L1 pseudorange travels as its remainder modulo one light millisecond
// (299,792.458 m) in units of 2 cm.  The extended messages also carry the
// whole number of light milliseconds (the ambiguity) and the signal
// strength, so they give the full pseudorange.  1001 and 1003 give the
// pseudorange modulo one light millisecond.  Phase ranges and the L2
// pseudorange are sent as differences from the L1 pseudorange.
package type1001

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/field"
	"github.com/goblimey/rtcm3codec/rtcm/frame"
	"github.com/goblimey/rtcm3codec/rtcm/gnss"
	"github.com/goblimey/rtcm3codec/rtcm/locktime"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// Resolution of the pseudorange fields in metres.
const pseudorangeScale = 0.02

// Resolution of the phase range fields in metres.
const phaseRangeScale = 0.0005

// Resolution of the CNR fields in dB-Hz.
const cnrScale = 0.25

// maxCNR is the largest CNR that fits in the 8-bit field.
const maxCNR = 255 * cnrScale

// The L2-L1 pseudorange difference is only sent if it's within this range.
const maxL2Difference = 163.82

// The phase range is sent relative to the pseudorange, wrapped into this
// many cycles either side of zero.
const phaseWrapCycles = 750

// Invalid markers: the most negative value of each field.
const (
	invalidPhaseRange    = -524288 // int20
	invalidL2Pseudorange = -8192   // int14
)

// maxSatellites is the most satellites that the 5-bit count allows.
const maxSatellites = 31

// ErrNotObservationMessage is returned when asked to encode a message type
// outside 1001-1004.
var ErrNotObservationMessage = errors.New("not a GPS observation message type")

// headerLayout is the message header after the 12-bit message type.
var headerLayout = field.Layout{
	field.Uint("stationID", 12),
	field.Uint("epochTime", 30),
	field.Bool("synchronous"),
	field.Uint("satellites", 5),
	field.Bool("divergenceFree"),
	field.Uint("smoothingInterval", 3),
}

var l1Layout = field.Layout{
	field.Uint("prn", 6),
	field.Uint("l1Code", 1),
	field.Uint("l1Pseudorange", 24),
	field.Int("l1PhaseRange", 20),
	field.Uint("l1Lock", 7),
}

var l1ExtendedLayout = field.Layout{
	field.Uint("ambiguity", 8),
	field.ScaledUint("l1CNR", 8, cnrScale),
}

var l2Layout = field.Layout{
	field.Uint("l2Code", 2),
	field.Int("l2Pseudorange", 14),
	field.Int("l2PhaseRange", 20),
	field.Uint("l2Lock", 7),
}

var l2ExtendedLayout = field.Layout{
	field.ScaledUint("l2CNR", 8, cnrScale),
}

// The code indicators.  L1 is 0 for C/A, 1 for P.  L2 is 0 for C/A or
// L2C, 1 for P, 2 for cross-correlated P(Y) and 3 for codeless.
var l1Codes = map[string]uint{"1C": 0, "1P": 1, "1W": 1, "1Y": 1, "1N": 1}
var l2Codes = map[string]uint{
	"2C": 0, "2S": 0, "2L": 0, "2X": 0,
	"2P": 1, "2Y": 1,
	"2D": 2,
	"2W": 3, "2N": 3,
}

// The signal codes that decoding reports for each code indicator.
var l1Decoded = []string{"1C", "1P"}
var l2Decoded = []string{"2X", "2P", "2D", "2W"}

// Header holds the values in the message header other than the satellite
// count, which is worked out from the observations.
type Header struct {
	StationID uint

	// EpochTime is the GPS time of week of the observations in
	// milliseconds.
	EpochTime uint

	Synchronous       bool
	DivergenceFree    bool
	SmoothingInterval uint
}

// Signal is the observation of one signal from one satellite.
type Signal struct {
	// Code is the RINEX signal code, for example "1C".
	Code string

	// PseudorangeM is the pseudorange in metres, modulo one light
	// millisecond in messages 1001 and 1003.  Zero means not available.
	PseudorangeM float64

	// PhaseRangeM is the carrier phase range in metres.  Zero means not
	// available.
	PhaseRangeM float64

	// LockTimeIndicator is the 7-bit lock time indicator.
	LockTimeIndicator uint

	// CNR is the carrier to noise ratio in dB-Hz, in messages 1002 and
	// 1004 only.
	CNR float64
}

// Satellite holds the observations of one satellite.
type Satellite struct {
	PRN uint
	L1  Signal

	// L2 is nil in messages 1001 and 1002 or when the message carries no
	// L2 measurements for the satellite.
	L2 *Signal
}

// Message contains a message of type 1001, 1002, 1003 or 1004.
type Message struct {
	// MessageType - uint12.
	MessageType uint

	Header

	Satellites []Satellite

	logLevel slog.Level
}

// Extended returns true for the message types that carry the ambiguity and
// the CNR.
func Extended(messageType int) bool {
	return messageType == utils.MessageType1002 || messageType == utils.MessageType1004
}

// DualFrequency returns true for the message types that carry L2.
func DualFrequency(messageType int) bool {
	return messageType == utils.MessageType1003 || messageType == utils.MessageType1004
}

// Observation returns true for message types 1001 to 1004.
func Observation(messageType int) bool {
	return messageType >= utils.MessageType1001 && messageType <= utils.MessageType1004
}

// satelliteLayout returns the layout of the block of one satellite.
func satelliteLayout(messageType int) field.Layout {
	layout := append(field.Layout{}, l1Layout...)
	if Extended(messageType) {
		layout = append(layout, l1ExtendedLayout...)
	}
	if DualFrequency(messageType) {
		layout = append(layout, l2Layout...)
		if Extended(messageType) {
			layout = append(layout, l2ExtendedLayout...)
		}
	}
	return layout
}

// Encode returns a frame of the given type, 1001 to 1004, carrying the GPS
// observations in the set.  A satellite is included if it has an L1
// pseudorange on a signal that the message can carry.  Satellites go in
// ascending PRN order.
func Encode(messageType int, header Header, observations gnss.ObservationSet) (string, error) {
	if !Observation(messageType) {
		return "", fmt.Errorf("%w: %d", ErrNotObservationMessage, messageType)
	}

	satellites := group(observations)
	if len(satellites) > maxSatellites {
		return "", fmt.Errorf("message type %d: %d satellites, at most %d allowed",
			messageType, len(satellites), maxSatellites)
	}

	var b bitstring.Builder
	b.AppendUnsigned(uint64(messageType), utils.MessageTypeLengthBits)

	headerValues := field.Values{
		"stationID":         float64(header.StationID),
		"epochTime":         float64(header.EpochTime),
		"synchronous":       flag(header.Synchronous),
		"satellites":        float64(len(satellites)),
		"divergenceFree":    flag(header.DivergenceFree),
		"smoothingInterval": float64(header.SmoothingInterval),
	}
	if err := headerLayout.Pack(&b, headerValues); err != nil {
		return "", fmt.Errorf("message type %d: %w", messageType, err)
	}

	layout := satelliteLayout(messageType)
	for _, sat := range satellites {
		if err := layout.Pack(&b, satelliteValues(sat)); err != nil {
			return "", fmt.Errorf("message type %d, satellite %d: %w", messageType, sat.prn, err)
		}
	}

	return frame.Wrap(b.String())
}

// Encode1001 returns a type 1001 frame for the reference station with the
// observations taken at the given GPS time of week in seconds.
func Encode1001(stationID uint, epochTimeS float64, observations gnss.ObservationSet) (string, error) {
	header := Header{
		StationID: stationID,
		EpochTime: uint(math.Round(epochTimeS * 1000)),
	}
	return Encode(utils.MessageType1001, header, observations)
}

// ReferenceFrame returns the type 1001 frame from station 0 at 25 seconds
// into the GPS week carrying one observation: satellite 2, signal 1C,
// pseudorange 20,000,000 m.
func ReferenceFrame() string {
	observations := gnss.ObservationSet{
		1: {System: gnss.GPS, PRN: 2, Signal: "1C", PseudorangeM: 20000000},
	}
	frame, _ := Encode1001(0, 25, observations)
	return frame
}

// Decode checks a hex frame and returns the observation message that it
// carries.
func Decode(hexFrame string, logLevel slog.Level) (*Message, error) {
	messageType, bits, err := frame.Unwrap(hexFrame)
	if err != nil {
		return nil, err
	}
	if !Observation(messageType) {
		return nil, fmt.Errorf("%w: expected message type 1001-1004 got %d",
			frame.ErrMessageType, messageType)
	}
	return GetMessage(messageType, bits, logLevel)
}

// GetMessage returns the message given its type and the payload bits that
// follow the message type.
func GetMessage(messageType int, bits string, logLevel slog.Level) (*Message, error) {
	r := bitstring.NewReader(bits)

	h, err := headerLayout.Unpack(r)
	if err != nil {
		return nil, fmt.Errorf("%w: message type %d header: %v",
			frame.ErrPayloadTooShort, messageType, err)
	}

	message := Message{
		MessageType: uint(messageType),
		Header: Header{
			StationID:         uint(h["stationID"]),
			EpochTime:         uint(h["epochTime"]),
			Synchronous:       h["synchronous"] == 1,
			DivergenceFree:    h["divergenceFree"] == 1,
			SmoothingInterval: uint(h["smoothingInterval"]),
		},
		logLevel: logLevel,
	}

	layout := satelliteLayout(messageType)
	count := int(h["satellites"])
	want := utils.MessageTypeLengthBits + headerLayout.Bits() + count*layout.Bits()
	if len(bits)+utils.MessageTypeLengthBits < want {
		return nil, fmt.Errorf("%w: overrun - expected %d bits in a message type %d with %d satellites, got %d",
			frame.ErrPayloadTooShort, want, messageType, count, len(bits)+utils.MessageTypeLengthBits)
	}

	message.Satellites = make([]Satellite, 0, count)
	for i := 0; i < count; i++ {
		v, err := layout.Unpack(r)
		if err != nil {
			return nil, err
		}
		message.Satellites = append(message.Satellites, satelliteFromValues(messageType, v))
	}

	return &message, nil
}

// Observations returns the contents of the message as an observation set
// with one entry per signal, numbered from 1 in message order.  Phase
// ranges are converted to cycles.
func (message *Message) Observations() gnss.ObservationSet {
	set := make(gnss.ObservationSet)
	channel := 1
	add := func(prn uint, s *Signal) {
		obs := gnss.Observation{
			System:       gnss.GPS,
			PRN:          prn,
			Signal:       s.Code,
			PseudorangeM: s.PseudorangeM,
			CNR0dBHz:     s.CNR,
			LockTimeS:    locktime.LegacySeconds(s.LockTimeIndicator),
		}
		if s.PhaseRangeM != 0 {
			obs.CarrierPhaseCycles = s.PhaseRangeM / gnss.Wavelength(gnss.GPS, s.Code, 0)
		}
		set[channel] = obs
		channel++
	}

	for i := range message.Satellites {
		sat := &message.Satellites[i]
		add(sat.PRN, &sat.L1)
		if sat.L2 != nil {
			add(sat.PRN, sat.L2)
		}
	}
	return set
}

// String returns a text version of the message.
func (message *Message) String() string {
	display := fmt.Sprintf("stationID %d, epoch time %d ms, synchronous %v, %d satellites\n",
		message.StationID, message.EpochTime, message.Synchronous, len(message.Satellites))

	if message.logLevel == slog.LevelDebug {
		display += fmt.Sprintf("divergence free %v, smoothing interval %d\n",
			message.DivergenceFree, message.SmoothingInterval)
	}

	for _, sat := range message.Satellites {
		display += fmt.Sprintf("G%02d %s\n", sat.PRN, sat.L1.String())
		if sat.L2 != nil {
			display += fmt.Sprintf("    %s\n", sat.L2.String())
		}
	}

	return display
}

// String returns a text version of the signal.
func (s *Signal) String() string {
	return fmt.Sprintf("%s range %.3f phase %.4f lock %d CNR %.2f",
		s.Code, s.PseudorangeM, s.PhaseRangeM, s.LockTimeIndicator, s.CNR)
}

// satellite gathers the signals of one satellite while encoding.
type satellite struct {
	prn uint
	l1  *gnss.Observation
	l2  *gnss.Observation
}

// group returns the GPS satellites in the set that have an L1 pseudorange,
// in ascending PRN order.  The first signal of each band in signal order
// is used.
func group(observations gnss.ObservationSet) []satellite {
	var list []satellite
	for _, obs := range observations.Filter(gnss.GPS) {
		obs := obs
		if len(list) == 0 || list[len(list)-1].prn != obs.PRN {
			list = append(list, satellite{prn: obs.PRN})
		}
		sat := &list[len(list)-1]
		if _, ok := l1Codes[obs.Signal]; ok && sat.l1 == nil && obs.PseudorangeM != 0 {
			sat.l1 = &obs
		}
		if _, ok := l2Codes[obs.Signal]; ok && sat.l2 == nil {
			sat.l2 = &obs
		}
	}

	satellites := make([]satellite, 0, len(list))
	for _, sat := range list {
		if sat.l1 != nil {
			satellites = append(satellites, sat)
		}
	}
	return satellites
}

// satelliteValues returns the raw field values of one satellite.  Every
// message type's values are produced; the layout picks the ones it needs.
func satelliteValues(sat satellite) field.Values {
	lambda1 := gnss.Wavelength(gnss.GPS, "1C", 0)
	lambda2 := gnss.Wavelength(gnss.GPS, "2C", 0)

	l1 := sat.l1
	ambiguity := math.Floor(l1.PseudorangeM / utils.OneLightMillisecond)
	pr1 := math.Round((l1.PseudorangeM - ambiguity*utils.OneLightMillisecond) / pseudorangeScale)
	pr1c := pr1*pseudorangeScale + ambiguity*utils.OneLightMillisecond

	v := field.Values{
		"prn":           float64(sat.prn),
		"l1Code":        float64(l1Codes[l1.Signal]),
		"l1Pseudorange": pr1,
		"l1PhaseRange":  invalidPhaseRange,
		"l1Lock":        float64(locktime.Legacy(l1.LockTimeS)),
		"ambiguity":     ambiguity,
		"l1CNR":         cnr(l1.CNR0dBHz),
		"l2Code":        0,
		"l2Pseudorange": invalidL2Pseudorange,
		"l2PhaseRange":  invalidPhaseRange,
		"l2Lock":        0,
		"l2CNR":         0,
	}

	if l1.CarrierPhaseCycles != 0 {
		v["l1PhaseRange"] = phaseRange(l1.CarrierPhaseCycles, pr1c, lambda1)
	}

	if l2 := sat.l2; l2 != nil {
		v["l2Code"] = float64(l2Codes[l2.Signal])
		v["l2Lock"] = float64(locktime.Legacy(l2.LockTimeS))
		v["l2CNR"] = cnr(l2.CNR0dBHz)
		if l2.PseudorangeM != 0 && math.Abs(l2.PseudorangeM-pr1c) <= maxL2Difference {
			v["l2Pseudorange"] = math.Round((l2.PseudorangeM - pr1c) / pseudorangeScale)
		}
		if l2.CarrierPhaseCycles != 0 {
			v["l2PhaseRange"] = phaseRange(l2.CarrierPhaseCycles, pr1c, lambda2)
		}
	}

	return v
}

// phaseRange returns the raw phase range minus pseudorange.  The
// difference is taken in cycles and wrapped into +/-750 cycles.
func phaseRange(cycles, pseudorange, lambda float64) float64 {
	diff := cycles - pseudorange/lambda
	diff -= 2 * phaseWrapCycles * math.Floor((diff+phaseWrapCycles)/(2*phaseWrapCycles))
	return math.Round(diff * lambda / phaseRangeScale)
}

func cnr(dbHz float64) float64 {
	switch {
	case dbHz < 0:
		return 0
	case dbHz > maxCNR:
		return maxCNR
	}
	return dbHz
}

// satelliteFromValues builds a satellite from the fields of its block.
func satelliteFromValues(messageType int, v field.Values) Satellite {
	pr1 := v["l1Pseudorange"] * pseudorangeScale
	if Extended(messageType) {
		pr1 += v["ambiguity"] * utils.OneLightMillisecond
	}

	sat := Satellite{
		PRN: uint(v["prn"]),
		L1: Signal{
			Code:              l1Decoded[int(v["l1Code"])],
			PseudorangeM:      pr1,
			LockTimeIndicator: uint(v["l1Lock"]),
			CNR:               v["l1CNR"],
		},
	}
	if v["l1PhaseRange"] != invalidPhaseRange {
		sat.L1.PhaseRangeM = pr1 + v["l1PhaseRange"]*phaseRangeScale
	}

	if !DualFrequency(messageType) {
		return sat
	}
	if v["l2Pseudorange"] == invalidL2Pseudorange && v["l2PhaseRange"] == invalidPhaseRange {
		return sat
	}

	l2 := Signal{
		Code:              l2Decoded[int(v["l2Code"])],
		LockTimeIndicator: uint(v["l2Lock"]),
		CNR:               v["l2CNR"],
	}
	if v["l2Pseudorange"] != invalidL2Pseudorange {
		l2.PseudorangeM = pr1 + v["l2Pseudorange"]*pseudorangeScale
	}
	if v["l2PhaseRange"] != invalidPhaseRange {
		l2.PhaseRangeM = pr1 + v["l2PhaseRange"]*phaseRangeScale
	}
	sat.L2 = &l2

	return sat
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
