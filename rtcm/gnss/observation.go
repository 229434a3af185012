package gnss

import (
	"sort"

	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// System letters as used in RINEX.
const (
	GPS     byte = 'G'
	Glonass byte = 'R'
	Galileo byte = 'E'
	SBAS    byte = 'S'
	QZSS    byte = 'J'
	Beidou  byte = 'C'
)

// systemOrder gives the order of the constellations in a sorted
// observation set, the same order as their MSM message numbers.
var systemOrder = map[byte]int{
	GPS:     1,
	Glonass: 2,
	Galileo: 3,
	SBAS:    4,
	QZSS:    5,
	Beidou:  6,
}

// Observation is one satellite signal as measured by one tracking channel.
// A zero measurement is treated as absent.
type Observation struct {
	System byte   // 'G', 'R', 'E', 'S', 'J' or 'C'
	PRN    uint   // satellite number within the constellation
	Signal string // RINEX signal code, for example "1C" or "2S"

	PseudorangeM       float64
	CarrierPhaseCycles float64
	DopplerHz          float64
	CNR0dBHz           float64

	// LockTimeS is the time in seconds that the carrier phase has been
	// tracked without a cycle slip.
	LockTimeS float64

	HalfCycleAmbiguity bool

	// GlonassFrequencyChannel is the GLONASS FDMA channel number, -7 to 6.
	// It's only meaningful if GlonassChannelKnown is set.  Without it a
	// GLONASS carrier wavelength is unknown, so the carrier phase and doppler
	// can't be converted.
	GlonassFrequencyChannel int
	GlonassChannelKnown     bool
}

// ObservationSet maps tracking channel numbers to observations.
type ObservationSet map[int]Observation

// Sorted returns the observations in ascending order of constellation,
// satellite number and MSM signal ID, so that encoding does not depend on
// map order.  Signals with no MSM ID sort after the rest, by code.
func (set ObservationSet) Sorted() []Observation {
	list := make([]Observation, 0, len(set))
	for _, obs := range set {
		list = append(list, obs)
	}

	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.System != b.System {
			return systemRank(a.System) < systemRank(b.System)
		}
		if a.PRN != b.PRN {
			return a.PRN < b.PRN
		}
		ida, idb := signalRank(a.System, a.Signal), signalRank(b.System, b.Signal)
		if ida != idb {
			return ida < idb
		}
		return a.Signal < b.Signal
	})

	return list
}

// Filter returns the observations in the set of one constellation, sorted.
func (set ObservationSet) Filter(system byte) []Observation {
	list := make([]Observation, 0, len(set))
	for _, obs := range set.Sorted() {
		if obs.System == system {
			list = append(list, obs)
		}
	}
	return list
}

// MSMBase returns the number from which the MSM message types of the
// constellation are counted, for example 1070 for GPS.
func MSMBase(system byte) (int, bool) {
	switch system {
	case GPS:
		return utils.MSMBaseGPS, true
	case Glonass:
		return utils.MSMBaseGlonass, true
	case Galileo:
		return utils.MSMBaseGalileo, true
	case SBAS:
		return utils.MSMBaseSBAS, true
	case QZSS:
		return utils.MSMBaseQZSS, true
	case Beidou:
		return utils.MSMBaseBeidou, true
	}
	return 0, false
}

// SystemFromMessageType returns the system letter given an MSM message
// type.
func SystemFromMessageType(messageType int) (byte, bool) {
	if !utils.MSM(messageType) {
		return 0, false
	}
	for system := range systemOrder {
		base, _ := MSMBase(system)
		if messageType-messageType%10 == base {
			return system, true
		}
	}
	return 0, false
}

func systemRank(system byte) int {
	if rank, ok := systemOrder[system]; ok {
		return rank
	}
	return len(systemOrder) + int(system)
}

func signalRank(system byte, code string) int {
	if id := MSMSignalID(system, code); id > 0 {
		return id
	}
	return maxSignalID + 1
}
