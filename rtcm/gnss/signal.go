package gnss

import (
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// maxSignalID is the number of bits in the MSM signal mask.
const maxSignalID = 32

// The MSM signal IDs of each constellation.  The ID is the index plus one.
// An empty string is a reserved ID.
var msmSignals = map[byte][maxSignalID]string{
	GPS: {
		"", "1C", "1P", "1W", "", "", "", "2C", "2P", "2W", "", "", "", "", "2S", "2L",
		"2X", "", "", "", "", "5I", "5Q", "5X", "", "", "", "", "", "1S", "1L", "1X",
	},
	Glonass: {
		"", "1C", "1P", "", "", "", "", "2C", "2P",
	},
	Galileo: {
		"", "1C", "1A", "1B", "1X", "1Z", "", "6C", "6A", "6B", "6X", "6Z", "", "7I", "7Q", "7X",
		"", "8I", "8Q", "8X", "", "5I", "5Q", "5X",
	},
	SBAS: {
		"", "1C", "", "", "", "", "", "", "", "", "", "", "", "", "", "",
		"", "", "", "", "", "5I", "5Q", "5X",
	},
	QZSS: {
		"", "1C", "", "", "", "", "", "", "6S", "6L", "6X", "", "", "", "2S", "2L",
		"2X", "", "", "", "", "5I", "5Q", "5X", "", "", "", "", "", "1S", "1L", "1X",
	},
	Beidou: {
		"", "2I", "2Q", "2X", "", "", "", "6I", "6Q", "6X", "", "", "", "7I", "7Q", "7X",
	},
}

// MSMSignalID returns the MSM signal ID (1-32) of a signal code in a
// constellation, or 0 if the signal has no ID.
func MSMSignalID(system byte, code string) int {
	table, ok := msmSignals[system]
	if !ok || code == "" {
		return 0
	}
	for i, c := range table {
		if c == code {
			return i + 1
		}
	}
	return 0
}

// MSMSignalCode returns the signal code given an MSM signal ID, or an empty
// string if the ID is reserved.
func MSMSignalCode(system byte, id int) string {
	table, ok := msmSignals[system]
	if !ok || id < 1 || id > maxSignalID {
		return ""
	}
	return table[id-1]
}

// Frequency returns the carrier frequency in Hz of a signal, or 0 if it's
// not known.  The GLONASS frequency depends on the FDMA channel.
func Frequency(system byte, code string, glonassChannel int) float64 {
	if code == "" {
		return 0
	}

	switch system {
	case Glonass:
		switch code[0] {
		case '1':
			return utils.FreqL1Glonass + float64(glonassChannel)*utils.BiasFreq1Glo
		case '2':
			return utils.FreqL2Glonass + float64(glonassChannel)*utils.BiasFreq2Glo
		}
		return 0
	case Beidou:
		switch code[0] {
		case '2':
			return utils.FreqB1Beidou
		case '6':
			return utils.FreqB3Beidou
		case '7':
			return utils.Freq7
		}
		return 0
	}

	switch code[0] {
	case '1':
		return utils.Freq1
	case '2':
		return utils.Freq2
	case '5':
		return utils.Freq5
	case '6':
		return utils.Freq6
	case '7':
		return utils.Freq7
	case '8':
		return utils.Freq8
	}
	return 0
}

// Wavelength returns the carrier wavelength in metres of a signal, or 0 if
// the frequency is not known.
func Wavelength(system byte, code string, glonassChannel int) float64 {
	f := Frequency(system, code, glonassChannel)
	if f == 0 {
		return 0
	}
	return utils.SpeedOfLightMS / f
}
