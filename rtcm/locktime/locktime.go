// The locktime package converts between the time that a receiver has held
// carrier phase lock on a signal and the lock time indicators that RTCM3
// carries.  Each indicator is a compressed, lossy form of the lock time:
// the resolution gets coarser as the lock time grows.  Decoding gives the
// smallest lock time that produces the indicator.
package locktime

import "math"

// MaxLegacy is the largest 7-bit indicator used by messages 1001-1012.
const MaxLegacy = 127

// MaxMSM is the largest 4-bit indicator used by MSM1 to MSM5.
const MaxMSM = 15

// MaxExtended is the largest 10-bit extended resolution indicator used by
// MSM6 and MSM7.
const MaxExtended = 704

// Legacy returns the 7-bit lock time indicator of messages 1001 to 1004
// for a lock time in seconds.
func Legacy(seconds float64) uint {
	if seconds < 0 {
		return 0
	}
	lock := int(seconds)
	switch {
	case lock < 24:
		return uint(lock)
	case lock < 72:
		return uint((lock + 24) / 2)
	case lock < 168:
		return uint((lock + 120) / 4)
	case lock < 360:
		return uint((lock + 408) / 8)
	case lock < 744:
		return uint((lock + 1176) / 16)
	case lock < 937:
		return uint((lock + 3096) / 32)
	}
	return MaxLegacy
}

// LegacySeconds returns the lock time in seconds given a 7-bit indicator.
func LegacySeconds(indicator uint) float64 {
	i := int(indicator)
	switch {
	case i < 24:
		return float64(i)
	case i < 48:
		return float64(2*i - 24)
	case i < 72:
		return float64(4*i - 120)
	case i < 96:
		return float64(8*i - 408)
	case i < 120:
		return float64(16*i - 1176)
	case i < MaxLegacy:
		return float64(32*i - 3096)
	}
	return 937
}

// MSM returns the 4-bit lock time indicator for a lock time in seconds.
// Indicator i means a lock time of at least 32 * 2^(i-1) ms.
func MSM(seconds float64) uint {
	if seconds < 0.032 {
		return 0
	}
	for i := uint(1); i < MaxMSM; i++ {
		if seconds < 0.032*math.Pow(2, float64(i)) {
			return i
		}
	}
	return MaxMSM
}

// MSMSeconds returns the lock time in seconds given a 4-bit indicator.
func MSMSeconds(indicator uint) float64 {
	if indicator == 0 {
		return 0
	}
	if indicator > MaxMSM {
		indicator = MaxMSM
	}
	return 0.032 * math.Pow(2, float64(indicator-1))
}

// Extended returns the 10-bit extended resolution lock time indicator for a
// lock time in seconds.  Below 64 ms the indicator is the lock time in ms.
// Above that, in the band from 64 * 2^(k-1) ms to 64 * 2^k ms, it's
// ms / 2^k + 32k.
func Extended(seconds float64) uint {
	if seconds < 0 {
		return 0
	}
	ms := int64(seconds * 1000)
	if ms < 64 {
		return uint(ms)
	}
	for k := int64(1); k <= 20; k++ {
		if ms < 64<<k {
			return uint(ms>>k + 32*k)
		}
	}
	return MaxExtended
}

// ExtendedSeconds returns the lock time in seconds given a 10-bit extended
// resolution indicator.
func ExtendedSeconds(indicator uint) float64 {
	if indicator > MaxExtended {
		indicator = MaxExtended
	}
	if indicator < 64 {
		return float64(indicator) / 1000
	}
	k := int64(indicator)/32 - 1
	ms := (int64(indicator) - 32*k) << k
	return float64(ms) / 1000
}
