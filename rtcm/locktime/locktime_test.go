package locktime

import (
	"testing"
)

// TestLegacy checks the 7-bit indicator at the band edges.
func TestLegacy(t *testing.T) {
	var testData = []struct {
		Seconds float64
		Want    uint
	}{
		{-1, 0},
		{0, 0},
		{23.9, 23},
		{24, 24},
		{71, 47},
		{72, 48},
		{168, 72},
		{360, 96},
		{744, 120},
		{936, 126},
		{937, 127},
		{100000, 127},
	}

	for _, td := range testData {
		got := Legacy(td.Seconds)
		if got != td.Want {
			t.Errorf("%f: want %d got %d", td.Seconds, td.Want, got)
		}
	}
}

// TestLegacyRoundTrip checks that every indicator decodes to a lock time
// that encodes back to the same indicator.
func TestLegacyRoundTrip(t *testing.T) {
	for i := uint(0); i <= MaxLegacy; i++ {
		seconds := LegacySeconds(i)
		if got := Legacy(seconds); got != i {
			t.Errorf("%d: %f seconds gives %d", i, seconds, got)
		}
	}
}

// TestMSM checks the 4-bit indicator.
func TestMSM(t *testing.T) {
	var testData = []struct {
		Seconds float64
		Want    uint
	}{
		{0, 0},
		{0.031, 0},
		{0.032, 1},
		{0.063, 1},
		{0.064, 2},
		{1, 6},
		{524.287, 14},
		{524.288, 15},
		{3600, 15},
	}

	for _, td := range testData {
		got := MSM(td.Seconds)
		if got != td.Want {
			t.Errorf("%f: want %d got %d", td.Seconds, td.Want, got)
		}
	}

	for i := uint(0); i <= MaxMSM; i++ {
		if got := MSM(MSMSeconds(i)); got != i {
			t.Errorf("%d: round trip gives %d", i, got)
		}
	}
}

// TestExtended checks the 10-bit extended resolution indicator.
func TestExtended(t *testing.T) {
	var testData = []struct {
		Seconds float64
		Want    uint
	}{
		{-0.5, 0},
		{0, 0},
		{0.063, 63},
		{0.064, 64},
		{0.127, 95},
		{0.128, 96},
		{1, 126},
		{67108.863, 703},
		{67108.864, 704},
		{1e9, 704},
	}

	for _, td := range testData {
		got := Extended(td.Seconds)
		if got != td.Want {
			t.Errorf("%f: want %d got %d", td.Seconds, td.Want, got)
		}
	}

	for i := uint(0); i <= MaxExtended; i++ {
		seconds := ExtendedSeconds(i)
		if got := Extended(seconds); got != i {
			t.Errorf("%d: %f seconds gives %d", i, seconds, got)
		}
	}
}
