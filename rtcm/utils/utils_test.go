package utils

import (
	"testing"
)

// TestMSMLevel checks that MSMLevel recognises MSM types for every
// supported constellation and rejects the rest.
func TestMSMLevel(t *testing.T) {
	var testData = []struct {
		MessageType int
		Want        int
	}{
		{1071, 1},
		{1074, 4},
		{1077, 7},
		{1081, 1},
		{1087, 7},
		{1094, 4},
		{1105, 5},
		{1116, 6},
		{1127, 7},
		{1070, 0},
		{1078, 0},
		{1079, 0},
		{1130, 0},
		{1005, 0},
		{1019, 0},
		{NonRTCMMessage, 0},
	}

	for _, td := range testData {
		got := MSMLevel(td.MessageType)
		if got != td.Want {
			t.Errorf("%d: want %d got %d", td.MessageType, td.Want, got)
		}
		if MSM(td.MessageType) != (td.Want > 0) {
			t.Errorf("%d: MSM returned %v", td.MessageType, MSM(td.MessageType))
		}
	}

	if !MSM4(MessageTypeMSM4Galileo) || MSM4(MessageTypeMSM7Galileo) {
		t.Error("MSM4 misclassified a Galileo message")
	}
	if !MSM7(MessageTypeMSM7Beidou) || MSM7(MessageTypeMSM4Beidou) {
		t.Error("MSM7 misclassified a BeiDou message")
	}
}

// TestGetConstellation checks that the constellation is derived from the
// MSM message type.
func TestGetConstellation(t *testing.T) {
	var testData = []struct {
		MessageType int
		Want        string
	}{
		{1071, "GPS"},
		{1087, "GLONASS"},
		{1093, "Galileo"},
		{1104, "SBAS"},
		{1117, "QZSS"},
		{1122, "BeiDou"},
		{1005, "unknown constellation"},
		{1137, "unknown constellation"},
	}

	for _, td := range testData {
		got := GetConstellation(td.MessageType)
		if got != td.Want {
			t.Errorf("%d: want %s got %s", td.MessageType, td.Want, got)
		}
	}
}

// TestGetBits checks GetBitsAsUint64.
func TestGetBits(t *testing.T) {
	// 1111 1111 0000 0001 1000 0000 0101 0110
	buff := []byte{0xff, 0x01, 0x80, 0x56}

	var testData = []struct {
		Pos      uint
		Len      uint
		WantUint uint64
	}{
		{0, 8, 0xff},
		{0, 4, 0xf},
		{8, 8, 1},
		{15, 2, 3},
		{16, 1, 1},
		{16, 8, 0x80},
		{24, 8, 0x56},
		{4, 8, 0xf0},
		{0, 32, 0xff018056},
	}

	for _, td := range testData {
		gotUint := GetBitsAsUint64(buff, td.Pos, td.Len)
		if gotUint != td.WantUint {
			t.Errorf("(%d,%d): want 0x%x got 0x%x", td.Pos, td.Len, td.WantUint, gotUint)
		}
	}
}

// TestParseTimestamp checks that timestamps are broken into days and
// milliseconds.
func TestParseTimestamp(t *testing.T) {
	var testData = []struct {
		Constellation string
		Timestamp     uint
		WantDays      uint
		WantMillis    uint
		WantOK        bool
	}{
		{"GPS", 0, 0, 0, true},
		{"GPS", MillisIn24Hours + 5, 1, 5, true},
		{"GPS", MaxTimestamp, 6, MillisIn24Hours - 1, true},
		{"GPS", MaxTimestamp + 1, 0, 0, false},
		{"GLONASS", (2 << 27) + 7, 2, 7, true},
		{"GLONASS", MaxTimestampGlonass, 6, MillisIn24Hours - 1, true},
		{"GLONASS", (1 << 27) + MillisIn24Hours, 0, 0, false},
		{"GLONASS", GlonassInvalidDay << 27, 0, 0, false},
		{"GLONASS", (GlonassInvalidDay << 27) + 5, 0, 0, false},
		{"GLONASS", 1 << 30, 0, 0, false},
	}

	for _, td := range testData {
		days, millis, ok := ParseTimestamp(td.Constellation, td.Timestamp)
		if ok != td.WantOK || days != td.WantDays || millis != td.WantMillis {
			t.Errorf("%s %d: want (%d, %d, %v) got (%d, %d, %v)",
				td.Constellation, td.Timestamp,
				td.WantDays, td.WantMillis, td.WantOK, days, millis, ok)
		}
	}
}

// TestRound checks that Round goes half away from zero.
func TestRound(t *testing.T) {
	var testData = []struct {
		X    float64
		Want int64
	}{
		{0.5, 1},
		{-0.5, -1},
		{1.49, 1},
		{-1.51, -2},
		{11141045999.0, 11141045999},
	}

	for _, td := range testData {
		if got := Round(td.X); got != td.Want {
			t.Errorf("%f: want %d got %d", td.X, td.Want, got)
		}
	}
}

// TestEqualWithin checks the EqualWithin test helper function.
func TestEqualWithin(t *testing.T) {

	var testData = []struct {
		N    uint
		F1   float64
		F2   float64
		Want bool
	}{
		{0, 100.1, 100.04, true},
		{1, 0.01, 0.04, true},
		{1, 0.01, 0.09, false}, // 0.09 will b rounded up to 0.1.
		{1, 0.5, 0.6, false},
		{1, 1, 2, false},
		{2, 1.111, 1.113, true},
		{2, 2.222, 2.232, false},
		{3, 9.9991, 9.9992, true},
	}

	for _, td := range testData {
		got := EqualWithin(td.N, td.F1, td.F2)

		if got != td.Want {
			t.Errorf("%d %f %f: want %v, got %v",
				td.N, td.F1, td.F2, td.Want, got)
		}
	}
}
