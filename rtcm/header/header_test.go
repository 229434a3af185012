package header

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kylelemons/godebug/diff"

	"github.com/goblimey/rtcm3codec/rtcm/bitstring"
	"github.com/goblimey/rtcm3codec/rtcm/frame"
)

// TestNew checks that New creates a header correctly.
func TestNew(t *testing.T) {

	const wantSatelliteMask = 3
	const wantSignalMask = 7
	const wantCellMask = 0x25
	const wantMessageType = 1074
	const wantStationID = 1
	const wantEpochTime = 2 * 1000 // 2 seconds.
	const wantIssue = 3
	const wantTransTime = 4
	const wantClockSteeringIndicator = 2
	const wantExternalClockIndicator = 1
	const wantSmoothingInterval = 7

	got := New(wantMessageType, wantStationID, wantEpochTime, true,
		wantIssue, wantTransTime, wantClockSteeringIndicator,
		wantExternalClockIndicator, true, wantSmoothingInterval,
		wantSatelliteMask, wantSignalMask, wantCellMask)

	want := &Header{
		MessageType:                          wantMessageType,
		Constellation:                        "GPS",
		StationID:                            wantStationID,
		EpochTime:                            wantEpochTime,
		MultipleMessage:                      true,
		IssueOfDataStation:                   wantIssue,
		SessionTransmissionTime:              wantTransTime,
		ClockSteeringIndicator:               wantClockSteeringIndicator,
		ExternalClockIndicator:               wantExternalClockIndicator,
		GNSSDivergenceFreeSmoothingIndicator: true,
		GNSSSmoothingInterval:                wantSmoothingInterval,
		SatelliteMask:                        wantSatelliteMask,
		SignalMask:                           wantSignalMask,
		CellMask:                             wantCellMask,
		Satellites:                           []uint{63, 64},
		Signals:                              []uint{30, 31, 32},
		// 100 101
		Cells:          [][]bool{{true, false, false}, {true, false, true}},
		NumSignalCells: 3,
	}

	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}
}

// TestGetMSMHeader checks that a header written by Encode is read back by
// GetMSMHeader.
func TestGetMSMHeader(t *testing.T) {

	// Satellites 60, 61, 62 and 64, signals 27, 29 and 31.  The cell mask
	// is 4X3 bits - 111, 110, 000, 001.
	satellites := []uint{60, 61, 62, 64}
	signals := []uint{27, 29, 31}
	cells := [][]bool{
		{true, true, true}, {true, true, false},
		{false, false, false}, {false, false, true},
	}

	want := New(1077, 1, 2, true, 3, 4, 2, 1, true, 5,
		BuildSatelliteMask(satellites), BuildSignalMask(signals), BuildCellMask(cells))

	if d := cmp.Diff(satellites, want.Satellites); d != "" {
		t.Errorf("satellites (-want +got):\n%s", d)
	}
	if d := cmp.Diff(signals, want.Signals); d != "" {
		t.Errorf("signals (-want +got):\n%s", d)
	}
	if d := cmp.Diff(cells, want.Cells); d != "" {
		t.Errorf("cells (-want +got):\n%s", d)
	}
	if want.NumSignalCells != 6 {
		t.Errorf("want 6 signal cells got %d", want.NumSignalCells)
	}

	var b bitstring.Builder
	if err := want.Encode(&b); err != nil {
		t.Fatal(err)
	}

	// 169 fixed bits plus 12 bits of cell mask.
	const wantLength = 181
	if b.Len() != wantLength {
		t.Errorf("want %d bits got %d", wantLength, b.Len())
	}

	// Add some satellite data after the header.
	b.AppendBits("1010")

	r := bitstring.NewReader(b.String()[12:])
	got, err := GetMSMHeader(1077, r)
	if err != nil {
		t.Fatal(err)
	}

	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}

	if r.Remaining() != 4 {
		t.Errorf("want the reader positioned at the satellite data, %d bits remain", r.Remaining())
	}
}

// TestGetMSMHeaderErrors checks the failures of GetMSMHeader.
func TestGetMSMHeaderErrors(t *testing.T) {

	fullHeader := func(satellites []uint, signals []uint) string {
		var b bitstring.Builder
		b.AppendUnsigned(0, 157-64-32)
		b.AppendUnsigned(BuildSatelliteMask(satellites), 64)
		b.AppendUnsigned(uint64(BuildSignalMask(signals)), 32)
		return b.String()
	}

	// 17 satellites and 4 signals need a cell mask of 68 bits.
	var many []uint
	for i := uint(1); i <= 17; i++ {
		many = append(many, i)
	}

	var testData = []struct {
		Description string
		MessageType int
		Bits        string
		Want        error
	}{
		{"not an MSM", 1005, fullHeader([]uint{1}, []uint{2}), frame.ErrMessageType},
		{"MSM8", 1078, fullHeader([]uint{1}, []uint{2}), frame.ErrMessageType},
		{"short", 1074, fullHeader([]uint{1}, []uint{2})[:100], frame.ErrPayloadTooShort},
		{"no cell mask", 1074, fullHeader([]uint{1, 2}, []uint{2, 3}), frame.ErrPayloadTooShort},
		{"cell mask too long", 1077, fullHeader(many, []uint{1, 2, 3, 4}), ErrCellMaskTooLong},
	}

	for _, td := range testData {
		_, err := GetMSMHeader(td.MessageType, bitstring.NewReader(td.Bits))
		if !errors.Is(err, td.Want) {
			t.Errorf("%s: want %v got %v", td.Description, td.Want, err)
		}
	}
}

// TestEncodeErrors checks that a header that can't be sent is rejected.
func TestEncodeErrors(t *testing.T) {
	var many []uint
	for i := uint(1); i <= 17; i++ {
		many = append(many, i)
	}
	signals := []uint{2, 3, 4, 5}

	var b bitstring.Builder
	h := New(1077, 1, 0, false, 0, 0, 0, 0, false, 0,
		BuildSatelliteMask(many), BuildSignalMask(signals), 0)
	err := h.Encode(&b)
	if !errors.Is(err, ErrCellMaskTooLong) {
		t.Errorf("want ErrCellMaskTooLong got %v", err)
	}

	h = New(1077, 4096, 0, false, 0, 0, 0, 0, false, 0, 1, 1, 1)
	if err := h.Encode(&b); err == nil {
		t.Error("expected an error for station 4096")
	}

	h = New(1005, 1, 0, false, 0, 0, 0, 0, false, 0, 1, 1, 1)
	if err := h.Encode(&b); err == nil {
		t.Error("expected an error for message type 1005")
	}
}

// TestString checks the String function.
func TestString(t *testing.T) {

	const satMask = 3
	const sigMask = 7
	const cellMask = 1

	const wantGPSDisplay = `type 1074 GPS Full Pseudoranges and PhaseRanges plus CNR
epoch time 2000 (0d 0h 0m 2s 0ms)
stationID 2, single message, issue of data station 1
session transmit time 5, clock steering 3, external clock 2
divergence free smoothing true, smoothing interval 7
2 satellites, 3 signal types, 1 signals
`

	const wantGlonassDisplay = `type 1087 GLONASS Full Pseudoranges, PhaseRanges, PhaseRangeRate and CNR (high resolution)
epoch time 134337728 (1d 0h 2m 0s 0ms)
stationID 2, multiple message, issue of data station 1
session transmit time 5, clock steering 3, external clock 2
divergence free smoothing true, smoothing interval 7
2 satellites, 3 signal types, 1 signals
`

	const wantIllegalDisplay = `type 1081 GLONASS Compact Pseudoranges
epoch time 939524096 - illegal timestamp
stationID 2, single message, issue of data station 1
session transmit time 5, clock steering 3, external clock 2
divergence free smoothing true, smoothing interval 7
2 satellites, 3 signal types, 1 signals
`

	var testData = []struct {
		Description string
		Header      *Header
		Want        string
	}{
		{
			"GPS",
			New(1074, 2, 2000, false, 1, 5, 3, 2, true, 7, satMask, sigMask, cellMask),
			wantGPSDisplay,
		},
		{
			"GLONASS",
			New(1087, 2, uint(1<<27)+(2*60*1000), true, 1, 5, 3, 2, true, 7, satMask, sigMask, cellMask),
			wantGlonassDisplay,
		},
		{
			"illegal GLONASS day",
			New(1081, 2, uint(7<<27), false, 1, 5, 3, 2, true, 7, satMask, sigMask, cellMask),
			wantIllegalDisplay,
		},
	}

	for _, td := range testData {
		got := td.Header.String()
		if got != td.Want {
			t.Errorf("%s: %s", td.Description, diff.Diff(td.Want, got))
		}
	}
}

// TestEpochTime checks the conversion of GPS time of week to the epoch
// time of each constellation and back.
func TestEpochTime(t *testing.T) {

	var testData = []struct {
		Description string
		MessageType int
		TimeOfWeek  float64
		Want        uint
	}{
		{"GPS", 1071, 25, 25000},
		{"Galileo", 1097, 604799.999, 604799999},
		{"QZSS", 1115, 100.5, 100500},
		{"SBAS", 1103, 0, 0},
		{"BeiDou", 1121, 25, 11000},
		{"BeiDou previous week", 1127, 5, 604791000},
		// 25 seconds into the GPS week is 10807 seconds into Sunday in
		// Moscow.
		{"GLONASS", 1081, 25, 10807000},
		// Late on Saturday in GPS time is early Sunday in Moscow.
		{"GLONASS next week", 1087, 6*86400 + 80000, 4382000},
		// Monday in Moscow.
		{"GLONASS Monday", 1084, 86400, 1<<27 + 10782000},
	}

	for _, td := range testData {
		got := EpochTime(td.MessageType, td.TimeOfWeek)
		if got != td.Want {
			t.Errorf("%s: want %d got %d", td.Description, td.Want, got)
			continue
		}

		back, ok := GPSTimeOfWeek(td.MessageType, got)
		if !ok {
			t.Errorf("%s: %d not legal", td.Description, got)
			continue
		}
		if d := back - td.TimeOfWeek; d > 0.0005 || d < -0.0005 {
			t.Errorf("%s: want time of week %f got %f", td.Description, td.TimeOfWeek, back)
		}
	}

	if _, ok := GPSTimeOfWeek(1087, 7<<27); ok {
		t.Error("expected GLONASS day 7 to be illegal")
	}
}

// TestGetSatellites checks that getSatellites deciphers a bit mask correctly.
func TestGetSatellites(t *testing.T) {
	// 1    5    9    13   17   21   25   29   33   37   41   45   49   53   57   61
	// 1000 0000 0000 0000 0100 0000 0000 0000 0100 0000 0000 0000 0000 0000 0000 0010
	const satMask = 0x8000400040000002
	want := []uint{1, 18, 34, 63}

	got := getSatellites(satMask)

	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}

	if back := BuildSatelliteMask(got); back != satMask {
		t.Errorf("want %x got %x", uint64(satMask), back)
	}
}

// TestGetSignals checks that getSignals deciphers a bit mask correctly.
func TestGetSignals(t *testing.T) {
	// 1    5    9    13   17   21   25   29
	// 0100 0000 0000 0000 1111 0000 0000 0001
	const sigMask = 0x4000f001
	want := []uint{2, 17, 18, 19, 20, 32}

	got := getSignals(sigMask)

	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}

	if back := BuildSignalMask(got); back != sigMask {
		t.Errorf("want %x got %x", uint32(sigMask), back)
	}
}

// TestGetCells checks that getCells deciphers a bit mask correctly.
func TestGetCells(t *testing.T) {

	// A 4X2 mask - 00 01 10 11.
	const cellMask uint64 = 0x1b
	want := [][]bool{
		{false, false},
		{false, true},
		{true, false},
		{true, true},
	}

	got := getCells(cellMask, 4, 2)

	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("(-want +got):\n%s", d)
	}

	if back := BuildCellMask(got); back != cellMask {
		t.Errorf("want %x got %x", cellMask, back)
	}
}
