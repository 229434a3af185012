package type1001

import (
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/kylelemons/godebug/diff"

	"github.com/goblimey/rtcm3codec/rtcm/crc"
	"github.com/goblimey/rtcm3codec/rtcm/frame"
	"github.com/goblimey/rtcm3codec/rtcm/gnss"
	"github.com/goblimey/rtcm3codec/rtcm/testdata"
	"github.com/goblimey/rtcm3codec/rtcm/utils"
)

// The pseudoranges travel in 2 cm units and the phase ranges in 0.5 mm
// units, so after a round trip they are within 1 cm of the originals.
var approx = cmpopts.EquateApprox(0, 0.011)

var lambda1 = utils.SpeedOfLightMS / utils.Freq1
var lambda2 = utils.SpeedOfLightMS / utils.Freq2

// observations returns a set with three GPS satellites: G3 with P code on
// L1 and an L2C pseudorange, G5 with full L1 and L2 observations and G12
// with an L1 pseudorange only.  There is also a GLONASS observation, which
// the legacy messages can't carry.
func observations() gnss.ObservationSet {
	return gnss.ObservationSet{
		7: {System: gnss.GPS, PRN: 12, Signal: "1C", PseudorangeM: 23456789.987},
		1: {System: gnss.GPS, PRN: 5, Signal: "1C", PseudorangeM: 21000000.123,
			CarrierPhaseCycles: 21000000.123/lambda1 + 10.25, LockTimeS: 100, CNR0dBHz: 45.25},
		2: {System: gnss.GPS, PRN: 5, Signal: "2W", PseudorangeM: 21000003.5,
			CarrierPhaseCycles: 21000003.5/lambda2 - 4.5, LockTimeS: 30, CNR0dBHz: 38.5},
		4: {System: gnss.GPS, PRN: 3, Signal: "2S", PseudorangeM: 20123556.78},
		3: {System: gnss.GPS, PRN: 3, Signal: "1P", PseudorangeM: 20123456.78},
		9: {System: gnss.Glonass, PRN: 3, Signal: "1C", PseudorangeM: 19000000},
	}
}

// TestReferenceFrame checks the reference frame against the known value.
func TestReferenceFrame(t *testing.T) {
	got := ReferenceFrame()
	if got != testdata.Message1001 {
		t.Errorf("want %s\n got %s", testdata.Message1001, got)
	}
	if !crc.Verify(got) {
		t.Error("CRC check failed")
	}
}

// TestDecodeReferenceFrame checks that the reference frame decodes to the
// pseudorange modulo one light millisecond.
func TestDecodeReferenceFrame(t *testing.T) {
	message, err := Decode(testdata.Message1001, slog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}

	want := &Message{
		MessageType: 1001,
		Header:      Header{EpochTime: 25000},
		Satellites: []Satellite{
			{PRN: 2, L1: Signal{Code: "1C", PseudorangeM: math.Mod(20000000, utils.OneLightMillisecond)}},
		},
	}

	if diff := cmp.Diff(want, message, approx, cmpopts.IgnoreUnexported(Message{})); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

// TestRoundTrip1004 checks the full message.
func TestRoundTrip1004(t *testing.T) {
	header := Header{
		StationID:         4095,
		EpochTime:         604799999,
		Synchronous:       true,
		DivergenceFree:    true,
		SmoothingInterval: 7,
	}

	hexFrame, err := Encode(utils.MessageType1004, header, observations())
	if err != nil {
		t.Fatal(err)
	}

	message, err := Decode(hexFrame, slog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}

	want := &Message{
		MessageType: 1004,
		Header:      header,
		Satellites: []Satellite{
			{
				PRN: 3,
				L1:  Signal{Code: "1P", PseudorangeM: 20123456.78},
				L2:  &Signal{Code: "2X", PseudorangeM: 20123556.78},
			},
			{
				PRN: 5,
				L1: Signal{Code: "1C", PseudorangeM: 21000000.123,
					PhaseRangeM: 21000000.123 + 10.25*lambda1, LockTimeIndicator: 55, CNR: 45.25},
				L2: &Signal{Code: "2W", PseudorangeM: 21000003.5,
					PhaseRangeM: 21000003.5 - 4.5*lambda2, LockTimeIndicator: 27, CNR: 38.5},
			},
			{
				PRN: 12,
				L1:  Signal{Code: "1C", PseudorangeM: 23456789.987},
			},
		},
	}

	if diff := cmp.Diff(want, message, approx, cmpopts.IgnoreUnexported(Message{})); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

// TestRoundTripModulo checks that 1001 and 1003 give the pseudorange and
// phase range modulo one light millisecond and that 1001 and 1002 carry no
// L2.
func TestRoundTripModulo(t *testing.T) {
	var testData = []struct {
		MessageType int
		WantL2      bool
		WantCNR     bool
		Modulo      bool
	}{
		{1001, false, false, true},
		{1002, false, true, false},
		{1003, true, false, true},
		{1004, true, true, false},
	}

	for _, td := range testData {
		hexFrame, err := Encode(td.MessageType, Header{StationID: 1}, observations())
		if err != nil {
			t.Fatal(err)
		}

		message, err := Decode(hexFrame, slog.LevelInfo)
		if err != nil {
			t.Fatal(err)
		}

		if len(message.Satellites) != 3 {
			t.Fatalf("%d: want 3 satellites got %d", td.MessageType, len(message.Satellites))
		}

		g5 := message.Satellites[1]
		wantRange := 21000000.123
		wantPhase := 21000000.123 + 10.25*lambda1
		if td.Modulo {
			ambiguity := math.Floor(wantRange/utils.OneLightMillisecond) * utils.OneLightMillisecond
			wantRange -= ambiguity
			wantPhase -= ambiguity
		}

		if math.Abs(wantRange-g5.L1.PseudorangeM) > 0.011 {
			t.Errorf("%d: want range %f got %f", td.MessageType, wantRange, g5.L1.PseudorangeM)
		}
		if math.Abs(wantPhase-g5.L1.PhaseRangeM) > 0.011 {
			t.Errorf("%d: want phase range %f got %f", td.MessageType, wantPhase, g5.L1.PhaseRangeM)
		}

		if (g5.L2 != nil) != td.WantL2 {
			t.Errorf("%d: want L2 %v", td.MessageType, td.WantL2)
		}

		if (g5.L1.CNR != 0) != td.WantCNR {
			t.Errorf("%d: want CNR %v got %f", td.MessageType, td.WantCNR, g5.L1.CNR)
		}
	}
}

// TestObservations checks the conversion of a decoded message back to an
// observation set.
func TestObservations(t *testing.T) {
	hexFrame, err := Encode(utils.MessageType1004, Header{}, observations())
	if err != nil {
		t.Fatal(err)
	}
	message, err := Decode(hexFrame, slog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}

	set := message.Observations()
	if len(set) != 5 {
		t.Fatalf("want 5 observations got %d", len(set))
	}

	// Channels are numbered in message order: G3 1P, G3 2X, G5 1C, G5 2W,
	// G12 1C.
	g5 := set[3]
	if g5.PRN != 5 || g5.Signal != "1C" {
		t.Fatalf("want G05 1C got %c%02d %s", g5.System, g5.PRN, g5.Signal)
	}
	wantCycles := 21000000.123/lambda1 + 10.25
	if math.Abs(g5.CarrierPhaseCycles-wantCycles) > 0.01 {
		t.Errorf("want %f cycles got %f", wantCycles, g5.CarrierPhaseCycles)
	}
	if g5.LockTimeS != 100 {
		t.Errorf("want lock time 100 got %f", g5.LockTimeS)
	}

	g5L2 := set[4]
	if g5L2.Signal != "2W" || g5L2.LockTimeS != 30 || g5L2.CNR0dBHz != 38.5 {
		t.Errorf("unexpected L2 observation %+v", g5L2)
	}

	if set[5].PRN != 12 || set[5].CarrierPhaseCycles != 0 {
		t.Errorf("unexpected G12 observation %+v", set[5])
	}
}

// TestPhaseWrap checks that a carrier phase far from the pseudorange is
// sent as a whole number of 1500 cycles away from the original.
func TestPhaseWrap(t *testing.T) {
	const cycles = 1234567.25
	set := gnss.ObservationSet{
		1: {System: gnss.GPS, PRN: 9, Signal: "1C", PseudorangeM: 22000000, CarrierPhaseCycles: cycles},
	}

	hexFrame, err := Encode(utils.MessageType1002, Header{}, set)
	if err != nil {
		t.Fatal(err)
	}
	message, err := Decode(hexFrame, slog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}

	got := message.Satellites[0].L1.PhaseRangeM / lambda1
	turns := (got - cycles) / 1500
	if math.Abs(turns-math.Round(turns)) > 0.001 {
		t.Errorf("phase %f cycles is not a whole number of 1500 cycles from %f", got, cycles)
	}
}

// TestSkipped checks that satellites with no L1 pseudorange are left out.
func TestSkipped(t *testing.T) {
	set := gnss.ObservationSet{
		1: {System: gnss.GPS, PRN: 7, Signal: "2W", PseudorangeM: 21000000},
		2: {System: gnss.GPS, PRN: 8, Signal: "1C"},
		3: {System: gnss.Galileo, PRN: 7, Signal: "1C", PseudorangeM: 21000000},
	}

	hexFrame, err := Encode(utils.MessageType1003, Header{}, set)
	if err != nil {
		t.Fatal(err)
	}
	message, err := Decode(hexFrame, slog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}
	if len(message.Satellites) != 0 {
		t.Errorf("want no satellites got %d", len(message.Satellites))
	}
}

// TestEncodeErrors checks the cases that can't be encoded.
func TestEncodeErrors(t *testing.T) {
	_, err := Encode(utils.MessageType1005, Header{}, observations())
	if !errors.Is(err, ErrNotObservationMessage) {
		t.Errorf("want ErrNotObservationMessage got %v", err)
	}

	_, err = Encode(utils.MessageType1001, Header{StationID: 4096}, observations())
	if err == nil {
		t.Error("expected an error for station 4096")
	}

	tooMany := make(gnss.ObservationSet)
	for prn := 1; prn <= 32; prn++ {
		tooMany[prn] = gnss.Observation{System: gnss.GPS, PRN: uint(prn), Signal: "1C", PseudorangeM: 20000000}
	}
	_, err = Encode(utils.MessageType1001, Header{}, tooMany)
	if err == nil {
		t.Error("expected an error for 32 satellites")
	}
}

// TestDecodeErrors checks the status codes of the failures.
func TestDecodeErrors(t *testing.T) {
	var testData = []struct {
		Description string
		Frame       string
		Want        int
	}{
		{"not a frame", "FFFFFFFFFFF", frame.StatusFrameIntegrity},
		{"CRC", testdata.Message1001[:len(testdata.Message1001)-1] + "3", frame.StatusFrameIntegrity},
		{"wrong type", testdata.Message1005, frame.StatusMessageType},
	}

	for _, td := range testData {
		_, err := Decode(td.Frame, slog.LevelInfo)
		if got := frame.Status(err); got != td.Want {
			t.Errorf("%s: want status %d got %d", td.Description, td.Want, got)
		}
	}
}

// TestGetMessageShort checks that a payload too short for its satellite
// count is rejected.
func TestGetMessageShort(t *testing.T) {
	bits, err := frame.Expect(testdata.Message1001, 1001)
	if err != nil {
		t.Fatal(err)
	}

	_, err = GetMessage(1001, bits[:100], slog.LevelInfo)
	if !errors.Is(err, frame.ErrPayloadTooShort) {
		t.Errorf("want ErrPayloadTooShort got %v", err)
	}

	_, err = GetMessage(1001, bits[:20], slog.LevelInfo)
	if !errors.Is(err, frame.ErrPayloadTooShort) {
		t.Errorf("want ErrPayloadTooShort got %v", err)
	}
}

// TestString checks the text version of the message.
func TestString(t *testing.T) {
	const wantInfo = "stationID 0, epoch time 25000 ms, synchronous false, 1 satellites\n" +
		"G02 1C range 213697.780 phase 0.0000 lock 0 CNR 0.00\n"

	const wantDebug = "stationID 0, epoch time 25000 ms, synchronous false, 1 satellites\n" +
		"divergence free false, smoothing interval 0\n" +
		"G02 1C range 213697.780 phase 0.0000 lock 0 CNR 0.00\n"

	info, err := Decode(testdata.Message1001, slog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.String(); got != wantInfo {
		t.Error(diff.Diff(wantInfo, got))
	}

	debug, err := Decode(testdata.Message1001, slog.LevelDebug)
	if err != nil {
		t.Fatal(err)
	}
	if got := debug.String(); got != wantDebug {
		t.Error(diff.Diff(wantDebug, got))
	}
}
