package type1019

import (
	"log/slog"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kylelemons/godebug/diff"

	"github.com/goblimey/rtcm3codec/rtcm/crc"
	"github.com/goblimey/rtcm3codec/rtcm/frame"
	"github.com/goblimey/rtcm3codec/rtcm/gnss"
	"github.com/goblimey/rtcm3codec/rtcm/testdata"
)

// TestReferenceFrame checks the reference frame against the known value and
// decodes it.
func TestReferenceFrame(t *testing.T) {
	got := ReferenceFrame()
	if got != testdata.Message1019 {
		t.Errorf("want %s\n got %s", testdata.Message1019, got)
	}

	if !crc.Verify(got) {
		t.Error("CRC check failed")
	}
}

// TestDecodeInto checks that an ephemeris survives a round trip and that a
// failed decode leaves the target alone.
func TestDecodeInto(t *testing.T) {
	want := gnss.GPSEphemeris{
		PRN:          3,
		IODC:         4,
		Eccentricity: 2 * gnss.EccentricityLSB,
		FitInterval:  true,
	}

	hexFrame, err := Encode(want)
	if err != nil {
		t.Fatal(err)
	}

	var got gnss.GPSEphemeris
	if status := DecodeInto(hexFrame, &got); status != 0 {
		t.Fatalf("want status 0 got %d", status)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	// A frame that isn't a frame gives status 1 and doesn't touch the
	// target.
	before := got
	if status := DecodeInto("FFFFFFFFFFF", &got); status != frame.StatusFrameIntegrity {
		t.Errorf("want status %d got %d", frame.StatusFrameIntegrity, status)
	}
	if got != before {
		t.Error("target changed after a failed decode")
	}

	// So does a good frame of the wrong type.
	if status := DecodeInto(testdata.Message1005, &got); status != frame.StatusMessageType {
		t.Errorf("want status %d got %d", frame.StatusMessageType, status)
	}
	if got != before {
		t.Error("target changed after a failed decode")
	}
}

// TestRoundTrip checks that every field survives a round trip when its
// value is a whole number of LSBs.
func TestRoundTrip(t *testing.T) {

	// The LSBs that include pi are copied into variables so that the
	// products below are computed at run time, just as the decoder
	// computes them.  IDOT, delta n and OMEGADOT share an LSB.
	angle := gnss.AngleLSB
	rate := gnss.OmegaDotLSB
	harmonic := gnss.HarmonicAngleLSB

	want := gnss.GPSEphemeris{
		PRN:          32,
		Week:         1023,
		URA:          15,
		CodeOnL2:     2,
		IDOT:         -8191 * rate,
		IODE:         255,
		IODC:         1023,
		Toc:          604784,
		Af2:          -128 * gnss.GPSAf2LSB,
		Af1:          32767 * gnss.GPSAf1LSB,
		Af0:          -2097152 * gnss.GPSAf0LSB,
		Crs:          -1000.5,
		DeltaN:       12345 * rate,
		M0:           -2147483648 * angle,
		Cuc:          -77 * harmonic,
		Eccentricity: 0.0123456 - math.Mod(0.0123456, gnss.EccentricityLSB),
		Cus:          32767 * harmonic,
		SqrtA:        5153.6,
		Toe:          345600,
		Cic:          1 * harmonic,
		Omega0:       2147483647 * angle,
		Cis:          -1 * harmonic,
		I0:           660000000 * angle,
		Crc:          250.03125,
		Omega:        -1000000 * angle,
		OmegaDot:     -8388608 * rate,
		TGD:          -5 * gnss.GPSTGDLSB,
		Health:       63,
		L2PDataFlag:  true,
		FitInterval:  false,
	}
	// sqrtA is rounded to a whole number of LSBs.
	want.SqrtA = float64(int64(want.SqrtA/gnss.SqrtALSB)) * gnss.SqrtALSB

	hexFrame, err := Encode(want)
	if err != nil {
		t.Fatal(err)
	}

	message, err := Decode(hexFrame, slog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(want, message.Ephemeris); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

// TestEncodeOverflow checks that a value too big for its field is rejected.
func TestEncodeOverflow(t *testing.T) {
	_, err := Encode(gnss.GPSEphemeris{PRN: 64})
	if err == nil {
		t.Error("expected an error for PRN 64")
	}
	_, err = Encode(gnss.GPSEphemeris{Eccentricity: -0.1})
	if err == nil {
		t.Error("expected an error for a negative eccentricity")
	}
}

// TestGetMessageShort checks that a short payload is rejected.
func TestGetMessageShort(t *testing.T) {
	bits, err := frame.Expect(testdata.Message1019, 1019)
	if err != nil {
		t.Fatal(err)
	}

	_, err = GetMessage(bits[:100], slog.LevelInfo)
	if frame.Status(err) != frame.StatusMalformed {
		t.Errorf("want status %d got %d (%v)", frame.StatusMalformed, frame.Status(err), err)
	}
}

// TestString checks the text version of the message.
func TestString(t *testing.T) {
	const wantInfo = "GPS satellite 3, week 0, IODE 0, IODC 4, toc 0, toe 0, health 0\n"

	const wantDebug = `GPS satellite 3, week 0, IODE 0, IODC 4, toc 0, toe 0, health 0
URA 0, code on L2 0, L2P data flag false, fit interval true
clock af0 0, af1 0, af2 0, TGD 0
sqrtA 0, e 2.3283064365386963e-10, i0 0, OMEGA0 0, omega 0, M0 0
delta n 0, IDOT 0, OMEGADOT 0
Crs 0, Crc 0, Cuc 0, Cus 0, Cic 0, Cis 0
`

	info, err := Decode(testdata.Message1019, slog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.String(); got != wantInfo {
		t.Error(diff.Diff(wantInfo, got))
	}

	debug, err := Decode(testdata.Message1019, slog.LevelDebug)
	if err != nil {
		t.Fatal(err)
	}
	if got := debug.String(); got != wantDebug {
		t.Error(diff.Diff(wantDebug, got))
	}
}
