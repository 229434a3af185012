// The testdata package holds RTCM3 frames used by the tests of the other
// packages.
package testdata

// Message1005 is a type 1005 frame for station 2003 at ECEF coordinates
// (1114104.5999, -4850729.7108, 3975521.4643), GPS only.
const Message1005 = "D300133ED7D30202980EDEEF34B4BD62AC0941986F33360B98"

// Message1019 is a type 1019 frame carrying a GPS ephemeris for satellite 3
// with IODC 4, an eccentricity of 2 * 2^-33 and the fit interval flag set.
// Everything else is zero.
const Message1019 = "D3003D3FB0C00000000000000000000000000400000000000000000000000000" +
	"0200000000000000000000000000000000000000000000000000000000000001" +
	"899CBA"

// Message1045 is a type 1045 frame carrying a Galileo ephemeris for
// satellite 5 with a rate of right ascension of 53 * 2^-43 semicircles/s
// and the E5a data validity bit set.  Everything else is zero.
const Message1045 = "D3003E4151400000000000000000000000000000000000000000000000000000" +
	"0000000000000000000000000000000000000000000000000000000000035000" +
	"80901F56"

// Message1001 is a type 1001 frame from station 0 at 25 seconds into the
// GPS week with one observation: satellite 2, signal 1C, pseudorange
// 20,000,000 m and no carrier phase.
const Message1001 = "D300103E9000000186A010094613B3000000001B6992"

// The MSM7 frames were captured from a base station on the 13th November
// 2020 at 00:00:23 GPS time.

// MessageMSM7GPS is a message of type 1077 (MSM7, GPS) with signals from
// satellites G4, G9, G16, G18, G25, G26, G29 and G31.
const MessageMSM7GPS = "D300DC4350006700976200000840A06500000000200080006DFFA8AA2623A6A2" +
	"2324000000003668CB837A6F9D7C0492FEF205B04AA0EC7B0E0927D03F237CB9" +
	"6FBD73EE1F016496F57B2746F1F21ABF19FA0841087BB11B67E1A67071D9DF0C" +
	"617F199C7E6666FB86C004E9C77D85837DACADFCBE2BFC3C84021DEB81A69C87" +
	"175D86F560FB66727BFA2F48D2296708C872150D37CA92A4E93A4E1380001404" +
	"C0E8501604C140461705417052170501EF4BDE704CB1AF8437082A7795F16E75" +
	"E8EA361BDC3D7ABC7542800000000000000000000000000000000000000000FE" +
	"69E8"

// MessageMSM7Glonass is a message of type 1087 (MSM7, GLONASS) with signals
// from satellites R5, R12, R13, R14, R22, R23 and R24.
const MessageMSM7Glonass = "D300C343F000A2937C220000040E038000000000208000007FFE9C8A80948684" +
	"990CA0952A8BD83A92F5747D56FEB7ECE80D41697C000EF061429CF02738862A" +
	"DA62363C8FEBC8271B776FB94CBE362BE4261DC14FDCD9011624119AE0910200" +
	"7AEA619DB4E152F61F22AEDF26283EE0F6BEDF90DFB8013F8E86BF7E671F838F" +
	"2051536046603043C33DCF1284B710C433533D2548B014000004812860138481" +
	"0854138540E860128501385C67B767A5FF4E71CDD37827290E5CEDD9D7CC7E04" +
	"F809C373A04070D96D"

// MessageMSM7Galileo is a message of type 1097 (MSM7, Galileo).
const MessageMSM7Galileo = "D300C3449000670097620000211800C008000000200100007FFEAEBE9098A69C" +
	"B400000008C14BC132F80B08C583C801E8253F747CC402A04BC1479012866272" +
	"922853189D8D8582C6E18A6A2FDD5ECDD3E11A1501A12BDC563FC4EAC05EDC40" +
	"48D380B225609C7B7E32DD3E22F701B6F381AFB71F78E07F6CAAFE9A7E7E949F" +
	"BF06723F158CB14456E1B192DCB5374AD45D17384E3024140004C1503E0F8541" +
	"4052138561505A1604A138125B247E036C0789DB93BDBA0D34276875D0A67224" +
	"E488DC61A940B19D0D"

// MessageMSM7Beidou is a message of type 1127 (MSM7, BeiDou).
const MessageMSM7Beidou = "D300AA46700066FFBCA000000004002618000000200200007553FA8242629A80" +
	"000006954EA7A0BF1E787F0A1008187F3504ABEE50778A86F051F14D82463829" +
	"0A8C3557238782242A01B54007EBC50137A880B3880323C4FC61E04F33C47331" +
	"CD9054B2027090260B42D09C2B0C0297F4083D9EC7B26E440F19480000000000" +
	"0000000000000000000000000000000000000000000000000000000000000000" +
	"00000000000000000000000000E51ED8"
