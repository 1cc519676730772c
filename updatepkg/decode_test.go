package updatepkg

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/require"

	"github.com/pok3r-custom/pok3rtool/fwcodec"
	"github.com/pok3r-custom/pok3rtool/pkgcodec"
)

func TestIdentifySeedScenario4(t *testing.T) {
	pt, ok := Identify(0xEA55CB190C35505F)
	require.True(t, ok)
	require.Equal(t, MAAJONSN, pt)
	require.Equal(t, "MAAJONSN", pt.String())
}

func TestIdentifyUnknownFingerprint(t *testing.T) {
	_, ok := Identify(0x1)
	require.False(t, ok)
}

func TestFingerprintDeterministic(t *testing.T) {
	data := []byte("some updater executable bytes")
	require.Equal(t, Fingerprint(data), Fingerprint(append([]byte(nil), data...)))
}

func putUTF16(b []byte, s string) {
	units := utf16.Encode([]rune(s))
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[i*2:], u)
	}
}

// buildMAAJONSNFixture constructs a synthetic MAAJONSN-layout file: a
// firmware blob followed by a string table, both run through the package
// codec's Encode so that Decode can reverse them exactly as it would a real
// updater executable.
func buildMAAJONSNFixture(fw []byte, company, product, version string) []byte {
	const stringsLen = 0x4B8
	strs := make([]byte, stringsLen)
	putUTF16(strs[0x10:], company)
	putUTF16(strs[0x218:], product)
	copy(strs[0x460:], version)
	binary.LittleEndian.PutUint32(strs[0x420:], uint32(len(fw)))

	encStrs := pkgcodec.Encode(strs)
	encFW := pkgcodec.Encode(fw)

	out := make([]byte, 0, len(encFW)+len(encStrs))
	out = append(out, encFW...)
	out = append(out, encStrs...)
	return out
}

func TestDecodeMAAJONSNFixture(t *testing.T) {
	fw := bytesRangeUP(256)
	data := buildMAAJONSNFixture(fw, "Vortex", "POK3R", "1.1.7")

	result, err := decodeSingleSection(data, MAAJONSN, 0x4B8, 0x10, 0x218, 0x460, 0x420, 12)
	require.NoError(t, err)
	require.Equal(t, "Vortex", result.Manifest.Company)
	require.Equal(t, "POK3R", result.Manifest.Product)
	require.Equal(t, "1.1.7", result.Manifest.Version)
	require.Len(t, result.Sections, 1)
	require.Equal(t, fw, result.Sections[0].Data)
}

func TestDecodeSingleSectionRejectsShortFile(t *testing.T) {
	_, err := decodeSingleSection(make([]byte, 10), MAAJONSN, 0x4B8, 0x10, 0x218, 0x460, 0x420, 12)
	require.ErrorIs(t, err, ErrFileTooShort)
}

func TestKBPDecryptIsInvolution(t *testing.T) {
	original := bytesRangeUP(64)
	buf := append([]byte(nil), original...)
	kbpDecrypt(buf, 0xDA6282CD)
	require.NotEqual(t, original, buf)
	kbpDecrypt(buf, 0xDA6282CD)
	require.Equal(t, original, buf)
}

func TestDecodeFirmwareIfNeededSkipsPOK3RFamily(t *testing.T) {
	raw := bytesRangeUP(32)
	require.Equal(t, raw, decodeFirmwareIfNeeded(raw, MAAJONSN))
	require.Equal(t, raw, decodeFirmwareIfNeeded(raw, MAAV101))
	require.NotEqual(t, raw, decodeFirmwareIfNeeded(raw, MAAV102))
}

func TestDecodeFirmwareIfNeededRoundTripsThroughXOR(t *testing.T) {
	raw := bytesRangeUP(128)
	decoded := decodeFirmwareIfNeeded(raw, MAAV102)
	require.Equal(t, raw, fwcodec.Encode(decoded))
}

func TestDecodeUnknownFingerprintFails(t *testing.T) {
	_, err := Decode([]byte("not a recognizable update package"))
	require.ErrorIs(t, err, ErrUnknownPackage)
}

// TestDecodeEndToEndViaFingerprintTable proves the real Decode pipeline
// (Identify(Fingerprint(data)) dispatching to a per-variant decoder) is
// wired correctly end to end. packages is keyed by the original tool's
// ZFile::fileHash values, which Fingerprint's FNV-1a/64 stand-in cannot
// reproduce (see the fingerprint-algorithm Open Question decision), so no
// real updater's fingerprint is ever present in the table today; this test
// registers a synthetic fixture's real Fingerprint value for its duration
// instead, so the dispatch path itself — as opposed to decodeSingleSection
// called directly, like TestDecodeMAAJONSNFixture does — is exercised by
// at least one test.
func TestDecodeEndToEndViaFingerprintTable(t *testing.T) {
	fw := bytesRangeUP(256)
	data := buildMAAJONSNFixture(fw, "Vortex", "POK3R", "1.1.7")

	fp := Fingerprint(data)
	require.NotContains(t, packages, fp)
	packages[fp] = MAAJONSN
	defer delete(packages, fp)

	result, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, MAAJONSN, result.Type)
	require.Equal(t, "Vortex", result.Manifest.Company)
	require.Equal(t, "POK3R", result.Manifest.Product)
	require.Equal(t, "1.1.7", result.Manifest.Version)
	require.Len(t, result.Sections, 1)
	require.Equal(t, fw, result.Sections[0].Data)
}

func TestLooksLikeTextRejectsControlBytes(t *testing.T) {
	require.True(t, looksLikeText("POK3R v1.1.7"))
	require.False(t, looksLikeText(string([]rune{0x01, 0x02})))
}

func TestDecodeUTF16LEStopsAtNul(t *testing.T) {
	b := make([]byte, 20)
	putUTF16(b, "AB")
	require.Equal(t, "AB", decodeUTF16LE(b, len(b)))
}

func bytesRangeUP(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}
