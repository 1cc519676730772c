package updatepkg

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf16"

	"github.com/pok3r-custom/pok3rtool/fwcodec"
	"github.com/pok3r-custom/pok3rtool/pkgcodec"
)

// Errors returned by Decode.
var (
	ErrUnknownPackage    = errors.New("updatepkg: fingerprint not in package table")
	ErrFileTooShort      = errors.New("updatepkg: file shorter than manifest region")
	ErrManifestMismatch  = errors.New("updatepkg: manifest fields failed re-validation")
)

// infoSectionSize is the telltale length that marks a "firmware" section as
// actually being an info blob (§4.5 edge case): it must not be XOR-decoded
// as firmware.
const infoSectionSize = 180

// Manifest holds the UTF-16 metadata fields recovered from an updater's
// string table.
type Manifest struct {
	Description string
	Company     string
	Product     string
	Version     string
}

// Section is one extracted, fully-decoded payload from the package: either
// firmware bytes ready to flash, or (when IsInfo is true) a parsed info
// blob that must not be treated as firmware.
type Section struct {
	Data   []byte
	IsInfo bool
}

// Result is everything Decode recovers from one updater executable.
type Result struct {
	Type     PackType
	Manifest Manifest
	Sections []Section
}

// decodeUTF16LE reads n bytes as UTF-16LE code units and trims at the first
// NUL, matching ZString::parseUTF16's semantics in the original tool.
func decodeUTF16LE(b []byte, n int) string {
	if n > len(b) {
		n = len(b)
	}
	n -= n % 2
	units := make([]uint16, 0, n/2)
	for i := 0; i+1 < n; i += 2 {
		u := binary.LittleEndian.Uint16(b[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

// readTail returns the last n bytes of data, or ErrFileTooShort if data is
// shorter than n.
func readTail(data []byte, n int) ([]byte, error) {
	if len(data) < n {
		return nil, ErrFileTooShort
	}
	return data[len(data)-n:], nil
}

// Decode identifies data's PackType by content fingerprint and extracts its
// manifest and firmware/info sections.
func Decode(data []byte) (Result, error) {
	pt, ok := Identify(Fingerprint(data))
	if !ok {
		return Result{}, ErrUnknownPackage
	}

	switch pt {
	case MAAJONSN:
		return decodeSingleSection(data, pt, 0x4B8, 0x10, 0x218, 0x460, 0x420, 12)
	case MAAV101:
		return decodeSingleSection(data, pt, 0x4BC, 0x10, 0x218, 0x461, 0x420, 12)
	case MAAV102:
		return decodeMAAV102(data)
	case MAAV105:
		return decodeMAAV105(data)
	case KBPV60:
		return decodeKBP(data, pt, 0xDA6282CD)
	case KBPV80:
		return decodeKBP(data, pt, 0xF6F3111F)
	default:
		return Result{}, fmt.Errorf("updatepkg: unhandled pack type %s", pt)
	}
}

// decodeSingleSection implements the MAAJONSN/MAAV101 manifest shape: a
// fixed-length trailing string table followed by exactly one firmware
// section whose length is an LE u32 at sizeOff within the (decoded)
// string table.
func decodeSingleSection(data []byte, pt PackType, stringsLen int, companyOff, productOff, versionOff, sizeOff int, versionLen int) (Result, error) {
	strs, err := readTail(data, stringsLen)
	if err != nil {
		return Result{}, err
	}
	strs = pkgcodec.Decode(strs)

	if sizeOff+4 > len(strs) {
		return Result{}, ErrManifestMismatch
	}
	secLen := int(binary.LittleEndian.Uint32(strs[sizeOff:]))

	total := stringsLen + secLen
	if total > len(data) {
		return Result{}, ErrFileTooShort
	}
	secStart := len(data) - total
	sec := pkgcodec.Decode(data[secStart : secStart+secLen])
	sec = decodeFirmwareIfNeeded(sec, pt)

	return Result{
		Type: pt,
		Manifest: Manifest{
			Company: decodeUTF16LE(strs[companyOff:], 0x200),
			Product: decodeUTF16LE(strs[productOff:], 0x200),
			Version: string(trimNul(strs[versionOff : versionOff+versionLen])),
		},
		Sections: []Section{{Data: sec}},
	}, nil
}

func trimNul(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

// decodeMAAV102 implements the up-to-8-slot manifest shape at a fixed
// 0x50-byte stride.
func decodeMAAV102(data []byte) (Result, error) {
	const stringsLen = 0xB24
	const offsetDesc = 0x26
	const offsetCompany = offsetDesc + 0x208
	const offsetProduct = offsetCompany + 0x208
	const offsetVersion = offsetProduct + 0x208

	strs, err := readTail(data, stringsLen)
	if err != nil {
		return Result{}, err
	}
	strs = pkgcodec.Decode(strs)

	type slot struct{ fwLen, infoLen int }
	var slots []slot
	start := 0xAC8 - (0x50 * 8)
	total := stringsLen
	for i := 0; i < 8; i++ {
		if start+8 > len(strs) {
			break
		}
		fwLen := int(binary.LittleEndian.Uint32(strs[start:]))
		infoLen := int(binary.LittleEndian.Uint32(strs[start+4:]))
		if fwLen != 0 {
			total += fwLen + infoLen
			slots = append(slots, slot{fwLen, infoLen})
		}
		start += 0x50
	}

	if total > len(data) {
		return Result{}, ErrFileTooShort
	}
	secStart := len(data) - total

	var sections []Section
	for _, s := range slots {
		if s.fwLen > 0 {
			if secStart+s.fwLen > len(data) {
				return Result{}, ErrFileTooShort
			}
			raw := pkgcodec.Decode(data[secStart : secStart+s.fwLen])
			secStart += s.fwLen
			if len(raw) == infoSectionSize {
				sections = append(sections, Section{Data: raw, IsInfo: true})
			} else {
				sections = append(sections, Section{Data: fwcodec.Decode(raw)})
			}
		}
		if s.infoLen > 0 {
			if secStart+s.infoLen > len(data) {
				return Result{}, ErrFileTooShort
			}
			raw := pkgcodec.Decode(data[secStart : secStart+s.infoLen])
			secStart += s.infoLen
			sections = append(sections, Section{Data: raw, IsInfo: true})
		}
	}

	return Result{
		Type: MAAV102,
		Manifest: Manifest{
			Description: decodeUTF16LE(strs[offsetDesc:], 0x200),
			Company:     decodeUTF16LE(strs[offsetCompany:], 0x200),
			Product:     decodeUTF16LE(strs[offsetProduct:], 0x200),
			Version:     decodeUTF16LE(strs[offsetVersion:], 0x200),
		},
		Sections: sections,
	}, nil
}

// decodeMAAV105 implements the forward-addressed, 4-pair manifest shape.
// Per the apparent-bug note on strings_len fragility (derived from one
// specific updater's decompiled code), this re-validates that the
// product/version fields decode to plausible UTF-16 text
// before trusting the manifest, returning ErrManifestMismatch instead of
// silently extracting garbage when a future updater's layout drifts.
func decodeMAAV105(data []byte) (Result, error) {
	const stringsLen = 0x2b58
	const offsetDesc = 0x232a
	const offsetCompany = offsetDesc + 0x208
	const offsetProduct = offsetCompany + 0x208
	const offsetVersion = offsetProduct + 0x208

	strs, err := readTail(data, stringsLen)
	if err != nil {
		return Result{}, err
	}
	strs = pkgcodec.Decode(strs)

	if offsetVersion+0x200 > len(strs) {
		return Result{}, ErrManifestMismatch
	}

	manifest := Manifest{
		Description: decodeUTF16LE(strs[offsetDesc:], 0x200),
		Company:     decodeUTF16LE(strs[offsetCompany:], 0x200),
		Product:     decodeUTF16LE(strs[offsetProduct:], 0x200),
		Version:     decodeUTF16LE(strs[offsetVersion:], 0x200),
	}
	if !looksLikeText(manifest.Product) || !looksLikeText(manifest.Version) {
		return Result{}, ErrManifestMismatch
	}

	sectionStart := 0x1F1600
	listPos := 0xc8
	var sections []Section

	for i := 0; i < 4 && listPos+0x410 <= len(strs); i++ {
		descStart := listPos
		versionStart := descStart + 0x208
		addrPos := versionStart + 0x208
		layoutStart := addrPos + 8

		for layoutStart < len(strs) && strs[layoutStart] != 0 {
			layoutStart += 80
		}
		listPos = layoutStart + 0x2c8

		if addrPos+8 > len(strs) {
			break
		}
		fwLen := int(binary.LittleEndian.Uint32(strs[addrPos:]))
		infoLen := int(binary.LittleEndian.Uint32(strs[addrPos+4:]))

		if sectionStart+fwLen > len(data) {
			return Result{}, ErrFileTooShort
		}
		fw := pkgcodec.Decode(data[sectionStart : sectionStart+fwLen])
		sectionStart += fwLen
		fw = fwcodec.Decode(fw)

		if sectionStart+infoLen > len(data) {
			return Result{}, ErrFileTooShort
		}
		info := pkgcodec.Decode(data[sectionStart : sectionStart+infoLen])
		sectionStart += infoLen

		if fwLen > 0 {
			sections = append(sections, Section{Data: fw})
		}
		if infoLen > 0 {
			sections = append(sections, Section{Data: info, IsInfo: true})
		}
	}

	return Result{Type: MAAV105, Manifest: manifest, Sections: sections}, nil
}

// looksLikeText is the manifest re-validation check: every rune must be
// printable ASCII or empty, rejecting garbage decoded from a misaligned
// offset.
func looksLikeText(s string) bool {
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}

// decodeKBP implements the KBP variants' manifest shape, which uses a
// dedicated stream XOR (kbpDecrypt) instead of the standard C4 codec for
// both its string table and its single firmware section.
func decodeKBP(data []byte, pt PackType, key uint32) (Result, error) {
	const stringsLen = 588

	strs, err := readTail(data, stringsLen)
	if err != nil {
		return Result{}, err
	}
	strs = append([]byte(nil), strs...)
	kbpDecrypt(strs, key)

	// The KBP manifest carries firmware length as the first LE u32; offsets
	// for company/product/version are not documented for this family in
	// the available source, so Manifest is left at its zero value here.
	fwLen := int(binary.LittleEndian.Uint32(strs[0:]))
	total := stringsLen + fwLen
	if total > len(data) {
		return Result{}, ErrFileTooShort
	}
	secStart := len(data) - total
	fw := append([]byte(nil), data[secStart:secStart+fwLen]...)
	kbpDecrypt(fw, key)

	return Result{
		Type:     pt,
		Sections: []Section{{Data: fw}},
	}, nil
}

// kbpDecrypt applies data[i] ^= key_be[i%4] ^ (i & 0xFF) in place, matching
// the original tool's kbp_decrypt (key encoded big-endian).
func kbpDecrypt(data []byte, key uint32) {
	var keyBytes [4]byte
	binary.BigEndian.PutUint32(keyBytes[:], key)
	for i := range data {
		data[i] ^= keyBytes[i%4] ^ byte(i&0xFF)
	}
}

// decodeFirmwareIfNeeded applies the CYKB firmware XOR step unless pt is a
// POK3R-family variant, whose firmware is already plaintext once C4 has
// been reversed.
func decodeFirmwareIfNeeded(sec []byte, pt PackType) []byte {
	switch pt {
	case MAAJONSN, MAAV101:
		return sec // POK3R firmware is plaintext under C4
	default:
		return fwcodec.Decode(sec)
	}
}
