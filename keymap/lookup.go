package keymap

import "fmt"

var (
	codeIndex = map[uint16]Keycode{}
	nameIndex = map[string]uint16{}
)

func init() {
	for _, kc := range keycodeTable {
		codeIndex[kc.Code] = kc
		nameIndex[kc.Name] = kc.Code
	}
}

// KeycodeName returns kc's canonical name (e.g. "KC_A"), or its hex value
// if kc isn't in the catalog.
func KeycodeName(kc uint16) string {
	if e, ok := codeIndex[kc]; ok {
		return e.Name
	}
	return fmt.Sprintf("0x%04X", kc)
}

// KeycodeAbbrev returns kc's short pretty-printer abbreviation, or its hex
// value if kc isn't in the catalog.
func KeycodeAbbrev(kc uint16) string {
	if e, ok := codeIndex[kc]; ok {
		return e.Abbrev
	}
	return fmt.Sprintf("0x%04X", kc)
}

// KeycodeDesc returns kc's human-readable description. Unknown keycodes
// at or above the QMK SAFE_RANGE are reported as custom; anything else
// unknown is reported as unknown.
func KeycodeDesc(kc uint16) string {
	if e, ok := codeIndex[kc]; ok {
		return e.Desc
	}
	if kc >= safeRange {
		return fmt.Sprintf("Custom keycode 0x%04X", kc)
	}
	return fmt.Sprintf("Unknown keycode 0x%04X", kc)
}

// ToKeycode resolves a canonical name back to its keycode, or KCNo if the
// name isn't in the catalog.
func ToKeycode(name string) uint16 {
	if kc, ok := nameIndex[name]; ok {
		return kc
	}
	return KCNo
}

// AllKeycodes returns the full catalog, in declaration order.
func AllKeycodes() []Keycode {
	out := make([]Keycode, len(keycodeTable))
	copy(out, keycodeTable)
	return out
}
