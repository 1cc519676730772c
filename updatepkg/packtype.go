package updatepkg

// PackType identifies which manifest layout an updater executable uses.
type PackType int

const (
	PackNone PackType = iota
	MAAJONSN
	MAAV101
	MAAV102
	MAAV105
	KBPV60
	KBPV80
)

func (p PackType) String() string {
	switch p {
	case MAAJONSN:
		return "MAAJONSN"
	case MAAV101:
		return "MAAV101"
	case MAAV102:
		return "MAAV102"
	case MAAV105:
		return "MAAV105"
	case KBPV60:
		return "KBPV60"
	case KBPV80:
		return "KBPV80"
	default:
		return "none"
	}
}

// packages is the fingerprint -> PackType lookup table. Kept as a plain Go
// map (data, not code) per the growth note: new PackType entries can be
// added here, or eventually sourced from a //go:embed asset, without
// touching any decoder.
var packages = map[uint64]PackType{
	0x62FCF913A689C9AE: MAAJONSN, // POK3R V1.1.3
	0xFE37430DB1FFCF5F: MAAJONSN, // POK3R V1.1.4
	0x8986F7893143E9F7: MAAJONSN, // POK3R V1.1.5
	0xA28E5EFB3F796181: MAAJONSN, // POK3R V1.1.6
	0xEA55CB190C35505F: MAAJONSN, // POK3R V1.1.7 (seed fixture)

	0x882CB0E4ECE25454: MAAV102, // POK3R RGB V1.02.04
	0x6CFF0BB4F4086C2F: MAAV102, // POK3R RGB V1.03.00
	0xA6EE37F856CD24C1: MAAV102, // POK3R RGB V1.04.00

	0x51BFA86A7FAF4EEA: MAAV102, // Vortex Core V1.04.01
	0x0582733413943655: MAAV102, // Vortex Core V1.04.03
	0x61F73244FA73079F: MAAV102, // Vortex Core V1.04.05
	0xAD80988AE986097B: MAAV105, // Vortex Core dual-firmware package
	0xA85878CBD05591A1: MAAV102, // Vortex Core RGB V1.04.06

	0xB542D0D86B9A85C3: MAAV102, // Vortex Race 3 V1.02.01
	0xFBF40BEE5D0A3C70: MAAV102, // Vortex Race 3 V1.02.04
	0xAD8B210C77D9D90F: MAAV102, // Vortex Race 3 V1.02.05

	0x0C259BB38A57783D: MAAV102, // Vortex Cypher V1.03.06
	0x8AA1AEA217DA685B: MAAV102, // POK3R RGB2 V1.00.05
	0xCE7C8EAA3D28B10D: MAAV102, // Vortex ViBE V1.01.03
	0xF5ED2438D4445703: MAAV102, // Vortex Tab 60 V1.01.13
	0x4399C7232F89BBDD: MAAV105, // Vortex Tab 75 V1.00.04
	0xBFCCB61A61996BB3: MAAV105, // Vortex Tab 90 V1.00.04

	0x6064D8C4EE74BE18: KBPV60, // KBP V60 V1.0.7
	0xBCF4C9830D800D8C: KBPV80, // KBP V80 V1.0.7

	0xF5A3714FA9A3CA40: MAAV102, // Tex Yoda II V1.01.01
	0xFA5DF5F231700316: MAAV102, // Mistel MD600 V1.04.08
	0x58B42FF4B1C57C09: MAAV102, // Mistel MD200 / Vortex Tester V1.01.02
}

// Identify looks up fingerprint in the package table.
func Identify(fingerprint uint64) (PackType, bool) {
	pt, ok := packages[fingerprint]
	return pt, ok
}
