// Package devices holds the static catalog of known keyboards and lookups
// over it (by alias and by PID). It does not scan: callers build their own
// hidtransport filter-callback scans from a Descriptor's (vid, pid) values.
package devices

import "strings"

// Protocol identifies which command family a device speaks.
type Protocol int

const (
	ProtoPOK3R Protocol = iota
	ProtoCYKB
	ProtoHoltek
)

func (p Protocol) String() string {
	switch p {
	case ProtoPOK3R:
		return "POK3R"
	case ProtoCYKB:
		return "CYKB"
	case ProtoHoltek:
		return "Holtek"
	default:
		return "unknown"
	}
}

// HoltekVID is the USB vendor ID shared by every supported device.
const HoltekVID = 0x04D9

// QMKVID is the VID used by devices that have been reflashed with a QMK
// build carrying its own vendor/product identity.
const QMKVID = 0xFEED

// BootloaderPIDBit marks a PID as the device's bootloader-mode identity.
// By convention boot_pid == app_pid | BootloaderPIDBit.
const BootloaderPIDBit = 0x1000

// VendorUsagePage and VendorUsage identify the vendor-defined HID interface
// every supported device exposes for the update protocol.
const (
	VendorUsagePage = 0xFF00
	VendorUsage     = 0x01
)

// ConsoleUsagePage and ConsoleUsage identify the optional debug console
// interface some QMK builds expose.
const (
	ConsoleUsagePage = 0xFF31
	ConsoleUsage     = 0x74
)

// Descriptor is the static identity of one supported keyboard model.
type Descriptor struct {
	Slug      string
	Name      string
	VID       uint16
	PID       uint16
	BootPID   uint16
	Protocol  Protocol
	FWBase    uint32
}

// Catalog is the full set of supported devices, in the order the original
// tool enumerates them. VID/PID values and the fuller model list come from
// the tool's external-interface spec; protocol tagging is cross-checked
// against the vendor's own device-scan table.
var Catalog = []Descriptor{
	{Slug: "pok3r", Name: "POK3R", VID: HoltekVID, PID: 0x0141, BootPID: 0x1141, Protocol: ProtoPOK3R, FWBase: 0x2C00},
	{Slug: "pok3r-rgb", Name: "POK3R RGB", VID: HoltekVID, PID: 0x0167, BootPID: 0x1167, Protocol: ProtoCYKB, FWBase: 0x3000},
	{Slug: "pok3r-rgb2", Name: "POK3R RGB2", VID: HoltekVID, PID: 0x0207, BootPID: 0x1207, Protocol: ProtoCYKB, FWBase: 0x3000},
	{Slug: "core", Name: "Vortex Core", VID: HoltekVID, PID: 0x0175, BootPID: 0x1175, Protocol: ProtoCYKB, FWBase: 0x3000},
	{Slug: "race3", Name: "Vortex Race 3", VID: HoltekVID, PID: 0x0192, BootPID: 0x1192, Protocol: ProtoCYKB, FWBase: 0x3000},
	{Slug: "tester", Name: "Vortex Tester", VID: HoltekVID, PID: 0x0193, BootPID: 0x1193, Protocol: ProtoCYKB, FWBase: 0x3000},
	{Slug: "vibe", Name: "Vortex ViBE", VID: HoltekVID, PID: 0x0216, BootPID: 0x1216, Protocol: ProtoCYKB, FWBase: 0x3000},
	{Slug: "cypher", Name: "Vortex Cypher", VID: HoltekVID, PID: 0x0282, BootPID: 0x1282, Protocol: ProtoCYKB, FWBase: 0x3000},
	{Slug: "tab60", Name: "Vortex Tab 60", VID: HoltekVID, PID: 0x0304, BootPID: 0x1304, Protocol: ProtoCYKB, FWBase: 0x3000},
	{Slug: "tab75", Name: "Vortex Tab 75", VID: HoltekVID, PID: 0x0344, BootPID: 0x1344, Protocol: ProtoCYKB, FWBase: 0x3000},
	{Slug: "tab90", Name: "Vortex Tab 90", VID: HoltekVID, PID: 0x0346, BootPID: 0x1346, Protocol: ProtoCYKB, FWBase: 0x3000},
	{Slug: "kbpv60", Name: "KBP V60", VID: HoltekVID, PID: 0x0112, BootPID: 0x1112, Protocol: ProtoPOK3R, FWBase: 0x2C00},
	{Slug: "kbpv80", Name: "KBP V80", VID: HoltekVID, PID: 0x0129, BootPID: 0x1129, Protocol: ProtoPOK3R, FWBase: 0x2C00},
	{Slug: "yoda2", Name: "Tex Yoda II", VID: HoltekVID, PID: 0x0163, BootPID: 0x1163, Protocol: ProtoCYKB, FWBase: 0x3000},
	{Slug: "md600", Name: "Mistel MD600", VID: HoltekVID, PID: 0x0143, BootPID: 0x1143, Protocol: ProtoPOK3R, FWBase: 0x2C00},
	{Slug: "md200", Name: "Mistel MD200", VID: HoltekVID, PID: 0x0200, BootPID: 0x1200, Protocol: ProtoPOK3R, FWBase: 0x2C00},

	// A device flashed with a QMK build has its vendor bootloader overwritten
	// by the stock Holtek ISP bootrom, so it no longer answers the POK3R/CYKB
	// bootloader protocol its non-QMK sibling does — only the Holtek ISP
	// protocol remains reachable while it's in bootloader mode. These entries
	// share their sibling's vid/pid/boot_pid (ProtoHoltek's open() is keyed on
	// vid+boot_pid alone, same as the vendor protocols) and exist purely so
	// such a device has its own selectable identity.
	{Slug: "qmk_pok3r", Name: "POK3R (QMK)", VID: HoltekVID, PID: 0x0141, BootPID: 0x1141, Protocol: ProtoHoltek, FWBase: 0x2C00},
	{Slug: "qmk_pok3r_rgb", Name: "POK3R RGB (QMK)", VID: HoltekVID, PID: 0x0167, BootPID: 0x1167, Protocol: ProtoHoltek, FWBase: 0x3000},
	{Slug: "qmk_vortex_core", Name: "Vortex Core (QMK)", VID: HoltekVID, PID: 0x0175, BootPID: 0x1175, Protocol: ProtoHoltek, FWBase: 0x3000},
}

// aliases maps alternate spellings seen in the original CLI's device-name
// table onto a catalog slug. Every alias resolves case-insensitively.
var aliases = map[string]string{
	"pok3r_rgb":      "pok3r-rgb",
	"pok3r_rgb2":     "pok3r-rgb2",
	"vortex-core":    "core",
	"vortex_core":    "core",
	"vortex-race3":   "race3",
	"vortex_race3":   "race3",
	"vortex-tester":  "tester",
	"vortex_tester":  "tester",
	"vortex-vibe":    "vibe",
	"vortex_vibe":    "vibe",
	"vortex-cypher":  "cypher",
	"vortex_cypher":  "cypher",
	"vortex-tab60":   "tab60",
	"vortex-tab75":   "tab75",
	"vortex-tab90":   "tab90",
	"kbp-v60":        "kbpv60",
	"kbp_v60":        "kbpv60",
	"kbp-v80":        "kbpv80",
	"kbp_v80":        "kbpv80",
	"tex-yoda-2":     "yoda2",
	"tex_yoda_2":     "yoda2",
	"tex-yoda-ii":    "yoda2",
	"tex_yoda_ii":    "yoda2",
}

// ResolveAlias finds a Descriptor by its canonical slug or any of its
// aliases, case-insensitively.
func ResolveAlias(name string) (Descriptor, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	for _, d := range Catalog {
		if d.Slug == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// IsBootloaderPID reports whether pid is the bootloader identity of app.
func IsBootloaderPID(app, pid uint16) bool {
	return pid == app|BootloaderPIDBit
}

// KnownPIDs returns the set of every application and bootloader PID in the
// catalog, for use as a transport-level scan filter.
func KnownPIDs() map[uint16]bool {
	pids := make(map[uint16]bool, len(Catalog)*2)
	for _, d := range Catalog {
		pids[d.PID] = true
		pids[d.BootPID] = true
	}
	return pids
}

// ByPID finds the Descriptor and whether pid refers to its bootloader
// identity. Returns ok=false if pid is not in the catalog.
func ByPID(vid, pid uint16) (desc Descriptor, inBootloader bool, ok bool) {
	if vid != HoltekVID {
		return Descriptor{}, false, false
	}
	for _, d := range Catalog {
		if d.PID == pid {
			return d, false, true
		}
		if d.BootPID == pid {
			return d, true, true
		}
	}
	return Descriptor{}, false, false
}
