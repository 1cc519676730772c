package qmkext

// Command family bytes. These occupy the high command range left free by
// the POK3R/CYKB base protocols, so a QMK-flashed device can answer both
// its base protocol and these extension commands on the same endpoint.
const (
	CmdCtrl      byte = 0x81
	CmdEEPROM    byte = 0x82
	CmdKeymap    byte = 0x83
	CmdBacklight byte = 0x84
	CmdFlash     byte = 0x85
)

const (
	SubCtrlInfo   byte = 0
	SubCtrlLayout byte = 1
)

const (
	SubEEPROMInfo  byte = 0
	SubEEPROMRead  byte = 1
	SubEEPROMWrite byte = 2
	SubEEPROMErase byte = 3
)

const (
	SubKeymapInfo   byte = 0
	SubKeymapRead   byte = 1
	SubKeymapWrite  byte = 2
	SubKeymapCommit byte = 3
	SubKeymapReload byte = 4
	SubKeymapReset  byte = 5
)

const (
	SubBacklightInfo   byte = 0
	SubBacklightRead   byte = 1
	SubBacklightWrite  byte = 2
	SubBacklightCommit byte = 3
)

const (
	SubFlashRead byte = 0
)

// Keymap address space. The high bits of a KEYMAP/READ or KEYMAP/WRITE
// offset select one of three logical pages.
const (
	KeymapPageMatrix  uint32 = 0x00000
	KeymapPageLayout  uint32 = 0x10000
	KeymapPageStrings uint32 = 0x20000
)

// EEPROMLen is the size of the SPI EEPROM a QMK-flashed device exposes
// through the EEPROM command family.
const EEPROMLen uint32 = 0x80000

// keymapWriteWindow is the chunk size Diff splits a keymap upload into,
// matching KEYMAP/WRITE's (offset, len, data) argument shape where len is
// one byte.
const keymapWriteWindow = 56

// readChunk is the largest read KEYMAP/READ and EEPROM/READ return per
// request, leaving room for the 4-byte address argument in the request
// frame.
const readChunk = 60

// marker is the first semicolon-separated field of a QMK-enabled device's
// CTRL/INFO response.
const marker = "qmk_pok3r"

// legacyMarkerOffset is where the same marker string is embedded in a
// legacy (pre control-path) QMK build's firmware image, used as a fallback
// probe when CTRL/INFO is unavailable.
const legacyMarkerOffset = 0x160
