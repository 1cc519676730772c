package cykbproto

// Command bytes (byte 0 of the request packet), grounded on spec.md
// section 4.7 and proto_cykb.cpp's sendCmd call sites.
const (
	CmdFW    byte = 0
	CmdRead  byte = 1
	CmdWrite byte = 2
	CmdAddr  byte = 3
	CmdReset byte = 4
)

// RESET subcommands, stated explicitly in spec.md section 4.7.
const (
	SubResetFW byte = 0
	SubResetBL byte = 1
)

// FW subcommands. proto_cykb.h was not present in the retrieved source
// (only proto_cykb.cpp, which calls these by name); values are inferred
// by analogy with the sequential small-int convention pok3rproto's FLASH
// subcommands use (Check=0, Write=1, Read=2), in call order of first
// appearance (erase, then crc, then sum in ProtoCYKB::test).
const (
	SubFWErase byte = 0
	SubFWCRC   byte = 1
	SubFWSum   byte = 2
)

// ADDR subcommands, same inference basis as the FW subcommands above.
const (
	SubAddrSet byte = 0
	SubAddrGet byte = 1
)

// READ subcommands are fixed 8-bit magic addresses the bootrom recognizes
// specially, distinct from READ_ADDR's general-purpose addressed read.
// Values are inferred in the order proto_cykb.cpp first references them
// (getVersion's READ_VER1, clearVersion's READ_VER2, getInfo's READ_400
// and READ_3C00, test's READ_MODE, readFlash's READ_ADDR).
const (
	SubReadVer1 byte = 0x00
	SubReadVer2 byte = 0x01
	SubRead400  byte = 0x02
	SubRead3C00 byte = 0x03
	SubReadMode byte = 0x04
	SubReadAddr byte = 0x05
)

// VerAddr is the flash address ERASE/WRITE/CRC/SUM treat as their
// addressing origin: every such command sends (addr - VerAddr), while
// READ uses absolute addresses.
const VerAddr uint32 = 0x3000

// flashSize is the CYKB-family FLASH_LEN.
const flashSize uint32 = 0x10000

// readChunkSize is the payload size of one READ response, after its
// 4-byte header.
const readChunkSize = 60

// writeChunkSize is the payload size of one WRITE request; WRITE's
// subcommand byte doubles as this chunk's length.
const writeChunkSize = 52

// legacyVersion2BlobVIDPID is the VID/PID the original tool hardcoded
// into every CYKB device's version-2 blob, inherited unchanged from the
// POK3R RGB regardless of the actual target device (spec.md's apparent-
// bug note (c)). Kept visible and named for anyone reproducing the
// original's exact behavior; buildVersion2Blob itself takes the real
// target VID/PID instead of reaching for this constant.
const legacyVersion2BlobVIDPID uint32 = 0x016704d9
