package pok3rproto

// Command bytes (byte 0 of the request packet), grounded on proto_pok3r.h's
// pok3r_cmd enum.
const (
	CmdErase       byte = 0
	CmdFlash       byte = 1
	CmdCRC         byte = 2
	CmdUpdateStart byte = 3
	CmdReset       byte = 4
	CmdDisconnect  byte = 5
	CmdDebug       byte = 6
)

// FLASH subcommands.
const (
	SubFlashCheck byte = 0
	SubFlashWrite byte = 1
	SubFlashRead  byte = 2
)

// RESET subcommands.
const (
	SubResetBoot    byte = 0 // toggle app <-> bootloader
	SubResetBuiltin byte = 1 // force bootloader
)

// writeChunkSize is the payload size of one FLASH/WRITE request.
const writeChunkSize = 52

// readChunkSize is the number of flash bytes one FLASH/READ response
// carries: its whole payload, after the response's 4-byte token/CRC header.
const readChunkSize = 60

// pageSize is the flash page alignment ERASE operates on.
const pageSize = 0x400

// flashSize is the total addressable flash region dumped by DumpFlash,
// matching the HT32 parts' 64KB flash referenced as FLASH_LEN by the
// sibling CYKB/CMMK protocols' wire format.
const flashSize = 0x10000

// versionOffset is fw_base - versionOffset: where the ASCII version string
// lives, below the firmware image itself.
const versionOffset = 0x400

// versionRegionSize is the erased/cleared region's size ahead of writing a
// new version string.
const versionRegionSize = 8
