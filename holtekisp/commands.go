package holtekisp

// Command bytes, transcribed exactly from proto_holtek.h's pok3r_cmd enum.
const (
	CmdErase      byte = 0
	CmdFlash      byte = 1
	CmdCRC        byte = 2
	CmdInfo       byte = 3
	CmdReset      byte = 4
	CmdDisconnect byte = 5
)

// ERASE subcommands.
const (
	SubErasePage byte = 8
	SubEraseMass byte = 10
)

// FLASH subcommands.
const (
	SubFlashCheck byte = 0
	SubFlashWrite byte = 1
	SubFlashRead  byte = 2
	SubFlashBlank byte = 3
)

// RESET subcommands.
const (
	SubResetBoot    byte = 0
	SubResetBuiltin byte = 1
)

// fwAddr is the firmware region's base address, baseFirmwareAddr() in the
// original (always 0 for the ISP bootrom's own addressing).
const fwAddr uint32 = 0x0000

// obAddr is the Option Bytes page's fixed address, read by getInfo to
// report flash security/protection state.
const obAddr uint32 = 0x1ff00000

// defaultFlashLen is used when an INFO response can't be decoded (unknown
// ISP version format); HT32F1654 is the part most supported devices use.
const defaultFlashLen uint32 = 0x10000

// statusOKByte is the byte value getCmdStatus counts occurrences of in the
// 64-byte status buffer to learn how many commands have completed
// successfully since the buffer was last read.
const statusOKByte byte = 0x4f

// readChunkSize is the number of bytes FLASH/READ returns per request;
// unlike every other protocol's chunked read, the ISP bootrom's READ
// response is the raw 64-byte frame itself with no cmd/sub/CRC header.
const readChunkSize = 64

// writeChunkSize is the payload size of one FLASH/WRITE request.
const writeChunkSize = 52
