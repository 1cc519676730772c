// Package packet builds and parses the fixed 64-byte command packets every
// protocol front-end exchanges with a device: byte 0 is the command, byte 1
// the subcommand, bytes 2-3 an optional CRC-16/CCITT, and bytes 4-63 the
// payload. CYKB's base protocol omits the CRC (bytes 2-3 are always zero);
// POK3R, Holtek ISP, and the QMK extension all carry it.
package packet
