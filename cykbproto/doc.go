// Package cykbproto implements the CYKB command family used by the
// CYKB-generation bootloaders: no CRC in the base 64-byte frame, and a
// command set that mixes VER_ADDR-relative addressing (ERASE/WRITE/CRC)
// with absolute addressing (READ), unlike pok3rproto's uniformly absolute
// scheme.
package cykbproto
