// Package qmkext adds the QMK command extension (CTRL/EEPROM/KEYMAP/
// BACKLIGHT/FLASH, command bytes 0x81-0x85) to a host protocol that can
// already exchange CRC-bearing packets. It is designed to be embedded by
// value into pok3rproto.Proto and cykbproto.Proto, following the teacher's
// composition-over-inheritance convention of small, focused structs wired
// together by the owning type rather than a shared base class.
package qmkext
