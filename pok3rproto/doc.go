// Package pok3rproto implements the POK3R family command set: CRC-bearing
// 64-byte packets (C2) carrying ERASE/FLASH/CRC/UPDATE_START/RESET/
// DISCONNECT/DEBUG commands, plus the QMK extension (qmkext.Mixin) for
// devices that have been reflashed with a QMK build. Proto implements
// kbproto.KBProto.
package pok3rproto
