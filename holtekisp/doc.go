// Package holtekisp implements the Holtek HT32 bootrom's ISP (in-system
// programming) protocol: CRC-bearing 64-byte packets identical in shape to
// pok3rproto's, plus an INFO command neither POK3R nor CYKB has, and a
// status-poll control transfer used to learn whether a flash write/check/
// CRC command has completed (the bootrom answers asynchronously and offers
// no direct response payload for these three commands).
package holtekisp
