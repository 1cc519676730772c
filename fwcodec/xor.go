// Package fwcodec implements the fixed-key XOR obfuscation CYKB firmware
// images are stored under. The transform is symmetric: Encode and Decode
// are the same function, matching the original tool's single
// xor_decode_encode helper.
package fwcodec

import "encoding/binary"

// KeySize is the length in bytes of the fixed XOR key (13 little-endian
// u32 words).
const KeySize = 52

// key holds the 13 little-endian u32 words XOR-ed word-wise across a
// firmware image, cycling every KeySize bytes.
var key = [13]uint32{
	0xe7c29474, 0x79084b10, 0x53d54b0d, 0xfc1e8f32,
	0x48e81a9b, 0x773c808e, 0xb7483552, 0xd9cb8c76,
	0x2a8c8bc6, 0x0967ada8, 0xd4520f5c, 0xd0c3279d,
	0xeac091c5,
}

// XOR applies the fixed 52-byte key word-wise across data, cycling the key
// every 52 bytes. It is its own inverse: XOR(XOR(b)) == b for any b.
func XOR(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)

	var keyBytes [KeySize]byte
	for i, word := range key {
		binary.LittleEndian.PutUint32(keyBytes[i*4:], word)
	}

	for i := range out {
		out[i] ^= keyBytes[i%KeySize]
	}
	return out
}

// Encode obfuscates a plaintext firmware image for storage/transmission.
func Encode(data []byte) []byte { return XOR(data) }

// Decode recovers a plaintext firmware image from its obfuscated form.
func Decode(data []byte) []byte { return XOR(data) }

// KeyBytes returns the 52-byte little-endian key, useful for tests that
// assert against the all-zero-input identity (§8 seed scenario 2).
func KeyBytes() [KeySize]byte {
	var b [KeySize]byte
	for i, word := range key {
		binary.LittleEndian.PutUint32(b[i*4:], word)
	}
	return b
}
