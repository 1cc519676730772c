package packet

import "errors"

// Sentinel errors for response validation (§7 ProtocolError family).
var (
	// ErrDeviceFail is returned when a response's first two bytes are the
	// little-endian 0xAAFF error marker, regardless of remaining content
	// (§8 property 5).
	ErrDeviceFail = errors.New("packet: device returned error marker")

	// ErrSequenceMismatch is returned when a CRC-bearing response's
	// sequence token does not match the request's CRC (§8 property 6).
	ErrSequenceMismatch = errors.New("packet: response sequence token mismatch")

	// ErrCrcMismatch is returned when a CRC-bearing response's own CRC
	// does not match its recomputed value.
	ErrCrcMismatch = errors.New("packet: response CRC mismatch")
)
