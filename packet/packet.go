package packet

import (
	"encoding/binary"
	"errors"

	"github.com/sigurn/crc16"
)

// Size is the fixed packet length every supported protocol uses.
const Size = 64

// MaxPayload is the largest payload Build accepts; bytes 4-63 minus
// nothing reserved (all of 4-63 is payload space).
const MaxPayload = Size - 4

// ErrorMarker is the little-endian 0xAAFF value a response's first two
// bytes hold when the device is reporting failure rather than data.
const ErrorMarker = 0xAAFF

var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// CRC16 computes CRC-16/CCITT over data, matching the checksum every
// CRC-bearing protocol in this system uses.
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

var (
	// ErrPayloadTooLarge is returned by Build when payload would not fit
	// in the fixed 64-byte frame.
	ErrPayloadTooLarge = errors.New("packet: payload exceeds 60 bytes")
)

// Build constructs a 64-byte packet: cmd at byte 0, sub at byte 1, payload
// starting at byte 4. When withCRC is true, CRC-16/CCITT is computed over
// the packet with bytes 2-3 zeroed and written back into bytes 2-3;
// otherwise bytes 2-3 stay zero, matching CYKB's base protocol.
func Build(cmd, sub byte, payload []byte, withCRC bool) ([Size]byte, error) {
	var pkt [Size]byte
	if len(payload) > MaxPayload {
		return pkt, ErrPayloadTooLarge
	}

	pkt[0] = cmd
	pkt[1] = sub
	copy(pkt[4:], payload)

	if withCRC {
		crc := CRC16(pkt[:])
		binary.LittleEndian.PutUint16(pkt[2:4], crc)
	}

	return pkt, nil
}

// Response is a parsed, validated reply frame. SequenceToken and CRC are
// only meaningful when the owning protocol is CRC-bearing: the device
// echoes the request's CRC as a sequence token in bytes 0-1, and its own
// CRC (computed with bytes 0-3 zeroed) in bytes 2-3.
type Response struct {
	SequenceToken uint16
	CRC           uint16
	Payload       []byte
}

// ParseResponse validates resp against the error marker and, for
// CRC-bearing protocols, against the request's CRC (echoed as a sequence
// token in bytes 0-1) and the response's own recomputed CRC in bytes 2-3.
//
// reqCRC is ignored when crcBearing is false.
func ParseResponse(resp [Size]byte, reqCRC uint16, crcBearing bool) (Response, error) {
	if binary.LittleEndian.Uint16(resp[0:2]) == ErrorMarker {
		return Response{}, ErrDeviceFail
	}

	r := Response{
		Payload: append([]byte(nil), resp[4:]...),
	}

	if !crcBearing {
		return r, nil
	}

	gotToken := binary.LittleEndian.Uint16(resp[0:2])
	if gotToken != reqCRC {
		return Response{}, ErrSequenceMismatch
	}

	withoutCRC := resp
	binary.LittleEndian.PutUint16(withoutCRC[0:2], 0)
	binary.LittleEndian.PutUint16(withoutCRC[2:4], 0)
	wantCRC := CRC16(withoutCRC[:])
	gotCRC := binary.LittleEndian.Uint16(resp[2:4])
	if gotCRC != wantCRC {
		return Response{}, ErrCrcMismatch
	}

	r.SequenceToken = gotToken
	r.CRC = gotCRC
	return r, nil
}
