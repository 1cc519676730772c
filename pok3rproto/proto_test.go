package pok3rproto

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pok3r-custom/pok3rtool/devices"
	"github.com/pok3r-custom/pok3rtool/internal/mockhid"
	"github.com/pok3r-custom/pok3rtool/kbproto"
	"github.com/pok3r-custom/pok3rtool/packet"
)

// fakeHandle adapts mockhid.Device (a packet.Transport) to this package's
// narrower transport interface, standing in for a real *hidtransport.Handle
// in tests.
type fakeHandle struct {
	*mockhid.Device
	vid, pid uint16
	closed   bool
}

func (f *fakeHandle) Close() error         { f.closed = true; return nil }
func (f *fakeHandle) VendorID() uint16     { return f.vid }
func (f *fakeHandle) ProductID() uint16    { return f.pid }

func testDescriptor() devices.Descriptor {
	return devices.Descriptor{
		Slug: "pok3r", Name: "POK3R",
		VID: devices.HoltekVID, PID: 0x0141, BootPID: 0x1141,
		Protocol: devices.ProtoPOK3R, FWBase: 0x2C00,
	}
}

func newOpenProto(t *testing.T) (*Proto, *mockhid.Device) {
	t.Helper()
	desc := testDescriptor()
	p := New(desc)
	dev := mockhid.New()
	p.handle = &fakeHandle{Device: dev, vid: desc.VID, pid: desc.BootPID}
	p.inBootPID = true
	return p, dev
}

// queueOKResponse builds a valid CRC-bearing response for whatever request
// mockhid most recently recorded, with payload as its data.
func queueOKResponse(dev *mockhid.Device, payload []byte) {
	var reqCRC uint16
	if last := dev.LastSent(); len(last) >= 4 {
		reqCRC = binary.LittleEndian.Uint16(last[2:4])
	}
	var resp [packet.Size]byte
	binary.LittleEndian.PutUint16(resp[0:2], reqCRC)
	copy(resp[4:], payload)
	crc := packet.CRC16(resp[:])
	binary.LittleEndian.PutUint16(resp[2:4], crc)
	dev.QueueResponse(resp[:])
}

func TestTypeReportsProtoPOK3R(t *testing.T) {
	p := New(testDescriptor())
	require.Equal(t, devices.ProtoPOK3R, p.Type())
}

func TestExchangeRoundTrip(t *testing.T) {
	p, dev := newOpenProto(t)
	queueOKResponse(dev, []byte{1, 2, 3})

	resp, err := p.Exchange(context.Background(), CmdFlash, SubFlashRead, []byte{0, 0, 0, 0})
	require.NoError(t, err)
	require.Equal(t, byte(1), resp.Payload[0])
	require.Equal(t, CmdFlash, dev.LastSent()[0])
	require.Equal(t, SubFlashRead, dev.LastSent()[1])
}

func TestExchangeFailsWhenNotOpen(t *testing.T) {
	p := New(testDescriptor())
	_, err := p.Exchange(context.Background(), CmdCRC, 0, nil)
	require.Error(t, err)
}

func TestReadVersion(t *testing.T) {
	p, dev := newOpenProto(t)
	payload := make([]byte, readChunkSize+4)
	binary.LittleEndian.PutUint32(payload[0:4], 5)
	copy(payload[4:], "1.2.3")
	queueOKResponse(dev, payload)

	v, err := p.ReadVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1.2.3", v)
}

func TestClearVersionVerifiesBlank(t *testing.T) {
	p, dev := newOpenProto(t)
	// erase response (ignored), then read-back response of all 0xFF
	queueOKResponse(dev, nil)
	blank := make([]byte, versionRegionSize)
	for i := range blank {
		blank[i] = 0xFF
	}
	queueOKResponse(dev, blank)

	err := p.ClearVersion(context.Background())
	require.NoError(t, err)
}

func TestClearVersionFailsWhenNotBlank(t *testing.T) {
	p, dev := newOpenProto(t)
	queueOKResponse(dev, nil)
	notBlank := make([]byte, versionRegionSize)
	queueOKResponse(dev, notBlank)

	err := p.ClearVersion(context.Background())
	require.Error(t, err)
}

func TestSetVersionPadsToMultipleOfFour(t *testing.T) {
	p, dev := newOpenProto(t)
	queueOKResponse(dev, nil)

	require.NoError(t, p.SetVersion(context.Background(), "1.2.3"))
	sent := dev.LastSent()
	// cmd/sub/crc header(4), then the FLASH/WRITE payload from byte 4:
	// start address(4) + end address(4) + 4-byte length +
	// padded("1.2.3" -> 8 bytes)
	n := binary.LittleEndian.Uint32(sent[12:16])
	require.Equal(t, uint32(5), n)
	require.Equal(t, "1.2.3", string(sent[16:21]))
}

func TestWriteFirmwareChunksAndReportsProgress(t *testing.T) {
	p, dev := newOpenProto(t)
	fw := make([]byte, writeChunkSize*2+10)
	for i := range fw {
		fw[i] = byte(i)
	}

	// CRC query, erase, then one FLASH/WRITE and FLASH/CHECK per chunk.
	chunks := (len(fw) + writeChunkSize - 1) / writeChunkSize
	queueOKResponse(dev, []byte{0, 0}) // crc query
	queueOKResponse(dev, nil)          // erase
	for i := 0; i < chunks*2; i++ {
		queueOKResponse(dev, nil)
	}

	var phases []kbproto.Phase
	err := p.WriteFirmware(context.Background(), fw, func(pr kbproto.Progress) {
		phases = append(phases, pr.Phase)
	})
	require.NoError(t, err)
	require.Contains(t, phases, kbproto.PhaseErasing)
	require.Contains(t, phases, kbproto.PhaseWriting)
	require.Contains(t, phases, kbproto.PhaseVerifying)
}

func TestWriteFirmwarePropagatesCheckFailure(t *testing.T) {
	p, dev := newOpenProto(t)
	fw := make([]byte, writeChunkSize)

	queueOKResponse(dev, []byte{0, 0})
	queueOKResponse(dev, nil)
	queueOKResponse(dev, nil) // write ok
	var errResp [packet.Size]byte
	binary.LittleEndian.PutUint16(errResp[0:2], packet.ErrorMarker)
	dev.QueueResponse(errResp[:])

	err := p.WriteFirmware(context.Background(), fw, nil)
	require.Error(t, err)
}

func TestWriteFirmwareZeroLength(t *testing.T) {
	p, dev := newOpenProto(t)

	err := p.WriteFirmware(context.Background(), nil, nil)
	require.Error(t, err)
	require.Nil(t, dev.LastSent())
}

func TestWriteFirmwareTooLarge(t *testing.T) {
	p, dev := newOpenProto(t)
	desc := testDescriptor()
	fw := make([]byte, flashSize-desc.FWBase+1)

	err := p.WriteFirmware(context.Background(), fw, nil)
	require.Error(t, err)
	var opErr *kbproto.OperationError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, kbproto.StatusFlashError, opErr.Status)
	require.Nil(t, dev.LastSent())
}

func TestRebootToBootloaderSkipsWhenAlreadyThere(t *testing.T) {
	p, dev := newOpenProto(t)
	err := p.RebootToBootloader(context.Background(), false)
	require.NoError(t, err)
	require.Nil(t, dev.LastSent())
}

func TestRebootToFirmwareClosesHandleWithoutReopen(t *testing.T) {
	p, dev := newOpenProto(t)
	queueOKResponse(dev, nil)

	err := p.RebootToFirmware(context.Background(), false)
	require.NoError(t, err)
	require.False(t, p.IsOpen())
}

func TestReadChunkReturnsPayload(t *testing.T) {
	p, dev := newOpenProto(t)
	payload := make([]byte, readChunkSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	queueOKResponse(dev, payload)

	got, err := p.readChunk(context.Background(), 0x1000)
	require.NoError(t, err)
	require.Len(t, got, readChunkSize)
	require.Equal(t, payload, got)
}

func TestCrcFlashParsesLEUint16(t *testing.T) {
	p, dev := newOpenProto(t)
	queueOKResponse(dev, []byte{0x34, 0x12})

	crc, err := p.crcFlash(context.Background(), 0, 16)
	require.NoError(t, err)
	require.Equal(t, uint16(0x1234), crc)
}

func TestEraseAndCheckOnNarrowRegion(t *testing.T) {
	desc := testDescriptor()
	desc.FWBase = flashSize - writeChunkSize*2
	p := New(desc)
	dev := mockhid.New()
	p.handle = &fakeHandle{Device: dev, vid: desc.VID, pid: desc.BootPID}
	p.inBootPID = true

	queueOKResponse(dev, nil) // erase
	queueOKResponse(dev, nil) // check chunk 1
	queueOKResponse(dev, nil) // check chunk 2

	require.NoError(t, p.EraseAndCheck(context.Background()))
}

func TestGetInfoNotImplemented(t *testing.T) {
	p, _ := newOpenProto(t)
	_, err := p.GetInfo(context.Background())
	require.Error(t, err)
	var opErr *kbproto.OperationError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, kbproto.StatusNotImplemented, opErr.Status)
}
