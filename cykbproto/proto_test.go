package cykbproto

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pok3r-custom/pok3rtool/devices"
	"github.com/pok3r-custom/pok3rtool/internal/mockhid"
	"github.com/pok3r-custom/pok3rtool/kbproto"
	"github.com/pok3r-custom/pok3rtool/packet"
)

func init() {
	// Shrink the device-settle sleeps so tests exercising multi-erase
	// sequences (EraseAndCheck's 13-page sweep) run quickly.
	waitSleep = time.Millisecond
	eraseSleep = time.Millisecond
}

// fakeHandle adapts mockhid.Device (a packet.Transport) to this package's
// narrower transport interface, standing in for a real *hidtransport.Handle
// in tests.
type fakeHandle struct {
	*mockhid.Device
	vid, pid uint16
}

func (f *fakeHandle) Close() error      { return nil }
func (f *fakeHandle) VendorID() uint16  { return f.vid }
func (f *fakeHandle) ProductID() uint16 { return f.pid }

func testDescriptor() devices.Descriptor {
	return devices.Descriptor{
		Slug: "pok3r-rgb", Name: "POK3R RGB",
		VID: devices.HoltekVID, PID: 0x0167, BootPID: 0x1167,
		Protocol: devices.ProtoCYKB, FWBase: 0x3000,
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

// queueOKResponse builds a valid non-CRC response with payload as its data.
func queueOKResponse(dev *mockhid.Device, payload []byte) {
	var resp [packet.Size]byte
	copy(resp[4:], payload)
	dev.QueueResponse(resp[:])
}

func TestTypeReportsProtoCYKB(t *testing.T) {
	p := New(testDescriptor())
	require.Equal(t, devices.ProtoCYKB, p.Type())
}

func TestExchangeRoundTrip(t *testing.T) {
	p, dev := newOpenProto(t)
	queueOKResponse(dev, []byte{1, 2, 3})

	resp, err := p.Exchange(context.Background(), CmdRead, SubReadAddr, []byte{0, 0, 0, 0})
	require.NoError(t, err)
	require.Equal(t, byte(1), resp.Payload[0])
	require.Equal(t, CmdRead, dev.LastSent()[0])
	require.Equal(t, SubReadAddr, dev.LastSent()[1])
	// CYKB carries no CRC: bytes 2-3 stay zero.
	require.Equal(t, byte(0), dev.LastSent()[2])
	require.Equal(t, byte(0), dev.LastSent()[3])
}

func TestExchangeFailsWhenNotOpen(t *testing.T) {
	p := New(testDescriptor())
	_, err := p.Exchange(context.Background(), CmdFW, 0, nil)
	require.Error(t, err)
}

func TestReadVersionReportsClearedWhenBlank(t *testing.T) {
	p, dev := newOpenProto(t)
	blank := make([]byte, readChunkSize)
	for i := range blank {
		blank[i] = 0xFF
	}
	queueOKResponse(dev, blank)

	v, err := p.ReadVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, "CLEARED", v)
}

func TestReadVersionDecodesUTF16(t *testing.T) {
	p, dev := newOpenProto(t)
	payload := make([]byte, readChunkSize)
	units := []uint16{'1', '.', '2', '.', '3'}
	binary.LittleEndian.PutUint32(payload[0:4], uint32(len(units)*2))
	for i, u := range units {
		binary.LittleEndian.PutUint16(payload[4+i*2:], u)
	}
	queueOKResponse(dev, payload)

	v, err := p.ReadVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1.2.3", v)
}

func TestClearVersionVerifiesBlank(t *testing.T) {
	p, dev := newOpenProto(t)
	// RebootToBootloader short-circuits (already in bootloader), then erase
	// response, then a blank READ_VER2.
	queueOKResponse(dev, nil) // erase
	blank := make([]byte, readChunkSize)
	for i := range blank {
		blank[i] = 0xFF
	}
	queueOKResponse(dev, blank)

	require.NoError(t, p.ClearVersion(context.Background()))
}

func TestClearVersionFailsWhenNotBlank(t *testing.T) {
	p, dev := newOpenProto(t)
	queueOKResponse(dev, nil)
	queueOKResponse(dev, make([]byte, readChunkSize))

	err := p.ClearVersion(context.Background())
	require.Error(t, err)
}

func TestBuildVersion2BlobUsesTargetVIDPID(t *testing.T) {
	words := buildVersion2Blob(0x1234, 0x5678)
	require.Equal(t, uint32(0x56781234), words[6])
	require.NotEqual(t, legacyVersion2BlobVIDPID, words[6])
}

func TestWriteFlashVerifiesAddressPointer(t *testing.T) {
	p, dev := newOpenProto(t)
	// ADDR/SET response (ignored), ADDR/GET response with matching pointer,
	// then one WRITE response per 52-byte chunk.
	queueOKResponse(dev, nil)
	addrResp := make([]byte, 4)
	binary.LittleEndian.PutUint32(addrResp, 0) // VerAddr - VerAddr == 0
	queueOKResponse(dev, addrResp)
	writeResp := make([]byte, 2)
	binary.LittleEndian.PutUint16(writeResp, 10)
	queueOKResponse(dev, writeResp)

	err := p.writeFlash(context.Background(), VerAddr, make([]byte, 10))
	require.NoError(t, err)
}

func TestWriteFlashRejectsAddressBelowVerAddr(t *testing.T) {
	p, _ := newOpenProto(t)
	err := p.writeFlash(context.Background(), VerAddr-1, []byte{0})
	require.Error(t, err)
}

func TestCrcFlashReturnsCRCValue(t *testing.T) {
	p, dev := newOpenProto(t)
	crcResp := make([]byte, 4)
	binary.LittleEndian.PutUint32(crcResp, 0xDEADBEEF)
	queueOKResponse(dev, crcResp)
	queueOKResponse(dev, make([]byte, 4)) // sum

	crc, err := p.crcFlash(context.Background(), VerAddr, 16)
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), crc)
}

func TestReadFlashReturnsPayload(t *testing.T) {
	p, dev := newOpenProto(t)
	payload := make([]byte, readChunkSize)
	for i := range payload {
		payload[i] = byte(i)
	}
	queueOKResponse(dev, payload)

	got, err := p.readFlash(context.Background(), 0x1000)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestDumpFlashStopsShortOfBoundaryByDefault(t *testing.T) {
	p, dev := newOpenProto(t)
	var chunks int
	for addr := uint32(0); addr < flashSize-readChunkSize; addr += readChunkSize {
		queueOKResponse(dev, make([]byte, readChunkSize))
		chunks++
	}

	out, err := p.DumpFlash(context.Background())
	require.NoError(t, err)
	require.Equal(t, chunks*readChunkSize, len(out))
	require.Less(t, len(out), int(flashSize))
}

func TestDumpFlashIncludesTailWhenRequested(t *testing.T) {
	p, dev := newOpenProto(t)
	p.SetIncludeTail(true)
	for addr := uint32(0); addr < flashSize-readChunkSize; addr += readChunkSize {
		queueOKResponse(dev, make([]byte, readChunkSize))
	}
	queueOKResponse(dev, make([]byte, readChunkSize))

	out, err := p.DumpFlash(context.Background())
	require.NoError(t, err)
	require.Equal(t, int(flashSize), len(out))
}

func TestRebootToBootloaderSkipsWhenAlreadyThere(t *testing.T) {
	p, dev := newOpenProto(t)
	require.NoError(t, p.RebootToBootloader(context.Background(), false))
	require.Nil(t, dev.LastSent())
}

func TestRebootToFirmwareClosesHandleWithoutReopen(t *testing.T) {
	p, _ := newOpenProto(t)
	require.NoError(t, p.RebootToFirmware(context.Background(), false))
	require.False(t, p.IsOpen())
}

func TestParseInfoSectionDecodesVersionAndVIDPID(t *testing.T) {
	data := make([]byte, infoSectionLen)
	units := []uint16{'v', '1'}
	binary.LittleEndian.PutUint32(data[0:4], uint32(len(units)*2))
	for i, u := range units {
		binary.LittleEndian.PutUint16(data[4+i*2:], u)
	}
	binary.LittleEndian.PutUint16(data[144:146], 0x04D9)
	binary.LittleEndian.PutUint16(data[146:148], 0x0167)

	sec, err := ParseInfoSection(data)
	require.NoError(t, err)
	require.Equal(t, "v1", sec.Version)
	require.Equal(t, uint32(0x04D9), sec.VID)
	require.Equal(t, uint32(0x0167), sec.PID)
}

func TestParseInfoSectionRejectsShortData(t *testing.T) {
	_, err := ParseInfoSection(make([]byte, 10))
	require.Error(t, err)
}

func TestGetInfoSendsThreeReadsAndTwoProbes(t *testing.T) {
	p, dev := newOpenProto(t)
	info := make([]byte, infoSectionLen)
	binary.LittleEndian.PutUint32(info[0:4], 0xFFFFFFFF) // CLEARED
	queueOKResponse(dev, info[0:readChunkSize])
	queueOKResponse(dev, info[readChunkSize:2*readChunkSize])
	queueOKResponse(dev, info[2*readChunkSize:3*readChunkSize])
	queueOKResponse(dev, nil) // READ_400
	queueOKResponse(dev, nil) // READ_3C00

	_, err := p.GetInfo(context.Background())
	require.NoError(t, err)
}

func TestWriteFirmwareFlagsCRCMismatch(t *testing.T) {
	p, dev := newOpenProto(t)
	fw := make([]byte, 16)

	queueOKResponse(dev, make([]byte, 4)) // pre-write crc
	queueOKResponse(dev, make([]byte, 4)) // pre-write sum
	queueOKResponse(dev, nil)             // erase
	queueOKResponse(dev, nil)             // addr set
	addrResp := make([]byte, 4)
	queueOKResponse(dev, addrResp) // addr get
	writeResp := make([]byte, 2)
	binary.LittleEndian.PutUint16(writeResp, uint16(len(fw)))
	queueOKResponse(dev, writeResp)       // write
	queueOKResponse(dev, make([]byte, 4)) // post-write crc (0, won't match real crc32)
	queueOKResponse(dev, make([]byte, 4)) // post-write sum

	err := p.WriteFirmware(context.Background(), fw, nil)
	require.Error(t, err)
	var opErr *kbproto.OperationError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, kbproto.StatusFlashError, opErr.Status)
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

func TestEraseAndCheckSweepsThirteenPages(t *testing.T) {
	p, dev := newOpenProto(t)
	queueOKResponse(dev, make([]byte, 4)) // pre crc
	queueOKResponse(dev, make([]byte, 4)) // pre sum
	for i := 0; i < 13; i++ {
		queueOKResponse(dev, nil) // erase
	}
	queueOKResponse(dev, make([]byte, 4)) // post crc
	queueOKResponse(dev, make([]byte, 4)) // post sum

	require.NoError(t, p.EraseAndCheck(context.Background()))
}
