package cykbproto

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"
	"unicode/utf16"

	"github.com/pok3r-custom/pok3rtool/fwcodec"
	"github.com/pok3r-custom/pok3rtool/kbproto"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// GetInfo reads the 180-byte info blob (three READ/0x20-0x22 chunks) and
// the READ_400/READ_3C00 probe values, mirroring ProtoCYKB::getInfo.
// Only the fields InfoSection recovers map onto kbproto.DeviceInfo; the
// rest are logged at debug level and discarded, matching the original's
// log-only treatment.
func (p *Proto) GetInfo(ctx context.Context) (kbproto.DeviceInfo, error) {
	var data []byte
	for sub := byte(0x20); sub < 0x23; sub++ {
		resp, err := p.Exchange(ctx, CmdRead, sub, nil)
		if err != nil {
			return kbproto.DeviceInfo{}, err
		}
		if len(resp.Payload) < readChunkSize {
			return kbproto.DeviceInfo{}, &kbproto.OperationError{Operation: "get info", Status: kbproto.StatusIoError}
		}
		data = append(data, resp.Payload[:readChunkSize]...)
	}

	sec, err := ParseInfoSection(data)
	if err != nil {
		return kbproto.DeviceInfo{}, &kbproto.OperationError{Operation: "get info", Status: kbproto.StatusIoError}
	}
	p.logDebug("info section", "version", sec.Version, "vid", sec.VID, "pid", sec.PID)

	if _, err := p.Exchange(ctx, CmdRead, SubRead400, nil); err != nil {
		return kbproto.DeviceInfo{}, err
	}
	if _, err := p.Exchange(ctx, CmdRead, SubRead3C00, nil); err != nil {
		return kbproto.DeviceInfo{}, err
	}

	return kbproto.DeviceInfo{ChipModel: sec.PID}, nil
}

// InfoSection is the decoded 180-byte info blob CYKB devices expose via
// READ/0x20-0x22, mirroring ProtoCYKB::info_section.
type InfoSection struct {
	Version string
	A, C, D, E, F uint32
	VID, PID uint32
	H        uint32
}

// ParseInfoSection decodes data (expected to be infoSectionLen bytes) per
// ProtoCYKB::info_section: a UTF-16 length-prefixed version string, six
// LE u32 fields at offset 120, a VID/PID u16 pair, and a trailing LE u32
// at offset 176.
const infoSectionLen = 180

func ParseInfoSection(data []byte) (InfoSection, error) {
	if len(data) < infoSectionLen {
		return InfoSection{}, fmt.Errorf("cykbproto: info section too short: %d bytes", len(data))
	}

	var sec InfoSection
	if binary.LittleEndian.Uint32(data[0:4]) == 0xFFFFFFFF {
		sec.Version = "CLEARED"
	} else {
		n := binary.LittleEndian.Uint32(data[0:4])
		if n > 60 {
			n = 60
		}
		sec.Version = decodeUTF16LE(data[4:4+n], int(n)/2)
	}

	sec.A = binary.LittleEndian.Uint32(data[120:124])
	sec.C = binary.LittleEndian.Uint32(data[124:128])
	sec.D = binary.LittleEndian.Uint32(data[128:132])
	sec.E = binary.LittleEndian.Uint32(data[132:136])
	sec.F = binary.LittleEndian.Uint32(data[136:140])
	_ = binary.LittleEndian.Uint32(data[140:144]) // b (version field, mirrored by ReadVersion)
	sec.VID = uint32(binary.LittleEndian.Uint16(data[144:146]))
	sec.PID = uint32(binary.LittleEndian.Uint16(data[146:148]))
	sec.H = binary.LittleEndian.Uint32(data[176:180])

	return sec, nil
}

func decodeUTF16LE(b []byte, units int) string {
	if units > len(b)/2 {
		units = len(b) / 2
	}
	u := make([]uint16, 0, units)
	for i := 0; i < units; i++ {
		v := binary.LittleEndian.Uint16(b[i*2:])
		if v == 0 {
			break
		}
		u = append(u, v)
	}
	return string(utf16.Decode(u))
}

// ReadVersion reads the length-prefixed UTF-16 version string at
// READ_VER1, or "CLEARED" when the region reads as all-0xFF.
func (p *Proto) ReadVersion(ctx context.Context) (string, error) {
	resp, err := p.Exchange(ctx, CmdRead, SubReadVer1, nil)
	if err != nil {
		return "", err
	}
	if len(resp.Payload) < readChunkSize {
		return "", &kbproto.OperationError{Operation: "read version", Status: kbproto.StatusIoError}
	}

	blank := bytes.Repeat([]byte{0xFF}, readChunkSize)
	if bytes.Equal(resp.Payload[:readChunkSize], blank) {
		return "CLEARED", nil
	}

	n := binary.LittleEndian.Uint32(resp.Payload[0:4])
	if n > readChunkSize {
		n = readChunkSize
	}
	if len(resp.Payload) < int(4+n) {
		return "", &kbproto.OperationError{Operation: "read version", Status: kbproto.StatusIoError}
	}
	return decodeUTF16LE(resp.Payload[4:4+n], int(n)/2), nil
}

// ClearVersion reboots to the bootloader, erases the version region, and
// verifies READ_VER2 now reads as all-0xFF.
func (p *Proto) ClearVersion(ctx context.Context) error {
	if err := p.RebootToBootloader(ctx, true); err != nil {
		return err
	}

	if err := p.eraseFlash(ctx, VerAddr, 0xB4); err != nil {
		return err
	}

	resp, err := p.Exchange(ctx, CmdRead, SubReadVer2, nil)
	if err != nil {
		return err
	}
	if len(resp.Payload) < readChunkSize {
		return &kbproto.OperationError{Operation: "clear version", Status: kbproto.StatusIoError}
	}
	blank := bytes.Repeat([]byte{0xFF}, readChunkSize)
	if !bytes.Equal(resp.Payload[:readChunkSize], blank) {
		p.logInfo("version not cleared")
		return &kbproto.OperationError{Operation: "clear version", Status: kbproto.StatusFlashError}
	}
	return nil
}

// buildVersion2Blob constructs the 60-byte version-2 region: a UTF-16
// version string padded to offset 0x78, followed by a 15-word trailing
// record. The original hardcodes this trailing record to the POK3R RGB's
// own VID/PID (legacyVersion2BlobVIDPID) for every CYKB device it talks
// to; this function takes the real target VID/PID instead, per spec.md's
// apparent-bug note (c) ("the implementer should make the blob
// device-parameterised").
func buildVersion2Blob(vid, pid uint16) [15]uint32 {
	return [15]uint32{
		0x00800004, 0x00010300, 0x00000041, 0xefffffff,
		0x00000001, 0x00000000, uint32(pid)<<16 | uint32(vid), 0xffffffff,
		0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff,
		0xffffffff, 0xffffffff, 0x001c5aa5,
	}
}

func version2BlobBytes(words [15]uint32) []byte {
	b := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

// SetVersion clears the version region, writes a UTF-16 version string
// followed by the device-parameterized version-2 blob, and verifies both
// the raw blob and the re-read version string match.
func (p *Proto) SetVersion(ctx context.Context, version string) error {
	if err := p.ClearVersion(ctx); err != nil {
		return err
	}

	units := utf16.Encode([]rune(version))
	units = append(units, 0)

	strData := make([]byte, 4+len(units)*2)
	binary.LittleEndian.PutUint32(strData[0:4], uint32(len(units)*2))
	for i, u := range units {
		binary.LittleEndian.PutUint16(strData[4+i*2:], u)
	}

	vdata := bytes.Repeat([]byte{0xFF}, 0x78)
	if len(strData) < len(vdata) {
		copy(vdata, strData)
	} else {
		vdata = append([]byte(nil), strData[:0x78]...)
	}
	blobWords := buildVersion2Blob(p.desc.VID, p.desc.PID)
	vdata = append(vdata, version2BlobBytes(blobWords)...)

	if err := p.writeFlash(ctx, VerAddr, vdata); err != nil {
		return &kbproto.OperationError{Operation: "set version", Status: kbproto.StatusIoError}
	}

	resp, err := p.Exchange(ctx, CmdRead, SubReadVer2, nil)
	if err != nil {
		return err
	}
	want := version2BlobBytes(blobWords)
	if len(resp.Payload) < len(want) || !bytes.Equal(resp.Payload[:len(want)], want) {
		p.logInfo("failed to set version")
		return &kbproto.OperationError{Operation: "set version", Status: kbproto.StatusFlashError}
	}

	nver, err := p.ReadVersion(ctx)
	if err != nil {
		return err
	}
	if nver != version {
		return &kbproto.OperationError{Operation: "set version", Status: kbproto.StatusFlashError}
	}
	return nil
}

// eraseFlash erases length bytes starting at start, sending
// (start-VerAddr, length) since ERASE addresses relative to VerAddr.
func (p *Proto) eraseFlash(ctx context.Context, start, length uint32) error {
	if start < VerAddr {
		return &kbproto.OperationError{Operation: "erase flash", Status: kbproto.StatusUsageError}
	}
	payload := append(le32(start-VerAddr), le32(length)...)
	if _, err := p.Exchange(ctx, CmdFW, SubFWErase, payload); err != nil {
		return err
	}
	select {
	case <-time.After(eraseSleep):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// readFlash reads readChunkSize bytes at the absolute address addr.
func (p *Proto) readFlash(ctx context.Context, addr uint32) ([]byte, error) {
	resp, err := p.Exchange(ctx, CmdRead, SubReadAddr, le32(addr))
	if err != nil {
		return nil, err
	}
	if len(resp.Payload) < readChunkSize {
		return nil, &kbproto.OperationError{Operation: "read flash", Status: kbproto.StatusIoError}
	}
	return append([]byte(nil), resp.Payload[:readChunkSize]...), nil
}

// writeFlash implements the stateful address-pointer write protocol:
// ADDR/SET then ADDR/GET to confirm the pointer landed where expected,
// then one WRITE per writeChunkSize-byte chunk with the subcommand byte
// doubling as that chunk's length and the response echoing the new
// pointer position at payload offset 0 (LE u16).
func (p *Proto) writeFlash(ctx context.Context, addr uint32, data []byte) error {
	if addr < VerAddr {
		return &kbproto.OperationError{Operation: "write flash", Status: kbproto.StatusUsageError}
	}

	relAddr := addr - VerAddr
	if _, err := p.Exchange(ctx, CmdAddr, SubAddrSet, le32(relAddr)); err != nil {
		return err
	}
	resp, err := p.Exchange(ctx, CmdAddr, SubAddrGet, nil)
	if err != nil {
		return err
	}
	if len(resp.Payload) < 4 || binary.LittleEndian.Uint32(resp.Payload[0:4]) != relAddr {
		return &kbproto.OperationError{Operation: "write flash", Status: kbproto.StatusIoError}
	}

	pos := relAddr
	for off := 0; off < len(data); off += writeChunkSize {
		end := off + writeChunkSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[off:end]

		resp, err := p.Exchange(ctx, CmdWrite, byte(len(chunk)), chunk)
		if err != nil {
			return err
		}
		pos += uint32(len(chunk))
		if len(resp.Payload) >= 2 {
			next := uint32(binary.LittleEndian.Uint16(resp.Payload[0:2]))
			if next != pos {
				p.logInfo("write sequence error", "got", next, "want", pos)
			}
		}
	}
	return nil
}

// crcFlash requests both FW_CRC and FW_SUM over (addr, len), addressed
// relative to VerAddr, returning the CRC value as proto_cykb.cpp does
// (SUM is queried and logged but not otherwise used).
func (p *Proto) crcFlash(ctx context.Context, addr, length uint32) (uint32, error) {
	if addr < VerAddr {
		return 0, &kbproto.OperationError{Operation: "crc flash", Status: kbproto.StatusUsageError}
	}
	rel := addr - VerAddr

	crcResp, err := p.Exchange(ctx, CmdFW, SubFWCRC, append(le32(rel), le32(length)...))
	if err != nil {
		return 0, err
	}
	if len(crcResp.Payload) < 4 {
		return 0, &kbproto.OperationError{Operation: "crc flash", Status: kbproto.StatusIoError}
	}
	crc := binary.LittleEndian.Uint32(crcResp.Payload[0:4])

	sumResp, err := p.Exchange(ctx, CmdFW, SubFWSum, append(le32(rel), le32(length)...))
	if err != nil {
		return 0, err
	}
	if len(sumResp.Payload) >= 4 {
		p.logDebug("flash sum", "sum", binary.LittleEndian.Uint32(sumResp.Payload[0:4]))
	}

	return crc, nil
}

// SetIncludeTail controls whether DumpFlash's final partial readChunkSize
// window (flashSize is not a multiple of readChunkSize) is included.
// proto_cykb.cpp's dumpFlash stops readChunkSize bytes short of the
// boundary with a commented-out tail-read block (spec.md's apparent-bug
// note (a)); this flag exposes that choice instead of silently picking
// one behavior.
func (p *Proto) SetIncludeTail(v bool) { p.includeTail = v }

// DumpFlash reads the device's addressable flash region in
// readChunkSize-byte windows, matching ProtoCYKB::dumpFlash's
// best-effort boundary behavior unless SetIncludeTail(true) has been called.
func (p *Proto) DumpFlash(ctx context.Context) ([]byte, error) {
	out := make([]byte, 0, flashSize)
	var addr uint32
	for addr = 0; addr < flashSize-readChunkSize; addr += readChunkSize {
		chunk, err := p.readFlash(ctx, addr)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	if p.includeTail {
		chunk, err := p.readFlash(ctx, flashSize-readChunkSize)
		if err != nil {
			return nil, err
		}
		tailLen := flashSize - uint32(len(out))
		out = append(out, chunk[readChunkSize-int(tailLen):]...)
	}
	return out, nil
}

// WriteFirmware XOR-encodes fw for the device, erases the target region,
// writes it, and verifies by comparing the device's post-write CRC
// against a local CRC32 of the encoded image, matching
// ProtoCYKB::writeFirmware's crc2-vs-crc1 comparison (CYKB has no
// per-chunk CHECK command; the whole-image CRC is the verification step).
// Rejects a zero-length fw and a fw too large for the flash region before
// performing any I/O.
func (p *Proto) WriteFirmware(ctx context.Context, fw []byte, progress kbproto.ProgressCallback) error {
	if len(fw) == 0 {
		return &kbproto.OperationError{Operation: "write firmware", Status: kbproto.StatusUsageError}
	}
	if capacity := flashSize - p.desc.FWBase; uint32(len(fw)) > capacity {
		return &kbproto.OperationError{Operation: "write firmware", Status: kbproto.StatusFlashError}
	}

	report := func(phase kbproto.Phase, current, total int) {
		if progress != nil {
			progress(kbproto.Progress{Phase: phase, Current: current, Total: total})
		}
	}

	encoded := fwcodec.Encode(fw)
	wantCRC := crc32.ChecksumIEEE(encoded)

	if curCRC, err := p.crcFlash(ctx, p.desc.FWBase, uint32(len(encoded))); err != nil {
		p.logDebug("pre-write CRC query failed, continuing", "err", err)
	} else {
		p.logDebug("current CRC", "crc", curCRC)
	}

	report(kbproto.PhaseErasing, 0, 1)
	if err := p.eraseFlash(ctx, p.desc.FWBase, uint32(len(encoded))); err != nil {
		return err
	}
	select {
	case <-time.After(waitSleep):
	case <-ctx.Done():
		return ctx.Err()
	}
	report(kbproto.PhaseErasing, 1, 1)

	report(kbproto.PhaseWriting, 0, 1)
	if err := p.writeFlash(ctx, p.desc.FWBase, encoded); err != nil {
		return err
	}
	report(kbproto.PhaseWriting, 1, 1)

	report(kbproto.PhaseVerifying, 0, 1)
	afterCRC, err := p.crcFlash(ctx, p.desc.FWBase, uint32(len(encoded)))
	if err != nil {
		return err
	}
	if afterCRC != wantCRC {
		p.logInfo("CRCs do not match, firmware write failed", "want", wantCRC, "got", afterCRC)
		return &kbproto.OperationError{Operation: "verify firmware", Status: kbproto.StatusFlashError}
	}
	report(kbproto.PhaseVerifying, 1, 1)

	return nil
}

// EraseAndCheck reboots to the bootloader and sweeps 13 0x1000-byte erases
// from VerAddr, logging CRC before/after with no blank-verification —
// matching ProtoCYKB::eraseAndCheck exactly (it is a simple erase sweep,
// not an actual check).
func (p *Proto) EraseAndCheck(ctx context.Context) error {
	if err := p.RebootToBootloader(ctx, true); err != nil {
		return err
	}

	before, err := p.crcFlash(ctx, VerAddr, flashSize-VerAddr)
	if err != nil {
		p.logDebug("pre-erase CRC query failed, continuing", "err", err)
	} else {
		p.logDebug("current CRC", "crc", before)
	}

	addr := VerAddr
	for i := 0; i < 16-3; i++ {
		p.logInfo("erase", "addr", addr)
		if err := p.eraseFlash(ctx, addr, 0x1000); err != nil {
			return err
		}
		addr += 0x1000
	}

	after, err := p.crcFlash(ctx, VerAddr, flashSize-VerAddr)
	if err != nil {
		p.logDebug("post-erase CRC query failed, continuing", "err", err)
	} else {
		p.logDebug("new CRC", "crc", after)
	}

	return nil
}

// Update runs the common reboot -> clear version -> write -> set version
// -> reboot chain.
func (p *Proto) Update(ctx context.Context, version string, fw []byte, progress kbproto.ProgressCallback) error {
	return kbproto.Update(ctx, p, version, fw, progress)
}
