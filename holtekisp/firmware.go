package holtekisp

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/pok3r-custom/pok3rtool/kbproto"
	"github.com/pok3r-custom/pok3rtool/packet"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// GetInfo decodes the bootrom's INFO response: ISP protocol version,
// model (format depends on that version), page size and flash size, and
// logs the option-byte security/protection state read via readFlash at
// obAddr. Unlike the other protocol families this is the only one with a
// real info query, so DeviceInfo is fully populated here.
func (p *Proto) GetInfo(ctx context.Context) (kbproto.DeviceInfo, error) {
	raw, err := p.rawExchange(ctx, CmdInfo, 0, nil)
	if err != nil {
		return kbproto.DeviceInfo{}, err
	}
	data := raw[:]

	ispVer := binary.LittleEndian.Uint16(data[2:4])

	var model uint32
	switch ispVer {
	case 0x101:
		model = binary.LittleEndian.Uint32(data[16:20])
	case 0x100:
		model = uint32(binary.LittleEndian.Uint16(data[0:2]))
	}

	pageSize := binary.LittleEndian.Uint16(data[6:8])
	pageCount := binary.LittleEndian.Uint16(data[8:10])
	flashSize := uint32(pageSize) * uint32(pageCount)

	p.logInfo("device info", "isp_version", ispVer, "model", model, "page_size", pageSize, "flash_size", flashSize)

	if ob, err := p.readFlash(ctx, obAddr); err != nil {
		p.logDebug("cannot read option bytes", "err", err)
	} else if len(ob) >= 20 {
		cp := ob[16]
		p.logDebug("option bytes", "flash_security", cp&1 == 0, "protection", cp&2 == 0)
	}

	if count, _, err := p.getCmdStatus(ctx); err == nil {
		p.logDebug("status", "count", count)
	}

	return kbproto.DeviceInfo{
		ISPVersion: ispVer,
		PageSize:   uint32(pageSize),
		PageCount:  uint32(pageCount),
		ChipModel:  uint16(model),
		FlashBase:  fwAddr,
	}, nil
}

// ReadVersion reports the ISP protocol version as a hex string, the only
// version-like identity the bootrom exposes.
func (p *Proto) ReadVersion(ctx context.Context) (string, error) {
	raw, err := p.rawExchange(ctx, CmdInfo, 0, nil)
	if err != nil {
		return "", err
	}
	ver := binary.LittleEndian.Uint16(raw[2:4])
	return formatHex(ver), nil
}

func formatHex(v uint16) string {
	const hexDigits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = hexDigits[v&0xF]
		v >>= 4
	}
	return string(buf[i:])
}

// ClearVersion is a no-op reporting success: the bootrom cannot be
// written to persist a version string, so the original reports success
// unconditionally rather than failing an operation that's meaningless
// for this protocol family.
func (p *Proto) ClearVersion(ctx context.Context) error { return nil }

// SetVersion is a no-op reporting success, for the same reason as
// ClearVersion.
func (p *Proto) SetVersion(ctx context.Context, version string) error { return nil }

// flashSize queries INFO for page_size*page_count, falling back to
// defaultFlashLen if the response can't be decoded.
func (p *Proto) flashSize(ctx context.Context) uint32 {
	raw, err := p.rawExchange(ctx, CmdInfo, 0, nil)
	if err != nil {
		return defaultFlashLen
	}
	pageSize := binary.LittleEndian.Uint16(raw[6:8])
	pageCount := binary.LittleEndian.Uint16(raw[8:10])
	size := uint32(pageSize) * uint32(pageCount)
	if size == 0 {
		return defaultFlashLen
	}
	return size
}

// DumpFlash reads the bootrom's reported flash region in readChunkSize
// (64-byte) windows.
func (p *Proto) DumpFlash(ctx context.Context) ([]byte, error) {
	size := p.flashSize(ctx)
	out := make([]byte, 0, size)
	for addr := uint32(0); addr < size; addr += readChunkSize {
		chunk, err := p.readFlash(ctx, addr)
		if err != nil {
			return out, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// readFlash reads readChunkSize (64) bytes at addr. Unlike every other
// protocol's chunked read, the ISP bootrom's FLASH/READ response carries
// no cmd/sub/CRC header: the entire 64-byte frame is raw flash content,
// so this bypasses Exchange/packet.ParseResponse (which would
// misinterpret those bytes as a sequence token and CRC) and talks to the
// transport directly, mirroring ProtoHoltek::readFlash's
// `bin.write(data)` of the whole received buffer.
func (p *Proto) readFlash(ctx context.Context, addr uint32) ([]byte, error) {
	payload := append(le32(addr), le32(addr+readChunkSize-1)...)
	raw, err := p.rawExchange(ctx, CmdFlash, SubFlashRead, payload)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), raw[:]...), nil
}

// writeFlash writes data (must fit in one FLASH/WRITE payload) at addr,
// then polls the status buffer until at least one command has completed.
func (p *Proto) writeFlash(ctx context.Context, addr uint32, data []byte) error {
	if len(data) == 0 {
		return &kbproto.OperationError{Operation: "write flash", Status: kbproto.StatusUsageError}
	}
	end := addr + uint32(len(data)) - 1
	payload := append(le32(addr), le32(end)...)
	payload = append(payload, data...)

	if _, err := p.Exchange(ctx, CmdFlash, SubFlashWrite, payload); err != nil {
		return err
	}

	for {
		count, _, err := p.getCmdStatus(ctx)
		if err != nil {
			return err
		}
		if count >= 1 {
			return nil
		}
		select {
		case <-time.After(5 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// checkFlash compares data against flash at addr, waiting 500us before a
// single status poll, matching ProtoHoltek::checkFlash.
func (p *Proto) checkFlash(ctx context.Context, addr uint32, data []byte) error {
	if len(data) == 0 {
		return &kbproto.OperationError{Operation: "check flash", Status: kbproto.StatusUsageError}
	}
	end := addr + uint32(len(data)) - 1
	payload := append(le32(addr), le32(end)...)
	payload = append(payload, data...)

	if _, err := p.Exchange(ctx, CmdFlash, SubFlashCheck, payload); err != nil {
		return err
	}

	select {
	case <-time.After(500 * time.Microsecond):
	case <-ctx.Done():
		return ctx.Err()
	}

	count, _, err := p.getCmdStatus(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		return &kbproto.OperationError{Operation: "check flash", Status: kbproto.StatusFlashError}
	}
	return nil
}

// massEraseFlash erases the entire chip.
func (p *Proto) massEraseFlash(ctx context.Context) error {
	payload := append(le32(0), le32(0)...)
	_, err := p.Exchange(ctx, CmdErase, SubEraseMass, payload)
	return err
}

// eraseFlash erases the pages spanning [start, end].
func (p *Proto) eraseFlash(ctx context.Context, start, end uint32) error {
	payload := append(le32(start), le32(end)...)
	_, err := p.Exchange(ctx, CmdErase, SubErasePage, payload)
	return err
}

// crcFlash requests the bootrom's CRC-16 over (addr, len), then polls the
// status buffer once and reads the CRC back from its first two bytes.
func (p *Proto) crcFlash(ctx context.Context, addr, length uint32) (uint16, error) {
	payload := append(le32(addr), le32(length)...)
	if _, err := p.Exchange(ctx, CmdCRC, 0, payload); err != nil {
		return 0, err
	}

	select {
	case <-time.After(5 * time.Millisecond):
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	_, status, err := p.getCmdStatus(ctx)
	if err != nil {
		return 0, err
	}
	if len(status) < 2 {
		return 0, &kbproto.OperationError{Operation: "crc flash", Status: kbproto.StatusIoError}
	}
	return binary.LittleEndian.Uint16(status[0:2]), nil
}

// WriteFirmware mass-erases the chip, reboots into the freshly-erased
// bootrom, then writes and verifies fw in writeChunkSize chunks. Rejects a
// zero-length fw without any I/O; an oversized fw is rejected against the
// device's reported flash size before the mass erase.
func (p *Proto) WriteFirmware(ctx context.Context, fw []byte, progress kbproto.ProgressCallback) error {
	if len(fw) == 0 {
		return &kbproto.OperationError{Operation: "write firmware", Status: kbproto.StatusUsageError}
	}
	if capacity := p.flashSize(ctx) - fwAddr; uint32(len(fw)) > capacity {
		return &kbproto.OperationError{Operation: "write firmware", Status: kbproto.StatusFlashError}
	}

	report := func(phase kbproto.Phase, current, total int) {
		if progress != nil {
			progress(kbproto.Progress{Phase: phase, Current: current, Total: total})
		}
	}

	p.getCmdStatus(ctx)

	if curCRC, err := p.crcFlash(ctx, fwAddr, uint32(len(fw))); err != nil {
		p.logDebug("pre-write CRC query failed, continuing", "err", err)
	} else {
		p.logDebug("current CRC", "crc", curCRC)
	}
	wantCRC := packet.CRC16(fw)

	report(kbproto.PhaseErasing, 0, 1)
	if err := p.massEraseFlash(ctx); err != nil {
		return err
	}
	select {
	case <-time.After(eraseSleep):
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := p.RebootToBootloader(ctx, true); err != nil {
		return err
	}
	p.getCmdStatus(ctx)
	report(kbproto.PhaseErasing, 1, 1)

	total := (len(fw) + writeChunkSize - 1) / writeChunkSize
	for i, off := 0, 0; off < len(fw); i, off = i+1, off+writeChunkSize {
		end := off + writeChunkSize
		if end > len(fw) {
			end = len(fw)
		}
		if err := p.writeFlash(ctx, fwAddr+uint32(off), fw[off:end]); err != nil {
			return err
		}
		report(kbproto.PhaseWriting, i+1, total)
	}

	for i, off := 0, 0; off < len(fw); i, off = i+1, off+writeChunkSize {
		end := off + writeChunkSize
		if end > len(fw) {
			end = len(fw)
		}
		if err := p.checkFlash(ctx, fwAddr+uint32(off), fw[off:end]); err != nil {
			return err
		}
		report(kbproto.PhaseVerifying, i+1, total)
	}

	if finalCRC, err := p.crcFlash(ctx, fwAddr, uint32(len(fw))); err != nil {
		p.logDebug("final CRC query failed", "err", err)
	} else {
		p.logDebug("final CRC", "crc", finalCRC, "want", wantCRC)
	}

	return nil
}

// EraseAndCheck mass-erases the chip and reboots into the freshly-erased
// bootrom, matching ProtoHoltek::eraseAndCheck (which, like CYKB's, is a
// sweep with no actual blank-verification despite its name).
func (p *Proto) EraseAndCheck(ctx context.Context) error {
	if err := p.massEraseFlash(ctx); err != nil {
		return err
	}
	select {
	case <-time.After(eraseSleep):
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.RebootToBootloader(ctx, true)
}

// Update runs the common reboot -> clear version -> write -> set version
// -> reboot chain; ClearVersion/SetVersion are no-ops for this protocol.
func (p *Proto) Update(ctx context.Context, version string, fw []byte, progress kbproto.ProgressCallback) error {
	return kbproto.Update(ctx, p, version, fw, progress)
}

