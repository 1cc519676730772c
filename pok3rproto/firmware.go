package pok3rproto

import (
	"bytes"
	"context"
	"encoding/binary"
	"time"

	"github.com/pok3r-custom/pok3rtool/kbproto"
)

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// GetInfo is not implemented by the POK3R command set (ERASE/FLASH/CRC/
// UPDATE_START/RESET/DISCONNECT/DEBUG carries no info query); the CYKB
// protocol and the Holtek ISP bootrom protocol each have one.
func (p *Proto) GetInfo(ctx context.Context) (kbproto.DeviceInfo, error) {
	return kbproto.DeviceInfo{}, &kbproto.OperationError{Operation: "get info", Status: kbproto.StatusNotImplemented}
}

// ReadVersion reads the length-prefixed ASCII version string stored at
// fw_base - versionOffset.
func (p *Proto) ReadVersion(ctx context.Context) (string, error) {
	addr := p.desc.FWBase - versionOffset
	resp, err := p.Exchange(ctx, CmdFlash, SubFlashRead, le32(addr))
	if err != nil {
		return "", err
	}
	if len(resp.Payload) < 4 {
		return "", &kbproto.OperationError{Operation: "read version", Status: kbproto.StatusIoError}
	}
	n := binary.LittleEndian.Uint32(resp.Payload[0:4])
	if int(n) > len(resp.Payload)-4 {
		return "", &kbproto.OperationError{Operation: "read version", Status: kbproto.StatusIoError}
	}
	return string(resp.Payload[4 : 4+n]), nil
}

// ClearVersion erases the 8-byte version region and verifies it now reads
// as all-0xFF.
func (p *Proto) ClearVersion(ctx context.Context) error {
	addr := p.desc.FWBase - versionOffset
	if err := p.eraseRange(ctx, addr, versionRegionSize); err != nil {
		return err
	}

	resp, err := p.Exchange(ctx, CmdFlash, SubFlashRead, le32(addr))
	if err != nil {
		return err
	}
	if len(resp.Payload) < versionRegionSize {
		return &kbproto.OperationError{Operation: "clear version", Status: kbproto.StatusIoError}
	}
	want := bytes.Repeat([]byte{0xFF}, versionRegionSize)
	if !bytes.Equal(resp.Payload[:versionRegionSize], want) {
		return &kbproto.OperationError{Operation: "clear version", Status: kbproto.StatusFlashError}
	}
	return nil
}

// SetVersion writes a length-prefixed ASCII version string: 4-byte LE
// length, the bytes, zero-padded to a multiple of 4.
func (p *Proto) SetVersion(ctx context.Context, version string) error {
	data := []byte(version)
	padded := len(data)
	if rem := padded % 4; rem != 0 {
		padded += 4 - rem
	}
	payload := make([]byte, 4+padded)
	binary.LittleEndian.PutUint32(payload[0:4], uint32(len(data)))
	copy(payload[4:], data)

	addr := p.desc.FWBase - versionOffset
	return p.writeChunk(ctx, addr, payload)
}

// eraseRange sends ERASE(start, start+length) and waits the device's
// erase settle time.
func (p *Proto) eraseRange(ctx context.Context, start uint32, length uint32) error {
	payload := append(le32(start), le32(length)...)
	if _, err := p.Exchange(ctx, CmdErase, 0, payload); err != nil {
		return err
	}
	select {
	case <-time.After(eraseWait):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// writeChunk writes data (must fit in one FLASH/WRITE payload) at addr via
// (start_abs, end_abs_inclusive, data).
func (p *Proto) writeChunk(ctx context.Context, addr uint32, data []byte) error {
	end := addr + uint32(len(data)) - 1
	payload := make([]byte, 0, 8+len(data))
	payload = append(payload, le32(addr)...)
	payload = append(payload, le32(end)...)
	payload = append(payload, data...)

	resp, err := p.Exchange(ctx, CmdFlash, SubFlashWrite, payload)
	if err != nil {
		return err
	}
	_ = resp
	return nil
}

// checkChunk verifies data (as previously written at addr) matches what
// the device now holds via FLASH/CHECK, which answers with the error
// marker on mismatch (surfaced as ErrDeviceFail by packet.ParseResponse,
// which Exchange propagates).
func (p *Proto) checkChunk(ctx context.Context, addr uint32, data []byte) error {
	end := addr + uint32(len(data)) - 1
	payload := make([]byte, 0, 8+len(data))
	payload = append(payload, le32(addr)...)
	payload = append(payload, le32(end)...)
	payload = append(payload, data...)

	_, err := p.Exchange(ctx, CmdFlash, SubFlashCheck, payload)
	return err
}

// readChunk reads readChunkSize bytes of flash starting at addr.
func (p *Proto) readChunk(ctx context.Context, addr uint32) ([]byte, error) {
	resp, err := p.Exchange(ctx, CmdFlash, SubFlashRead, le32(addr))
	if err != nil {
		return nil, err
	}
	if len(resp.Payload) < readChunkSize {
		return nil, &kbproto.OperationError{Operation: "read flash", Status: kbproto.StatusIoError}
	}
	return append([]byte(nil), resp.Payload[:readChunkSize]...), nil
}

// crcFlash requests the device's CRC-16 over (addr, length).
func (p *Proto) crcFlash(ctx context.Context, addr, length uint32) (uint16, error) {
	payload := append(le32(addr), le32(length)...)
	resp, err := p.Exchange(ctx, CmdCRC, 0, payload)
	if err != nil {
		return 0, err
	}
	if len(resp.Payload) < 2 {
		return 0, &kbproto.OperationError{Operation: "crc flash", Status: kbproto.StatusIoError}
	}
	return binary.LittleEndian.Uint16(resp.Payload[0:2]), nil
}

// DumpFlash reads the device's entire addressable flash region in
// readChunkSize-byte windows.
func (p *Proto) DumpFlash(ctx context.Context) ([]byte, error) {
	out := make([]byte, 0, flashSize)
	for addr := uint32(0); addr < flashSize; addr += readChunkSize {
		chunk, err := p.readChunk(ctx, addr)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out[:flashSize], nil
}

// EraseAndCheck erases the device's entire firmware region and verifies
// every page reads back as a FLASH/CHECK pass against an all-0xFF buffer.
func (p *Proto) EraseAndCheck(ctx context.Context) error {
	length := flashSize - p.desc.FWBase
	if err := p.eraseRange(ctx, p.desc.FWBase, length); err != nil {
		return err
	}

	blank := bytes.Repeat([]byte{0xFF}, writeChunkSize)
	for addr := p.desc.FWBase; addr < p.desc.FWBase+length; addr += writeChunkSize {
		n := writeChunkSize
		if remaining := p.desc.FWBase + length - addr; uint32(n) > remaining {
			n = int(remaining)
		}
		if err := p.checkChunk(ctx, addr, blank[:n]); err != nil {
			return err
		}
	}
	return nil
}

// WriteFirmware implements the write algorithm: erase the target region,
// write fw in writeChunkSize chunks, then verify each chunk with
// FLASH/CHECK. Rejects a zero-length fw and a fw too large for the flash
// region before performing any I/O.
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

	if _, err := p.crcFlash(ctx, p.desc.FWBase, uint32(len(fw))); err != nil {
		p.logDebug("pre-write CRC query failed, continuing", "err", err)
	}

	report(kbproto.PhaseErasing, 0, 1)
	if err := p.eraseRange(ctx, p.desc.FWBase, uint32(len(fw))); err != nil {
		return err
	}
	report(kbproto.PhaseErasing, 1, 1)

	total := (len(fw) + writeChunkSize - 1) / writeChunkSize
	for i, off := 0, 0; off < len(fw); i, off = i+1, off+writeChunkSize {
		end := off + writeChunkSize
		if end > len(fw) {
			end = len(fw)
		}
		addr := p.desc.FWBase + uint32(off)
		if err := p.writeChunk(ctx, addr, fw[off:end]); err != nil {
			return err
		}
		report(kbproto.PhaseWriting, i+1, total)
	}

	for i, off := 0, 0; off < len(fw); i, off = i+1, off+writeChunkSize {
		end := off + writeChunkSize
		if end > len(fw) {
			end = len(fw)
		}
		addr := p.desc.FWBase + uint32(off)
		if err := p.checkChunk(ctx, addr, fw[off:end]); err != nil {
			return &kbproto.OperationError{Operation: "verify chunk", Status: kbproto.StatusFlashError}
		}
		report(kbproto.PhaseVerifying, i+1, total)
	}

	return nil
}

// Update runs the common reboot -> clear version -> write -> set version
// -> reboot chain.
func (p *Proto) Update(ctx context.Context, version string, fw []byte, progress kbproto.ProgressCallback) error {
	return kbproto.Update(ctx, p, version, fw, progress)
}
