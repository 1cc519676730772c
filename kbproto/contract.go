package kbproto

import (
	"context"
	"time"

	"github.com/pok3r-custom/pok3rtool/devices"
)

// Phase names a stage of a chunked operation (erase/write/verify) for
// ProgressCallback reporting.
type Phase string

const (
	PhaseEnteringBootloader Phase = "entering-bootloader"
	PhaseErasing            Phase = "erasing"
	PhaseWriting            Phase = "writing"
	PhaseVerifying          Phase = "verifying"
	PhaseReboot             Phase = "reboot"
	PhaseComplete           Phase = "complete"
)

// Progress is reported during chunked flash operations. Current/Total are in
// whatever unit the calling protocol chunks by (packets, bytes, pages).
type Progress struct {
	Phase        Phase
	Current      int
	Total        int
	ElapsedTime  time.Duration
}

// ProgressCallback is invoked as a long-running operation advances.
// Implementations must return promptly; they run on the calling goroutine.
type ProgressCallback func(Progress)

// DeviceInfo is the decoded response of a protocol's "info" command. Not
// every field is populated by every protocol; zero value means "unknown"
// for that protocol family.
type DeviceInfo struct {
	ISPVersion  uint16
	PageSize    uint32
	PageCount   uint32
	ChipModel   uint16
	FlashBase   uint32
}

// KBProto is the capability contract implemented by every protocol
// front-end. The CLI depends only on this interface; pok3rproto.Proto,
// cykbproto.Proto, and holtekisp.Proto each implement it concretely.
type KBProto interface {
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool
	IsBootloader() bool
	IsQMK(ctx context.Context) bool

	RebootToFirmware(ctx context.Context, reopen bool) error
	RebootToBootloader(ctx context.Context, reopen bool) error

	ReadVersion(ctx context.Context) (string, error)
	ClearVersion(ctx context.Context) error
	SetVersion(ctx context.Context, version string) error

	GetInfo(ctx context.Context) (DeviceInfo, error)
	DumpFlash(ctx context.Context) ([]byte, error)

	WriteFirmware(ctx context.Context, fw []byte, progress ProgressCallback) error
	EraseAndCheck(ctx context.Context) error

	Update(ctx context.Context, version string, fw []byte, progress ProgressCallback) error

	Type() devices.Protocol
}

// Update implements the common chain described by every protocol's
// Update operation: reboot to bootloader, clear version, write firmware,
// set version, reboot to firmware. It is exposed as a free function so each
// protocol's Update method can call it without duplicating the sequencing
// logic, matching the teacher's orchestration-in-one-place style
// (bootloader.Programmer.Program).
func Update(ctx context.Context, p KBProto, version string, fw []byte, progress ProgressCallback) error {
	report := func(phase Phase) {
		if progress != nil {
			progress(Progress{Phase: phase})
		}
	}

	report(PhaseEnteringBootloader)
	if err := p.RebootToBootloader(ctx, true); err != nil {
		return &OperationError{Operation: "reboot to bootloader", Status: StatusIoError}
	}

	if err := p.ClearVersion(ctx); err != nil {
		return err
	}

	if err := p.WriteFirmware(ctx, fw, progress); err != nil {
		return err
	}

	if err := p.SetVersion(ctx, version); err != nil {
		return err
	}

	report(PhaseReboot)
	if err := p.RebootToFirmware(ctx, true); err != nil {
		return &OperationError{Operation: "reboot to firmware", Status: StatusIoError}
	}

	report(PhaseComplete)
	return nil
}
