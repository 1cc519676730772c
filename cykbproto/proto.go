package cykbproto

import (
	"context"
	"fmt"
	"time"

	"github.com/pok3r-custom/pok3rtool/devices"
	"github.com/pok3r-custom/pok3rtool/hidtransport"
	"github.com/pok3r-custom/pok3rtool/kbproto"
	"github.com/pok3r-custom/pok3rtool/packet"
	"github.com/pok3r-custom/pok3rtool/qmkext"
)

// waitSleep and eraseSleep mirror proto_cykb.cpp's WAIT_SLEEP/ERASE_SLEEP
// constants (given in seconds there; used here as the Go idiom of typed
// durations). Declared as vars, not consts, so tests that exercise
// multi-erase sequences (EraseAndCheck's 13-page sweep) can shrink them.
var (
	waitSleep  = 5 * time.Second
	eraseSleep = 2 * time.Second
)

const (
	recvPollCeiling  = time.Second
	recvPollInterval = 20 * time.Millisecond
)

// transport is the subset of *hidtransport.Handle this package needs,
// narrowed to an interface so tests can substitute internal/mockhid.
type transport interface {
	Send(report []byte) error
	Recv(buf []byte) (int, error)
	Close() error
	VendorID() uint16
	ProductID() uint16
}

// Proto implements kbproto.KBProto for CYKB-family devices.
type Proto struct {
	qmkext.Mixin

	desc        devices.Descriptor
	handle      transport
	inBootPID   bool
	logger      kbproto.Logger
	includeTail bool
}

// Option configures a Proto at construction.
type Option func(*Proto)

// WithLogger sets a logger used for debug/info/error messages.
func WithLogger(l kbproto.Logger) Option {
	return func(p *Proto) { p.logger = l }
}

// New returns an unopened Proto for desc.
func New(desc devices.Descriptor, opts ...Option) *Proto {
	p := &Proto{desc: desc}
	for _, opt := range opts {
		opt(p)
	}
	p.Mixin.Init(p)
	return p
}

func (p *Proto) logDebug(msg string, kv ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, kv...)
	}
}

func (p *Proto) logInfo(msg string, kv ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, kv...)
	}
}

// Type reports the protocol family, satisfying kbproto.KBProto.
func (p *Proto) Type() devices.Protocol { return devices.ProtoCYKB }

// Open scans for desc's application or bootloader PID and takes ownership
// of the matching handle.
func (p *Proto) Open(ctx context.Context) error {
	if p.handle != nil {
		return nil
	}

	handles, err := hidtransport.Scan(func(d hidtransport.Detail) bool {
		switch d.Step {
		case hidtransport.StepDevice:
			return d.VendorID == p.desc.VID && (d.ProductID == p.desc.PID || d.ProductID == p.desc.BootPID)
		case hidtransport.StepReport:
			return d.UsagePage == devices.VendorUsagePage && d.Usage == devices.VendorUsage
		default:
			return true
		}
	})
	if err != nil {
		return err
	}
	if len(handles) == 0 {
		return fmt.Errorf("cykbproto: no device found for %s", p.desc.Slug)
	}

	h := handles[0]
	for _, extra := range handles[1:] {
		_ = extra.Close()
	}

	p.handle = h
	p.inBootPID = h.ProductID() == p.desc.BootPID
	p.logDebug("opened device", "slug", p.desc.Slug, "bootloader", p.inBootPID)
	return nil
}

// Close releases the underlying handle.
func (p *Proto) Close() error {
	if p.handle == nil {
		return nil
	}
	err := p.handle.Close()
	p.handle = nil
	return err
}

// IsOpen reports whether a handle is currently held.
func (p *Proto) IsOpen() bool { return p.handle != nil }

// IsBootloader reports whether the open handle is the device's bootloader
// identity.
func (p *Proto) IsBootloader() bool { return p.inBootPID }

// IsQMK reports whether the device answers the QMK extension's CTRL/INFO
// marker.
func (p *Proto) IsQMK(ctx context.Context) bool {
	_, ok := p.Mixin.IsQMK(ctx)
	return ok
}

// Exchange sends one no-CRC packet and returns its error-marker-checked
// response, satisfying qmkext.Exchanger. RESET requests do not go through
// Exchange: the device does not answer one, so reboot sends it with
// sendReset, which never waits for a response.
func (p *Proto) Exchange(ctx context.Context, cmd, sub byte, payload []byte) (packet.Response, error) {
	if p.handle == nil {
		return packet.Response{}, fmt.Errorf("cykbproto: device not open")
	}

	req, err := packet.Build(cmd, sub, payload, false)
	if err != nil {
		return packet.Response{}, err
	}
	if err := p.handle.Send(req[:]); err != nil {
		return packet.Response{}, err
	}
	raw, err := p.recvWithPoll(ctx)
	if err != nil {
		return packet.Response{}, err
	}
	return packet.ParseResponse(raw, 0, false)
}

// sendReset issues RESET without waiting for (or requiring) a response:
// a successful reset disconnects the device before it can answer.
func (p *Proto) sendReset(sub byte) error {
	req, err := packet.Build(CmdReset, sub, nil, false)
	if err != nil {
		return err
	}
	return p.handle.Send(req[:])
}

func (p *Proto) recvWithPoll(ctx context.Context) ([packet.Size]byte, error) {
	deadline := time.Now().Add(recvPollCeiling)
	var buf [packet.Size]byte
	for {
		n, err := p.handle.Recv(buf[:])
		if err == nil && n == packet.Size {
			return buf, nil
		}
		if ctx.Err() != nil {
			return buf, ctx.Err()
		}
		if time.Now().After(deadline) {
			if err != nil {
				return buf, err
			}
			return buf, fmt.Errorf("cykbproto: short read")
		}
		time.Sleep(recvPollInterval)
	}
}

// RebootToFirmware resets a bootloader-mode device back into application
// firmware, optionally reopening the handle.
func (p *Proto) RebootToFirmware(ctx context.Context, reopen bool) error {
	if !p.inBootPID {
		return nil
	}
	return p.reboot(ctx, SubResetFW, reopen)
}

// RebootToBootloader resets the device into its bootloader, optionally
// reopening the handle.
func (p *Proto) RebootToBootloader(ctx context.Context, reopen bool) error {
	if p.inBootPID {
		return nil
	}
	return p.reboot(ctx, SubResetBL, reopen)
}

func (p *Proto) reboot(ctx context.Context, sub byte, reopen bool) error {
	if p.handle == nil {
		return fmt.Errorf("cykbproto: device not open")
	}
	if err := p.sendReset(sub); err != nil {
		return err
	}
	if err := p.Close(); err != nil {
		return err
	}
	if !reopen {
		return nil
	}

	select {
	case <-time.After(waitSleep):
	case <-ctx.Done():
		return ctx.Err()
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		if openErr := p.Open(ctx); openErr == nil {
			if p.inBootPID == (sub == SubResetFW) {
				return fmt.Errorf("cykbproto: device reappeared in unexpected mode")
			}
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("cykbproto: device did not reappear after reset")
		}
		time.Sleep(100 * time.Millisecond)
	}
}
