package pok3rproto

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/pok3r-custom/pok3rtool/devices"
	"github.com/pok3r-custom/pok3rtool/hidtransport"
	"github.com/pok3r-custom/pok3rtool/kbproto"
	"github.com/pok3r-custom/pok3rtool/packet"
	"github.com/pok3r-custom/pok3rtool/qmkext"
)

// eraseWait is how long the device needs after an ERASE command before it
// answers further requests.
const eraseWait = 1500 * time.Millisecond

// recvPollCeiling and recvPollInterval bound Exchange's poll-until-response
// fallback, generalizing hidtransport.RecvWithPoll's constants to a handle
// typed as the narrower transport interface below so tests can substitute
// a mock in place of a real *hidtransport.Handle.
const (
	recvPollCeiling  = time.Second
	recvPollInterval = 20 * time.Millisecond
)

// transport is the subset of *hidtransport.Handle this package needs.
// Narrowing to an interface (rather than depending on the concrete type)
// lets tests exercise Proto's command logic against internal/mockhid.
type transport interface {
	Send(report []byte) error
	Recv(buf []byte) (int, error)
	Close() error
	VendorID() uint16
	ProductID() uint16
}

// Proto implements kbproto.KBProto for POK3R-family devices. The embedded
// qmkext.Mixin is initialized lazily once a transport exists, following
// the same composition pattern cykbproto.Proto uses.
type Proto struct {
	qmkext.Mixin

	desc      devices.Descriptor
	handle    transport
	inBootPID bool
	logger    kbproto.Logger
}

// Option configures a Proto at construction, mirroring the teacher's
// functional-options convention (bootloader.Option).
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
func (p *Proto) Type() devices.Protocol { return devices.ProtoPOK3R }

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
		return fmt.Errorf("pok3rproto: no device found for %s", p.desc.Slug)
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
// marker. Satisfies kbproto.KBProto's bool-returning signature by
// discarding qmkext.Mixin's richer Info.
func (p *Proto) IsQMK(ctx context.Context) bool {
	_, ok := p.Mixin.IsQMK(ctx)
	return ok
}

// Exchange sends one CRC-bearing packet and returns its validated
// response, satisfying qmkext.Exchanger.
func (p *Proto) Exchange(ctx context.Context, cmd, sub byte, payload []byte) (packet.Response, error) {
	if p.handle == nil {
		return packet.Response{}, fmt.Errorf("pok3rproto: device not open")
	}

	req, err := packet.Build(cmd, sub, payload, true)
	if err != nil {
		return packet.Response{}, err
	}
	reqCRC := binary.LittleEndian.Uint16(req[2:4])

	if err := p.handle.Send(req[:]); err != nil {
		return packet.Response{}, err
	}
	raw, err := p.recvWithPoll(ctx)
	if err != nil {
		return packet.Response{}, err
	}
	return packet.ParseResponse(raw, reqCRC, true)
}

// recvWithPoll reads one report, retrying short timeouts until ctx is done
// or recvPollCeiling elapses.
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
			return buf, fmt.Errorf("pok3rproto: short read")
		}
		time.Sleep(recvPollInterval)
	}
}

// RebootToFirmware resets a bootloader-mode device back into application
// firmware, optionally reopening the handle at its new PID.
func (p *Proto) RebootToFirmware(ctx context.Context, reopen bool) error {
	return p.reboot(ctx, SubResetBoot, reopen)
}

// RebootToBootloader resets the device into its bootloader, optionally
// reopening the handle at its new PID.
func (p *Proto) RebootToBootloader(ctx context.Context, reopen bool) error {
	if p.inBootPID {
		return nil
	}
	return p.reboot(ctx, SubResetBuiltin, reopen)
}

func (p *Proto) reboot(ctx context.Context, sub byte, reopen bool) error {
	_, err := p.Exchange(ctx, CmdReset, sub, nil)
	// A successful reset disconnects the device; a transport error here is
	// expected and not itself a failure.
	_ = err

	if err := p.Close(); err != nil {
		return err
	}
	if !reopen {
		return nil
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		if openErr := p.Open(ctx); openErr == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("pok3rproto: device did not reappear after reset")
		}
		time.Sleep(100 * time.Millisecond)
	}
}
