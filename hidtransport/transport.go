package hidtransport

import (
	"context"
	"time"

	"github.com/karalabe/hid"
)

// Step identifies which stage of the filter-callback enumeration a Detail
// describes.
type Step int

const (
	StepDevice Step = iota
	StepInterface
	StepReport
	StepOpen
)

// InterfaceClassHID, InterfaceSubclassNone, and InterfaceProtocolNone are
// the values a vendor-defined, non-boot HID interface reports.
const (
	InterfaceClassHID     = 3
	InterfaceSubclassNone = 0
	InterfaceProtocolNone = 0
)

// Detail carries the fields known at a given Step. Fields for steps that
// have not yet run are zero.
type Detail struct {
	Step Step

	Bus, Address         int
	VendorID, ProductID  uint16

	Interface                 int
	Class, Subclass, Protocol uint8

	UsagePage, Usage uint16
	ReportDescriptor []byte

	Handle *Handle
}

// FilterFunc is invoked once per Step for each enumerated device. Returning
// false at Device or Interface skips the device; returning false at Report
// skips opening it; returning false at Open tells the transport to close
// the handle instead of handing ownership to the caller.
type FilterFunc func(Detail) bool

// Scan enumerates every attached HID device, walks it through the four
// filter steps, and returns the handles whose Open step the filter
// accepted. Devices rejected at any step are left untouched (never
// opened) or closed immediately (rejected at Open).
func Scan(filter FilterFunc) ([]*Handle, error) {
	infos, err := hid.Enumerate(0, 0)
	if err != nil {
		return nil, &TransportError{Op: "enumerate", Err: err}
	}

	var accepted []*Handle
	for _, info := range infos {
		if !filter(Detail{
			Step:      StepDevice,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
		}) {
			continue
		}

		if !filter(Detail{
			Step:      StepInterface,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
			Interface: info.Interface,
			Class:     0,
			Subclass:  0,
			Protocol:  0,
		}) {
			continue
		}

		if !filter(Detail{
			Step:             StepReport,
			VendorID:         info.VendorID,
			ProductID:        info.ProductID,
			Interface:        info.Interface,
			UsagePage:        info.UsagePage,
			Usage:            info.Usage,
			ReportDescriptor: nil,
		}) {
			continue
		}

		dev, err := info.Open()
		if err != nil {
			continue
		}
		handle := &Handle{dev: dev, info: info}

		if !filter(Detail{
			Step:      StepOpen,
			VendorID:  info.VendorID,
			ProductID: info.ProductID,
			Interface: info.Interface,
			UsagePage: info.UsagePage,
			Usage:     info.Usage,
			Handle:    handle,
		}) {
			_ = handle.Close()
			continue
		}

		accepted = append(accepted, handle)
	}

	return accepted, nil
}

// recvOuterCeiling bounds the poll-until-response fallback loop that
// RecvWithPoll performs when a device is momentarily slow to answer (e.g.
// immediately after a reboot); Recv itself makes a single attempt.
const recvOuterCeiling = time.Second

// recvPollInterval is the short sleep between individual recv attempts
// inside the outer ceiling.
const recvPollInterval = 20 * time.Millisecond

// RecvWithPoll reads one 64-byte report from h, retrying short timeouts
// until ctx is done or recvOuterCeiling elapses, whichever comes first.
func RecvWithPoll(ctx context.Context, h *Handle) ([ReportSize]byte, error) {
	deadline := time.Now().Add(recvOuterCeiling)
	var buf [ReportSize]byte
	for {
		n, err := h.Recv(buf[:])
		if err == nil && n == ReportSize {
			return buf, nil
		}
		if ctx.Err() != nil {
			return buf, ctx.Err()
		}
		if time.Now().After(deadline) {
			if err != nil {
				return buf, err
			}
			return buf, ErrShortRead
		}
		time.Sleep(recvPollInterval)
	}
}
