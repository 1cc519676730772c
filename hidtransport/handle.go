package hidtransport

import (
	"github.com/karalabe/hid"
)

// ReportSize is the fixed interrupt transfer size every supported device
// uses for both the update protocol and status polling.
const ReportSize = 64

// Handle wraps an open HID device. A Handle is exclusively owned by its
// caller once returned from Scan; Close releases the underlying OS handle.
type Handle struct {
	dev  *hid.Device
	info hid.DeviceInfo
}

// VendorID and ProductID identify the device this handle was opened for at
// scan time.
func (h *Handle) VendorID() uint16  { return h.info.VendorID }
func (h *Handle) ProductID() uint16 { return h.info.ProductID }

// Send performs one interrupt OUT transfer of exactly ReportSize bytes.
func (h *Handle) Send(report []byte) error {
	if len(report) != ReportSize {
		return ErrBadReportSize
	}
	n, err := h.dev.Write(report)
	if err != nil {
		return classifyIOErr("send", err)
	}
	if n != ReportSize {
		return ErrShortWrite
	}
	return nil
}

// Recv performs one interrupt IN transfer into buf, which must be at least
// ReportSize bytes.
func (h *Handle) Recv(buf []byte) (int, error) {
	if len(buf) < ReportSize {
		return 0, ErrBadReportSize
	}
	n, err := h.dev.Read(buf[:ReportSize])
	if err != nil {
		return n, classifyIOErr("recv", err)
	}
	if n != ReportSize {
		return n, ErrShortRead
	}
	return n, nil
}

// SendFeatureReport and GetFeatureReport expose hidapi's feature-report
// primitives, used by the Holtek ISP status-poll control transfer which
// has no interrupt-transfer equivalent.
func (h *Handle) SendFeatureReport(data []byte) error {
	_, err := h.dev.SendFeatureReport(data)
	if err != nil {
		return classifyIOErr("send feature report", err)
	}
	return nil
}

func (h *Handle) GetFeatureReport(buf []byte) (int, error) {
	n, err := h.dev.GetFeatureReport(buf)
	if err != nil {
		return n, classifyIOErr("get feature report", err)
	}
	return n, nil
}

// Close releases the underlying OS handle. Safe to call more than once.
func (h *Handle) Close() error {
	return h.dev.Close()
}
