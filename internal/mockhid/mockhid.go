// Package mockhid provides a queue-backed fake transport for protocol
// package tests, generalizing the teacher's bootloader.MockDevice
// (io.ReadWriter over bytes.Buffer with a canned-response queue) to this
// system's fixed 64-byte report model.
package mockhid

import "errors"

// Device is a fake packet.Transport. Callers enqueue raw 64-byte responses
// with QueueResponse before exercising code that calls Send/Recv; every
// Send is recorded for later assertion.
type Device struct {
	Sent      [][]byte
	responses [][]byte
	next      int

	RecvErr error
	SendErr error

	// InBootloader is a plain flag for tests to set and read; Send and
	// Recv never consult or change it.
	InBootloader bool

	// FeatureSent/featureResponses back SendFeatureReport/GetFeatureReport,
	// modeling the ISP bootrom's status-poll control transfer independently
	// of the interrupt Send/Recv queue above.
	FeatureSent      [][]byte
	featureResponses [][]byte
	featureNext      int
}

// New returns an empty Device.
func New() *Device {
	return &Device{}
}

// QueueResponse appends a raw report to be returned by the next Recv call.
func (d *Device) QueueResponse(report []byte) {
	cp := make([]byte, len(report))
	copy(cp, report)
	d.responses = append(d.responses, cp)
}

// Send records the outgoing report and returns SendErr, if set.
func (d *Device) Send(report []byte) error {
	if d.SendErr != nil {
		return d.SendErr
	}
	cp := make([]byte, len(report))
	copy(cp, report)
	d.Sent = append(d.Sent, cp)
	return nil
}

// Recv pops the next queued response into buf.
func (d *Device) Recv(buf []byte) (int, error) {
	if d.RecvErr != nil {
		return 0, d.RecvErr
	}
	if d.next >= len(d.responses) {
		return 0, errors.New("mockhid: no more queued responses")
	}
	resp := d.responses[d.next]
	d.next++
	n := copy(buf, resp)
	return n, nil
}

// QueueFeatureResponse appends a report to be returned by the next
// GetFeatureReport call.
func (d *Device) QueueFeatureResponse(report []byte) {
	cp := make([]byte, len(report))
	copy(cp, report)
	d.featureResponses = append(d.featureResponses, cp)
}

// SendFeatureReport records the outgoing report.
func (d *Device) SendFeatureReport(data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	d.FeatureSent = append(d.FeatureSent, cp)
	return nil
}

// GetFeatureReport pops the next queued feature response into buf.
func (d *Device) GetFeatureReport(buf []byte) (int, error) {
	if d.featureNext >= len(d.featureResponses) {
		return 0, errors.New("mockhid: no more queued feature responses")
	}
	resp := d.featureResponses[d.featureNext]
	d.featureNext++
	n := copy(buf, resp)
	return n, nil
}

// LastSent returns the most recently recorded Send payload, or nil.
func (d *Device) LastSent() []byte {
	if len(d.Sent) == 0 {
		return nil
	}
	return d.Sent[len(d.Sent)-1]
}
