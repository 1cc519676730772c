// Package hidtransport wraps github.com/karalabe/hid behind the
// filter-callback enumeration shape the rest of the system expects: a
// single callback invoked once per matching device at each of four
// progressively more specific steps (Device, Interface, Report, Open),
// mirroring the vendor tool's own scan-filter design.
//
// Handles returned from a successful scan expose Send, Recv and Close over
// whole 64-byte reports; they do not implement io.Reader or io.Writer.
// Protocol packages reach them through narrow interfaces of those methods,
// so they can be exercised in tests against an in-memory mock without a
// real HID device attached.
package hidtransport
