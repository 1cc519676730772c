package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pok3r-custom/pok3rtool/cykbproto"
	"github.com/pok3r-custom/pok3rtool/devices"
	"github.com/pok3r-custom/pok3rtool/holtekisp"
	"github.com/pok3r-custom/pok3rtool/kbproto"
	"github.com/pok3r-custom/pok3rtool/pok3rproto"
	"github.com/pok3r-custom/pok3rtool/qmkext"
)

// listScanTimeout bounds how long list waits for each catalog entry's scan
// before moving on, so one absent device doesn't stall the whole listing.
const listScanTimeout = 500 * time.Millisecond

// newProto dispatches on desc.Protocol to build the concrete front-end that
// speaks it, returning it behind the shared kbproto.KBProto interface — the
// CLI never needs to know which concrete type it holds.
func newProto(desc devices.Descriptor, logger kbproto.Logger) kbproto.KBProto {
	switch desc.Protocol {
	case devices.ProtoPOK3R:
		return pok3rproto.New(desc, pok3rproto.WithLogger(logger))
	case devices.ProtoCYKB:
		return cykbproto.New(desc, cykbproto.WithLogger(logger))
	case devices.ProtoHoltek:
		return holtekisp.New(desc, holtekisp.WithLogger(logger))
	default:
		panic(fmt.Sprintf("pok3rtool: unhandled protocol %s", desc.Protocol))
	}
}

// resolveDevice resolves the -t/--device flag against the catalog,
// mirroring main.cpp's devnames lookup (an unrecognized slug is a usage
// error, not a silent "no device selected").
func resolveDevice(slug string) (devices.Descriptor, error) {
	if slug == "" {
		return devices.Descriptor{}, fmt.Errorf("pok3rtool: please specify a device with -t/--device")
	}
	desc, ok := devices.ResolveAlias(slug)
	if !ok {
		return devices.Descriptor{}, fmt.Errorf("pok3rtool: unknown device %q", slug)
	}
	return desc, nil
}

// openDevice resolves g.Device and opens the matching protocol front-end.
func openDevice(ctx context.Context, g *Globals) (kbproto.KBProto, error) {
	desc, err := resolveDevice(g.Device)
	if err != nil {
		return nil, err
	}
	kb := newProto(desc, g.logger)
	if err := kb.Open(ctx); err != nil {
		return nil, err
	}
	return kb, nil
}

// qmkCapable is the set of qmkext.Mixin methods cmd/pok3rtool's eeprom and
// keymap subcommands need. pok3rproto.Proto, cykbproto.Proto, and
// holtekisp.Proto all satisfy it by promoting their embedded Mixin's
// methods, so a kbproto.KBProto returned by openDevice can be asserted
// down to this interface without the CLI depending on any concrete type.
type qmkCapable interface {
	kbproto.KBProto

	IsQMK(ctx context.Context) bool

	EEPROMInfo(ctx context.Context) ([]byte, error)
	EEPROMRead(ctx context.Context, addr uint32) ([]byte, error)
	EEPROMWrite(ctx context.Context, addr uint32, data []byte) error
	EEPROMErase(ctx context.Context, addr uint32) error

	KeymapInfo(ctx context.Context) (qmkext.KeymapInfo, error)
	KeymapRead(ctx context.Context, page uint32, offset, length int) ([]byte, error)
	UploadKeymapDiff(ctx context.Context, page uint32, old, new []byte) error
	KeymapCommit(ctx context.Context) error
	KeymapReload(ctx context.Context) error
	KeymapReset(ctx context.Context) error
	KeymapStrings(ctx context.Context, maxLen int) ([]string, error)
	SetLayout(ctx context.Context, index byte) error
}

// asQMK asserts kb down to qmkCapable, reporting the same "not a QMK
// keyboard" usage error main.cpp's cmd_eeprom/cmd_keymap report for a
// device that doesn't carry the QMK extension.
func asQMK(ctx context.Context, kb kbproto.KBProto) (qmkCapable, error) {
	qk, ok := kb.(qmkCapable)
	if !ok || !qk.IsQMK(ctx) {
		return nil, fmt.Errorf("pok3rtool: not a QMK keyboard")
	}
	return qk, nil
}

// listAttached mirrors main.cpp's cmd_list: rather than a single filtered
// scan, it probes every catalog entry in turn (each protocol's Open already
// performs its own VID/PID-filtered hidtransport.Scan) and reports the
// ones that answer.
func listAttached(ctx context.Context, logger kbproto.Logger) ([]string, error) {
	var lines []string
	for _, desc := range devices.Catalog {
		scanCtx, cancel := context.WithTimeout(ctx, listScanTimeout)
		kb := newProto(desc, logger)
		err := kb.Open(scanCtx)
		cancel()
		if err != nil {
			continue
		}

		version, _ := kb.ReadVersion(ctx)
		line := desc.Name
		if kb.IsBootloader() {
			line += " (bootloader)"
		}
		if kb.IsQMK(ctx) {
			line += " [QMK]"
		}
		line += ": " + version
		lines = append(lines, line)

		_ = kb.Close()
	}
	return lines, nil
}
