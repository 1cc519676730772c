package main

import (
	"context"
	"fmt"

	"github.com/pok3r-custom/pok3rtool/qmkext"
)

// EepromCmd groups QMK EEPROM operations, reproducing main.cpp's
// cmd_eeprom dispatch (which requires an open, QMK-enabled device before
// looking at the subcommand argument).
type EepromCmd struct {
	Test EepromTestCmd `cmd:"" help:"Probe the EEPROM and erase its first sector."`
}

// EepromTestCmd reproduces main.cpp's "eeprom test", grounded on
// proto_qmk.cpp's ProtoQMK::eepromTest: an EEPROM/INFO probe followed by
// an unconditional erase of sector 0.
type EepromTestCmd struct{}

func (c *EepromTestCmd) Run(ctx context.Context, g *Globals) error {
	if err := confirm(g.Ok); err != nil {
		return err
	}

	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()

	qk, err := asQMK(ctx, kb)
	if err != nil {
		return err
	}

	info, err := qk.EEPROMInfo(ctx)
	if err != nil {
		return err
	}
	g.logger.Debug("eeprom info", "bytes", len(info))

	if err := qk.EEPROMErase(ctx, 0); err != nil {
		return err
	}
	fmt.Println("EEPROM Test: true")
	return nil
}

// dumpEEPROM reads the full EEPROM address space in 64-byte steps,
// matching proto_qmk.cpp's dumpEEPROM loop bound (qmkext.EEPROMLen).
func dumpEEPROM(ctx context.Context, qk qmkCapable) ([]byte, error) {
	out := make([]byte, 0, qmkext.EEPROMLen)
	for addr := uint32(0); addr < qmkext.EEPROMLen; addr += 64 {
		chunk, err := qk.EEPROMRead(ctx, addr)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}
