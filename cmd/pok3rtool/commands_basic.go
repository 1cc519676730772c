package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pok3r-custom/pok3rtool/kbproto"
)

// ListCmd reproduces main.cpp's cmd_list: scan every known device type and
// report the ones currently attached.
type ListCmd struct{}

func (c *ListCmd) Run(ctx context.Context, g *Globals) error {
	g.logger.Info("listing attached devices")
	lines, err := listAttached(ctx, g.logger)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Println("No devices found")
		return nil
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

// VersionCmd reproduces main.cpp's cmd_version.
type VersionCmd struct{}

func (c *VersionCmd) Run(ctx context.Context, g *Globals) error {
	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()

	version, err := kb.ReadVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Version: %s\n", version)
	return nil
}

// SetVersionCmd reproduces main.cpp's cmd_setversion.
type SetVersionCmd struct {
	Version string `arg:"" help:"New version string."`
}

func (c *SetVersionCmd) Run(ctx context.Context, g *Globals) error {
	if err := confirm(g.Ok); err != nil {
		return err
	}

	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()

	old, err := kb.ReadVersion(ctx)
	if err != nil {
		return err
	}
	g.logger.Info("old version", "version", old)

	if err := kb.SetVersion(ctx, c.Version); err != nil {
		return err
	}
	return kb.RebootToFirmware(ctx, false)
}

// InfoCmd reproduces main.cpp's cmd_info.
type InfoCmd struct{}

func (c *InfoCmd) Run(ctx context.Context, g *Globals) error {
	if err := confirm(g.Ok); err != nil {
		return err
	}

	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()

	info, err := kb.GetInfo(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("ISP Version:  0x%04X\n", info.ISPVersion)
	fmt.Printf("Chip Model:   0x%04X\n", info.ChipModel)
	fmt.Printf("Page Size:    %d\n", info.PageSize)
	fmt.Printf("Page Count:   %d\n", info.PageCount)
	fmt.Printf("Flash Base:   0x%08X\n", info.FlashBase)
	return nil
}

// RebootCmd reproduces main.cpp's cmd_reboot.
type RebootCmd struct{}

func (c *RebootCmd) Run(ctx context.Context, g *Globals) error {
	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()
	return kb.RebootToFirmware(ctx, false)
}

// BootloaderCmd reproduces main.cpp's cmd_bootloader.
type BootloaderCmd struct{}

func (c *BootloaderCmd) Run(ctx context.Context, g *Globals) error {
	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()
	return kb.RebootToBootloader(ctx, false)
}

// DumpCmd reproduces main.cpp's cmd_dump: dump flash, and EEPROM too if a
// second path and a QMK device are both available.
type DumpCmd struct {
	Flash   string `arg:"" help:"Output path for the flash dump."`
	EEPROM  string `arg:"" optional:"" help:"Output path for an EEPROM dump (QMK devices only)."`
}

func (c *DumpCmd) Run(ctx context.Context, g *Globals) error {
	if err := confirm(g.Ok); err != nil {
		return err
	}

	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()

	bin, err := kb.DumpFlash(ctx)
	if err != nil {
		return err
	}
	g.logger.Info("dumped flash", "path", c.Flash, "bytes", len(bin))
	if err := os.WriteFile(c.Flash, bin, 0o644); err != nil {
		return err
	}

	if c.EEPROM == "" {
		return nil
	}

	qk, err := asQMK(ctx, kb)
	if err != nil {
		return err
	}
	dump, err := dumpEEPROM(ctx, qk)
	if err != nil {
		return err
	}
	g.logger.Info("dumped eeprom", "path", c.EEPROM, "bytes", len(dump))
	return os.WriteFile(c.EEPROM, dump, 0o644)
}

// FlashCmd reproduces main.cpp's cmd_flash.
type FlashCmd struct {
	Version  string `arg:"" help:"Version string to write after flashing."`
	Firmware string `arg:"" help:"Path to the firmware image to write."`
}

func (c *FlashCmd) Run(ctx context.Context, g *Globals) error {
	if err := confirm(g.Ok); err != nil {
		return err
	}
	if g.Device == "" {
		return fmt.Errorf("pok3rtool: please specify a device")
	}

	fw, err := os.ReadFile(c.Firmware)
	if err != nil {
		return err
	}

	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()

	g.logger.Info("updating firmware", "firmware", c.Firmware, "version", c.Version, "bytes", len(fw))
	return kb.Update(ctx, c.Version, fw, progressLogger(g.logger))
}

// WipeCmd reproduces main.cpp's cmd_wipe.
type WipeCmd struct{}

func (c *WipeCmd) Run(ctx context.Context, g *Globals) error {
	if err := confirm(g.Ok); err != nil {
		return err
	}
	if g.Device == "" {
		return fmt.Errorf("pok3rtool: please specify a device")
	}

	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()

	g.logger.Info("erasing firmware")
	return kb.EraseAndCheck(ctx)
}

// progressLogger adapts a kbproto.Logger into a kbproto.ProgressCallback,
// logging every progress report it receives at info level.
func progressLogger(logger kbproto.Logger) kbproto.ProgressCallback {
	return func(p kbproto.Progress) {
		logger.Info("progress", "phase", string(p.Phase), "current", p.Current, "total", p.Total)
	}
}
