// Command pok3rtool inspects, updates, and configures Holtek HT32-based
// mechanical keyboards over USB HID. It is a direct port of the original
// tool's ZOptions/ZMap<ZString,CmdEntry> dispatch table onto kong's
// struct-tag based command registration.
package main

import (
	"context"
	"os"

	"github.com/alecthomas/kong"

	"github.com/pok3r-custom/pok3rtool/kbproto"
)

// Globals holds the flags every subcommand shares, mirroring main.cpp's
// OPT_OK/OPT_VERBOSE/OPT_TYPE.
type Globals struct {
	Ok      bool   `help:"Skip the destructive-operation confirmation prompt." name:"ok"`
	Verbose bool   `help:"Enable debug-level logging." short:"v"`
	Device  string `help:"Target device slug (see 'list' for attached devices)." short:"t" name:"device"`

	logger kbproto.Logger
}

// CLI is the full command tree, reproducing main.cpp's cmds table exactly:
// list, version, setversion, info, reboot, bootloader, dump, flash, wipe,
// decode, eeprom {test}, keymap {dump|knownlayouts|set|commit|reload|
// reset|layouts|setlayout}, console.
type CLI struct {
	Globals

	List       ListCmd       `cmd:"" help:"List attached devices."`
	Version    VersionCmd    `cmd:"" help:"Print the device's firmware version."`
	SetVersion SetVersionCmd `cmd:"" name:"setversion" help:"Set the device's firmware version string."`
	Info       InfoCmd       `cmd:"" help:"Print decoded device info."`
	Reboot     RebootCmd     `cmd:"" help:"Reboot the device into firmware mode."`
	Bootloader BootloaderCmd `cmd:"" help:"Reboot the device into bootloader mode."`
	Dump       DumpCmd       `cmd:"" help:"Dump the device's flash, and EEPROM if a second path is given."`
	Flash      FlashCmd      `cmd:"" help:"Write a firmware image to the device and set its version."`
	Wipe       WipeCmd       `cmd:"" help:"Mass-erase the device's firmware."`
	Decode     DecodeCmd     `cmd:"" help:"Extract firmware from an updater executable."`
	Eeprom     EepromCmd     `cmd:"" help:"QMK EEPROM operations."`
	Keymap     KeymapCmd     `cmd:"" help:"QMK keymap operations."`
	Console    ConsoleCmd    `cmd:"" help:"Stream the device's debug console."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("pok3rtool"),
		kong.Description("Inspect, update, and configure Holtek HT32-based mechanical keyboards."),
		kong.UsageOnError(),
	)

	cli.Globals.logger = newLogger(cli.Verbose)

	err := kctx.Run(context.Background(), &cli.Globals)
	if err != nil {
		cli.Globals.logger.Error(err.Error())
		os.Exit(1)
	}
}
