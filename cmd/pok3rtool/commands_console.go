package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pok3r-custom/pok3rtool/devices"
	"github.com/pok3r-custom/pok3rtool/hidtransport"
)

// ConsoleCmd streams a QMK-flashed device's debug console, reproducing
// main.cpp's cmd_console: a separate HID interface (usage page
// devices.ConsoleUsagePage, usage devices.ConsoleUsage) carrying free-form
// text rather than the vendor update protocol's framed packets.
type ConsoleCmd struct{}

func (c *ConsoleCmd) Run(ctx context.Context, g *Globals) error {
	desc, err := resolveDevice(g.Device)
	if err != nil {
		return err
	}

	handles, err := hidtransport.Scan(func(d hidtransport.Detail) bool {
		switch d.Step {
		case hidtransport.StepDevice:
			return d.VendorID == desc.VID && (d.ProductID == desc.PID || d.ProductID == desc.BootPID)
		case hidtransport.StepReport:
			return d.UsagePage == devices.ConsoleUsagePage && d.Usage == devices.ConsoleUsage
		default:
			return true
		}
	})
	if err != nil {
		return err
	}
	if len(handles) == 0 {
		return fmt.Errorf("pok3rtool: no console interface found for %s", desc.Name)
	}
	h := handles[0]
	defer h.Close()
	for _, extra := range handles[1:] {
		_ = extra.Close()
	}

	g.logger.Info("streaming console", "device", desc.Name)
	var buf [hidtransport.ReportSize]byte
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		report, err := hidtransport.RecvWithPoll(ctx, h)
		if err != nil {
			return err
		}
		buf = report
		end := 0
		for end < len(buf) && buf[end] != 0 {
			end++
		}
		if end > 0 {
			os.Stdout.Write(buf[:end])
		}
	}
}
