package main

import (
	"fmt"
	"os"

	"github.com/pok3r-custom/pok3rtool/updatepkg"
)

// DecodeCmd reproduces main.cpp's cmd_decode: extract the firmware (and any
// info blobs) embedded in a vendor updater executable, without touching any
// device.
type DecodeCmd struct {
	Updater string `arg:"" help:"Path to the updater executable to decode."`
	Output  string `arg:"" help:"Output path for the decoded firmware."`
}

func (c *DecodeCmd) Run(g *Globals) error {
	data, err := os.ReadFile(c.Updater)
	if err != nil {
		return err
	}

	result, err := updatepkg.Decode(data)
	if err != nil {
		return err
	}
	g.logger.Info("decoded updater", "type", result.Type.String(), "product", result.Manifest.Product, "version", result.Manifest.Version)

	var firmware [][]byte
	for _, sec := range result.Sections {
		if sec.IsInfo {
			g.logger.Debug("skipping info section", "bytes", len(sec.Data))
			continue
		}
		firmware = append(firmware, sec.Data)
	}
	if len(firmware) == 0 {
		return fmt.Errorf("pok3rtool: updater did not yield a firmware section")
	}

	if len(firmware) == 1 {
		g.logger.Info("writing firmware", "path", c.Output, "bytes", len(firmware[0]))
		return os.WriteFile(c.Output, firmware[0], 0o644)
	}

	for i, fw := range firmware {
		path := fmt.Sprintf("%s.%d", c.Output, i)
		g.logger.Info("writing firmware section", "path", path, "bytes", len(fw))
		if err := os.WriteFile(path, fw, 0o644); err != nil {
			return err
		}
	}
	return nil
}
