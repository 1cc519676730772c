package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pok3r-custom/pok3rtool/keymap"
	"github.com/pok3r-custom/pok3rtool/qmkext"
)

// KeymapCmd groups QMK keymap operations, reproducing main.cpp's cmd_keymap
// dispatch plus the knownlayouts/layouts/set/setlayout subcommands
// supplemented from original_source/keymap.cpp (the embedded layout-name
// database itself stays out of scope; these subcommands take a layout
// document from a local file instead of an embedded lookup-by-name call).
type KeymapCmd struct {
	Dump        KeymapDumpCmd        `cmd:"" help:"Print the device's current keymap."`
	Knownlayouts KeymapKnownCmd      `cmd:"" help:"List layout documents found in a directory."`
	Layouts     KeymapLayoutsCmd     `cmd:"" help:"Print the resolved visual layout template."`
	Set         KeymapSetCmd         `cmd:"" help:"Set one key's keycode and upload the change."`
	Setlayout   KeymapSetlayoutCmd   `cmd:"" help:"Select the device's active layout by index."`
	Commit      KeymapCommitCmd      `cmd:"" help:"Persist the uncommitted matrix to EEPROM."`
	Reload      KeymapReloadCmd      `cmd:"" help:"Discard uncommitted changes and reload from EEPROM."`
	Reset       KeymapResetCmd       `cmd:"" help:"Reload the built-in default matrix."`
}

// layoutFlag is embedded by every keymap subcommand that needs to resolve
// the device's matrix against a visual layout template.
type layoutFlag struct {
	Layout string `help:"Path to a layout-name JSON document (see keymap.LoadLayout)." required:""`
}

// loadDeviceKeymap reads the device's KEYMAP/INFO, layout page, and every
// matrix layer, then resolves them against the layout document at path.
func loadDeviceKeymap(ctx context.Context, qk qmkCapable, path string) (*keymap.Keymap, qmkext.KeymapInfo, error) {
	info, err := qk.KeymapInfo(ctx)
	if err != nil {
		return nil, info, err
	}

	layoutJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, info, err
	}
	// The layout page holds NLayout named layouts back to back, Rows*Cols
	// bytes each; CLayout selects which one is currently active.
	knum := info.Rows * info.Cols
	layoutMatrix, err := qk.KeymapRead(ctx, qmkext.KeymapPageLayout, info.CLayout*knum, knum)
	if err != nil {
		return nil, info, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	km := keymap.New(info.Rows, info.Cols)
	if err := km.LoadLayout(name, layoutJSON, layoutMatrix); err != nil {
		return nil, info, err
	}

	layerSize := info.KCSize * info.Rows * info.Cols
	for l := 0; l < info.Layers; l++ {
		layer, err := qk.KeymapRead(ctx, qmkext.KeymapPageMatrix, l*layerSize, layerSize)
		if err != nil {
			return nil, info, err
		}
		if err := km.LoadLayer(layer); err != nil {
			return nil, info, err
		}
	}
	return km, info, nil
}

// KeymapDumpCmd reproduces main.cpp's "keymap dump", rendered through
// keymap.PrintLayers/PrintMatrix once a layout document resolves the
// device's matrix into a visual template.
type KeymapDumpCmd struct {
	layoutFlag
}

func (c *KeymapDumpCmd) Run(ctx context.Context, g *Globals) error {
	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()

	qk, err := asQMK(ctx, kb)
	if err != nil {
		return err
	}

	km, _, err := loadDeviceKeymap(ctx, qk, c.Layout)
	if err != nil {
		return err
	}
	fmt.Print(km.PrintLayers())
	fmt.Print(km.PrintMatrix())
	return nil
}

// KeymapKnownCmd lists the layout documents available in a directory,
// supplementing the embedded layout database spec.md leaves out of scope
// with a simple filesystem-backed discovery mechanism.
type KeymapKnownCmd struct {
	Dir string `arg:"" default:"." help:"Directory to search for layout JSON documents."`
}

func (c *KeymapKnownCmd) Run(ctx context.Context, g *Globals) error {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		fmt.Println(strings.TrimSuffix(e.Name(), ".json"))
	}
	return nil
}

// KeymapLayoutsCmd prints the resolved visual layout template (packed
// width/spacer ints with a -1 row separator), matching keymap.GetLayout.
type KeymapLayoutsCmd struct {
	layoutFlag
}

func (c *KeymapLayoutsCmd) Run(ctx context.Context, g *Globals) error {
	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()

	qk, err := asQMK(ctx, kb)
	if err != nil {
		return err
	}

	km, _, err := loadDeviceKeymap(ctx, qk, c.Layout)
	if err != nil {
		return err
	}
	fmt.Println(km.GetLayout())
	return nil
}

// KeymapSetCmd sets one visual key's keycode and uploads the minimal diff,
// grounded on qmkext.Diff/UploadKeymapDiff.
type KeymapSetCmd struct {
	layoutFlag
	Layer   int    `arg:"" help:"Layer index to modify."`
	Key     int    `arg:"" help:"Visual key index to modify (0-based)."`
	Keycode string `arg:"" help:"Keycode name, e.g. KC_A."`
}

func (c *KeymapSetCmd) Run(ctx context.Context, g *Globals) error {
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

	km, info, err := loadDeviceKeymap(ctx, qk, c.Layout)
	if err != nil {
		return err
	}
	if c.Layer < 0 || c.Layer >= km.LayerCount() {
		return fmt.Errorf("pok3rtool: layer %d out of range (have %d)", c.Layer, km.LayerCount())
	}

	layerSize := info.KCSize * info.Rows * info.Cols
	old, err := qk.KeymapRead(ctx, qmkext.KeymapPageMatrix, c.Layer*layerSize, layerSize)
	if err != nil {
		return err
	}

	offset := km.KeyOffset(0, c.Key) // KeyOffset is layer-relative within the serialized matrix
	if offset < 0 || offset+2 > len(old) {
		return fmt.Errorf("pok3rtool: key index %d out of range", c.Key)
	}
	newLayer := append([]byte(nil), old...)
	kc := keymap.ToKeycode(c.Keycode)
	newLayer[offset] = byte(kc)
	newLayer[offset+1] = byte(kc >> 8)

	page := qmkext.KeymapPageMatrix + uint32(c.Layer*layerSize)
	if err := qk.UploadKeymapDiff(ctx, page, old, newLayer); err != nil {
		return err
	}
	g.logger.Info("set key", "layer", c.Layer, "key", c.Key, "keycode", c.Keycode)
	return nil
}

// KeymapSetlayoutCmd selects the device's active layout by index, via
// qmkext.Mixin.SetLayout (CTRL/LAYOUT).
type KeymapSetlayoutCmd struct {
	Index int `arg:"" help:"Layout index to activate."`
}

func (c *KeymapSetlayoutCmd) Run(ctx context.Context, g *Globals) error {
	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()

	qk, err := asQMK(ctx, kb)
	if err != nil {
		return err
	}
	if c.Index < 0 || c.Index > 255 {
		return fmt.Errorf("pok3rtool: layout index %d out of byte range", c.Index)
	}
	return qk.SetLayout(ctx, byte(c.Index))
}

// KeymapCommitCmd, KeymapReloadCmd, KeymapResetCmd are one-shot wrappers
// around the matching qmkext.Mixin methods.
type KeymapCommitCmd struct{}

func (c *KeymapCommitCmd) Run(ctx context.Context, g *Globals) error {
	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()
	qk, err := asQMK(ctx, kb)
	if err != nil {
		return err
	}
	return qk.KeymapCommit(ctx)
}

type KeymapReloadCmd struct{}

func (c *KeymapReloadCmd) Run(ctx context.Context, g *Globals) error {
	kb, err := openDevice(ctx, g)
	if err != nil {
		return err
	}
	defer kb.Close()
	qk, err := asQMK(ctx, kb)
	if err != nil {
		return err
	}
	return qk.KeymapReload(ctx)
}

type KeymapResetCmd struct{}

func (c *KeymapResetCmd) Run(ctx context.Context, g *Globals) error {
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
	return qk.KeymapReset(ctx)
}
