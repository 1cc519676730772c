package keymap

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

// layoutWidthMask/layoutSpacerBit decode one packed layout-template byte:
// the low 6 bits are the key's width (in matrix-cell units), bit 7 marks a
// spacer (a gap in the visual layout with no matrix position behind it).
const (
	layoutWidthMask = 0x3F
	layoutSpacerBit = 0x80
)

// KCNo and KCTransparent are the two keycodes every layout may use at a
// matrix position with no real binding: KCNo means "nothing here", while
// KCTransparent falls through to the layer below it.
const (
	KCNo          uint16 = 0x00
	KCTransparent uint16 = 0x01
)

// Key describes one visual key position: its size in the pretty-printed
// layout and, once LoadLayout resolves it against a matrix, its (row, col).
type Key struct {
	Row, Col, Width uint8
	Space           bool
	NewRow          bool
}

// layoutDoc is the decoded shape of one layout-name JSON document, as read
// directly out of the original's loadLayout: {"name": ..., "layout":
// [[widths...], [widths...], ...]}.
type layoutDoc struct {
	Name   string  `json:"name"`
	Layout [][]int `json:"layout"`
}

// Keymap holds a device's matrix dimensions, the resolved visual layout,
// the matrix<->layout index maps LoadLayout builds, and the layer stack
// LoadLayer appends to.
type Keymap struct {
	rows, cols int
	nkeys      int
	mwidth     int

	layoutName string
	layout     []Key // visual key order, 0-indexed; layout index i+1

	// matrix2layout[matrixPos] is the 1-based visual layout index at that
	// matrix position, or 0 if unoccupied. layout2matrix[layoutIdx-1] is
	// the inverse.
	matrix2layout []uint8
	layout2matrix []uint8

	layers [][]uint16
}

// New returns an empty Keymap for a device with the given matrix shape.
func New(rows, cols int) *Keymap {
	return &Keymap{rows: rows, cols: cols}
}

// Rows, Cols, NumKeys report the matrix shape and the number of visual
// keys resolved by the most recent LoadLayout.
func (k *Keymap) Rows() int    { return k.rows }
func (k *Keymap) Cols() int    { return k.cols }
func (k *Keymap) NumKeys() int { return k.nkeys }

// LayerCount reports how many layers have been loaded via LoadLayer.
func (k *Keymap) LayerCount() int { return len(k.layers) }

// LoadLayout resolves a matrix-position layout against a named visual
// template. layoutJSON is one decoded layout-name document (the embedded
// JSON database itself is out of scope; the caller looks up the document
// by name and passes it in); matrixBytes holds rows*cols bytes, each the
// 1-based visual key index at that matrix cell or 0 for "no key".
func (k *Keymap) LoadLayout(name string, layoutJSON []byte, matrixBytes []byte) error {
	var doc layoutDoc
	if err := json.Unmarshal(layoutJSON, &doc); err != nil {
		return fmt.Errorf("keymap: decode layout document: %w", err)
	}
	if doc.Name != name {
		return fmt.Errorf("keymap: layout document name %q does not match %q", doc.Name, name)
	}

	var wlayout []Key
	lkmap := map[int]int{} // 1-based visual index -> position in wlayout
	lkeys := 0
	for _, row := range doc.Layout {
		if len(row) == 0 {
			return fmt.Errorf("keymap: empty layout row")
		}
		for _, packed := range row {
			key := Key{
				Width: uint8(packed & layoutWidthMask),
				Space: packed&layoutSpacerBit != 0,
			}
			if !key.Space {
				lkeys++
				lkmap[lkeys] = len(wlayout)
			}
			wlayout = append(wlayout, key)
		}
		wlayout[len(wlayout)-1].NewRow = true
	}

	knum := k.rows * k.cols
	if len(matrixBytes) != knum {
		return fmt.Errorf("keymap: bad layout map size: want %d bytes, got %d", knum, len(matrixBytes))
	}

	matrix2layout := make([]uint8, knum)
	layout2matrix := make([]uint8, knum)

	nkeys := 0
	for i, r := 0, 0; r < k.rows; r++ {
		for c := 0; c < k.cols; c, i = c+1, i+1 {
			mpos := i
			lpos := int(matrixBytes[mpos])
			if lpos == 0 {
				continue
			}
			if matrix2layout[mpos] != 0 {
				return fmt.Errorf("keymap: duplicate matrix index %d", mpos)
			}
			if lpos-1 >= len(layout2matrix) || layout2matrix[lpos-1] != 0 {
				return fmt.Errorf("keymap: duplicate layout index %d", lpos)
			}
			wpos, ok := lkmap[lpos]
			if !ok {
				return fmt.Errorf("keymap: layout index %d not present in template", lpos)
			}
			wlayout[wpos].Row = uint8(r)
			wlayout[wpos].Col = uint8(c)
			matrix2layout[mpos] = uint8(lpos)
			layout2matrix[lpos-1] = uint8(mpos)
			nkeys++
		}
	}
	if nkeys != lkeys {
		return fmt.Errorf("keymap: key count mismatch: template has %d, matrix assigns %d", lkeys, nkeys)
	}

	wlayout = wlayout[:nkeys]
	if nkeys > 0 {
		wlayout[nkeys-1].NewRow = true
	}

	var rwmax, rwidth int
	for _, key := range wlayout {
		rwidth += int(key.Width)
		if key.NewRow {
			if rwidth > rwmax {
				rwmax = rwidth
			}
			rwidth = 0
		}
	}

	k.layoutName = name
	k.layout = wlayout
	k.matrix2layout = matrix2layout
	k.layout2matrix = layout2matrix
	k.nkeys = nkeys
	k.mwidth = rwmax
	k.layers = nil
	return nil
}

// LoadLayer decodes one device-format layer (rows*cols little-endian u16
// keycodes in matrix row-major order) into a dense per-visual-key array,
// appended to the layer stack.
func (k *Keymap) LoadLayer(layerBytes []byte) error {
	knum := k.rows * k.cols
	if len(layerBytes) != knum*2 {
		return fmt.Errorf("keymap: bad layer map size: want %d bytes, got %d", knum*2, len(layerBytes))
	}
	layer := make([]uint16, k.nkeys)
	for i := 0; i < knum; i++ {
		kc := binary.LittleEndian.Uint16(layerBytes[i*2 : i*2+2])
		if kp := k.matrix2layout[i]; kp != 0 {
			layer[kp-1] = kc
		}
	}
	k.layers = append(k.layers, layer)
	return nil
}

// ToMatrix serializes every loaded layer back to device storage order:
// layers * rows * cols * 2 bytes, little-endian. Visual keys absent from
// the matrix (no key at that position) fall out naturally since matrix
// cells default to KCNo and are only overwritten for occupied positions.
func (k *Keymap) ToMatrix() []byte {
	knum := k.rows * k.cols
	out := make([]byte, 0, len(k.layers)*knum*2)
	for _, layer := range k.layers {
		matrix := make([]uint16, knum)
		for i, key := range k.layout {
			matrix[int(key.Row)*k.cols+int(key.Col)] = layer[i]
		}
		for _, kc := range matrix {
			out = binary.LittleEndian.AppendUint16(out, kc)
		}
	}
	return out
}

// GetLayer returns layer l's dense per-visual-key keycode array.
func (k *Keymap) GetLayer(l int) []uint16 {
	out := make([]uint16, len(k.layers[l]))
	copy(out, k.layers[l])
	return out
}

// GetLayerAbbrev returns layer l's keycodes as their abbreviated names, in
// visual key order.
func (k *Keymap) GetLayerAbbrev(l int) []string {
	out := make([]string, len(k.layers[l]))
	for i, kc := range k.layers[l] {
		out[i] = KeycodeAbbrev(kc)
	}
	return out
}

// RowCount returns the total width (in matrix-cell units) of visual row
// index row.
func (k *Keymap) RowCount(row int) int {
	r, width := 0, 0
	for _, key := range k.layout {
		width += int(key.Width)
		if key.NewRow {
			if r == row {
				return width
			}
			width = 0
			r++
		}
	}
	return width
}

// GetLayout returns the resolved visual layout as packed width/spacer
// ints, with a -1 sentinel after each row (mirroring the original's
// getLayout, which the CLI's `keymap layouts` command renders from).
func (k *Keymap) GetLayout() []int {
	var out []int
	for _, key := range k.layout {
		packed := int(key.Width)
		if key.Space {
			packed |= layoutSpacerBit
		}
		out = append(out, packed)
		if key.NewRow {
			out = append(out, -1)
		}
	}
	return out
}

// LayoutRC2K returns the visual key index (0-based) at visual row/col
// (r, c) of the loaded layout (rows split at NewRow keys, columns counted
// by key position within a row), or 0xFFFF if no such position exists.
func (k *Keymap) LayoutRC2K(r, c int) int {
	row, col := 0, 0
	for i, key := range k.layout {
		if row == r && col == c {
			return i
		}
		col++
		if key.NewRow {
			row++
			col = 0
		}
	}
	return 0xFFFF
}

// KeyOffset returns the byte offset of visual key k's keycode within
// layer l's serialized matrix (as produced by ToMatrix).
func (k *Keymap) KeyOffset(l, key int) int {
	row := int(k.layout[key].Row)
	col := int(k.layout[key].Col)
	lsize := k.rows * k.cols
	return (lsize*l + (row*k.cols + col)) * 2
}

// Layout returns the resolved visual layout keys, read-only.
func (k *Keymap) Layout() []Key {
	out := make([]Key, len(k.layout))
	copy(out, k.layout)
	return out
}

// Matrix2Layout and Layout2Matrix expose the index maps LoadLayout built,
// for callers validating the bijection invariant.
func (k *Keymap) Matrix2Layout() []uint8 {
	out := make([]uint8, len(k.matrix2layout))
	copy(out, k.matrix2layout)
	return out
}

func (k *Keymap) Layout2Matrix() []uint8 {
	out := make([]uint8, len(k.layout2matrix))
	copy(out, k.layout2matrix)
	return out
}
