package qmkext

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/pok3r-custom/pok3rtool/packet"
)

// ErrNotQMK is returned by operations that require a QMK-enabled device
// when the probed device doesn't carry the marker. Callers that merely
// want to know "is this QMK" should use IsQMK instead, which reports a
// bool rather than treating absence as an error.
var ErrNotQMK = errors.New("qmkext: device does not report the qmk_pok3r marker")

// Exchanger is the CRC-bearing packet exchange capability a host protocol
// provides so this mixin can send its own command families over the same
// transport. pok3rproto.Proto and cykbproto.Proto both satisfy it.
type Exchanger interface {
	Exchange(ctx context.Context, cmd, sub byte, payload []byte) (packet.Response, error)
}

// Mixin adds the CTRL/EEPROM/KEYMAP/BACKLIGHT/FLASH command families to a
// host protocol. Embed by value and call Init once, typically from the
// host's constructor.
type Mixin struct {
	ex Exchanger
}

// Init wires the mixin to its host's packet exchanger. Must be called
// before any other method.
func (m *Mixin) Init(ex Exchanger) {
	m.ex = ex
}

// Info is the decoded CTRL/INFO payload.
type Info struct {
	PID     string
	Version string
	Layout  string
}

func parseInfo(payload []byte) (Info, bool) {
	s := string(bytes.TrimRight(payload, "\x00"))
	fields := strings.Split(s, ";")
	if len(fields) == 0 || fields[0] != marker {
		return Info{}, false
	}
	var info Info
	if len(fields) > 1 {
		info.PID = fields[1]
	}
	if len(fields) > 2 {
		info.Version = fields[2]
	}
	if len(fields) > 3 {
		info.Layout = fields[3]
	}
	return info, true
}

// IsQMK probes the control path (CTRL/INFO) only; it does not fall back to
// the legacy flash probe, which IsQMKLegacy performs separately on an
// already-read image. Per the failure policy, a device
// that isn't QMK-enabled simply fails to carry the marker; IsQMK reports
// that as ok=false rather than surfacing a transport error, since absence
// of the marker is the expected outcome for most devices.
func (m *Mixin) IsQMK(ctx context.Context) (Info, bool) {
	resp, err := m.ex.Exchange(ctx, CmdCtrl, SubCtrlInfo, nil)
	if err != nil {
		return Info{}, false
	}
	return parseInfo(resp.Payload)
}

// IsQMKLegacy checks whether fw (an already-read flash image) carries the
// marker string at its fixed legacy offset, for devices that predate the
// CTRL/INFO control path.
func IsQMKLegacy(fw []byte) bool {
	if len(fw) < legacyMarkerOffset+len(marker) {
		return false
	}
	return string(fw[legacyMarkerOffset:legacyMarkerOffset+len(marker)]) == marker
}

// SetLayout sets the active layout by index.
func (m *Mixin) SetLayout(ctx context.Context, index byte) error {
	_, err := m.ex.Exchange(ctx, CmdCtrl, SubCtrlLayout, []byte{index})
	return err
}

// EEPROMInfo returns the raw SPI RDID response.
func (m *Mixin) EEPROMInfo(ctx context.Context) ([]byte, error) {
	resp, err := m.ex.Exchange(ctx, CmdEEPROM, SubEEPROMInfo, nil)
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// EEPROMRead reads one chunk starting at addr.
func (m *Mixin) EEPROMRead(ctx context.Context, addr uint32) ([]byte, error) {
	resp, err := m.ex.Exchange(ctx, CmdEEPROM, SubEEPROMRead, le32(addr))
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// EEPROMWrite writes data at addr. data must fit in one packet's payload.
func (m *Mixin) EEPROMWrite(ctx context.Context, addr uint32, data []byte) error {
	payload := append(le32(addr), data...)
	_, err := m.ex.Exchange(ctx, CmdEEPROM, SubEEPROMWrite, payload)
	return err
}

// EEPROMErase erases the sector containing addr.
func (m *Mixin) EEPROMErase(ctx context.Context, addr uint32) error {
	_, err := m.ex.Exchange(ctx, CmdEEPROM, SubEEPROMErase, le32(addr))
	return err
}

// KeymapInfo is the decoded KEYMAP/INFO payload.
type KeymapInfo struct {
	Layers  int
	Rows    int
	Cols    int
	KCSize  int
	NLayout int
	CLayout int
}

// MatrixSize is the byte length of the matrix page for this device.
func (k KeymapInfo) MatrixSize() int {
	return k.KCSize * k.Rows * k.Cols * k.Layers
}

// LayoutSize is the byte length of the layout page for this device.
func (k KeymapInfo) LayoutSize() int {
	return k.Rows * k.Cols * k.NLayout
}

// KeymapInfo queries the device's matrix dimensions and layout counts.
func (m *Mixin) KeymapInfo(ctx context.Context) (KeymapInfo, error) {
	resp, err := m.ex.Exchange(ctx, CmdKeymap, SubKeymapInfo, nil)
	if err != nil {
		return KeymapInfo{}, err
	}
	if len(resp.Payload) < 6 {
		return KeymapInfo{}, fmt.Errorf("qmkext: short KEYMAP/INFO response (%d bytes)", len(resp.Payload))
	}
	p := resp.Payload
	return KeymapInfo{
		Layers:  int(p[0]),
		Rows:    int(p[1]),
		Cols:    int(p[2]),
		KCSize:  int(p[3]),
		NLayout: int(p[4]),
		CLayout: int(p[5]),
	}, nil
}

// KeymapRead reads length bytes starting at offset within page, issuing as
// many KEYMAP/READ requests as needed.
func (m *Mixin) KeymapRead(ctx context.Context, page uint32, offset, length int) ([]byte, error) {
	out := make([]byte, 0, length)
	for len(out) < length {
		remaining := length - len(out)
		want := remaining
		if want > readChunk {
			want = readChunk
		}
		addr := page + uint32(offset+len(out))
		resp, err := m.ex.Exchange(ctx, CmdKeymap, SubKeymapRead, le32(addr))
		if err != nil {
			return nil, err
		}
		got := resp.Payload
		if len(got) > want {
			got = got[:want]
		}
		out = append(out, got...)
		if len(got) == 0 {
			return nil, fmt.Errorf("qmkext: KEYMAP/READ returned no data at offset %d", offset+len(out))
		}
	}
	return out, nil
}

// DiffWindow is one contiguous span to write during a keymap upload.
type DiffWindow struct {
	Offset int
	Data   []byte
}

// Diff computes the minimal byte-wise update between old and new: the span
// from the first differing byte to the last (bytes new adds past the end
// of old count as differences; when new is shorter than old, old's extra
// tail is not considered), split into keymapWriteWindow chunks. Returns
// nil if old and new are identical.
func Diff(old, new []byte) []DiffWindow {
	minLen := len(old)
	if len(new) < minLen {
		minLen = len(new)
	}

	first, last := -1, -1
	for i := 0; i < minLen; i++ {
		if old[i] != new[i] {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	if len(new) > len(old) {
		if first == -1 {
			first = len(old)
		}
		last = len(new) - 1
	}
	if first == -1 {
		return nil
	}

	span := new[first : last+1]
	var windows []DiffWindow
	for off := 0; off < len(span); off += keymapWriteWindow {
		end := off + keymapWriteWindow
		if end > len(span) {
			end = len(span)
		}
		windows = append(windows, DiffWindow{Offset: first + off, Data: span[off:end]})
	}
	return windows
}

// UploadKeymapDiff writes every window of Diff(old, new) to the matrix
// page via KEYMAP/WRITE. Caller is responsible for a subsequent Commit,
// Reload, or Reset.
func (m *Mixin) UploadKeymapDiff(ctx context.Context, page uint32, old, new []byte) error {
	for _, w := range Diff(old, new) {
		addr := page + uint32(w.Offset)
		payload := make([]byte, 0, 5+len(w.Data))
		payload = append(payload, le32(addr)...)
		payload = append(payload, byte(len(w.Data)))
		payload = append(payload, w.Data...)
		if _, err := m.ex.Exchange(ctx, CmdKeymap, SubKeymapWrite, payload); err != nil {
			return err
		}
	}
	return nil
}

// KeymapCommit persists the uncommitted matrix to EEPROM.
func (m *Mixin) KeymapCommit(ctx context.Context) error {
	_, err := m.ex.Exchange(ctx, CmdKeymap, SubKeymapCommit, nil)
	return err
}

// KeymapReload discards uncommitted changes and reloads the matrix from
// EEPROM.
func (m *Mixin) KeymapReload(ctx context.Context) error {
	_, err := m.ex.Exchange(ctx, CmdKeymap, SubKeymapReload, nil)
	return err
}

// KeymapReset reloads the built-in default matrix, discarding both the
// in-memory and EEPROM-committed layouts.
func (m *Mixin) KeymapReset(ctx context.Context) error {
	_, err := m.ex.Exchange(ctx, CmdKeymap, SubKeymapReset, nil)
	return err
}

// KeymapStrings reads the comma-separated, NUL-terminated layout-name
// table from the strings page.
func (m *Mixin) KeymapStrings(ctx context.Context, maxLen int) ([]string, error) {
	raw, err := m.KeymapRead(ctx, KeymapPageStrings, 0, maxLen)
	if err != nil {
		return nil, err
	}
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return strings.Split(string(raw), ","), nil
}

// BacklightInfo returns the raw backlight configuration descriptor.
func (m *Mixin) BacklightInfo(ctx context.Context) ([]byte, error) {
	resp, err := m.ex.Exchange(ctx, CmdBacklight, SubBacklightInfo, nil)
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// BacklightRead returns the current backlight configuration bytes.
func (m *Mixin) BacklightRead(ctx context.Context) ([]byte, error) {
	resp, err := m.ex.Exchange(ctx, CmdBacklight, SubBacklightRead, nil)
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// BacklightWrite stages new backlight configuration bytes.
func (m *Mixin) BacklightWrite(ctx context.Context, data []byte) error {
	_, err := m.ex.Exchange(ctx, CmdBacklight, SubBacklightWrite, data)
	return err
}

// BacklightCommit persists the staged backlight configuration to EEPROM.
func (m *Mixin) BacklightCommit(ctx context.Context) error {
	_, err := m.ex.Exchange(ctx, CmdBacklight, SubBacklightCommit, nil)
	return err
}

// FlashRead reads one chunk of the running firmware image through the QMK
// extension's own flash-read command, independent of the base protocol's
// FLASH/READ.
func (m *Mixin) FlashRead(ctx context.Context, addr uint32) ([]byte, error) {
	resp, err := m.ex.Exchange(ctx, CmdFlash, SubFlashRead, le32(addr))
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}
