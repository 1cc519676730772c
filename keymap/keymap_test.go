package keymap

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// a minimal 2x2 layout: four plain keys, two per row.
const testLayoutJSON = `{"name":"test2x2","layout":[[4,4],[4,4]]}`

// a 3-key template fitting in a 2x2 matrix, leaving one matrix cell
// without a visual key.
const testSparseLayoutJSON = `{"name":"sparse2x2","layout":[[4],[4,4]]}`

func newTestKeymap(t *testing.T) *Keymap {
	t.Helper()
	k := New(2, 2)
	// matrix positions (row-major): (0,0)->layout 1, (0,1)->layout 2,
	// (1,0)->layout 3, (1,1)->layout 4.
	require.NoError(t, k.LoadLayout("test2x2", []byte(testLayoutJSON), []byte{1, 2, 3, 4}))
	return k
}

func le16s(vals ...uint16) []byte {
	out := make([]byte, len(vals)*2)
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func TestLoadLayoutBuildsIndexMaps(t *testing.T) {
	k := newTestKeymap(t)
	require.Equal(t, 4, k.NumKeys())
	require.Equal(t, []uint8{1, 2, 3, 4}, k.Matrix2Layout())
	require.Equal(t, []uint8{0, 1, 2, 3}, k.Layout2Matrix())
}

// Property 4: for every layout index l in [1, nkeys],
// matrix2layout[layout2matrix[l-1]] == l.
func TestIndexMapBijection(t *testing.T) {
	k := newTestKeymap(t)
	m2l := k.Matrix2Layout()
	l2m := k.Layout2Matrix()
	for l := 1; l <= k.NumKeys(); l++ {
		require.Equal(t, uint8(l), m2l[l2m[l-1]])
	}
}

func TestLoadLayoutRejectsBadMatrixSize(t *testing.T) {
	k := New(2, 2)
	err := k.LoadLayout("test2x2", []byte(testLayoutJSON), []byte{1, 2, 3})
	require.Error(t, err)
}

func TestLoadLayoutRejectsDuplicateLayoutIndex(t *testing.T) {
	k := New(2, 2)
	// Layout index 2 is assigned to both matrix position 1 and 2; the
	// first assignment isn't at matrix position 0, so it's
	// distinguishable from the zero-value "unassigned" sentinel.
	err := k.LoadLayout("test2x2", []byte(testLayoutJSON), []byte{1, 2, 2, 4})
	require.Error(t, err)
}

func TestLoadLayoutRejectsNameMismatch(t *testing.T) {
	k := New(2, 2)
	err := k.LoadLayout("other", []byte(testLayoutJSON), []byte{1, 2, 3, 4})
	require.Error(t, err)
}

func TestLoadLayerStoresDenseByVisualPosition(t *testing.T) {
	k := newTestKeymap(t)
	layer := le16s(0x04, 0x05, 0x06, 0x07) // KC_A KC_B KC_C KC_D
	require.NoError(t, k.LoadLayer(layer))
	require.Equal(t, []uint16{0x04, 0x05, 0x06, 0x07}, k.GetLayer(0))
}

func TestLoadLayerRejectsBadSize(t *testing.T) {
	k := newTestKeymap(t)
	err := k.LoadLayer(le16s(0x04, 0x05, 0x06))
	require.Error(t, err)
}

func TestToMatrixSerializesRowMajor(t *testing.T) {
	k := newTestKeymap(t)
	require.NoError(t, k.LoadLayer(le16s(0x04, 0x05, 0x06, 0x07)))

	out := k.ToMatrix()
	require.Equal(t, le16s(0x04, 0x05, 0x06, 0x07), out)
}

// Property 3: layer == load_layer(to_matrix(layer-loaded keymap))
// restricted to positions occupied in the visual layout.
func TestToMatrixRoundTrip(t *testing.T) {
	k := newTestKeymap(t)
	original := le16s(0x04, 0x05, 0x06, 0x07)
	require.NoError(t, k.LoadLayer(original))

	matrix := k.ToMatrix()

	k2 := newTestKeymap(t)
	require.NoError(t, k2.LoadLayer(matrix))

	require.Equal(t, k.GetLayer(0), k2.GetLayer(0))
}

func TestToMatrixRoundTripWithUnoccupiedMatrixPositions(t *testing.T) {
	k := New(2, 2)
	// The template has only 3 real keys; matrix position 3 carries no
	// visual key (lpos 0) and must serialize as KCNo.
	require.NoError(t, k.LoadLayout("sparse2x2", []byte(testSparseLayoutJSON), []byte{1, 2, 3, 0}))
	// LoadLayer takes device-matrix-format bytes (one u16 per matrix cell,
	// knum=4 here); the 4th cell has no visual key and its value is ignored.
	require.NoError(t, k.LoadLayer(le16s(0x04, 0x05, 0x06, 0x00)))

	matrix := k.ToMatrix()
	require.Equal(t, uint16(KCNo), binary.LittleEndian.Uint16(matrix[6:8]))

	k2 := New(2, 2)
	require.NoError(t, k2.LoadLayout("sparse2x2", []byte(testSparseLayoutJSON), []byte{1, 2, 3, 0}))
	require.NoError(t, k2.LoadLayer(matrix))
	require.Equal(t, k.GetLayer(0), k2.GetLayer(0))
}

func TestKeycodeNameKnownAndUnknown(t *testing.T) {
	require.Equal(t, "KC_A", KeycodeName(0x04))
	require.Equal(t, "0x1234", KeycodeName(0x1234))
}

func TestKeycodeDescCustomRangeVsUnknown(t *testing.T) {
	require.Contains(t, KeycodeDesc(safeRange), "Custom")
	require.Contains(t, KeycodeDesc(0x1234), "Unknown")
}

func TestToKeycodeRoundTripsWithName(t *testing.T) {
	require.Equal(t, uint16(0x04), ToKeycode("KC_A"))
	require.Equal(t, KCNo, ToKeycode("KC_DOES_NOT_EXIST"))
}

func TestRowCountSumsWidthsPerRow(t *testing.T) {
	k := newTestKeymap(t)
	require.Equal(t, 8, k.RowCount(0))
	require.Equal(t, 8, k.RowCount(1))
}

func TestLayoutRC2K(t *testing.T) {
	k := newTestKeymap(t)
	require.Equal(t, 0, k.LayoutRC2K(0, 0))
	require.Equal(t, 3, k.LayoutRC2K(1, 1))
	require.Equal(t, 0xFFFF, k.LayoutRC2K(5, 5))
}

func TestPrintLayersReportsBlank(t *testing.T) {
	k := newTestKeymap(t)
	require.NoError(t, k.LoadLayer(make([]byte, 8)))
	require.Contains(t, k.PrintLayers(), "BLANK")
}

func TestPrintLayersRendersAbbreviations(t *testing.T) {
	k := newTestKeymap(t)
	require.NoError(t, k.LoadLayer(le16s(0x04, 0x05, 0x06, 0x07)))
	out := k.PrintLayers()
	require.Contains(t, out, "A")
	require.Contains(t, out, "|")
}

func TestPrintMatrixRendersKeycodeNames(t *testing.T) {
	k := newTestKeymap(t)
	require.NoError(t, k.LoadLayer(le16s(0x04, 0x05, 0x06, 0x07)))
	out := k.PrintMatrix()
	require.Contains(t, out, "KC_A")
	require.Contains(t, out, "KC_D")
}
