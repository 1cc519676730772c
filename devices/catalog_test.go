package devices

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveAliasCanonicalSlug(t *testing.T) {
	desc, ok := ResolveAlias("pok3r")
	require.True(t, ok)
	require.Equal(t, "POK3R", desc.Name)
	require.Equal(t, ProtoPOK3R, desc.Protocol)
}

func TestResolveAliasCaseInsensitiveAndAlias(t *testing.T) {
	desc, ok := ResolveAlias("Vortex_Core")
	require.True(t, ok)
	require.Equal(t, "core", desc.Slug)
}

func TestResolveAliasUnknown(t *testing.T) {
	_, ok := ResolveAlias("not-a-device")
	require.False(t, ok)
}

// TestResolveAliasQMKVariantsUseHoltekProtocol proves the three QMK-flashed
// device slugs from main.cpp's devnames map resolve to ProtoHoltek entries
// sharing their non-QMK sibling's vid/pid/boot_pid, making holtekisp.Proto
// reachable through the same -t/--device lookup every other device uses.
func TestResolveAliasQMKVariantsUseHoltekProtocol(t *testing.T) {
	cases := []struct {
		slug    string
		sibling string
	}{
		{"qmk_pok3r", "pok3r"},
		{"qmk_pok3r_rgb", "pok3r-rgb"},
		{"qmk_vortex_core", "core"},
	}
	for _, c := range cases {
		qmk, ok := ResolveAlias(c.slug)
		require.True(t, ok, c.slug)
		require.Equal(t, ProtoHoltek, qmk.Protocol, c.slug)

		base, ok := ResolveAlias(c.sibling)
		require.True(t, ok, c.sibling)
		require.Equal(t, base.VID, qmk.VID, c.slug)
		require.Equal(t, base.PID, qmk.PID, c.slug)
		require.Equal(t, base.BootPID, qmk.BootPID, c.slug)
	}
}

func TestIsBootloaderPID(t *testing.T) {
	require.True(t, IsBootloaderPID(0x0141, 0x1141))
	require.False(t, IsBootloaderPID(0x0141, 0x0141))
}

func TestKnownPIDsIncludesEveryCatalogEntry(t *testing.T) {
	pids := KnownPIDs()
	for _, d := range Catalog {
		require.True(t, pids[d.PID], d.Slug)
		require.True(t, pids[d.BootPID], d.Slug)
	}
}

func TestByPIDFindsBootloaderIdentity(t *testing.T) {
	desc, inBootloader, ok := ByPID(HoltekVID, 0x1141)
	require.True(t, ok)
	require.True(t, inBootloader)
	require.Equal(t, "pok3r", desc.Slug)
}

func TestByPIDRejectsUnknownVID(t *testing.T) {
	_, _, ok := ByPID(QMKVID, 0x0141)
	require.False(t, ok)
}
