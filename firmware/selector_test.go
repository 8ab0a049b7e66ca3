package firmware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-sdboot/storage"
)

const (
	markerA = "Application_New.txt"
	markerB = "FlagB.txt"
)

func mountedMemFS(t *testing.T, names ...string) (*storage.MemFS, storage.FS) {
	t.Helper()
	m := storage.NewMemFS()
	for _, name := range names {
		m.Put(name, nil)
	}
	fsys, err := m.Mount()
	require.NoError(t, err)
	return m, fsys
}

func TestSelectOnlyA(t *testing.T) {
	m, fsys := mountedMemFS(t, markerA)

	d := NewSelector(fsys, DefaultSlots).Select()
	require.True(t, d.Update())
	assert.Equal(t, SlotA, d.Slot.Slot)
	assert.Equal(t, "Application_New.bin", d.Slot.Image)
	assert.NoError(t, d.RemoveErr)

	assert.False(t, m.Has(markerA), "marker A is consumed")
	assert.False(t, m.Has(markerB), "marker B stays absent")
	assert.Equal(t, []string{markerA}, m.Removed())
}

func TestSelectOnlyB(t *testing.T) {
	m, fsys := mountedMemFS(t, markerB)

	d := NewSelector(fsys, DefaultSlots).Select()
	require.True(t, d.Update())
	assert.Equal(t, SlotB, d.Slot.Slot)
	assert.False(t, m.Has(markerB))
	require.Len(t, d.Probes, 2)
	assert.False(t, d.Probes[0].Present)
	assert.True(t, d.Probes[1].Present)
}

func TestSelectBothPrefersA(t *testing.T) {
	m, fsys := mountedMemFS(t, markerA, markerB)

	d := NewSelector(fsys, DefaultSlots).Select()
	require.True(t, d.Update())
	assert.Equal(t, SlotA, d.Slot.Slot)
	assert.False(t, m.Has(markerA))
	assert.True(t, m.Has(markerB), "marker B is left for a later boot")
	assert.Len(t, d.Probes, 1, "B is not even probed")

	// next boot picks up B
	d = NewSelector(fsys, DefaultSlots).Select()
	require.True(t, d.Update())
	assert.Equal(t, SlotB, d.Slot.Slot)
	assert.False(t, m.Has(markerB))
}

func TestSelectNone(t *testing.T) {
	m, fsys := mountedMemFS(t, "Application_New.bin", "TestB.bin")

	d := NewSelector(fsys, DefaultSlots).Select()
	assert.False(t, d.Update())
	assert.Nil(t, d.Slot)
	assert.Len(t, d.Probes, 2)
	assert.Empty(t, m.Removed())
}

func TestSelectIsIdempotent(t *testing.T) {
	_, fsys := mountedMemFS(t, markerA)
	sel := NewSelector(fsys, DefaultSlots)

	require.True(t, sel.Select().Update())
	assert.False(t, sel.Select().Update(), "a consumed marker is not applied twice")
}

func TestSelectProbeFailureFailsOpen(t *testing.T) {
	tests := []struct {
		name     string
		markers  []string
		probeErr string
		want     *Slot
	}{
		{
			name:     "A unreadable, B absent",
			markers:  []string{markerA},
			probeErr: markerA,
		},
		{
			name:     "A unreadable, B present",
			markers:  []string{markerA, markerB},
			probeErr: markerA,
			want:     slotPtr(SlotB),
		},
		{
			name:     "B unreadable",
			markers:  []string{markerB},
			probeErr: markerB,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, fsys := mountedMemFS(t, tt.markers...)
			boom := errors.New("card read timeout")
			m.ProbeErr[tt.probeErr] = boom

			d := NewSelector(fsys, DefaultSlots).Select()
			if tt.want == nil {
				assert.False(t, d.Update())
			} else {
				require.True(t, d.Update())
				assert.Equal(t, *tt.want, d.Slot.Slot)
			}

			var failed int
			for _, p := range d.Probes {
				if p.Err != nil {
					failed++
					assert.ErrorIs(t, p.Err, boom)
					assert.False(t, p.Present)
				}
			}
			assert.Equal(t, 1, failed)
			assert.True(t, m.Has(tt.probeErr), "an unprobed marker is never deleted")
		})
	}
}

func TestSlotParsing(t *testing.T) {
	for in, want := range map[string]Slot{"a": SlotA, "A": SlotA, "b": SlotB, "B": SlotB} {
		got, err := ParseSlot(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseSlot("c")
	assert.Error(t, err)

	assert.Equal(t, "A", SlotA.String())
	assert.Equal(t, "B", SlotB.String())
	assert.Equal(t, "Slot(7)", Slot(7).String())

	cfg, ok := DefaultSlots.Lookup(SlotB)
	require.True(t, ok)
	assert.Equal(t, "FlagB.txt", cfg.Marker)
	_, ok = DefaultSlots.Lookup(Slot(9))
	assert.False(t, ok)
}

func slotPtr(s Slot) *Slot {
	return &s
}
