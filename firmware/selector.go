package firmware

import "github.com/moffa90/go-sdboot/storage"

// Probe is the outcome of checking one marker.
type Probe struct {
	Slot    Slot
	Marker  string
	Present bool

	// Err is the storage error hit while probing. A failed probe counts as
	// an absent marker.
	Err error
}

// Decision is the result of one selection.
type Decision struct {
	// Slot is the selected slot, nil when no update is requested
	Slot *SlotConfig

	// Probes lists the markers checked, in order
	Probes []Probe

	// RemoveErr is set when the selected marker could not be deleted.
	// The slot is selected anyway.
	RemoveErr error
}

// Update reports whether a slot was selected.
func (d Decision) Update() bool {
	return d.Slot != nil
}

// Selector picks at most one slot per boot from the markers on a volume.
type Selector struct {
	fs    storage.FS
	slots Slots
}

// NewSelector creates a selector checking slots in the given order.
func NewSelector(fsys storage.FS, slots Slots) *Selector {
	if fsys == nil {
		panic("filesystem cannot be nil")
	}
	return &Selector{
		fs:    fsys,
		slots: slots,
	}
}

// Select checks each slot's marker in priority order. The first marker found
// is deleted and its slot returned; markers of lower priority slots are not
// touched. Probe errors never block the boot, they are reported and treated
// as "marker absent".
func (s *Selector) Select() Decision {
	var d Decision
	for _, cfg := range s.slots {
		present, err := s.fs.Exists(cfg.Marker)
		d.Probes = append(d.Probes, Probe{
			Slot:    cfg.Slot,
			Marker:  cfg.Marker,
			Present: present && err == nil,
			Err:     err,
		})
		if err != nil || !present {
			continue
		}

		selected := cfg
		d.Slot = &selected
		d.RemoveErr = s.fs.Remove(cfg.Marker)
		return d
	}
	return d
}
