package firmware

import "fmt"

// Slot identifies a candidate image.
type Slot int

const (
	SlotA Slot = iota
	SlotB
)

func (s Slot) String() string {
	switch s {
	case SlotA:
		return "A"
	case SlotB:
		return "B"
	default:
		return fmt.Sprintf("Slot(%d)", int(s))
	}
}

// ParseSlot parses "a", "A", "b" or "B".
func ParseSlot(s string) (Slot, error) {
	switch s {
	case "a", "A":
		return SlotA, nil
	case "b", "B":
		return SlotB, nil
	default:
		return 0, fmt.Errorf("unknown slot %q: want A or B", s)
	}
}

// SlotConfig names the files belonging to a slot.
type SlotConfig struct {
	Slot Slot

	// Marker is the flag file requesting an update from this slot
	Marker string

	// Image is the raw binary installed from this slot
	Image string
}

// Slots is a list of slots in priority order.
type Slots []SlotConfig

// DefaultSlots is the storage layout used by the reference updater.
var DefaultSlots = Slots{
	{Slot: SlotA, Marker: "Application_New.txt", Image: "Application_New.bin"},
	{Slot: SlotB, Marker: "FlagB.txt", Image: "TestB.bin"},
}

// Lookup returns the configuration of slot.
func (s Slots) Lookup(slot Slot) (SlotConfig, bool) {
	for _, cfg := range s {
		if cfg.Slot == slot {
			return cfg, true
		}
	}
	return SlotConfig{}, false
}
