package schedule

import (
	"time"

	"github.com/derekprior/greenleague/internal/config"
)

// Slot is one weekly broadcast window. Every week offers the same slots.
type Slot struct {
	Index     int
	Name      string
	Kind      config.SlotKind
	DayOffset int
}

// GenerateSlots builds the weekly slot list in config order.
func GenerateSlots(cfg *config.Config) []Slot {
	slots := make([]Slot, 0, len(cfg.TimeSlots))
	for i, ts := range cfg.TimeSlots {
		slots = append(slots, Slot{
			Index:     i,
			Name:      ts.Name,
			Kind:      ts.Kind,
			DayOffset: ts.DayOffset,
		})
	}
	return slots
}

// Date returns the calendar day of this slot in the given 1-based week of a
// season whose first week starts on start.
func (s Slot) Date(start time.Time, week int) time.Time {
	return start.AddDate(0, 0, 7*(week-1)+s.DayOffset)
}

// slotOfKind returns the index of the slot with the given kind, or -1.
func slotOfKind(slots []Slot, kind config.SlotKind) int {
	for _, s := range slots {
		if s.Kind == kind {
			return s.Index
		}
	}
	return -1
}

// PairingSlots returns the standard and early-prime slot indices used to
// detect paired road trips. ok is false unless both exist.
func PairingSlots(slots []Slot) (standard, early int, ok bool) {
	standard = slotOfKind(slots, config.Standard)
	early = slotOfKind(slots, config.EarlyPrime)
	return standard, early, standard >= 0 && early >= 0
}
