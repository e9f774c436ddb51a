package schedule

import (
	"testing"
	"time"

	"github.com/derekprior/greenleague/internal/config"
)

func nflSlots() []Slot {
	return GenerateSlots(&config.Config{
		TimeSlots: []config.TimeSlot{
			{Name: "Thursday", Kind: config.EarlyPrime, DayOffset: 0},
			{Name: "Sunday", Kind: config.Standard, DayOffset: 3},
			{Name: "Monday", Kind: config.LatePrime, DayOffset: 4},
		},
	})
}

func TestGenerateSlots(t *testing.T) {
	slots := nflSlots()
	if len(slots) != 3 {
		t.Fatalf("slots = %d, want 3", len(slots))
	}
	for i, s := range slots {
		if s.Index != i {
			t.Errorf("slot %q index = %d, want %d", s.Name, s.Index, i)
		}
	}
	if slots[2].Kind != config.LatePrime {
		t.Errorf("slot 2 kind = %q, want late_prime", slots[2].Kind)
	}
}

func TestSlotDate(t *testing.T) {
	start := time.Date(2025, 9, 4, 0, 0, 0, 0, time.UTC) // Thursday
	slots := nflSlots()

	tests := []struct {
		slot int
		week int
		want string
	}{
		{0, 1, "2025-09-04"},
		{1, 1, "2025-09-07"},
		{2, 1, "2025-09-08"},
		{1, 18, "2026-01-04"},
	}
	for _, tt := range tests {
		got := slots[tt.slot].Date(start, tt.week).Format("2006-01-02")
		if got != tt.want {
			t.Errorf("%s week %d = %s, want %s", slots[tt.slot].Name, tt.week, got, tt.want)
		}
	}
}

func TestPairingSlots(t *testing.T) {
	std, early, ok := PairingSlots(nflSlots())
	if !ok || std != 1 || early != 0 {
		t.Errorf("PairingSlots = %d, %d, %v; want 1, 0, true", std, early, ok)
	}

	_, _, ok = PairingSlots([]Slot{{Index: 0, Name: "Sunday", Kind: config.Standard}})
	if ok {
		t.Error("a single standard slot should not support pairing")
	}
}
