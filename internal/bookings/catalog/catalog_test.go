package catalog

import (
	"testing"

	"calbook/pkg/config"
)

func TestNewGeneratesDaySlots(t *testing.T) {
	cfg := &config.Config{
		SlotDayStart: "9:00 AM",
		SlotDayEnd:   "5:00 PM",
		SlotStepMin:  20,
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if c.Len() != 24 {
		t.Fatalf("expected 24 slots for an 8 hour day at 20 minute steps, got %d", c.Len())
	}

	slots := c.Slots()
	if slots[0] != "9:00 AM" {
		t.Errorf("first slot = %q, want 9:00 AM", slots[0])
	}
	if slots[len(slots)-1] != "4:40 PM" {
		t.Errorf("last slot = %q, want 4:40 PM", slots[len(slots)-1])
	}

	minutes := c.Minutes()
	if minutes[0] != 540 {
		t.Errorf("first slot minutes = %d, want 540", minutes[0])
	}
	for i := 1; i < len(minutes); i++ {
		if minutes[i]-minutes[i-1] != 20 {
			t.Fatalf("slot %d is not 20 minutes after slot %d", i, i-1)
		}
	}
}

func TestNewCrossesNoon(t *testing.T) {
	cfg := &config.Config{
		SlotDayStart: "11:40 AM",
		SlotDayEnd:   "12:40 PM",
		SlotStepMin:  20,
	}

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := []string{"11:40 AM", "12:00 PM", "12:20 PM"}
	got := c.Slots()
	if len(got) != len(want) {
		t.Fatalf("got %d slots, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewRejectsBadWindows(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"end before start", &config.Config{SlotDayStart: "5:00 PM", SlotDayEnd: "9:00 AM", SlotStepMin: 20}},
		{"zero step", &config.Config{SlotDayStart: "9:00 AM", SlotDayEnd: "5:00 PM", SlotStepMin: 0}},
		{"malformed start", &config.Config{SlotDayStart: "09:00", SlotDayEnd: "5:00 PM", SlotStepMin: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}
