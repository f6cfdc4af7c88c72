package catalog

import (
	"fmt"

	"calbook/pkg/config"
	"calbook/pkg/timeparse"
)

// Catalog is the ordered list of bookable start times for a day. It is fixed
// at startup from configuration and shared read-only after that.
type Catalog struct {
	slots   []string
	minutes []int
}

// New builds the slot catalog from the configured day window and step. The
// end of the window is exclusive, so a 9:00 AM to 5:00 PM day with a 20
// minute step ends at 4:40 PM.
func New(cfg *config.Config) (*Catalog, error) {
	start, err := timeparse.ToMinutes(cfg.SlotDayStart)
	if err != nil {
		return nil, fmt.Errorf("slot day start: %w", err)
	}
	end, err := timeparse.ToMinutes(cfg.SlotDayEnd)
	if err != nil {
		return nil, fmt.Errorf("slot day end: %w", err)
	}
	if end <= start {
		return nil, fmt.Errorf("slot day end %q is not after start %q", cfg.SlotDayEnd, cfg.SlotDayStart)
	}
	if cfg.SlotStepMin <= 0 {
		return nil, fmt.Errorf("slot step must be positive, got %d", cfg.SlotStepMin)
	}

	c := &Catalog{}
	for m := start; m < end; m += cfg.SlotStepMin {
		c.slots = append(c.slots, timeparse.FormatMinutes(m))
		c.minutes = append(c.minutes, m)
	}
	return c, nil
}

// Slots returns the catalog start times in day order.
func (c *Catalog) Slots() []string {
	return c.slots
}

// Minutes returns each slot's offset in minutes since midnight, aligned with
// Slots.
func (c *Catalog) Minutes() []int {
	return c.minutes
}

func (c *Catalog) Len() int {
	return len(c.slots)
}
