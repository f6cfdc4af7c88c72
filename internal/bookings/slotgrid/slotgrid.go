package slotgrid

import (
	"fmt"
	"sync"

	"calbook/internal/bookings/catalog"
	"calbook/pkg/model"
	"calbook/pkg/timeparse"
)

// Reconcile projects the day's bookings onto the slot catalog. A slot is
// booked when its start falls inside a booking's half-open interval, so a 40
// minute booking at 2:00 PM marks both the 2:00 PM and 2:20 PM slots with the
// same booking. When intervals overlap in bad data, the earliest stored
// booking wins.
func Reconcile(cat *catalog.Catalog, bookings []model.Booking) ([]model.TimeSlotInfo, error) {
	type interval struct {
		start, end int
		booking    *model.Booking
	}

	intervals := make([]interval, 0, len(bookings))
	for i := range bookings {
		start, err := timeparse.ToMinutes(bookings[i].StartTime)
		if err != nil {
			return nil, fmt.Errorf("booking %s has unreadable start time %q: %w",
				bookings[i].ID, bookings[i].StartTime, err)
		}
		intervals = append(intervals, interval{
			start:   start,
			end:     start + bookings[i].CallDuration,
			booking: &bookings[i],
		})
	}

	slots := cat.Slots()
	minutes := cat.Minutes()
	grid := make([]model.TimeSlotInfo, len(slots))
	for i := range slots {
		info := model.TimeSlotInfo{Slot: slots[i]}
		for _, iv := range intervals {
			if minutes[i] >= iv.start && minutes[i] < iv.end {
				info.IsBooked = true
				info.Booking = iv.booking
				break
			}
		}
		grid[i] = info
	}

	return grid, nil
}

// SubscribeFunc attaches a listener to a date's booking feed and returns the
// matching detach function.
type SubscribeFunc func(date string, onChange func([]model.Booking)) (func(), error)

// GridListener receives the reconciled grid after every change to the
// session's current date.
type GridListener func(date string, grid []model.TimeSlotInfo)

// Session tracks one viewer's position: the date being watched and the slot
// they have picked, kept consistent with the live booking feed. Switching
// dates detaches the previous feed before attaching the next one, and a
// selection is dropped the moment some other writer books it.
type Session struct {
	catalog   *catalog.Catalog
	subscribe SubscribeFunc
	onGrid    GridListener

	mu          sync.Mutex
	date        string
	unsubscribe func()
	selected    string
	grid        []model.TimeSlotInfo
}

func NewSession(cat *catalog.Catalog, subscribe SubscribeFunc, onGrid GridListener) *Session {
	return &Session{
		catalog:   cat,
		subscribe: subscribe,
		onGrid:    onGrid,
	}
}

// SetDate switches the session to a new date. The previous date's feed is
// detached first so a stale update can never overwrite the new date's grid.
// Selection does not carry across dates.
func (s *Session) SetDate(date string) error {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.date = date
	s.selected = ""
	s.grid = nil
	s.mu.Unlock()

	unsubscribe, err := s.subscribe(date, func(bookings []model.Booking) {
		s.apply(date, bookings)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.date != date {
		// SetDate raced with another SetDate and lost.
		s.mu.Unlock()
		unsubscribe()
		return nil
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	return nil
}

func (s *Session) apply(date string, bookings []model.Booking) {
	grid, err := Reconcile(s.catalog, bookings)
	if err != nil {
		return
	}

	s.mu.Lock()
	if s.date != date {
		s.mu.Unlock()
		return
	}
	s.grid = grid
	if s.selected != "" {
		for _, slot := range grid {
			if slot.Slot == s.selected && slot.IsBooked {
				s.selected = ""
				break
			}
		}
	}
	onGrid := s.onGrid
	s.mu.Unlock()

	if onGrid != nil {
		onGrid(date, grid)
	}
}

// Select marks a catalog slot as the session's choice. Booked slots and slots
// outside the catalog are rejected.
func (s *Session) Select(slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inCatalog := false
	for _, info := range s.grid {
		if info.Slot == slot {
			inCatalog = true
			if info.IsBooked {
				return fmt.Errorf("slot %s is already booked", slot)
			}
			break
		}
	}
	if !inCatalog {
		return fmt.Errorf("slot %s is not in the day's catalog", slot)
	}

	s.selected = slot
	return nil
}

// Selected returns the current slot choice, or "" when nothing is selected.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Grid returns the latest reconciled grid for the session's date.
func (s *Session) Grid() []model.TimeSlotInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}

// Close detaches the session from its date feed. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
