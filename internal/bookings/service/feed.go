package service

import (
	"sync"

	"calbook/pkg/model"
)

// ChangeListener receives the full set of a date's bookings after every
// mutation. Snapshots, not deltas: a listener that misses one call catches up
// completely on the next.
type ChangeListener func(bookings []model.Booking)

// bookingFeed fans date snapshots out to subscribers. It only routes; loading
// the snapshot is the service's job.
type bookingFeed struct {
	mu   sync.Mutex
	next uint64
	subs map[string]map[uint64]ChangeListener
}

func newBookingFeed() *bookingFeed {
	return &bookingFeed{subs: make(map[string]map[uint64]ChangeListener)}
}

// subscribe registers a listener for a date and returns its detach function.
// Detaching twice is harmless.
func (f *bookingFeed) subscribe(date string, fn ChangeListener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.next++
	token := f.next
	if f.subs[date] == nil {
		f.subs[date] = make(map[uint64]ChangeListener)
	}
	f.subs[date][token] = fn

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if listeners, ok := f.subs[date]; ok {
			delete(listeners, token)
			if len(listeners) == 0 {
				delete(f.subs, date)
			}
		}
	}
}

// publish delivers a snapshot to every listener on the date. Listeners run
// outside the feed lock so a slow one cannot block subscribe or detach.
func (f *bookingFeed) publish(date string, bookings []model.Booking) {
	f.mu.Lock()
	listeners := make([]ChangeListener, 0, len(f.subs[date]))
	for _, fn := range f.subs[date] {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(bookings)
	}
}

// hasSubscribers reports whether anyone is watching the date. Used to skip
// snapshot reloads nobody would see.
func (f *bookingFeed) hasSubscribers(date string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[date]) > 0
}
