// Package conflict decides whether a candidate booking interval collides with
// existing bookings on the same date. It is pure minute math over pre-fetched
// bookings and knows nothing about storage.
package conflict

import (
	"fmt"

	"calbook/pkg/model"
	"calbook/pkg/timeparse"
)

// HasOverlap reports whether two half-open minute intervals [startA, endA) and
// [startB, endB) intersect. Back-to-back intervals do not conflict: a booking
// ending at 2:40 PM leaves the 2:40 PM slot free.
func HasOverlap(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

// Check scans the given bookings for one overlapping the candidate interval
// and returns it. The bookings are expected to already be filtered to the
// candidate's date; entries on another date are skipped defensively. The first
// overlapping booking in input order wins.
func Check(date, startTime string, callDuration int, existing []model.Booking) (model.ConflictCheckResult, error) {
	start, err := timeparse.ToMinutes(startTime)
	if err != nil {
		return model.ConflictCheckResult{}, fmt.Errorf("candidate start time: %w", err)
	}
	end := start + callDuration

	for i := range existing {
		b := &existing[i]
		if b.Date != date {
			continue
		}

		bookingStart, err := timeparse.ToMinutes(b.StartTime)
		if err != nil {
			return model.ConflictCheckResult{}, fmt.Errorf("booking %s start time: %w", b.ID, err)
		}
		bookingEnd := bookingStart + b.CallDuration

		if HasOverlap(start, end, bookingStart, bookingEnd) {
			return model.ConflictCheckResult{
				HasConflict:        true,
				ConflictingBooking: b,
			}, nil
		}
	}

	return model.ConflictCheckResult{}, nil
}
