// Package timeparse converts between 12-hour clock time strings and minute
// offsets since midnight. All schedule math in the booking core runs on the
// minute offsets, never on the raw strings.
package timeparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const MinutesPerDay = 24 * 60

var ErrInvalidTimeFormat = errors.New("invalid time format, expected \"H:MM AM\" or \"H:MM PM\"")

// ToMinutes converts a time string such as "2:30 PM" to minutes since
// midnight, in [0, 1439]. The hour carries no leading zero; "12:00 AM" is
// midnight and "12:00 PM" is noon.
func ToMinutes(timeStr string) (int, error) {
	clock, period, ok := strings.Cut(strings.TrimSpace(timeStr), " ")
	if !ok || (period != "AM" && period != "PM") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, timeStr)
	}

	hh, mm, ok := strings.Cut(clock, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, timeStr)
	}

	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, timeStr)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, timeStr)
	}

	if hours < 1 || hours > 12 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, timeStr)
	}

	if period == "PM" && hours != 12 {
		hours += 12
	}
	if period == "AM" && hours == 12 {
		hours = 0
	}

	return hours*60 + minutes, nil
}

// FormatMinutes renders a minute offset back to the "H:MM AM|PM" form used by
// the slot catalog. Offsets outside a single day are clamped.
func FormatMinutes(m int) string {
	if m < 0 {
		m = 0
	}
	if m >= MinutesPerDay {
		m = MinutesPerDay - 1
	}

	hours := m / 60
	minutes := m % 60

	period := "AM"
	if hours >= 12 {
		period = "PM"
	}

	hours %= 12
	if hours == 0 {
		hours = 12
	}

	return fmt.Sprintf("%d:%02d %s", hours, minutes, period)
}
