package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrSlotTaken = errors.New("time slot overlaps with an existing booking")

	ErrSlotLocked = errors.New("time slot is currently being booked")
)
