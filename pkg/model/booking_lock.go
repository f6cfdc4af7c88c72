package model

import "time"

// BookingLock is an advisory lock document guarding concurrent create attempts
// for the same date and start time. The _id doubles as the lock key, so a
// duplicate-key error on insert means the slot is already being booked.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
