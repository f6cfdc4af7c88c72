package model

import (
	"time"
)

// Client is read-only directory data. The booking core never mutates clients.
type Client struct {
	ID    string `json:"id" bson:"_id"`
	Name  string `json:"name" bson:"name"`
	Phone string `json:"phone" bson:"phone"`
}

type CallType string

const (
	CallTypeOnboarding CallType = "Onboarding"
	CallTypeFollowUp   CallType = "Follow-up"
)

const (
	OnboardingDurationMin = 40
	FollowUpDurationMin   = 20
)

// Duration returns the fixed call length in minutes for the call type.
// Durations are always derived here at write time; a duration supplied by the
// caller is ignored.
func (c CallType) Duration() int {
	if c == CallTypeOnboarding {
		return OnboardingDurationMin
	}
	return FollowUpDurationMin
}

func (c CallType) Valid() bool {
	return c == CallTypeOnboarding || c == CallTypeFollowUp
}

// Booking occupies the half-open interval [start, start+duration) in minutes
// since midnight on its date. Two bookings on the same date never overlap.
type Booking struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	ClientID     string    `json:"client_id" bson:"client_id"`
	ClientName   string    `json:"client_name" bson:"client_name"`
	ClientPhone  string    `json:"client_phone" bson:"client_phone"`
	Date         string    `json:"date" bson:"date"`
	StartTime    string    `json:"start_time" bson:"start_time"`
	CallType     CallType  `json:"call_type" bson:"call_type"`
	CallDuration int       `json:"call_duration" bson:"call_duration"`
	IsRecurring  bool      `json:"is_recurring" bson:"is_recurring"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// BookingData is the create payload. ID, CallDuration and CreatedAt are
// assigned by the store.
type BookingData struct {
	ClientID    string   `json:"client_id" validate:"required"`
	ClientName  string   `json:"client_name" validate:"required,min=2,max=100"`
	ClientPhone string   `json:"client_phone" validate:"required,e164"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string   `json:"start_time" validate:"required,ampm_time"`
	CallType    CallType `json:"call_type" validate:"required,calltype"`
	IsRecurring bool     `json:"is_recurring"`
}

type ConflictCheckResult struct {
	HasConflict        bool     `json:"has_conflict"`
	ConflictingBooking *Booking `json:"conflicting_booking,omitempty"`
}

// TimeSlotInfo is the per-slot reconciliation result. A single booking whose
// duration spans several catalog slots appears in each of them.
type TimeSlotInfo struct {
	Slot     string   `json:"slot"`
	IsBooked bool     `json:"is_booked"`
	Booking  *Booking `json:"booking,omitempty"`
}
