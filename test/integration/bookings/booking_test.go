package integrationtests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"testing"
	"time"

	"calbook/pkg/model"
)

// These tests exercise a running bookings service end to end. Point
// BOOKINGS_API_URL at one (e.g. http://localhost:8080) to enable them.

var baseURL string

func TestMain(m *testing.M) {
	baseURL = os.Getenv("BOOKINGS_API_URL")
	os.Exit(m.Run())
}

func requireService(t *testing.T) {
	t.Helper()
	if baseURL == "" {
		t.Skip("BOOKINGS_API_URL not set, skipping integration tests")
	}
}

func randomDate() string {
	// Far-future dates keep runs from colliding with each other.
	day := time.Now().AddDate(1, 0, rand.Intn(3000))
	return day.Format("2006-01-02")
}

type successResponse struct {
	Data json.RawMessage `json:"data"`
}

func postBooking(t *testing.T, data model.BookingData) (*http.Response, *model.Booking) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(baseURL+"/api/v1/bookings", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST booking: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return resp, nil
	}

	var wrapped successResponse
	if err := json.NewDecoder(resp.Body).Decode(&wrapped); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	var booking model.Booking
	if err := json.Unmarshal(wrapped.Data, &booking); err != nil {
		t.Fatalf("decode booking: %v", err)
	}
	return resp, &booking
}

func deleteBooking(t *testing.T, id string) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/bookings/id/%s", baseURL, id), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE booking: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestBookingLifecycle(t *testing.T) {
	requireService(t)

	date := randomDate()
	data := model.BookingData{
		ClientID:    "client-1",
		ClientName:  "Integration Test",
		ClientPhone: "+14155552671",
		Date:        date,
		StartTime:   "2:00 PM",
		CallType:    model.CallTypeOnboarding,
	}

	resp, booking := postBooking(t, data)
	if booking == nil {
		t.Fatalf("create failed with status %d", resp.StatusCode)
	}
	defer deleteBooking(t, booking.ID)

	if booking.CallDuration != model.OnboardingDurationMin {
		t.Errorf("server stored duration %d, want %d", booking.CallDuration, model.OnboardingDurationMin)
	}

	// An Onboarding at 2:00 PM blocks 2:30 PM.
	overlapping := data
	overlapping.StartTime = "2:30 PM"
	overlapping.CallType = model.CallTypeFollowUp
	resp, second := postBooking(t, overlapping)
	if second != nil {
		deleteBooking(t, second.ID)
		t.Fatal("overlapping booking was accepted")
	}
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("overlap status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	// Back-to-back at 2:40 PM must go through.
	adjacent := data
	adjacent.StartTime = "2:40 PM"
	adjacent.CallType = model.CallTypeFollowUp
	resp, third := postBooking(t, adjacent)
	if third == nil {
		t.Fatalf("back-to-back booking rejected with status %d", resp.StatusCode)
	}
	deleteBooking(t, third.ID)

	if status := deleteBooking(t, booking.ID); status != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d", status, http.StatusNoContent)
	}
	if status := deleteBooking(t, booking.ID); status != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", status, http.StatusNotFound)
	}
}

func TestConcurrentCreationOneWinner(t *testing.T) {
	requireService(t)

	date := randomDate()
	results := make(chan *model.Booking, 4)

	for i := 0; i < 4; i++ {
		go func(n int) {
			_, booking := postBooking(t, model.BookingData{
				ClientID:    fmt.Sprintf("client-%d", n+1),
				ClientName:  "Race Test",
				ClientPhone: "+14155552671",
				Date:        date,
				StartTime:   "3:00 PM",
				CallType:    model.CallTypeFollowUp,
			})
			results <- booking
		}(i)
	}

	var winners []*model.Booking
	for i := 0; i < 4; i++ {
		if b := <-results; b != nil {
			winners = append(winners, b)
		}
	}
	for _, b := range winners {
		deleteBooking(t, b.ID)
	}

	if len(winners) != 1 {
		t.Fatalf("%d concurrent creates succeeded for the same slot, want exactly 1", len(winners))
	}
}

func TestSlotGridReflectsBooking(t *testing.T) {
	requireService(t)

	date := randomDate()
	_, booking := postBooking(t, model.BookingData{
		ClientID:    "client-1",
		ClientName:  "Grid Test",
		ClientPhone: "+14155552671",
		Date:        date,
		StartTime:   "2:00 PM",
		CallType:    model.CallTypeOnboarding,
	})
	if booking == nil {
		t.Fatal("create failed")
	}
	defer deleteBooking(t, booking.ID)

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/bookings/slots?date=%s", baseURL, date))
	if err != nil {
		t.Fatalf("GET slots: %v", err)
	}
	defer resp.Body.Close()

	var wrapped successResponse
	if err := json.NewDecoder(resp.Body).Decode(&wrapped); err != nil {
		t.Fatalf("decode slots response: %v", err)
	}
	var grid []model.TimeSlotInfo
	if err := json.Unmarshal(wrapped.Data, &grid); err != nil {
		t.Fatalf("decode grid: %v", err)
	}

	booked := map[string]bool{}
	for _, slot := range grid {
		if slot.IsBooked {
			booked[slot.Slot] = true
		}
	}
	if !booked["2:00 PM"] || !booked["2:20 PM"] {
		t.Errorf("booked slots = %v, want 2:00 PM and 2:20 PM", booked)
	}
	if booked["2:40 PM"] {
		t.Error("2:40 PM should stay free after a 40 minute booking at 2:00 PM")
	}
}
