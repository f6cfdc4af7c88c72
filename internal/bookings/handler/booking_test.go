package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"calbook/internal/bookings/service"
	apperrors "calbook/pkg/errors"
	"calbook/pkg/kafka"
	"calbook/pkg/logger"
	"calbook/pkg/model"
)

type mockBookingService struct {
	createFn          func(ctx context.Context, data *model.BookingData) (*model.Booking, error)
	deleteFn          func(ctx context.Context, id string) error
	getAllFn          func(ctx context.Context, limit int, offset int64) ([]model.Booking, int64, error)
	listByDateFn      func(ctx context.Context, date string) ([]model.Booking, error)
	checkConflictFn   func(ctx context.Context, date, startTime string, callType model.CallType) (model.ConflictCheckResult, error)
	slotsForDateFn    func(ctx context.Context, date string) ([]model.TimeSlotInfo, error)
	subscribeToDateFn func(ctx context.Context, date string, onChange service.ChangeListener) (func(), error)
}

func (m *mockBookingService) Create(ctx context.Context, data *model.BookingData) (*model.Booking, error) {
	if m.createFn != nil {
		return m.createFn(ctx, data)
	}
	return &model.Booking{ID: "bk-1"}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return &model.Booking{ID: id}, nil
}

func (m *mockBookingService) GetAll(ctx context.Context, limit int, offset int64) ([]model.Booking, int64, error) {
	if m.getAllFn != nil {
		return m.getAllFn(ctx, limit, offset)
	}
	return []model.Booking{}, 0, nil
}

func (m *mockBookingService) ListByDate(ctx context.Context, date string) ([]model.Booking, error) {
	if m.listByDateFn != nil {
		return m.listByDateFn(ctx, date)
	}
	return []model.Booking{}, nil
}

func (m *mockBookingService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockBookingService) CheckConflict(ctx context.Context, date, startTime string, callType model.CallType) (model.ConflictCheckResult, error) {
	if m.checkConflictFn != nil {
		return m.checkConflictFn(ctx, date, startTime, callType)
	}
	return model.ConflictCheckResult{}, nil
}

func (m *mockBookingService) SlotsForDate(ctx context.Context, date string) ([]model.TimeSlotInfo, error) {
	if m.slotsForDateFn != nil {
		return m.slotsForDateFn(ctx, date)
	}
	return []model.TimeSlotInfo{}, nil
}

func (m *mockBookingService) SubscribeToDate(ctx context.Context, date string, onChange service.ChangeListener) (func(), error) {
	if m.subscribeToDateFn != nil {
		return m.subscribeToDateFn(ctx, date, onChange)
	}
	onChange(nil)
	return func() {}, nil
}

func (m *mockBookingService) HandleChangeEvent(ctx context.Context, msg kafka.Message) error {
	return nil
}

func testHandler(svc service.BookingService) (*BookingHandler, *httprouter.Router) {
	log := logger.New(logger.Config{Output: io.Discard})
	h := NewBookingHandler(svc, log)
	router := httprouter.New()
	h.RegisterRoutes(router)
	return h, router
}

func TestCreateReturnsCreatedBooking(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(_ context.Context, data *model.BookingData) (*model.Booking, error) {
			return &model.Booking{
				ID:           "bk-1",
				ClientID:     data.ClientID,
				Date:         data.Date,
				StartTime:    data.StartTime,
				CallType:     data.CallType,
				CallDuration: data.CallType.Duration(),
			}, nil
		},
	}
	_, router := testHandler(svc)

	body := `{"client_id":"client-1","client_name":"Dana Levi","client_phone":"+14155552671","date":"2026-09-14","start_time":"2:00 PM","call_type":"Onboarding"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		Data model.Booking `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.ID != "bk-1" || resp.Data.CallDuration != model.OnboardingDurationMin {
		t.Errorf("unexpected booking %+v", resp.Data)
	}
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	_, router := testHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateMapsConflictToHTTP409(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(context.Context, *model.BookingData) (*model.Booking, error) {
			return nil, apperrors.Conflict(service.ConflictMessage)
		},
	}
	_, router := testHandler(svc)

	body := `{"client_id":"client-1","start_time":"2:00 PM"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if !strings.Contains(rec.Body.String(), service.ConflictMessage) {
		t.Errorf("body %s does not carry the conflict message", rec.Body.String())
	}
}

func TestListWithoutDateIsPaginated(t *testing.T) {
	svc := &mockBookingService{
		getAllFn: func(_ context.Context, limit int, offset int64) ([]model.Booking, int64, error) {
			if limit != 5 || offset != 10 {
				t.Errorf("limit/offset = %d/%d, want 5/10", limit, offset)
			}
			return []model.Booking{{ID: "bk-1"}}, 42, nil
		},
	}
	_, router := testHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?limit=5&offset=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data       []model.Booking `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalCount != 42 || resp.Limit != 5 || resp.Offset != 10 {
		t.Errorf("pagination envelope = %+v", resp)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != "bk-1" {
		t.Errorf("data = %+v", resp.Data)
	}
}

func TestListWithDateDelegatesToListByDate(t *testing.T) {
	svc := &mockBookingService{
		getAllFn: func(context.Context, int, int64) ([]model.Booking, int64, error) {
			t.Fatal("paginated listing must not run when a date filter is present")
			return nil, 0, nil
		},
		listByDateFn: func(_ context.Context, date string) ([]model.Booking, error) {
			if date != "2026-09-14" {
				t.Errorf("date = %q", date)
			}
			return []model.Booking{}, nil
		},
	}
	_, router := testHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?date=2026-09-14", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestListRejectsBadPagination(t *testing.T) {
	_, router := testHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?limit=abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDeleteMapsNotFound(t *testing.T) {
	svc := &mockBookingService{
		deleteFn: func(_ context.Context, id string) error {
			return apperrors.NotFoundWithID("booking", id)
		},
	}
	_, router := testHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/id/bk-404", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDeleteReturnsNoContent(t *testing.T) {
	_, router := testHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/id/bk-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestCheckConflictRequiresAllParameters(t *testing.T) {
	_, router := testHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/conflict?date=2026-09-14", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCheckConflictReturnsResult(t *testing.T) {
	svc := &mockBookingService{
		checkConflictFn: func(_ context.Context, date, startTime string, callType model.CallType) (model.ConflictCheckResult, error) {
			return model.ConflictCheckResult{
				HasConflict:        true,
				ConflictingBooking: &model.Booking{ID: "bk-1"},
			}, nil
		},
	}
	_, router := testHandler(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/bookings/conflict?date=2026-09-14&start_time=2:30+PM&call_type=Follow-up", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data model.ConflictCheckResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.HasConflict || resp.Data.ConflictingBooking.ID != "bk-1" {
		t.Errorf("unexpected result %+v", resp.Data)
	}
}

func TestWatchStreamsSnapshots(t *testing.T) {
	push := make(chan service.ChangeListener, 1)
	svc := &mockBookingService{
		subscribeToDateFn: func(_ context.Context, date string, onChange service.ChangeListener) (func(), error) {
			onChange([]model.Booking{})
			push <- onChange
			return func() {}, nil
		},
	}
	_, router := testHandler(svc)

	srv := httptest.NewServer(router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+WatchPath+"?date=2026-09-14", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type = %q", got)
	}

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		var lines []string
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				t.Fatalf("read stream: %v", err)
			}
			line = strings.TrimRight(line, "\n")
			if line == "" {
				return strings.Join(lines, "\n")
			}
			lines = append(lines, line)
		}
	}

	first := readEvent()
	if !strings.Contains(first, "event: bookings") || !strings.Contains(first, "data: []") {
		t.Fatalf("initial event = %q", first)
	}

	onChange := <-push
	onChange([]model.Booking{{ID: "bk-1", Date: "2026-09-14", StartTime: "2:00 PM"}})

	second := readEvent()
	if !strings.Contains(second, `"bk-1"`) {
		t.Fatalf("second event missing booking, got %q", second)
	}
}

func TestWatchRequiresDate(t *testing.T) {
	_, router := testHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodGet, WatchPath, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
