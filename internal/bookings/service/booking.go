package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"calbook/internal/bookings/catalog"
	"calbook/internal/bookings/conflict"
	bookingserrors "calbook/internal/bookings/errors"
	"calbook/internal/bookings/repository"
	"calbook/internal/bookings/slotgrid"
	"calbook/internal/bookings/validator"
	"calbook/pkg/config"
	apperrors "calbook/pkg/errors"
	"calbook/pkg/kafka"
	"calbook/pkg/logger"
	"calbook/pkg/model"
	"calbook/pkg/sanitizer"
	"calbook/pkg/timeparse"
)

const (
	TopicBookingEvents  = "booking-events"
	EventBookingCreated = "booking.created"
	EventBookingDeleted = "booking.deleted"

	eventSource = "bookings"

	// ConflictMessage is the user-facing text for a slot collision, whether
	// it was caught by the pre-check or by the transactional re-check.
	ConflictMessage = "This time slot overlaps with an existing booking."

	// MissingSelectionMessage covers the empty-selection case before field
	// validation runs.
	MissingSelectionMessage = "Please select a client and time slot"
)

// BookingChangeEvent is the cross-instance change notification. It carries
// only coordinates; consumers reload the date's snapshot themselves.
type BookingChangeEvent struct {
	BookingID string `json:"booking_id"`
	Date      string `json:"date"`
	Action    string `json:"action"`
}

// EventPublisher is the slice of the Kafka producer the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type BookingService interface {
	Create(ctx context.Context, data *model.BookingData) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]model.Booking, int64, error)
	ListByDate(ctx context.Context, date string) ([]model.Booking, error)
	Delete(ctx context.Context, id string) error
	CheckConflict(ctx context.Context, date, startTime string, callType model.CallType) (model.ConflictCheckResult, error)
	SlotsForDate(ctx context.Context, date string) ([]model.TimeSlotInfo, error)
	SubscribeToDate(ctx context.Context, date string, onChange ChangeListener) (func(), error)
	HandleChangeEvent(ctx context.Context, msg kafka.Message) error
}

type bookingService struct {
	cfg       *config.Config
	log       *logger.Logger
	repo      repository.BookingRepository
	locks     repository.BookingLockRepository
	validator *validator.BookingValidator
	catalog   *catalog.Catalog
	publisher EventPublisher
	feed      *bookingFeed
}

// NewBookingService wires the booking lifecycle. publisher may be nil when
// Kafka is disabled; change notifications then stay instance-local.
func NewBookingService(
	cfg *config.Config,
	log *logger.Logger,
	repo repository.BookingRepository,
	locks repository.BookingLockRepository,
	v *validator.BookingValidator,
	cat *catalog.Catalog,
	publisher EventPublisher,
) BookingService {
	return &bookingService{
		cfg:       cfg,
		log:       log,
		repo:      repo,
		locks:     locks,
		validator: v,
		catalog:   cat,
		publisher: publisher,
		feed:      newBookingFeed(),
	}
}

// Create books a slot. The write path is: sanitize, validate, derive the
// duration from the call type, take the advisory locks for the covered grid
// cells, then re-check conflicts and insert inside one transaction. The
// caller's duration, if any, is never trusted.
func (s *bookingService) Create(ctx context.Context, data *model.BookingData) (*model.Booking, error) {
	data.ClientName = sanitizer.NormalizeName(data.ClientName)
	data.ClientPhone = sanitizer.NormalizePhone(data.ClientPhone)

	if data.ClientID == "" || data.StartTime == "" {
		return nil, apperrors.Validation(MissingSelectionMessage, nil)
	}

	if err := s.validator.Validate(data); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("booking failed validation", map[string]any{"errors": verrs})
		}
		return nil, apperrors.Internal("booking validation failed", err)
	}

	startMinutes, err := timeparse.ToMinutes(data.StartTime)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unreadable start time %q", data.StartTime))
	}

	booking := &model.Booking{
		ClientID:     data.ClientID,
		ClientName:   data.ClientName,
		ClientPhone:  data.ClientPhone,
		Date:         data.Date,
		StartTime:    data.StartTime,
		CallType:     data.CallType,
		CallDuration: data.CallType.Duration(),
		IsRecurring:  data.IsRecurring,
	}

	// Lock every grid cell the interval touches, not just the start minute.
	// Overlapping intervals always share at least one cell, so two writers
	// whose bookings would collide always contend on a common lock even when
	// their start times differ. Ascending order keeps lock acquisition
	// deadlock-free.
	lockIDs := slotLockIDs(data.Date, startMinutes, booking.CallDuration, s.cfg.SlotStepMin)
	acquired, err := s.acquireSlotLocks(ctx, lockIDs)
	if err != nil {
		return nil, err
	}
	defer s.releaseSlotLocks(ctx, acquired)

	err = s.repo.ExecuteTransaction(ctx, func(sc mongo.SessionContext) error {
		existing, err := s.repo.FindByDate(sc, data.Date)
		if err != nil {
			return err
		}

		result, err := conflict.Check(data.Date, data.StartTime, booking.CallDuration, existing)
		if err != nil {
			return err
		}
		if result.HasConflict {
			return apperrors.Conflict(ConflictMessage).WithDetails(map[string]any{
				"conflicting_booking_id": result.ConflictingBooking.ID,
			})
		}

		return s.repo.Create(sc, booking)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("failed to create booking", err)
	}

	s.log.Info("booking created",
		"booking_id", booking.ID,
		"date", booking.Date,
		"start_time", booking.StartTime,
		"call_type", booking.CallType,
	)

	s.notifyDate(ctx, booking.Date)
	s.publishEvent(ctx, EventBookingCreated, booking)

	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapStoreError(err, id)
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit int, offset int64) ([]model.Booking, int64, error) {
	var (
		bookings []model.Booking
		count    int64
		errFind  error
		errCount error
	)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, apperrors.Internal("failed to count bookings", errCount)
	}
	if errFind != nil {
		return nil, 0, apperrors.Internal("failed to list bookings", errFind)
	}
	return bookings, count, nil
}

func (s *bookingService) ListByDate(ctx context.Context, date string) ([]model.Booking, error) {
	if err := validDate(date); err != nil {
		return nil, err
	}

	bookings, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		return nil, apperrors.Internal("failed to list bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapStoreError(err, id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapStoreError(err, id)
	}

	s.log.Info("booking deleted", "booking_id", id, "date", booking.Date)

	s.notifyDate(ctx, booking.Date)
	s.publishEvent(ctx, EventBookingDeleted, booking)

	return nil
}

// CheckConflict answers "would this slot collide" without writing anything.
// The result is advisory; Create re-checks under the lock.
func (s *bookingService) CheckConflict(ctx context.Context, date, startTime string, callType model.CallType) (model.ConflictCheckResult, error) {
	if err := validDate(date); err != nil {
		return model.ConflictCheckResult{}, err
	}
	if !callType.Valid() {
		return model.ConflictCheckResult{}, apperrors.InvalidInput(fmt.Sprintf("unknown call type %q", callType))
	}

	existing, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		return model.ConflictCheckResult{}, apperrors.Internal("failed to load bookings for conflict check", err)
	}

	result, err := conflict.Check(date, startTime, callType.Duration(), existing)
	if err != nil {
		return model.ConflictCheckResult{}, apperrors.InvalidInput(fmt.Sprintf("unreadable start time %q", startTime))
	}
	return result, nil
}

func (s *bookingService) SlotsForDate(ctx context.Context, date string) ([]model.TimeSlotInfo, error) {
	bookings, err := s.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}

	grid, err := slotgrid.Reconcile(s.catalog, bookings)
	if err != nil {
		return nil, apperrors.Internal("failed to reconcile slot grid", err)
	}
	return grid, nil
}

// SubscribeToDate attaches onChange to the date's feed. The listener fires
// once right away with the current snapshot, then after every mutation. The
// returned detach function may be called more than once.
func (s *bookingService) SubscribeToDate(ctx context.Context, date string, onChange ChangeListener) (func(), error) {
	if err := validDate(date); err != nil {
		return nil, err
	}

	// Attach before the initial load so a mutation landing in between still
	// reaches the listener. Duplicate snapshots are fine.
	unsubscribe := s.feed.subscribe(date, onChange)

	bookings, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		unsubscribe()
		return nil, apperrors.Internal("failed to load bookings for subscription", err)
	}
	onChange(bookings)

	return unsubscribe, nil
}

// HandleChangeEvent reacts to a booking change published by another instance
// by refreshing this instance's subscribers for the affected date.
func (s *bookingService) HandleChangeEvent(ctx context.Context, msg kafka.Message) error {
	var event BookingChangeEvent
	if err := msg.DecodeValue(&event); err != nil {
		return fmt.Errorf("decode booking change event: %w", err)
	}
	if event.Date == "" {
		return fmt.Errorf("booking change event %s has no date", msg.GetEventID())
	}

	s.notifyDate(ctx, event.Date)
	return nil
}

// notifyDate reloads the date's snapshot and fans it out. Nothing to do when
// nobody is watching.
func (s *bookingService) notifyDate(ctx context.Context, date string) {
	if !s.feed.hasSubscribers(date) {
		return
	}

	bookings, err := s.repo.FindByDate(context.WithoutCancel(ctx), date)
	if err != nil {
		s.log.Warn("failed to load snapshot for subscribers", "date", date, "error", err)
		return
	}
	s.feed.publish(date, bookings)
}

func (s *bookingService) publishEvent(ctx context.Context, action string, booking *model.Booking) {
	if s.publisher == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(booking.Date).
		WithEventType(action).
		WithSource(eventSource).
		WithValue(BookingChangeEvent{
			BookingID: booking.ID,
			Date:      booking.Date,
			Action:    action,
		}).
		Build()

	if err := s.publisher.Publish(context.WithoutCancel(ctx), msg); err != nil {
		// Best effort: local subscribers were already notified directly.
		s.log.Warn("failed to publish booking event", "action", action, "booking_id", booking.ID, "error", err)
	}
}

// slotLockIDs returns the advisory lock keys for every step-aligned grid cell
// intersecting [start, start+duration), in ascending order. Any two
// overlapping intervals share a minute, that minute lives in exactly one
// cell, and both intervals produce that cell's key.
func slotLockIDs(date string, start, duration, step int) []string {
	if step <= 0 {
		step = config.DefaultSlotStepMin
	}

	end := start + duration
	var ids []string
	for g := (start / step) * step; g < end; g += step {
		ids = append(ids, fmt.Sprintf("booking_lock_%s_%d", date, g))
	}
	return ids
}

// acquireSlotLocks takes the given locks in order, backing out the ones
// already held if any acquisition fails.
func (s *bookingService) acquireSlotLocks(ctx context.Context, lockIDs []string) ([]string, error) {
	acquired := make([]string, 0, len(lockIDs))
	for _, id := range lockIDs {
		lock := &model.BookingLock{
			ID:        id,
			ExpiresAt: time.Now().Add(s.cfg.BookingLockTTL),
		}
		if _, err := s.locks.Create(ctx, lock); err != nil {
			s.releaseSlotLocks(ctx, acquired)
			if errors.Is(err, bookingserrors.ErrSlotLocked) {
				return nil, apperrors.Conflict(ConflictMessage)
			}
			return nil, apperrors.Internal("failed to acquire slot locks", err)
		}
		acquired = append(acquired, id)
	}
	return acquired, nil
}

// releaseSlotLocks deletes the locks even when the request context is gone;
// the TTL index is the fallback if a delete fails too.
func (s *bookingService) releaseSlotLocks(ctx context.Context, lockIDs []string) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range lockIDs {
		if err := s.locks.Delete(ctx, id); err != nil {
			s.log.Warn("failed to release booking lock", "lock_id", id, "error", err)
		}
	}
}

func (s *bookingService) mapStoreError(err error, id string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput(fmt.Sprintf("invalid booking id %q", id))
	default:
		return apperrors.Internal("booking store error", err)
	}
}

func validDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", date))
	}
	return nil
}
