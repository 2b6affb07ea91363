// Package service implements the booking use cases on top of the pure
// admission rules: the per-hour slot view of a playground and the locked
// check-then-insert booking transaction.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/dog-playground-booking/internal/admission"
	"github.com/iliyamo/dog-playground-booking/internal/model"
	"github.com/iliyamo/dog-playground-booking/internal/queue"
)

// EventPublisher delivers booking events to the broker.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error
}

// BookingRequest asks for one dog at one playground for one hour.  UserID,
// when non-zero, must own the dog.
type BookingRequest struct {
	PlaygroundID uint64
	DogID        uint64
	UserID       uint64
	Date         time.Time
	Hour         int
}

// BookingService answers slot queries and performs bookings.  It is safe
// for concurrent use; all serialisation happens in the SlotStore.
type BookingService struct {
	cfg       admission.Config
	store     SlotStore
	publisher EventPublisher
	log       *slog.Logger
	now       func() time.Time
}

// Option customises a BookingService.
type Option func(*BookingService)

// WithPublisher sends a booking.confirmed event after every committed
// booking.  Without it no events are sent.
func WithPublisher(p EventPublisher) Option {
	return func(s *BookingService) { s.publisher = p }
}

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *BookingService) { s.log = l }
}

// WithClock overrides time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *BookingService) { s.now = now }
}

// NewBookingService wires a service over store using the rules in cfg.
func NewBookingService(cfg admission.Config, store SlotStore, opts ...Option) *BookingService {
	s := &BookingService{
		cfg:   cfg,
		store: store,
		log:   slog.Default(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the admission configuration the service evaluates with.
func (s *BookingService) Config() admission.Config { return s.cfg }

// SlotStatuses returns the 24 slot views of a playground day as seen by a
// dog of the requested category.  The read is not locked.
func (s *BookingService) SlotStatuses(ctx context.Context, playgroundID uint64, date time.Time, requested admission.Category) ([]admission.SlotView, error) {
	ok, err := s.store.PlaygroundExists(ctx, playgroundID)
	if err != nil {
		return nil, fmt.Errorf("lookup playground %d: %w", playgroundID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: playground %d", ErrNotFound, playgroundID)
	}

	rows, err := s.store.ConfirmedBookings(ctx, playgroundID, Day(date))
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	byHour := make(map[int][]admission.Category, admission.SlotsPerDay)
	for _, r := range rows {
		cat, err := admission.ParseCategory(r.CategoryCode)
		if err != nil {
			return nil, fmt.Errorf("%w: playground %d hour %d: %w", ErrIntegrity, playgroundID, r.Hour, err)
		}
		byHour[r.Hour] = append(byHour[r.Hour], cat)
	}
	return s.cfg.BuildSlots(byHour, requested), nil
}

// Book performs the booking transaction.  The playground and dog are
// resolved first; the duplicate-dog guard, the admission check and the
// insert then run as one unit of work under the dog and slot locks.  On
// success the committed booking is returned and a booking.confirmed event
// is published; a failed publish is logged and does not fail the booking.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (model.Booking, error) {
	log := s.log.With("playground_id", req.PlaygroundID, "dog_id", req.DogID, "hour", req.Hour)

	if !s.cfg.ValidHour(req.Hour) {
		return model.Booking{}, fmt.Errorf("%w: hour %d", ErrNotFound, req.Hour)
	}
	ok, err := s.store.PlaygroundExists(ctx, req.PlaygroundID)
	if err != nil {
		return model.Booking{}, fmt.Errorf("lookup playground %d: %w", req.PlaygroundID, err)
	}
	if !ok {
		return model.Booking{}, fmt.Errorf("%w: playground %d", ErrNotFound, req.PlaygroundID)
	}
	dog, found, err := s.store.DogCategory(ctx, req.DogID)
	if err != nil {
		return model.Booking{}, fmt.Errorf("lookup dog %d: %w", req.DogID, err)
	}
	if !found {
		return model.Booking{}, fmt.Errorf("%w: dog %d", ErrNotFound, req.DogID)
	}
	if req.UserID != 0 && dog.OwnerID != req.UserID {
		return model.Booking{}, fmt.Errorf("%w: dog %d", ErrForbidden, req.DogID)
	}
	cat, err := admission.ParseCategory(dog.CategoryCode)
	if err != nil {
		return model.Booking{}, fmt.Errorf("%w: dog %d: %w", ErrIntegrity, req.DogID, err)
	}

	key := NewSlotKey(req.PlaygroundID, req.Date, req.Hour)
	booking := model.Booking{
		PlaygroundID: req.PlaygroundID,
		DogID:        req.DogID,
		StartTime:    key.Start(),
		EndTime:      key.End(),
		Status:       model.BookingConfirmed,
	}

	err = s.store.WithSlotLock(ctx, key, req.DogID, func(tx SlotTx) error {
		booked, err := tx.DogBookedAt(ctx, req.DogID, booking.StartTime)
		if err != nil {
			return fmt.Errorf("check dog bookings: %w", err)
		}
		if booked {
			return fmt.Errorf("%w: dog %d at %s", ErrConflict, req.DogID, booking.StartTime.Format(time.DateTime))
		}

		codes, err := tx.OccupantCodes(ctx, key)
		if err != nil {
			return fmt.Errorf("load occupants: %w", err)
		}
		existing, err := admission.ParseCategories(codes)
		if err != nil {
			return fmt.Errorf("%w: playground %d hour %d: %w", ErrIntegrity, req.PlaygroundID, req.Hour, err)
		}
		d := s.cfg.Evaluate(existing, cat)
		if !d.Admitted || len(existing) >= d.Limit {
			return fmt.Errorf("%w: %s into %d/%d", ErrAdmission, cat, len(existing), d.Limit)
		}

		id, err := tx.InsertConfirmed(ctx, booking)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		booking.ID = id
		return nil
	})
	if err != nil {
		switch KindOf(err) {
		case KindConflict, KindAdmission:
			log.Info("booking refused", "reason", KindOf(err).String(), "err", err)
		default:
			log.Error("booking failed", "err", err)
		}
		return model.Booking{}, err
	}

	log.Info("booking confirmed", "booking_id", booking.ID, "category", cat.String())
	s.publish(ctx, booking, cat)
	return booking, nil
}

const publishTimeout = 3 * time.Second

func (s *BookingService) publish(ctx context.Context, b model.Booking, cat admission.Category) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	ev := queue.BookingConfirmedEvent{
		EventID:      uuid.NewString(),
		BookingID:    b.ID,
		PlaygroundID: b.PlaygroundID,
		DogID:        b.DogID,
		DogCategory:  cat.String(),
		StartTime:    b.StartTime.Format(time.RFC3339),
		EndTime:      b.EndTime.Format(time.RFC3339),
		ConfirmedAt:  s.now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishBookingConfirmed(ctx, ev); err != nil {
		s.log.Warn("publish booking.confirmed failed", "booking_id", b.ID, "err", err)
	}
}
