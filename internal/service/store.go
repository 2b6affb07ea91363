package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/dog-playground-booking/internal/model"
)

// SlotKey identifies one bookable hour at one playground.  Day is always
// midnight in the service time zone; build keys with NewSlotKey.
type SlotKey struct {
	PlaygroundID uint64
	Day          time.Time
	Hour         int
}

// NewSlotKey normalises date to midnight in its own location.
func NewSlotKey(playgroundID uint64, date time.Time, hour int) SlotKey {
	return SlotKey{PlaygroundID: playgroundID, Day: Day(date), Hour: hour}
}

// Day truncates t to midnight in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Start is the first instant of the slot: the wall-clock hour on Day in
// Day's location, so DST transitions never shift a slot into its neighbour.
func (k SlotKey) Start() time.Time {
	y, m, d := k.Day.Date()
	return time.Date(y, m, d, k.Hour, 0, 0, 0, k.Day.Location())
}

// End is Start plus one hour.
func (k SlotKey) End() time.Time {
	return k.Start().Add(time.Hour)
}

// LockName names the lock guarding the occupant set of the slot.
func (k SlotKey) LockName() string {
	return fmt.Sprintf("dogpark:slot:%d:%s:%02d", k.PlaygroundID, k.Day.Format(time.DateOnly), k.Hour)
}

// DogLockName names the lock guarding one dog's bookings at the slot's date
// and hour across every playground.
func (k SlotKey) DogLockName(dogID uint64) string {
	return fmt.Sprintf("dogpark:dog:%d:%s:%02d", dogID, k.Day.Format(time.DateOnly), k.Hour)
}

// DogRef is what the booking path needs to know about a dog.
type DogRef struct {
	OwnerID      uint64
	CategoryCode string
}

// SlotStore is the persistence side of the booking service.  Reads outside
// WithSlotLock are unlocked and may be slightly stale.
type SlotStore interface {
	PlaygroundExists(ctx context.Context, playgroundID uint64) (bool, error)
	// DogCategory returns found=false when the dog does not exist.
	DogCategory(ctx context.Context, dogID uint64) (DogRef, bool, error)
	// ConfirmedBookings lists the confirmed occupants of every hour of day.
	ConfirmedBookings(ctx context.Context, playgroundID uint64, day time.Time) ([]model.SlotOccupant, error)
	// WithSlotLock runs fn while holding exclusive locks on the dog key and
	// then the slot key, inside one unit of work that commits only when fn
	// returns nil.  Locks are always taken dog first.
	WithSlotLock(ctx context.Context, key SlotKey, dogID uint64, fn func(tx SlotTx) error) error
}

// SlotTx is the unit of work handed to WithSlotLock callbacks.
type SlotTx interface {
	// DogBookedAt reports whether the dog holds a confirmed booking starting
	// at start at any playground.
	DogBookedAt(ctx context.Context, dogID uint64, start time.Time) (bool, error)
	// OccupantCodes returns the category codes of the confirmed occupants of
	// the slot, in booking order.
	OccupantCodes(ctx context.Context, key SlotKey) ([]string, error)
	// InsertConfirmed stores b as a confirmed booking and returns its id.
	InsertConfirmed(ctx context.Context, b model.Booking) (uint64, error)
}
