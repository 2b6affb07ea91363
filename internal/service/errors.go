package service

import "errors"

// Errors returned by BookingService.  Callers match them with errors.Is;
// the wrapped message carries the detail (which playground, which hour).
var (
	// ErrNotFound means the playground or dog does not exist, or the hour is
	// outside the bookable day.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the dog belongs to a different user.
	ErrForbidden = errors.New("dog belongs to another user")
	// ErrConflict means the dog already holds a confirmed booking at the
	// same date and hour, at any playground.
	ErrConflict = errors.New("dog already booked this slot")
	// ErrAdmission means the compatibility rules reject the dog's category
	// or the slot is at capacity.  It is an expected outcome.
	ErrAdmission = errors.New("slot is not available for this category")
	// ErrIntegrity means the store holds a category code outside the known
	// set.  It points at corrupt data and must never be treated as a refusal.
	ErrIntegrity = errors.New("data integrity error")
	// ErrLockTimeout is returned by a SlotStore that could not acquire the
	// slot or dog lock in time.
	ErrLockTimeout = errors.New("timed out waiting for slot lock")
)

// Kind classifies an error returned by the service for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindAdmission
	KindIntegrity
	KindUnavailable
)

// KindOf reports which of the service error kinds err belongs to.  Errors
// that match none of the sentinels are KindInternal.  Integrity wins over
// the others so a corrupt row is never reported as an ordinary refusal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrIntegrity):
		return KindIntegrity
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrAdmission):
		return KindAdmission
	case errors.Is(err, ErrLockTimeout):
		return KindUnavailable
	}
	return KindInternal
}

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindAdmission:
		return "admission"
	case KindIntegrity:
		return "integrity"
	case KindUnavailable:
		return "unavailable"
	}
	return "internal"
}
