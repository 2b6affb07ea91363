package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/dog-playground-booking/internal/model"
	"github.com/iliyamo/dog-playground-booking/internal/service"
	"github.com/iliyamo/dog-playground-booking/internal/utils"
)

// BookingRepo stores bookings and implements service.SlotStore.  The
// booking write path is serialised with MySQL advisory locks
// (GET_LOCK) held on a single pinned connection for the whole unit of
// work, so it behaves the same on any isolation level.
type BookingRepo struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

// NewBookingRepo returns a BookingRepo.  lockTimeout bounds how long a
// booking waits for a busy slot before failing with
// service.ErrLockTimeout.
func NewBookingRepo(db *sqlx.DB, lockTimeout time.Duration) *BookingRepo {
	return &BookingRepo{db: db, lockTimeout: lockTimeout}
}

var _ service.SlotStore = (*BookingRepo)(nil)

// PlaygroundExists reports whether a playground row with id exists.
func (r *BookingRepo) PlaygroundExists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM playgrounds WHERE id = ? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// DogCategory loads the owner and breed category code of a dog.
func (r *BookingRepo) DogCategory(ctx context.Context, dogID uint64) (service.DogRef, bool, error) {
	const q = `SELECT d.user_id, bc.code
               FROM dogs d
               JOIN breed_categories bc ON bc.id = d.category_id
               WHERE d.id = ?`
	var ref service.DogRef
	err := r.db.QueryRowContext(ctx, q, dogID).Scan(&ref.OwnerID, &ref.CategoryCode)
	if errors.Is(err, sql.ErrNoRows) {
		return service.DogRef{}, false, nil
	}
	if err != nil {
		return service.DogRef{}, false, err
	}
	return ref, true, nil
}

// ConfirmedBookings returns the hour and category code of every confirmed
// booking at the playground on day.  The range is half-open so an index
// on (playground_id, start_time) serves it.
func (r *BookingRepo) ConfirmedBookings(ctx context.Context, playgroundID uint64, day time.Time) ([]model.SlotOccupant, error) {
	const q = `SELECT HOUR(b.start_time) AS slot_hour, bc.code AS category_code
               FROM bookings b
               JOIN dogs d ON d.id = b.dog_id
               JOIN breed_categories bc ON bc.id = d.category_id
               WHERE b.playground_id = ?
                 AND b.start_time >= ? AND b.start_time < ?
                 AND b.status = 'confirmed'
               ORDER BY b.start_time, b.id`
	var out []model.SlotOccupant
	if err := r.db.SelectContext(ctx, &out, q, playgroundID, day, day.AddDate(0, 0, 1)); err != nil {
		return nil, err
	}
	return out, nil
}

// WithSlotLock pins one connection, takes the dog lock and then the slot
// lock with GET_LOCK, and runs fn inside a transaction on that connection.
// The transaction is committed when fn returns nil and rolled back
// otherwise; both locks are released only after that, so no competing
// booking can read the occupant set before the insert is visible.
func (r *BookingRepo) WithSlotLock(ctx context.Context, key service.SlotKey, dogID uint64, fn func(tx service.SlotTx) error) error {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("pin connection: %w", err)
	}
	defer conn.Close()

	var held []string
	defer func() {
		rctx := context.WithoutCancel(ctx)
		for i := len(held) - 1; i >= 0; i-- {
			_, _ = conn.ExecContext(rctx, "DO RELEASE_LOCK(?)", held[i])
		}
	}()
	for _, name := range []string{key.DogLockName(dogID), key.LockName()} {
		if err := r.acquire(ctx, conn, name); err != nil {
			return err
		}
		held = append(held, name)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&slotTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	committed = true
	return nil
}

func (r *BookingRepo) acquire(ctx context.Context, conn *sql.Conn, name string) error {
	seconds := int(math.Ceil(r.lockTimeout.Seconds()))
	if seconds < 0 {
		seconds = 0
	}
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", name, seconds).Scan(&got); err != nil {
		return fmt.Errorf("get lock %s: %w", name, err)
	}
	if !got.Valid || got.Int64 != 1 {
		return fmt.Errorf("%w: %s", service.ErrLockTimeout, name)
	}
	return nil
}

type slotTx struct{ tx *sql.Tx }

func (t *slotTx) DogBookedAt(ctx context.Context, dogID uint64, start time.Time) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx,
		"SELECT 1 FROM bookings WHERE dog_id = ? AND start_time = ? AND status = 'confirmed' LIMIT 1",
		dogID, start).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (t *slotTx) OccupantCodes(ctx context.Context, key service.SlotKey) ([]string, error) {
	const q = `SELECT bc.code
               FROM bookings b
               JOIN dogs d ON d.id = b.dog_id
               JOIN breed_categories bc ON bc.id = d.category_id
               WHERE b.playground_id = ? AND b.start_time = ? AND b.status = 'confirmed'
               ORDER BY b.id`
	rows, err := t.tx.QueryContext(ctx, q, key.PlaygroundID, key.Start())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (t *slotTx) InsertConfirmed(ctx context.Context, b model.Booking) (uint64, error) {
	res, err := t.tx.ExecContext(ctx,
		"INSERT INTO bookings (playground_id, dog_id, start_time, end_time, status) VALUES (?, ?, ?, ?, ?)",
		b.PlaygroundID, b.DogID, b.StartTime, b.EndTime, model.BookingConfirmed)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByUser returns every booking of every dog the user owns, newest
// first, with the park name cleaned for display.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	const q = `SELECT b.id, b.start_time, b.end_time, b.status,
                      d.id AS dog_id, d.name AS dog_name,
                      p.id AS playground_id, p.park_name, p.address
               FROM bookings b
               JOIN dogs d ON d.id = b.dog_id
               JOIN playgrounds p ON p.id = b.playground_id
               WHERE d.user_id = ?
               ORDER BY b.start_time DESC, b.id DESC`
	out := []model.BookingDetail{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].ParkName = utils.CleanParkNamePtr(out[i].ParkName)
	}
	return out, nil
}

// Cancel flips a confirmed booking owned (through its dog) by userID to
// cancelled.  A cancelled booking stops counting toward occupancy.
// Returns ErrBookingNotFound, ErrForbidden or ErrConflict (already
// cancelled) when nothing was changed.
func (r *BookingRepo) Cancel(ctx context.Context, bookingID, userID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings b JOIN dogs d ON d.id = b.dog_id
         SET b.status = 'cancelled'
         WHERE b.id = ? AND d.user_id = ? AND b.status = 'confirmed'`,
		bookingID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var (
		owner  uint64
		status string
	)
	err = r.db.QueryRowContext(ctx,
		"SELECT d.user_id, b.status FROM bookings b JOIN dogs d ON d.id = b.dog_id WHERE b.id = ?",
		bookingID).Scan(&owner, &status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrBookingNotFound
	case err != nil:
		return err
	case owner != userID:
		return ErrForbidden
	default:
		return ErrConflict
	}
}
