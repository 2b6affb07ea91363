// Package repository implements MySQL persistence for playgrounds, dogs,
// users, refresh tokens and bookings.  Sentinel values defined here let
// handlers distinguish failure scenarios: ErrForbidden when the caller
// acts on someone else's dog or booking, ErrConflict when the row is in
// a state that forbids the change (cancelling a cancelled booking), and
// the not-found errors for missing rows.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state. Handlers should translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")

var (
	ErrPlaygroundNotFound = errors.New("playground not found")
	ErrDogNotFound        = errors.New("dog not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrCategoryNotFound   = errors.New("dog category not found")
	ErrUserNotFound       = errors.New("user not found")
)

const mysqlDuplicateEntry = 1062

// duplicateKey reports whether err is a MySQL duplicate-key error and, if
// so, the offending key name as printed by the server.
func duplicateKey(err error) (string, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return "", false
	}
	// Duplicate entry 'x' for key 'users.uq_users_email'
	msg := me.Message
	if i := strings.LastIndex(msg, "for key '"); i >= 0 {
		return strings.TrimSuffix(msg[i+len("for key '"):], "'"), true
	}
	return "", true
}
