package model

import "time"

// Booking statuses.  Only confirmed bookings occupy a slot.
const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking is a row of the `bookings` table: one dog at one playground
// for one hour.  Ownership goes through the dog, so there is no user
// column.
//
// Fields:
//  ID           – primary key identifier.
//  PlaygroundID – playground being booked.
//  DogID        – dog the slot is booked for.
//  StartTime    – slot start, always on the hour.
//  EndTime      – StartTime plus one hour.
//  Status       – confirmed or cancelled.
//  CreatedAt    – creation timestamp.
type Booking struct {
	ID           uint64    `db:"id" json:"id"`
	PlaygroundID uint64    `db:"playground_id" json:"playground_id"`
	DogID        uint64    `db:"dog_id" json:"dog_id"`
	StartTime    time.Time `db:"start_time" json:"start_time"`
	EndTime      time.Time `db:"end_time" json:"end_time"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}

// BookingDetail is a booking as listed on the owner's profile page.
type BookingDetail struct {
	ID           uint64    `db:"id" json:"id"`
	StartTime    time.Time `db:"start_time" json:"start_time"`
	EndTime      time.Time `db:"end_time" json:"end_time"`
	Status       string    `db:"status" json:"status"`
	DogID        uint64    `db:"dog_id" json:"dog_id"`
	DogName      string    `db:"dog_name" json:"dog_name"`
	PlaygroundID uint64    `db:"playground_id" json:"playground_id"`
	ParkName     *string   `db:"park_name" json:"park_name"`
	Address      *string   `db:"address" json:"address"`
}

// SlotOccupant is one confirmed booking reduced to what the slot
// aggregator needs: the hour it starts and the dog's category code.
type SlotOccupant struct {
	Hour         int    `db:"slot_hour"`
	CategoryCode string `db:"category_code"`
}
