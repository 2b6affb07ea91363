// Package queue defines the booking events exchanged over RabbitMQ and the
// background consumer that records them.
package queue

// BookingQueue is the durable queue booking events are published to.
const BookingQueue = "booking.confirmed"

// BookingConfirmedEvent is published when a booking is committed.  It
// carries enough for downstream consumers to log or notify without
// querying the primary database.
type BookingConfirmedEvent struct {
	EventID      string `json:"event_id"`
	BookingID    uint64 `json:"booking_id"`
	PlaygroundID uint64 `json:"playground_id"`
	DogID        uint64 `json:"dog_id"`
	DogCategory  string `json:"dog_category"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	ConfirmedAt  string `json:"confirmed_at"`
}
