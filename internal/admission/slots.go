package admission

import "fmt"

// SlotStatus is the display state of one hour at one playground.
type SlotStatus string

const (
	StatusFree     SlotStatus = "free"
	StatusJoinable SlotStatus = "joinable"
	StatusFull     SlotStatus = "full"
)

// SlotView is the derived, never stored, view of one hour of a playground day
// as seen by a dog of the requested category.
type SlotView struct {
	Hour       int        `json:"hour"`
	Label      string     `json:"label"`
	Status     SlotStatus `json:"status"`
	Count      int        `json:"count"`
	Limit      int        `json:"limit"`
	Categories []Category `json:"categories"`
}

// HourLabel formats an hour as "HH:00".
func HourLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// StatusOf derives the display status of a slot with count occupants from the
// rule decision for the requested category.
func StatusOf(count int, d Decision) SlotStatus {
	switch {
	case count == 0:
		return StatusFree
	case d.Admitted && count < d.Limit:
		return StatusJoinable
	default:
		return StatusFull
	}
}

// BuildSlots produces exactly one SlotView per configured hour, in ascending
// order.  byHour maps an hour to its occupants in booking order; hours that are
// absent are treated as empty and hours outside the day are ignored.
func (c Config) BuildSlots(byHour map[int][]Category, requested Category) []SlotView {
	slots := make([]SlotView, 0, len(c.hours))
	for _, hour := range c.hours {
		existing := byHour[hour]
		occupants := make([]Category, len(existing))
		copy(occupants, existing)

		d := c.Evaluate(occupants, requested)
		slots = append(slots, SlotView{
			Hour:       hour,
			Label:      HourLabel(hour),
			Status:     StatusOf(len(occupants), d),
			Count:      len(occupants),
			Limit:      d.Limit,
			Categories: occupants,
		})
	}
	return slots
}
