// Package admission decides which dogs may share a playground slot.  It holds
// the closed set of dog categories, the compatibility rules between them and
// the per-hour slot view derived from those rules.  Everything in this package
// is pure: no I/O, no shared mutable state.
package admission

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the size/temperament class of a dog.  The set is closed;
// breed_categories.code values map onto it through ParseCategory.
type Category uint8

const (
	Small Category = iota + 1
	Standard
	Active
	HighRisk
)

// ErrUnknownCategory is returned for a category code outside the closed set.
// Coming from the store it means the data is corrupt, not that a dog was
// refused.
var ErrUnknownCategory = errors.New("unknown dog category")

var categoryCodes = [...]string{
	Small:    "SMALL",
	Standard: "STANDARD",
	Active:   "ACTIVE",
	HighRisk: "HIGH_RISK",
}

// Categories lists every category in display order.
func Categories() []Category {
	return []Category{Small, Standard, Active, HighRisk}
}

// ParseCategory converts a stored code such as "HIGH_RISK" into a Category.
// Surrounding whitespace and letter case are ignored.
func ParseCategory(code string) (Category, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "SMALL":
		return Small, nil
	case "STANDARD":
		return Standard, nil
	case "ACTIVE":
		return Active, nil
	case "HIGH_RISK":
		return HighRisk, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, code)
}

// ParseCategories converts a list of codes, failing on the first unknown one.
func ParseCategories(codes []string) ([]Category, error) {
	out := make([]Category, 0, len(codes))
	for _, code := range codes {
		c, err := ParseCategory(code)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Valid reports whether c is one of the four known categories.
func (c Category) Valid() bool {
	return c >= Small && c <= HighRisk
}

// String returns the store code of the category.
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
	return categoryCodes[c]
}

// MarshalText encodes the category as its code so JSON payloads carry
// "SMALL" rather than a number.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(c))
	}
	return []byte(categoryCodes[c]), nil
}

// UnmarshalText is the inverse of MarshalText.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
