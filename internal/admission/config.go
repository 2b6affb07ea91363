package admission

const (
	// SlotsPerDay is the number of one-hour slots in a booking day.
	SlotsPerDay = 24

	defaultHighRiskLimit = 2
	defaultSharedLimit   = 8
)

// Config is the immutable domain configuration shared by the rules and the
// slot aggregator.  Build it once with NewConfig at start-up and pass it to
// whoever needs it; the zero value is not usable.
type Config struct {
	hours         []int
	labels        map[Category]string
	highRiskLimit int
	sharedLimit   int
}

// NewConfig returns the standard configuration: hours 0..23, capacity 2 for
// HIGH_RISK slots and 8 for every other mode, and the display labels used by
// the product.
func NewConfig() Config {
	hours := make([]int, SlotsPerDay)
	for h := range hours {
		hours[h] = h
	}
	return Config{
		hours: hours,
		labels: map[Category]string{
			Small:    "Декоративные",
			Standard: "Стандартные",
			Active:   "Активные",
			HighRisk: "Служебные / Бойцовские",
		},
		highRiskLimit: defaultHighRiskLimit,
		sharedLimit:   defaultSharedLimit,
	}
}

// Hours returns a copy of the bookable hours in ascending order.
func (c Config) Hours() []int {
	out := make([]int, len(c.hours))
	copy(out, c.hours)
	return out
}

// ValidHour reports whether h is a bookable hour of the day.
func (c Config) ValidHour(h int) bool {
	return h >= 0 && h < len(c.hours)
}

// Label returns the human readable name of a category.
func (c Config) Label(cat Category) string {
	if l, ok := c.labels[cat]; ok {
		return l
	}
	return cat.String()
}

// CategoryLabel pairs a category code with its display label.
type CategoryLabel struct {
	Code  Category `json:"code"`
	Label string   `json:"label"`
}

// Labels returns the label table in display order.
func (c Config) Labels() []CategoryLabel {
	out := make([]CategoryLabel, 0, len(c.labels))
	for _, cat := range Categories() {
		out = append(out, CategoryLabel{Code: cat, Label: c.Label(cat)})
	}
	return out
}

// LimitFor returns the capacity of a slot whose mode is set by cat.
func (c Config) LimitFor(cat Category) int {
	if cat == HighRisk {
		return c.highRiskLimit
	}
	return c.sharedLimit
}
