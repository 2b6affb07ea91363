package model

// Playground mirrors one row of the `playgrounds` table, which is
// imported from the city open-data catalogue.  Almost every column
// is optional in the source data so they are modelled as pointers
// and serialise as null.
type Playground struct {
	ID           uint64   `db:"id" json:"id"`
	AdmArea      *string  `db:"adm_area" json:"adm_area"`
	District     *string  `db:"district" json:"district"`
	Address      *string  `db:"address" json:"address"`
	ParkName     *string  `db:"park_name" json:"park_name"`
	Area         *string  `db:"area" json:"area"`
	Elements     *string  `db:"elements" json:"elements"`
	Lighting     *string  `db:"lighting" json:"lighting"`
	Fencing      *string  `db:"fencing" json:"fencing"`
	WorkingHours *string  `db:"working_hours" json:"working_hours"`
	PhotoID      *string  `db:"photo_id" json:"photo_id"`
	Lat          *float64 `db:"lat" json:"lat"`
	Lon          *float64 `db:"lon" json:"lon"`
}

// PlaygroundMarker is the minimal projection used to draw map pins.
type PlaygroundMarker struct {
	ID  uint64  `db:"id" json:"id"`
	Lat float64 `db:"lat" json:"lat"`
	Lon float64 `db:"lon" json:"lon"`
}

// PlaygroundSummary is a search result row.
type PlaygroundSummary struct {
	ID       uint64   `db:"id" json:"id"`
	ParkName *string  `db:"park_name" json:"park_name"`
	Address  *string  `db:"address" json:"address"`
	District *string  `db:"district" json:"district"`
	Lighting *string  `db:"lighting" json:"lighting"`
	Fencing  *string  `db:"fencing" json:"fencing"`
	Elements *string  `db:"elements" json:"elements"`
	Lat      *float64 `db:"lat" json:"lat"`
	Lon      *float64 `db:"lon" json:"lon"`
}

// PlaygroundFilter narrows marker and search queries.  District is
// compared after trimming; the flags only ever narrow, never widen.
type PlaygroundFilter struct {
	District string
	Lighting bool
	Fencing  bool
	Elements bool
}

// PlaygroundStats is the diagnostics snapshot of the catalogue.
type PlaygroundStats struct {
	Database        string   `json:"db"`
	Tables          []string `json:"tables"`
	Playgrounds     int      `json:"playgrounds_total"`
	Districts       int      `json:"districts_total"`
	SampleDistricts []string `json:"sample_districts"`
}
