package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql" // dialect registration
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/dog-playground-booking/internal/model"
	"github.com/iliyamo/dog-playground-booking/internal/utils"
)

const (
	dialectMySQL     = "mysql"
	tablePlaygrounds = "playgrounds"

	// flagYes is how the open-data catalogue spells a positive flag.
	flagYes = "да"
)

// PlaygroundRepo reads the playground catalogue.  The catalogue is
// imported offline, so the repository is read-only.
type PlaygroundRepo struct {
	db *sqlx.DB
}

// NewPlaygroundRepo returns a PlaygroundRepo bound to db.
func NewPlaygroundRepo(db *sqlx.DB) *PlaygroundRepo { return &PlaygroundRepo{db: db} }

func applyPlaygroundFilter(ds *goqu.SelectDataset, f model.PlaygroundFilter) *goqu.SelectDataset {
	if d := strings.TrimSpace(f.District); d != "" {
		ds = ds.Where(goqu.L("TRIM(`district`) = ?", d))
	}
	if f.Lighting {
		ds = ds.Where(goqu.C("lighting").Eq(flagYes))
	}
	if f.Fencing {
		ds = ds.Where(goqu.C("fencing").Eq(flagYes))
	}
	if f.Elements {
		ds = ds.Where(
			goqu.C("elements").IsNotNull(),
			goqu.C("elements").Neq(""),
			goqu.C("elements").Neq("[]"),
		)
	}
	return ds
}

func latLonColumns() []any {
	return []any{
		goqu.L("CAST(`lat` AS DOUBLE)").As("lat"),
		goqu.L("CAST(`lon` AS DOUBLE)").As("lon"),
	}
}

// ListMarkers returns the id and coordinates of every playground that has
// coordinates and matches f.
func (r *PlaygroundRepo) ListMarkers(ctx context.Context, f model.PlaygroundFilter) ([]model.PlaygroundMarker, error) {
	ds := goqu.Dialect(dialectMySQL).
		From(tablePlaygrounds).
		Select(append([]any{goqu.C("id")}, latLonColumns()...)...).
		Where(goqu.C("lat").IsNotNull(), goqu.C("lon").IsNotNull()).
		Prepared(true)
	query, args, err := applyPlaygroundFilter(ds, f).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build marker query: %w", err)
	}
	out := []model.PlaygroundMarker{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Search lists the playgrounds of one district ordered by id.  The
// district is mandatory; the other filter flags narrow further.
func (r *PlaygroundRepo) Search(ctx context.Context, f model.PlaygroundFilter) ([]model.PlaygroundSummary, error) {
	if strings.TrimSpace(f.District) == "" {
		return nil, errors.New("district is required")
	}
	cols := []any{
		goqu.C("id"), goqu.C("park_name"), goqu.C("address"), goqu.C("district"),
		goqu.C("lighting"), goqu.C("fencing"), goqu.C("elements"),
	}
	ds := goqu.Dialect(dialectMySQL).
		From(tablePlaygrounds).
		Select(append(cols, latLonColumns()...)...).
		Order(goqu.C("id").Asc()).
		Prepared(true)
	query, args, err := applyPlaygroundFilter(ds, f).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build search query: %w", err)
	}
	out := []model.PlaygroundSummary{}
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].ParkName = utils.CleanParkNamePtr(out[i].ParkName)
	}
	return out, nil
}

// Districts returns the distinct, trimmed, non-empty district names in
// alphabetical order.
func (r *PlaygroundRepo) Districts(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT TRIM(district) AS district
               FROM playgrounds
               WHERE district IS NOT NULL AND TRIM(district) <> ''
               ORDER BY district`
	out := []string{}
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads one playground.  ErrPlaygroundNotFound when absent.
func (r *PlaygroundRepo) GetByID(ctx context.Context, id uint64) (model.Playground, error) {
	const q = `SELECT id, adm_area, district, address, park_name, area, elements,
                      lighting, fencing, working_hours, photo_id,
                      CAST(lat AS DOUBLE) AS lat, CAST(lon AS DOUBLE) AS lon
               FROM playgrounds
               WHERE id = ?`
	var p model.Playground
	if err := r.db.GetContext(ctx, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Playground{}, ErrPlaygroundNotFound
		}
		return model.Playground{}, err
	}
	return p, nil
}

// Stats collects the diagnostics snapshot: current schema name, its
// tables, playground and district totals and a few sample districts.
func (r *PlaygroundRepo) Stats(ctx context.Context) (model.PlaygroundStats, error) {
	var s model.PlaygroundStats
	var dbName sql.NullString
	if err := r.db.GetContext(ctx, &dbName, "SELECT DATABASE()"); err != nil {
		return s, err
	}
	s.Database = dbName.String

	s.Tables = []string{}
	if err := r.db.SelectContext(ctx, &s.Tables,
		"SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name"); err != nil {
		return s, err
	}
	if err := r.db.GetContext(ctx, &s.Playgrounds, "SELECT COUNT(*) FROM playgrounds"); err != nil {
		return s, err
	}
	if err := r.db.GetContext(ctx, &s.Districts,
		`SELECT COUNT(DISTINCT TRIM(district)) FROM playgrounds
         WHERE district IS NOT NULL AND TRIM(district) <> ''`); err != nil {
		return s, err
	}
	s.SampleDistricts = []string{}
	if err := r.db.SelectContext(ctx, &s.SampleDistricts,
		`SELECT TRIM(district) FROM playgrounds
         WHERE district IS NOT NULL AND TRIM(district) <> ''
         LIMIT 5`); err != nil {
		return s, err
	}
	return s, nil
}
