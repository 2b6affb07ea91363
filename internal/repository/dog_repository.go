package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/dog-playground-booking/internal/model"
)

// DogRepo provides access to the dogs table and the breed category
// lookup.
type DogRepo struct {
	db *sqlx.DB
}

// NewDogRepo returns a DogRepo bound to db.
func NewDogRepo(db *sqlx.DB) *DogRepo { return &DogRepo{db: db} }

const dogColumns = `d.id, d.user_id, d.category_id, bc.code AS category_code,
                    d.name, d.breed, d.created_at`

// ListAll returns every dog ordered by name.
func (r *DogRepo) ListAll(ctx context.Context) ([]model.Dog, error) {
	q := `SELECT ` + dogColumns + `
          FROM dogs d
          JOIN breed_categories bc ON bc.id = d.category_id
          ORDER BY d.name, d.id`
	out := []model.Dog{}
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByUser returns the dogs owned by userID ordered by name.
func (r *DogRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Dog, error) {
	q := `SELECT ` + dogColumns + `
          FROM dogs d
          JOIN breed_categories bc ON bc.id = d.category_id
          WHERE d.user_id = ?
          ORDER BY d.name, d.id`
	out := []model.Dog{}
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads one dog.  ErrDogNotFound when absent.
func (r *DogRepo) GetByID(ctx context.Context, id uint64) (model.Dog, error) {
	q := `SELECT ` + dogColumns + `
          FROM dogs d
          JOIN breed_categories bc ON bc.id = d.category_id
          WHERE d.id = ?`
	var d model.Dog
	if err := r.db.GetContext(ctx, &d, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Dog{}, ErrDogNotFound
		}
		return model.Dog{}, err
	}
	return d, nil
}

// Create inserts a dog for userID and returns its id.
func (r *DogRepo) Create(ctx context.Context, userID uint64, nd model.NewDog) (uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	id, err := CreateDogTx(ctx, tx, userID, nd)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return id, nil
}

// CreateDogTx resolves the category code and inserts a dog inside tx.
// An unknown code yields ErrCategoryNotFound.
func CreateDogTx(ctx context.Context, tx *sql.Tx, userID uint64, nd model.NewDog) (uint64, error) {
	code := strings.ToUpper(strings.TrimSpace(nd.CategoryCode))
	var categoryID uint64
	err := tx.QueryRowContext(ctx, "SELECT id FROM breed_categories WHERE code = ?", code).Scan(&categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrCategoryNotFound, code)
	}
	if err != nil {
		return 0, err
	}

	var breed any
	if nd.Breed != nil && strings.TrimSpace(*nd.Breed) != "" {
		breed = strings.TrimSpace(*nd.Breed)
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO dogs (user_id, category_id, name, breed) VALUES (?, ?, ?, ?)",
		userID, categoryID, strings.TrimSpace(nd.Name), breed)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
