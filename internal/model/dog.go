package model

import "time"

// Dog is a row of the `dogs` table joined with its breed category.
// A dog belongs to exactly one user and its category decides which
// slots it may join.
//
// Fields:
//  ID           – primary key identifier.
//  UserID       – owner of the dog.
//  CategoryID   – reference into breed_categories.
//  CategoryCode – breed_categories.code (SMALL, STANDARD, ACTIVE, HIGH_RISK).
//  Name         – display name.
//  Breed        – free-form breed, nullable.
//  CreatedAt    – creation timestamp.
type Dog struct {
	ID           uint64    `db:"id" json:"id"`
	UserID       uint64    `db:"user_id" json:"user_id"`
	CategoryID   uint64    `db:"category_id" json:"-"`
	CategoryCode string    `db:"category_code" json:"category_code"`
	Name         string    `db:"name" json:"name"`
	Breed        *string   `db:"breed" json:"breed"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}

// NewDog is the input for creating a dog.  CategoryCode must name a
// breed_categories row.
type NewDog struct {
	Name         string
	Breed        *string
	CategoryCode string
}
