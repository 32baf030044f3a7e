package entity

import (
	"time"

	"github.com/google/uuid"
)

// Record is the common header of mutable rows.
type Record struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *Record) Touch(now time.Time) {
	r.UpdatedAt = now
}

// CatalogRecord is a Record for reference data that is soft deleted
// (films, halls). Repositories filter on deleted_at.
type CatalogRecord struct {
	Record
	DeletedAt *time.Time `db:"deleted_at"`
}

// AppendOnly rows are written once and never updated in place.
type AppendOnly struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}
