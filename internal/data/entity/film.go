package entity

import (
	"time"
)

type Film struct {
	CatalogRecord
	Title           string    `db:"title"`
	DurationSeconds int       `db:"duration_seconds"`
	OnAirFrom       time.Time `db:"on_air_from"`
	OnAirTo         time.Time `db:"on_air_to"`
	IsActive        bool      `db:"is_active"`
}

func (f *Film) Duration() time.Duration {
	return time.Duration(f.DurationSeconds) * time.Second
}
