// Package models - contact_map.go defines the saved contact-map configuration and the grid
// row produced when it is rendered.
package models

import "time"

// ContactMap is a saved (level, functions, companies) report configuration. Results are
// never stored; the grid is rebuilt on every read.
type ContactMap struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	LevelID        *int64    `db:"level_id" json:"level_id"`
	OrganizationID *int64    `db:"organization_id" json:"organization_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`

	Level     *Level     `db:"-" json:"level"`
	Functions []Function `db:"-" json:"functions"`
	Companies []Company  `db:"-" json:"companies"`
}

// MapRow is one company of a rendered map with one cell per function. A nil cell is vacant.
type MapRow struct {
	Company Company    `json:"company"`
	Cells   []*Profile `json:"cells"`
}
