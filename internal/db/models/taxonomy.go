// Package models - taxonomy.go defines the global, seeded lookup tables: seniority levels,
// job functions, US states and countries.
package models

// Level is a seniority rung such as "Director".
type Level struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Function is a job function such as "Engineering".
type Function struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// State is keyed by its two-letter postal code.
type State struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Country is keyed by its ISO 3166 alpha-3 code.
type Country struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
