// Package models - organization.go defines the Organization model, the tenant boundary that
// owns every company, profile, map and user account in the directory.
package models

import "time"

// Organization represents a tenant. Name is globally unique.
type Organization struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
