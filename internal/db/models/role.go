// Package models - role.go defines a Role, one employment stint of a profile at a company and
// level with an ordered set of functions.
package models

import (
	"errors"
	"time"
)

// Role parents (company, level, profile) are nullable only because deleting a parent nulls
// the reference. EndDate nil means the role is current.
type Role struct {
	ID        int64      `db:"id" json:"id"`
	CompanyID *int64     `db:"company_id" json:"company_id"`
	LevelID   *int64     `db:"level_id" json:"level_id"`
	ProfileID *int64     `db:"profile_id" json:"profile_id"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   *time.Time `db:"end_date" json:"end_date"`
	IsPrimary bool       `db:"is_primary" json:"is_primary"`

	// Functions in association order. Loaded separately from the roles row.
	Functions []Function `db:"-" json:"functions"`
}

// IsCurrent reports whether the role has no end date.
func (r *Role) IsCurrent() bool {
	return r.EndDate == nil
}

// FunctionIDs returns the ids of Functions in order.
func (r *Role) FunctionIDs() []int64 {
	ids := make([]int64, 0, len(r.Functions))
	for _, f := range r.Functions {
		ids = append(ids, f.ID)
	}
	return ids
}

var (
	// ErrRoleNoFunctions is returned for a role without any function.
	ErrRoleNoFunctions = errors.New("a role needs at least one function")
	// ErrRoleEndBeforeStart is returned when end_date precedes start_date.
	ErrRoleEndBeforeStart = errors.New("end date cannot be before start date")
)

// Validate checks the role's own fields. References are checked by the store.
func (r *Role) Validate() error {
	if len(r.Functions) == 0 {
		return ErrRoleNoFunctions
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return ErrRoleEndBeforeStart
	}
	return nil
}
