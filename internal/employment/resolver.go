// Package employment classifies a profile's roles into current and past employment and
// resolves a profile's primary role.
package employment

import (
	"context"

	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/tenant"
)

// Store is the slice of the role repository the resolver reads from.
type Store interface {
	PrimaryRole(ctx context.Context, scope tenant.Scope, profileID int64) (*models.Role, error)
	ProfilesAtCompany(ctx context.Context, scope tenant.Scope, companyID int64, current bool) ([]*models.Profile, error)
}

// Resolver answers employment questions for one tenant at a time.
type Resolver struct {
	store Store
}

// NewResolver creates a resolver over store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// IsCurrent reports whether role is ongoing employment.
func IsCurrent(role *models.Role) bool {
	return role != nil && role.IsCurrent()
}

// PrimaryRole returns the profile's primary role, or nil if none is flagged.
func (r *Resolver) PrimaryRole(ctx context.Context, scope tenant.Scope, profileID int64) (*models.Role, error) {
	role, err := r.store.PrimaryRole(ctx, scope, profileID)
	if err != nil {
		return nil, err
	}
	if role == nil || !role.IsPrimary || role.ProfileID == nil || *role.ProfileID != profileID {
		return nil, nil
	}
	return role, nil
}

// Employees returns the distinct profiles with a current role at the company.
func (r *Resolver) Employees(ctx context.Context, scope tenant.Scope, companyID int64) ([]*models.Profile, error) {
	return r.store.ProfilesAtCompany(ctx, scope, companyID, true)
}

// Alumni returns the distinct profiles with an ended role at the company. A profile may
// also be among the Employees if it holds a current role there too.
func (r *Resolver) Alumni(ctx context.Context, scope tenant.Scope, companyID int64) ([]*models.Profile, error) {
	return r.store.ProfilesAtCompany(ctx, scope, companyID, false)
}

// Split partitions roles into current and past, preserving order.
func Split(roles []*models.Role) (current, past []*models.Role) {
	for _, role := range roles {
		if role.IsCurrent() {
			current = append(current, role)
		} else {
			past = append(past, role)
		}
	}
	return current, past
}
