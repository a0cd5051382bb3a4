// Package tenant carries the resolved caller identity and the organization scope that every
// tenant-owned query is parameterized by. Repositories take a Scope argument instead of
// reading the organization from ambient request state, so global taxonomy queries (which take
// no Scope) are distinguishable from tenant queries at the call site.
package tenant

import "errors"

// ErrNoScope is returned when a tenant operation is attempted without an organization.
var ErrNoScope = errors.New("tenant scope is required")

// Scope restricts a query to one organization.
type Scope struct {
	OrganizationID int64
}

// For returns the scope of orgID.
func For(orgID int64) Scope {
	return Scope{OrganizationID: orgID}
}

// Validate rejects the zero scope.
func (s Scope) Validate() error {
	if s.OrganizationID <= 0 {
		return ErrNoScope
	}
	return nil
}

// Owns reports whether a row carrying orgID belongs to this scope. Rows whose organization
// was deleted (nil) belong to nobody.
func (s Scope) Owns(orgID *int64) bool {
	return orgID != nil && *orgID == s.OrganizationID
}

// Caller is the identity resolved once per request by the session layer.
type Caller struct {
	Email          string `json:"email"`
	OrganizationID int64  `json:"organization_id"`
	IsAdmin        bool   `json:"is_admin"`
}

// Scope returns the caller's own organization scope.
func (c Caller) Scope() Scope {
	return Scope{OrganizationID: c.OrganizationID}
}

// CanAccess reports whether the caller is a member of orgID.
func (c Caller) CanAccess(orgID int64) bool {
	return c.OrganizationID > 0 && c.OrganizationID == orgID
}

// CanAdminister reports whether the caller is an admin of orgID.
func (c Caller) CanAdminister(orgID int64) bool {
	return c.IsAdmin && c.CanAccess(orgID)
}
