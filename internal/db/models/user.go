// Package models - user.go defines the User login account and the PendingUser invitation
// capability that precedes it.
package models

import "time"

// User is a login account. Email is the primary key.
type User struct {
	Email          string    `db:"email" json:"email"`
	PasswordHash   string    `db:"password_hash" json:"-"`
	OrganizationID *int64    `db:"organization_id" json:"organization_id"`
	IsAdmin        bool      `db:"is_admin" json:"is_admin"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// BelongsTo reports whether the user is a member of orgID.
func (u *User) BelongsTo(orgID int64) bool {
	return u.OrganizationID != nil && *u.OrganizationID == orgID
}

// PendingUser is a single-use, time-limited invitation binding an email to a future
// account in an organization.
type PendingUser struct {
	ID             int64     `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	OrganizationID *int64    `db:"organization_id" json:"organization_id"`
	Token          string    `db:"token" json:"-"`
	Expiration     time.Time `db:"expiration" json:"expiration"`
	PendingAdmin   bool      `db:"pending_admin" json:"pending_admin"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// IsExpired reports whether the invitation has lapsed at now.
func (p *PendingUser) IsExpired(now time.Time) bool {
	return now.After(p.Expiration)
}
