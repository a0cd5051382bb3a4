// Package models - profile.go defines the Profile of a tracked person. A profile is not a
// login account.
package models

import "time"

// Profile is unique per (linkedin_url, organization).
type Profile struct {
	ID             int64     `db:"id" json:"id"`
	LinkedInURL    string    `db:"linkedin_url" json:"linkedin_url"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Headline       string    `db:"headline" json:"headline"`
	City           string    `db:"city" json:"city"`
	StateID        *string   `db:"state_id" json:"state_id"`
	CountryID      *string   `db:"country_id" json:"country_id"`
	OrganizationID *int64    `db:"organization_id" json:"organization_id"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// FullName joins first and last name.
func (p *Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
