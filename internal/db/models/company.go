// Package models - company.go defines the tenant-scoped Company record.
package models

import "time"

// Company is unique per (domain, organization). Two tenants tracking the same real
// company each own a separate row.
type Company struct {
	ID             int64     `db:"id" json:"id"`
	Domain         string    `db:"domain" json:"domain"`
	Name           string    `db:"name" json:"name"`
	OrganizationID *int64    `db:"organization_id" json:"organization_id"`
	APICompanyID   *int64    `db:"api_company_id" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
