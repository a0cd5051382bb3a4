// organization_repository.go implements OrganizationRepository, providing queries for tenant
// creation (including the transactional first-admin signup) and lookup.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/talenttree/talenttree/internal/db/models"
)

// OrganizationRepository handles database operations for organizations
type OrganizationRepository struct {
	db *sql.DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

const insertOrganizationQuery = `
	INSERT INTO organizations (name)
	VALUES ($1)
	RETURNING id, created_at
`

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id int64) (*models.Organization, error) {
	query := `
		SELECT id, name, created_at
		FROM organizations
		WHERE id = $1
	`

	org := &models.Organization{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// GetByName retrieves an organization by its unique name
func (r *OrganizationRepository) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	query := `
		SELECT id, name, created_at
		FROM organizations
		WHERE name = $1
	`

	org := &models.Organization{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return org, nil
}

// Create inserts a new organization. A duplicate name yields a ConflictError.
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	err := r.db.QueryRowContext(ctx, insertOrganizationQuery, org.Name).Scan(&org.ID, &org.CreatedAt)
	if err != nil {
		if conflict := asConflict(err, "organization"); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// CreateWithAdmin creates an organization and its first admin user in a single transaction.
// The returned ConflictError names "organization" or "user" depending on which constraint
// fired; in either case nothing is persisted.
func (r *OrganizationRepository) CreateWithAdmin(ctx context.Context, org *models.Organization, admin *models.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	if err := tx.QueryRowContext(ctx, insertOrganizationQuery, org.Name).Scan(&org.ID, &org.CreatedAt); err != nil {
		if conflict := asConflict(err, "organization"); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}

	admin.OrganizationID = &org.ID
	admin.IsAdmin = true
	if err := tx.QueryRowContext(ctx, insertUserQuery,
		admin.Email, admin.PasswordHash, admin.OrganizationID, admin.IsAdmin,
	).Scan(&admin.CreatedAt); err != nil {
		if conflict := asConflict(err, "user"); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit organization signup: %w", err)
	}
	return nil
}
