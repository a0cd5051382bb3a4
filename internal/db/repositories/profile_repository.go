// profile_repository.go implements ProfileRepository, providing tenant-scoped queries for the
// people an organization tracks, including creation together with a primary role.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/tenant"
)

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumnsP = `p.id, p.linkedin_url, p.first_name, p.last_name, p.headline, p.city,
	p.state_id, p.country_id, p.organization_id, p.created_at`

const insertProfileQuery = `
	INSERT INTO profiles (linkedin_url, first_name, last_name, headline, city, state_id, country_id, organization_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, created_at
`

func insertProfile(ctx context.Context, q sqlx.QueryerContext, scope tenant.Scope, p *models.Profile) error {
	orgID := scope.OrganizationID
	p.OrganizationID = &orgID

	err := q.QueryRowxContext(ctx, insertProfileQuery,
		p.LinkedInURL, p.FirstName, p.LastName, p.Headline, p.City, p.StateID, p.CountryID, orgID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if conflict := asConflict(err, "profile"); conflict != nil {
			return conflict
		}
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// Create inserts a profile into the scope's organization. A LinkedIn URL already used in the
// organization yields a ConflictError for "profile"; other organizations may reuse it.
func (r *ProfileRepository) Create(ctx context.Context, scope tenant.Scope, p *models.Profile) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	return insertProfile(ctx, r.db, scope, p)
}

// CreateWithPrimaryRole inserts the profile and role in one transaction, with role flagged
// primary. Nothing is stored if either insert fails.
func (r *ProfileRepository) CreateWithPrimaryRole(ctx context.Context, scope tenant.Scope, p *models.Profile, role *models.Role) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	if err := insertProfile(ctx, tx, scope, p); err != nil {
		return err
	}

	role.ProfileID = &p.ID
	role.IsPrimary = true
	if err := insertRole(ctx, tx, scope, role); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit profile: %w", err)
	}
	return nil
}

// GetByID retrieves a profile in scope by ID
func (r *ProfileRepository) GetByID(ctx context.Context, scope tenant.Scope, id int64) (*models.Profile, error) {
	query := `SELECT ` + profileColumnsP + ` FROM profiles p WHERE p.id = $1 AND p.organization_id = $2`

	var p models.Profile
	if err := r.db.GetContext(ctx, &p, query, id, scope.OrganizationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// List returns the organization's profiles ordered by name
func (r *ProfileRepository) List(ctx context.Context, scope tenant.Scope) ([]*models.Profile, error) {
	query := `
		SELECT ` + profileColumnsP + `
		FROM profiles p
		WHERE p.organization_id = $1
		ORDER BY p.last_name, p.first_name, p.id
	`

	profiles := []*models.Profile{}
	if err := r.db.SelectContext(ctx, &profiles, query, scope.OrganizationID); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// Update rewrites a profile's fields. Returns ErrNotFound when the id is not in scope.
func (r *ProfileRepository) Update(ctx context.Context, scope tenant.Scope, p *models.Profile) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE profiles
		SET linkedin_url = $1, first_name = $2, last_name = $3, headline = $4,
			city = $5, state_id = $6, country_id = $7
		WHERE id = $8 AND organization_id = $9
	`

	result, err := r.db.ExecContext(ctx, query,
		p.LinkedInURL, p.FirstName, p.LastName, p.Headline, p.City, p.StateID, p.CountryID,
		p.ID, scope.OrganizationID,
	)
	if err != nil {
		if conflict := asConflict(err, "profile"); conflict != nil {
			return conflict
		}
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireAffected(result)
}

// Delete removes a profile. Its roles survive with a null profile reference.
func (r *ProfileRepository) Delete(ctx context.Context, scope tenant.Scope, id int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM profiles WHERE id = $1 AND organization_id = $2`, id, scope.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return requireAffected(result)
}
