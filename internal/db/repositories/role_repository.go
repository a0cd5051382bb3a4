// role_repository.go implements RoleRepository. A role is in scope when its profile belongs to
// the caller's organization; writes additionally require the referenced company to be in the
// same organization. Role functions are stored in role_functions with their submitted order.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/tenant"
)

// RoleRepository handles database operations for roles and their functions
type RoleRepository struct {
	db *sqlx.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *sqlx.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

const roleColumns = `r.id, r.company_id, r.level_id, r.profile_id, r.start_date, r.end_date, r.is_primary`

const insertRoleQuery = `
	INSERT INTO roles (company_id, level_id, profile_id, start_date, end_date, is_primary)
	SELECT $1::bigint, $2::bigint, $3::bigint, $4::date, $5::date, $6::boolean
	WHERE EXISTS (SELECT 1 FROM companies WHERE id = $1::bigint AND organization_id = $7::bigint)
	  AND EXISTS (SELECT 1 FROM profiles WHERE id = $3::bigint AND organization_id = $7::bigint)
	RETURNING id
`

// roleFunctionRow is one row of the role_functions join.
type roleFunctionRow struct {
	RoleID int64 `db:"role_id"`
	models.Function
}

// insertRole stores role and its functions through q, which is normally a transaction.
// Returns ErrOutOfScope when the company or profile belongs to another organization.
func insertRole(ctx context.Context, q sqlx.ExtContext, scope tenant.Scope, role *models.Role) error {
	if err := role.Validate(); err != nil {
		return err
	}

	if role.IsPrimary && role.ProfileID != nil {
		if err := lockProfile(ctx, q, scope, *role.ProfileID); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx,
			`UPDATE roles SET is_primary = false WHERE profile_id = $1 AND is_primary`, *role.ProfileID); err != nil {
			return fmt.Errorf("failed to clear primary role: %w", err)
		}
	}

	err := sqlx.GetContext(ctx, q, &role.ID, insertRoleQuery,
		role.CompanyID, role.LevelID, role.ProfileID, role.StartDate, role.EndDate, role.IsPrimary,
		scope.OrganizationID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOutOfScope
		}
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to create role: %w", err)
	}

	return replaceRoleFunctions(ctx, q, role.ID, role.FunctionIDs())
}

// lockProfile takes a row lock on the profile so writers of its primary flag run one at a time.
// Returns ErrOutOfScope when the profile is missing or belongs to another organization.
func lockProfile(ctx context.Context, q sqlx.QueryerContext, scope tenant.Scope, profileID int64) error {
	var id int64
	err := sqlx.GetContext(ctx, q, &id,
		`SELECT id FROM profiles WHERE id = $1 AND organization_id = $2 FOR UPDATE`, profileID, scope.OrganizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOutOfScope
	}
	if err != nil {
		return fmt.Errorf("failed to lock profile: %w", err)
	}
	return nil
}

// replaceRoleFunctions rewrites the role's function set, keeping the order of functionIDs.
func replaceRoleFunctions(ctx context.Context, q sqlx.ExtContext, roleID int64, functionIDs []int64) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM role_functions WHERE role_id = $1`, roleID); err != nil {
		return fmt.Errorf("failed to clear role functions: %w", err)
	}

	query := `
		INSERT INTO role_functions (role_id, function_id, position)
		SELECT $1, f.id, f.ord
		FROM unnest($2::bigint[]) WITH ORDINALITY AS f(id, ord)
	`
	if _, err := q.ExecContext(ctx, query, roleID, pq.Array(functionIDs)); err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		if conflict := asConflict(err, "role function"); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to store role functions: %w", err)
	}
	return nil
}

// loadRoleFunctions fills Functions on every role in association order.
func loadRoleFunctions(ctx context.Context, q sqlx.QueryerContext, roles []*models.Role) error {
	if len(roles) == 0 {
		return nil
	}

	ids := make([]int64, len(roles))
	byID := make(map[int64]*models.Role, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
		byID[r.ID] = r
		r.Functions = []models.Function{}
	}

	query := `
		SELECT rf.role_id, f.id, f.name
		FROM role_functions rf
		JOIN functions f ON f.id = rf.function_id
		WHERE rf.role_id = ANY($1)
		ORDER BY rf.role_id, rf.position
	`

	var rows []roleFunctionRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to load role functions: %w", err)
	}
	for _, row := range rows {
		if r, ok := byID[row.RoleID]; ok {
			r.Functions = append(r.Functions, row.Function)
		}
	}
	return nil
}

// Create stores a role for a profile in scope. When role.IsPrimary is set, every other
// role of the same profile loses the flag in the same transaction.
func (r *RoleRepository) Create(ctx context.Context, scope tenant.Scope, role *models.Role) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	if err := insertRole(ctx, tx, scope, role); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role: %w", err)
	}
	return nil
}

func (r *RoleRepository) getByID(ctx context.Context, q sqlx.QueryerContext, scope tenant.Scope, id int64) (*models.Role, error) {
	query := `
		SELECT ` + roleColumns + `
		FROM roles r
		JOIN profiles p ON p.id = r.profile_id
		WHERE r.id = $1 AND p.organization_id = $2
	`

	var role models.Role
	if err := sqlx.GetContext(ctx, q, &role, query, id, scope.OrganizationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

// GetByID retrieves a role in scope with its functions
func (r *RoleRepository) GetByID(ctx context.Context, scope tenant.Scope, id int64) (*models.Role, error) {
	role, err := r.getByID(ctx, r.db, scope, id)
	if err != nil || role == nil {
		return role, err
	}
	if err := loadRoleFunctions(ctx, r.db, []*models.Role{role}); err != nil {
		return nil, err
	}
	return role, nil
}

// ListByProfile returns the profile's roles, primary first and then most recent first.
func (r *RoleRepository) ListByProfile(ctx context.Context, scope tenant.Scope, profileID int64) ([]*models.Role, error) {
	query := `
		SELECT ` + roleColumns + `
		FROM roles r
		JOIN profiles p ON p.id = r.profile_id
		WHERE r.profile_id = $1 AND p.organization_id = $2
		ORDER BY r.is_primary DESC, r.start_date DESC, r.id
	`

	var roles []*models.Role
	if err := r.db.SelectContext(ctx, &roles, query, profileID, scope.OrganizationID); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	if err := loadRoleFunctions(ctx, r.db, roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// PrimaryRole returns the profile's role flagged primary, or nil if it has none.
func (r *RoleRepository) PrimaryRole(ctx context.Context, scope tenant.Scope, profileID int64) (*models.Role, error) {
	query := `
		SELECT ` + roleColumns + `
		FROM roles r
		JOIN profiles p ON p.id = r.profile_id
		WHERE r.profile_id = $1 AND p.organization_id = $2 AND r.is_primary
		ORDER BY r.id
		LIMIT 1
	`

	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, profileID, scope.OrganizationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get primary role: %w", err)
	}
	if err := loadRoleFunctions(ctx, r.db, []*models.Role{&role}); err != nil {
		return nil, err
	}
	return &role, nil
}

// Update rewrites a role's company, level, dates and functions. The profile and primary
// flag are left alone; use SetPrimary to move the flag.
func (r *RoleRepository) Update(ctx context.Context, scope tenant.Scope, role *models.Role) error {
	if err := scope.Validate(); err != nil {
		return err
	}
	if err := role.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	existing, err := r.getByID(ctx, tx, scope, role.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}

	query := `
		UPDATE roles
		SET company_id = $1, level_id = $2, start_date = $3, end_date = $4
		WHERE id = $5
		  AND EXISTS (SELECT 1 FROM companies WHERE id = $1 AND organization_id = $6)
	`
	result, err := tx.ExecContext(ctx, query,
		role.CompanyID, role.LevelID, role.StartDate, role.EndDate, role.ID, scope.OrganizationID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to update role: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return ErrOutOfScope
	}

	if err := replaceRoleFunctions(ctx, tx, role.ID, role.FunctionIDs()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit role: %w", err)
	}
	role.ProfileID = existing.ProfileID
	role.IsPrimary = existing.IsPrimary
	return nil
}

// SetPrimary flags roleID as its profile's primary role and clears the flag on every
// other role of that profile, atomically.
func (r *RoleRepository) SetPrimary(ctx context.Context, scope tenant.Scope, roleID int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	role, err := r.getByID(ctx, tx, scope, roleID)
	if err != nil {
		return err
	}
	if role == nil || role.ProfileID == nil {
		return ErrNotFound
	}
	if err := lockProfile(ctx, tx, scope, *role.ProfileID); err != nil {
		if errors.Is(err, ErrOutOfScope) {
			return ErrNotFound
		}
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE roles SET is_primary = (id = $1) WHERE profile_id = $2`, roleID, *role.ProfileID); err != nil {
		return fmt.Errorf("failed to set primary role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit primary role: %w", err)
	}
	return nil
}

// Delete removes a role in scope. Its function associations cascade.
func (r *RoleRepository) Delete(ctx context.Context, scope tenant.Scope, id int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	query := `
		DELETE FROM roles r
		USING profiles p
		WHERE r.id = $1 AND r.profile_id = p.id AND p.organization_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, scope.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return requireAffected(result)
}

// ProfilesAtCompany returns the distinct profiles holding a role at the company. When
// current is true only roles without an end date count; otherwise only ended roles count.
// A profile with both kinds of stint appears in both lists.
func (r *RoleRepository) ProfilesAtCompany(ctx context.Context, scope tenant.Scope, companyID int64, current bool) ([]*models.Profile, error) {
	query := `
		SELECT DISTINCT ` + profileColumnsP + `
		FROM profiles p
		JOIN roles r ON r.profile_id = p.id
		WHERE r.company_id = $1
		  AND p.organization_id = $2
		  AND (r.end_date IS NULL) = $3
		ORDER BY p.last_name, p.first_name, p.id
	`

	profiles := []*models.Profile{}
	if err := r.db.SelectContext(ctx, &profiles, query, companyID, scope.OrganizationID, current); err != nil {
		return nil, fmt.Errorf("failed to list profiles at company: %w", err)
	}
	return profiles, nil
}
