// map_repository.go implements MapRepository, which stores contact-map configurations with
// their ordered function and company sets, and MapSnapshot, the read-only view the map
// engine renders from.
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

// MapRepository handles database operations for contact maps
type MapRepository struct {
	db *sqlx.DB
}

// NewMapRepository creates a new map repository
func NewMapRepository(db *sqlx.DB) *MapRepository {
	return &MapRepository{db: db}
}

const mapColumns = `m.id, m.name, m.level_id, m.organization_id, m.created_at`

// Create stores a map and its associations. Function and company ids keep their order.
// A company outside the scope yields ErrOutOfScope; an unknown level or function yields
// ErrInvalidReference.
func (r *MapRepository) Create(ctx context.Context, scope tenant.Scope, m *models.ContactMap, functionIDs, companyIDs []int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	orgID := scope.OrganizationID
	m.OrganizationID = &orgID
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO maps (name, level_id, organization_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, m.Name, m.LevelID, orgID).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to create map: %w", err)
	}

	if err := replaceMapAssociations(ctx, tx, scope, m.ID, functionIDs, companyIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit map: %w", err)
	}
	return nil
}

// Update rewrites a map's name, level and associations. Returns ErrNotFound when the map is
// not in scope.
func (r *MapRepository) Update(ctx context.Context, scope tenant.Scope, m *models.ContactMap, functionIDs, companyIDs []int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	result, err := tx.ExecContext(ctx, `
		UPDATE maps SET name = $1, level_id = $2
		WHERE id = $3 AND organization_id = $4
	`, m.Name, m.LevelID, m.ID, scope.OrganizationID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return fmt.Errorf("failed to update map: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return err
	}

	if err := replaceMapAssociations(ctx, tx, scope, m.ID, functionIDs, companyIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit map: %w", err)
	}
	return nil
}

func replaceMapAssociations(ctx context.Context, tx *sqlx.Tx, scope tenant.Scope, mapID int64, functionIDs, companyIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM map_functions WHERE map_id = $1`, mapID); err != nil {
		return fmt.Errorf("failed to clear map functions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM map_companies WHERE map_id = $1`, mapID); err != nil {
		return fmt.Errorf("failed to clear map companies: %w", err)
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO map_functions (map_id, function_id, position)
		SELECT $1, f.id, f.ord
		FROM unnest($2::bigint[]) WITH ORDINALITY AS f(id, ord)
	`, mapID, pq.Array(functionIDs))
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		if conflict := asConflict(err, "map function"); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to store map functions: %w", err)
	}

	// Only companies owned by the scope are inserted; a shortfall means a foreign id.
	result, err := tx.ExecContext(ctx, `
		INSERT INTO map_companies (map_id, company_id, position)
		SELECT $1, c.id, x.ord
		FROM unnest($2::bigint[]) WITH ORDINALITY AS x(id, ord)
		JOIN companies c ON c.id = x.id AND c.organization_id = $3
	`, mapID, pq.Array(companyIDs), scope.OrganizationID)
	if err != nil {
		if conflict := asConflict(err, "map company"); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to store map companies: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n != int64(len(companyIDs)) {
		return ErrOutOfScope
	}
	return nil
}

// Delete removes a map and its associations
func (r *MapRepository) Delete(ctx context.Context, scope tenant.Scope, id int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM maps WHERE id = $1 AND organization_id = $2`, id, scope.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to delete map: %w", err)
	}
	return requireAffected(result)
}

// List returns the organization's maps ordered by name. Associations are not loaded.
func (r *MapRepository) List(ctx context.Context, scope tenant.Scope) ([]*models.ContactMap, error) {
	query := `
		SELECT ` + mapColumns + `
		FROM maps m
		WHERE m.organization_id = $1
		ORDER BY m.name, m.id
	`

	maps := []*models.ContactMap{}
	if err := r.db.SelectContext(ctx, &maps, query, scope.OrganizationID); err != nil {
		return nil, fmt.Errorf("failed to list maps: %w", err)
	}
	return maps, nil
}

// Get loads a map in scope with its level and ordered associations, or nil if absent.
func (r *MapRepository) Get(ctx context.Context, scope tenant.Scope, id int64) (*models.ContactMap, error) {
	return getMap(ctx, r.db, scope, id)
}

// Snapshot runs fn against one read-only REPEATABLE READ transaction, so every lookup fn
// makes sees the same committed state.
func (r *MapRepository) Snapshot(ctx context.Context, fn func(*MapSnapshot) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	if err := fn(&MapSnapshot{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// MapSnapshot reads map configurations and role holders inside a Snapshot transaction.
type MapSnapshot struct {
	tx *sqlx.Tx
}

// GetMap loads a map in scope with its level and ordered associations, or nil if absent.
func (s *MapSnapshot) GetMap(ctx context.Context, scope tenant.Scope, id int64) (*models.ContactMap, error) {
	return getMap(ctx, s.tx, scope, id)
}

// FindCurrentHolder returns the profile of a current role at (company, level) that includes
// function, or nil if the cell is vacant. With several matches the first in storage order wins.
func (s *MapSnapshot) FindCurrentHolder(ctx context.Context, scope tenant.Scope, companyID, levelID, functionID int64) (*models.Profile, error) {
	query := `
		SELECT ` + profileColumnsP + `
		FROM roles r
		JOIN role_functions rf ON rf.role_id = r.id
		JOIN profiles p ON p.id = r.profile_id
		WHERE r.company_id = $1
		  AND r.level_id = $2
		  AND rf.function_id = $3
		  AND r.end_date IS NULL
		  AND p.organization_id = $4
		LIMIT 1
	`

	var p models.Profile
	if err := s.tx.GetContext(ctx, &p, query, companyID, levelID, functionID, scope.OrganizationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find role holder: %w", err)
	}
	return &p, nil
}

func getMap(ctx context.Context, q sqlx.QueryerContext, scope tenant.Scope, id int64) (*models.ContactMap, error) {
	var m models.ContactMap
	err := sqlx.GetContext(ctx, q, &m,
		`SELECT `+mapColumns+` FROM maps m WHERE m.id = $1 AND m.organization_id = $2`,
		id, scope.OrganizationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get map: %w", err)
	}

	if m.LevelID != nil {
		var level models.Level
		err := sqlx.GetContext(ctx, q, &level, `SELECT id, name FROM levels WHERE id = $1`, *m.LevelID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to get map level: %w", err)
		}
		if err == nil {
			m.Level = &level
		}
	}

	m.Functions = []models.Function{}
	err = sqlx.SelectContext(ctx, q, &m.Functions, `
		SELECT f.id, f.name
		FROM map_functions mf
		JOIN functions f ON f.id = mf.function_id
		WHERE mf.map_id = $1
		ORDER BY mf.position
	`, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get map functions: %w", err)
	}

	m.Companies = []models.Company{}
	err = sqlx.SelectContext(ctx, q, &m.Companies, `
		SELECT c.id, c.domain, c.name, c.organization_id, c.api_company_id, c.created_at
		FROM map_companies mc
		JOIN companies c ON c.id = mc.company_id
		WHERE mc.map_id = $1
		ORDER BY mc.position
	`, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get map companies: %w", err)
	}

	return &m, nil
}
