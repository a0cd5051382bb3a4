// taxonomy_repository.go implements TaxonomyRepository for the global lookup tables (levels,
// functions, states, countries). These queries take no tenant scope.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/talenttree/talenttree/internal/db/models"
)

// TaxonomyRepository handles database operations for the seeded taxonomies
type TaxonomyRepository struct {
	db *sqlx.DB
}

// NewTaxonomyRepository creates a new taxonomy repository
func NewTaxonomyRepository(db *sqlx.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

// ListLevels returns all levels in seniority (seed) order
func (r *TaxonomyRepository) ListLevels(ctx context.Context) ([]models.Level, error) {
	levels := []models.Level{}
	if err := r.db.SelectContext(ctx, &levels, `SELECT id, name FROM levels ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	return levels, nil
}

// GetLevel retrieves a level by ID
func (r *TaxonomyRepository) GetLevel(ctx context.Context, id int64) (*models.Level, error) {
	var level models.Level
	if err := r.db.GetContext(ctx, &level, `SELECT id, name FROM levels WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get level: %w", err)
	}
	return &level, nil
}

// ListFunctions returns all functions in seed order
func (r *TaxonomyRepository) ListFunctions(ctx context.Context) ([]models.Function, error) {
	functions := []models.Function{}
	if err := r.db.SelectContext(ctx, &functions, `SELECT id, name FROM functions ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list functions: %w", err)
	}
	return functions, nil
}

// ListStates returns all states ordered by name
func (r *TaxonomyRepository) ListStates(ctx context.Context) ([]models.State, error) {
	states := []models.State{}
	if err := r.db.SelectContext(ctx, &states, `SELECT id, name FROM states ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list states: %w", err)
	}
	return states, nil
}

// ListCountries returns all countries ordered by name
func (r *TaxonomyRepository) ListCountries(ctx context.Context) ([]models.Country, error) {
	countries := []models.Country{}
	if err := r.db.SelectContext(ctx, &countries, `SELECT id, name FROM countries ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	return countries, nil
}

// Seed inserts the fixed taxonomies in one transaction. It does nothing and returns false
// when any of the four tables already has rows, so repeated calls leave the counts unchanged.
func (r *TaxonomyRepository) Seed(ctx context.Context) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	// Serializes concurrent seeders; the check below then sees the winner's rows.
	if _, err := tx.ExecContext(ctx,
		`LOCK TABLE levels, functions, states, countries IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return false, fmt.Errorf("failed to lock taxonomy tables: %w", err)
	}

	var populated bool
	err = tx.GetContext(ctx, &populated, `
		SELECT EXISTS (SELECT 1 FROM levels)
			OR EXISTS (SELECT 1 FROM functions)
			OR EXISTS (SELECT 1 FROM states)
			OR EXISTS (SELECT 1 FROM countries)
	`)
	if err != nil {
		return false, fmt.Errorf("failed to check taxonomy tables: %w", err)
	}
	if populated {
		return false, nil
	}

	orderedInsert := `
		INSERT INTO %s (name)
		SELECT t.name FROM unnest($1::text[]) WITH ORDINALITY AS t(name, ord)
		ORDER BY t.ord
	`
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(orderedInsert, "levels"), pq.Array(seedLevels)); err != nil {
		return false, fmt.Errorf("failed to seed levels: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(orderedInsert, "functions"), pq.Array(seedFunctions)); err != nil {
		return false, fmt.Errorf("failed to seed functions: %w", err)
	}

	codedInsert := `
		INSERT INTO %s (id, name)
		SELECT * FROM unnest($1::text[], $2::text[])
	`
	stateIDs, stateNames := splitPairs(seedStates)
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(codedInsert, "states"), pq.Array(stateIDs), pq.Array(stateNames)); err != nil {
		return false, fmt.Errorf("failed to seed states: %w", err)
	}
	countryIDs, countryNames := splitPairs(seedCountries)
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(codedInsert, "countries"), pq.Array(countryIDs), pq.Array(countryNames)); err != nil {
		return false, fmt.Errorf("failed to seed countries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit seed: %w", err)
	}
	return true, nil
}
