// company_repository.go implements CompanyRepository. Every method is scoped to one
// organization; a company id owned by another tenant behaves exactly like a missing one.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/tenant"
)

// CompanyRepository handles database operations for companies
type CompanyRepository struct {
	db *sql.DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *sql.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const companyColumns = `id, domain, name, organization_id, api_company_id, created_at`

func scanCompany(row interface{ Scan(...any) error }) (*models.Company, error) {
	c := &models.Company{}
	err := row.Scan(&c.ID, &c.Domain, &c.Name, &c.OrganizationID, &c.APICompanyID, &c.CreatedAt)
	return c, err
}

// Create inserts a company into the scope's organization. A duplicate domain within the
// organization yields a ConflictError for "company".
func (r *CompanyRepository) Create(ctx context.Context, scope tenant.Scope, c *models.Company) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO companies (domain, name, organization_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	orgID := scope.OrganizationID
	c.OrganizationID = &orgID
	if err := r.db.QueryRowContext(ctx, query, c.Domain, c.Name, orgID).Scan(&c.ID, &c.CreatedAt); err != nil {
		if conflict := asConflict(err, "company"); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// GetByID retrieves a company in scope by ID
func (r *CompanyRepository) GetByID(ctx context.Context, scope tenant.Scope, id int64) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1 AND organization_id = $2`

	c, err := scanCompany(r.db.QueryRowContext(ctx, query, id, scope.OrganizationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return c, nil
}

// List returns the organization's companies ordered by name
func (r *CompanyRepository) List(ctx context.Context, scope tenant.Scope) ([]*models.Company, error) {
	query := `
		SELECT ` + companyColumns + `
		FROM companies
		WHERE organization_id = $1
		ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query, scope.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, c)
	}

	return companies, rows.Err()
}

// Update changes a company's domain and name. Returns ErrNotFound when the id is not in scope.
func (r *CompanyRepository) Update(ctx context.Context, scope tenant.Scope, c *models.Company) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE companies
		SET domain = $1, name = $2
		WHERE id = $3 AND organization_id = $4
	`

	result, err := r.db.ExecContext(ctx, query, c.Domain, c.Name, c.ID, scope.OrganizationID)
	if err != nil {
		if conflict := asConflict(err, "company"); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to update company: %w", err)
	}
	return requireAffected(result)
}

// Delete removes a company. Its roles survive with a null company reference.
func (r *CompanyRepository) Delete(ctx context.Context, scope tenant.Scope, id int64) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM companies WHERE id = $1 AND organization_id = $2`, id, scope.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return requireAffected(result)
}

// SearchDomains returns the domains of companies whose name or domain contains q,
// case-insensitively, ordered by domain.
func (r *CompanyRepository) SearchDomains(ctx context.Context, scope tenant.Scope, q string) ([]string, error) {
	query := `
		SELECT domain
		FROM companies
		WHERE organization_id = $1
		  AND (name ILIKE $2 ESCAPE '\' OR domain ILIKE $2 ESCAPE '\')
		ORDER BY domain
	`

	rows, err := r.db.QueryContext(ctx, query, scope.OrganizationID, containsPattern(q))
	if err != nil {
		return nil, fmt.Errorf("failed to search companies: %w", err)
	}
	defer rows.Close()

	domains := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, d)
	}

	return domains, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching q literally anywhere in the value.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
