// Package repositories implements the data access layer for the directory. Each repository
// owns the SQL for one entity. Tenant-owned entities take a tenant.Scope on every call and
// filter by its organization id; global taxonomy lookups take none.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/talenttree/talenttree/internal/db/models"
	"github.com/talenttree/talenttree/internal/tenant"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const insertUserQuery = `
	INSERT INTO users (email, password_hash, organization_id, is_admin)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at
`

// Create inserts a user. A taken email yields a ConflictError for "user".
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.db.QueryRowContext(ctx, insertUserQuery,
		user.Email, user.PasswordHash, user.OrganizationID, user.IsAdmin,
	).Scan(&user.CreatedAt)
	if err != nil {
		if conflict := asConflict(err, "user"); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT email, password_hash, organization_id, is_admin, created_at
		FROM users
		WHERE email = $1
	`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.Email,
		&user.PasswordHash,
		&user.OrganizationID,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Exists reports whether an account is registered for email.
func (r *UserRepository) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

// ListByOrganization returns the organization's users ordered by email.
func (r *UserRepository) ListByOrganization(ctx context.Context, scope tenant.Scope) ([]*models.User, error) {
	query := `
		SELECT email, password_hash, organization_id, is_admin, created_at
		FROM users
		WHERE organization_id = $1
		ORDER BY email
	`

	rows, err := r.db.QueryContext(ctx, query, scope.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.Email, &u.PasswordHash, &u.OrganizationID, &u.IsAdmin, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
