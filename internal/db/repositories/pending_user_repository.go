// pending_user_repository.go implements PendingUserRepository, the storage side of the
// invitation lifecycle: replace-on-reinvite, preview, atomic single-use redemption and the
// expiry sweep.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/talenttree/talenttree/internal/db/models"
)

// PendingUserRepository handles database operations for outstanding invitations
type PendingUserRepository struct {
	db *sql.DB
}

// NewPendingUserRepository creates a new pending user repository
func NewPendingUserRepository(db *sql.DB) *PendingUserRepository {
	return &PendingUserRepository{db: db}
}

const pendingUserColumns = `id, email, organization_id, token, expiration, pending_admin, created_at`

func scanPendingUser(row interface{ Scan(...any) error }) (*models.PendingUser, error) {
	p := &models.PendingUser{}
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.OrganizationID,
		&p.Token,
		&p.Expiration,
		&p.PendingAdmin,
		&p.CreatedAt,
	)
	return p, err
}

// Replace stores the invitation, overwriting any outstanding invitation for the same email.
// After it returns exactly one row exists for p.Email and it carries p's token and expiration.
func (r *PendingUserRepository) Replace(ctx context.Context, p *models.PendingUser) error {
	query := `
		INSERT INTO pending_users (email, organization_id, token, expiration, pending_admin)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			token = EXCLUDED.token,
			expiration = EXCLUDED.expiration,
			pending_admin = EXCLUDED.pending_admin,
			created_at = NOW()
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		p.Email, p.OrganizationID, p.Token, p.Expiration, p.PendingAdmin,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if conflict := asConflict(err, "invitation"); conflict != nil {
			return conflict
		}
		return fmt.Errorf("failed to store invitation: %w", err)
	}
	return nil
}

// GetByToken retrieves an invitation by token without consuming it.
func (r *PendingUserRepository) GetByToken(ctx context.Context, token string) (*models.PendingUser, error) {
	query := `SELECT ` + pendingUserColumns + ` FROM pending_users WHERE token = $1`

	p, err := scanPendingUser(r.db.QueryRowContext(ctx, query, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return p, nil
}

// ConsumeToken deletes and returns the invitation for token if it has not expired at now.
// An expired row is left in place. Returns (nil, nil) when nothing was consumed; concurrent
// callers presenting the same token see at most one success.
func (r *PendingUserRepository) ConsumeToken(ctx context.Context, token string, now time.Time) (*models.PendingUser, error) {
	query := `
		DELETE FROM pending_users
		WHERE token = $1 AND expiration >= $2
		RETURNING ` + pendingUserColumns

	p, err := scanPendingUser(r.db.QueryRowContext(ctx, query, token, now))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to consume invitation: %w", err)
	}
	return p, nil
}

// DeleteExpired removes every invitation that lapsed before now and returns how many went.
func (r *PendingUserRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pending_users WHERE expiration < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invitations: %w", err)
	}
	return result.RowsAffected()
}
