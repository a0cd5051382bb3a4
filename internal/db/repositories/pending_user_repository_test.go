package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/talenttree/talenttree/internal/db/models"
)

var pendingUserCols = []string{"id", "email", "organization_id", "token", "expiration", "pending_admin", "created_at"}

func newPendingUserRepo(t *testing.T) (*PendingUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPendingUserRepository(db), mock
}

func samplePendingRow(expiration time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(pendingUserCols).
		AddRow(int64(1), "a@x.com", int64(5), "tok", expiration, false, time.Now())
}

// ---------------------------------------------------------------------------
// Replace
// ---------------------------------------------------------------------------

func TestReplace_UpsertsOnEmail(t *testing.T) {
	repo, mock := newPendingUserRepo(t)
	org := int64(5)
	exp := time.Now().Add(24 * time.Hour)
	mock.ExpectQuery("INSERT INTO pending_users.*ON CONFLICT \\(email\\) DO UPDATE").
		WithArgs("a@x.com", int64(5), "second-token", exp, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), time.Now()))

	p := &models.PendingUser{Email: "a@x.com", OrganizationID: &org, Token: "second-token", Expiration: exp, PendingAdmin: true}
	if err := repo.Replace(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != 3 {
		t.Errorf("ID = %d, want 3", p.ID)
	}
}

func TestReplace_TokenCollision(t *testing.T) {
	repo, mock := newPendingUserRepo(t)
	mock.ExpectQuery("INSERT INTO pending_users").
		WillReturnError(uniqueViolation("pending_users_token_key"))

	err := repo.Replace(context.Background(), &models.PendingUser{Email: "a@x.com"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

// ---------------------------------------------------------------------------
// GetByToken
// ---------------------------------------------------------------------------

func TestGetByToken_Found(t *testing.T) {
	repo, mock := newPendingUserRepo(t)
	exp := time.Now().Add(time.Hour)
	mock.ExpectQuery("SELECT.*FROM pending_users WHERE token").
		WithArgs("tok").
		WillReturnRows(samplePendingRow(exp))

	p, err := repo.GetByToken(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || p.Email != "a@x.com" || *p.OrganizationID != 5 {
		t.Errorf("pending = %+v", p)
	}
}

func TestGetByToken_NotFound(t *testing.T) {
	repo, mock := newPendingUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM pending_users WHERE token").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(pendingUserCols))

	p, err := repo.GetByToken(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil, got %+v", p)
	}
}

// ---------------------------------------------------------------------------
// ConsumeToken
// ---------------------------------------------------------------------------

func TestConsumeToken_Success(t *testing.T) {
	repo, mock := newPendingUserRepo(t)
	now := time.Now()
	mock.ExpectQuery("DELETE FROM pending_users.*WHERE token = \\$1 AND expiration >= \\$2.*RETURNING").
		WithArgs("tok", now).
		WillReturnRows(samplePendingRow(now.Add(time.Hour)))

	p, err := repo.ConsumeToken(context.Background(), "tok", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || p.Email != "a@x.com" {
		t.Errorf("pending = %+v", p)
	}
}

func TestConsumeToken_Miss(t *testing.T) {
	repo, mock := newPendingUserRepo(t)
	now := time.Now()
	mock.ExpectQuery("DELETE FROM pending_users").
		WithArgs("tok", now).
		WillReturnRows(sqlmock.NewRows(pendingUserCols))

	p, err := repo.ConsumeToken(context.Background(), "tok", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil, got %+v", p)
	}
}

func TestConsumeToken_DBError(t *testing.T) {
	repo, mock := newPendingUserRepo(t)
	mock.ExpectQuery("DELETE FROM pending_users").WillReturnError(errDB)

	if _, err := repo.ConsumeToken(context.Background(), "tok", time.Now()); err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// DeleteExpired
// ---------------------------------------------------------------------------

func TestDeleteExpired(t *testing.T) {
	repo, mock := newPendingUserRepo(t)
	now := time.Now()
	mock.ExpectExec("DELETE FROM pending_users WHERE expiration < \\$1").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("deleted = %d, want 4", n)
	}
}

func TestDeleteExpired_DBError(t *testing.T) {
	repo, mock := newPendingUserRepo(t)
	mock.ExpectExec("DELETE FROM pending_users").WillReturnError(errDB)

	if _, err := repo.DeleteExpired(context.Background(), time.Now()); err == nil {
		t.Error("expected error, got nil")
	}
}
