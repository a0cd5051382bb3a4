package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

var errDB = errors.New("db error")

func uniqueViolation(constraint string) error {
	return &pq.Error{Code: "23505", Constraint: constraint}
}

func foreignKeyViolation(constraint string) error {
	return &pq.Error{Code: "23503", Constraint: constraint}
}

func TestAsConflict(t *testing.T) {
	t.Run("unique violation becomes ConflictError", func(t *testing.T) {
		err := asConflict(uniqueViolation("companies_domain_organization_id_key"), "company")
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("errors.Is(err, ErrAlreadyExists) = false for %v", err)
		}
		var ce *ConflictError
		if !errors.As(err, &ce) {
			t.Fatalf("errors.As ConflictError failed for %v", err)
		}
		if ce.Entity != "company" || ce.Constraint != "companies_domain_organization_id_key" {
			t.Errorf("ConflictError = %+v", ce)
		}
	})

	t.Run("wrapped unique violation is still detected", func(t *testing.T) {
		wrapped := fmt.Errorf("insert: %w", uniqueViolation("profiles_linkedin_url_organization_id_key"))
		if err := asConflict(wrapped, "profile"); !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("asConflict(wrapped) = %v, want conflict", err)
		}
	})

	t.Run("other pq errors are not conflicts", func(t *testing.T) {
		if err := asConflict(foreignKeyViolation("roles_level_id_fkey"), "role"); err != nil {
			t.Errorf("asConflict(fk) = %v, want nil", err)
		}
	})

	t.Run("plain errors are not conflicts", func(t *testing.T) {
		if err := asConflict(errDB, "company"); err != nil {
			t.Errorf("asConflict(errDB) = %v, want nil", err)
		}
	})
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !isForeignKeyViolation(foreignKeyViolation("maps_level_id_fkey")) {
		t.Error("isForeignKeyViolation() = false for 23503")
	}
	if isForeignKeyViolation(uniqueViolation("x")) {
		t.Error("isForeignKeyViolation() = true for 23505")
	}
}
