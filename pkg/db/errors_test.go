package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_orders_active_cart"}
	wrapped := fmt.Errorf("insert cart: %w", pgErr)

	if !IsUniqueViolation(wrapped, "") {
		t.Fatal("expected pgconn unique violation to match")
	}
	if !IsUniqueViolation(wrapped, "ux_orders_active_cart") {
		t.Fatal("expected constraint name to match")
	}
	if IsUniqueViolation(wrapped, "users_email_key") {
		t.Fatal("expected other constraint name to not match")
	}

	pqErr := &pq.Error{Code: "23505", Constraint: "users_email_key"}
	if !IsUniqueViolation(pqErr, "users_email_key") {
		t.Fatal("expected pq unique violation to match")
	}

	sqliteErr := errors.New("UNIQUE constraint failed: orders.user_id")
	if !IsUniqueViolation(sqliteErr, "") {
		t.Fatal("expected sqlite message to match")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Fatal("unexpected match for unrelated error")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error must not match")
	}
}

func TestIsCheckViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23514", ConstraintName: "ck_product_infos_quantity"}
	if !IsCheckViolation(pgErr, "ck_product_infos_quantity") {
		t.Fatal("expected check violation to match")
	}
	if IsCheckViolation(&pgconn.PgError{Code: "23505"}, "") {
		t.Fatal("unique violation is not a check violation")
	}
	if !IsCheckViolation(errors.New("CHECK constraint failed: quantity"), "") {
		t.Fatal("expected sqlite check message to match")
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("expected foreign key violation to match")
	}
	if IsForeignKeyViolation(errors.New("boom")) {
		t.Fatal("unexpected match")
	}
}
