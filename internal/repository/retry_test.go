package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
		{"not null violation", &pgconn.PgError{Code: "23502"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isTransient(tc.err); got != tc.want {
				t.Errorf("isTransient = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Error("23505 is a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "40001"}) {
		t.Error("40001 is not a unique violation")
	}
	if isUniqueViolation(errors.New("boom")) {
		t.Error("plain errors are not unique violations")
	}
}

func TestWithRetryRetriesTransientOnce(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		if attempts == 1 {
			return &pgconn.PgError{Code: "40001"}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestWithRetryGivesUpAfterSecondFailure(t *testing.T) {
	attempts := 0
	transient := &pgconn.PgError{Code: "40P01"}
	err := withRetry(context.Background(), func() error {
		attempts++
		return transient
	})
	if !errors.Is(err, transient) {
		t.Fatalf("expected the transient error back, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("retry must be bounded to one, got %d attempts", attempts)
	}
}

func TestWithRetryDoesNotRetryPermanentErrors(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		return &pgconn.PgError{Code: "23505"}
	})
	if err == nil {
		t.Fatal("permanent error must propagate")
	}
	if attempts != 1 {
		t.Errorf("permanent errors get no retry, got %d attempts", attempts)
	}
}
