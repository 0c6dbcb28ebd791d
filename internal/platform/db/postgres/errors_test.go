package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsConflict(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "serialization failure", err: &pgconn.PgError{Code: serializationFailureCode}, want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: deadlockDetectedCode}, want: true},
		{name: "lock timeout wrapped", err: fmt.Errorf("lock worker: %w", &pgconn.PgError{Code: lockNotAvailableCode}), want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsConflict(tc.err); got != tc.want {
				t.Fatalf("IsConflict(%v) = %t, want %t", tc.err, got, tc.want)
			}
		})
	}
}
