package postgres

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore/store_test"
)

func TestIsDuplicateKey(t *testing.T) {
	gen := &SqlGenPostgres{}
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"pgx unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped pgx unique violation", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), true},
		{"pgx other error", &pgconn.PgError{Code: "40001"}, false},
		{"lib/pq unique violation", &pq.Error{Code: "23505"}, true},
		{"lib/pq other error", &pq.Error{Code: "42P01"}, false},
		{"plain error", errors.New("duplicate key value violates unique constraint"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gen.IsDuplicateKey(tt.err))
		})
	}
}

func TestStore(t *testing.T) {
	// export POSTGRES_HOST=localhost to run against a local server
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		t.Skip("POSTGRES_HOST not set")
	}
	port, _ := strconv.Atoi(os.Getenv("POSTGRES_PORT"))
	for _, driver := range []string{"pgx", "postgres"} {
		t.Run(driver, func(t *testing.T) {
			store := &PostgresStore{}
			require.Nil(t, store.initialize(driver, os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD"),
				host, port, os.Getenv("POSTGRES_DB"), "", "disable", 2, 10, 0))
			defer store.Shutdown()
			store_test.TestSequenceStore(t, store)
		})
	}
}
