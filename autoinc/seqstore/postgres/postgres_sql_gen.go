package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore/abstract_sql"
)

const uniqueViolation = "23505"

type SqlGenPostgres struct {
}

var (
	_ = abstract_sql.SqlGenerator(&SqlGenPostgres{})
)

func (gen *SqlGenPostgres) GetSqlCreateTable(tableName string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (
		id VARCHAR(36) PRIMARY KEY,
		coll VARCHAR(255) NOT NULL,
		val BIGINT NOT NULL,
		UNIQUE (coll, val)
	)`, tableName)
}

func (gen *SqlGenPostgres) GetSqlInsert(tableName string) string {
	return fmt.Sprintf(`INSERT INTO "%s" (id, coll, val) VALUES ($1, $2, $3)`, tableName)
}

func (gen *SqlGenPostgres) GetSqlFindLatest(tableName string) string {
	return fmt.Sprintf(`SELECT id, coll, val FROM "%s" WHERE coll = $1 ORDER BY val DESC LIMIT $2`, tableName)
}

func (gen *SqlGenPostgres) GetSqlDelete(tableName string) string {
	return fmt.Sprintf(`DELETE FROM "%s" WHERE id = $1`, tableName)
}

// GetSqlDurable forces a synchronous commit even if the server default is off.
func (gen *SqlGenPostgres) GetSqlDurable() string {
	return "SET LOCAL synchronous_commit TO ON"
}

func (gen *SqlGenPostgres) IsDuplicateKey(err error) bool {
	return abstract_sql.IsDuplicateKeyOf(err, func(e *pgconn.PgError) bool {
		return e.Code == uniqueViolation
	}) || abstract_sql.IsDuplicateKeyOf(err, func(e *pq.Error) bool {
		return e.Code == uniqueViolation
	})
}
