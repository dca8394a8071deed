package sqlite

import (
	"database/sql"
	"fmt"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore/abstract_sql"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

func init() {
	seqstore.Stores = append(seqstore.Stores, &SqliteStore{})
}

type SqliteStore struct {
	abstract_sql.AbstractSqlStore
}

func (store *SqliteStore) GetName() string {
	return "sqlite"
}

func (store *SqliteStore) Initialize(configuration util.Configuration, prefix string) (err error) {
	dbFile := configuration.GetString(prefix + "dbFile")
	return store.initialize(dbFile)
}

func (store *SqliteStore) initialize(dbFile string) (err error) {

	store.SqlGenerator = &SqlGenSqlite{}

	// synchronous(FULL) syncs the WAL on every commit
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)", dbFile)

	var dbErr error
	store.DB, dbErr = sql.Open("sqlite", dsn)
	if dbErr != nil {
		if store.DB != nil {
			store.DB.Close()
			store.DB = nil
		}
		return fmt.Errorf("can not connect to %s error:%v", dbFile, dbErr)
	}

	if err = store.DB.Ping(); err != nil {
		return fmt.Errorf("connect to %s error:%v", dbFile, err)
	}

	store.DB.SetMaxOpenConns(1)

	return nil
}

type SqlGenSqlite struct {
}

var (
	_ = abstract_sql.SqlGenerator(&SqlGenSqlite{})
)

func (gen *SqlGenSqlite) GetSqlCreateTable(tableName string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (
		id VARCHAR(36) PRIMARY KEY,
		coll VARCHAR(255) NOT NULL,
		val BIGINT NOT NULL,
		UNIQUE (coll, val)
	)`, tableName)
}

func (gen *SqlGenSqlite) GetSqlInsert(tableName string) string {
	return fmt.Sprintf(`INSERT INTO "%s" (id, coll, val) VALUES (?, ?, ?)`, tableName)
}

func (gen *SqlGenSqlite) GetSqlFindLatest(tableName string) string {
	return fmt.Sprintf(`SELECT id, coll, val FROM "%s" WHERE coll = ? ORDER BY val DESC LIMIT ?`, tableName)
}

func (gen *SqlGenSqlite) GetSqlDelete(tableName string) string {
	return fmt.Sprintf(`DELETE FROM "%s" WHERE id = ?`, tableName)
}

func (gen *SqlGenSqlite) GetSqlDurable() string {
	return ""
}

func (gen *SqlGenSqlite) IsDuplicateKey(err error) bool {
	return abstract_sql.IsDuplicateKeyOf(err, func(e *moderncsqlite.Error) bool {
		return e.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	})
}
