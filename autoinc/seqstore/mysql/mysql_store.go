package mysql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore/abstract_sql"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

const (
	CONNECTION_URL_PATTERN = "%s:%s@tcp(%s:%d)/%s?collation=utf8mb4_bin"
)

func init() {
	seqstore.Stores = append(seqstore.Stores, &MysqlStore{})
}

type MysqlStore struct {
	abstract_sql.AbstractSqlStore
}

func (store *MysqlStore) GetName() string {
	return "mysql"
}

func (store *MysqlStore) Initialize(configuration util.Configuration, prefix string) (err error) {
	return store.initialize(
		configuration.GetString(prefix+"username"),
		configuration.GetString(prefix+"password"),
		configuration.GetString(prefix+"hostname"),
		configuration.GetInt(prefix+"port"),
		configuration.GetString(prefix+"database"),
		configuration.GetInt(prefix+"connection_max_idle"),
		configuration.GetInt(prefix+"connection_max_open"),
		configuration.GetInt(prefix+"connection_max_lifetime_seconds"),
	)
}

func (store *MysqlStore) initialize(user, password, hostname string, port int, database string, maxIdle, maxOpen, maxLifetimeSeconds int) (err error) {

	store.SqlGenerator = &SqlGenMysql{}

	sqlUrl := fmt.Sprintf(CONNECTION_URL_PATTERN, user, password, hostname, port, database)
	adaptedSqlUrl := fmt.Sprintf(CONNECTION_URL_PATTERN, user, "<ADAPTED>", hostname, port, database)

	var dbErr error
	store.DB, dbErr = sql.Open("mysql", sqlUrl)
	if dbErr != nil {
		if store.DB != nil {
			store.DB.Close()
		}
		store.DB = nil
		return fmt.Errorf("can not connect to %s error:%v", adaptedSqlUrl, dbErr)
	}

	store.DB.SetMaxIdleConns(maxIdle)
	store.DB.SetMaxOpenConns(maxOpen)
	store.DB.SetConnMaxLifetime(time.Duration(maxLifetimeSeconds) * time.Second)

	if err = store.DB.Ping(); err != nil {
		return fmt.Errorf("connect to %s error:%v", adaptedSqlUrl, err)
	}

	return nil
}

const erDupEntry = 1062

type SqlGenMysql struct {
}

var (
	_ = abstract_sql.SqlGenerator(&SqlGenMysql{})
)

func (gen *SqlGenMysql) GetSqlCreateTable(tableName string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
		"id VARCHAR(36) NOT NULL PRIMARY KEY, "+
		"coll VARCHAR(255) NOT NULL, "+
		"val BIGINT NOT NULL, "+
		"UNIQUE KEY coll_val (coll, val)"+
		") DEFAULT CHARSET=utf8mb4", tableName)
}

func (gen *SqlGenMysql) GetSqlInsert(tableName string) string {
	return fmt.Sprintf("INSERT INTO `%s` (id, coll, val) VALUES (?, ?, ?)", tableName)
}

func (gen *SqlGenMysql) GetSqlFindLatest(tableName string) string {
	return fmt.Sprintf("SELECT id, coll, val FROM `%s` WHERE coll = ? ORDER BY val DESC LIMIT ?", tableName)
}

func (gen *SqlGenMysql) GetSqlDelete(tableName string) string {
	return fmt.Sprintf("DELETE FROM `%s` WHERE id = ?", tableName)
}

// GetSqlDurable is empty: InnoDB flushing is governed by the server-wide innodb_flush_log_at_trx_commit.
func (gen *SqlGenMysql) GetSqlDurable() string {
	return ""
}

func (gen *SqlGenMysql) IsDuplicateKey(err error) bool {
	return abstract_sql.IsDuplicateKeyOf(err, func(e *mysql.MySQLError) bool {
		return e.Number == erDupEntry
	})
}
