package abstract_sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
)

type SqlGenerator interface {
	GetSqlCreateTable(tableName string) string
	GetSqlInsert(tableName string) string
	GetSqlFindLatest(tableName string) string
	GetSqlDelete(tableName string) string
	// GetSqlDurable returns a statement run before a durable insert in the same transaction, or "".
	GetSqlDurable() string
	IsDuplicateKey(err error) bool
}

// AbstractSqlStore stores one row per record in a table named after the collection:
// (id, coll, val) with a unique constraint on (coll, val).
type AbstractSqlStore struct {
	SqlGenerator
	DB *sql.DB
}

func checkTableName(collection string) error {
	if collection == "" || strings.ContainsAny(collection, "\"`'\x00") {
		return fmt.Errorf("invalid table name %q", collection)
	}
	return nil
}

func (store *AbstractSqlStore) EnsureUniqueIndex(ctx context.Context, collection string) error {
	if err := checkTableName(collection); err != nil {
		return err
	}
	sqlCreate := store.GetSqlCreateTable(collection)
	if _, err := store.DB.ExecContext(ctx, sqlCreate); err != nil {
		return fmt.Errorf("create table %s: %w", collection, err)
	}
	return nil
}

func (store *AbstractSqlStore) FindLatest(ctx context.Context, collection string, name string, limit int) ([]*seqstore.SequenceRecord, error) {

	rows, err := store.DB.QueryContext(ctx, store.GetSqlFindLatest(collection), name, limit)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", name, err)
	}
	defer rows.Close()

	var records []*seqstore.SequenceRecord
	for rows.Next() {
		record := &seqstore.SequenceRecord{}
		if err = rows.Scan(&record.Id, &record.Name, &record.Value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", name, err)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", name, err)
	}
	return records, nil
}

func (store *AbstractSqlStore) InsertRecord(ctx context.Context, collection string, record *seqstore.SequenceRecord, durable bool) (err error) {

	id := uuid.NewString()
	sqlInsert := store.GetSqlInsert(collection)

	if durable && store.GetSqlDurable() != "" {
		err = store.insertDurable(ctx, sqlInsert, id, record)
	} else {
		_, err = store.DB.ExecContext(ctx, sqlInsert, id, record.Name, record.Value)
	}

	if err != nil {
		if store.IsDuplicateKey(err) {
			return fmt.Errorf("insert %s/%d: %w: %v", record.Name, record.Value, seqstore.ErrDuplicateKey, err)
		}
		return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, err)
	}
	record.Id = id
	return nil
}

func (store *AbstractSqlStore) insertDurable(ctx context.Context, sqlInsert string, id string, record *seqstore.SequenceRecord) error {
	tx, err := store.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, store.GetSqlDurable()); err != nil {
		tx.Rollback()
		return err
	}
	if _, err = tx.ExecContext(ctx, sqlInsert, id, record.Name, record.Value); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (store *AbstractSqlStore) DeleteRecord(ctx context.Context, collection string, recordId string) error {

	res, err := store.DB.ExecContext(ctx, store.GetSqlDelete(collection), recordId)
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		glog.V(1).Infof("delete %s rows affected: %v", recordId, err)
		return nil
	}
	if affected == 0 {
		return fmt.Errorf("delete %s: %w", recordId, seqstore.ErrNotFound)
	}
	return nil
}

func (store *AbstractSqlStore) Shutdown() {
	if store.DB != nil {
		store.DB.Close()
	}
}

// IsDuplicateKeyOf reports whether err or anything it wraps is a T matching isDuplicate.
func IsDuplicateKeyOf[T error](err error, isDuplicate func(T) bool) bool {
	var target T
	return errors.As(err, &target) && isDuplicate(target)
}
