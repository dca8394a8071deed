package seqstore

import (
	"context"
	"errors"

	"github.com/JuhQ/MongoHelper/autoinc/util"
)

// DefaultCollection holds the records of every sequence unless configured otherwise.
// Changing it after values have been handed out restarts all sequences.
const DefaultCollection = "Autoincrement"

var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotFound     = errors.New("record not found")
)

// SequenceRecord is one stored value of a named sequence.
// Records are inserted and deleted, never updated.
type SequenceRecord struct {
	Id    string // assigned by the store on insert
	Name  string
	Value int64
}

type SequenceStore interface {
	// GetName gets the name to locate the configuration in sequence.toml file
	GetName() string
	// Initialize initializes the store from the keys under prefix, e.g. "mongodb."
	Initialize(configuration util.Configuration, prefix string) error
	// EnsureUniqueIndex makes (name, value) unique within the collection. Idempotent.
	EnsureUniqueIndex(ctx context.Context, collection string) error
	// FindLatest returns up to limit records of the named sequence, highest value first.
	FindLatest(ctx context.Context, collection string, name string, limit int) ([]*SequenceRecord, error)
	// InsertRecord stores record and sets record.Id.
	// err wraps ErrDuplicateKey if (name, value) is taken.
	// With durable set it must not return before the write is on stable storage.
	InsertRecord(ctx context.Context, collection string, record *SequenceRecord, durable bool) error
	// DeleteRecord removes the record with the given id. err wraps ErrNotFound if it is absent.
	DeleteRecord(ctx context.Context, collection string, recordId string) error

	Shutdown()
}
