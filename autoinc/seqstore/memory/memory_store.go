package memory

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/btree"
	"github.com/google/uuid"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

func init() {
	seqstore.Stores = append(seqstore.Stores, &MemoryStore{})
}

// MemoryStore keeps records in process memory, mostly for testing purpose.
// The uniqueness of (name, value) is enforced under the store lock.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]*collection
}

type collection struct {
	records *btree.BTreeG[*seqstore.SequenceRecord]
	byId    map[string]*seqstore.SequenceRecord
}

func less(a, b *seqstore.SequenceRecord) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Value < b.Value
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*collection)}
}

func (store *MemoryStore) GetName() string {
	return "memory"
}

func (store *MemoryStore) Initialize(configuration util.Configuration, prefix string) (err error) {
	store.collections = make(map[string]*collection)
	return nil
}

func (store *MemoryStore) getCollection(name string) *collection {
	if store.collections == nil {
		store.collections = make(map[string]*collection)
	}
	c, found := store.collections[name]
	if !found {
		c = &collection{
			records: btree.NewG[*seqstore.SequenceRecord](32, less),
			byId:    make(map[string]*seqstore.SequenceRecord),
		}
		store.collections[name] = c
	}
	return c
}

func (store *MemoryStore) EnsureUniqueIndex(ctx context.Context, collection string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.getCollection(collection)
	return nil
}

func (store *MemoryStore) FindLatest(ctx context.Context, collection string, name string, limit int) (records []*seqstore.SequenceRecord, err error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	pivot := &seqstore.SequenceRecord{Name: name, Value: math.MaxInt64}
	store.getCollection(collection).records.DescendLessOrEqual(pivot, func(record *seqstore.SequenceRecord) bool {
		if record.Name != name || len(records) >= limit {
			return false
		}
		copied := *record
		records = append(records, &copied)
		return true
	})
	return records, nil
}

func (store *MemoryStore) InsertRecord(ctx context.Context, collection string, record *seqstore.SequenceRecord, durable bool) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	c := store.getCollection(collection)
	if c.records.Has(record) {
		return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, seqstore.ErrDuplicateKey)
	}
	stored := &seqstore.SequenceRecord{
		Id:    uuid.NewString(),
		Name:  record.Name,
		Value: record.Value,
	}
	c.records.ReplaceOrInsert(stored)
	c.byId[stored.Id] = stored
	record.Id = stored.Id
	return nil
}

func (store *MemoryStore) DeleteRecord(ctx context.Context, collection string, recordId string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	c := store.getCollection(collection)
	record, found := c.byId[recordId]
	if !found {
		return fmt.Errorf("delete %s: %w", recordId, seqstore.ErrNotFound)
	}
	delete(c.byId, recordId)
	c.records.Delete(record)
	return nil
}

func (store *MemoryStore) Shutdown() {
}
