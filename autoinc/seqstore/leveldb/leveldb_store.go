package leveldb

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	leveldb_errors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	leveldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

func init() {
	seqstore.Stores = append(seqstore.Stores, &LevelDBStore{})
}

// LevelDBStore keeps records in a local LevelDB folder.
// LevelDB locks its folder, so only this process allocates from it.
// Insert-if-absent is serialized by writeLock, which stands in for a unique index.
type LevelDBStore struct {
	dir       string
	db        *leveldb.DB
	writeLock sync.Mutex
}

func (store *LevelDBStore) GetName() string {
	return "leveldb"
}

func (store *LevelDBStore) Initialize(configuration util.Configuration, prefix string) (err error) {
	dir := configuration.GetString(prefix + "dir")
	return store.initialize(dir)
}

func (store *LevelDBStore) initialize(dir string) (err error) {
	glog.Infof("sequence store leveldb dir: %s", dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create leveldb folder %s: %w", dir, err)
	}
	store.dir = dir

	opts := &opt.Options{
		BlockCacheCapacity: 8 * 1024 * 1024, // default value is 8MiB
		WriteBuffer:        4 * 1024 * 1024, // default value is 4MiB
		Filter:             filter.NewBloomFilter(8),
	}

	store.db, err = leveldb.OpenFile(dir, opts)
	if leveldb_errors.IsCorrupted(err) {
		store.db, err = leveldb.RecoverFile(dir, opts)
	}
	if err != nil {
		glog.Errorf("sequence store open dir %s: %v", dir, err)
		return err
	}
	return nil
}

func (store *LevelDBStore) EnsureUniqueIndex(ctx context.Context, collection string) error {
	// keys are (collection, name, value), so the key space is the unique index
	return nil
}

func (store *LevelDBStore) FindLatest(ctx context.Context, collection string, name string, limit int) (records []*seqstore.SequenceRecord, err error) {
	iter := store.db.NewIterator(leveldb_util.BytesPrefix(seqstore.RecordKeyPrefix(collection, name)), nil)
	defer iter.Release()

	for ok := iter.Last(); ok && len(records) < limit; ok = iter.Prev() {
		key := append([]byte(nil), iter.Key()...)
		_, recordName, value, parseErr := seqstore.ParseRecordKey(key)
		if parseErr != nil {
			return nil, fmt.Errorf("find %s: %w", name, parseErr)
		}
		records = append(records, &seqstore.SequenceRecord{
			Id:    seqstore.EncodeRecordId(key),
			Name:  recordName,
			Value: value,
		})
	}
	if err = iter.Error(); err != nil {
		return nil, fmt.Errorf("find %s: %w", name, err)
	}
	return records, nil
}

func (store *LevelDBStore) InsertRecord(ctx context.Context, collection string, record *seqstore.SequenceRecord, durable bool) error {
	key := seqstore.RecordKey(collection, record.Name, record.Value)

	store.writeLock.Lock()
	defer store.writeLock.Unlock()

	found, err := store.db.Has(key, nil)
	if err != nil {
		return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, err)
	}
	if found {
		return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, seqstore.ErrDuplicateKey)
	}

	if err = store.db.Put(key, nil, &opt.WriteOptions{Sync: durable}); err != nil {
		return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, err)
	}
	record.Id = seqstore.EncodeRecordId(key)
	return nil
}

func (store *LevelDBStore) DeleteRecord(ctx context.Context, collection string, recordId string) error {
	key, err := seqstore.DecodeRecordId(recordId)
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}

	store.writeLock.Lock()
	defer store.writeLock.Unlock()

	found, err := store.db.Has(key, nil)
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}
	if !found {
		return fmt.Errorf("delete %s: %w", recordId, seqstore.ErrNotFound)
	}
	if err = store.db.Delete(key, nil); err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}
	return nil
}

func (store *LevelDBStore) Shutdown() {
	if store.db != nil {
		store.db.Close()
	}
}
