package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
)

// TestSequenceStore exercises the contract every SequenceStore must honor.
// Sequence names are randomized so the suite can run against a shared server.
func TestSequenceStore(t *testing.T, store seqstore.SequenceStore) {
	ctx := context.Background()
	collection := seqstore.DefaultCollection
	name := "orders-" + uuid.NewString()

	require.Nil(t, store.EnsureUniqueIndex(ctx, collection), "ensure index")
	require.Nil(t, store.EnsureUniqueIndex(ctx, collection), "ensure index again")

	records, err := store.FindLatest(ctx, collection, name, 1)
	assert.Nil(t, err, "find on empty sequence")
	assert.Empty(t, records, "find on empty sequence")

	ids := make(map[int64]string)
	for _, value := range []int64{1, 3, 2} {
		record := &seqstore.SequenceRecord{Name: name, Value: value}
		require.Nil(t, store.InsertRecord(ctx, collection, record, true), "insert %d", value)
		assert.NotEmpty(t, record.Id, "insert %d assigns id", value)
		ids[value] = record.Id
	}
	assert.Len(t, uniqueIds(ids), 3, "record ids are distinct")

	err = store.InsertRecord(ctx, collection, &seqstore.SequenceRecord{Name: name, Value: 2}, true)
	assert.ErrorIs(t, err, seqstore.ErrDuplicateKey, "duplicate (name, value)")

	// the same value under another name is not a duplicate
	sibling := name + "-1"
	require.Nil(t, store.InsertRecord(ctx, collection, &seqstore.SequenceRecord{Name: sibling, Value: 10}, true))
	require.Nil(t, store.InsertRecord(ctx, collection, &seqstore.SequenceRecord{Name: sibling, Value: 2}, true))

	records, err = store.FindLatest(ctx, collection, name, 1)
	require.Nil(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(3), records[0].Value)
	assert.Equal(t, name, records[0].Name)
	assert.Equal(t, ids[3], records[0].Id)

	records, err = store.FindLatest(ctx, collection, name, 2)
	require.Nil(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(3), records[0].Value)
	assert.Equal(t, int64(2), records[1].Value)

	require.Nil(t, store.DeleteRecord(ctx, collection, ids[3]), "delete latest")
	records, err = store.FindLatest(ctx, collection, name, 1)
	require.Nil(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(2), records[0].Value, "previous value after delete")

	err = store.DeleteRecord(ctx, collection, ids[3])
	assert.ErrorIs(t, err, seqstore.ErrNotFound, "delete twice")

	records, err = store.FindLatest(ctx, collection, sibling, 1)
	require.Nil(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(10), records[0].Value, "sibling sequence untouched")

	testInsertRace(t, store, collection)
}

func testInsertRace(t *testing.T, store seqstore.SequenceStore, collection string) {
	ctx := context.Background()
	name := "race-" + uuid.NewString()

	var wg sync.WaitGroup
	var succeeded, duplicated int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.InsertRecord(ctx, collection, &seqstore.SequenceRecord{Name: name, Value: 1}, true)
			switch {
			case err == nil:
				atomic.AddInt32(&succeeded, 1)
			case assert.ErrorIs(t, err, seqstore.ErrDuplicateKey):
				atomic.AddInt32(&duplicated, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded, "exactly one racer wins")
	assert.Equal(t, int32(7), duplicated, "all other racers see a duplicate key")
}

func uniqueIds(ids map[int64]string) map[string]bool {
	set := make(map[string]bool)
	for _, id := range ids {
		set[id] = true
	}
	return set
}
