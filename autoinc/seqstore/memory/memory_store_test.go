package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore/store_test"
)

func TestStore(t *testing.T) {
	store_test.TestSequenceStore(t, NewMemoryStore())
}

func TestCollectionsAreSeparate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.Nil(t, store.InsertRecord(ctx, "a", &seqstore.SequenceRecord{Name: "orders", Value: 5}, false))
	require.Nil(t, store.InsertRecord(ctx, "b", &seqstore.SequenceRecord{Name: "orders", Value: 5}, false))

	records, err := store.FindLatest(ctx, "a", "orders", 10)
	require.Nil(t, err)
	assert.Len(t, records, 1)
}

func TestFindLatestReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.Nil(t, store.InsertRecord(ctx, "c", &seqstore.SequenceRecord{Name: "orders", Value: 1}, false))

	records, err := store.FindLatest(ctx, "c", "orders", 1)
	require.Nil(t, err)
	records[0].Value = 100

	records, err = store.FindLatest(ctx, "c", "orders", 1)
	require.Nil(t, err)
	assert.Equal(t, int64(1), records[0].Value)
}
