package leveldb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore/store_test"
)

func TestStore(t *testing.T) {
	store := &LevelDBStore{}
	require.Nil(t, store.initialize(t.TempDir()))
	defer store.Shutdown()

	store_test.TestSequenceStore(t, store)
}

func TestValuesSurviveReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := &LevelDBStore{}
	require.Nil(t, store.initialize(dir))
	require.Nil(t, store.InsertRecord(ctx, seqstore.DefaultCollection, &seqstore.SequenceRecord{Name: "orders", Value: 7}, true))
	store.Shutdown()

	reopened := &LevelDBStore{}
	require.Nil(t, reopened.initialize(dir))
	defer reopened.Shutdown()

	records, err := reopened.FindLatest(ctx, seqstore.DefaultCollection, "orders", 1)
	require.Nil(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(7), records[0].Value)
}
