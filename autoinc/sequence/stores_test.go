package sequence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore/leveldb"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore/sqlite"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

func newSqliteStore(t *testing.T) seqstore.SequenceStore {
	config := util.NewViperProxy()
	config.Set("sqlite.dbFile", dbPath(t, "sequence.db"))
	store := &sqlite.SqliteStore{}
	require.Nil(t, store.Initialize(config, "sqlite."))
	return store
}

func newLevelDBStore(t *testing.T) seqstore.SequenceStore {
	config := util.NewViperProxy()
	config.Set("leveldb.dir", dbPath(t, "leveldb"))
	store := &leveldb.LevelDBStore{}
	require.Nil(t, store.Initialize(config, "leveldb."))
	return store
}
