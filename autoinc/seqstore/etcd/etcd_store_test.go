package etcd

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore/store_test"
)

func TestStore(t *testing.T) {
	// e.g. ETCD_ENDPOINTS=localhost:2379
	servers := os.Getenv("ETCD_ENDPOINTS")
	if servers == "" {
		t.Skip("ETCD_ENDPOINTS not set")
	}
	store := &EtcdStore{etcdKeyPrefix: "autoinc_test."}
	require.Nil(t, store.initialize(servers, "", "", 3*time.Second, nil))
	defer store.Shutdown()

	store_test.TestSequenceStore(t, store)
}
