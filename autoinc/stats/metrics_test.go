package stats

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestJoinHostPort(t *testing.T) {
	assert.Equal(t, "localhost:9327", JoinHostPort("localhost", 9327))
	assert.Equal(t, "[::1]:9327", JoinHostPort("[::1]", 9327))
	assert.Equal(t, "[::1]:9327", JoinHostPort("::1", 9327))
}

func TestStoreCounterRegistered(t *testing.T) {
	before := testutil.ToFloat64(StoreRequestCounter.WithLabelValues("test", "insert"))
	StoreRequestCounter.WithLabelValues("test", "insert").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(StoreRequestCounter.WithLabelValues("test", "insert")))

	families, err := Gather.Gather()
	assert.Nil(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() == "Autoinc_store_request_total" {
			found = true
		}
	}
	assert.True(t, found, "store counter should be gathered")
}
