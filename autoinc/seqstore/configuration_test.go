package seqstore

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JuhQ/MongoHelper/autoinc/stats"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

type fakeStore struct {
	prefix string
}

func (store *fakeStore) GetName() string {
	return "fake"
}

func (store *fakeStore) Initialize(configuration util.Configuration, prefix string) error {
	if configuration.GetBool(prefix + "broken") {
		return errors.New("broken")
	}
	store.prefix = prefix
	return nil
}

func (store *fakeStore) EnsureUniqueIndex(ctx context.Context, collection string) error {
	return nil
}

func (store *fakeStore) FindLatest(ctx context.Context, collection string, name string, limit int) ([]*SequenceRecord, error) {
	return nil, nil
}

func (store *fakeStore) InsertRecord(ctx context.Context, collection string, record *SequenceRecord, durable bool) error {
	record.Id = "1"
	return nil
}

func (store *fakeStore) DeleteRecord(ctx context.Context, collection string, recordId string) error {
	return ErrNotFound
}

func (store *fakeStore) Shutdown() {
}

type otherStore struct {
	fakeStore
}

func (store *otherStore) GetName() string {
	return "other"
}

func withStores(t *testing.T, stores ...SequenceStore) {
	saved := Stores
	Stores = stores
	t.Cleanup(func() { Stores = saved })
}

func configOf(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	for key, value := range values {
		v.Set(key, value)
	}
	return v
}

func TestLoadStore(t *testing.T) {
	registered := &fakeStore{}
	withStores(t, registered, &otherStore{})

	store, err := LoadStore(configOf(map[string]interface{}{"fake.enabled": true}))
	require.Nil(t, err)
	assert.Equal(t, "fake", store.GetName())

	wrapper, ok := store.(*SequenceStoreWrapper)
	require.True(t, ok)
	actual := wrapper.ActualStore.(*fakeStore)
	assert.NotSame(t, registered, actual, "a fresh instance is initialized")
	assert.Equal(t, "fake.", actual.prefix)
	assert.Empty(t, registered.prefix)
}

func TestLoadStoreErrors(t *testing.T) {
	withStores(t, &fakeStore{}, &otherStore{})

	_, err := LoadStore(configOf(nil))
	assert.ErrorContains(t, err, "no sequence store enabled")

	_, err = LoadStore(configOf(map[string]interface{}{"fake.enabled": true, "other.enabled": true}))
	assert.ErrorContains(t, err, "both fake and other")

	_, err = LoadStore(configOf(map[string]interface{}{"fake.enabled": true, "fake.broken": true}))
	assert.ErrorContains(t, err, "initialize store fake")
}

func TestStoreNames(t *testing.T) {
	withStores(t, &otherStore{}, &fakeStore{})
	assert.Equal(t, []string{"fake", "other"}, StoreNames())
}

func TestSequenceStoreWrapper(t *testing.T) {
	ctx := context.Background()
	wrapper := NewSequenceStoreWrapper(&fakeStore{})
	assert.Same(t, wrapper, NewSequenceStoreWrapper(wrapper), "wrapping twice returns the same wrapper")

	before := testutil.ToFloat64(stats.StoreRequestCounter.WithLabelValues("fake", "insert"))
	record := &SequenceRecord{Name: "orders", Value: 1}
	require.Nil(t, wrapper.InsertRecord(ctx, DefaultCollection, record, true))
	assert.Equal(t, "1", record.Id)
	assert.Equal(t, before+1, testutil.ToFloat64(stats.StoreRequestCounter.WithLabelValues("fake", "insert")))

	err := wrapper.DeleteRecord(ctx, DefaultCollection, "1")
	assert.ErrorIs(t, err, ErrNotFound, "errors pass through")
}
