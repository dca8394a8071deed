package seqstore

import (
	"context"
	"time"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
	"github.com/JuhQ/MongoHelper/autoinc/stats"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

// SequenceStoreWrapper records request counts and latencies of the actual store.
type SequenceStoreWrapper struct {
	ActualStore SequenceStore
}

func NewSequenceStoreWrapper(store SequenceStore) *SequenceStoreWrapper {
	if innerStore, ok := store.(*SequenceStoreWrapper); ok {
		return innerStore
	}
	return &SequenceStoreWrapper{
		ActualStore: store,
	}
}

func (ssw *SequenceStoreWrapper) GetName() string {
	return ssw.ActualStore.GetName()
}

func (ssw *SequenceStoreWrapper) Initialize(configuration util.Configuration, prefix string) error {
	return ssw.ActualStore.Initialize(configuration, prefix)
}

func (ssw *SequenceStoreWrapper) observe(op string) func() {
	stats.StoreRequestCounter.WithLabelValues(ssw.ActualStore.GetName(), op).Inc()
	start := time.Now()
	return func() {
		stats.StoreRequestHistogram.WithLabelValues(ssw.ActualStore.GetName(), op).Observe(time.Since(start).Seconds())
	}
}

func (ssw *SequenceStoreWrapper) EnsureUniqueIndex(ctx context.Context, collection string) error {
	defer ssw.observe("ensureIndex")()

	glog.V(4).Infof("EnsureUniqueIndex %s", collection)
	return ssw.ActualStore.EnsureUniqueIndex(ctx, collection)
}

func (ssw *SequenceStoreWrapper) FindLatest(ctx context.Context, collection string, name string, limit int) ([]*SequenceRecord, error) {
	defer ssw.observe("find")()

	glog.V(4).Infof("FindLatest %s/%s limit %d", collection, name, limit)
	return ssw.ActualStore.FindLatest(ctx, collection, name, limit)
}

func (ssw *SequenceStoreWrapper) InsertRecord(ctx context.Context, collection string, record *SequenceRecord, durable bool) error {
	defer ssw.observe("insert")()

	glog.V(4).Infof("InsertRecord %s/%s %d durable:%v", collection, record.Name, record.Value, durable)
	return ssw.ActualStore.InsertRecord(ctx, collection, record, durable)
}

func (ssw *SequenceStoreWrapper) DeleteRecord(ctx context.Context, collection string, recordId string) error {
	defer ssw.observe("delete")()

	glog.V(4).Infof("DeleteRecord %s %s", collection, recordId)
	return ssw.ActualStore.DeleteRecord(ctx, collection, recordId)
}

func (ssw *SequenceStoreWrapper) Shutdown() {
	ssw.ActualStore.Shutdown()
}
