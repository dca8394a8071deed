package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
)

// UniversalRedisStore keeps one sorted set per sequence. Every member has
// score 0 and is the 16 digit hex of the value with the sign bit flipped, so
// lexical order is numeric order and ZADD NX is the unique constraint.
type UniversalRedisStore struct {
	Client      redis.UniversalClient
	keyPrefix   string
	waitAof     bool
	waitTimeout time.Duration
}

func (store *UniversalRedisStore) sequenceKey(collection, name string) string {
	return fmt.Sprintf("%s%d:%s:%s", store.keyPrefix, len(collection), collection, name)
}

func encodeMember(value int64) string {
	return fmt.Sprintf("%016x", uint64(value)^(1<<63))
}

func decodeMember(member string) (int64, error) {
	u, err := strconv.ParseUint(member, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("member %q: %w", member, err)
	}
	return int64(u ^ (1 << 63)), nil
}

func (store *UniversalRedisStore) EnsureUniqueIndex(ctx context.Context, collection string) error {
	// sorted set members are unique
	return nil
}

func (store *UniversalRedisStore) FindLatest(ctx context.Context, collection string, name string, limit int) ([]*seqstore.SequenceRecord, error) {

	members, err := store.Client.ZRevRangeByLex(ctx, store.sequenceKey(collection, name), &redis.ZRangeBy{
		Max:   "+",
		Min:   "-",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", name, err)
	}

	records := make([]*seqstore.SequenceRecord, 0, len(members))
	for _, member := range members {
		value, err := decodeMember(member)
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", name, err)
		}
		records = append(records, &seqstore.SequenceRecord{
			Id:    seqstore.EncodeRecordId(seqstore.RecordKey(collection, name, value)),
			Name:  name,
			Value: value,
		})
	}
	return records, nil
}

func (store *UniversalRedisStore) InsertRecord(ctx context.Context, collection string, record *seqstore.SequenceRecord, durable bool) error {

	key := store.sequenceKey(collection, record.Name)
	member := redis.Z{
		Score:  0,
		Member: encodeMember(record.Value),
	}

	var addCmd *redis.IntCmd
	var waitCmd *redis.Cmd
	if durable && store.waitAof {
		// WAITAOF only waits for writes sent on its own connection,
		// so both commands go out in one pipeline to the master of the key.
		client, err := store.clientForKey(ctx, key)
		if err != nil {
			return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, err)
		}
		_, _ = client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			addCmd = pipe.ZAddNX(ctx, key, member)
			waitCmd = waitAof(ctx, pipe, store.waitTimeout)
			return nil
		})
	} else {
		addCmd = store.Client.ZAddNX(ctx, key, member)
	}

	added, err := addCmd.Result()
	if err != nil {
		return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, err)
	}
	if added == 0 {
		return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, seqstore.ErrDuplicateKey)
	}
	if waitCmd != nil {
		if err = checkLocalFsync(waitCmd, store.waitTimeout); err != nil {
			return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, err)
		}
	}

	record.Id = seqstore.EncodeRecordId(seqstore.RecordKey(collection, record.Name, record.Value))
	return nil
}

// clientForKey returns the client of the node owning key.
func (store *UniversalRedisStore) clientForKey(ctx context.Context, key string) (redis.UniversalClient, error) {
	if cluster, ok := store.Client.(*redis.ClusterClient); ok {
		client, err := cluster.MasterForKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("master for %s: %w", key, err)
		}
		return client, nil
	}
	return store.Client, nil
}

// enableWaitAof makes durable inserts wait for the local AOF fsync. It fails
// unless every master accepts WAITAOF, which needs redis 7.2 and appendonly yes.
func (store *UniversalRedisStore) enableWaitAof(ctx context.Context, enabled bool, timeout time.Duration) error {
	store.waitAof = false
	store.waitTimeout = timeout
	if !enabled {
		return nil
	}

	check := func(ctx context.Context, client redis.UniversalClient) error {
		return checkLocalFsync(waitAof(ctx, client, timeout), timeout)
	}
	var err error
	if cluster, ok := store.Client.(*redis.ClusterClient); ok {
		err = cluster.ForEachMaster(ctx, func(ctx context.Context, client *redis.Client) error {
			return check(ctx, client)
		})
	} else {
		err = check(ctx, store.Client)
	}
	if err != nil {
		return fmt.Errorf("waitAof needs redis 7.2 or later with appendonly yes: %w", err)
	}

	store.waitAof = true
	return nil
}

// go-redis WaitAOF reads the reply as an integer, but WAITAOF answers [numlocal, numreplicas].
func waitAof(ctx context.Context, client interface {
	Do(ctx context.Context, args ...interface{}) *redis.Cmd
}, timeout time.Duration) *redis.Cmd {
	return client.Do(ctx, "WAITAOF", 1, 0, timeout.Milliseconds())
}

func checkLocalFsync(cmd *redis.Cmd, timeout time.Duration) error {
	reply, err := cmd.Slice()
	if err != nil {
		return fmt.Errorf("waitaof: %w", err)
	}
	if len(reply) == 0 {
		return fmt.Errorf("waitaof: empty reply")
	}
	if local, ok := reply[0].(int64); !ok || local < 1 {
		return fmt.Errorf("waitaof: not fsynced within %v", timeout)
	}
	return nil
}

func (store *UniversalRedisStore) DeleteRecord(ctx context.Context, collection string, recordId string) error {

	key, err := seqstore.DecodeRecordId(recordId)
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}
	recordCollection, name, value, err := seqstore.ParseRecordKey(key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}
	if recordCollection != collection {
		return fmt.Errorf("delete %s: %w", recordId, seqstore.ErrNotFound)
	}

	removed, err := store.Client.ZRem(ctx, store.sequenceKey(collection, name), encodeMember(value)).Result()
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}
	if removed == 0 {
		return fmt.Errorf("delete %s: %w", recordId, seqstore.ErrNotFound)
	}
	return nil
}

func (store *UniversalRedisStore) Shutdown() {
	store.Client.Close()
}
