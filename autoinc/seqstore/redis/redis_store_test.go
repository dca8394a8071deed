package redis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stvp/tempredis"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore/store_test"
)

func TestMemberOrder(t *testing.T) {
	values := []int64{math.MinInt64, -2, -1, 0, 1, 2, 255, 256, math.MaxInt64}
	for i, value := range values {
		decoded, err := decodeMember(encodeMember(value))
		require.Nil(t, err)
		assert.Equal(t, value, decoded)
		if i > 0 {
			assert.Less(t, encodeMember(values[i-1]), encodeMember(value), "%d before %d", values[i-1], value)
		}
	}

	_, err := decodeMember("not-hex")
	assert.NotNil(t, err)
}

func TestSequenceKey(t *testing.T) {
	store := &UniversalRedisStore{keyPrefix: "autoinc:"}
	assert.Equal(t, "autoinc:13:Autoincrement:orders", store.sequenceKey("Autoincrement", "orders"))
	assert.NotEqual(t, store.sequenceKey("a:b", "c"), store.sequenceKey("a", "b:c"))
}

func TestStore(t *testing.T) {
	if _, err := exec.LookPath("redis-server"); err != nil {
		t.Skip("redis-server not installed")
	}
	server, err := tempredis.Start(tempredis.Config{})
	require.Nil(t, err)
	defer server.Term()

	store := &RedisStore{}
	store.Client = redis.NewClient(&redis.Options{
		Network: "unix",
		Addr:    server.Socket(),
	})
	store.keyPrefix = "autoinc:"
	defer store.Shutdown()

	store_test.TestSequenceStore(t, store)
}

// scriptedRedis answers ZADD NX and WAITAOF in place of a server and records
// how the commands were sent.
type scriptedRedis struct {
	mu        sync.Mutex
	members   map[string]bool
	single    []string
	pipelines [][]string
	waitReply []interface{}
	waitErr   error
}

func newScriptedClient(h *scriptedRedis) *redis.Client {
	h.members = make(map[string]bool)
	if h.waitReply == nil {
		h.waitReply = []interface{}{int64(1), int64(0)}
	}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	client.AddHook(h)
	return client
}

func (h *scriptedRedis) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *scriptedRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.single = append(h.single, cmd.Name())
		h.answer(cmd)
		return cmd.Err()
	}
}

func (h *scriptedRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		var names []string
		for _, cmd := range cmds {
			names = append(names, cmd.Name())
			h.answer(cmd)
		}
		h.pipelines = append(h.pipelines, names)
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}
		return nil
	}
}

func (h *scriptedRedis) answer(cmd redis.Cmder) {
	switch c := cmd.(type) {
	case *redis.IntCmd:
		args := c.Args()
		member := fmt.Sprint(args[1], "/", args[len(args)-1])
		if h.members[member] {
			c.SetVal(0)
			return
		}
		h.members[member] = true
		c.SetVal(1)
	case *redis.Cmd:
		if h.waitErr != nil {
			c.SetErr(h.waitErr)
			return
		}
		c.SetVal(h.waitReply)
	}
}

func TestDurableInsertWaitsOnSameConnection(t *testing.T) {
	ctx := context.Background()
	h := &scriptedRedis{}
	store := &RedisStore{}
	store.Client = newScriptedClient(h)
	store.keyPrefix = "autoinc:"
	defer store.Shutdown()

	require.Nil(t, store.enableWaitAof(ctx, true, time.Second))
	assert.True(t, store.waitAof)
	assert.Equal(t, []string{"waitaof"}, h.single)

	record := &seqstore.SequenceRecord{Name: "orders", Value: 7}
	require.Nil(t, store.InsertRecord(ctx, seqstore.DefaultCollection, record, true))
	assert.NotEmpty(t, record.Id)
	assert.Equal(t, [][]string{{"zadd", "waitaof"}}, h.pipelines)

	err := store.InsertRecord(ctx, seqstore.DefaultCollection, &seqstore.SequenceRecord{Name: "orders", Value: 7}, true)
	assert.True(t, errors.Is(err, seqstore.ErrDuplicateKey), "got %v", err)

	require.Nil(t, store.InsertRecord(ctx, seqstore.DefaultCollection, &seqstore.SequenceRecord{Name: "orders", Value: 8}, false))
	assert.Len(t, h.pipelines, 2)
	assert.Equal(t, []string{"waitaof", "zadd"}, h.single)
}

func TestDurableInsertNotFsynced(t *testing.T) {
	ctx := context.Background()
	h := &scriptedRedis{}
	store := &RedisStore{}
	store.Client = newScriptedClient(h)
	defer store.Shutdown()
	store.waitAof = true
	store.waitTimeout = time.Second
	h.waitReply = []interface{}{int64(0), int64(0)}

	err := store.InsertRecord(ctx, seqstore.DefaultCollection, &seqstore.SequenceRecord{Name: "orders", Value: 1}, true)
	require.NotNil(t, err)
	assert.False(t, errors.Is(err, seqstore.ErrDuplicateKey))
	assert.Contains(t, err.Error(), "not fsynced")
}

func TestEnableWaitAofUnsupported(t *testing.T) {
	ctx := context.Background()
	h := &scriptedRedis{waitErr: errors.New("ERR WAITAOF cannot be used when numlocal is set but appendonly is disabled.")}
	store := &RedisStore{}
	store.Client = newScriptedClient(h)
	defer store.Shutdown()

	err := store.enableWaitAof(ctx, true, time.Second)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "appendonly yes")
	assert.False(t, store.waitAof)

	require.Nil(t, store.enableWaitAof(ctx, false, time.Second))
	assert.False(t, store.waitAof)
	assert.Equal(t, []string{"waitaof"}, h.single)
}

func TestWaitAofRequiresAppendOnly(t *testing.T) {
	if _, err := exec.LookPath("redis-server"); err != nil {
		t.Skip("redis-server not installed")
	}
	server, err := tempredis.Start(tempredis.Config{"appendonly": "no"})
	require.Nil(t, err)
	defer server.Term()

	store := &RedisStore{}
	store.Client = redis.NewClient(&redis.Options{
		Network: "unix",
		Addr:    server.Socket(),
	})
	defer store.Shutdown()

	assert.NotNil(t, store.enableWaitAof(context.Background(), true, time.Second))
	assert.False(t, store.waitAof)
}

func TestStoreWithWaitAof(t *testing.T) {
	if _, err := exec.LookPath("redis-server"); err != nil {
		t.Skip("redis-server not installed")
	}
	server, err := tempredis.Start(tempredis.Config{
		"appendonly":  "yes",
		"appendfsync": "everysec",
		"dir":         t.TempDir(),
	})
	require.Nil(t, err)
	defer server.Term()

	store := &RedisStore{}
	store.Client = redis.NewClient(&redis.Options{
		Network: "unix",
		Addr:    server.Socket(),
	})
	store.keyPrefix = "autoinc:"
	defer store.Shutdown()

	if err := store.enableWaitAof(context.Background(), true, 2*time.Second); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			t.Skip("redis-server older than 7.2")
		}
		require.Nil(t, err)
	}
	require.True(t, store.waitAof)

	store_test.TestSequenceStore(t, store)

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.InsertRecord(ctx, seqstore.DefaultCollection, &seqstore.SequenceRecord{Name: "durable", Value: int64(i + 1)}, true)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		assert.Nil(t, err, "insert %d", i+1)
	}
}
