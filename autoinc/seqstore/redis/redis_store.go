package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

func init() {
	seqstore.Stores = append(seqstore.Stores, &RedisStore{})
}

// RedisStore talks to a single server, or to a cluster when more than one address is given.
type RedisStore struct {
	UniversalRedisStore
}

func (store *RedisStore) GetName() string {
	return "redis"
}

func (store *RedisStore) Initialize(configuration util.Configuration, prefix string) (err error) {

	configuration.SetDefault(prefix+"addresses", []string{"localhost:6379"})
	configuration.SetDefault(prefix+"keyPrefix", "autoinc:")
	configuration.SetDefault(prefix+"waitAof", false)
	configuration.SetDefault(prefix+"waitAofTimeoutMs", 1000)

	return store.initialize(
		configuration.GetStringSlice(prefix+"addresses"),
		configuration.GetString(prefix+"password"),
		configuration.GetInt(prefix+"database"),
		configuration.GetString(prefix+"keyPrefix"),
		configuration.GetBool(prefix+"waitAof"),
		time.Duration(configuration.GetInt(prefix+"waitAofTimeoutMs"))*time.Millisecond,
	)
}

func (store *RedisStore) initialize(addresses []string, password string, database int, keyPrefix string, waitAof bool, waitTimeout time.Duration) (err error) {
	store.Client = redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    addresses,
		Password: password,
		DB:       database,
	})
	store.keyPrefix = keyPrefix
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout+5*time.Second)
	defer cancel()
	if err = store.enableWaitAof(ctx, waitAof, waitTimeout); err != nil {
		store.Client.Close()
		return err
	}
	return
}
