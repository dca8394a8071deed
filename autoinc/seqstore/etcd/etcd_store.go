package etcd

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/etcd/client/pkg/v3/transport"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

func init() {
	seqstore.Stores = append(seqstore.Stores, &EtcdStore{})
}

// EtcdStore keeps each record as an empty key. Keys are created only if their
// create revision is 0, which makes the key space the unique index.
type EtcdStore struct {
	client        *clientv3.Client
	etcdKeyPrefix string
	timeout       time.Duration
}

func (store *EtcdStore) GetName() string {
	return "etcd"
}

func (store *EtcdStore) Initialize(configuration util.Configuration, prefix string) error {
	configuration.SetDefault(prefix+"servers", "localhost:2379")
	configuration.SetDefault(prefix+"timeout", "3s")
	configuration.SetDefault(prefix+"key_prefix", "autoinc.")

	servers := configuration.GetString(prefix + "servers")
	username := configuration.GetString(prefix + "username")
	password := configuration.GetString(prefix + "password")
	store.etcdKeyPrefix = configuration.GetString(prefix + "key_prefix")

	timeoutStr := configuration.GetString(prefix + "timeout")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return fmt.Errorf("parse etcd store timeout: %w", err)
	}
	store.timeout = timeout

	certFile := configuration.GetString(prefix + "tls_client_crt_file")
	keyFile := configuration.GetString(prefix + "tls_client_key_file")
	caFile := configuration.GetString(prefix + "tls_ca_file")

	var tlsConfig *tls.Config
	if caFile != "" {
		tlsInfo := transport.TLSInfo{
			CertFile:      certFile,
			KeyFile:       keyFile,
			TrustedCAFile: caFile,
		}
		tlsConfig, err = tlsInfo.ClientConfig()
		if err != nil {
			return fmt.Errorf("etcd store tls: %w", err)
		}
	}

	return store.initialize(servers, username, password, store.timeout, tlsConfig)
}

func (store *EtcdStore) initialize(servers, username, password string, timeout time.Duration, tlsConfig *tls.Config) error {
	glog.Infof("sequence store etcd: %s", servers)

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   strings.Split(servers, ","),
		Username:    username,
		Password:    password,
		DialTimeout: timeout,
		TLS:         tlsConfig,
	})
	if err != nil {
		return fmt.Errorf("connect to etcd %s: %w", servers, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	resp, err := client.Status(ctx, client.Endpoints()[0])
	if err != nil {
		client.Close()
		return fmt.Errorf("error checking etcd connection: %w", err)
	}

	glog.V(0).Infof("connection to etcd has been successfully verified. etcd version: %s", resp.Version)
	store.client = client

	return nil
}

func (store *EtcdStore) etcdKey(key []byte) string {
	return store.etcdKeyPrefix + string(key)
}

func (store *EtcdStore) EnsureUniqueIndex(ctx context.Context, collection string) error {
	return nil
}

func (store *EtcdStore) FindLatest(ctx context.Context, collection string, name string, limit int) ([]*seqstore.SequenceRecord, error) {

	resp, err := store.client.Get(ctx, store.etcdKey(seqstore.RecordKeyPrefix(collection, name)),
		clientv3.WithPrefix(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortDescend),
		clientv3.WithLimit(int64(limit)),
		clientv3.WithKeysOnly(),
	)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", name, err)
	}

	records := make([]*seqstore.SequenceRecord, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		key := kv.Key[len(store.etcdKeyPrefix):]
		_, recordName, value, parseErr := seqstore.ParseRecordKey(key)
		if parseErr != nil {
			return nil, fmt.Errorf("find %s: %w", name, parseErr)
		}
		records = append(records, &seqstore.SequenceRecord{
			Id:    seqstore.EncodeRecordId(key),
			Name:  recordName,
			Value: value,
		})
	}
	return records, nil
}

func (store *EtcdStore) InsertRecord(ctx context.Context, collection string, record *seqstore.SequenceRecord, durable bool) error {
	key := seqstore.RecordKey(collection, record.Name, record.Value)
	etcdKey := store.etcdKey(key)

	// committed through raft, so every successful put is durable
	resp, err := store.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(etcdKey), "=", 0)).
		Then(clientv3.OpPut(etcdKey, "")).
		Commit()
	if err != nil {
		return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, err)
	}
	if !resp.Succeeded {
		return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, seqstore.ErrDuplicateKey)
	}
	record.Id = seqstore.EncodeRecordId(key)
	return nil
}

func (store *EtcdStore) DeleteRecord(ctx context.Context, collection string, recordId string) error {
	key, err := seqstore.DecodeRecordId(recordId)
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}

	resp, err := store.client.Delete(ctx, store.etcdKey(key))
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}
	if resp.Deleted == 0 {
		return fmt.Errorf("delete %s: %w", recordId, seqstore.ErrNotFound)
	}
	return nil
}

func (store *EtcdStore) Shutdown() {
	store.client.Close()
}
