package cassandra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

func init() {
	seqstore.Stores = append(seqstore.Stores, &CassandraStore{})
}

// CassandraStore keeps one table per collection, partitioned by sequence name
// and clustered by value descending. Inserts and deletes are lightweight
// transactions, so (name, val) is decided by paxos.
type CassandraStore struct {
	cluster *gocql.ClusterConfig
	session *gocql.Session
}

func (store *CassandraStore) GetName() string {
	return "cassandra"
}

func (store *CassandraStore) Initialize(configuration util.Configuration, prefix string) (err error) {
	configuration.SetDefault(prefix+"connection_timeout_millisecond", 600)
	return store.initialize(
		configuration.GetString(prefix+"keyspace"),
		configuration.GetStringSlice(prefix+"hosts"),
		configuration.GetString(prefix+"username"),
		configuration.GetString(prefix+"password"),
		configuration.GetString(prefix+"localDC"),
		configuration.GetInt(prefix+"connection_timeout_millisecond"),
	)
}

func (store *CassandraStore) initialize(keyspace string, hosts []string, username string, password string, localDC string, timeout int) (err error) {
	store.cluster = gocql.NewCluster(hosts...)
	if username != "" && password != "" {
		store.cluster.Authenticator = gocql.PasswordAuthenticator{Username: username, Password: password}
	}
	store.cluster.Keyspace = keyspace
	store.cluster.Timeout = time.Duration(timeout) * time.Millisecond
	glog.V(0).Infof("timeout = %d", timeout)
	fallback := gocql.RoundRobinHostPolicy()
	if localDC != "" {
		fallback = gocql.DCAwareRoundRobinPolicy(localDC)
	}
	store.cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(fallback)
	store.cluster.Consistency = gocql.LocalQuorum
	store.cluster.SerialConsistency = gocql.Serial

	store.session, err = store.cluster.CreateSession()
	if err != nil {
		glog.V(0).Infof("Failed to open cassandra store, hosts %v, keyspace %s", hosts, keyspace)
	}
	return
}

func checkTableName(collection string) error {
	if collection == "" || strings.ContainsAny(collection, "\"'\x00") {
		return fmt.Errorf("invalid table name %q", collection)
	}
	return nil
}

func (store *CassandraStore) EnsureUniqueIndex(ctx context.Context, collection string) error {
	if err := checkTableName(collection); err != nil {
		return err
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS "%s" (
		name text,
		val bigint,
		PRIMARY KEY ((name), val)
	) WITH CLUSTERING ORDER BY (val DESC)`, collection)
	if err := store.session.Query(stmt).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("create table %s: %w", collection, err)
	}
	return nil
}

func (store *CassandraStore) FindLatest(ctx context.Context, collection string, name string, limit int) ([]*seqstore.SequenceRecord, error) {

	iter := store.session.Query(
		fmt.Sprintf(`SELECT val FROM "%s" WHERE name = ? LIMIT ?`, collection),
		name, limit).WithContext(ctx).Iter()

	var records []*seqstore.SequenceRecord
	var value int64
	for iter.Scan(&value) {
		records = append(records, &seqstore.SequenceRecord{
			Id:    seqstore.EncodeRecordId(seqstore.RecordKey(collection, name, value)),
			Name:  name,
			Value: value,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("find %s: %w", name, err)
	}
	return records, nil
}

func (store *CassandraStore) InsertRecord(ctx context.Context, collection string, record *seqstore.SequenceRecord, durable bool) error {

	// a lightweight transaction is committed by a quorum of replicas before it is applied
	applied, err := store.session.Query(
		fmt.Sprintf(`INSERT INTO "%s" (name, val) VALUES (?, ?) IF NOT EXISTS`, collection),
		record.Name, record.Value).WithContext(ctx).MapScanCAS(make(map[string]interface{}))
	if err != nil {
		return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, err)
	}
	if !applied {
		return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, seqstore.ErrDuplicateKey)
	}
	record.Id = seqstore.EncodeRecordId(seqstore.RecordKey(collection, record.Name, record.Value))
	return nil
}

func (store *CassandraStore) DeleteRecord(ctx context.Context, collection string, recordId string) error {
	key, err := seqstore.DecodeRecordId(recordId)
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}
	_, name, value, err := seqstore.ParseRecordKey(key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}

	applied, err := store.session.Query(
		fmt.Sprintf(`DELETE FROM "%s" WHERE name = ? AND val = ? IF EXISTS`, collection),
		name, value).WithContext(ctx).MapScanCAS(make(map[string]interface{}))
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}
	if !applied {
		return fmt.Errorf("delete %s: %w", recordId, seqstore.ErrNotFound)
	}
	return nil
}

func (store *CassandraStore) Shutdown() {
	store.session.Close()
}
