package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/JuhQ/MongoHelper/autoinc/glog"
	"github.com/JuhQ/MongoHelper/autoinc/seqstore"
	"github.com/JuhQ/MongoHelper/autoinc/util"
)

func init() {
	seqstore.Stores = append(seqstore.Stores, &MongodbStore{})
}

type MongodbStore struct {
	connect  *mongo.Client
	database string
}

// Model is one sequence record. The field names match documents
// written by earlier versions of the helper: coll is the sequence name, id the value.
type Model struct {
	ObjectId primitive.ObjectID `bson:"_id,omitempty"`
	Coll     string             `bson:"coll"`
	Id       int64              `bson:"id"`
}

func (store *MongodbStore) GetName() string {
	return "mongodb"
}

func (store *MongodbStore) Initialize(configuration util.Configuration, prefix string) (err error) {
	store.database = configuration.GetString(prefix + "database")
	poolSize := configuration.GetInt(prefix + "option_pool_size")
	return store.connection(configuration.GetString(prefix+"uri"), uint64(poolSize))
}

func (store *MongodbStore) connection(uri string, poolSize uint64) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri)

	if poolSize > 0 {
		opts.SetMaxPoolSize(poolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return err
	}
	if err = client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return fmt.Errorf("ping %s: %w", store.database, err)
	}

	store.connect = client
	return nil
}

func (store *MongodbStore) collection(collection string, durable bool) *mongo.Collection {
	if !durable {
		return store.connect.Database(store.database).Collection(collection)
	}
	// acknowledged by a majority and written to their journals
	wc := writeconcern.Majority()
	journal := true
	wc.Journal = &journal
	return store.connect.Database(store.database).Collection(collection, options.Collection().SetWriteConcern(wc))
}

func (store *MongodbStore) EnsureUniqueIndex(ctx context.Context, collection string) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "coll", Value: 1}, {Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	opts := options.CreateIndexes().SetMaxTime(10 * time.Second)

	// creating an identical index again is a no-op on the server
	if _, err := store.collection(collection, false).Indexes().CreateOne(ctx, index, opts); err != nil {
		return fmt.Errorf("create index on %s: %w", collection, err)
	}
	return nil
}

func (store *MongodbStore) FindLatest(ctx context.Context, collection string, name string, limit int) ([]*seqstore.SequenceRecord, error) {

	where := bson.D{{Key: "coll", Value: name}}
	opts := options.Find().SetSort(bson.D{{Key: "id", Value: -1}}).SetLimit(int64(limit))

	cur, err := store.collection(collection, false).Find(ctx, where, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", name, err)
	}
	defer cur.Close(ctx)

	var records []*seqstore.SequenceRecord
	for cur.Next(ctx) {
		var data Model
		if err := cur.Decode(&data); err != nil {
			glog.V(0).Infof("decode %s: %v", name, err)
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		records = append(records, &seqstore.SequenceRecord{
			Id:    data.ObjectId.Hex(),
			Name:  data.Coll,
			Value: data.Id,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("find %s: %w", name, err)
	}
	return records, nil
}

func (store *MongodbStore) InsertRecord(ctx context.Context, collection string, record *seqstore.SequenceRecord, durable bool) error {

	data := Model{
		ObjectId: primitive.NewObjectID(),
		Coll:     record.Name,
		Id:       record.Value,
	}

	if _, err := store.collection(collection, durable).InsertOne(ctx, data); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert %s/%d: %w: %v", record.Name, record.Value, seqstore.ErrDuplicateKey, err)
		}
		return fmt.Errorf("insert %s/%d: %w", record.Name, record.Value, err)
	}
	record.Id = data.ObjectId.Hex()
	return nil
}

func (store *MongodbStore) DeleteRecord(ctx context.Context, collection string, recordId string) error {

	objectId, err := primitive.ObjectIDFromHex(recordId)
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}

	result, err := store.collection(collection, false).DeleteOne(ctx, bson.D{{Key: "_id", Value: objectId}})
	if err != nil {
		return fmt.Errorf("delete %s: %w", recordId, err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("delete %s: %w", recordId, seqstore.ErrNotFound)
	}
	return nil
}

func (store *MongodbStore) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store.connect.Disconnect(ctx)
}
