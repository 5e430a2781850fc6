package store

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/familygrid/pkg/errors"
	"github.com/matzehuels/familygrid/pkg/observability"
	"github.com/matzehuels/familygrid/pkg/tree"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "familygrid"
	DefaultMongoCollection = "trees"
)

// MongoOptions configures [NewMongoStore].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps each tree as one document. The snapshot is stored as
// its JSON encoding so info field order survives the round trip; the
// version is duplicated into its own field for the conditional update.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type treeDocument struct {
	ID        string    `bson:"_id"`
	Version   int       `bson:"version"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.URI == "" {
		return nil, errors.New(errors.ErrCodeConfiguration, "mongo uri is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	db := cmp.Or(opts.Database, DefaultMongoDatabase)
	coll := client.Database(db).Collection(cmp.Or(opts.Collection, DefaultMongoCollection))
	return &MongoStore{client: client, coll: coll}, nil
}

// NewMongoStoreFromCollection wraps an existing collection. Close does not
// disconnect the collection's client.
func NewMongoStoreFromCollection(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Load(ctx context.Context, id string) (snap *tree.Snapshot, err error) {
	start := time.Now()
	defer func() { observeLoad(ctx, BackendMongo, start, err) }()

	if err := errors.ValidateTreeID(id); err != nil {
		return nil, err
	}
	var doc treeDocument
	err = s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeTreeNotFound, "tree %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load tree %q: %w", id, err)
	}
	snap, err = tree.Unmarshal(doc.Data)
	if err != nil {
		return nil, fmt.Errorf("decode tree %q: %w", id, err)
	}
	return snap, nil
}

func (s *MongoStore) Save(ctx context.Context, id string, snap *tree.Snapshot, base int) (err error) {
	start := time.Now()
	defer func() { observeSave(ctx, BackendMongo, start, err) }()

	if err := errors.ValidateTreeID(id); err != nil {
		return err
	}
	data, err := tree.Marshal(snap)
	if err != nil {
		return err
	}
	doc := treeDocument{ID: id, Version: snap.Version(), Data: data, UpdatedAt: time.Now().UTC()}

	if base == 0 {
		_, err := s.coll.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			observability.Store().OnConflict(ctx, BackendMongo)
			return errors.New(errors.ErrCodeVersionConflict, "tree %q already exists", id)
		}
		if err != nil {
			return fmt.Errorf("create tree %q: %w", id, err)
		}
		return nil
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "version", Value: base}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "version", Value: doc.Version},
			{Key: "data", Value: doc.Data},
			{Key: "updated_at", Value: doc.UpdatedAt},
		}}},
	)
	if err != nil {
		return fmt.Errorf("save tree %q: %w", id, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	var current treeDocument
	err = s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}},
		options.FindOne().SetProjection(bson.D{{Key: "version", Value: 1}})).Decode(&current)
	if err == mongo.ErrNoDocuments {
		return errors.New(errors.ErrCodeTreeNotFound, "tree %q not found", id)
	}
	if err != nil {
		return fmt.Errorf("save tree %q: %w", id, err)
	}
	observability.Store().OnConflict(ctx, BackendMongo)
	return conflict(id, base, current.Version)
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	cur, err := s.coll.Find(ctx, bson.D{},
		options.Find().
			SetProjection(bson.D{{Key: "_id", Value: 1}}).
			SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list trees: %w", err)
	}
	var docs []treeDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list trees: %w", err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateTreeID(id); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("delete tree %q: %w", id, err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
