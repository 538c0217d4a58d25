package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	figerr "github.com/matzehuels/d3fig/pkg/errors"
	"github.com/matzehuels/d3fig/pkg/scene"
)

// DefaultCollection is the collection MongoStore uses when none is given.
const DefaultCollection = "figures"

// MongoConfig configures a [MongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps records in a MongoDB collection.
//
// The figure document is stored as its JSON text rather than as BSON so that
// the stored form is byte-for-byte what the browser renderer reads.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoRecord is the stored BSON shape of a Record.
type mongoRecord struct {
	ID        string    `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`
	Width     float64   `bson:"width"`
	Height    float64   `bson:"height"`
	Document  string    `bson:"document,omitempty"`
}

// NewMongoStore connects to MongoDB and pings the primary.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		return nil, figerr.New(figerr.ErrCodeInvalidInput, "mongo database name is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, figerr.Wrap(figerr.ErrCodeNetwork, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, figerr.Wrap(figerr.ErrCodeNetwork, err, "ping mongo")
	}
	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}
	return &MongoStore{client: client, coll: client.Database(cfg.Database).Collection(name)}, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := figerr.ValidateDocumentID(id); err != nil {
		return nil, err
	}
	var m mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("find document %q: %w", id, err)
	}
	return fromMongo(m)
}

func (s *MongoStore) Put(ctx context.Context, rec *Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	m, err := toMongo(rec)
	if err != nil {
		return err
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": m.ID}, m, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store document %q: %w", rec.ID, err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := figerr.ValidateDocumentID(id); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete document %q: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]*Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"document": 0})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var ms []mongoRecord
	if err := cur.All(ctx, &ms); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]*Record, 0, len(ms))
	for _, m := range ms {
		out = append(out, &Record{ID: m.ID, CreatedAt: m.CreatedAt, Width: m.Width, Height: m.Height})
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toMongo(rec *Record) (mongoRecord, error) {
	data, err := json.Marshal(rec.Document)
	if err != nil {
		return mongoRecord{}, fmt.Errorf("marshal document: %w", err)
	}
	return mongoRecord{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt.UTC().Truncate(time.Millisecond),
		Width:     rec.Width,
		Height:    rec.Height,
		Document:  string(data),
	}, nil
}

func fromMongo(m mongoRecord) (*Record, error) {
	rec := &Record{ID: m.ID, CreatedAt: m.CreatedAt, Width: m.Width, Height: m.Height}
	if m.Document == "" {
		return rec, nil
	}
	var doc scene.Document
	if err := json.Unmarshal([]byte(m.Document), &doc); err != nil {
		return nil, figerr.Wrap(figerr.ErrCodeInvalidFormat, err, "parse document %q", m.ID)
	}
	rec.Document = &doc
	return rec, nil
}

var _ Store = (*MongoStore)(nil)
