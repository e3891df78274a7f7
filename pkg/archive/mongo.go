package archive

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/chunkmaze/pkg/cache"
	errs "github.com/matzehuels/chunkmaze/pkg/errors"
)

// MongoStore archives runs in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// OpenMongo connects to uri and pings the server.
func OpenMongo(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "connect to mongodb")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "ping mongodb")
	}
	return NewMongoStore(client, database, collection), nil
}

// NewMongoStore wraps a connected client.
func NewMongoStore(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{client: client, coll: client.Database(database).Collection(collection)}
}

// retryable marks transient driver errors for cache.RetryWithBackoff.
func retryable(err error) error {
	if err != nil && (mongo.IsNetworkError(err) || mongo.IsTimeout(err)) {
		return cache.Retryable(err)
	}
	return err
}

// Seeds are stored as their int64 bit pattern, as BSON has no unsigned type.
type mongoRun struct {
	ID        string    `bson:"_id"`
	Seed      int64     `bson:"seed"`
	Round     int       `bson:"round"`
	Budget    int       `bson:"budget"`
	Chunks    int       `bson:"chunks"`
	CreatedAt time.Time `bson:"created_at"`
	Layout    []byte    `bson:"layout,omitempty"`
}

func toMongo(r Run) mongoRun {
	return mongoRun{r.ID, int64(r.Seed), r.Round, r.Budget, r.Chunks, r.CreatedAt, r.Layout}
}

func (m mongoRun) run() Run {
	return Run{m.ID, uint64(m.Seed), m.Round, m.Budget, m.Chunks, m.CreatedAt.UTC(), m.Layout}
}

func (s *MongoStore) Put(ctx context.Context, r Run) error {
	doc := toMongo(r)
	return cache.RetryWithBackoff(ctx, func() error {
		_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, doc, options.Replace().SetUpsert(true))
		return retryable(err)
	})
}

func (s *MongoStore) Get(ctx context.Context, id string) (Run, error) {
	var doc mongoRun
	err := cache.RetryWithBackoff(ctx, func() error {
		return retryable(s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc))
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Run{}, notFound(id)
	}
	if err != nil {
		return Run{}, errs.Wrap(errs.ErrCodeNetwork, err, "get run %s", id)
	}
	return doc.run(), nil
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"layout": 0})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "list runs")
	}
	var docs []mongoRun
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errs.Wrap(errs.ErrCodeNetwork, err, "list runs")
	}
	out := make([]Run, len(docs))
	for i, d := range docs {
		out[i] = d.run()
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
