package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Config holds MongoDB connection settings.
type Config struct {
	// URI is the full connection string. It may carry credentials and is
	// never logged unredacted; see RedactURI.
	URI string

	// Name is the database to open collections in.
	Name string

	// ConnectTimeout bounds connection establishment and the eager
	// liveness check. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// DefaultConnectTimeout is applied when Config.ConnectTimeout is unset.
const DefaultConnectTimeout = 5 * time.Second

// Mongo implements Database over the official MongoDB driver.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	log    *slog.Logger
}

// Connect establishes a MongoDB connection and verifies it with a ping
// before returning. A handle is only returned on a live connection; any
// failure is reported as ErrConnection with the cause attached.
func Connect(ctx context.Context, cfg Config, log *slog.Logger) (*Mongo, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: connection URI is required", ErrConnection)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: database name is required", ErrConnection)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	// Eager liveness check; a handle backed by an unreachable server is
	// worse than a connect error.
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping failed: %v", ErrConnection, err)
	}

	log.Info("connected to mongodb",
		slog.String("uri", RedactURI(cfg.URI)),
		slog.String("database", cfg.Name),
	)

	return &Mongo{
		client: client,
		db:     client.Database(cfg.Name),
		log:    log,
	}, nil
}

// Collection returns a handle to the named collection.
func (m *Mongo) Collection(name string) Collection {
	return &mongoCollection{col: m.db.Collection(name)}
}

// Ping verifies the connection is still live.
func (m *Mongo) Ping(ctx context.Context) error {
	if m.client == nil {
		return ErrConnection
	}
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Close releases the connection. It is idempotent, and failures are
// logged rather than returned: close runs during teardown, where an
// error is not actionable.
func (m *Mongo) Close() {
	if m.client == nil {
		return
	}
	if err := m.client.Disconnect(context.Background()); err != nil {
		m.log.Warn("mongodb disconnect failed", slog.String("error", err.Error()))
	}
	m.client = nil
}

// RedactURI returns uri with any password replaced, safe for logging.
func RedactURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<unparseable-uri>"
	}
	if u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}

// mongoCollection adapts *mongo.Collection to the Collection interface.
type mongoCollection struct {
	col *mongo.Collection
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc bson.M) (InsertOneResult, error) {
	res, err := c.col.InsertOne(ctx, doc)
	if err != nil {
		if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
			return InsertOneResult{Acknowledged: false}, nil
		}
		return InsertOneResult{}, fmt.Errorf("%w: insert one: %v", ErrDatabase, err)
	}
	return InsertOneResult{
		Acknowledged: true,
		InsertedID:   idString(res.InsertedID),
	}, nil
}

func (c *mongoCollection) Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error) {
	if filter == nil {
		filter = bson.M{}
	}
	cur, err := c.col.Find(ctx, filter, buildFindOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("%w: find: %v", ErrDatabase, err)
	}
	docs := []bson.M{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: find cursor: %v", ErrDatabase, err)
	}
	return docs, nil
}

func (c *mongoCollection) UpdateMany(ctx context.Context, filter bson.M, set bson.M, upsert bool) (UpdateManyResult, error) {
	res, err := c.col.UpdateMany(ctx, filter, bson.M{"$set": set}, options.Update().SetUpsert(upsert))
	if err != nil {
		if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
			return UpdateManyResult{Acknowledged: false}, nil
		}
		return UpdateManyResult{}, fmt.Errorf("%w: update many: %v", ErrDatabase, err)
	}
	return UpdateManyResult{
		Acknowledged: true,
		Matched:      res.MatchedCount,
		Modified:     res.ModifiedCount,
		UpsertedID:   idString(res.UpsertedID),
	}, nil
}

func (c *mongoCollection) DeleteMany(ctx context.Context, filter bson.M) (DeleteManyResult, error) {
	res, err := c.col.DeleteMany(ctx, filter)
	if err != nil {
		if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
			return DeleteManyResult{Acknowledged: false}, nil
		}
		return DeleteManyResult{}, fmt.Errorf("%w: delete many: %v", ErrDatabase, err)
	}
	return DeleteManyResult{
		Acknowledged: true,
		Deleted:      res.DeletedCount,
	}, nil
}

func (c *mongoCollection) EstimatedCount(ctx context.Context) (int64, error) {
	count, err := c.col.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: estimated count: %v", ErrDatabase, err)
	}
	return count, nil
}

func (c *mongoCollection) CreateIndex(ctx context.Context, field string) error {
	_, err := c.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: field, Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("%w: create index %q: %v", ErrDatabase, field, err)
	}
	return nil
}

// buildFindOptions translates FindOptions to driver options, applying
// projection, then sort, then limit.
func buildFindOptions(opts FindOptions) *options.FindOptions {
	fo := options.Find()
	if opts.Projection != nil {
		fo.SetProjection(opts.Projection)
	}
	if opts.SortField != "" {
		order := 1
		if opts.SortDescending {
			order = -1
		}
		fo.SetSort(bson.D{{Key: opts.SortField, Value: order}})
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	return fo
}

// idString renders a driver-assigned document ID as an opaque string.
func idString(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
