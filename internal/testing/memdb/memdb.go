// Package memdb provides an in-memory database.Collection for tests.
//
// It implements enough MongoDB behavior for the repository's contract
// to be exercised without a server: top-level equality filters, $set
// merge semantics, inclusion projections, single-field sort, limit, and
// upsert. Operator filters are not interpreted; a filter value that is
// itself a document only matches an identical stored value.
package memdb

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shelterdb/internal/database"
)

// Collection is an in-memory, mutex-guarded document collection.
type Collection struct {
	mu   sync.RWMutex
	docs []bson.M

	// err, when set, is returned by every operation. Tests use it to
	// simulate collaborator failures.
	err error

	indexed []string
}

var _ database.Collection = (*Collection)(nil)

// New returns an empty Collection.
func New() *Collection {
	return &Collection{}
}

// SetError makes every subsequent operation fail with err. Pass nil to
// restore normal behavior.
func (c *Collection) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// All returns a snapshot of every stored document.
func (c *Collection) All() []bson.M {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]bson.M, 0, len(c.docs))
	for _, d := range c.docs {
		out = append(out, clone(d))
	}
	return out
}

// Indexed returns the fields CreateIndex was called for.
func (c *Collection) Indexed() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.indexed...)
}

func (c *Collection) InsertOne(_ context.Context, doc bson.M) (database.InsertOneResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return database.InsertOneResult{}, c.err
	}

	stored := clone(doc)
	id, ok := stored["_id"].(primitive.ObjectID)
	if !ok {
		id = primitive.NewObjectID()
		stored["_id"] = id
	}
	c.docs = append(c.docs, stored)

	return database.InsertOneResult{Acknowledged: true, InsertedID: id.Hex()}, nil
}

func (c *Collection) Find(_ context.Context, filter bson.M, opts database.FindOptions) ([]bson.M, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return nil, c.err
	}

	matched := []bson.M{}
	for _, d := range c.docs {
		if matches(d, filter) {
			matched = append(matched, d)
		}
	}

	if opts.SortField != "" {
		field, desc := opts.SortField, opts.SortDescending
		sort.SliceStable(matched, func(i, j int) bool {
			if desc {
				return less(matched[j][field], matched[i][field])
			}
			return less(matched[i][field], matched[j][field])
		})
	}
	if opts.Limit > 0 && int64(len(matched)) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	out := make([]bson.M, 0, len(matched))
	for _, d := range matched {
		out = append(out, project(d, opts.Projection))
	}
	return out, nil
}

func (c *Collection) UpdateMany(_ context.Context, filter bson.M, set bson.M, upsert bool) (database.UpdateManyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return database.UpdateManyResult{}, c.err
	}

	res := database.UpdateManyResult{Acknowledged: true}
	for _, d := range c.docs {
		if !matches(d, filter) {
			continue
		}
		res.Matched++
		changed := false
		for k, v := range set {
			if !reflect.DeepEqual(d[k], v) {
				d[k] = v
				changed = true
			}
		}
		if changed {
			res.Modified++
		}
	}

	if res.Matched == 0 && upsert {
		// Mongo seeds an upserted document from the filter's plain
		// equality fields plus the merge fields.
		doc := bson.M{}
		for k, v := range filter {
			if _, isDoc := v.(bson.M); !isDoc {
				doc[k] = v
			}
		}
		for k, v := range set {
			doc[k] = v
		}
		id := primitive.NewObjectID()
		doc["_id"] = id
		c.docs = append(c.docs, doc)
		res.UpsertedID = id.Hex()
	}
	return res, nil
}

func (c *Collection) DeleteMany(_ context.Context, filter bson.M) (database.DeleteManyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return database.DeleteManyResult{}, c.err
	}

	kept := c.docs[:0]
	res := database.DeleteManyResult{Acknowledged: true}
	for _, d := range c.docs {
		if matches(d, filter) {
			res.Deleted++
		} else {
			kept = append(kept, d)
		}
	}
	c.docs = kept
	return res, nil
}

func (c *Collection) EstimatedCount(_ context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.err != nil {
		return 0, c.err
	}
	return int64(len(c.docs)), nil
}

func (c *Collection) CreateIndex(_ context.Context, field string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.indexed = append(c.indexed, field)
	return nil
}

// DB is a trivial database.Database handing out named Collections.
type DB struct {
	mu   sync.Mutex
	cols map[string]*Collection

	// PingErr, when set, is returned by Ping.
	PingErr error
}

var _ database.Database = (*DB)(nil)

// NewDB returns an empty in-memory database.
func NewDB() *DB {
	return &DB{cols: make(map[string]*Collection)}
}

// Collection returns the named collection, creating it on first use.
func (db *DB) Collection(name string) database.Collection {
	return db.Get(name)
}

// Get is Collection with the concrete type, for test assertions.
func (db *DB) Get(name string) *Collection {
	db.mu.Lock()
	defer db.mu.Unlock()
	col, ok := db.cols[name]
	if !ok {
		col = New()
		db.cols[name] = col
	}
	return col
}

func (db *DB) Ping(context.Context) error { return db.PingErr }

func (db *DB) Close() {}

func matches(doc bson.M, filter bson.M) bool {
	for k, want := range filter {
		if !reflect.DeepEqual(doc[k], want) {
			return false
		}
	}
	return true
}

func project(doc bson.M, projection bson.M) bson.M {
	if len(projection) == 0 {
		return clone(doc)
	}
	out := bson.M{}
	if id, ok := doc["_id"]; ok {
		out["_id"] = id
	}
	for field := range projection {
		if v, ok := doc[field]; ok {
			out[field] = v
		}
	}
	return out
}

func clone(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func less(a, b interface{}) bool {
	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Before(y)
		}
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	case int:
		if y, ok := b.(int); ok {
			return x < y
		}
	case int64:
		if y, ok := b.(int64); ok {
			return x < y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
	}
	return false
}
