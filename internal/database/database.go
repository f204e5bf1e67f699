// Package database provides the data-access abstraction for shelterdb.
//
// The Collection interface covers exactly the operations the repository
// layer needs from a document store: single-document insert, filtered
// find with projection/sort/limit, bulk merge-update with optional
// upsert, bulk delete, estimated count, and secondary index creation.
// Filters and merge documents are passed through opaquely; their
// semantics belong to the database.
//
// # Error Handling
//
// Standard errors are defined for the two failure classes this layer can
// surface:
//   - ErrConnection: establishing or checking the connection failed
//   - ErrDatabase: an individual operation failed server- or wire-side
//
// Use errors.Is() to check error types:
//
//	if errors.Is(err, database.ErrDatabase) {
//	    // Collaborator failure; surfaced verbatim, never retried here.
//	}
package database

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// Standard errors for database operations.
var (
	// ErrConnection indicates a failure to connect to or reach the database.
	ErrConnection = errors.New("database connection error")

	// ErrDatabase indicates an operation failed inside the database or on
	// the wire. The underlying cause is carried in the wrapped message.
	ErrDatabase = errors.New("database error")
)

// FindOptions shape a find call. The zero value means: all fields,
// natural order, unbounded result.
type FindOptions struct {
	// Projection restricts returned fields; nil returns everything.
	Projection bson.M

	// SortField orders results by one field; empty means natural order.
	SortField      string
	SortDescending bool

	// Limit caps the result size; 0 means unbounded.
	Limit int64
}

// InsertOneResult reports a single-document insert.
type InsertOneResult struct {
	Acknowledged bool
	InsertedID   string
}

// UpdateManyResult reports a bulk merge-update.
type UpdateManyResult struct {
	Acknowledged bool
	Matched      int64
	Modified     int64
	UpsertedID   string
}

// DeleteManyResult reports a bulk delete.
type DeleteManyResult struct {
	Acknowledged bool
	Deleted      int64
}

// Collection is one document collection. Implementations must be safe
// for concurrent use; this layer adds no locking of its own.
type Collection interface {
	InsertOne(ctx context.Context, doc bson.M) (InsertOneResult, error)
	Find(ctx context.Context, filter bson.M, opts FindOptions) ([]bson.M, error)

	// UpdateMany applies set as a field-level merge ($set semantics) to
	// every document matching filter. With upsert enabled and no match, a
	// new document is created from the filter's equality fields plus set.
	UpdateMany(ctx context.Context, filter bson.M, set bson.M, upsert bool) (UpdateManyResult, error)

	DeleteMany(ctx context.Context, filter bson.M) (DeleteManyResult, error)

	// EstimatedCount returns the database's own (possibly approximate)
	// document count.
	EstimatedCount(ctx context.Context) (int64, error)

	// CreateIndex requests a non-unique ascending secondary index on
	// field. Index creation is an optimization; callers tolerate errors.
	CreateIndex(ctx context.Context, field string) error
}

// Database is a live connection handle exposing named collections. A
// single handle is safely shared across concurrent callers; pooling is
// the driver's concern.
type Database interface {
	Collection(name string) Collection
	Ping(ctx context.Context) error
	Close()
}
