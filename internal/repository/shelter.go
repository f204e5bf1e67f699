package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shelterdb/internal/database"
	"shelterdb/internal/model"
)

// ErrValidation indicates a caller supplied a malformed or unsafe
// argument. It is always reported before any database call, and the
// message names the failing field or constraint.
var ErrValidation = errors.New("validation error")

// Config holds shelter repository settings.
type Config struct {
	// Collection is the primary animal collection name.
	Collection string

	// AuditCollection is the append-only audit trail collection name.
	AuditCollection string

	// EnsureIndexes requests secondary indexes on animal_id and the two
	// managed timestamps at construction time. Index-creation failures
	// are logged and tolerated.
	EnsureIndexes bool

	// Logger receives operational events; nil falls back to slog.Default.
	Logger *slog.Logger
}

// Shelter is the repository over the animal collection. A single
// instance is safe for concurrent use: it holds no mutable state beyond
// the driver's own connection handle.
type Shelter struct {
	animals database.Collection
	auditor *Auditor
	log     *slog.Logger
}

// New builds a Shelter over db. ctx bounds the optional index bootstrap.
func New(ctx context.Context, db database.Database, cfg Config) *Shelter {
	if cfg.Collection == "" {
		cfg.Collection = "animals"
	}
	if cfg.AuditCollection == "" {
		cfg.AuditCollection = "audits"
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Shelter{
		animals: db.Collection(cfg.Collection),
		auditor: NewAuditor(db.Collection(cfg.AuditCollection), log),
		log:     log,
	}
	if cfg.EnsureIndexes {
		s.ensureIndexes(ctx)
	}
	return s
}

// ensureIndexes requests non-unique indexes without assuming uniqueness
// in noisy shelter datasets.
func (s *Shelter) ensureIndexes(ctx context.Context) {
	fields := []string{
		model.FieldAnimalID,
		model.FieldCreatedTimestamp,
		model.FieldLastModifiedTimestamp,
	}
	for _, field := range fields {
		if err := s.animals.CreateIndex(ctx, field); err != nil {
			s.log.Warn("index creation failed",
				slog.String("field", field),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Create inserts a single animal record. data must be non-empty and
// carry animal_id, animal_type and breed; created_timestamp is injected,
// overwriting any caller-supplied value. actor is recorded in the audit
// trail when non-empty.
func (s *Shelter) Create(ctx context.Context, data model.Record, actor string) (model.CreateResult, error) {
	if len(data) == 0 {
		return model.CreateResult{}, fmt.Errorf("%w: data must be a non-empty document", ErrValidation)
	}
	if missing := model.MissingRequiredFields(data); len(missing) > 0 {
		return model.CreateResult{}, fmt.Errorf("%w: missing required field(s): %s",
			ErrValidation, strings.Join(missing, ", "))
	}

	doc := make(bson.M, len(data)+1)
	for k, v := range data {
		doc[k] = v
	}
	doc[model.FieldCreatedTimestamp] = time.Now().UTC()

	res, err := s.animals.InsertOne(ctx, doc)
	if err != nil {
		s.log.Error("create failed", slog.String("error", err.Error()))
		return model.CreateResult{}, err
	}

	out := model.CreateResult{OK: res.Acknowledged, InsertedID: res.InsertedID}
	s.auditor.Record(model.AuditCreate, auditDetails(actor, bson.M{
		"inserted_id": out.InsertedID,
	}))
	return out, nil
}

// ReadOptions shape a Read call. The zero value returns full documents
// in natural order, unbounded.
type ReadOptions struct {
	// Projection restricts returned fields; nil returns everything.
	Projection bson.M

	// Limit caps the result size; 0 means unbounded.
	Limit int64

	// SortField orders results by one field, ascending unless
	// SortDescending is set.
	SortField      string
	SortDescending bool
}

// Read returns every record matching filter, fully materialized. A nil
// or empty filter matches all records. The result is never nil: no
// matches yields an empty slice. Reads are not audited.
func (s *Shelter) Read(ctx context.Context, filter model.Filter, opts ReadOptions) ([]model.Record, error) {
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must be non-negative", ErrValidation)
	}
	if filter == nil {
		filter = model.Filter{}
	}

	docs, err := s.animals.Find(ctx, filter, database.FindOptions{
		Projection:     opts.Projection,
		SortField:      opts.SortField,
		SortDescending: opts.SortDescending,
		Limit:          opts.Limit,
	})
	if err != nil {
		s.log.Error("read failed", slog.String("error", err.Error()))
		return nil, err
	}
	if docs == nil {
		docs = []model.Record{}
	}

	s.log.Info("read", slog.Int("count", len(docs)))
	return docs, nil
}

// UpdateOptions shape an Update call.
type UpdateOptions struct {
	// Upsert creates a new record from the merge fields when nothing
	// matches.
	Upsert bool

	// Actor is recorded in the audit trail when non-empty.
	Actor string
}

// Update applies set as a partial field merge to every record matching
// filter: only named fields change, everything else is untouched.
// last_modified_timestamp is injected, overwriting any caller value.
// Both filter and set must be non-empty; an empty filter is rejected
// here to avoid an accidental mass update.
func (s *Shelter) Update(ctx context.Context, filter model.Filter, set model.Record, opts UpdateOptions) (model.UpdateResult, error) {
	if len(filter) == 0 {
		return model.UpdateResult{}, fmt.Errorf("%w: query must be a non-empty document", ErrValidation)
	}
	if len(set) == 0 {
		return model.UpdateResult{}, fmt.Errorf("%w: new_values must be a non-empty document", ErrValidation)
	}

	merge := make(bson.M, len(set)+1)
	for k, v := range set {
		merge[k] = v
	}
	merge[model.FieldLastModifiedTimestamp] = time.Now().UTC()

	res, err := s.animals.UpdateMany(ctx, filter, merge, opts.Upsert)
	if err != nil {
		s.log.Error("update failed", slog.String("error", err.Error()))
		return model.UpdateResult{}, err
	}

	out := model.UpdateResult{
		OK:         res.Acknowledged,
		Matched:    res.Matched,
		Modified:   res.Modified,
		UpsertedID: res.UpsertedID,
	}
	s.auditor.Record(model.AuditUpdate, auditDetails(opts.Actor, bson.M{
		"matched":  out.Matched,
		"modified": out.Modified,
	}))
	return out, nil
}

// DeleteOptions shape a Delete call.
type DeleteOptions struct {
	// DeleteAll authorizes an empty filter, i.e. removing every record.
	// Without it, Delete refuses an empty filter.
	DeleteAll bool

	// Actor is recorded in the audit trail when non-empty.
	Actor string
}

// Delete removes every record matching filter. The default posture is
// deny-all-wipe: an empty filter fails with ErrValidation unless
// DeleteAll is set.
//
// The guard checks for a literally empty filter only. A filter that is
// semantically empty but structurally non-trivial, such as
// {"animal_id": {"$exists": true}}, bypasses it; filter semantics are
// opaque to this layer.
func (s *Shelter) Delete(ctx context.Context, filter model.Filter, opts DeleteOptions) (model.DeleteResult, error) {
	if len(filter) == 0 && !opts.DeleteAll {
		return model.DeleteResult{}, fmt.Errorf("%w: refusing to delete all documents; set DeleteAll to override", ErrValidation)
	}
	if filter == nil {
		filter = model.Filter{}
	}

	res, err := s.animals.DeleteMany(ctx, filter)
	if err != nil {
		s.log.Error("delete failed", slog.String("error", err.Error()))
		return model.DeleteResult{}, err
	}

	out := model.DeleteResult{OK: res.Acknowledged, Deleted: res.Deleted}
	s.auditor.Record(model.AuditDelete, auditDetails(opts.Actor, bson.M{
		"deleted": out.Deleted,
	}))
	return out, nil
}

// Stats returns the estimated record count and the created_timestamp of
// the most recently created record, nil when the collection is empty.
func (s *Shelter) Stats(ctx context.Context) (model.Stats, error) {
	count, err := s.animals.EstimatedCount(ctx)
	if err != nil {
		s.log.Error("stats failed", slog.String("error", err.Error()))
		return model.Stats{}, err
	}

	latest, err := s.animals.Find(ctx, bson.M{}, database.FindOptions{
		Projection:     bson.M{model.FieldCreatedTimestamp: 1},
		SortField:      model.FieldCreatedTimestamp,
		SortDescending: true,
		Limit:          1,
	})
	if err != nil {
		s.log.Error("stats failed", slog.String("error", err.Error()))
		return model.Stats{}, err
	}

	stats := model.Stats{Count: count}
	if len(latest) > 0 {
		if ts, ok := asTime(latest[0][model.FieldCreatedTimestamp]); ok {
			stats.LatestCreatedTimestamp = &ts
		}
	}
	return stats, nil
}

// auditDetails assembles the details document for one audit entry,
// attributing the actor only when one was supplied.
func auditDetails(actor string, details bson.M) bson.M {
	if actor != "" {
		details["actor"] = actor
	}
	return details
}

// asTime normalizes timestamp values as they come back from the
// database: the driver decodes BSON datetimes into primitive.DateTime,
// while the in-memory test store keeps time.Time.
func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case primitive.DateTime:
		return t.Time().UTC(), true
	}
	return time.Time{}, false
}
