package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditAction identifies the mutating operation an audit entry records.
type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
)

// AuditEntry is one append-only record of a mutating action. Entries are
// write-only from this layer's point of view: nothing here ever reads
// them back.
type AuditEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Action    AuditAction        `bson:"action"`
	Details   bson.M             `bson:"details"`
	Timestamp time.Time          `bson:"ts"`
}

// Document renders the entry as the document shape stored in the audit
// collection.
func (e AuditEntry) Document() bson.M {
	return bson.M{
		"action":  string(e.Action),
		"details": e.Details,
		"ts":      e.Timestamp,
	}
}
