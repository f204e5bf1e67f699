package model

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Record is one animal document stored in the primary collection. The
// schema is open-ended: beyond the three required intake fields, callers
// may store whatever fields their dataset carries (name, color, outcome
// fields, ...) and this layer passes them through untouched.
type Record = bson.M

// Filter selects zero or more Records. Its semantics (equality, nesting,
// operators) belong to the database and are opaque to this layer. An
// empty Filter matches every Record.
type Filter = bson.M

// Field names managed or required by the repository.
const (
	FieldAnimalID   = "animal_id"
	FieldAnimalType = "animal_type"
	FieldBreed      = "breed"

	// FieldCreatedTimestamp is set once at insert and never changed.
	FieldCreatedTimestamp = "created_timestamp"

	// FieldLastModifiedTimestamp is overwritten on every update.
	FieldLastModifiedTimestamp = "last_modified_timestamp"
)

// RequiredFields are the fields every Record must carry at creation time.
var RequiredFields = []string{FieldAnimalID, FieldAnimalType, FieldBreed}

// MissingRequiredFields returns the required field names absent from data,
// in RequiredFields order. An empty result means data is valid for insert.
func MissingRequiredFields(data Record) []string {
	var missing []string
	for _, field := range RequiredFields {
		if _, ok := data[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}
