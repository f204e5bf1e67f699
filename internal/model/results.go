package model

import "time"

// CreateResult reports the outcome of a single-document insert. OK
// reflects whether the database acknowledged the write, not whether the
// document is later readable.
type CreateResult struct {
	OK         bool   `json:"ok"`
	InsertedID string `json:"inserted_id"`
}

// UpdateResult reports the outcome of a bulk update. UpsertedID is empty
// unless the update ran with upsert enabled and matched nothing.
type UpdateResult struct {
	OK         bool   `json:"ok"`
	Matched    int64  `json:"matched"`
	Modified   int64  `json:"modified"`
	UpsertedID string `json:"upserted_id,omitempty"`
}

// DeleteResult reports the outcome of a bulk delete.
type DeleteResult struct {
	OK      bool  `json:"ok"`
	Deleted int64 `json:"deleted"`
}

// Stats is a lightweight collection summary. Count carries the
// database's own estimate and is not guaranteed exact.
// LatestCreatedTimestamp is nil when the collection is empty.
type Stats struct {
	Count                  int64      `json:"count"`
	LatestCreatedTimestamp *time.Time `json:"latest_created_timestamp"`
}
