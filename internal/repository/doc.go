// Package repository implements the animal-shelter record store: typed
// CRUD operations over a primary animal collection plus a best-effort,
// append-only audit trail in a secondary collection.
//
// # Contract
//
// Every operation validates its arguments before touching the database.
// Validation failures are reported as ErrValidation and never reach the
// collaborator; database failures surface as database.ErrDatabase with
// the cause attached. Audit writes are a third category: their failures
// are logged and discarded, and can never fail the triggering operation.
//
// Two timestamps are owned by this layer and overwrite any caller value:
// created_timestamp (set once at insert) and last_modified_timestamp
// (set on every update). Both are UTC.
//
// # Safety
//
// Delete refuses a literal empty filter unless the caller explicitly
// opts into deleting everything. This is a blast-radius guard, not an
// optimization, and it is deliberately narrow: see Delete.
package repository
