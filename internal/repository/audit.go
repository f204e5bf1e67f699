package repository

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"shelterdb/internal/database"
	"shelterdb/internal/model"
)

// auditTimeout bounds a single audit write. The trail is best-effort; a
// slow audit collection must not stall callers' teardown paths.
const auditTimeout = 5 * time.Second

// Auditor writes the append-only audit trail. Writes are best-effort:
// failures are logged at warn and discarded, never surfaced to the
// operation that triggered them, and never retried.
type Auditor struct {
	audits database.Collection
	log    *slog.Logger
}

// NewAuditor builds an Auditor over the audit collection. A nil logger
// falls back to slog.Default.
func NewAuditor(audits database.Collection, log *slog.Logger) *Auditor {
	if log == nil {
		log = slog.Default()
	}
	return &Auditor{audits: audits, log: log}
}

// Record stores one audit entry for a mutating action. It runs on a
// detached context: by the time an audit write happens the triggering
// operation's result is already final, so a cancelled caller context
// must not lose the trail entry.
func (a *Auditor) Record(action model.AuditAction, details bson.M) {
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	entry := model.AuditEntry{
		Action:    action,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
	if _, err := a.audits.InsertOne(ctx, entry.Document()); err != nil {
		a.log.Warn("audit write failed",
			slog.String("action", string(action)),
			slog.String("error", err.Error()),
		)
	}
}
