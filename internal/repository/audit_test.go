package repository_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"shelterdb/internal/model"
	"shelterdb/internal/repository"
	"shelterdb/internal/testing/memdb"
)

func TestAuditor_Record(t *testing.T) {
	audits := memdb.New()
	auditor := repository.NewAuditor(audits, slog.New(slog.NewTextHandler(io.Discard, nil)))

	before := time.Now().UTC()
	auditor.Record(model.AuditDelete, bson.M{"deleted": int64(2), "actor": "milly"})

	docs := audits.All()
	require.Len(t, docs, 1)
	assert.Equal(t, "DELETE", docs[0]["action"])

	ts, ok := docs[0]["ts"].(time.Time)
	require.True(t, ok)
	assert.False(t, ts.Before(before))

	details, ok := docs[0]["details"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "milly", details["actor"])
}

func TestAuditor_FailureIsSwallowed(t *testing.T) {
	audits := memdb.New()
	audits.SetError(errors.New("collection dropped"))
	auditor := repository.NewAuditor(audits, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Must not panic or propagate anything.
	auditor.Record(model.AuditCreate, bson.M{"inserted_id": "abc"})
	assert.Empty(t, audits.All())
}
