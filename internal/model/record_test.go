package model

import (
	"testing"
	"time"
)

func TestMissingRequiredFields_AllPresent(t *testing.T) {
	t.Parallel()

	data := Record{
		"animal_id":   "A1",
		"animal_type": "Dog",
		"breed":       "Lab",
		"name":        "Rex",
	}

	if missing := MissingRequiredFields(data); len(missing) != 0 {
		t.Errorf("expected no missing fields, got %v", missing)
	}
}

func TestMissingRequiredFields_SomeMissing(t *testing.T) {
	t.Parallel()

	data := Record{"animal_id": "A1"}

	missing := MissingRequiredFields(data)
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing fields, got %v", missing)
	}
	if missing[0] != "animal_type" || missing[1] != "breed" {
		t.Errorf("expected [animal_type breed], got %v", missing)
	}
}

func TestMissingRequiredFields_PresenceNotTruthiness(t *testing.T) {
	t.Parallel()

	// An empty string still counts as present; only absence is checked.
	data := Record{
		"animal_id":   "",
		"animal_type": "Dog",
		"breed":       "Lab",
	}

	if missing := MissingRequiredFields(data); len(missing) != 0 {
		t.Errorf("expected no missing fields, got %v", missing)
	}
}

func TestAuditEntry_Document(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	entry := AuditEntry{
		Action:    AuditUpdate,
		Details:   map[string]interface{}{"matched": int64(3)},
		Timestamp: now,
	}

	doc := entry.Document()
	if doc["action"] != "UPDATE" {
		t.Errorf("expected action UPDATE, got %v", doc["action"])
	}
	if ts, ok := doc["ts"].(time.Time); !ok || !ts.Equal(now) {
		t.Errorf("expected ts %v, got %v", now, doc["ts"])
	}
}
