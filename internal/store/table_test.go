package store

import (
	"testing"

	"github.com/dukerupert/nacp/internal/model"
)

func TestTableDump(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTableStore(db)
	rs := NewRegistrationStore(db)
	rs.Create(sampleRegistration())
	rs.Create(sampleRegistration())

	dump, err := ts.Dump("registration_form")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if dump.Columns[0] != "id" {
		t.Errorf("first column = %q, want id", dump.Columns[0])
	}
	if len(dump.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(dump.Rows))
	}
	if len(dump.Rows[0]) != len(dump.Columns) {
		t.Errorf("row width = %d, want %d", len(dump.Rows[0]), len(dump.Columns))
	}

	n, err := ts.Count("registration_form")
	if err != nil || n != 2 {
		t.Errorf("count = %d, %v", n, err)
	}
}

func TestTableDumpHidesPasswordHash(t *testing.T) {
	db := setupTestDB(t)
	NewUserStore(db).Create("farmer", "f@example.bs", "secret-hash", model.RoleHolder, model.StatusActive)

	dump, err := NewTableStore(db).Dump("users")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	for _, c := range dump.Columns {
		if c == "password_hash" {
			t.Error("password_hash must not be exported")
		}
	}
}

func TestTableUnknown(t *testing.T) {
	ts := NewTableStore(setupTestDB(t))
	if _, err := ts.Dump("sqlite_master"); err == nil {
		t.Error("expected error for unknown table")
	}
	if _, err := ts.DeleteIDs("sessions", []int64{1}); err == nil {
		t.Error("expected error for unlisted table")
	}
}
