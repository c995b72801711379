package store

import (
	"database/sql"
	"testing"

	"github.com/dukerupert/nacp/internal/database"
	"github.com/dukerupert/nacp/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createHolder makes a holder user and its holding.
func createHolder(t *testing.T, db *sql.DB, username string) *model.Holder {
	t.Helper()
	u, err := NewUserStore(db).Create(username, username+"@example.bs", "hash", model.RoleHolder, model.StatusActive)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := NewHolderStore(db).Create(u.ID, username)
	if err != nil {
		t.Fatalf("create holder: %v", err)
	}
	return h
}

func ptr[T any](v T) *T { return &v }
