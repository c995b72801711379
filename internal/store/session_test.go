package store

import (
	"testing"

	"github.com/dukerupert/nacp/internal/model"
)

func TestSessionCreateAdmin(t *testing.T) {
	ss := NewSessionStore(setupTestDB(t))

	sess, err := ss.Create(nil, "admin", model.RoleAdmin)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 {
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.UserID != nil {
		t.Errorf("user_id = %v, want nil", *sess.UserID)
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.Username != "admin" || got.Role != model.RoleAdmin {
		t.Errorf("session = %+v", got)
	}
}

func TestSessionUserCascade(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	us := NewUserStore(db)

	u, _ := us.Create("farmer", "farmer@example.bs", "hash", model.RoleHolder, model.StatusActive)
	sess, err := ss.Create(&u.ID, u.Username, u.Role)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := us.Delete(u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	got, _ := ss.GetByToken(sess.Token)
	if got != nil {
		t.Error("expected session removed with user")
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)

	live, _ := ss.Create(nil, "admin", model.RoleAdmin)
	old, _ := ss.Create(nil, "admin", model.RoleAdmin)
	db.Exec(`UPDATE sessions SET expires_at = datetime('now', '-1 day') WHERE id = ?`, old.ID)

	n, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}
	if got, _ := ss.GetByToken(live.Token); got == nil {
		t.Error("expected live session kept")
	}
}
