package store

import (
	"testing"

	"github.com/dukerupert/nacp/internal/model"
)

func TestUserCRUD(t *testing.T) {
	us := NewUserStore(setupTestDB(t))

	u, err := us.Create("agent1", "agent1@example.bs", "hash", model.RoleAgent, model.StatusPending)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Status != model.StatusPending {
		t.Errorf("status = %q, want %q", u.Status, model.StatusPending)
	}
	if u.CanLogin() {
		t.Error("pending agent should not log in")
	}

	byName, err := us.GetByUsername("agent1")
	if err != nil || byName == nil || byName.ID != u.ID {
		t.Fatalf("get by username = %+v, %v", byName, err)
	}

	approved, err := us.SetStatus(u.ID, model.StatusApproved)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if !approved.CanLogin() {
		t.Error("approved agent should log in")
	}

	if _, err := us.Create("agent1", "dup@example.bs", "hash", model.RoleAgent, model.StatusPending); err == nil {
		t.Error("expected unique username error")
	}
	if _, err := us.Create("bad", "bad@example.bs", "hash", "Farmer", model.StatusPending); err == nil {
		t.Error("expected role check error")
	}
}

func TestUserListPendingFirst(t *testing.T) {
	us := NewUserStore(setupTestDB(t))
	us.Create("alpha", "a@example.bs", "h", model.RoleAgent, model.StatusApproved)
	us.Create("zulu", "z@example.bs", "h", model.RoleAgent, model.StatusPending)
	us.Create("holder", "h@example.bs", "h", model.RoleHolder, model.StatusActive)

	agents, err := us.List(model.RoleAgent)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("agents = %d, want 2", len(agents))
	}
	if agents[0].Username != "zulu" {
		t.Errorf("first = %q, want pending zulu", agents[0].Username)
	}

	all, _ := us.List("")
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}
}
