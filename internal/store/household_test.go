package store

import (
	"context"
	"testing"

	"github.com/dukerupert/pantry/internal/model"
)

func createHousehold(t *testing.T, hs *HouseholdStore, id, admin string, members ...model.Member) *model.Household {
	t.Helper()
	h := &model.Household{ID: id, Name: "Home " + id, AdminID: admin, Members: members, CreatedAt: testNow, UpdatedAt: testNow}
	if err := hs.Create(context.Background(), h); err != nil {
		t.Fatalf("create household: %v", err)
	}
	return h
}

func TestHouseholdCreateAndGet(t *testing.T) {
	hs := NewHouseholdStore(setupTestDB(t))
	ctx := context.Background()

	createHousehold(t, hs, "h1", "alice",
		model.Member{UserID: "bob", Role: model.RoleMember, Permissions: model.RoleMember.DefaultPermissions(), JoinedAt: testNow},
		model.Member{UserID: "carol", Role: model.RoleCoAdmin, Permissions: model.NewPermissionSet(model.PermInviteMembers), JoinedAt: testNow},
	)

	h, err := hs.GetByID(ctx, "h1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if h == nil {
		t.Fatal("expected household, got nil")
	}
	if h.AdminID != "alice" {
		t.Errorf("AdminID = %q, want alice", h.AdminID)
	}
	if len(h.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(h.Members))
	}
	if h.Members[0].UserID != "bob" || h.Members[1].UserID != "carol" {
		t.Errorf("member order = %q, %q", h.Members[0].UserID, h.Members[1].UserID)
	}
	if h.Members[1].Role != model.RoleCoAdmin {
		t.Errorf("carol role = %q, want co-admin", h.Members[1].Role)
	}
	if !h.Members[1].Permissions.Has(model.PermInviteMembers) {
		t.Errorf("carol permissions = %v", h.Members[1].Permissions)
	}
	if !h.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", h.CreatedAt, testNow)
	}
}

func TestHouseholdGetMissing(t *testing.T) {
	hs := NewHouseholdStore(setupTestDB(t))

	h, err := hs.GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if h != nil {
		t.Errorf("expected nil, got %+v", h)
	}
}

func TestHouseholdSaveReplacesMembers(t *testing.T) {
	hs := NewHouseholdStore(setupTestDB(t))
	ctx := context.Background()

	h := createHousehold(t, hs, "h1", "alice",
		model.Member{UserID: "bob", Role: model.RoleMember, JoinedAt: testNow},
	)
	h.Members = nil
	if err := h.AddMember(model.Member{UserID: "dave", Role: model.RoleMember, Permissions: model.NewPermissionSet(model.PermViewLists), JoinedAt: testNow}); err != nil {
		t.Fatalf("add member: %v", err)
	}
	h.Name = "Renamed"
	if err := hs.Save(ctx, h); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := hs.GetByID(ctx, "h1")
	if got.Name != "Renamed" {
		t.Errorf("Name = %q, want Renamed", got.Name)
	}
	if len(got.Members) != 1 || got.Members[0].UserID != "dave" {
		t.Errorf("members = %+v, want only dave", got.Members)
	}
}

func TestHouseholdListForUser(t *testing.T) {
	hs := NewHouseholdStore(setupTestDB(t))
	ctx := context.Background()

	createHousehold(t, hs, "h1", "alice", model.Member{UserID: "bob", Role: model.RoleMember, JoinedAt: testNow})
	createHousehold(t, hs, "h2", "bob")
	createHousehold(t, hs, "h3", "carol")

	households, err := hs.ListForUser(ctx, "bob")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(households) != 2 {
		t.Fatalf("households = %d, want 2", len(households))
	}
	seen := map[string]bool{}
	for _, h := range households {
		seen[h.ID] = true
	}
	if !seen["h1"] || !seen["h2"] {
		t.Errorf("households = %v, want h1 and h2", seen)
	}
}
