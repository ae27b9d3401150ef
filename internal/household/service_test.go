package household

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/database"
	"github.com/dukerupert/pantry/internal/model"
	"github.com/dukerupert/pantry/internal/store"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(store.NewHouseholdStore(db), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if !apperr.Is(err, kind) {
		t.Fatalf("err = %v, want %s", err, kind)
	}
}

func TestCreateAndGet(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	h, err := svc.Create(ctx, "alice", " Home ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.Name != "Home" || h.AdminID != "alice" || len(h.Members) != 0 {
		t.Errorf("household = %+v", h)
	}
	if _, err := svc.Get(ctx, "alice", h.ID); err != nil {
		t.Errorf("admin get: %v", err)
	}
	_, err = svc.Get(ctx, "bob", h.ID)
	wantKind(t, err, apperr.KindForbidden)
	_, err = svc.Get(ctx, "alice", "missing")
	wantKind(t, err, apperr.KindNotFound)
	_, err = svc.Create(ctx, "alice", "")
	wantKind(t, err, apperr.KindValidation)
}

func TestInvite(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	h, _ := svc.Create(ctx, "alice", "Home")

	got, err := svc.Invite(ctx, "alice", h.ID, Invitation{UserID: "bob"})
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	bob, ok := got.Member("bob")
	if !ok {
		t.Fatal("bob not a member")
	}
	if bob.Role != model.RoleMember || bob.Permissions != model.RoleMember.DefaultPermissions() {
		t.Errorf("bob = %+v", bob)
	}

	tests := []struct {
		name  string
		actor string
		inv   Invitation
		kind  apperr.Kind
	}{
		{"existing member", "alice", Invitation{UserID: "bob"}, apperr.KindConflict},
		{"admin", "alice", Invitation{UserID: "alice"}, apperr.KindConflict},
		{"unknown role", "alice", Invitation{UserID: "carol", Role: "owner"}, apperr.KindValidation},
		{"unknown token", "alice", Invitation{UserID: "carol", Permissions: []string{"fly"}}, apperr.KindValidation},
		{"blank user", "alice", Invitation{UserID: " "}, apperr.KindValidation},
		{"member without invite token", "bob", Invitation{UserID: "carol"}, apperr.KindForbidden},
		{"stranger", "mallory", Invitation{UserID: "carol"}, apperr.KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Invite(ctx, tt.actor, h.ID, tt.inv)
			wantKind(t, err, tt.kind)
		})
	}
}

func TestCoAdminInvitesAndRemoves(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	h, _ := svc.Create(ctx, "alice", "Home")

	if _, err := svc.Invite(ctx, "alice", h.ID, Invitation{UserID: "carol", Role: "co-admin"}); err != nil {
		t.Fatalf("invite carol: %v", err)
	}
	if _, err := svc.Invite(ctx, "carol", h.ID, Invitation{UserID: "dave", Permissions: []string{"view_lists"}}); err != nil {
		t.Fatalf("co-admin invite: %v", err)
	}
	got, err := svc.RemoveMember(ctx, "carol", h.ID, "dave")
	if err != nil {
		t.Fatalf("co-admin remove: %v", err)
	}
	if got.Belongs("dave") {
		t.Error("dave still belongs")
	}

	_, err = svc.RemoveMember(ctx, "carol", h.ID, "alice")
	wantKind(t, err, apperr.KindValidation)
	_, err = svc.RemoveMember(ctx, "carol", h.ID, "dave")
	wantKind(t, err, apperr.KindNotFound)

	// A co-admin stripped of invite_members can no longer invite.
	if _, err := svc.UpdateMember(ctx, "alice", h.ID, "carol", MemberPatch{Permissions: []string{"view_lists", "remove_members"}}); err != nil {
		t.Fatalf("update carol: %v", err)
	}
	_, err = svc.Invite(ctx, "carol", h.ID, Invitation{UserID: "erin"})
	wantKind(t, err, apperr.KindForbidden)
}

func TestInviteByMemberIsBoundedByOwnTokens(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	h, _ := svc.Create(ctx, "alice", "Home")
	if _, err := svc.Invite(ctx, "alice", h.ID, Invitation{UserID: "bob", Permissions: []string{"invite_members", "view_lists", "edit_lists"}}); err != nil {
		t.Fatalf("invite bob: %v", err)
	}
	if _, err := svc.Invite(ctx, "alice", h.ID, Invitation{UserID: "carol", Role: "co-admin"}); err != nil {
		t.Fatalf("invite carol: %v", err)
	}

	tests := []struct {
		name    string
		actor   string
		inv     Invitation
		wantErr bool
	}{
		{"subset of own tokens", "bob", Invitation{UserID: "dave", Permissions: []string{"view_lists"}}, false},
		{"all own tokens", "bob", Invitation{UserID: "erin", Permissions: []string{"invite_members", "view_lists", "edit_lists"}}, false},
		{"token the inviter lacks", "bob", Invitation{UserID: "frank", Permissions: []string{"view_inventory"}}, true},
		{"role defaults exceed tokens", "bob", Invitation{UserID: "frank"}, true},
		{"member inviting co-admin", "bob", Invitation{UserID: "frank", Role: "co-admin", Permissions: []string{"view_lists"}}, true},
		{"co-admin inviting co-admin", "carol", Invitation{UserID: "frank", Role: "co-admin"}, true},
		{"co-admin inviting member", "carol", Invitation{UserID: "gina", Permissions: []string{"remove_members"}}, false},
		{"admin inviting co-admin", "alice", Invitation{UserID: "hank", Role: "co-admin"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Invite(ctx, tt.actor, h.ID, tt.inv)
			if tt.wantErr {
				wantKind(t, err, apperr.KindForbidden)
				return
			}
			if err != nil {
				t.Fatalf("invite: %v", err)
			}
			if !got.Belongs(tt.inv.UserID) {
				t.Errorf("%s was not added", tt.inv.UserID)
			}
		})
	}
}

func TestUpdateMember(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	h, _ := svc.Create(ctx, "alice", "Home")
	svc.Invite(ctx, "alice", h.ID, Invitation{UserID: "bob"})

	got, err := svc.UpdateMember(ctx, "alice", h.ID, "bob", MemberPatch{Role: ptr("co-admin")})
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	bob, _ := got.Member("bob")
	if bob.Role != model.RoleCoAdmin || !bob.Permissions.Has(model.PermRemoveMembers) {
		t.Errorf("bob = %+v", bob)
	}

	got, err = svc.UpdateMember(ctx, "alice", h.ID, "bob", MemberPatch{Permissions: []string{"edit_inventory"}})
	if err != nil {
		t.Fatalf("set tokens: %v", err)
	}
	bob, _ = got.Member("bob")
	if bob.Role != model.RoleCoAdmin || bob.Permissions != model.NewPermissionSet(model.PermEditInventory) {
		t.Errorf("bob = %+v", bob)
	}

	stored, _ := svc.Get(ctx, "bob", h.ID)
	if m, _ := stored.Member("bob"); m.Permissions != bob.Permissions {
		t.Errorf("stored permissions = %v", m.Permissions)
	}

	_, err = svc.UpdateMember(ctx, "bob", h.ID, "bob", MemberPatch{Role: ptr("member")})
	wantKind(t, err, apperr.KindForbidden)
	_, err = svc.UpdateMember(ctx, "alice", h.ID, "zed", MemberPatch{Role: ptr("member")})
	wantKind(t, err, apperr.KindNotFound)
}

func TestListForUser(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	a, _ := svc.Create(ctx, "alice", "Alice's")
	b, _ := svc.Create(ctx, "bob", "Bob's")
	svc.Invite(ctx, "bob", b.ID, Invitation{UserID: "alice"})

	got, err := svc.ListForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	ids := map[string]bool{}
	for _, h := range got {
		ids[h.ID] = true
	}
	if len(got) != 2 || !ids[a.ID] || !ids[b.ID] {
		t.Errorf("households = %v", ids)
	}
}

func ptr[T any](v T) *T { return &v }
