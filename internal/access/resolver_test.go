package access

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dukerupert/pantry/internal/model"
)

func household(members ...model.Member) *model.Household {
	return &model.Household{ID: "h1", AdminID: "admin", Members: members}
}

func member(user string, perms ...model.Permission) model.Member {
	return model.Member{UserID: user, Role: model.RoleMember, Permissions: model.NewPermissionSet(perms...)}
}

func TestEvaluate(t *testing.T) {
	hh := household(
		member("lister", model.PermEditLists),
		member("viewer", model.PermViewLists),
		member("stocker", model.PermEditInventory),
		member("nobody"),
	)
	list := Resource{Kind: KindList, OwnerID: "owner", HouseholdID: "h1", Shares: []model.ShareGrant{
		{UserID: "sharedEdit", Permission: model.ShareEdit},
		{UserID: "sharedView", Permission: model.ShareView},
		{UserID: "viewer", Permission: model.ShareEdit},
	}}
	inv := Resource{Kind: KindInventory, OwnerID: "admin", HouseholdID: "h1"}

	all := Capabilities{CanView: true, CanEdit: true, CanDelete: true, CanShare: true}
	viewEdit := Capabilities{CanView: true, CanEdit: true}
	viewOnly := Capabilities{CanView: true}
	none := Capabilities{}

	tests := []struct {
		name  string
		actor string
		res   Resource
		want  Capabilities
	}{
		{"owner", "owner", list, all},
		{"edit share", "sharedEdit", list, viewEdit},
		{"view share", "sharedView", list, viewOnly},
		{"admin", "admin", list, Capabilities{CanView: true, CanEdit: true, CanDelete: true}},
		{"member edit_lists", "lister", list, viewEdit},
		{"member view_lists plus edit share", "viewer", list, viewEdit},
		{"inventory token does not open lists", "stocker", list, none},
		{"member without tokens", "nobody", list, none},
		{"stranger", "stranger", list, none},
		{"empty actor", "", list, none},
		{"inventory edit token", "stocker", inv, viewEdit},
		{"list token does not open inventory", "lister", inv, none},
		{"inventory owner", "admin", inv, all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.actor, tt.res, hh); got != tt.want {
				t.Errorf("Evaluate = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEvaluateIgnoresMismatchedHousehold(t *testing.T) {
	other := &model.Household{ID: "h2", AdminID: "admin"}
	res := Resource{Kind: KindList, OwnerID: "owner", HouseholdID: "h1"}
	if got := Evaluate("admin", res, other); got != (Capabilities{}) {
		t.Errorf("Evaluate = %+v, want none", got)
	}
}

func TestDeleteOnlyForOwnerOrAdmin(t *testing.T) {
	shares := []Resource{
		{Kind: KindList, OwnerID: "owner", HouseholdID: "h1"},
		{Kind: KindList, OwnerID: "owner", HouseholdID: "h1", Shares: []model.ShareGrant{{UserID: "m", Permission: model.ShareEdit}}},
		{Kind: KindInventory, OwnerID: "owner", HouseholdID: "h1"},
	}
	for bits := 0; bits < 64; bits++ {
		hh := household(model.Member{UserID: "m", Role: model.RoleCoAdmin, Permissions: model.PermissionSet(bits)})
		for _, res := range shares {
			caps := Evaluate("m", res, hh)
			if caps.CanDelete {
				t.Fatalf("member with tokens %v got delete on %v", model.PermissionSet(bits), res.Kind)
			}
			if caps.CanShare {
				t.Fatalf("member with tokens %v got share on %v", model.PermissionSet(bits), res.Kind)
			}
			if again := Evaluate("m", res, hh); again != caps {
				t.Fatalf("Evaluate not deterministic: %+v vs %+v", caps, again)
			}
		}
	}
}

func TestCanManageMembers(t *testing.T) {
	hh := household(
		model.Member{UserID: "co", Role: model.RoleCoAdmin, Permissions: model.NewPermissionSet(model.PermEditLists)},
		model.Member{UserID: "inviter", Role: model.RoleMember, Permissions: model.NewPermissionSet(model.PermInviteMembers)},
	)
	tests := []struct {
		actor string
		perm  model.Permission
		want  bool
	}{
		{"admin", model.PermInviteMembers, true},
		{"admin", model.PermRemoveMembers, true},
		{"co", model.PermInviteMembers, false},
		{"inviter", model.PermInviteMembers, true},
		{"inviter", model.PermRemoveMembers, false},
		{"stranger", model.PermInviteMembers, false},
	}
	for _, tt := range tests {
		if got := CanManageMembers(tt.actor, hh, tt.perm); got != tt.want {
			t.Errorf("CanManageMembers(%q, %s) = %v, want %v", tt.actor, tt.perm, got, tt.want)
		}
	}
}

type stubHouseholds struct {
	h     *model.Household
	err   error
	calls int
}

func (s *stubHouseholds) GetByID(ctx context.Context, id string) (*model.Household, error) {
	s.calls++
	return s.h, s.err
}

func TestResolverLookupFailureGrantsNothingExtra(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	stub := &stubHouseholds{err: errors.New("db down")}
	r := NewResolver(stub, logger)

	res := Resource{Kind: KindList, OwnerID: "owner", HouseholdID: "h1", Shares: []model.ShareGrant{{UserID: "s", Permission: model.ShareView}}}
	if got := r.Resolve(context.Background(), "admin", res); got != (Capabilities{}) {
		t.Errorf("admin caps on lookup failure = %+v, want none", got)
	}
	if got := r.Resolve(context.Background(), "s", res); got != (Capabilities{CanView: true}) {
		t.Errorf("share caps on lookup failure = %+v, want view", got)
	}
}

func TestResolverSkipsLookupForOwner(t *testing.T) {
	stub := &stubHouseholds{h: household()}
	r := NewResolver(stub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r.Resolve(context.Background(), "owner", Resource{OwnerID: "owner", HouseholdID: "h1"})
	if stub.calls != 0 {
		t.Errorf("lookups = %d, want 0", stub.calls)
	}
	got := r.Resolve(context.Background(), "admin", Resource{OwnerID: "owner", HouseholdID: "h1"})
	if !got.CanDelete || got.CanShare {
		t.Errorf("admin caps = %+v", got)
	}
}

func TestCapabilitiesAllows(t *testing.T) {
	c := Capabilities{CanView: true, CanEdit: true}
	if !c.Allows(View) || !c.Allows(Edit) {
		t.Errorf("Allows view/edit = false for %+v", c)
	}
	if c.Allows(Delete) || c.Allows(Share) || c.Allows(Capability("bogus")) {
		t.Errorf("Allows too broad for %+v", c)
	}
}
