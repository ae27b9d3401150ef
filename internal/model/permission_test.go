package model

import (
	"encoding/json"
	"testing"
)

func TestParsePermissionsRejectsUnknown(t *testing.T) {
	if _, err := ParsePermissions([]string{"edit_lists", "launch_rockets"}); err == nil {
		t.Fatal("expected error for unknown token")
	}
}

func TestParsePermissions(t *testing.T) {
	set, err := ParsePermissions([]string{"EDIT_LISTS", " view_inventory "})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !set.Has(PermEditLists) || !set.Has(PermViewInventory) {
		t.Errorf("set = %v, want edit_lists and view_inventory", set)
	}
	if set.Has(PermInviteMembers) {
		t.Error("set should not contain invite_members")
	}
}

func TestPermissionSetStorageRoundTrip(t *testing.T) {
	set := NewPermissionSet(PermViewLists, PermRemoveMembers)
	if got := set.String(); got != "view_lists,remove_members" {
		t.Errorf("String() = %q", got)
	}
	parsed, err := ParsePermissionString(set.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != set {
		t.Errorf("parsed = %v, want %v", parsed, set)
	}

	empty, err := ParsePermissionString("")
	if err != nil || empty != 0 {
		t.Errorf("empty parse = %v, %v", empty, err)
	}
}

func TestPermissionSetJSON(t *testing.T) {
	data, err := json.Marshal(NewPermissionSet(PermEditInventory))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["edit_inventory"]` {
		t.Errorf("json = %s", data)
	}

	var set PermissionSet
	if err := json.Unmarshal([]byte(`["bogus"]`), &set); err == nil {
		t.Error("expected unmarshal error for unknown token")
	}
}

func TestRoleDefaults(t *testing.T) {
	member := RoleMember.DefaultPermissions()
	for _, p := range []Permission{PermEditLists, PermViewLists, PermViewInventory} {
		if !member.Has(p) {
			t.Errorf("member defaults missing %s", p)
		}
	}
	if member.Has(PermInviteMembers) || member.Has(PermEditInventory) {
		t.Errorf("member defaults too broad: %v", member)
	}

	if len(RoleCoAdmin.DefaultPermissions().Tokens()) != 6 {
		t.Errorf("co-admin defaults = %v, want all tokens", RoleCoAdmin.DefaultPermissions())
	}

	if _, err := ParseRole("owner"); err == nil {
		t.Error("expected error for unknown role")
	}
	if r, err := ParseRole("Co-Admin"); err != nil || r != RoleCoAdmin {
		t.Errorf("ParseRole = %q, %v", r, err)
	}
}

func TestParseSharePermission(t *testing.T) {
	if _, err := ParseSharePermission("admin"); err == nil {
		t.Error("expected error for admin grant")
	}
	if p, err := ParseSharePermission("EDIT"); err != nil || p != ShareEdit {
		t.Errorf("ParseSharePermission = %q, %v", p, err)
	}
}

func TestPermissionSetCovers(t *testing.T) {
	own := NewPermissionSet(PermViewLists, PermEditLists, PermInviteMembers)
	tests := []struct {
		name  string
		other PermissionSet
		want  bool
	}{
		{"empty", 0, true},
		{"same", own, true},
		{"subset", NewPermissionSet(PermViewLists), true},
		{"extra token", NewPermissionSet(PermViewLists, PermRemoveMembers), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := own.Covers(tt.other); got != tt.want {
				t.Errorf("Covers(%s) = %v, want %v", tt.other, got, tt.want)
			}
		})
	}
}
