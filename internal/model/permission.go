package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Permission is a single household capability token.
type Permission uint8

const (
	PermEditLists Permission = 1 << iota
	PermViewLists
	PermEditInventory
	PermViewInventory
	PermInviteMembers
	PermRemoveMembers
)

var permissionNames = []struct {
	perm Permission
	name string
}{
	{PermEditLists, "edit_lists"},
	{PermViewLists, "view_lists"},
	{PermEditInventory, "edit_inventory"},
	{PermViewInventory, "view_inventory"},
	{PermInviteMembers, "invite_members"},
	{PermRemoveMembers, "remove_members"},
}

func (p Permission) String() string {
	for _, pn := range permissionNames {
		if pn.perm == p {
			return pn.name
		}
	}
	return fmt.Sprintf("permission(%d)", uint8(p))
}

// ParsePermission resolves a token name. Unknown tokens are an error.
func ParsePermission(s string) (Permission, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, pn := range permissionNames {
		if pn.name == name {
			return pn.perm, nil
		}
	}
	return 0, fmt.Errorf("unknown permission %q", s)
}

// PermissionSet is a closed set of permission tokens.
type PermissionSet uint8

const allPermissions = PermissionSet(PermEditLists | PermViewLists | PermEditInventory | PermViewInventory | PermInviteMembers | PermRemoveMembers)

func NewPermissionSet(perms ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range perms {
		s |= PermissionSet(p)
	}
	return s & allPermissions
}

// ParsePermissions builds a set from token names, rejecting unknown tokens.
func ParsePermissions(tokens []string) (PermissionSet, error) {
	var s PermissionSet
	for _, tok := range tokens {
		p, err := ParsePermission(tok)
		if err != nil {
			return 0, err
		}
		s |= PermissionSet(p)
	}
	return s, nil
}

func (s PermissionSet) Has(p Permission) bool { return s&PermissionSet(p) != 0 }

func (s PermissionSet) With(p Permission) PermissionSet { return s | PermissionSet(p) }

// Covers reports whether every token in other is also in s.
func (s PermissionSet) Covers(other PermissionSet) bool { return other&^s == 0 }

func (s PermissionSet) Tokens() []string {
	tokens := make([]string, 0, len(permissionNames))
	for _, pn := range permissionNames {
		if s.Has(pn.perm) {
			tokens = append(tokens, pn.name)
		}
	}
	return tokens
}

// String encodes the set as a comma-separated token list, the storage form.
func (s PermissionSet) String() string { return strings.Join(s.Tokens(), ",") }

// ParsePermissionString decodes the storage form produced by String.
func ParsePermissionString(s string) (PermissionSet, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return ParsePermissions(strings.Split(s, ","))
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Tokens())
}

func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return err
	}
	parsed, err := ParsePermissions(tokens)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Role is a household member's role.
type Role string

const (
	RoleMember  Role = "member"
	RoleCoAdmin Role = "co-admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleMember:
		return RoleMember, nil
	case RoleCoAdmin:
		return RoleCoAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// DefaultPermissions is the token set a role receives when none are given.
func (r Role) DefaultPermissions() PermissionSet {
	if r == RoleCoAdmin {
		return allPermissions
	}
	return NewPermissionSet(PermEditLists, PermViewLists, PermViewInventory)
}

// SharePermission is the grade of a direct share grant.
type SharePermission string

const (
	ShareView SharePermission = "view"
	ShareEdit SharePermission = "edit"
)

func ParseSharePermission(s string) (SharePermission, error) {
	switch SharePermission(strings.ToLower(strings.TrimSpace(s))) {
	case ShareView:
		return ShareView, nil
	case ShareEdit:
		return ShareEdit, nil
	}
	return "", fmt.Errorf("unknown share permission %q", s)
}
