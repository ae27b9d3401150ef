// Package access decides what an actor may do with a shared resource.
package access

import (
	"context"
	"log/slog"

	"github.com/dukerupert/pantry/internal/model"
)

// ResourceKind selects which household tokens apply to a resource.
type ResourceKind int

const (
	KindList ResourceKind = iota
	KindInventory
)

func (k ResourceKind) String() string {
	if k == KindInventory {
		return "inventory"
	}
	return "list"
}

// Resource is the access-relevant view of a list or inventory.
type Resource struct {
	Kind        ResourceKind
	OwnerID     string
	HouseholdID string
	Shares      []model.ShareGrant
}

func ListResource(l *model.GroceryList) Resource {
	return Resource{Kind: KindList, OwnerID: l.OwnerID, HouseholdID: l.HouseholdID, Shares: l.Shares}
}

func InventoryResource(inv *model.Inventory) Resource {
	return Resource{Kind: KindInventory, OwnerID: inv.OwnerID, HouseholdID: inv.HouseholdID}
}

type Capabilities struct {
	CanView   bool `json:"can_view"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanShare  bool `json:"can_share"`
}

// Capability names one of the four operations a resource gates.
type Capability string

const (
	View   Capability = "view"
	Edit   Capability = "edit"
	Delete Capability = "delete"
	Share  Capability = "share"
)

func (c Capabilities) Allows(want Capability) bool {
	switch want {
	case View:
		return c.CanView
	case Edit:
		return c.CanEdit
	case Delete:
		return c.CanDelete
	case Share:
		return c.CanShare
	}
	return false
}

func (c Capabilities) union(o Capabilities) Capabilities {
	return Capabilities{
		CanView:   c.CanView || o.CanView,
		CanEdit:   c.CanEdit || o.CanEdit,
		CanDelete: c.CanDelete || o.CanDelete,
		CanShare:  c.CanShare || o.CanShare,
	}
}

// Evaluate computes capabilities from the resource and, when the resource is
// household scoped, its household (nil if unknown). Tiers only ever grant, so
// a capability is held if any tier grants it. Delete comes only from
// ownership or household admin; share only from ownership.
func Evaluate(actor string, res Resource, household *model.Household) Capabilities {
	var caps Capabilities
	if actor == "" {
		return caps
	}

	if actor == res.OwnerID {
		return Capabilities{CanView: true, CanEdit: true, CanDelete: true, CanShare: true}
	}

	for _, g := range res.Shares {
		if g.UserID != actor {
			continue
		}
		switch g.Permission {
		case model.ShareEdit:
			caps = caps.union(Capabilities{CanView: true, CanEdit: true})
		case model.ShareView:
			caps = caps.union(Capabilities{CanView: true})
		}
		break
	}

	if res.HouseholdID == "" || household == nil || household.ID != res.HouseholdID {
		return caps
	}

	if household.IsAdmin(actor) {
		return caps.union(Capabilities{CanView: true, CanEdit: true, CanDelete: true})
	}

	if m, ok := household.Member(actor); ok {
		viewTok, editTok := model.PermViewLists, model.PermEditLists
		if res.Kind == KindInventory {
			viewTok, editTok = model.PermViewInventory, model.PermEditInventory
		}
		if m.Permissions.Has(editTok) {
			caps = caps.union(Capabilities{CanView: true, CanEdit: true})
		}
		if m.Permissions.Has(viewTok) {
			caps = caps.union(Capabilities{CanView: true})
		}
	}
	return caps
}

// CanManageMembers reports whether actor may invite (PermInviteMembers) or
// remove (PermRemoveMembers) household members.
func CanManageMembers(actor string, household *model.Household, perm model.Permission) bool {
	if household == nil || actor == "" {
		return false
	}
	if household.IsAdmin(actor) {
		return true
	}
	m, ok := household.Member(actor)
	return ok && m.Permissions.Has(perm)
}

// HouseholdGetter loads a household by id, returning (nil, nil) if absent.
type HouseholdGetter interface {
	GetByID(ctx context.Context, id string) (*model.Household, error)
}

// Resolver evaluates capabilities against the current membership directory.
type Resolver struct {
	households HouseholdGetter
	logger     *slog.Logger
}

func NewResolver(households HouseholdGetter, logger *slog.Logger) *Resolver {
	return &Resolver{households: households, logger: logger}
}

// Resolve never fails. A household that cannot be loaded contributes no
// grants.
func (r *Resolver) Resolve(ctx context.Context, actor string, res Resource) Capabilities {
	var household *model.Household
	if res.HouseholdID != "" && actor != "" && actor != res.OwnerID {
		h, err := r.households.GetByID(ctx, res.HouseholdID)
		if err != nil {
			r.logger.Warn("household lookup failed", "household_id", res.HouseholdID, "error", err)
		}
		household = h
	}
	return Evaluate(actor, res, household)
}
