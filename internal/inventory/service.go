// Package inventory tracks what a person or household has on hand.
package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukerupert/pantry/internal/access"
	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/metrics"
	"github.com/dukerupert/pantry/internal/model"
	"github.com/dukerupert/pantry/internal/replenish"
)

type Store interface {
	Get(ctx context.Context, scope model.InventoryScope) (*model.Inventory, error)
	GetOrCreate(ctx context.Context, scope model.InventoryScope, ownerID string) (*model.Inventory, error)
	Save(ctx context.Context, inv *model.Inventory) error
}

type Catalog interface {
	Product(ctx context.Context, id string) (*model.Product, error)
	ProductByBarcode(ctx context.Context, barcode string) (*model.Product, error)
}

// ListGetter checks access to a grocery list. Satisfied by *grocery.Service.
type ListGetter interface {
	Get(ctx context.Context, actor, id string) (*model.GroceryList, access.Capabilities, error)
}

type Replenisher interface {
	AfterMutation(ctx context.Context, m replenish.Mutation) replenish.Outcome
}

type Service struct {
	inventories Store
	households  access.HouseholdGetter
	resolver    *access.Resolver
	catalog     Catalog
	lists       ListGetter
	replenisher Replenisher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

type Deps struct {
	Inventories Store
	Households  access.HouseholdGetter
	Resolver    *access.Resolver
	Catalog     Catalog
	Lists       ListGetter
	Replenisher Replenisher
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

func NewService(d Deps) *Service {
	return &Service{
		inventories: d.Inventories,
		households:  d.Households,
		resolver:    d.Resolver,
		catalog:     d.Catalog,
		lists:       d.Lists,
		replenisher: d.Replenisher,
		metrics:     d.Metrics,
		logger:      d.Logger,
		tracer:      otel.Tracer("github.com/dukerupert/pantry/internal/inventory"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// open loads the inventory for householdID, or actor's personal inventory
// when householdID is empty, and checks that actor holds want on it. With
// create set, a missing inventory is created; otherwise it is NotFound.
func (s *Service) open(ctx context.Context, actor, householdID string, want access.Capability, create bool) (*model.Inventory, error) {
	if actor == "" {
		return nil, apperr.Forbidden("authentication required")
	}
	scope := model.InventoryScope{UserID: actor}
	owner := actor
	householdID = strings.TrimSpace(householdID)
	if householdID != "" {
		h, err := s.households.GetByID(ctx, householdID)
		if err != nil {
			return nil, err
		}
		if h == nil {
			return nil, apperr.NotFound("household %s not found", householdID)
		}
		scope = model.InventoryScope{HouseholdID: h.ID}
		owner = h.AdminID
		// Check before a first visit creates the household's inventory.
		res := access.Resource{Kind: access.KindInventory, OwnerID: owner, HouseholdID: h.ID}
		if !access.Evaluate(actor, res, h).Allows(want) {
			return nil, s.deny(want)
		}
	}

	var inv *model.Inventory
	var err error
	if create {
		inv, err = s.inventories.GetOrCreate(ctx, scope, owner)
	} else {
		inv, err = s.inventories.Get(ctx, scope)
	}
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperr.NotFound("inventory not found")
	}
	if !s.resolver.Resolve(ctx, actor, access.InventoryResource(inv)).Allows(want) {
		return nil, s.deny(want)
	}
	// Stored expiry flags are relative to the day they were written.
	now := s.now()
	for _, item := range inv.Items.All() {
		Recompute(item, inv.Settings, now)
	}
	return inv, nil
}

func (s *Service) deny(want access.Capability) error {
	s.metrics.AccessDenied(access.KindInventory.String(), string(want))
	return apperr.Forbidden("you do not have %s access to this inventory", want)
}

func (s *Service) save(ctx context.Context, inv *model.Inventory) error {
	inv.UpdatedAt = s.now()
	if err := s.inventories.Save(ctx, inv); err != nil {
		return fmt.Errorf("save inventory %s: %w", inv.ID, err)
	}
	return nil
}

// ItemResult is a mutated item plus what replenishment did about it.
type ItemResult struct {
	Item          *model.InventoryItem `json:"item"`
	Replenishment replenish.Outcome    `json:"replenishment"`
}

func (s *Service) replenish(ctx context.Context, actor string, inv *model.Inventory, item *model.InventoryItem, wasLow bool) replenish.Outcome {
	if s.replenisher == nil {
		return replenish.OutcomeSkipped
	}
	return s.replenisher.AfterMutation(ctx, replenish.Mutation{
		Actor:       actor,
		Inventory:   inv,
		Item:        item,
		WasLowStock: wasLow,
	})
}

func (s *Service) Get(ctx context.Context, actor, householdID string) (*model.Inventory, error) {
	return s.open(ctx, actor, householdID, access.View, true)
}

func (s *Service) List(ctx context.Context, actor, householdID string, f Filter, order Sort) (*ListResult, error) {
	inv, err := s.open(ctx, actor, householdID, access.View, true)
	if err != nil {
		return nil, err
	}
	return Query(inv, f, order), nil
}

func (s *Service) GetItem(ctx context.Context, actor, householdID, itemID string) (*model.InventoryItem, error) {
	inv, err := s.open(ctx, actor, householdID, access.View, false)
	if err != nil {
		return nil, err
	}
	item, ok := inv.Items.Get(itemID)
	if !ok {
		return nil, apperr.NotFound("item %s not found", itemID)
	}
	return item, nil
}

// enrich fills blank draft fields from the catalog product it references.
func (s *Service) enrich(ctx context.Context, d ItemDraft) (ItemDraft, error) {
	if strings.TrimSpace(d.ProductID) == "" {
		return d, nil
	}
	p, err := s.catalog.Product(ctx, strings.TrimSpace(d.ProductID))
	if err != nil {
		return d, err
	}
	if strings.TrimSpace(d.Name) == "" {
		d.Name = p.Name
	}
	if strings.TrimSpace(d.Category) == "" {
		d.Category = p.Category
	}
	if strings.TrimSpace(d.Unit) == "" {
		d.Unit = p.Unit
	}
	if d.Price == 0 {
		d.Price = p.Price
	}
	if strings.TrimSpace(d.Barcode) == "" {
		d.Barcode = p.Barcode
	}
	return d, nil
}

// insert validates d and puts it into inv without saving.
func (s *Service) insert(ctx context.Context, inv *model.Inventory, actor string, d ItemDraft) (*model.InventoryItem, error) {
	d, err := s.enrich(ctx, d)
	if err != nil {
		return nil, err
	}
	item, err := NewItem(d, inv.Settings, actor, s.now())
	if err != nil {
		return nil, err
	}
	if item.Barcode != "" {
		if _, dup := inv.Items.Find(func(it *model.InventoryItem) bool { return it.Barcode == item.Barcode }); dup {
			return nil, apperr.Conflict("an item with barcode %s is already in this inventory", item.Barcode)
		}
	}
	inv.Items.Put(item.ID, item)
	return item, nil
}

func (s *Service) AddItem(ctx context.Context, actor, householdID string, d ItemDraft) (*ItemResult, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.AddItem")
	defer span.End()

	inv, err := s.open(ctx, actor, householdID, access.Edit, true)
	if err != nil {
		return nil, err
	}
	item, err := s.insert(ctx, inv, actor, d)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, inv); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("inventory.id", inv.ID), attribute.String("item.id", item.ID))
	return &ItemResult{Item: item, Replenishment: s.replenish(ctx, actor, inv, item, false)}, nil
}

type BulkError struct {
	Index   int    `json:"index"`
	Message string `json:"error"`
}

type BulkResult struct {
	Added  []ItemResult `json:"added"`
	Errors []BulkError  `json:"errors"`
}

// BulkAdd adds each valid draft and reports the rest by index. All valid
// drafts are saved together.
func (s *Service) BulkAdd(ctx context.Context, actor, householdID string, drafts []ItemDraft) (*BulkResult, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.BulkAdd", trace.WithAttributes(attribute.Int("items", len(drafts))))
	defer span.End()

	if len(drafts) == 0 {
		return nil, apperr.Validation("items are required")
	}
	inv, err := s.open(ctx, actor, householdID, access.Edit, true)
	if err != nil {
		return nil, err
	}
	res := &BulkResult{Added: []ItemResult{}, Errors: []BulkError{}}
	var added []*model.InventoryItem
	for i, d := range drafts {
		item, err := s.insert(ctx, inv, actor, d)
		if err != nil {
			res.Errors = append(res.Errors, BulkError{Index: i, Message: apperr.Message(err)})
			continue
		}
		added = append(added, item)
	}
	if len(added) == 0 {
		return res, nil
	}
	if err := s.save(ctx, inv); err != nil {
		return nil, err
	}
	for _, item := range added {
		res.Added = append(res.Added, ItemResult{Item: item, Replenishment: s.replenish(ctx, actor, inv, item, false)})
	}
	return res, nil
}

// Scan records one more unit of the product with barcode. An item already
// tracking the product is incremented; otherwise a new item is created.
func (s *Service) Scan(ctx context.Context, actor, householdID, barcode string) (*ItemResult, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Scan")
	defer span.End()

	inv, err := s.open(ctx, actor, householdID, access.Edit, true)
	if err != nil {
		return nil, err
	}
	p, err := s.catalog.ProductByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}

	existing, ok := inv.Items.Find(func(it *model.InventoryItem) bool {
		return it.ProductID == p.ID || (it.Barcode != "" && it.Barcode == p.Barcode)
	})
	if !ok {
		one := 1.0
		item, err := s.insert(ctx, inv, actor, ItemDraft{ProductID: p.ID, Quantity: &one})
		if err != nil {
			return nil, err
		}
		if err := s.save(ctx, inv); err != nil {
			return nil, err
		}
		return &ItemResult{Item: item, Replenishment: s.replenish(ctx, actor, inv, item, false)}, nil
	}

	qty := existing.Quantity + 1
	next, err := ItemPatch{Quantity: &qty}.Apply(existing, inv.Settings, actor, s.now())
	if err != nil {
		return nil, err
	}
	wasLow := existing.IsLowStock
	inv.Items.Put(next.ID, next)
	if err := s.save(ctx, inv); err != nil {
		return nil, err
	}
	return &ItemResult{Item: next, Replenishment: s.replenish(ctx, actor, inv, next, wasLow)}, nil
}

func (s *Service) UpdateItem(ctx context.Context, actor, householdID, itemID string, p ItemPatch) (*ItemResult, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.UpdateItem", trace.WithAttributes(attribute.String("item.id", itemID)))
	defer span.End()

	inv, err := s.open(ctx, actor, householdID, access.Edit, false)
	if err != nil {
		return nil, err
	}
	item, ok := inv.Items.Get(itemID)
	if !ok {
		return nil, apperr.NotFound("item %s not found", itemID)
	}
	next, err := p.Apply(item, inv.Settings, actor, s.now())
	if err != nil {
		return nil, err
	}
	wasLow := item.IsLowStock
	inv.Items.Put(itemID, next)
	if err := s.save(ctx, inv); err != nil {
		return nil, err
	}
	return &ItemResult{Item: next, Replenishment: s.replenish(ctx, actor, inv, next, wasLow)}, nil
}

func (s *Service) RemoveItem(ctx context.Context, actor, householdID, itemID string) error {
	inv, err := s.open(ctx, actor, householdID, access.Edit, false)
	if err != nil {
		return err
	}
	if !inv.Items.Remove(itemID) {
		return apperr.NotFound("item %s not found", itemID)
	}
	return s.save(ctx, inv)
}

func (s *Service) LowStock(ctx context.Context, actor, householdID string) ([]*model.InventoryItem, error) {
	inv, err := s.open(ctx, actor, householdID, access.View, true)
	if err != nil {
		return nil, err
	}
	return LowStock(inv), nil
}

// Expiring lists items expiring within days, or within the inventory's
// notification window when days is nil.
func (s *Service) Expiring(ctx context.Context, actor, householdID string, days *int) ([]*model.InventoryItem, error) {
	if days != nil && *days < 0 {
		return nil, apperr.Validation("days must not be negative")
	}
	inv, err := s.open(ctx, actor, householdID, access.View, true)
	if err != nil {
		return nil, err
	}
	window := inv.Settings.ExpiryNotificationDays
	if days != nil {
		window = *days
	}
	return Expiring(inv, window, s.now()), nil
}

func (s *Service) Stats(ctx context.Context, actor, householdID string) (*Stats, error) {
	inv, err := s.open(ctx, actor, householdID, access.View, true)
	if err != nil {
		return nil, err
	}
	return ComputeStats(inv, s.now()), nil
}

// SettingsPatch carries the settings to change. ClearDefaultList unsets the
// default grocery list.
type SettingsPatch struct {
	LowStockThresholdDefault *float64
	ExpiryNotificationDays   *int
	AutoAddToGroceryList     *bool
	DefaultGroceryListID     *string
	ClearDefaultList         bool
}

// UpdateSettings changes the inventory's settings. A new default grocery list
// must exist and be editable by actor. This is the only point the list is
// authorized; later replenishment adds to it on behalf of whoever changed
// the stock.
func (s *Service) UpdateSettings(ctx context.Context, actor, householdID string, p SettingsPatch) (*model.InventorySettings, error) {
	inv, err := s.open(ctx, actor, householdID, access.Edit, true)
	if err != nil {
		return nil, err
	}
	next := inv.Settings
	if p.LowStockThresholdDefault != nil {
		if *p.LowStockThresholdDefault < 0 {
			return nil, apperr.Validation("low stock threshold must not be negative")
		}
		next.LowStockThresholdDefault = *p.LowStockThresholdDefault
	}
	if p.ExpiryNotificationDays != nil {
		if *p.ExpiryNotificationDays < 0 {
			return nil, apperr.Validation("expiry notification days must not be negative")
		}
		next.ExpiryNotificationDays = *p.ExpiryNotificationDays
	}
	if p.AutoAddToGroceryList != nil {
		next.AutoAddToGroceryList = *p.AutoAddToGroceryList
	}
	switch {
	case p.ClearDefaultList:
		next.DefaultGroceryListID = ""
	case p.DefaultGroceryListID != nil:
		listID := strings.TrimSpace(*p.DefaultGroceryListID)
		if listID != "" {
			_, caps, err := s.lists.Get(ctx, actor, listID)
			if err != nil {
				return nil, err
			}
			if !caps.CanEdit {
				return nil, apperr.Forbidden("you cannot add items to list %s", listID)
			}
		}
		next.DefaultGroceryListID = listID
	}

	inv.Settings = next
	now := s.now()
	for _, item := range inv.Items.All() {
		Recompute(item, next, now)
	}
	if err := s.save(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.Info("inventory settings updated", "inventory_id", inv.ID, "scope", inv.Scope().Key(), "actor", actor)
	return &inv.Settings, nil
}
