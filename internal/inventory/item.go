package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/catalog"
	"github.com/dukerupert/pantry/internal/forecast"
	"github.com/dukerupert/pantry/internal/model"
)

type ItemDraft struct {
	ProductID         string
	Name              string
	Category          string
	Quantity          *float64
	Unit              string
	Location          string
	Notes             string
	Price             float64
	Barcode           string
	PurchaseDate      *time.Time
	ExpirationDate    *time.Time
	LowStockThreshold *float64
}

// NewItem validates d and builds an item with defaults taken from settings.
func NewItem(d ItemDraft, settings model.InventorySettings, actor string, now time.Time) (*model.InventoryItem, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	qty := 1.0
	if d.Quantity != nil {
		qty = *d.Quantity
	}
	threshold := settings.LowStockThresholdDefault
	if d.LowStockThreshold != nil {
		threshold = *d.LowStockThreshold
	}
	loc, err := model.ParseLocation(d.Location)
	if err != nil {
		return nil, apperr.Validation("location must be one of pantry, refrigerator, freezer, other")
	}
	category := strings.TrimSpace(d.Category)
	if category == "" {
		category = catalog.Categorize(name)
	}
	purchased := now
	if d.PurchaseDate != nil {
		purchased = *d.PurchaseDate
	}

	item := &model.InventoryItem{
		ID:                uuid.NewString(),
		ProductID:         strings.TrimSpace(d.ProductID),
		Name:              name,
		Category:          category,
		Quantity:          qty,
		Unit:              strings.TrimSpace(d.Unit),
		Location:          loc,
		Notes:             strings.TrimSpace(d.Notes),
		Price:             d.Price,
		Barcode:           strings.TrimSpace(d.Barcode),
		PurchaseDate:      purchased,
		ExpirationDate:    d.ExpirationDate,
		LowStockThreshold: threshold,
		AddedBy:           actor,
		UpdatedBy:         actor,
		LastUpdated:       now,
	}
	if err := validate(item); err != nil {
		return nil, err
	}
	Recompute(item, settings, now)
	return item, nil
}

// ItemPatch carries the fields to change; nil fields are left alone.
// ClearExpiration removes the expiration date.
type ItemPatch struct {
	Name              *string
	Category          *string
	Quantity          *float64
	Unit              *string
	Location          *string
	Notes             *string
	Price             *float64
	ExpirationDate    *time.Time
	ClearExpiration   bool
	LowStockThreshold *float64
}

// Apply returns a patched copy of item. A quantity decrease feeds the
// consumption forecast using the stored LastUpdated, before it is
// overwritten. item itself is never modified.
func (p ItemPatch) Apply(item *model.InventoryItem, settings model.InventorySettings, actor string, now time.Time) (*model.InventoryItem, error) {
	next := *item
	if p.Name != nil {
		next.Name = strings.TrimSpace(*p.Name)
	}
	if p.Category != nil {
		next.Category = strings.TrimSpace(*p.Category)
	}
	if p.Quantity != nil {
		next.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		next.Unit = strings.TrimSpace(*p.Unit)
	}
	if p.Location != nil {
		loc, err := model.ParseLocation(*p.Location)
		if err != nil {
			return nil, apperr.Validation("location must be one of pantry, refrigerator, freezer, other")
		}
		next.Location = loc
	}
	if p.Notes != nil {
		next.Notes = strings.TrimSpace(*p.Notes)
	}
	if p.Price != nil {
		next.Price = *p.Price
	}
	switch {
	case p.ClearExpiration:
		next.ExpirationDate = nil
	case p.ExpirationDate != nil:
		exp := *p.ExpirationDate
		next.ExpirationDate = &exp
	}
	if p.LowStockThreshold != nil {
		next.LowStockThreshold = *p.LowStockThreshold
	}
	if err := validate(&next); err != nil {
		return nil, err
	}

	if next.Quantity < item.Quantity {
		next.ConsumptionRate = forecast.Rate(item.ConsumptionRate, item.Quantity, next.Quantity, item.LastUpdated, now)
	}
	next.UpdatedBy = actor
	next.LastUpdated = now
	Recompute(&next, settings, now)
	return &next, nil
}

func validate(item *model.InventoryItem) error {
	switch {
	case item.Name == "":
		return apperr.Validation("name is required")
	case item.Quantity < 0:
		return apperr.Validation("quantity must not be negative")
	case item.Price < 0:
		return apperr.Validation("price must not be negative")
	case item.LowStockThreshold < 0:
		return apperr.Validation("low stock threshold must not be negative")
	}
	return nil
}

// Recompute refreshes the derived low-stock and expiring-soon flags.
func Recompute(item *model.InventoryItem, settings model.InventorySettings, now time.Time) {
	item.IsLowStock = item.Quantity <= item.LowStockThreshold
	item.IsExpiringSoon = ExpiresWithin(item, settings.ExpiryNotificationDays, now)
}

// ExpiresWithin reports whether item expires between now and days days from
// now, both ends inclusive.
func ExpiresWithin(item *model.InventoryItem, days int, now time.Time) bool {
	if item.ExpirationDate == nil {
		return false
	}
	d := forecast.DaysUntil(*item.ExpirationDate, now)
	return d >= 0 && d <= days
}
