package grocery

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/catalog"
	"github.com/dukerupert/pantry/internal/model"
)

type ItemDraft struct {
	ProductID string
	Name      string
	Category  string
	Quantity  *float64
	Unit      string
	Price     float64
	Notes     string
}

// NewItem validates d and builds a list item. Quantity defaults to 1 and an
// empty category is guessed from the name.
func NewItem(d ItemDraft, actor string, now time.Time) (*model.GroceryListItem, error) {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	qty := 1.0
	if d.Quantity != nil {
		qty = *d.Quantity
	}
	if qty <= 0 {
		return nil, apperr.Validation("quantity must be greater than zero")
	}
	if d.Price < 0 {
		return nil, apperr.Validation("price must not be negative")
	}
	category := strings.TrimSpace(d.Category)
	if category == "" {
		category = catalog.Categorize(name)
	}
	return &model.GroceryListItem{
		ID:        uuid.NewString(),
		ProductID: strings.TrimSpace(d.ProductID),
		Name:      name,
		Category:  category,
		Quantity:  qty,
		Unit:      strings.TrimSpace(d.Unit),
		Price:     d.Price,
		Notes:     strings.TrimSpace(d.Notes),
		AddedBy:   actor,
		AddedAt:   now,
	}, nil
}

// ItemPatch carries the fields to change; nil fields are left alone.
type ItemPatch struct {
	Name     *string
	Category *string
	Quantity *float64
	Unit     *string
	Price    *float64
	Notes    *string
}

// Apply returns a patched copy of item, or a validation error. item itself is
// never modified.
func (p ItemPatch) Apply(item *model.GroceryListItem) (*model.GroceryListItem, error) {
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
	if p.Price != nil {
		next.Price = *p.Price
	}
	if p.Notes != nil {
		next.Notes = strings.TrimSpace(*p.Notes)
	}

	if next.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if next.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be greater than zero")
	}
	if next.Price < 0 {
		return nil, apperr.Validation("price must not be negative")
	}
	return &next, nil
}

// FindMatch returns the entry a replenishment for (productID, name) would
// duplicate. Entries match on product id when both sides carry one,
// otherwise on case-insensitive name.
func FindMatch(l *model.GroceryList, productID, name string) (*model.GroceryListItem, bool) {
	name = strings.TrimSpace(name)
	return l.Items.Find(func(item *model.GroceryListItem) bool {
		if productID != "" && item.ProductID != "" {
			return item.ProductID == productID
		}
		return strings.EqualFold(strings.TrimSpace(item.Name), name)
	})
}
