package inventory

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/model"
)

type Filter struct {
	Category string
	Location string
	Search   string
}

func (f Filter) match(item *model.InventoryItem) bool {
	if f.Category != "" && !strings.EqualFold(item.Category, f.Category) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(string(item.Location), f.Location) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(item.Name), q) &&
			!strings.Contains(strings.ToLower(item.Category), q) &&
			!strings.Contains(strings.ToLower(item.Notes), q) {
			return false
		}
	}
	return true
}

type SortField string

const (
	SortName           SortField = "name"
	SortQuantity       SortField = "quantity"
	SortPurchaseDate   SortField = "purchase_date"
	SortExpirationDate SortField = "expiration_date"
)

type Sort struct {
	Field SortField
	Desc  bool
}

// ParseSort reads a sort field and order, defaulting to name ascending.
func ParseSort(field, order string) (Sort, error) {
	s := Sort{Field: SortName}
	switch f := SortField(strings.ToLower(strings.TrimSpace(field))); f {
	case "":
	case SortName, SortQuantity, SortPurchaseDate, SortExpirationDate:
		s.Field = f
	default:
		return s, apperr.Validation("cannot sort by %q", field)
	}
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "asc":
	case "desc":
		s.Desc = true
	default:
		return s, apperr.Validation("sort order must be asc or desc")
	}
	return s, nil
}

// less orders a before b. Items without an expiration date sort last in
// either direction.
func (s Sort) less(a, b *model.InventoryItem) bool {
	var cmp int
	switch s.Field {
	case SortQuantity:
		cmp = compareFloat(a.Quantity, b.Quantity)
	case SortPurchaseDate:
		cmp = a.PurchaseDate.Compare(b.PurchaseDate)
	case SortExpirationDate:
		switch {
		case a.ExpirationDate == nil && b.ExpirationDate == nil:
			cmp = 0
		case a.ExpirationDate == nil:
			return false
		case b.ExpirationDate == nil:
			return true
		default:
			cmp = a.ExpirationDate.Compare(*b.ExpirationDate)
		}
	default:
		cmp = strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
	if s.Desc {
		return cmp > 0
	}
	return cmp < 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type ListResult struct {
	Items      []*model.InventoryItem `json:"items"`
	Total      int                    `json:"total"`
	Categories []string               `json:"categories"`
	Locations  []string               `json:"locations"`
}

// Query filters and sorts inv's items. Categories and Locations describe the
// whole inventory so callers can offer filter choices.
func Query(inv *model.Inventory, f Filter, s Sort) *ListResult {
	all := inv.Items.All()
	items := make([]*model.InventoryItem, 0, len(all))
	categories := map[string]bool{}
	locations := map[string]bool{}
	for _, item := range all {
		if item.Category != "" {
			categories[item.Category] = true
		}
		locations[string(item.Location)] = true
		if f.match(item) {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return s.less(items[i], items[j]) })

	return &ListResult{
		Items:      items,
		Total:      len(items),
		Categories: sortedKeys(categories),
		Locations:  sortedKeys(locations),
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LowStock returns low-stock items ordered by name.
func LowStock(inv *model.Inventory) []*model.InventoryItem {
	var items []*model.InventoryItem
	for _, item := range inv.Items.All() {
		if item.IsLowStock {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return Sort{Field: SortName}.less(items[i], items[j]) })
	return items
}

// Expiring returns items expiring within days, soonest first.
func Expiring(inv *model.Inventory, days int, now time.Time) []*model.InventoryItem {
	var items []*model.InventoryItem
	for _, item := range inv.Items.All() {
		if ExpiresWithin(item, days, now) {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return Sort{Field: SortExpirationDate}.less(items[i], items[j]) })
	return items
}

type Breakdown struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type Stats struct {
	TotalItems    int         `json:"total_items"`
	TotalValue    float64     `json:"total_value"`
	LowStockCount int         `json:"low_stock_count"`
	ExpiringCount int         `json:"expiring_count"`
	Categories    []Breakdown `json:"categories"`
	Locations     []Breakdown `json:"locations"`
}

func ComputeStats(inv *model.Inventory, now time.Time) *Stats {
	st := &Stats{}
	byCategory := map[string]int{}
	byLocation := map[string]int{}
	for _, item := range inv.Items.All() {
		st.TotalItems++
		st.TotalValue += item.Price * item.Quantity
		if item.IsLowStock {
			st.LowStockCount++
		}
		if ExpiresWithin(item, inv.Settings.ExpiryNotificationDays, now) {
			st.ExpiringCount++
		}
		category := item.Category
		if category == "" {
			category = "Uncategorized"
		}
		byCategory[category]++
		byLocation[string(item.Location)]++
	}
	st.TotalValue = math.Round(st.TotalValue*100) / 100
	st.Categories = breakdown(byCategory, st.TotalItems)
	st.Locations = breakdown(byLocation, st.TotalItems)
	return st
}

// breakdown orders groups by count, largest first, then by name.
func breakdown(counts map[string]int, total int) []Breakdown {
	out := make([]Breakdown, 0, len(counts))
	for name, n := range counts {
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(n) * 100 / float64(total)))
		}
		out = append(out, Breakdown{Name: name, Count: n, Percentage: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
