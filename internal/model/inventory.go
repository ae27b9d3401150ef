package model

import (
	"fmt"
	"strings"
	"time"
)

type Location string

const (
	LocationPantry       Location = "pantry"
	LocationRefrigerator Location = "refrigerator"
	LocationFreezer      Location = "freezer"
	LocationOther        Location = "other"
)

func ParseLocation(s string) (Location, error) {
	switch l := Location(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return LocationPantry, nil
	case LocationPantry, LocationRefrigerator, LocationFreezer, LocationOther:
		return l, nil
	}
	return "", fmt.Errorf("unknown location %q", s)
}

const (
	DefaultLowStockThreshold      = 1.0
	DefaultExpiryNotificationDays = 3
)

type InventorySettings struct {
	LowStockThresholdDefault float64 `json:"low_stock_threshold_default"`
	ExpiryNotificationDays   int     `json:"expiry_notification_days"`
	AutoAddToGroceryList     bool    `json:"auto_add_to_grocery_list"`
	DefaultGroceryListID     string  `json:"default_grocery_list_id,omitempty"`
}

func DefaultInventorySettings() InventorySettings {
	return InventorySettings{
		LowStockThresholdDefault: DefaultLowStockThreshold,
		ExpiryNotificationDays:   DefaultExpiryNotificationDays,
	}
}

// InventoryScope selects either a personal inventory (HouseholdID empty) or
// a household inventory.
type InventoryScope struct {
	UserID      string
	HouseholdID string
}

// Key is the storage identity of the scope. A household has one inventory no
// matter which member opens it.
func (s InventoryScope) Key() string {
	if s.HouseholdID != "" {
		return "household:" + s.HouseholdID
	}
	return "user:" + s.UserID
}

type Inventory struct {
	ID          string               `json:"id"`
	OwnerID     string               `json:"owner_id"`
	HouseholdID string               `json:"household_id,omitempty"`
	Items       Arena[InventoryItem] `json:"items"`
	Settings    InventorySettings    `json:"settings"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func (inv *Inventory) Scope() InventoryScope {
	if inv.HouseholdID != "" {
		return InventoryScope{HouseholdID: inv.HouseholdID}
	}
	return InventoryScope{UserID: inv.OwnerID}
}

type InventoryItem struct {
	ID                string     `json:"id"`
	ProductID         string     `json:"product_id,omitempty"`
	Name              string     `json:"name"`
	Category          string     `json:"category"`
	Quantity          float64    `json:"quantity"`
	Unit              string     `json:"unit"`
	Location          Location   `json:"location"`
	Notes             string     `json:"notes"`
	Price             float64    `json:"price"`
	Barcode           string     `json:"barcode,omitempty"`
	PurchaseDate      time.Time  `json:"purchase_date"`
	ExpirationDate    *time.Time `json:"expiration_date,omitempty"`
	LowStockThreshold float64    `json:"low_stock_threshold"`
	IsLowStock        bool       `json:"is_low_stock"`
	IsExpiringSoon    bool       `json:"is_expiring_soon"`
	ConsumptionRate   float64    `json:"consumption_rate"`
	AddedBy           string     `json:"added_by"`
	UpdatedBy         string     `json:"updated_by"`
	LastUpdated       time.Time  `json:"last_updated"`
}
