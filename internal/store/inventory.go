package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/pantry/internal/database"
	"github.com/dukerupert/pantry/internal/model"
)

type InventoryStore struct {
	db *database.DB
}

func NewInventoryStore(db *database.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

const inventoryCols = `id, owner_id, household_id, low_stock_threshold_default, expiry_notification_days,
	auto_add_to_grocery_list, default_grocery_list_id, created_at, updated_at`

func scanInventory(scanner interface{ Scan(...any) error }) (*model.Inventory, error) {
	var inv model.Inventory
	var householdID, defaultList sql.NullString
	err := scanner.Scan(
		&inv.ID, &inv.OwnerID, &householdID,
		&inv.Settings.LowStockThresholdDefault, &inv.Settings.ExpiryNotificationDays,
		&inv.Settings.AutoAddToGroceryList, &defaultList,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.HouseholdID = householdID.String
	inv.Settings.DefaultGroceryListID = defaultList.String
	return &inv, nil
}

const inventoryItemCols = `id, product_id, name, category, quantity, unit, location, notes, price, barcode,
	purchase_date, expiration_date, low_stock_threshold, is_low_stock, is_expiring_soon, consumption_rate,
	added_by, updated_by, last_updated`

func scanInventoryItem(scanner interface{ Scan(...any) error }) (*model.InventoryItem, error) {
	var item model.InventoryItem
	var productID sql.NullString
	var location string
	var expiration sql.NullTime
	err := scanner.Scan(
		&item.ID, &productID, &item.Name, &item.Category, &item.Quantity, &item.Unit, &location,
		&item.Notes, &item.Price, &item.Barcode, &item.PurchaseDate, &expiration,
		&item.LowStockThreshold, &item.IsLowStock, &item.IsExpiringSoon, &item.ConsumptionRate,
		&item.AddedBy, &item.UpdatedBy, &item.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	item.ProductID = productID.String
	item.Location = model.Location(location)
	if expiration.Valid {
		item.ExpirationDate = &expiration.Time
	}
	return &item, nil
}

// Get loads the inventory for scope with all items, or (nil, nil) if the
// scope has none yet.
func (s *InventoryStore) Get(ctx context.Context, scope model.InventoryScope) (*model.Inventory, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+inventoryCols+` FROM inventories WHERE scope_key = ?`, scope.Key())
	inv, err := scanInventory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get inventory: %w", err)
	}
	if err := s.loadItems(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *InventoryStore) loadItems(ctx context.Context, inv *model.Inventory) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+inventoryItemCols+` FROM inventory_items WHERE inventory_id = ? ORDER BY position ASC`, inv.ID)
	if err != nil {
		return fmt.Errorf("list inventory items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return fmt.Errorf("scan inventory item: %w", err)
		}
		inv.Items.Put(item.ID, item)
	}
	return rows.Err()
}

// GetOrCreate returns the inventory for scope, creating an empty one with
// default settings on first access. ownerID is recorded only on creation.
// Concurrent first calls converge on the same row via the scope_key
// uniqueness constraint.
func (s *InventoryStore) GetOrCreate(ctx context.Context, scope model.InventoryScope, ownerID string) (*model.Inventory, error) {
	inv, err := s.Get(ctx, scope)
	if err != nil || inv != nil {
		return inv, err
	}

	now := time.Now().UTC()
	settings := model.DefaultInventorySettings()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO inventories (id, scope_key, owner_id, household_id, low_stock_threshold_default,
			expiry_notification_days, auto_add_to_grocery_list, default_grocery_list_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)
		 ON CONFLICT (scope_key) DO NOTHING`,
		uuid.NewString(), scope.Key(), ownerID, nullString(scope.HouseholdID),
		settings.LowStockThresholdDefault, settings.ExpiryNotificationDays, settings.AutoAddToGroceryList,
		now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert inventory: %w", err)
	}
	return s.Get(ctx, scope)
}

// Save writes settings and the full item set in one transaction. Items are
// rewritten in arena order.
func (s *InventoryStore) Save(ctx context.Context, inv *model.Inventory) error {
	return s.db.WithTx(ctx, func(tx *database.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE inventories SET low_stock_threshold_default = ?, expiry_notification_days = ?,
				auto_add_to_grocery_list = ?, default_grocery_list_id = ?, updated_at = ?
			 WHERE id = ?`,
			inv.Settings.LowStockThresholdDefault, inv.Settings.ExpiryNotificationDays,
			inv.Settings.AutoAddToGroceryList, nullString(inv.Settings.DefaultGroceryListID), inv.UpdatedAt, inv.ID,
		)
		if err != nil {
			return fmt.Errorf("update inventory: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("update inventory %s: %w", inv.ID, sql.ErrNoRows)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE inventory_id = ?`, inv.ID); err != nil {
			return fmt.Errorf("clear inventory items: %w", err)
		}
		for i, item := range inv.Items.All() {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO inventory_items (inventory_id, position, `+inventoryItemCols+`)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				inv.ID, i, item.ID, nullString(item.ProductID), item.Name, item.Category, item.Quantity, item.Unit,
				string(item.Location), item.Notes, item.Price, item.Barcode, item.PurchaseDate, nullTime(item.ExpirationDate),
				item.LowStockThreshold, item.IsLowStock, item.IsExpiringSoon, item.ConsumptionRate,
				item.AddedBy, item.UpdatedBy, item.LastUpdated,
			)
			if err != nil {
				return fmt.Errorf("insert inventory item: %w", err)
			}
		}
		return nil
	})
}
