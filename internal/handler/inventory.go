package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/inventory"
)

type InventoryHandler struct {
	inventory *inventory.Service
	logger    *slog.Logger
}

func NewInventoryHandler(svc *inventory.Service, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{inventory: svc, logger: logger}
}

type inventoryItemRequest struct {
	ProductID         string     `json:"product_id"`
	Name              string     `json:"name"`
	Category          string     `json:"category"`
	Quantity          *float64   `json:"quantity"`
	Unit              string     `json:"unit"`
	Location          string     `json:"location"`
	Notes             string     `json:"notes"`
	Price             float64    `json:"price"`
	Barcode           string     `json:"barcode"`
	PurchaseDate      *time.Time `json:"purchase_date"`
	ExpirationDate    *time.Time `json:"expiration_date"`
	LowStockThreshold *float64   `json:"low_stock_threshold"`
}

func (req inventoryItemRequest) draft() inventory.ItemDraft {
	return inventory.ItemDraft{
		ProductID:         req.ProductID,
		Name:              req.Name,
		Category:          req.Category,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		Location:          req.Location,
		Notes:             req.Notes,
		Price:             req.Price,
		Barcode:           req.Barcode,
		PurchaseDate:      req.PurchaseDate,
		ExpirationDate:    req.ExpirationDate,
		LowStockThreshold: req.LowStockThreshold,
	}
}

type inventoryPatchRequest struct {
	Name                *string    `json:"name"`
	Category            *string    `json:"category"`
	Quantity            *float64   `json:"quantity"`
	Unit                *string    `json:"unit"`
	Location            *string    `json:"location"`
	Notes               *string    `json:"notes"`
	Price               *float64   `json:"price"`
	ExpirationDate      *time.Time `json:"expiration_date"`
	ClearExpirationDate bool       `json:"clear_expiration_date"`
	LowStockThreshold   *float64   `json:"low_stock_threshold"`
}

type bulkRequest struct {
	Items []inventoryItemRequest `json:"items"`
}

type scanRequest struct {
	Barcode string `json:"barcode"`
}

type settingsRequest struct {
	LowStockThresholdDefault *float64 `json:"low_stock_threshold_default"`
	ExpiryNotificationDays   *int     `json:"expiry_notification_days"`
	AutoAddToGroceryList     *bool    `json:"auto_add_to_grocery_list"`
	DefaultGroceryListID     *string  `json:"default_grocery_list_id"`
	ClearDefaultGroceryList  bool     `json:"clear_default_grocery_list"`
}

func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	order, err := inventory.ParseSort(q.Get("sort_by"), q.Get("sort_order"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	filter := inventory.Filter{
		Category: q.Get("category"),
		Location: q.Get("location"),
		Search:   q.Get("search"),
	}
	res, err := h.inventory.List(r.Context(), actor(r), householdParam(r), filter, order)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.LowStock(r.Context(), actor(r), householdParam(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(items), "count": len(items)})
}

func (h *InventoryHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	var days *int
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, h.logger, apperr.Validation("days must be a whole number"))
			return
		}
		days = &n
	}
	items, err := h.inventory.Expiring(r.Context(), actor(r), householdParam(r), days)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": nonNil(items), "count": len(items)})
}

func (h *InventoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.inventory.Stats(r.Context(), actor(r), householdParam(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.inventory.GetItem(r.Context(), actor(r), householdParam(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req inventoryItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.inventory.AddItem(r.Context(), actor(r), householdParam(r), req.draft())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *InventoryHandler) BulkAdd(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	drafts := make([]inventory.ItemDraft, len(req.Items))
	for i, item := range req.Items {
		drafts[i] = item.draft()
	}
	res, err := h.inventory.BulkAdd(r.Context(), actor(r), householdParam(r), drafts)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	status := http.StatusOK
	if len(res.Added) > 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

func (h *InventoryHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	res, err := h.inventory.Scan(r.Context(), actor(r), householdParam(r), req.Barcode)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req inventoryPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	patch := inventory.ItemPatch{
		Name:              req.Name,
		Category:          req.Category,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		Location:          req.Location,
		Notes:             req.Notes,
		Price:             req.Price,
		ExpirationDate:    req.ExpirationDate,
		ClearExpiration:   req.ClearExpirationDate,
		LowStockThreshold: req.LowStockThreshold,
	}
	res, err := h.inventory.UpdateItem(r.Context(), actor(r), householdParam(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *InventoryHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.RemoveItem(r.Context(), actor(r), householdParam(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *InventoryHandler) Settings(w http.ResponseWriter, r *http.Request) {
	inv, err := h.inventory.Get(r.Context(), actor(r), householdParam(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inv.Settings)
}

func (h *InventoryHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	settings, err := h.inventory.UpdateSettings(r.Context(), actor(r), householdParam(r), inventory.SettingsPatch{
		LowStockThresholdDefault: req.LowStockThresholdDefault,
		ExpiryNotificationDays:   req.ExpiryNotificationDays,
		AutoAddToGroceryList:     req.AutoAddToGroceryList,
		DefaultGroceryListID:     req.DefaultGroceryListID,
		ClearDefaultList:         req.ClearDefaultGroceryList,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
