package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/pantry/internal/access"
	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/grocery"
	"github.com/dukerupert/pantry/internal/model"
)

type GroceryHandler struct {
	lists  *grocery.Service
	logger *slog.Logger
}

func NewGroceryHandler(svc *grocery.Service, logger *slog.Logger) *GroceryHandler {
	return &GroceryHandler{lists: svc, logger: logger}
}

type listRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	HouseholdID string  `json:"household_id"`
	TotalBudget float64 `json:"total_budget"`
}

type fromTemplateRequest struct {
	Name        string `json:"name"`
	HouseholdID string `json:"household_id"`
}

type listPatchRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	TotalBudget *float64 `json:"total_budget"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type groceryItemRequest struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Quantity  *float64 `json:"quantity"`
	Unit      string   `json:"unit"`
	Price     float64  `json:"price"`
	Notes     string   `json:"notes"`
}

type groceryItemPatchRequest struct {
	Name     *string  `json:"name"`
	Category *string  `json:"category"`
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
	Price    *float64 `json:"price"`
	Notes    *string  `json:"notes"`
}

type checkRequest struct {
	Checked bool `json:"checked"`
}

type shareRequest struct {
	UserID     string `json:"user_id"`
	Permission string `json:"permission"`
}

// listResponse pairs a list with what the caller may do with it.
type listResponse struct {
	*model.GroceryList
	Capabilities access.Capabilities `json:"capabilities"`
}

// List serves GET /api/lists with optional status, type and household
// query filters.
func (h *GroceryHandler) List(w http.ResponseWriter, r *http.Request) {
	var f model.ListFilter
	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		st, err := model.ParseListStatus(raw)
		if err != nil {
			writeError(w, r, h.logger, apperr.Validation("%v", err))
			return
		}
		f.Status = st
	}
	if raw := q.Get("type"); raw != "" {
		lt, err := model.ParseListType(raw)
		if err != nil {
			writeError(w, r, h.logger, apperr.Validation("%v", err))
			return
		}
		f.Type = lt
	}
	f.HouseholdID = householdParam(r)

	lists, err := h.lists.ListOwned(r.Context(), actor(r), f)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(lists))
}

func (h *GroceryHandler) Templates(w http.ResponseWriter, r *http.Request) {
	lists, err := h.lists.ListTemplates(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(lists))
}

func (h *GroceryHandler) FromTemplate(w http.ResponseWriter, r *http.Request) {
	var req fromTemplateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	l, err := h.lists.CreateFromTemplate(r.Context(), actor(r), chi.URLParam(r, "templateID"), grocery.FromTemplateDraft{
		Name:        req.Name,
		HouseholdID: req.HouseholdID,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *GroceryHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	lists, err := h.lists.ListShared(r.Context(), actor(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(lists))
}

func (h *GroceryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	l, err := h.lists.Create(r.Context(), actor(r), grocery.ListDraft{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		HouseholdID: req.HouseholdID,
		TotalBudget: req.TotalBudget,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *GroceryHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, caps, err := h.lists.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{GroceryList: l, Capabilities: caps})
}

func (h *GroceryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req listPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	l, err := h.lists.Update(r.Context(), actor(r), chi.URLParam(r, "id"), grocery.ListPatch{
		Name:        req.Name,
		Description: req.Description,
		TotalBudget: req.TotalBudget,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *GroceryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.lists.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GroceryHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	l, err := h.lists.SetStatus(r.Context(), actor(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *GroceryHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req groceryItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	l, _, err := h.lists.AddItem(r.Context(), actor(r), chi.URLParam(r, "id"), grocery.ItemDraft{
		ProductID: req.ProductID,
		Name:      req.Name,
		Category:  req.Category,
		Quantity:  req.Quantity,
		Unit:      req.Unit,
		Price:     req.Price,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *GroceryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req groceryItemPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	l, err := h.lists.UpdateItem(r.Context(), actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), grocery.ItemPatch{
		Name:     req.Name,
		Category: req.Category,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Price:    req.Price,
		Notes:    req.Notes,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *GroceryHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	l, err := h.lists.RemoveItem(r.Context(), actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *GroceryHandler) SetChecked(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	l, err := h.lists.SetChecked(r.Context(), actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), req.Checked)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *GroceryHandler) ClearChecked(w http.ResponseWriter, r *http.Request) {
	n, err := h.lists.ClearChecked(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (h *GroceryHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	l, err := h.lists.Share(r.Context(), actor(r), chi.URLParam(r, "id"), req.UserID, req.Permission)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (h *GroceryHandler) UpdateShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	l, err := h.lists.UpdateShare(r.Context(), actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "userID"), req.Permission)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *GroceryHandler) Unshare(w http.ResponseWriter, r *http.Request) {
	l, err := h.lists.Unshare(r.Context(), actor(r), chi.URLParam(r, "id"), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}
