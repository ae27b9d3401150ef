package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/pantry/internal/catalog"
)

type ProductHandler struct {
	catalog *catalog.Service
	logger  *slog.Logger
}

func NewProductHandler(svc *catalog.Service, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: svc, logger: logger}
}

type productRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Unit     string  `json:"unit"`
	Price    float64 `json:"price"`
	Barcode  string  `json:"barcode"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, err := h.catalog.Register(r.Context(), catalog.ProductDraft{
		Name:     req.Name,
		Category: req.Category,
		Unit:     req.Unit,
		Price:    req.Price,
		Barcode:  req.Barcode,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductHandler) ByBarcode(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.ProductByBarcode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
