// Package catalog maintains the product catalog used to enrich inventory
// items and resolve barcode scans.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/model"
	"github.com/dukerupert/pantry/internal/store"
)

type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*model.Product, error)
}

type Service struct {
	products ProductStore
}

func NewService(products ProductStore) *Service {
	return &Service{products: products}
}

type ProductDraft struct {
	Name     string
	Category string
	Unit     string
	Price    float64
	Barcode  string
}

// Register adds a product. An empty category is filled in from the name.
func (s *Service) Register(ctx context.Context, d ProductDraft) (*model.Product, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if d.Price < 0 {
		return nil, apperr.Validation("price must not be negative")
	}
	if strings.TrimSpace(d.Category) == "" {
		d.Category = Categorize(d.Name)
	}

	p := &model.Product{
		ID:        uuid.NewString(),
		Name:      d.Name,
		Category:  strings.TrimSpace(d.Category),
		Unit:      strings.TrimSpace(d.Unit),
		Price:     d.Price,
		Barcode:   strings.TrimSpace(d.Barcode),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.products.Create(ctx, p); err != nil {
		if errors.Is(err, store.ErrDuplicateBarcode) {
			return nil, apperr.Conflict("barcode %s is already registered", p.Barcode)
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) Product(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product %s not found", id)
	}
	return p, nil
}

func (s *Service) ProductByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, apperr.Validation("barcode is required")
	}
	p, err := s.products.GetByBarcode(ctx, barcode)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("no product with barcode %s", barcode)
	}
	return p, nil
}
