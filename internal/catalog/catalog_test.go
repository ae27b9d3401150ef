package catalog

import (
	"context"
	"testing"

	"github.com/dukerupert/pantry/internal/apperr"
	"github.com/dukerupert/pantry/internal/database"
	"github.com/dukerupert/pantry/internal/store"
)

func setupCatalog(t *testing.T) *Service {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewService(store.NewProductStore(db))
}

func TestRegisterFillsCategory(t *testing.T) {
	svc := setupCatalog(t)
	ctx := context.Background()

	p, err := svc.Register(ctx, ProductDraft{Name: " Greek Yogurt ", Unit: "tub", Price: 4.5, Barcode: "555"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if p.Name != "Greek Yogurt" {
		t.Errorf("Name = %q, want trimmed", p.Name)
	}
	if p.Category != "Dairy" {
		t.Errorf("Category = %q, want Dairy", p.Category)
	}

	got, err := svc.ProductByBarcode(ctx, "555")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("ID = %q, want %q", got.ID, p.ID)
	}
}

func TestRegisterErrors(t *testing.T) {
	svc := setupCatalog(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, ProductDraft{Name: ""}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("empty name: err = %v, want validation", err)
	}
	if _, err := svc.Register(ctx, ProductDraft{Name: "Tea", Price: -1}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("negative price: err = %v, want validation", err)
	}
	if _, err := svc.Register(ctx, ProductDraft{Name: "Tea", Barcode: "9"}); err != nil {
		t.Fatalf("register tea: %v", err)
	}
	if _, err := svc.Register(ctx, ProductDraft{Name: "Green Tea", Barcode: "9"}); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("duplicate barcode: err = %v, want conflict", err)
	}
}

func TestLookupMissing(t *testing.T) {
	svc := setupCatalog(t)
	ctx := context.Background()

	if _, err := svc.ProductByBarcode(ctx, "404"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("barcode: err = %v, want not found", err)
	}
	if _, err := svc.Product(ctx, "nope"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("id: err = %v, want not found", err)
	}
	if _, err := svc.ProductByBarcode(ctx, " "); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank barcode: err = %v, want validation", err)
	}
}
