package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/pantry/internal/model"
)

func TestProductCreateAndLookup(t *testing.T) {
	ps := NewProductStore(setupTestDB(t))
	ctx := context.Background()

	p := &model.Product{ID: "p1", Name: "Oat Milk", Category: "Dairy", Unit: "carton", Price: 3.49, Barcode: "4006381333931", CreatedAt: testNow}
	if err := ps.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}

	byID, err := ps.GetByID(ctx, "p1")
	if err != nil || byID == nil {
		t.Fatalf("get by id: %v, %v", byID, err)
	}
	if byID.Name != "Oat Milk" || byID.Price != 3.49 {
		t.Errorf("product = %+v", byID)
	}

	byCode, err := ps.GetByBarcode(ctx, "4006381333931")
	if err != nil || byCode == nil {
		t.Fatalf("get by barcode: %v, %v", byCode, err)
	}
	if byCode.ID != "p1" {
		t.Errorf("ID = %q, want p1", byCode.ID)
	}

	missing, err := ps.GetByBarcode(ctx, "000")
	if err != nil || missing != nil {
		t.Errorf("missing barcode = %v, %v", missing, err)
	}
}

func TestProductDuplicateBarcode(t *testing.T) {
	ps := NewProductStore(setupTestDB(t))
	ctx := context.Background()

	if err := ps.Create(ctx, &model.Product{ID: "p1", Name: "A", Barcode: "111", CreatedAt: testNow}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := ps.Create(ctx, &model.Product{ID: "p2", Name: "B", Barcode: "111", CreatedAt: testNow})
	if !errors.Is(err, ErrDuplicateBarcode) {
		t.Errorf("err = %v, want ErrDuplicateBarcode", err)
	}

	// Products without barcodes never collide.
	if err := ps.Create(ctx, &model.Product{ID: "p3", Name: "C", CreatedAt: testNow}); err != nil {
		t.Fatalf("create p3: %v", err)
	}
	if err := ps.Create(ctx, &model.Product{ID: "p4", Name: "D", CreatedAt: testNow}); err != nil {
		t.Fatalf("create p4: %v", err)
	}
}
