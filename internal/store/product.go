package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/pantry/internal/database"
	"github.com/dukerupert/pantry/internal/model"
)

type ProductStore struct {
	db *database.DB
}

func NewProductStore(db *database.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productCols = `id, name, category, unit, price, barcode, created_at`

func scanProduct(scanner interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	var barcode sql.NullString
	if err := scanner.Scan(&p.ID, &p.Name, &p.Category, &p.Unit, &p.Price, &barcode, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Barcode = barcode.String
	return &p, nil
}

// Create inserts p. It returns ErrDuplicateBarcode if another product already
// carries the barcode.
func (s *ProductStore) Create(ctx context.Context, p *model.Product) error {
	if p.Barcode != "" {
		existing, err := s.GetByBarcode(ctx, p.Barcode)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateBarcode
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (`+productCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Category, p.Unit, p.Price, nullString(p.Barcode), p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateBarcode
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *ProductStore) GetByID(ctx context.Context, id string) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *ProductStore) GetByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productCols+` FROM products WHERE barcode = ?`, barcode)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product by barcode: %w", err)
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
