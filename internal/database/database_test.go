package database

import (
	"context"
	"errors"
	"testing"
)

func TestOpenMemoryRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if db.Dialect() != DialectSQLite {
		t.Errorf("dialect = %q, want %q", db.Dialect(), DialectSQLite)
	}

	tables := []string{"households", "household_members", "grocery_lists", "grocery_list_items", "grocery_list_shares", "inventories", "inventory_items", "products"}
	for _, table := range tables {
		var name string
		err := db.QueryRowContext(context.Background(), `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO products (id, name, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)`, "p1", "Milk"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0 after rollback", count)
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		dsn  string
		want Dialect
	}{
		{":memory:", DialectSQLite},
		{"pantry.db", DialectSQLite},
		{"postgres://u:p@localhost/pantry", DialectPostgres},
		{"postgresql://localhost/pantry?sslmode=disable", DialectPostgres},
	}
	for _, tt := range tests {
		if got := dialectFor(tt.dsn); got != tt.want {
			t.Errorf("dialectFor(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect Dialect
		in      string
		want    string
	}{
		{DialectSQLite, `SELECT * FROM t WHERE a = ? AND b = ?`, `SELECT * FROM t WHERE a = ? AND b = ?`},
		{DialectPostgres, `SELECT * FROM t WHERE a = ? AND b = ?`, `SELECT * FROM t WHERE a = $1 AND b = $2`},
		{DialectPostgres, `SELECT '?' FROM t WHERE a = ?`, `SELECT '?' FROM t WHERE a = $1`},
		{DialectPostgres, `SELECT 1`, `SELECT 1`},
	}
	for _, tt := range tests {
		if got := rebind(tt.dialect, tt.in); got != tt.want {
			t.Errorf("rebind(%s, %q) = %q, want %q", tt.dialect, tt.in, got, tt.want)
		}
	}
}
