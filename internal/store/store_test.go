package store

import (
	"testing"
	"time"

	"github.com/dukerupert/pantry/internal/database"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var testNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
