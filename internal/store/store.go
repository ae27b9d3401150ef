package store

import (
	"database/sql"
	"errors"
	"time"
)

var ErrDuplicateBarcode = errors.New("barcode already registered")

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
