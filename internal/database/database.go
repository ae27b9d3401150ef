package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Dialect identifies the SQL engine behind a DB.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB wraps *sql.DB and rewrites `?` placeholders for engines that need
// numbered parameters. Queries are always written with `?`.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Open opens the database named by dsn and runs migrations. A postgres:// or
// postgresql:// URL selects the pgx driver; anything else is a SQLite path.
func Open(dsn string) (*DB, error) {
	dialect := dialectFor(dsn)

	var (
		sqlDB *sql.DB
		err   error
	)
	switch dialect {
	case DialectPostgres:
		sqlDB, err = sql.Open("pgx", dsn)
	default:
		sqlDB, err = sql.Open("sqlite", dsn+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
		if err == nil && dsn == ":memory:" {
			// Every pooled connection to :memory: is a separate database.
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := runMigrations(sqlDB, dialect); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{DB: sqlDB, dialect: dialect}, nil
}

func dialectFor(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

func runMigrations(db *sql.DB, dialect Dialect) error {
	goose.SetBaseFS(migrations)

	gooseDialect := "sqlite3"
	if dialect == DialectPostgres {
		gooseDialect = "postgres"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

func (db *DB) Dialect() Dialect { return db.dialect }

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, rebind(db.dialect, query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, rebind(db.dialect, query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, rebind(db.dialect, query), args...)
}

// Tx is a transaction with the same placeholder handling as DB.
type Tx struct {
	*sql.Tx
	dialect Dialect
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tx.Tx.ExecContext(ctx, rebind(tx.dialect, query), args...)
}

func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return tx.Tx.QueryContext(ctx, rebind(tx.dialect, query), args...)
}

func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return tx.Tx.QueryRowContext(ctx, rebind(tx.dialect, query), args...)
}

// WithTx runs fn inside a transaction, committing if fn returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{Tx: sqlTx, dialect: db.dialect}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// rebind rewrites `?` placeholders to `$1..$n` for postgres. Question marks
// inside single-quoted literals are left alone.
func rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
