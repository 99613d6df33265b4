package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tordrt/dbcontent/internal/schema"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient opens the database file read-only; a missing file is an
// error rather than a new empty database.
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

// ReadRows streams the rows of a table in primary key order, falling back
// to rowid order.
func (e *SQLiteExtractor) ReadRows(ctx context.Context, table schema.Table, fn RowFunc) error {
	quote := func(name string) string { return quoteWith(`"`, name) }

	rows, err := e.client.GetDB().QueryContext(ctx, selectRowsQuery(quote(table.Name), table, quote, "rowid"))
	if err != nil {
		return fmt.Errorf("failed to query rows of %s: %w", table.Name, err)
	}
	defer rows.Close()

	return scanRows(rows, len(table.Columns), fn)
}
