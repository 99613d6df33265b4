package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/tordrt/dbcontent/internal/schema"
)

// MySQLClient manages the connection to MySQL
type MySQLClient struct {
	db *sql.DB
}

// NewMySQLClient creates a new MySQL client. Temporal columns are decoded
// into time.Time.
func NewMySQLClient(ctx context.Context, connString string) (*MySQLClient, error) {
	cfg, err := mysql.ParseDSN(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := sql.OpenDB(connector)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MySQLClient{db: db}, nil
}

// Close closes the database connection
func (c *MySQLClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *MySQLClient) GetDB() *sql.DB {
	return c.db
}

// ReadRows streams the rows of a table in primary key order.
func (e *MySQLExtractor) ReadRows(ctx context.Context, table schema.Table, fn RowFunc) error {
	quote := func(name string) string { return quoteWith("`", name) }
	from := quote(e.schemaName) + "." + quote(table.Name)

	rows, err := e.client.GetDB().QueryContext(ctx, selectRowsQuery(from, table, quote, ""))
	if err != nil {
		return fmt.Errorf("failed to query rows of %s: %w", table.Name, err)
	}
	defer rows.Close()

	return scanRows(rows, len(table.Columns), fn)
}
