package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/tordrt/dbcontent/internal/schema"
)

// RowFunc receives one row with values aligned to the table's columns.
// A nil value is a SQL NULL. Returning an error stops the iteration.
type RowFunc func(values []any) error

// Source is an open database that can describe its schema and stream
// table rows.
type Source interface {
	// ExtractSchema extracts the schema for the given tables, or for all
	// tables when the list is empty.
	ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error)

	// ReadRows streams the rows of a table in primary key order, or in the
	// table's natural order when it has no primary key.
	ReadRows(ctx context.Context, table schema.Table, fn RowFunc) error

	Close() error
}

// Open connects to the database identified by databaseURL.
// schemaName is only meaningful for PostgreSQL (defaults to "public") and
// MySQL (defaults to the database named in the URL).
func Open(ctx context.Context, databaseURL, schemaName string) (Source, error) {
	dbType, connStr, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	switch dbType {
	case "postgres":
		client, err := NewPostgresClient(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if schemaName == "" {
			schemaName = "public"
		}
		return NewExtractor(client, schemaName), nil
	case "mysql":
		if schemaName == "" {
			schemaName, err = ParseDatabaseName(connStr)
			if err != nil {
				return nil, fmt.Errorf("failed to determine database name: %w", err)
			}
		}
		client, err := NewMySQLClient(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		return NewMySQLExtractor(client, schemaName), nil
	case "sqlite":
		client, err := NewSQLiteClient(ctx, connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
		}
		return NewSQLiteExtractor(client), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// ParseDatabaseURL detects database type and returns connection string
func ParseDatabaseURL(url string) (dbType, connectionStr string, err error) {
	if url == "" {
		return "", "", fmt.Errorf("database URL is required")
	}

	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "postgres", url, nil
	}

	if strings.HasPrefix(url, "mysql://") {
		// Strip mysql:// prefix for the Go MySQL driver
		return "mysql", strings.TrimPrefix(url, "mysql://"), nil
	}

	if strings.HasPrefix(url, "sqlite://") {
		return "sqlite", strings.TrimPrefix(url, "sqlite://"), nil
	}

	return "", "", fmt.Errorf("invalid database URL scheme (must start with postgres://, mysql://, or sqlite://)")
}

// ParseDatabaseName returns the database named in a MySQL DSN.
func ParseDatabaseName(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("no database name in DSN")
	}
	return cfg.DBName, nil
}

// selectRowsQuery builds the row scan for a table read from the already
// quoted relation name from. Rows are ordered by the primary key, or by
// fallbackOrder when the table has none.
func selectRowsQuery(from string, table schema.Table, quote func(string) string, fallbackOrder string) string {
	cols := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		cols[i] = quote(col.Name)
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), from)

	if len(table.PrimaryKey) > 0 {
		order := make([]string, len(table.PrimaryKey))
		for i, pk := range table.PrimaryKey {
			order[i] = quote(pk)
		}
		return query + " ORDER BY " + strings.Join(order, ", ")
	}
	if fallbackOrder != "" {
		return query + " ORDER BY " + fallbackOrder
	}
	return query
}

func quoteWith(q string, name string) string {
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// extractTables extracts each named table in order.
func extractTables(ctx context.Context, names []string, extract func(context.Context, string) (*schema.Table, error)) (*schema.Schema, error) {
	tables := make([]schema.Table, 0, len(names))
	for _, name := range names {
		table, err := extract(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", name, err)
		}
		tables = append(tables, *table)
	}
	return &schema.Schema{Tables: tables}, nil
}

// queryStrings returns the first column of every row of a query.
func queryStrings(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
