package db

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tordrt/dbcontent/internal/schema"
)

// PostgresClient manages the connection to PostgreSQL
type PostgresClient struct {
	conn *pgx.Conn
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(ctx context.Context, connString string) (*PostgresClient, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{conn: conn}, nil
}

// Close closes the database connection
func (c *PostgresClient) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// GetConnection returns the underlying connection
func (c *PostgresClient) GetConnection() *pgx.Conn {
	return c.conn
}

// ReadRows streams the rows of a table in primary key order.
func (e *PostgresExtractor) ReadRows(ctx context.Context, table schema.Table, fn RowFunc) error {
	quote := func(name string) string { return pgx.Identifier{name}.Sanitize() }
	from := pgx.Identifier{e.schema, table.Name}.Sanitize()
	query := selectRowsQuery(from, table, quote, "")

	rows, err := e.client.GetConnection().Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query rows of %s: %w", table.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return err
		}
		for i, v := range values {
			values[i] = normalizePostgresValue(v)
		}
		if err := fn(values); err != nil {
			return err
		}
	}

	return rows.Err()
}

// normalizePostgresValue turns pgx-decoded values without a plain Go
// equivalent into strings or floats.
func normalizePostgresValue(v any) any {
	switch val := v.(type) {
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		f, err := val.Float64Value()
		if err != nil {
			// Out of float64 range; keep the exact digits.
			return numericText(val)
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(val).String()
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	case driver.Valuer:
		// pgtype.Time, pgtype.Interval and friends
		dv, err := val.Value()
		if err != nil {
			return fmt.Sprint(val)
		}
		return dv
	default:
		return v
	}
}

func numericText(n pgtype.Numeric) string {
	digits := "0"
	if n.Int != nil {
		digits = n.Int.String()
	}
	if n.Exp == 0 {
		return digits
	}
	return digits + "e" + strconv.Itoa(int(n.Exp))
}
