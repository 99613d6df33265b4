package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tordrt/dbcontent/internal/schema"
)

const (
	postgresTablesQuery = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	postgresColumnsQuery = `
		SELECT column_name, data_type, udt_name, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	postgresPrimaryKeyQuery = `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON kcu.constraint_schema = tc.constraint_schema
			AND kcu.constraint_name = tc.constraint_name
		WHERE tc.table_schema = $1
			AND tc.table_name = $2
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`

	// One row per column pair of every foreign key, in key order.
	postgresRelationsQuery = `
		SELECT con.conname::text, src.attname::text, target.relname::text, dst.attname::text
		FROM pg_constraint con
		JOIN pg_class t ON t.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_class target ON target.oid = con.confrelid
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(src_num, dst_num, ord)
		JOIN pg_attribute src ON src.attrelid = con.conrelid AND src.attnum = k.src_num
		JOIN pg_attribute dst ON dst.attrelid = con.confrelid AND dst.attnum = k.dst_num
		WHERE con.contype = 'f'
			AND n.nspname = $1
			AND t.relname = $2
		ORDER BY con.conname, k.ord
	`
)

// PostgresExtractor handles schema extraction and row reads for PostgreSQL
type PostgresExtractor struct {
	client *PostgresClient
	schema string
}

// NewExtractor creates a new PostgreSQL schema extractor
func NewExtractor(client *PostgresClient, schemaName string) *PostgresExtractor {
	return &PostgresExtractor{
		client: client,
		schema: schemaName,
	}
}

// Close closes the underlying connection.
func (e *PostgresExtractor) Close() error {
	return e.client.Close(context.Background())
}

// ExtractSchema extracts the given tables, or every base table of the
// schema ordered by name.
func (e *PostgresExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	if len(tables) == 0 {
		var err error
		tables, err = e.queryStrings(ctx, postgresTablesQuery, e.schema)
		if err != nil {
			return nil, fmt.Errorf("failed to get table names: %w", err)
		}
	}
	return extractTables(ctx, tables, e.extractTable)
}

func (e *PostgresExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	columns, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table not found in schema %s", e.schema)
	}
	table.Columns = columns

	if table.PrimaryKey, err = e.queryStrings(ctx, postgresPrimaryKeyQuery, e.schema, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}

	if table.Relations, err = e.extractRelations(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract relations: %w", err)
	}

	return table, nil
}

// normalizePostgresType maps verbose SQL type names to commonly-used PostgreSQL equivalents
func normalizePostgresType(dataType, udtName string) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		return "varchar"
	case "ARRAY":
		// udt_name has underscore prefix for arrays (e.g., "_text" for text[])
		if len(udtName) > 0 && udtName[0] == '_' {
			return udtName[1:] + "[]"
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

type postgresColumn struct {
	Name     string
	DataType string
	UDTName  string
	Nullable string
}

func (e *PostgresExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, error) {
	rows, err := e.client.GetConnection().Query(ctx, postgresColumnsQuery, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	raw, err := pgx.CollectRows(rows, pgx.RowToStructByPos[postgresColumn])
	if err != nil {
		return nil, err
	}

	columns := make([]schema.Column, 0, len(raw))
	for _, c := range raw {
		native := normalizePostgresType(c.DataType, c.UDTName)
		columns = append(columns, schema.Column{
			Name:     c.Name,
			Type:     native,
			Semantic: SemanticTypeOf(native),
			Nullable: c.Nullable == "YES",
		})
	}
	return columns, nil
}

func (e *PostgresExtractor) extractRelations(ctx context.Context, tableName string) ([]schema.Relation, error) {
	rows, err := e.client.GetConnection().Query(ctx, postgresRelationsQuery, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[schema.Relation])
}

func (e *PostgresExtractor) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := e.client.GetConnection().Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
