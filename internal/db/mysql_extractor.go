package db

import (
	"context"
	"fmt"

	"github.com/tordrt/dbcontent/internal/schema"
)

const (
	mysqlTablesQuery = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	// column_type keeps the display width so tinyint(1) can be told apart.
	mysqlColumnsQuery = `
		SELECT column_name, column_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`

	mysqlPrimaryKeyQuery = `
		SELECT column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`

	mysqlRelationsQuery = `
		SELECT constraint_name, column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
			AND table_name = ?
			AND referenced_table_name IS NOT NULL
		ORDER BY constraint_name, ordinal_position
	`
)

// MySQLExtractor handles schema extraction and row reads for MySQL
type MySQLExtractor struct {
	client     *MySQLClient
	schemaName string
}

// NewMySQLExtractor creates a new MySQL schema extractor
func NewMySQLExtractor(client *MySQLClient, schemaName string) *MySQLExtractor {
	return &MySQLExtractor{
		client:     client,
		schemaName: schemaName,
	}
}

// Close closes the underlying connection.
func (e *MySQLExtractor) Close() error {
	return e.client.Close()
}

// ExtractSchema extracts the given tables, or every base table of the
// database ordered by name.
func (e *MySQLExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	if len(tables) == 0 {
		var err error
		tables, err = queryStrings(ctx, e.client.GetDB(), mysqlTablesQuery, e.schemaName)
		if err != nil {
			return nil, fmt.Errorf("failed to get table names: %w", err)
		}
	}
	return extractTables(ctx, tables, e.extractTable)
}

func (e *MySQLExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	db := e.client.GetDB()
	table := &schema.Table{Name: tableName}

	rows, err := db.QueryContext(ctx, mysqlColumnsQuery, e.schemaName, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var col schema.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable); err != nil {
			return nil, fmt.Errorf("failed to extract columns: %w", err)
		}
		col.Semantic = SemanticTypeOf(col.Type)
		col.Nullable = nullable == "YES"
		table.Columns = append(table.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("table not found in database %s", e.schemaName)
	}

	if table.PrimaryKey, err = queryStrings(ctx, db, mysqlPrimaryKeyQuery, e.schemaName, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract primary key: %w", err)
	}

	if table.Relations, err = e.extractRelations(ctx, tableName); err != nil {
		return nil, fmt.Errorf("failed to extract relations: %w", err)
	}

	return table, nil
}

// extractRelations returns one relation per column of every declared
// foreign key, grouped by constraint.
func (e *MySQLExtractor) extractRelations(ctx context.Context, tableName string) ([]schema.Relation, error) {
	rows, err := e.client.GetDB().QueryContext(ctx, mysqlRelationsQuery, e.schemaName, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []schema.Relation
	for rows.Next() {
		var rel schema.Relation
		if err := rows.Scan(&rel.Name, &rel.SourceColumn, &rel.TargetTable, &rel.TargetColumn); err != nil {
			return nil, err
		}
		relations = append(relations, rel)
	}
	return relations, rows.Err()
}
