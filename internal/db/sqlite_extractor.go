package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/tordrt/dbcontent/internal/schema"
)

const sqliteTablesQuery = `
	SELECT name
	FROM sqlite_master
	WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
	ORDER BY name
`

// SQLiteExtractor handles schema extraction and row reads for SQLite
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// Close closes the underlying connection.
func (e *SQLiteExtractor) Close() error {
	return e.client.Close()
}

// ExtractSchema extracts the given tables, or every user table ordered by
// name.
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	if len(tables) == 0 {
		var err error
		tables, err = queryStrings(ctx, e.client.GetDB(), sqliteTablesQuery)
		if err != nil {
			return nil, fmt.Errorf("failed to get table names: %w", err)
		}
	}
	return extractTables(ctx, tables, e.extractTable)
}

func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	columns, pk, err := e.extractColumns(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table not found")
	}

	relations, err := e.extractRelations(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract relations: %w", err)
	}

	return &schema.Table{Name: tableName, Columns: columns, PrimaryKey: pk, Relations: relations}, nil
}

// extractColumns extracts column information and the primary key, ordered
// by position within the key, from PRAGMA table_info.
func (e *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]schema.Column, []string, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteWith(`"`, tableName))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	type keyPart struct {
		name  string
		order int
	}

	var columns []schema.Column
	var keyParts []keyPart

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		columns = append(columns, schema.Column{
			Name:     name,
			Type:     colType,
			Semantic: SemanticTypeOf(colType),
			Nullable: notNull == 0 && pk == 0,
		})

		if pk > 0 {
			keyParts = append(keyParts, keyPart{name: name, order: pk})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	sort.Slice(keyParts, func(i, j int) bool { return keyParts[i].order < keyParts[j].order })

	var primaryKey []string
	for _, kp := range keyParts {
		primaryKey = append(primaryKey, kp.name)
	}

	return columns, primaryKey, nil
}

// extractRelations extracts foreign key relationships. A NULL target column
// means the reference points at the target table's primary key.
func (e *SQLiteExtractor) extractRelations(ctx context.Context, tableName string) ([]schema.Relation, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteWith(`"`, tableName))

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []schema.Relation

	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		relations = append(relations, schema.Relation{
			Name:         fmt.Sprintf("fk_%s_%d", tableName, id),
			SourceColumn: fromCol,
			TargetTable:  targetTable,
			TargetColumn: toCol.String,
		})
	}

	return relations, rows.Err()
}
