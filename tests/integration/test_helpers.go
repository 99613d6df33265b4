//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"

	"github.com/tordrt/dbcontent/internal/db"
	"github.com/tordrt/dbcontent/internal/schema"
)

// shopTables are the tables of the shared test database.
var shopTables = []string{"order_items", "orders", "products", "users"}

// verifyTablesExist checks that all expected tables are present in the schema
func verifyTablesExist(t *testing.T, s *schema.Schema, expectedTables []string) {
	t.Helper()

	if len(s.Tables) != len(expectedTables) {
		t.Errorf("Expected %d tables, got %d", len(expectedTables), len(s.Tables))
	}

	tableMap := make(map[string]bool)
	for _, table := range s.Tables {
		tableMap[table.Name] = true
	}

	for _, tableName := range expectedTables {
		if !tableMap[tableName] {
			t.Errorf("Expected table %s not found in schema", tableName)
		}
	}
}

// verifyColumns checks that expected columns exist in a table
func verifyColumns(t *testing.T, table *schema.Table, expectedColumns []string) {
	t.Helper()

	columnMap := make(map[string]bool)
	for _, col := range table.Columns {
		columnMap[col.Name] = true
	}

	for _, colName := range expectedColumns {
		if !columnMap[colName] {
			t.Errorf("Expected column %s not found in %s table", colName, table.Name)
		}
	}
}

// verifyPrimaryKey checks that a table has the expected primary key
func verifyPrimaryKey(t *testing.T, table *schema.Table, expectedPK []string) {
	t.Helper()

	if len(table.PrimaryKey) != len(expectedPK) {
		t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKey)
		return
	}

	for i, pk := range expectedPK {
		if table.PrimaryKey[i] != pk {
			t.Errorf("Expected primary key %v, got %v", expectedPK, table.PrimaryKey)
			return
		}
	}
}

// verifySemanticType checks the semantic type a column was mapped to
func verifySemanticType(t *testing.T, table *schema.Table, columnName string, expected schema.SemanticType) {
	t.Helper()

	col := table.Column(columnName)
	if col == nil {
		t.Errorf("Column %s not found in table %s", columnName, table.Name)
		return
	}
	if col.Semantic != expected {
		t.Errorf("Expected %s.%s (%s) to be %s, got %s", table.Name, columnName, col.Type, expected, col.Semantic)
	}
}

// verifyForeignKey checks that a foreign key relationship exists
func verifyForeignKey(t *testing.T, s *schema.Schema, tableName, sourceColumn, targetTable string) {
	t.Helper()

	table := s.Table(tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
		return
	}

	for _, rel := range table.Relations {
		if rel.TargetTable == targetTable && rel.SourceColumn == sourceColumn {
			return
		}
	}

	t.Errorf("Expected foreign key relationship from %s.%s to %s not found", tableName, sourceColumn, targetTable)
}

// verifyReadRows reads every row of a table and checks that each row has
// one value per column.
func verifyReadRows(t *testing.T, ctx context.Context, src db.Source, table *schema.Table) int {
	t.Helper()

	count := 0
	err := src.ReadRows(ctx, *table, func(values []any) error {
		count++
		if len(values) != len(table.Columns) {
			t.Errorf("Row %d of %s has %d values, want %d", count, table.Name, len(values), len(table.Columns))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to read rows of %s: %v", table.Name, err)
	}
	return count
}

// findTable is a helper function to find a table by name in the schema
func findTable(t *testing.T, s *schema.Schema, tableName string) *schema.Table {
	t.Helper()

	table := s.Table(tableName)
	if table == nil {
		t.Fatalf("Table %s not found", tableName)
	}
	return table
}
