//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/dbcontent/internal/db"
	"github.com/tordrt/dbcontent/internal/schema"
)

const shopDDL = `
	CREATE TABLE users (
		id INTEGER PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL,
		status TEXT CHECK (status IN ('active', 'inactive')),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE products (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT,
		price DECIMAL(10, 2),
		in_stock BOOLEAN DEFAULT 1
	);
	CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		total REAL
	);
	CREATE TABLE order_items (
		order_id INTEGER NOT NULL REFERENCES orders(id),
		product_id INTEGER NOT NULL REFERENCES products,
		quantity INTEGER NOT NULL,
		PRIMARY KEY (order_id, product_id)
	);
	INSERT INTO users (id, username, email, status) VALUES (1, 'ada', 'ada@example.com', 'active');
	INSERT INTO products (id, name, category, price) VALUES (1, 'Widget', 'tools', 9.99);
	INSERT INTO orders (id, user_id, total) VALUES (1, 1, 19.98);
	INSERT INTO order_items (order_id, product_id, quantity) VALUES (1, 1, 2);
`

// sqlitePath returns SQLITE_TEST_PATH, or a freshly created shop database.
func sqlitePath(t *testing.T) string {
	t.Helper()

	if path := os.Getenv("SQLITE_TEST_PATH"); path != "" {
		return path
	}

	path := filepath.Join(t.TempDir(), "shop.db")
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Failed to create SQLite database: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Exec(shopDDL); err != nil {
		t.Fatalf("Failed to create shop schema: %v", err)
	}
	return path
}

func TestSQLiteExtraction(t *testing.T) {
	ctx := context.Background()

	src, err := db.Open(ctx, "sqlite://"+sqlitePath(t), "")
	if err != nil {
		t.Fatalf("Failed to connect to SQLite: %v", err)
	}
	defer src.Close()

	s, err := src.ExtractSchema(ctx, nil)
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}

	verifyTablesExist(t, s, shopTables)

	table := findTable(t, s, "users")
	verifyPrimaryKey(t, table, []string{"id"})
	verifyColumns(t, table, []string{"id", "username", "email", "status", "created_at"})
	verifySemanticType(t, table, "username", schema.Text)
	verifySemanticType(t, table, "created_at", schema.DateTime)

	verifyPrimaryKey(t, findTable(t, s, "order_items"), []string{"order_id", "product_id"})
	verifyForeignKey(t, s, "orders", "user_id", "users")
	verifyForeignKey(t, s, "order_items", "product_id", "products")

	for i := range s.Tables {
		verifyReadRows(t, ctx, src, &s.Tables[i])
	}
}

func TestSQLiteSpecificTables(t *testing.T) {
	ctx := context.Background()

	src, err := db.Open(ctx, "sqlite://"+sqlitePath(t), "")
	if err != nil {
		t.Fatalf("Failed to connect to SQLite: %v", err)
	}
	defer src.Close()

	// Extract only users and products tables
	s, err := src.ExtractSchema(ctx, []string{"users", "products"})
	if err != nil {
		t.Fatalf("Failed to extract schema: %v", err)
	}

	verifyTablesExist(t, s, []string{"users", "products"})

	if s.Table("orders") != nil || s.Table("order_items") != nil {
		t.Error("Should not include orders or order_items tables")
	}
}

func TestSQLiteGenerate(t *testing.T) {
	doc := verifyGenerate(t, context.Background(), "sqlite://"+sqlitePath(t))

	item := doc.Entry("order_items_1_1")
	if item == nil {
		t.Fatal("Expected entry order_items_1_1")
	}
	if _, ok := item.Fields.Get("product"); !ok {
		t.Error("Expected order item to link its product")
	}
}
