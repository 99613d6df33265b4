package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/dbcontent/internal/schema"
)

const libraryDDL = `
	CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT NOT NULL, born DATE);
	CREATE TABLE books (
		isbn TEXT,
		edition INTEGER,
		title VARCHAR(200),
		author_id INTEGER REFERENCES authors(id),
		editor INTEGER REFERENCES authors,
		cover BLOB,
		PRIMARY KEY (isbn, edition)
	);
	CREATE TABLE "odd ""name""" (note TEXT);
`

func openTestSQLite(t *testing.T, statements ...string) *SQLiteExtractor {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	for _, stmt := range statements {
		_, err := conn.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	require.NoError(t, conn.Close())

	client, err := NewSQLiteClient(context.Background(), path)
	require.NoError(t, err)

	e := NewSQLiteExtractor(client)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestSQLiteExtractSchema(t *testing.T) {
	e := openTestSQLite(t, libraryDDL)

	s, err := e.ExtractSchema(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(s.Tables))
	for _, table := range s.Tables {
		names = append(names, table.Name)
	}
	assert.Equal(t, []string{"authors", "books", `odd "name"`}, names)

	authors := s.Table("authors")
	require.NotNil(t, authors)
	assert.Equal(t, []string{"id"}, authors.PrimaryKey)
	assert.Equal(t, []schema.Column{
		{Name: "id", Type: "INTEGER", Semantic: schema.Integer, Nullable: false},
		{Name: "name", Type: "TEXT", Semantic: schema.Text, Nullable: false},
		{Name: "born", Type: "DATE", Semantic: schema.DateTime, Nullable: true},
	}, authors.Columns)
	assert.Empty(t, authors.Relations)

	books := s.Table("books")
	require.NotNil(t, books)
	assert.Equal(t, []string{"isbn", "edition"}, books.PrimaryKey)
	assert.Equal(t, schema.Binary, books.Column("cover").Semantic)
	assert.False(t, books.Column("isbn").Nullable)

	require.Len(t, books.Relations, 2)
	byColumn := make(map[string]schema.Relation)
	for _, rel := range books.Relations {
		byColumn[rel.SourceColumn] = rel
	}
	assert.Equal(t, "authors", byColumn["author_id"].TargetTable)
	assert.Equal(t, "id", byColumn["author_id"].TargetColumn)
	assert.Equal(t, "authors", byColumn["editor"].TargetTable)
	assert.Empty(t, byColumn["editor"].TargetColumn)
	assert.NotEqual(t, byColumn["author_id"].Name, byColumn["editor"].Name)
}

func TestSQLiteExtractSchemaSelectedTables(t *testing.T) {
	e := openTestSQLite(t, libraryDDL)

	s, err := e.ExtractSchema(context.Background(), []string{"books"})
	require.NoError(t, err)
	require.Len(t, s.Tables, 1)
	assert.Equal(t, "books", s.Tables[0].Name)

	_, err = e.ExtractSchema(context.Background(), []string{"missing"})
	assert.Error(t, err)
}

func TestSQLiteReadRows(t *testing.T) {
	e := openTestSQLite(t, libraryDDL,
		`INSERT INTO authors (id, name) VALUES (2, 'Grace'), (1, 'Ada')`,
		`INSERT INTO books (isbn, edition, title, author_id) VALUES ('b', 1, 'Second', 1), ('a', 2, 'First', NULL)`,
		`INSERT INTO "odd ""name""" (note) VALUES ('z'), ('y')`,
	)
	ctx := context.Background()

	s, err := e.ExtractSchema(ctx, nil)
	require.NoError(t, err)

	read := func(name string) [][]any {
		var rows [][]any
		err := e.ReadRows(ctx, *s.Table(name), func(values []any) error {
			rows = append(rows, values)
			return nil
		})
		require.NoError(t, err)
		return rows
	}

	authors := read("authors")
	require.Len(t, authors, 2)
	assert.Equal(t, int64(1), authors[0][0])
	assert.Equal(t, int64(2), authors[1][0])
	assert.Nil(t, authors[0][2])

	books := read("books")
	require.Len(t, books, 2)
	assert.Equal(t, "a", books[0][0])
	assert.Nil(t, books[0][3])

	// Without a primary key rows come back in insertion order.
	odd := read(`odd "name"`)
	require.Len(t, odd, 2)
	assert.Equal(t, "z", odd[0][0])
}

func TestSQLiteReadOnly(t *testing.T) {
	e := openTestSQLite(t, libraryDDL)

	_, err := e.client.GetDB().Exec(`INSERT INTO authors (id, name) VALUES (1, 'Ada')`)
	assert.Error(t, err)
}

func TestSQLiteMissingFile(t *testing.T) {
	_, err := NewSQLiteClient(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}
