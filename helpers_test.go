package dbcontent

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

const libraryDDL = `
	CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT);
	CREATE TABLE books (
		id INTEGER PRIMARY KEY,
		title TEXT,
		author_id INTEGER REFERENCES authors(id)
	);
`

// createTestDB creates an SQLite database in a temporary directory, runs
// the statements against it and returns its path.
func createTestDB(t *testing.T, statements ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	execSQL(t, path, statements...)
	return path
}

func execSQL(t *testing.T, path string, statements ...string) {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
}

func ctx(t *testing.T) context.Context {
	t.Helper()

	c, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return c
}

func testConfig(t *testing.T, path string) Config {
	t.Helper()

	cfg, err := Setup(func(c *Config) {
		c.SetConnection("sqlite://" + path)
		c.SetSpace("abc123")
	})
	require.NoError(t, err)
	return cfg
}

// recordingProvisioner captures the template it is handed.
type recordingProvisioner struct {
	calls    int
	spaceID  string
	path     string
	template []byte
	err      error
}

func (p *recordingProvisioner) CreateSpace(_ context.Context, spaceID, templatePath string) error {
	p.calls++
	p.spaceID = spaceID
	p.path = templatePath

	b, err := os.ReadFile(templatePath)
	if err != nil {
		return err
	}
	p.template = b
	return p.err
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
