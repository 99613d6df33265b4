package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestParseTableList(t *testing.T) {
	tests := []struct {
		name       string
		tablesStr  string
		wantTables []string
	}{
		{
			name:       "single table",
			tablesStr:  "users",
			wantTables: []string{"users"},
		},
		{
			name:       "multiple tables",
			tablesStr:  "users,posts,comments",
			wantTables: []string{"users", "posts", "comments"},
		},
		{
			name:       "tables with spaces",
			tablesStr:  "users, posts, comments",
			wantTables: []string{"users", "posts", "comments"},
		},
		{
			name:       "trailing comma",
			tablesStr:  "users,",
			wantTables: []string{"users"},
		},
		{
			name:       "empty string",
			tablesStr:  "",
			wantTables: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTables, parseTableList(tt.tablesStr))
		})
	}
}

func TestStringList(t *testing.T) {
	v := viper.New()
	v.Set("from_flag", "authors, books")
	v.Set("from_file", []any{"authors", "books"})

	assert.Equal(t, []string{"authors", "books"}, stringList(v, "from_flag"))
	assert.Equal(t, []string{"authors", "books"}, stringList(v, "from_file"))
	assert.Empty(t, stringList(v, "missing"))
}

func TestNewLogger(t *testing.T) {
	for _, verbose := range []bool{true, false} {
		logger, err := newLogger(verbose)
		assert.NoError(t, err)
		assert.NotNil(t, logger)
	}
}
