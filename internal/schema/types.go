package schema

// Schema represents a complete database schema
type Schema struct {
	Tables []Table
}

// Table represents a database table
type Table struct {
	Name       string
	Columns    []Column
	Relations  []Relation
	PrimaryKey []string
}

// Column represents a table column
type Column struct {
	Name     string
	Type     string // native type as reported by the database
	Semantic SemanticType
	Nullable bool
}

// Relation represents a foreign key relationship
type Relation struct {
	Name         string // constraint name; shared by all columns of a composite key
	SourceColumn string
	TargetTable  string
	TargetColumn string // empty means the target table's primary key
}

// SemanticType is the database-independent category of a column's values.
type SemanticType string

const (
	Text     SemanticType = "text"
	Integer  SemanticType = "integer"
	Float    SemanticType = "float"
	Boolean  SemanticType = "boolean"
	DateTime SemanticType = "datetime"
	Binary   SemanticType = "binary"
)

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return i
		}
	}
	return -1
}

// IsPrimaryKey reports whether the column is part of the primary key.
func (t *Table) IsPrimaryKey(name string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == name {
			return true
		}
	}
	return false
}

// Table returns the table with the given name, or nil.
func (s *Schema) Table(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}
