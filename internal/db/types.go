package db

import (
	"database/sql"
	"strings"

	"github.com/tordrt/dbcontent/internal/schema"
)

// SemanticTypeOf maps a native column type from any supported database to
// its semantic type. Types without an explicit mapping are text.
func SemanticTypeOf(nativeType string) schema.SemanticType {
	t := strings.ToLower(strings.TrimSpace(nativeType))

	// MySQL's boolean alias is tinyint(1); other widths are integers.
	if strings.HasPrefix(t, "tinyint(1)") {
		return schema.Boolean
	}

	// Remove size/precision information (e.g., varchar(255) -> varchar)
	base := t
	if idx := strings.Index(base, "("); idx > 0 {
		base = strings.TrimSpace(base[:idx])
	}
	base = strings.TrimSuffix(base, " unsigned")

	if strings.HasSuffix(base, "[]") {
		return schema.Text
	}

	switch base {
	case "int", "integer", "int2", "int4", "int8", "smallint", "bigint", "mediumint", "tinyint",
		"serial", "bigserial", "smallserial", "year":
		return schema.Integer
	case "real", "float", "float4", "float8", "double", "double precision", "decimal", "numeric":
		return schema.Float
	case "bool", "boolean", "bit":
		return schema.Boolean
	case "date", "datetime", "timestamp", "timestamptz",
		"timestamp with time zone", "timestamp without time zone":
		return schema.DateTime
	// Times of day carry no date and are published as text.
	case "time", "timetz", "time with time zone", "time without time zone", "interval":
		return schema.Text
	case "bytea", "blob", "tinyblob", "mediumblob", "longblob", "binary", "varbinary":
		return schema.Binary
	case "text", "varchar", "char", "character", "character varying", "uuid", "json", "jsonb":
		return schema.Text
	}

	return sqliteAffinity(base)
}

// sqliteAffinity applies SQLite's substring rules for declared types that
// carry no exact match, so "UNSIGNED BIG INT" is still an integer.
func sqliteAffinity(t string) schema.SemanticType {
	switch {
	case strings.Contains(t, "int"):
		return schema.Integer
	case strings.Contains(t, "char"), strings.Contains(t, "clob"), strings.Contains(t, "text"):
		return schema.Text
	case strings.Contains(t, "blob"):
		return schema.Binary
	case strings.Contains(t, "real"), strings.Contains(t, "floa"), strings.Contains(t, "doub"):
		return schema.Float
	case strings.Contains(t, "bool"):
		return schema.Boolean
	case strings.Contains(t, "date"), strings.Contains(t, "time"):
		return schema.DateTime
	default:
		return schema.Text
	}
}

// scanRows feeds every row of a database/sql result set to fn.
func scanRows(rows *sql.Rows, width int, fn RowFunc) error {
	for rows.Next() {
		values := make([]any, width)
		dest := make([]any, width)
		for i := range values {
			dest[i] = &values[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return err
		}
		if err := fn(values); err != nil {
			return err
		}
	}
	return rows.Err()
}
