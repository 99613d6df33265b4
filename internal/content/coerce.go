package content

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/tordrt/dbcontent/internal/schema"
)

// FieldTypeOf returns the field type a column of the given semantic type is
// published as. Binary data is published as base64 text.
func FieldTypeOf(t schema.SemanticType) FieldType {
	switch t {
	case schema.Integer:
		return FieldInteger
	case schema.Float:
		return FieldNumber
	case schema.Boolean:
		return FieldBoolean
	case schema.DateTime:
		return FieldDate
	default:
		return FieldText
	}
}

// Coerce converts a raw database value into the JSON value of a field of
// the given semantic type. A nil result means the field is absent.
func Coerce(t schema.SemanticType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	if t == schema.Binary {
		switch val := v.(type) {
		case []byte:
			return base64.StdEncoding.EncodeToString(val), nil
		case string:
			return base64.StdEncoding.EncodeToString([]byte(val)), nil
		}
	}

	// BIT(1) and similar single-byte booleans
	if b, ok := v.([]byte); ok && t == schema.Boolean && len(b) == 1 && b[0] <= 1 {
		return b[0] == 1, nil
	}
	if b, ok := v.([]byte); ok {
		v = string(b)
	}

	switch t {
	case schema.Integer:
		if s, ok := v.(string); ok {
			return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		}
		return cast.ToInt64E(v)
	case schema.Float:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%v has no JSON representation", f)
		}
		return f, nil
	case schema.Boolean:
		if i, ok := v.(int64); ok {
			return i != 0, nil
		}
		return cast.ToBoolE(v)
	case schema.DateTime:
		tm, err := cast.ToTimeE(v)
		if err != nil {
			return nil, err
		}
		return FormatTime(tm), nil
	default:
		if tm, ok := v.(time.Time); ok {
			return FormatTime(tm), nil
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return fmt.Sprint(v), nil
		}
		return s, nil
	}
}

// FormatTime renders a timestamp the way date fields are published.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// KeyString renders a key value so that equal keys read from different
// columns, or decoded as different Go types, compare equal.
func KeyString(v any) string {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case time.Time:
		return FormatTime(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
	}
	return cast.ToString(v)
}
