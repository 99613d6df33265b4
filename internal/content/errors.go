package content

import "fmt"

// DanglingLinkError reports a foreign key value with no matching row in
// the generated document.
type DanglingLinkError struct {
	ContentType string // content type of the referencing entry
	EntryID     string
	Field       string
	TargetType  string
	Value       string // raw foreign key value
}

func (e *DanglingLinkError) Error() string {
	return fmt.Sprintf("entry %s (%s) field %s links to %s %q which does not exist",
		e.EntryID, e.ContentType, e.Field, e.TargetType, e.Value)
}

// CoercionError reports a column value that cannot be represented as its
// field type.
type CoercionError struct {
	Table  string
	Column string
	Row    int
	Type   FieldType
	Err    error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("%s.%s row %d: cannot convert value to %s: %v", e.Table, e.Column, e.Row, e.Type, e.Err)
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}
