// Package content models a content-management space: content types, the
// entries conforming to them, and links between entries.
package content

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FieldType is the content field type a column is published as.
type FieldType string

const (
	FieldText    FieldType = "Text"
	FieldInteger FieldType = "Integer"
	FieldNumber  FieldType = "Number"
	FieldBoolean FieldType = "Boolean"
	FieldDate    FieldType = "Date"
	FieldLink    FieldType = "Link"
)

// LinkTypeEntry is the only link type the generator produces.
const LinkTypeEntry = "Entry"

// Document is the full content model generated from one database.
type Document struct {
	ContentTypes []ContentType `json:"contentTypes"`
	Entries      []Entry       `json:"entries"`
}

// ContentType describes the fields of the entries derived from one table.
type ContentType struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DisplayField string  `json:"displayField,omitempty"`
	Fields       []Field `json:"fields"`
}

// Field is one field definition of a content type.
type Field struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        FieldType    `json:"type"`
	LinkType    string       `json:"linkType,omitempty"`
	Validations []Validation `json:"validations,omitempty"`
	Required    bool         `json:"required"`
}

// Validation restricts the content types a link field may reference.
type Validation struct {
	LinkContentType []string `json:"linkContentType"`
}

// Entry is one row published as content. Field order follows the content
// type's field order; null columns have no field.
type Entry struct {
	Sys    EntrySys                           `json:"sys"`
	Fields *orderedmap.OrderedMap[string, any] `json:"fields"`
}

// EntrySys identifies an entry and its content type.
type EntrySys struct {
	ID          string `json:"id"`
	ContentType string `json:"contentType"`
}

// Link is the value of a link field.
type Link struct {
	Sys LinkSys `json:"sys"`
}

// LinkSys points at another entry of the same document.
type LinkSys struct {
	Type     string `json:"type"`
	LinkType string `json:"linkType"`
	ID       string `json:"id"`
}

// NewLink returns a link to the entry with the given id.
func NewLink(entryID string) Link {
	return Link{Sys: LinkSys{Type: "Link", LinkType: LinkTypeEntry, ID: entryID}}
}

// ContentType returns the content type with the given id, or nil.
func (d *Document) ContentType(id string) *ContentType {
	for i := range d.ContentTypes {
		if d.ContentTypes[i].ID == id {
			return &d.ContentTypes[i]
		}
	}
	return nil
}

// Entry returns the entry with the given id, or nil.
func (d *Document) Entry(id string) *Entry {
	for i := range d.Entries {
		if d.Entries[i].Sys.ID == id {
			return &d.Entries[i]
		}
	}
	return nil
}

// EntriesOf returns the entries of one content type in document order.
func (d *Document) EntriesOf(contentTypeID string) []Entry {
	var entries []Entry
	for _, e := range d.Entries {
		if e.Sys.ContentType == contentTypeID {
			entries = append(entries, e)
		}
	}
	return entries
}

// Field returns the field with the given id, or nil.
func (ct *ContentType) Field(id string) *Field {
	for i := range ct.Fields {
		if ct.Fields[i].ID == id {
			return &ct.Fields[i]
		}
	}
	return nil
}

// Value returns an entry field value, or nil when the field is absent.
func (e *Entry) Value(fieldID string) any {
	v, _ := e.Fields.Get(fieldID)
	return v
}
