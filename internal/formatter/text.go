package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/dbcontent/internal/content"
)

// TextFormatter summarizes a document as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes one block per content type with its fields and entry count
func (f *TextFormatter) Format(doc *content.Document) error {
	counts := make(map[string]int, len(doc.ContentTypes))
	for _, e := range doc.Entries {
		counts[e.Sys.ContentType]++
	}

	for i, ct := range doc.ContentTypes {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between content types
		}

		display := ""
		if ct.DisplayField != "" {
			display = fmt.Sprintf(" (display: %s)", ct.DisplayField)
		}
		if _, err := fmt.Fprintf(f.writer, "CONTENT TYPE %s%s: %d entries\n", ct.ID, display, counts[ct.ID]); err != nil {
			return err
		}

		for _, field := range ct.Fields {
			_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatField(field))
		}
	}

	_, err := fmt.Fprintf(f.writer, "\nTOTAL %d content types, %d entries\n", len(doc.ContentTypes), len(doc.Entries))
	return err
}

func (f *TextFormatter) formatField(field content.Field) string {
	parts := []string{field.ID + ":"}

	typeStr := string(field.Type)
	if field.Type == content.FieldLink {
		var targets []string
		for _, v := range field.Validations {
			targets = append(targets, v.LinkContentType...)
		}
		typeStr = fmt.Sprintf("Link → %s", strings.Join(targets, "|"))
	}
	parts = append(parts, typeStr)

	if field.Required {
		parts = append(parts, "REQUIRED")
	}

	if field.Name != field.ID {
		parts = append(parts, fmt.Sprintf("(column %s)", field.Name))
	}

	return strings.Join(parts, " ")
}
