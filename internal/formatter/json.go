package formatter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tordrt/dbcontent/internal/content"
)

// JSONFormatter writes a document as the canonical JSON template consumed
// by space provisioning. Output depends only on the document: record keys
// follow struct order and entry fields follow content type field order.
type JSONFormatter struct {
	writer io.Writer
	indent string
}

// NewJSONFormatter creates a new JSON formatter indenting with two spaces
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w, indent: "  "}
}

// Format writes the document followed by a newline
func (f *JSONFormatter) Format(doc *content.Document) error {
	b, err := Marshal(doc, f.indent)
	if err != nil {
		return err
	}
	if _, err := f.writer.Write(b); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// Marshal renders doc as indented JSON with a trailing newline.
func Marshal(doc *content.Document, indent string) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	b, err := json.MarshalIndent(doc, "", indent)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return append(b, '\n'), nil
}
