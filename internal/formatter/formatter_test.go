package formatter

import (
	"bytes"
	"testing"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/tordrt/dbcontent/internal/content"
)

func libraryDocument() *content.Document {
	ada := orderedmap.New[string, any]()
	ada.Set("name", "Ada")

	book := orderedmap.New[string, any]()
	book.Set("author", content.NewLink("authors_1"))

	return &content.Document{
		ContentTypes: []content.ContentType{
			{
				ID:           "authors",
				Name:         "authors",
				DisplayField: "name",
				Fields: []content.Field{
					{ID: "name", Name: "name", Type: content.FieldText, Required: true},
				},
			},
			{
				ID:   "books",
				Name: "books",
				Fields: []content.Field{
					{
						ID:          "author",
						Name:        "author_id",
						Type:        content.FieldLink,
						LinkType:    content.LinkTypeEntry,
						Validations: []content.Validation{{LinkContentType: []string{"authors"}}},
					},
				},
			},
		},
		Entries: []content.Entry{
			{Sys: content.EntrySys{ID: "authors_1", ContentType: "authors"}, Fields: ada},
			{Sys: content.EntrySys{ID: "books_1", ContentType: "books"}, Fields: book},
		},
	}
}

const libraryJSON = `{
  "contentTypes": [
    {
      "id": "authors",
      "name": "authors",
      "displayField": "name",
      "fields": [
        {
          "id": "name",
          "name": "name",
          "type": "Text",
          "required": true
        }
      ]
    },
    {
      "id": "books",
      "name": "books",
      "fields": [
        {
          "id": "author",
          "name": "author_id",
          "type": "Link",
          "linkType": "Entry",
          "validations": [
            {
              "linkContentType": [
                "authors"
              ]
            }
          ],
          "required": false
        }
      ]
    }
  ],
  "entries": [
    {
      "sys": {
        "id": "authors_1",
        "contentType": "authors"
      },
      "fields": {
        "name": "Ada"
      }
    },
    {
      "sys": {
        "id": "books_1",
        "contentType": "books"
      },
      "fields": {
        "author": {
          "sys": {
            "type": "Link",
            "linkType": "Entry",
            "id": "authors_1"
          }
        }
      }
    }
  ]
}
`

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(&buf).Format(libraryDocument()))
	assert.Equal(t, libraryJSON, buf.String())
}

func TestJSONFormatterFieldOrder(t *testing.T) {
	fields := orderedmap.New[string, any]()
	fields.Set("zeta", int64(1))
	fields.Set("alpha", 2.5)
	fields.Set("mid", true)

	doc := &content.Document{
		ContentTypes: []content.ContentType{},
		Entries: []content.Entry{
			{Sys: content.EntrySys{ID: "t_1", ContentType: "t"}, Fields: fields},
		},
	}

	b, err := Marshal(doc, "  ")
	require.NoError(t, err)

	zeta := bytes.Index(b, []byte(`"zeta": 1`))
	alpha := bytes.Index(b, []byte(`"alpha": 2.5`))
	mid := bytes.Index(b, []byte(`"mid": true`))
	require.True(t, zeta > 0 && alpha > 0 && mid > 0, string(b))
	assert.Less(t, zeta, alpha)
	assert.Less(t, alpha, mid)

	obj, err := oj.Parse(b)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1)}, jp.MustParseString("$.entries[0].fields.zeta").Get(obj))
}

func TestJSONFormatterDeterministic(t *testing.T) {
	first, err := Marshal(libraryDocument(), "  ")
	require.NoError(t, err)
	second, err := Marshal(libraryDocument(), "  ")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMarshalNil(t *testing.T) {
	_, err := Marshal(nil, "  ")
	assert.Error(t, err)
}

func TestTextFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTextFormatter(&buf).Format(libraryDocument()))

	want := "CONTENT TYPE authors (display: name): 1 entries\n" +
		"  name: Text REQUIRED\n" +
		"\n" +
		"CONTENT TYPE books: 1 entries\n" +
		"  author: Link → authors (column author_id)\n" +
		"\n" +
		"TOTAL 2 content types, 2 entries\n"
	assert.Equal(t, want, buf.String())
}
