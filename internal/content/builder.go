package content

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/hashstructure/v2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/tordrt/dbcontent/internal/db"
	"github.com/tordrt/dbcontent/internal/schema"
)

// RowReader streams the rows of one table. db.Source implements it.
type RowReader interface {
	ReadRows(ctx context.Context, table schema.Table, fn db.RowFunc) error
}

// maxContentTypeIDLength is the longest content type id a space accepts.
const maxContentTypeIDLength = 64

var invalidIDChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// Builder maps an introspected schema and its rows to a Document.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a builder that logs to logger; nil disables logging.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// tablePlan is the mapping of one table onto its content type.
type tablePlan struct {
	table       *schema.Table
	contentType ContentType
	columns     []columnPlan // aligned with table.Columns
	keyColumns  []int        // primary key column positions
	indexed     []int        // positions of columns other tables link to
}

type columnPlan struct {
	fieldID  string // empty when the column is not published as a field
	semantic schema.SemanticType
	link     *linkTarget
}

type linkTarget struct {
	table  string
	column string
	typeID string
}

type indexKey struct {
	table  string
	column string
	value  string
}

type pendingLink struct {
	entry int
	field string
	raw   string
	to    *linkTarget
}

// Build maps every table of s to a content type and every row read through
// rows to an entry, then resolves foreign keys into links. Content types
// follow table order; entries are grouped by table in row order.
func (b *Builder) Build(ctx context.Context, s *schema.Schema, rows RowReader) (*Document, error) {
	plans, err := b.plan(s)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		ContentTypes: make([]ContentType, 0, len(plans)),
		Entries:      []Entry{},
	}
	for _, p := range plans {
		doc.ContentTypes = append(doc.ContentTypes, p.contentType)
	}

	index := make(map[indexKey]string)
	entryIDs := make(map[string]struct{})
	var pending []pendingLink

	for _, p := range plans {
		rowNum := 0
		keys := make(map[string]struct{})
		err := rows.ReadRows(ctx, *p.table, func(values []any) error {
			rowNum++
			if len(values) != len(p.columns) {
				return fmt.Errorf("row %d of %s has %d values, want %d", rowNum, p.table.Name, len(values), len(p.columns))
			}

			entryID := p.entryID(values, rowNum)
			if len(p.keyColumns) > 0 {
				raw := p.rawKey(values)
				if _, dup := keys[raw]; dup {
					return fmt.Errorf("duplicate entry id %s in table %s", entryID, p.table.Name)
				}
				keys[raw] = struct{}{}
			}
			if _, dup := entryIDs[entryID]; dup {
				// Sanitizing and joining can map different keys to one id.
				hashed, err := p.hashedEntryID(values, rowNum)
				if err != nil {
					return err
				}
				if _, dup := entryIDs[hashed]; dup {
					return fmt.Errorf("duplicate entry id %s in table %s", entryID, p.table.Name)
				}
				entryID = hashed
			}
			entryIDs[entryID] = struct{}{}

			entry := Entry{
				Sys:    EntrySys{ID: entryID, ContentType: p.contentType.ID},
				Fields: orderedmap.New[string, any](),
			}

			for i, col := range p.columns {
				if col.fieldID == "" || values[i] == nil {
					continue
				}

				if col.link != nil {
					// Placeholder keeps field order; resolved below.
					entry.Fields.Set(col.fieldID, nil)
					pending = append(pending, pendingLink{
						entry: len(doc.Entries),
						field: col.fieldID,
						raw:   KeyString(values[i]),
						to:    col.link,
					})
					continue
				}

				v, err := Coerce(col.semantic, values[i])
				if err != nil {
					return &CoercionError{
						Table:  p.table.Name,
						Column: p.table.Columns[i].Name,
						Row:    rowNum,
						Type:   FieldTypeOf(col.semantic),
						Err:    err,
					}
				}
				entry.Fields.Set(col.fieldID, v)
			}

			for _, i := range p.indexed {
				if values[i] == nil {
					continue
				}
				key := indexKey{table: p.table.Name, column: p.table.Columns[i].Name, value: KeyString(values[i])}
				if _, exists := index[key]; !exists {
					index[key] = entryID
				}
			}

			doc.Entries = append(doc.Entries, entry)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read table %s: %w", p.table.Name, err)
		}

		b.logger.Debug("mapped table",
			zap.String("table", p.table.Name),
			zap.String("content_type", p.contentType.ID),
			zap.Int("fields", len(p.contentType.Fields)),
			zap.Int("entries", rowNum))
	}

	for _, link := range pending {
		entry := &doc.Entries[link.entry]
		target, ok := index[indexKey{table: link.to.table, column: link.to.column, value: link.raw}]
		if !ok {
			return nil, &DanglingLinkError{
				ContentType: entry.Sys.ContentType,
				EntryID:     entry.Sys.ID,
				Field:       link.field,
				TargetType:  link.to.typeID,
				Value:       link.raw,
			}
		}
		entry.Fields.Set(link.field, NewLink(target))
	}

	return doc, nil
}

// plan derives the content type of every table and decides which columns
// become links.
func (b *Builder) plan(s *schema.Schema) ([]*tablePlan, error) {
	typeIDs := contentTypeIDs(s.Tables)

	plans := make([]*tablePlan, 0, len(s.Tables))
	byTable := make(map[string]*tablePlan, len(s.Tables))

	for i := range s.Tables {
		table := &s.Tables[i]
		links, err := b.links(s, table, typeIDs)
		if err != nil {
			return nil, err
		}

		p := &tablePlan{
			table:       table,
			contentType: ContentType{ID: typeIDs[table.Name], Name: table.Name, Fields: []Field{}},
			columns:     make([]columnPlan, len(table.Columns)),
		}

		taken := make(map[string]bool, len(table.Columns))
		for _, col := range table.Columns {
			taken[fieldID(col.Name)] = true
		}

		for ci, col := range table.Columns {
			if table.IsPrimaryKey(col.Name) {
				p.keyColumns = append(p.keyColumns, ci)
			}

			link := links[col.Name]
			if table.IsPrimaryKey(col.Name) && link == nil {
				continue
			}

			cp := columnPlan{fieldID: fieldID(col.Name), semantic: col.Semantic, link: link}
			field := Field{ID: cp.fieldID, Name: col.Name, Type: FieldTypeOf(col.Semantic), Required: !col.Nullable}

			if link != nil {
				if id := linkFieldID(col.Name); id != cp.fieldID && !taken[id] {
					taken[id] = true
					cp.fieldID = id
					field.ID = id
				}
				field.Type = FieldLink
				field.LinkType = LinkTypeEntry
				field.Validations = []Validation{{LinkContentType: []string{link.typeID}}}
			} else if col.Semantic == schema.Text && p.contentType.DisplayField == "" {
				p.contentType.DisplayField = field.ID
			}

			p.columns[ci] = cp
			p.contentType.Fields = append(p.contentType.Fields, field)
		}

		plans = append(plans, p)
		byTable[table.Name] = p
	}

	// Index every column some link points at.
	for _, p := range plans {
		for _, cp := range p.columns {
			if cp.link == nil {
				continue
			}
			target := byTable[cp.link.table]
			ci := target.table.ColumnIndex(cp.link.column)
			if !containsInt(target.indexed, ci) {
				target.indexed = append(target.indexed, ci)
			}
		}
	}

	return plans, nil
}

// links returns the link target of every single-column foreign key whose
// target table is part of the schema. Other foreign keys stay plain fields.
// Table and column names fall back to a case-insensitive match.
func (b *Builder) links(s *schema.Schema, table *schema.Table, typeIDs map[string]string) (map[string]*linkTarget, error) {
	width := make(map[string]int)
	for _, rel := range table.Relations {
		width[rel.Name]++
	}

	links := make(map[string]*linkTarget)
	for _, rel := range table.Relations {
		if rel.Name != "" && width[rel.Name] > 1 {
			b.logger.Info("composite foreign key kept as plain fields",
				zap.String("table", table.Name), zap.String("constraint", rel.Name))
			continue
		}

		source := columnIndexFold(table, rel.SourceColumn)
		if source < 0 {
			return nil, fmt.Errorf("foreign key %s of table %s: unknown column %s", rel.Name, table.Name, rel.SourceColumn)
		}

		target := tableFold(s, rel.TargetTable)
		if target == nil {
			b.logger.Warn("foreign key target not generated, kept as plain field",
				zap.String("table", table.Name),
				zap.String("column", rel.SourceColumn),
				zap.String("target", rel.TargetTable))
			continue
		}

		column := rel.TargetColumn
		if column == "" {
			if len(target.PrimaryKey) != 1 {
				return nil, fmt.Errorf("foreign key %s of table %s: %s has no single-column primary key to reference",
					rel.Name, table.Name, target.Name)
			}
			column = target.PrimaryKey[0]
		}
		ci := columnIndexFold(target, column)
		if ci < 0 {
			return nil, fmt.Errorf("foreign key %s of table %s: unknown column %s.%s", rel.Name, table.Name, target.Name, column)
		}

		links[table.Columns[source].Name] = &linkTarget{
			table:  target.Name,
			column: target.Columns[ci].Name,
			typeID: typeIDs[target.Name],
		}
	}
	return links, nil
}

func tableFold(s *schema.Schema, name string) *schema.Table {
	if t := s.Table(name); t != nil {
		return t
	}
	for i := range s.Tables {
		if strings.EqualFold(s.Tables[i].Name, name) {
			return &s.Tables[i]
		}
	}
	return nil
}

func columnIndexFold(t *schema.Table, name string) int {
	if i := t.ColumnIndex(name); i >= 0 {
		return i
	}
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// entryID derives a stable entry id from the primary key, or from the row
// number for tables without one.
func (p *tablePlan) entryID(values []any, rowNum int) string {
	if len(p.keyColumns) == 0 {
		return p.contentType.ID + "_" + strconv.Itoa(rowNum)
	}

	parts := make([]string, 0, len(p.keyColumns)+1)
	parts = append(parts, p.contentType.ID)
	for _, ci := range p.keyColumns {
		parts = append(parts, KeyString(values[ci]))
	}
	return sanitizeID(strings.Join(parts, "_"))
}

// rawKey encodes the primary key values unambiguously.
func (p *tablePlan) rawKey(values []any) string {
	var sb strings.Builder
	for _, ci := range p.keyColumns {
		part := KeyString(values[ci])
		sb.WriteString(strconv.Itoa(len(part)))
		sb.WriteByte(':')
		sb.WriteString(part)
	}
	return sb.String()
}

// hashedEntryID replaces the key part of an id with a hash of the raw key,
// for rows whose readable id is already taken.
func (p *tablePlan) hashedEntryID(values []any, rowNum int) (string, error) {
	key := struct {
		Table string
		Key   []string
		Row   int
	}{Table: p.table.Name}

	if len(p.keyColumns) == 0 {
		key.Row = rowNum
	}
	for _, ci := range p.keyColumns {
		key.Key = append(key.Key, KeyString(values[ci]))
	}

	h, err := hashstructure.Hash(key, hashstructure.FormatV2, nil)
	if err != nil {
		return "", fmt.Errorf("failed to hash key of %s: %w", p.table.Name, err)
	}
	return fmt.Sprintf("%s_%016x", p.contentType.ID, h), nil
}

// contentTypeIDs assigns every table a distinct content type id. A table
// whose id is already taken gets a numeric suffix, in table order.
func contentTypeIDs(tables []schema.Table) map[string]string {
	ids := make(map[string]string, len(tables))
	used := make(map[string]bool, len(tables))
	for _, t := range tables {
		base := ContentTypeID(t.Name)
		id := base
		for n := 2; used[id]; n++ {
			suffix := "-" + strconv.Itoa(n)
			trimmed := base
			if len(trimmed)+len(suffix) > maxContentTypeIDLength {
				trimmed = trimmed[:maxContentTypeIDLength-len(suffix)]
			}
			id = trimmed + suffix
		}
		used[id] = true
		ids[t.Name] = id
	}
	return ids
}

// ContentTypeID derives a content type id from a table name.
func ContentTypeID(table string) string {
	id := sanitizeID(table)
	if len(id) > maxContentTypeIDLength {
		id = id[:maxContentTypeIDLength]
	}
	return id
}

func fieldID(column string) string {
	return sanitizeID(column)
}

// linkFieldID names a link field after the relation rather than the key
// column: author_id becomes author.
func linkFieldID(column string) string {
	for _, suffix := range []string{"_id", "_ID", "Id", "ID"} {
		if trimmed := strings.TrimSuffix(column, suffix); trimmed != column && trimmed != "" {
			return fieldID(strings.TrimSuffix(trimmed, "_"))
		}
	}
	return fieldID(column)
}

func sanitizeID(s string) string {
	return invalidIDChars.ReplaceAllString(s, "-")
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
