package dbcontent

import (
	"context"
	"fmt"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
	"go.uber.org/zap"

	"github.com/tordrt/dbcontent/internal/content"
	"github.com/tordrt/dbcontent/internal/db"
	"github.com/tordrt/dbcontent/internal/schema"
)

// OpenFunc opens the database a Config points at.
type OpenFunc func(ctx context.Context, databaseURL, schemaName string) (db.Source, error)

// Option configures a Generator or an Importer.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	open    OpenFunc
	tempDir string
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithOpener replaces the database connector.
func WithOpener(open OpenFunc) Option {
	return func(o *options) { o.open = open }
}

// WithTempDir sets the directory staged templates are written to. The
// default is the system temporary directory.
func WithTempDir(dir string) Option {
	return func(o *options) { o.tempDir = dir }
}

func newOptions(opts []Option) *options {
	o := &options{open: db.Open}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// Generator builds the Document for one Config.
//
// Generate may return the document of an earlier call when neither the
// configuration nor the schema changed since; Regenerate always reads the
// database again. Row data is not part of the cache key, so callers that
// need current data must use Regenerate.
type Generator struct {
	cfg     Config
	open    OpenFunc
	builder *content.Builder
	logger  *zap.Logger

	mu     sync.Mutex
	cached *cachedDocument
}

type cachedDocument struct {
	key uint64
	doc *Document
}

// NewGenerator creates a generator for cfg.
func NewGenerator(cfg Config, opts ...Option) *Generator {
	o := newOptions(opts)
	return &Generator{
		cfg:     cfg,
		open:    o.open,
		builder: content.NewBuilder(o.logger),
		logger:  o.logger,
	}
}

// Config returns the configuration the generator was created with.
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate returns the document for the current database, reusing the
// cached one when configuration and schema are unchanged.
func (g *Generator) Generate(ctx context.Context) (*Document, error) {
	return g.generate(ctx, false)
}

// Regenerate discards any cached document and builds a new one.
func (g *Generator) Regenerate(ctx context.Context) (*Document, error) {
	return g.generate(ctx, true)
}

func (g *Generator) generate(ctx context.Context, force bool) (*Document, error) {
	if err := checkComplete(g.cfg); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if force {
		g.cached = nil
	}

	src, err := g.open(ctx, g.cfg.Connection, g.cfg.SchemaName)
	if err != nil {
		return nil, &Error{Phase: PhaseIntrospection, Err: err}
	}
	defer func() {
		if err := src.Close(); err != nil {
			g.logger.Warn("failed to close database connection", zap.Error(err))
		}
	}()

	s, err := src.ExtractSchema(ctx, g.cfg.Tables)
	if err != nil {
		return nil, &Error{Phase: PhaseIntrospection, Err: fmt.Errorf("failed to extract schema: %w", err)}
	}
	filterExcludedTables(s, g.cfg.ExcludeTables)

	key, err := fingerprint(g.cfg, s)
	if err != nil {
		return nil, &Error{Phase: PhaseGeneration, Err: err}
	}

	if g.cached != nil && g.cached.key == key {
		g.logger.Debug("reusing generated document", zap.Uint64("fingerprint", key))
		return g.cached.doc, nil
	}

	doc, err := g.builder.Build(ctx, s, src)
	if err != nil {
		return nil, &Error{Phase: PhaseGeneration, Err: err}
	}

	g.cached = &cachedDocument{key: key, doc: doc}
	g.logger.Info("generated document",
		zap.Int("content_types", len(doc.ContentTypes)),
		zap.Int("entries", len(doc.Entries)),
		zap.Bool("forced", force))

	return doc, nil
}

// fingerprint hashes the configuration together with the extracted schema.
func fingerprint(cfg Config, s *schema.Schema) (uint64, error) {
	key := struct {
		Config Config
		Schema *schema.Schema
	}{cfg, s}

	h, err := hashstructure.Hash(key, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to fingerprint schema: %w", err)
	}
	return h, nil
}

func filterExcludedTables(s *schema.Schema, excludeList []string) {
	if len(excludeList) == 0 {
		return
	}

	excludeSet := make(map[string]bool)
	for _, tableName := range excludeList {
		excludeSet[tableName] = true
	}

	filteredTables := make([]schema.Table, 0, len(s.Tables))
	for _, table := range s.Tables {
		if !excludeSet[table.Name] {
			filteredTables = append(filteredTables, table)
		}
	}
	s.Tables = filteredTables
}
