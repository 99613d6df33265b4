package dbcontent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tordrt/dbcontent/internal/formatter"
)

// SpaceProvisioner creates a space from a JSON template file.
type SpaceProvisioner interface {
	CreateSpace(ctx context.Context, spaceID, templatePath string) error
}

// State is the progress of an import run.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateGenerating
	StateSerializing
	StateProvisioning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateGenerating:
		return "generating"
	case StateSerializing:
		return "serializing"
	case StateProvisioning:
		return "provisioning"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Importer generates the document for a database, stages it in a
// temporary file and provisions a space from it.
type Importer struct {
	cfg         Config
	generator   *Generator
	provisioner SpaceProvisioner
	tempDir     string
	logger      *zap.Logger
	state       State
}

// NewImporter creates an importer for cfg that provisions through p.
func NewImporter(cfg Config, p SpaceProvisioner, opts ...Option) *Importer {
	o := newOptions(opts)
	return &Importer{
		cfg:         cfg,
		generator:   NewGenerator(cfg, opts...),
		provisioner: p,
		tempDir:     o.tempDir,
		logger:      o.logger,
	}
}

// Generator returns the generator used by Run.
func (im *Importer) Generator() *Generator {
	return im.generator
}

// State returns the state reached by the last Run.
func (im *Importer) State() State {
	return im.state
}

// Run regenerates the document, writes it to a temporary file and asks the
// provisioner to create the space from it. The file is removed before Run
// returns. The first failing step aborts the run and its error is returned
// as an *Error naming the phase.
func (im *Importer) Run(ctx context.Context) (err error) {
	logger := im.logger.With(zap.String("run_id", uuid.NewString()), zap.String("space", im.cfg.Space))

	defer func() {
		if err != nil {
			logger.Error("import failed", zap.Stringer("state", im.state), zap.Error(err))
			im.state = StateFailed
		}
	}()

	if err := im.validate(logger); err != nil {
		return err
	}

	im.transition(logger, StateGenerating)
	doc, err := im.generator.Regenerate(ctx)
	if err != nil {
		return err
	}

	return im.provision(ctx, logger, doc)
}

// Provision stages an already generated document and creates the space
// from it without reading the database again.
func (im *Importer) Provision(ctx context.Context, doc *Document) (err error) {
	logger := im.logger.With(zap.String("run_id", uuid.NewString()), zap.String("space", im.cfg.Space))

	defer func() {
		if err != nil {
			logger.Error("import failed", zap.Stringer("state", im.state), zap.Error(err))
			im.state = StateFailed
		}
	}()

	if err := im.validate(logger); err != nil {
		return err
	}
	if doc == nil {
		return &Error{Phase: PhaseSerialization, Err: errors.New("no document to provision")}
	}
	return im.provision(ctx, logger, doc)
}

func (im *Importer) validate(logger *zap.Logger) error {
	im.transition(logger, StateValidating)
	if err := checkComplete(im.cfg); err != nil {
		return err
	}
	if im.provisioner == nil {
		return &Error{Phase: PhaseConfiguration, Err: errors.New("no space provisioner configured")}
	}
	return nil
}

func (im *Importer) provision(ctx context.Context, logger *zap.Logger, doc *Document) (err error) {
	im.transition(logger, StateSerializing)
	path, err := im.stage(doc)
	if err != nil {
		return &Error{Phase: PhaseSerialization, Err: err}
	}
	defer func() {
		rmErr := os.Remove(path)
		if rmErr == nil || errors.Is(rmErr, fs.ErrNotExist) {
			return
		}
		if err == nil {
			err = &Error{Phase: PhaseSerialization, Err: fmt.Errorf("failed to remove staged template: %w", rmErr)}
			return
		}
		logger.Warn("failed to remove staged template", zap.String("path", path), zap.Error(rmErr))
	}()

	im.transition(logger, StateProvisioning)
	if err := im.provisioner.CreateSpace(ctx, im.cfg.Space, path); err != nil {
		return &Error{Phase: PhaseProvisioning, Err: err}
	}

	im.transition(logger, StateDone)
	return nil
}

func (im *Importer) transition(logger *zap.Logger, next State) {
	logger.Debug("import state", zap.Stringer("from", im.state), zap.Stringer("to", next))
	im.state = next
}

// stage writes doc to a new temporary file and returns its path. The file
// is removed again when writing fails.
func (im *Importer) stage(doc *Document) (string, error) {
	f, err := os.CreateTemp(im.tempDir, "dbcontent-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}

	writeErr := formatter.NewJSONFormatter(f).Format(doc)
	closeErr := f.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(f.Name())
		if writeErr != nil {
			return "", writeErr
		}
		return "", fmt.Errorf("failed to close staging file: %w", closeErr)
	}

	return f.Name(), nil
}
