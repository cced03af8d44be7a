// Package enumtool is the entry point reconciling declared enum definitions
// with a database.
//
// Each operation comes in two forms: a *SQL method returning the statements in
// execution order, and a method executing them through an Executor.
package enumtool

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/enumeum/pgenum/config"
	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/migration/planner"
	"github.com/enumeum/pgenum/migration/schemadiff"
	"github.com/enumeum/pgenum/migration/schemadiff/types"
)

// Definitions lists the declared definitions. *enumdef.Registry implements it.
type Definitions interface {
	Definitions() []enumdef.Definition
}

// SnapshotReader reads the enum types and usages present in the database.
// *postgres.Reader implements it.
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context) (*types.Schema, error)
}

// Executor runs statements. *migrator.Migrator implements it.
type Executor interface {
	Apply(ctx context.Context, statements []string) error
	ApplyBestEffort(ctx context.Context, statements []string) error
}

// PreflightCheck validates a diff against the stored data before any
// statement of it is executed.
type PreflightCheck func(ctx context.Context, diff *types.SchemaDiff) error

// Tool reconciles declared definitions with the database
type Tool struct {
	definitions Definitions
	reader      SnapshotReader
	executor    Executor
	options     *config.CompareOptions
	preflight   PreflightCheck
	plannerOpts []planner.Option
	logger      *slog.Logger
}

// New creates a tool. executor may be nil when only the *SQL methods are
// used, reader may be nil when only CreateSchemaSQL and DropSchemaSQL are.
func New(definitions Definitions, reader SnapshotReader, executor Executor) *Tool {
	return &Tool{
		definitions: definitions,
		reader:      reader,
		executor:    executor,
		options:     config.DefaultCompareOptions(),
		logger:      slog.Default(),
	}
}

// WithLogger sets the logger for the tool
func (t *Tool) WithLogger(l *slog.Logger) *Tool {
	tmp := *t
	tmp.logger = l
	return &tmp
}

// WithCompareOptions sets which database types take part in comparisons
func (t *Tool) WithCompareOptions(opts *config.CompareOptions) *Tool {
	tmp := *t
	tmp.options = opts
	return &tmp
}

// WithPreflight runs check on every update and rollback diff before it is
// executed. Without it, stored rows holding a removed label make the
// migration fail at the column cast.
func (t *Tool) WithPreflight(check PreflightCheck) *Tool {
	tmp := *t
	tmp.preflight = check
	return &tmp
}

// WithPlannerOptions passes options such as planner.WithoutDropping to every
// diff based SQL generation
func (t *Tool) WithPlannerOptions(opts ...planner.Option) *Tool {
	tmp := *t
	tmp.plannerOpts = opts
	return &tmp
}

// CreateSchemaSQL returns CREATE TYPE statements for every declared, not
// ignored, definition.
func (t *Tool) CreateSchemaSQL() []string {
	return planner.GenerateCreate(t.declared())
}

// DropSchemaSQL returns DROP TYPE IF EXISTS statements for every declared, not
// ignored, definition.
func (t *Tool) DropSchemaSQL() []string {
	return planner.GenerateDrop(t.declared())
}

// UpdateDiff compares the database with the declared definitions.
func (t *Tool) UpdateDiff(ctx context.Context) (*types.SchemaDiff, error) {
	declared, database, err := t.snapshots(ctx)
	if err != nil {
		return nil, err
	}
	return schemadiff.CompareWithOptions(database, declared, t.options), nil
}

// RollbackDiff compares the declared definitions with the database, undoing
// what UpdateDiff would do.
func (t *Tool) RollbackDiff(ctx context.Context) (*types.SchemaDiff, error) {
	declared, database, err := t.snapshots(ctx)
	if err != nil {
		return nil, err
	}
	return schemadiff.CompareWithOptions(declared, database, t.options), nil
}

// UpdateSchemaSQL returns the statements bringing the database to the
// declared definitions
func (t *Tool) UpdateSchemaSQL(ctx context.Context) ([]string, error) {
	diff, err := t.UpdateDiff(ctx)
	if err != nil {
		return nil, err
	}
	return t.toSQL(diff)
}

// RollbackSchemaSQL returns the statements reverting the database from the
// declared definitions to its current state
func (t *Tool) RollbackSchemaSQL(ctx context.Context) ([]string, error) {
	diff, err := t.RollbackDiff(ctx)
	if err != nil {
		return nil, err
	}
	return t.toSQL(diff)
}

// MigrationSQL returns the update and rollback statements of one snapshot
// read, as written to up and down migration files.
func (t *Tool) MigrationSQL(ctx context.Context) (up, down []string, err error) {
	declared, database, err := t.snapshots(ctx)
	if err != nil {
		return nil, nil, err
	}
	if up, err = t.toSQL(schemadiff.CompareWithOptions(database, declared, t.options)); err != nil {
		return nil, nil, err
	}
	if down, err = t.toSQL(schemadiff.CompareWithOptions(declared, database, t.options)); err != nil {
		return nil, nil, err
	}
	return up, down, nil
}

// CreateSchema creates every declared type in one transaction
func (t *Tool) CreateSchema(ctx context.Context) error {
	if err := t.requireExecutor(); err != nil {
		return err
	}
	return t.executor.Apply(ctx, t.CreateSchemaSQL())
}

// DropSchema drops every declared type. Failing statements, such as dropping
// a type still in use, are logged and skipped.
func (t *Tool) DropSchema(ctx context.Context) error {
	if err := t.requireExecutor(); err != nil {
		return err
	}
	if err := t.executor.ApplyBestEffort(ctx, t.DropSchemaSQL()); err != nil {
		t.logger.Warn("Some types could not be dropped", "error", err)
	}
	return nil
}

// UpdateSchema applies the update statements in one transaction
func (t *Tool) UpdateSchema(ctx context.Context) error {
	if err := t.requireExecutor(); err != nil {
		return err
	}
	diff, err := t.UpdateDiff(ctx)
	if err != nil {
		return err
	}
	return t.apply(ctx, "update", diff)
}

// RollbackSchema applies the rollback statements in one transaction
func (t *Tool) RollbackSchema(ctx context.Context) error {
	if err := t.requireExecutor(); err != nil {
		return err
	}
	diff, err := t.RollbackDiff(ctx)
	if err != nil {
		return err
	}
	return t.apply(ctx, "rollback", diff)
}

func (t *Tool) apply(ctx context.Context, operation string, diff *types.SchemaDiff) error {
	if !diff.HasChanges() {
		t.logger.Info("Enum types are up to date", "operation", operation)
		return nil
	}

	if t.preflight != nil {
		if err := t.preflight(ctx, diff); err != nil {
			return fmt.Errorf("failed %s pre-flight check: %w", operation, err)
		}
	}

	statements, err := t.toSQL(diff)
	if err != nil {
		return err
	}

	t.logger.Info("Applying enum changes", "operation", operation,
		"create", len(diff.Create), "alter", len(diff.Alter), "reorder", len(diff.Reorder), "drop", len(diff.Drop))
	return t.executor.Apply(ctx, statements)
}

func (t *Tool) toSQL(diff *types.SchemaDiff) ([]string, error) {
	statements, err := planner.GenerateSchemaDiffSQLStatements(diff, t.plannerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL: %w", err)
	}
	return statements, nil
}

// snapshots builds the declared and database snapshots of one comparison.
// Both carry the database usages; the database snapshot is limited to the
// types in scope.
func (t *Tool) snapshots(ctx context.Context) (declared, database *types.Schema, err error) {
	if t.reader == nil {
		return nil, nil, fmt.Errorf("no database reader configured")
	}

	database, err = t.reader.ReadSnapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read database snapshot: %w", err)
	}

	declared = types.NewSchema(t.declared(), database.Usages())
	database = database.Filter(t.options.InScope(declared.HasDefinition))

	t.logger.Debug("Built snapshots", "declared", len(declared.Definitions()), "database", len(database.Definitions()))
	return declared, database, nil
}

func (t *Tool) declared() []enumdef.Definition {
	var result []enumdef.Definition
	for _, def := range t.definitions.Definitions() {
		if !t.options.IsTypeIgnored(def.Name) {
			result = append(result, def)
		}
	}
	return result
}

func (t *Tool) requireExecutor() error {
	if t.executor == nil {
		return fmt.Errorf("no executor configured")
	}
	return nil
}
