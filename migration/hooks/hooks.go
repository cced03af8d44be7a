// Package hooks lets a host schema tool hand enum-typed columns over to pgenum.
//
// The host decides when a column is enum-typed (IsManaged) and calls the
// matching ColumnHandler method instead of emitting its own statement. The
// returned statements replace the host's statement for that column. All calls
// of one migration share a batch.MigrationBatch, so statements creating or
// extending a type shared by several columns are emitted once.
package hooks

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/enumeum/pgenum/config"
	"github.com/enumeum/pgenum/core/enumchanges"
	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/core/renderer"
	"github.com/enumeum/pgenum/migration/batch"
	"github.com/enumeum/pgenum/migration/schemadiff/types"
)

// DefinitionSource provides declared definitions by type name.
// *enumdef.Registry implements it.
type DefinitionSource interface {
	Get(name string) (enumdef.Definition, bool)
}

// ErrUndeclaredType is returned when a column is given a type that has no
// declared definition.
var ErrUndeclaredType = errors.New("enum type is not declared")

type columnRef struct {
	table  string
	column string
}

// ColumnHandler generates the statements for enum-typed column changes.
type ColumnHandler struct {
	definitions DefinitionSource
	database    *types.Schema
	batch       *batch.MigrationBatch
	options     *config.CompareOptions
	logger      *slog.Logger

	// columns added and removed by earlier calls, per type
	added   map[string][]columnRef
	removed map[string][]columnRef
}

// NewColumnHandler creates a handler comparing declared definitions with the
// database snapshot. A nil batch gets a fresh one.
func NewColumnHandler(definitions DefinitionSource, database *types.Schema, b *batch.MigrationBatch) *ColumnHandler {
	if b == nil {
		b = batch.New()
	}
	if database == nil {
		database = types.NewSchema(nil, nil)
	}
	return &ColumnHandler{
		definitions: definitions,
		database:    database,
		batch:       b,
		options:     config.DefaultCompareOptions(),
		logger:      slog.Default(),
		added:       make(map[string][]columnRef),
		removed:     make(map[string][]columnRef),
	}
}

// WithLogger sets the logger for the handler
func (h *ColumnHandler) WithLogger(l *slog.Logger) *ColumnHandler {
	tmp := *h
	tmp.logger = l
	return &tmp
}

// WithCompareOptions sets the type scope. Ignored types are never created,
// extended or dropped; undeclared types are only dropped when managed.
func (h *ColumnHandler) WithCompareOptions(opts *config.CompareOptions) *ColumnHandler {
	tmp := *h
	if opts == nil {
		opts = config.DefaultCompareOptions()
	}
	tmp.options = opts
	return &tmp
}

// Batch returns the batch the handler records statements in.
func (h *ColumnHandler) Batch() *batch.MigrationBatch {
	return h.batch
}

// IsManaged reports whether columns of typeName must be handled by pgenum:
// the type is declared or exists in the database as an enum.
func (h *ColumnHandler) IsManaged(typeName string) bool {
	if _, ok := h.definitions.Get(typeName); ok {
		return true
	}
	return h.database.HasDefinition(typeName)
}

// PersistenceSQL returns the statements bringing typeName to its declared
// labels: CREATE TYPE when it does not exist, ADD VALUE statements when labels
// were appended. Statements already emitted in the batch are left out.
//
// A change that is not a pure append fails with
// enumchanges.ErrReorderingProhibited: such types must be migrated with the
// schema update entry point before columns are changed.
func (h *ColumnHandler) PersistenceSQL(typeName string) ([]string, error) {
	if h.options.IsTypeIgnored(typeName) {
		return nil, nil
	}
	def, ok := h.definitions.Get(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUndeclaredType, typeName)
	}

	var statements []string
	current, exists := h.database.Definition(typeName)
	switch {
	case !exists:
		statements = []string{renderer.CreateType(def)}
	case enumchanges.IsChanged(current.Values, def.Values):
		values, err := enumchanges.ResolveAddingValues(current.Values, def.Values)
		if err == nil && len(current.Values) > len(def.Values) {
			err = enumchanges.ErrReorderingProhibited
		}
		if err != nil {
			return nil, fmt.Errorf("type %s cannot be changed while altering columns, run the schema update first: %w", typeName, err)
		}
		statements = renderer.AddValues(typeName, values)
	}

	statements, err := h.batch.FilterPersistence(statements, typeName)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("Resolved type persistence", "type", typeName, "statements", len(statements))
	return statements, nil
}

// AddColumn returns the statements adding table.column typed with typeName,
// creating or extending the type first. Use it for columns of new tables too.
func (h *ColumnHandler) AddColumn(table, column, typeName string) ([]string, error) {
	statements, err := h.PersistenceSQL(typeName)
	if err != nil {
		return nil, err
	}

	usage, err := h.batch.FilterUsage([]string{renderer.AddColumn(table, column, typeName)}, typeName)
	if err != nil {
		return nil, err
	}
	h.added[typeName] = append(h.added[typeName], columnRef{table, column})
	return append(statements, usage...), nil
}

// ChangeColumn returns the statements for a column whose type is fromType and
// must become toType. When both are the same type only the type itself is
// brought up to date. When the column was the last user of fromType, fromType
// is dropped afterwards. fromType may be empty when the column was not
// enum-typed before. toType may be empty when the column stops being
// enum-typed; the host then emits its own column statement and only the
// release of fromType is returned.
func (h *ColumnHandler) ChangeColumn(table, column, fromType, toType string) ([]string, error) {
	if toType == "" {
		if fromType == "" {
			return nil, nil
		}
		return h.release(table, column, fromType)
	}

	statements, err := h.PersistenceSQL(toType)
	if err != nil {
		return nil, err
	}
	if fromType == toType {
		return statements, nil
	}

	usage, err := h.batch.FilterUsage([]string{renderer.AlterColumnType(table, column, toType)}, toType)
	if err != nil {
		return nil, err
	}
	statements = append(statements, usage...)
	h.added[toType] = append(h.added[toType], columnRef{table, column})

	if fromType == "" {
		return statements, nil
	}
	removal, err := h.release(table, column, fromType)
	if err != nil {
		return nil, err
	}
	return append(statements, removal...), nil
}

// RemoveColumn returns the statements dropping table.column typed with
// typeName. When no other column uses the type any more it is dropped too,
// unless the batch already creates, extends or uses it. Types that are neither
// declared nor managed are left in place.
func (h *ColumnHandler) RemoveColumn(table, column, typeName string) ([]string, error) {
	statements := []string{renderer.DropColumn(table, column)}
	removal, err := h.release(table, column, typeName)
	if err != nil {
		return nil, err
	}
	return append(statements, removal...), nil
}

// release handles table.column no longer using typeName.
func (h *ColumnHandler) release(table, column, typeName string) ([]string, error) {
	h.removed[typeName] = append(h.removed[typeName], columnRef{table, column})

	if !h.inScope(typeName) {
		h.logger.Debug("Leaving type out of scope in place", "type", typeName)
		return nil, nil
	}

	if h.isUsedElsewhereExcept(typeName, table, column) {
		if _, declared := h.definitions.Get(typeName); !declared {
			return nil, nil
		}
		return h.PersistenceSQL(typeName)
	}

	if h.batch.IsPersisted(typeName) || h.batch.IsUsed(typeName) {
		h.logger.Debug("Keeping type queued in the batch", "type", typeName)
		return nil, nil
	}

	h.logger.Debug("Dropping type losing its last column", "type", typeName, "table", table, "column", column)
	return h.batch.FilterRemoval([]string{renderer.DropType(typeName)}, typeName)
}

// inScope reports whether the handler may drop or extend typeName.
func (h *ColumnHandler) inScope(typeName string) bool {
	return h.options.InScope(func(name string) bool {
		_, ok := h.definitions.Get(name)
		return ok
	})(typeName)
}

// isUsedElsewhereExcept combines the database usage of typeName with the
// columns added and removed by earlier calls.
func (h *ColumnHandler) isUsedElsewhereExcept(typeName, table, column string) bool {
	usage := h.database.Usage(typeName)
	// only the column being released was removed so far
	if len(h.added[typeName]) == 0 && len(h.removed[typeName]) <= 1 {
		return usage.IsUsedElsewhereExcept(table, column)
	}

	except := columnRef{table, column}
	removed := h.removed[typeName]
	isRemoved := func(ref columnRef) bool {
		for _, r := range removed {
			if r == ref {
				return true
			}
		}
		return false
	}

	if usage != nil {
		for _, col := range usage.Columns {
			ref := columnRef{col.Table, col.Column}
			if ref != except && !isRemoved(ref) {
				return true
			}
		}
	}
	for _, ref := range h.added[typeName] {
		if ref != except && !isRemoved(ref) {
			return true
		}
	}
	return false
}
