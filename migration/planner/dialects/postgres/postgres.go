// Package postgres plans PostgreSQL enum migrations as AST nodes.
package postgres

import (
	"fmt"

	"github.com/enumeum/pgenum/core/ast"
	"github.com/enumeum/pgenum/core/enumchanges"
	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/core/renderer"
	"github.com/enumeum/pgenum/migration/schemadiff/types"
)

const (
	// DialectName is the PostgreSQL dialect identifier
	DialectName = "postgres"
)

// Planner converts enum schema differences into PostgreSQL AST nodes.
//
// # Usage Example
//
//	planner := postgres.New()
//
//	diff := schemadiff.Compare(database, declared)
//	nodes, err := planner.GenerateMigrationAST(diff)
//	if err != nil {
//		return err
//	}
//	statements, err := renderer.Render(nodes)
//
// # Thread Safety
//
// The Planner holds only its options and is safe for concurrent use across
// multiple goroutines.
type Planner struct {
	withoutDropping bool
	withoutCreating bool
}

func New() *Planner {
	return &Planner{}
}

// WithoutDropping returns a planner that skips the drop change set.
func (p *Planner) WithoutDropping() *Planner {
	tmp := *p
	tmp.withoutDropping = true
	return &tmp
}

// WithoutCreating returns a planner that skips the create change set.
func (p *Planner) WithoutCreating() *Planner {
	tmp := *p
	tmp.withoutCreating = true
	return &tmp
}

// CreateNodes returns one CREATE TYPE node per definition.
func (p *Planner) CreateNodes(definitions []enumdef.Definition) []ast.Node {
	result := make([]ast.Node, 0, len(definitions))
	for _, def := range definitions {
		result = append(result, ast.NewEnum(def.Name, def.Values...))
	}
	return result
}

// DropNodes returns one DROP TYPE IF EXISTS node per definition.
func (p *Planner) DropNodes(definitions []enumdef.Definition) []ast.Node {
	result := make([]ast.Node, 0, len(definitions))
	for _, def := range definitions {
		result = append(result, ast.NewDropType(def.Name).SetIfExists())
	}
	return result
}

// AppendNodes returns one ADD VALUE IF NOT EXISTS node per appended label. It
// fails with enumchanges.ErrReorderingProhibited when a diff is not a pure
// append.
func (p *Planner) AppendNodes(diffs []types.DefinitionDiff) ([]ast.Node, error) {
	var result []ast.Node
	for _, diff := range diffs {
		values, err := enumchanges.ResolveAddingValues(diff.From.Values, diff.Target.Values)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve values appended to type %s: %w", diff.Name(), err)
		}
		for _, v := range values {
			result = append(result, ast.NewAlterType(diff.Name(), ast.NewAddEnumValueOperation(v).SetIfNotExists()))
		}
	}
	return result, nil
}

// ReorderNodes returns the nodes recreating each type with its target labels:
//
//  1. rename the type to <name>__
//  2. create the type under its original name
//  3. for every usage column, in usage order: lock the table, drop the column
//     default if it has one, cast the column through text, restore the default
//  4. drop <name>__
//
// Materialized view columns are not recast; the view must be recreated by
// the host once the type is migrated.
//
// A diff without usage only gets steps 1, 2 and 4.
func (p *Planner) ReorderNodes(diffs []types.DefinitionDiff) []ast.Node {
	var result []ast.Node
	for _, diff := range diffs {
		name := diff.Name()
		result = append(result,
			ast.NewAlterType(name, ast.NewRenameTypeOperation(renderer.TemporaryName(name))),
			ast.NewEnum(name, diff.Target.Values...),
		)
		if diff.Usage != nil {
			for _, col := range diff.Usage.Columns {
				if !col.IsAlterable() {
					continue
				}
				result = p.recastColumn(result, col, name)
			}
		}
		result = append(result, ast.NewDropType(renderer.TemporaryName(name)).SetIfExists())
	}
	return result
}

func (p *Planner) recastColumn(result []ast.Node, col enumdef.UsageColumn, typeName string) []ast.Node {
	result = append(result, ast.NewLockTable(col.Table))
	if col.HasDefault() {
		result = append(result, ast.NewAlterTable(col.Table, ast.NewDropDefaultOperation(col.Column)))
	}
	result = append(result, ast.NewAlterTable(col.Table, ast.NewAlterColumnTypeOperation(col.Column, typeName).SetTextCast()))
	if col.HasDefault() {
		result = append(result, ast.NewAlterTable(col.Table, ast.NewSetDefaultOperation(col.Column, *col.Default)))
	}
	return result
}

// GenerateMigrationAST generates the AST nodes migrating every type of diff.
//
// # Migration Order
//
//  1. Drop removed types (frees names a later step may reuse)
//  2. Recreate reordered types
//  3. Append labels to extended types
//  4. Create new types
//
// The order does not depend on the order of the entries in diff.
//
// # Return Value
//
// Returns the nodes in execution order, or an error when an entry of diff.Alter
// is not a pure append.
func (p *Planner) GenerateMigrationAST(diff *types.SchemaDiff) ([]ast.Node, error) {
	var result []ast.Node

	// 1. Remove enums
	if !p.withoutDropping {
		result = append(result, p.DropNodes(diff.Drop)...)
	}

	// 2. Recreate enums whose existing labels changed
	result = append(result, p.ReorderNodes(diff.Reorder)...)

	// 3. Append labels
	appendNodes, err := p.AppendNodes(diff.Alter)
	if err != nil {
		return nil, err
	}
	result = append(result, appendNodes...)

	// 4. Add new enums
	if !p.withoutCreating {
		result = append(result, p.CreateNodes(diff.Create)...)
	}

	return result, nil
}
