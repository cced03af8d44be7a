// Package planner turns enum schema differences into ordered SQL statements.
//
// Each function returns literal PostgreSQL statements in execution order. The
// reorder statements rename, recreate and cast and must run inside one
// transaction; the create, drop and append statements are safe on their own.
package planner

import (
	"github.com/enumeum/pgenum/core/ast"
	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/core/renderer"
	"github.com/enumeum/pgenum/migration/planner/dialects/postgres"
	"github.com/enumeum/pgenum/migration/schemadiff/types"
)

// Option configures GenerateSchemaDiffSQLStatements.
type Option func(p *postgres.Planner) *postgres.Planner

// WithoutDropping skips the drop change set.
func WithoutDropping() Option {
	return (*postgres.Planner).WithoutDropping
}

// WithoutCreating skips the create change set.
func WithoutCreating() Option {
	return (*postgres.Planner).WithoutCreating
}

// GenerateCreate returns one CREATE TYPE statement per definition.
func GenerateCreate(definitions []enumdef.Definition) []string {
	return mustRender(postgres.New().CreateNodes(definitions))
}

// GenerateDrop returns one DROP TYPE IF EXISTS statement per definition.
func GenerateDrop(definitions []enumdef.Definition) []string {
	return mustRender(postgres.New().DropNodes(definitions))
}

// GenerateAlterAppend returns the ADD VALUE statements of append-only diffs.
// It fails with enumchanges.ErrReorderingProhibited when any diff needs the
// type to be recreated; such diffs must go through GenerateReorder.
func GenerateAlterAppend(diffs []types.DefinitionDiff) ([]string, error) {
	nodes, err := postgres.New().AppendNodes(diffs)
	if err != nil {
		return nil, err
	}
	return renderer.Render(nodes)
}

// GenerateReorder returns the statements recreating each type of diffs with
// its target labels and recasting every column using it.
func GenerateReorder(diffs []types.DefinitionDiff) []string {
	return mustRender(postgres.New().ReorderNodes(diffs))
}

// GenerateSchemaDiffSQLStatements returns the statements of a whole diff:
// drops, then reorders, then appends, then creates.
func GenerateSchemaDiffSQLStatements(diff *types.SchemaDiff, opts ...Option) ([]string, error) {
	p := postgres.New()
	for _, opt := range opts {
		p = opt(p)
	}

	nodes, err := p.GenerateMigrationAST(diff)
	if err != nil {
		return nil, err
	}
	return renderer.Render(nodes)
}

// mustRender renders nodes built by the planner itself. Only malformed nodes
// fail to render, which would be a planner bug.
func mustRender(nodes []ast.Node) []string {
	statements, err := renderer.Render(nodes)
	if err != nil {
		panic(err)
	}
	return statements
}
