// Package renderer builds the primitive SQL statements used by enum migrations.
//
// Every function returns one literal PostgreSQL statement without a trailing
// semicolon. Identifiers are emitted as given; labels are quoted as string
// literals.
package renderer

import (
	"github.com/go-extras/go-kit/must"

	"github.com/enumeum/pgenum/core/ast"
	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/core/renderer/dialects/postgres"
)

// TemporarySuffix is appended to a type name while it is being recreated.
const TemporarySuffix = "__"

// TemporaryName returns the name a type is renamed to during the reorder dance.
func TemporaryName(name string) string {
	return name + TemporarySuffix
}

// Render renders a list of nodes, one statement per node.
func Render(nodes []ast.Node) ([]string, error) {
	r := postgres.New()
	statements := make([]string, 0, len(nodes))
	for _, node := range nodes {
		sql, err := r.Render(node)
		if err != nil {
			return nil, err
		}
		statements = append(statements, sql)
	}
	return statements, nil
}

// render renders nodes the builders construct themselves, which are always valid.
func render(node ast.Node) string {
	return must.Must(postgres.New().Render(node))
}

// CreateType renders CREATE TYPE <name> AS ENUM ('v1', 'v2', ...).
func CreateType(def enumdef.Definition) string {
	return render(ast.NewEnum(def.Name, def.Values...))
}

// AddValue renders ALTER TYPE <name> ADD VALUE IF NOT EXISTS '<value>'.
func AddValue(name, value string) string {
	return render(ast.NewAlterType(name, ast.NewAddEnumValueOperation(value).SetIfNotExists()))
}

// AddValues renders one AddValue statement per label, in order. It returns an
// empty list when there is nothing to add.
func AddValues(name string, values []string) []string {
	statements := make([]string, 0, len(values))
	for _, v := range values {
		statements = append(statements, AddValue(name, v))
	}
	return statements
}

// DropType renders DROP TYPE IF EXISTS <name>.
func DropType(name string) string {
	return render(ast.NewDropType(name).SetIfExists())
}

// RenameToTemporary renders ALTER TYPE <name> RENAME TO <name>__.
func RenameToTemporary(name string) string {
	return render(ast.NewAlterType(name, ast.NewRenameTypeOperation(TemporaryName(name))))
}

// DropTemporary renders DROP TYPE IF EXISTS <name>__.
func DropTemporary(name string) string {
	return DropType(TemporaryName(name))
}

// LockTable renders LOCK TABLE <table>.
func LockTable(table string) string {
	return render(ast.NewLockTable(table))
}

// AlterColumnType renders
// ALTER TABLE <table> ALTER COLUMN <column> TYPE <type> USING <column>::text::<type>.
func AlterColumnType(table, column, typeName string) string {
	return render(ast.NewAlterTable(table, ast.NewAlterColumnTypeOperation(column, typeName).SetTextCast()))
}

// DropColumnDefault renders ALTER TABLE <table> ALTER COLUMN <column> DROP DEFAULT.
func DropColumnDefault(table, column string) string {
	return render(ast.NewAlterTable(table, ast.NewDropDefaultOperation(column)))
}

// SetColumnDefault renders ALTER TABLE <table> ALTER COLUMN <column> SET DEFAULT <expression>.
// The expression is emitted verbatim.
func SetColumnDefault(table, column, expression string) string {
	return render(ast.NewAlterTable(table, ast.NewSetDefaultOperation(column, expression)))
}

// AddColumn renders ALTER TABLE <table> ADD COLUMN <column> <type>.
func AddColumn(table, column, typeName string) string {
	return render(ast.NewAlterTable(table, ast.NewAddColumnOperation(column, typeName)))
}

// DropColumn renders ALTER TABLE <table> DROP COLUMN <column>.
func DropColumn(table, column string) string {
	return render(ast.NewAlterTable(table, ast.NewDropColumnOperation(column)))
}
