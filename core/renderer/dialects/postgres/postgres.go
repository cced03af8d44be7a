// Package postgres renders enum migration AST nodes as PostgreSQL statements.
package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/enumeum/pgenum/core/ast"
)

var (
	_ ast.Visitor = (*Renderer)(nil)
)

// Renderer provides PostgreSQL-specific SQL rendering. Each rendered node
// produces one statement without a trailing semicolon.
type Renderer struct {
	w strings.Builder
}

// New creates a new PostgreSQL renderer
func New() *Renderer {
	return &Renderer{}
}

// Dialect returns the database dialect
func (r *Renderer) Dialect() string {
	return "postgres"
}

// Reset clears the rendered output
func (r *Renderer) Reset() {
	r.w.Reset()
}

// Output returns the current generated SQL output
func (r *Renderer) Output() string {
	return r.w.String()
}

// Render renders an AST node to SQL and returns the result
func (r *Renderer) Render(node ast.Node) (string, error) {
	r.Reset()
	if err := node.Accept(r); err != nil {
		return "", err
	}
	return r.Output(), nil
}

// VisitEnum renders CREATE TYPE ... AS ENUM with labels in their declared order.
func (r *Renderer) VisitEnum(node *ast.EnumNode) error {
	if node.Name == "" {
		return fmt.Errorf("enum name is required")
	}
	values := make([]string, len(node.Values))
	for i, v := range node.Values {
		values[i] = quoteLiteral(v)
	}
	fmt.Fprintf(&r.w, "CREATE TYPE %s AS ENUM (%s)", node.Name, strings.Join(values, ", "))
	return nil
}

// VisitAlterType renders ALTER TYPE statements
func (r *Renderer) VisitAlterType(node *ast.AlterTypeNode) error {
	switch op := node.Operation.(type) {
	case *ast.AddEnumValueOperation:
		r.w.WriteString("ALTER TYPE " + node.Name + " ADD VALUE ")
		if op.IfNotExists {
			r.w.WriteString("IF NOT EXISTS ")
		}
		r.w.WriteString(quoteLiteral(op.Value))
	case *ast.RenameTypeOperation:
		fmt.Fprintf(&r.w, "ALTER TYPE %s RENAME TO %s", node.Name, op.NewName)
	default:
		return fmt.Errorf("unsupported alter type operation %T for type %s", node.Operation, node.Name)
	}
	return nil
}

// VisitDropType renders DROP TYPE statements
func (r *Renderer) VisitDropType(node *ast.DropTypeNode) error {
	r.w.WriteString("DROP TYPE ")
	if node.IfExists {
		r.w.WriteString("IF EXISTS ")
	}
	r.w.WriteString(node.Name)
	if node.Cascade {
		r.w.WriteString(" CASCADE")
	}
	return nil
}

// VisitLockTable renders LOCK TABLE statements
func (r *Renderer) VisitLockTable(node *ast.LockTableNode) error {
	r.w.WriteString("LOCK TABLE " + node.Table)
	if node.Mode != "" {
		r.w.WriteString(" IN " + node.Mode + " MODE")
	}
	return nil
}

// VisitAlterTable renders ALTER TABLE statements
func (r *Renderer) VisitAlterTable(node *ast.AlterTableNode) error {
	switch op := node.Operation.(type) {
	case *ast.AddColumnOperation:
		fmt.Fprintf(&r.w, "ALTER TABLE %s ADD COLUMN %s %s", node.Name, op.Column, op.Type)
	case *ast.DropColumnOperation:
		fmt.Fprintf(&r.w, "ALTER TABLE %s DROP COLUMN %s", node.Name, op.Column)
	case *ast.AlterColumnTypeOperation:
		fmt.Fprintf(&r.w, "ALTER TABLE %s ALTER COLUMN %s TYPE %s", node.Name, op.Column, op.Type)
		if op.Using != "" {
			r.w.WriteString(" USING " + op.Using)
		}
	case *ast.DropDefaultOperation:
		fmt.Fprintf(&r.w, "ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", node.Name, op.Column)
	case *ast.SetDefaultOperation:
		fmt.Fprintf(&r.w, "ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", node.Name, op.Column, op.Expression)
	default:
		return fmt.Errorf("unsupported alter table operation %T for table %s", node.Operation, node.Name)
	}
	return nil
}

// VisitComment renders a single-line SQL comment
func (r *Renderer) VisitComment(node *ast.CommentNode) error {
	for i, line := range strings.Split(node.Text, "\n") {
		if i > 0 {
			r.w.WriteString("\n")
		}
		r.w.WriteString("-- " + line)
	}
	return nil
}

// quoteLiteral quotes an enum label. Labels containing backslashes get the
// E'' form, which pq prefixes with a space.
func quoteLiteral(s string) string {
	return strings.TrimSpace(pq.QuoteLiteral(s))
}
