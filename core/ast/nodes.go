package ast

// Node represents any SQL AST node that can be visited by a Visitor.
//
// All AST nodes implement this interface to participate in the visitor pattern.
// The Accept method allows visitors to traverse the AST and generate
// dialect-specific SQL output.
type Node interface {
	// Accept allows visitors to process this node using the visitor pattern
	Accept(visitor Visitor) error
}

// Visitor defines the interface for processing the AST nodes that make up an
// enum migration.
type Visitor interface {
	VisitEnum(node *EnumNode) error
	VisitAlterType(node *AlterTypeNode) error
	VisitDropType(node *DropTypeNode) error
	VisitLockTable(node *LockTableNode) error
	VisitAlterTable(node *AlterTableNode) error
	VisitComment(node *CommentNode) error
}

// EnumNode represents a CREATE TYPE ... AS ENUM statement.
//
// The order of Values is the order of the labels in the created type, which is
// also the order PostgreSQL uses when comparing values of the type.
type EnumNode struct {
	// Name is the name of the enum type
	Name string
	// Values contains the ordered labels of the enum
	Values []string
}

// NewEnum creates a new enum node with the specified name and values.
//
// Example:
//
//	enum := NewEnum("status_type", "started", "processing", "finished")
func NewEnum(name string, values ...string) *EnumNode {
	return &EnumNode{
		Name:   name,
		Values: values,
	}
}

// Accept implements the Node interface for EnumNode.
func (n *EnumNode) Accept(visitor Visitor) error {
	return visitor.VisitEnum(n)
}

// AlterTypeNode represents an ALTER TYPE statement with one operation.
//
// PostgreSQL does not accept several ADD VALUE clauses in one statement, so a
// node carries exactly one TypeOperation; append several labels by emitting
// several nodes.
type AlterTypeNode struct {
	// Name is the name of the type to alter
	Name string
	// Operation is the change applied to the type
	Operation TypeOperation
}

// NewAlterType creates a new ALTER TYPE node with the specified type name and operation.
//
// Example:
//
//	alterType := NewAlterType("status_type", NewAddEnumValueOperation("cancelled").SetIfNotExists())
func NewAlterType(name string, operation TypeOperation) *AlterTypeNode {
	return &AlterTypeNode{
		Name:      name,
		Operation: operation,
	}
}

// Accept implements the Node interface for AlterTypeNode.
func (n *AlterTypeNode) Accept(visitor Visitor) error {
	return visitor.VisitAlterType(n)
}

// DropTypeNode represents a DROP TYPE statement.
type DropTypeNode struct {
	// Name is the name of the type to drop
	Name string
	// IfExists indicates whether to use IF EXISTS clause
	IfExists bool
	// Cascade indicates whether to use CASCADE option
	Cascade bool
}

// NewDropType creates a new DROP TYPE node with the specified type name.
//
// The node is created with IfExists=false and Cascade=false by default.
// Use the fluent API methods to configure these options.
//
// Example:
//
//	dropType := NewDropType("status_type").SetIfExists()
func NewDropType(name string) *DropTypeNode {
	return &DropTypeNode{
		Name: name,
	}
}

// SetIfExists marks the drop to use IF EXISTS clause.
func (n *DropTypeNode) SetIfExists() *DropTypeNode {
	n.IfExists = true
	return n
}

// SetCascade marks the drop to use CASCADE option, which also drops every
// column typed with the enum. Never used by the planner.
func (n *DropTypeNode) SetCascade() *DropTypeNode {
	n.Cascade = true
	return n
}

// Accept implements the Node interface for DropTypeNode.
func (n *DropTypeNode) Accept(visitor Visitor) error {
	return visitor.VisitDropType(n)
}

// LockTableNode represents a LOCK TABLE statement.
//
// It is emitted before a column is cast to a recreated enum type so that
// concurrent writers wait for the enclosing transaction.
type LockTableNode struct {
	// Table is the name of the table to lock
	Table string
	// Mode is an optional lock mode (e.g. "ACCESS EXCLUSIVE"). Empty means the
	// server default, which is ACCESS EXCLUSIVE.
	Mode string
}

// NewLockTable creates a new LOCK TABLE node.
//
// Example:
//
//	lock := NewLockTable("orders")
func NewLockTable(table string) *LockTableNode {
	return &LockTableNode{
		Table: table,
	}
}

// SetMode sets an explicit lock mode.
func (n *LockTableNode) SetMode(mode string) *LockTableNode {
	n.Mode = mode
	return n
}

// Accept implements the Node interface for LockTableNode.
func (n *LockTableNode) Accept(visitor Visitor) error {
	return visitor.VisitLockTable(n)
}

// AlterTableNode represents an ALTER TABLE statement with one operation.
type AlterTableNode struct {
	// Name is the name of the table to alter
	Name string
	// Operation is the change applied to the table
	Operation AlterOperation
}

// NewAlterTable creates a new ALTER TABLE node.
//
// Example:
//
//	alter := NewAlterTable("orders", NewDropDefaultOperation("status"))
func NewAlterTable(name string, operation AlterOperation) *AlterTableNode {
	return &AlterTableNode{
		Name:      name,
		Operation: operation,
	}
}

// Accept implements the Node interface for AlterTableNode.
func (n *AlterTableNode) Accept(visitor Visitor) error {
	return visitor.VisitAlterTable(n)
}

// CommentNode represents a SQL comment line. Migration files use it to label
// groups of statements.
type CommentNode struct {
	// Text is the comment content without the leading "--"
	Text string
}

// NewComment creates a new comment node.
func NewComment(text string) *CommentNode {
	return &CommentNode{
		Text: text,
	}
}

// Accept implements the Node interface for CommentNode.
func (n *CommentNode) Accept(visitor Visitor) error {
	return visitor.VisitComment(n)
}
