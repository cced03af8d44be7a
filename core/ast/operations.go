package ast

// TypeOperation is one change applied by an ALTER TYPE statement.
type TypeOperation interface {
	typeOperation()
}

// AddEnumValueOperation appends a label to an enum type.
type AddEnumValueOperation struct {
	// Value is the label to add
	Value string
	// IfNotExists makes the statement a no-op when the label already exists
	IfNotExists bool
}

// NewAddEnumValueOperation creates an ADD VALUE operation.
func NewAddEnumValueOperation(value string) *AddEnumValueOperation {
	return &AddEnumValueOperation{Value: value}
}

// SetIfNotExists marks the operation to use IF NOT EXISTS.
func (op *AddEnumValueOperation) SetIfNotExists() *AddEnumValueOperation {
	op.IfNotExists = true
	return op
}

func (*AddEnumValueOperation) typeOperation() {}

// RenameTypeOperation renames the type itself.
type RenameTypeOperation struct {
	// NewName is the name the type is renamed to
	NewName string
}

// NewRenameTypeOperation creates a RENAME TO operation.
func NewRenameTypeOperation(newName string) *RenameTypeOperation {
	return &RenameTypeOperation{NewName: newName}
}

func (*RenameTypeOperation) typeOperation() {}

// AlterOperation is one change applied by an ALTER TABLE statement.
type AlterOperation interface {
	alterOperation()
}

// AddColumnOperation adds a column typed with the given type.
type AddColumnOperation struct {
	Column string
	Type   string
}

// NewAddColumnOperation creates an ADD COLUMN operation.
func NewAddColumnOperation(column, typeName string) *AddColumnOperation {
	return &AddColumnOperation{Column: column, Type: typeName}
}

func (*AddColumnOperation) alterOperation() {}

// DropColumnOperation drops a column.
type DropColumnOperation struct {
	Column string
}

// NewDropColumnOperation creates a DROP COLUMN operation.
func NewDropColumnOperation(column string) *DropColumnOperation {
	return &DropColumnOperation{Column: column}
}

func (*DropColumnOperation) alterOperation() {}

// AlterColumnTypeOperation changes the type of a column. When Using is set the
// statement carries a USING clause.
type AlterColumnTypeOperation struct {
	Column string
	Type   string
	Using  string
}

// NewAlterColumnTypeOperation creates an ALTER COLUMN ... TYPE operation.
func NewAlterColumnTypeOperation(column, typeName string) *AlterColumnTypeOperation {
	return &AlterColumnTypeOperation{Column: column, Type: typeName}
}

// SetUsing sets the USING expression.
func (op *AlterColumnTypeOperation) SetUsing(expression string) *AlterColumnTypeOperation {
	op.Using = expression
	return op
}

// SetTextCast sets the USING expression to <column>::text::<type>. Two
// distinct enum types cannot be cast to each other directly, text is the
// bridge. Rows holding a label missing from the target type make the
// statement fail.
func (op *AlterColumnTypeOperation) SetTextCast() *AlterColumnTypeOperation {
	op.Using = op.Column + "::text::" + op.Type
	return op
}

func (*AlterColumnTypeOperation) alterOperation() {}

// DropDefaultOperation removes the default of a column.
type DropDefaultOperation struct {
	Column string
}

// NewDropDefaultOperation creates an ALTER COLUMN ... DROP DEFAULT operation.
func NewDropDefaultOperation(column string) *DropDefaultOperation {
	return &DropDefaultOperation{Column: column}
}

func (*DropDefaultOperation) alterOperation() {}

// SetDefaultOperation sets the default of a column. Expression is emitted
// verbatim.
type SetDefaultOperation struct {
	Column     string
	Expression string
}

// NewSetDefaultOperation creates an ALTER COLUMN ... SET DEFAULT operation.
func NewSetDefaultOperation(column, expression string) *SetDefaultOperation {
	return &SetDefaultOperation{Column: column, Expression: expression}
}

func (*SetDefaultOperation) alterOperation() {}
