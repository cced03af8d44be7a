// Package enumdef holds the data model shared by every other package: the
// desired state of an enum type (Definition), its introspected state
// (DatabaseDefinition) and the columns currently typed with it (Usage).
package enumdef

import "slices"

// Definition is the desired state of one PostgreSQL enum type: its SQL-visible
// name and its ordered labels. The label order is the order used in
// CREATE TYPE ... AS ENUM (...) and therefore the comparison order of the type.
//
// Definitions are treated as immutable; NewDefinition copies the values it is given.
type Definition struct {
	Name   string   `json:"name" yaml:"name" toml:"name"`
	Values []string `json:"values" yaml:"values" toml:"values"`
}

// NewDefinition creates a definition owning a private copy of values.
func NewDefinition(name string, values ...string) Definition {
	return Definition{
		Name:   name,
		Values: slices.Clone(values),
	}
}

// DatabaseDefinition has the same shape as Definition but represents the actual
// label order of a type in the database, as grouped from pg_enum rows sorted by
// enumsortorder.
type DatabaseDefinition = Definition

// Equal reports whether both definitions have the same name and the same labels
// in the same order.
func (d Definition) Equal(other Definition) bool {
	return d.Name == other.Name && slices.Equal(d.Values, other.Values)
}

// UsageColumn is one column typed with an enum type.
type UsageColumn struct {
	// Name is the enum type name.
	Name   string `json:"name" yaml:"name"`
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
	// Default is the literal default expression attached to the column,
	// e.g. 'started'::status_type, or nil when the column has no default.
	Default *string `json:"default,omitempty" yaml:"default,omitempty"`
	// MaterializedView marks a column of a materialized view. Such columns
	// keep the type in use but cannot be altered.
	MaterializedView bool `json:"materialized_view,omitempty" yaml:"materialized_view,omitempty"`
}

// HasDefault reports whether the column carries a default expression.
func (c UsageColumn) HasDefault() bool {
	return c.Default != nil
}

// IsAlterable reports whether the column can be locked and recast.
func (c UsageColumn) IsAlterable() bool {
	return !c.MaterializedView
}

// Usage lists every column currently typed with the enum type Name, in the
// order the columns were introspected.
type Usage struct {
	Name    string        `json:"name" yaml:"name"`
	Columns []UsageColumn `json:"columns" yaml:"columns"`
}

// NewUsage creates a usage for the named type. Columns whose (table, column)
// pair was already added are skipped.
func NewUsage(name string, columns ...UsageColumn) *Usage {
	u := &Usage{Name: name}
	for _, col := range columns {
		u.AddColumn(col)
	}
	return u
}

// AddColumn appends a column unless the same (table, column) pair is already
// part of the usage. It reports whether the column was added.
func (u *Usage) AddColumn(col UsageColumn) bool {
	if u.Has(col.Table, col.Column) {
		return false
	}
	col.Name = u.Name
	u.Columns = append(u.Columns, col)
	return true
}

// Has reports whether table.column is one of the usage columns.
func (u *Usage) Has(table, column string) bool {
	if u == nil {
		return false
	}
	for _, col := range u.Columns {
		if col.Table == table && col.Column == column {
			return true
		}
	}
	return false
}

// IsUsed reports whether at least one column uses the type.
func (u *Usage) IsUsed() bool {
	return u != nil && len(u.Columns) > 0
}

// IsUsedElsewhereExcept reports whether any column other than table.column is
// typed with the enum type.
func (u *Usage) IsUsedElsewhereExcept(table, column string) bool {
	if u == nil {
		return false
	}
	for _, col := range u.Columns {
		if col.Table != table || col.Column != column {
			return true
		}
	}
	return false
}

// StringPtr returns a pointer to s. It is a convenience for building
// UsageColumn defaults.
func StringPtr(s string) *string {
	return &s
}
