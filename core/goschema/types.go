// Package goschema reads enum definitions declared with migrator annotations
// in Go source files.
//
// A struct marked as a table declares its enum-typed columns with field
// annotations. A field typed ENUM gets a type named after its struct and field:
//
//	//migrator:schema:table name="entity"
//	type Entity struct {
//	    //migrator:schema:field name="status" type="ENUM" enum="started,processing,finished"
//	    Status string
//	}
//
// declares enum_entity_status. Any other type name together with enum values
// declares that type, so several columns can share it:
//
//	//migrator:schema:field name="status" type="status_type" enum="started,processing,finished"
//	Status string
package goschema

// Database holds the enum-related annotations found in a set of Go files.
type Database struct {
	Tables []Table
	Fields []Field
	Enums  []Enum
}

// Table is a struct annotated with //migrator:schema:table.
type Table struct {
	StructName string // Name of the Go struct
	Name       string // Database table name
}

// Field is a struct field annotated with //migrator:schema:field.
type Field struct {
	StructName string   // Name of the Go struct this field belongs to
	FieldName  string   // Name of the Go struct field
	Name       string   // Database column name
	Type       string   // Database column type, the enum type name for enum fields
	Default    string   // Default value for the column
	Enum       []string // Enum values for enum fields
}

// IsEnum reports whether the field declares enum values.
func (f Field) IsEnum() bool {
	return len(f.Enum) > 0
}

// Enum is an enum type declared by one or more fields.
type Enum struct {
	Name   string   // The enum type name (e.g., "enum_entity_status")
	Values []string // The labels in declaration order
	Source string   // file:line of the first declaring field
}
