// Package config provides configuration options for the pgenum migration system.
//
// This package provides a simple, programmatic API for configuring schema
// comparison, plus loading of enum definitions declared in YAML or TOML files.
package config

import "slices"

// CompareOptions contains configuration options for schema comparison operations.
// These options control which database enum types take part in a migration.
type CompareOptions struct {
	// IgnoredTypes is a list of enum type names that are never created,
	// altered or dropped, even when they are declared.
	IgnoredTypes []string

	// ManagedTypes is a list of database enum type names owned by the
	// application even when they are no longer declared. A managed type that
	// is missing from the declared definitions is dropped.
	ManagedTypes []string

	// DropUnmanaged makes every database enum type managed. Types created by
	// other tools or extensions are dropped when not declared.
	DropUnmanaged bool
}

// DefaultCompareOptions returns the default comparison options: only declared
// types are managed and nothing is ignored.
func DefaultCompareOptions() *CompareOptions {
	return &CompareOptions{}
}

// WithIgnoredTypes returns a new CompareOptions with the specified ignored types.
//
// Example:
//
//	opts := config.WithIgnoredTypes("legacy_status", "postgis_type")
func WithIgnoredTypes(types ...string) *CompareOptions {
	return &CompareOptions{
		IgnoredTypes: types,
	}
}

// WithManagedTypes returns a new CompareOptions with the specified managed types.
//
// Example:
//
//	// status_type was removed from the definitions and must be dropped
//	opts := config.WithManagedTypes("status_type")
func WithManagedTypes(types ...string) *CompareOptions {
	return &CompareOptions{
		ManagedTypes: types,
	}
}

// IsTypeIgnored checks if the given type name should be ignored.
func (c *CompareOptions) IsTypeIgnored(name string) bool {
	return c != nil && slices.Contains(c.IgnoredTypes, name)
}

// IsTypeManaged reports whether a database type that is not declared still
// belongs to the application.
func (c *CompareOptions) IsTypeManaged(name string) bool {
	if c == nil {
		return false
	}
	return c.DropUnmanaged || slices.Contains(c.ManagedTypes, name)
}

// InScope returns a predicate telling which database types take part in a
// comparison against the declared types: declared types and managed types.
// Ignored types are never in scope.
func (c *CompareOptions) InScope(declared func(name string) bool) func(name string) bool {
	return func(name string) bool {
		if c.IsTypeIgnored(name) {
			return false
		}
		return declared(name) || c.IsTypeManaged(name)
	}
}

// FilterIgnoredTypes removes ignored types from the provided slice
// and returns a new slice containing only non-ignored types.
func (c *CompareOptions) FilterIgnoredTypes(types []string) []string {
	filtered := make([]string, 0)
	for _, t := range types {
		if !c.IsTypeIgnored(t) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}
