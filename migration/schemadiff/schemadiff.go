// Package schemadiff compares two snapshots of enum types and reports which
// types must be created, altered in place, recreated or dropped.
package schemadiff

import (
	"github.com/enumeum/pgenum/config"
	"github.com/enumeum/pgenum/migration/schemadiff/internal/compare"
	difftypes "github.com/enumeum/pgenum/migration/schemadiff/types"
)

// Compare performs the comparison between the current and the target snapshot.
// Every type of both snapshots takes part; comparing a snapshot to itself
// yields an empty diff.
//
// For a forward migration current is the database and target the declared
// definitions. Swapping the arguments produces the rollback diff.
func Compare(current, target *difftypes.Schema) *difftypes.SchemaDiff {
	return CompareWithOptions(current, target, nil)
}

// CompareWithOptions performs the comparison with custom configuration options.
//
// Parameters:
//   - current: the state the migration starts from
//   - target: the state the migration must reach
//   - opts: comparison options (can be nil, which compares every type)
//
// Types listed in opts.IgnoredTypes are removed from both snapshots before
// comparing, so they are never created, altered or dropped.
//
// Example usage:
//
//	opts := config.WithIgnoredTypes("legacy_status")
//	diff := schemadiff.CompareWithOptions(database, declared, opts)
func CompareWithOptions(current, target *difftypes.Schema, opts *config.CompareOptions) *difftypes.SchemaDiff {
	if opts != nil && len(opts.IgnoredTypes) > 0 {
		keep := func(name string) bool { return !opts.IsTypeIgnored(name) }
		current = filter(current, keep)
		target = filter(target, keep)
	}

	diff := &difftypes.SchemaDiff{}
	compare.Enums(current, target, diff)
	return diff
}

func filter(s *difftypes.Schema, keep func(string) bool) *difftypes.Schema {
	if s == nil {
		return nil
	}
	return s.Filter(keep)
}
