// Package compare implements the per-type comparison behind schemadiff.Compare.
package compare

import (
	"sort"

	"github.com/enumeum/pgenum/core/enumchanges"
	"github.com/enumeum/pgenum/core/enumdef"
	difftypes "github.com/enumeum/pgenum/migration/schemadiff/types"
)

// Enums compares the enum types of the current and target snapshots and
// records the differences in diff.
//
// # Comparison Logic
//
// Types are matched by name:
//   - only in target: added to Create
//   - only in current: added to Drop
//   - in both and changed: added to Alter when the target only appends labels,
//     to Reorder otherwise, carrying the usage recorded in the current snapshot
//
// Types present identically in both snapshots produce no entry. All change sets
// are sorted by type name.
func Enums(current, target *difftypes.Schema, diff *difftypes.SchemaDiff) {
	currentDefs := definitionMap(current)
	targetDefs := definitionMap(target)

	added, removed := compareNamedItems(targetDefs, currentDefs)
	sort.Strings(added)
	sort.Strings(removed)

	for _, name := range added {
		diff.Create = append(diff.Create, targetDefs[name])
	}
	for _, name := range removed {
		diff.Drop = append(diff.Drop, currentDefs[name])
	}

	names := make([]string, 0, len(targetDefs))
	for name := range targetDefs {
		if _, ok := currentDefs[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		enumDiff, changed := EnumValues(currentDefs[name], targetDefs[name], current.Usage(name))
		if !changed {
			continue
		}
		if enumDiff.RequiresReordering() {
			diff.Reorder = append(diff.Reorder, enumDiff)
		} else {
			diff.Alter = append(diff.Alter, enumDiff)
		}
	}
}

// EnumValues compares the labels of one type positionally. It reports false
// when the labels are identical.
func EnumValues(current, target enumdef.Definition, usage *enumdef.Usage) (difftypes.DefinitionDiff, bool) {
	if !enumchanges.IsChanged(current.Values, target.Values) {
		return difftypes.DefinitionDiff{}, false
	}
	return difftypes.DefinitionDiff{
		From:   current,
		Target: target,
		Usage:  usage,
	}, true
}

func definitionMap(s *difftypes.Schema) map[string]enumdef.Definition {
	result := make(map[string]enumdef.Definition)
	if s == nil {
		return result
	}
	for _, def := range s.Definitions() {
		result[def.Name] = def
	}
	return result
}

// compareNamedItems returns the names present only in generated (added) and
// only in database (removed).
func compareNamedItems[T, U any](generated map[string]T, database map[string]U) (added, removed []string) {
	for name := range generated {
		if _, exists := database[name]; !exists {
			added = append(added, name)
		}
	}

	for name := range database {
		if _, exists := generated[name]; !exists {
			removed = append(removed, name)
		}
	}

	return added, removed
}
