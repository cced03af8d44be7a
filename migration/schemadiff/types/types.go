package types

import (
	"sort"

	"github.com/enumeum/pgenum/core/enumchanges"
	"github.com/enumeum/pgenum/core/enumdef"
)

// Schema is a snapshot of enum types and the columns using them, keyed by
// type name. A snapshot is built either from declared definitions or from
// database introspection; usages always come from the database.
type Schema struct {
	definitions map[string]enumdef.Definition
	usages      map[string]*enumdef.Usage
}

// NewSchema creates a snapshot. Later definitions with the same name replace
// earlier ones.
func NewSchema(definitions []enumdef.Definition, usages []*enumdef.Usage) *Schema {
	s := &Schema{
		definitions: make(map[string]enumdef.Definition, len(definitions)),
		usages:      make(map[string]*enumdef.Usage, len(usages)),
	}
	for _, def := range definitions {
		s.definitions[def.Name] = def
	}
	for _, usage := range usages {
		if usage != nil {
			s.usages[usage.Name] = usage
		}
	}
	return s
}

// Definition returns the definition named name.
func (s *Schema) Definition(name string) (enumdef.Definition, bool) {
	def, ok := s.definitions[name]
	return def, ok
}

// HasDefinition reports whether the snapshot contains a type named name.
func (s *Schema) HasDefinition(name string) bool {
	_, ok := s.definitions[name]
	return ok
}

// Usage returns the usage of the type named name, or nil when no column uses it.
func (s *Schema) Usage(name string) *enumdef.Usage {
	if s == nil {
		return nil
	}
	return s.usages[name]
}

// Definitions returns all definitions sorted by name.
func (s *Schema) Definitions() []enumdef.Definition {
	if s == nil {
		return nil
	}
	result := make([]enumdef.Definition, 0, len(s.definitions))
	for _, def := range s.definitions {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Usages returns all usages sorted by type name.
func (s *Schema) Usages() []*enumdef.Usage {
	result := make([]*enumdef.Usage, 0, len(s.usages))
	for _, usage := range s.usages {
		result = append(result, usage)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Filter returns a snapshot containing only the definitions for which keep
// returns true. Usages are kept as they are.
func (s *Schema) Filter(keep func(name string) bool) *Schema {
	out := &Schema{
		definitions: make(map[string]enumdef.Definition, len(s.definitions)),
		usages:      s.usages,
	}
	for name, def := range s.definitions {
		if keep(name) {
			out.definitions[name] = def
		}
	}
	return out
}

// WithUsages returns a copy of the snapshot whose usages are replaced by the
// given ones.
func (s *Schema) WithUsages(usages []*enumdef.Usage) *Schema {
	return NewSchema(s.Definitions(), usages)
}

// DefinitionDiff describes one enum type whose labels differ between the
// current and the target state.
//
// Usage lists the columns typed with the enum in the current state; it is nil
// when the type is unused.
type DefinitionDiff struct {
	From   enumdef.Definition `json:"from" yaml:"from"`
	Target enumdef.Definition `json:"target" yaml:"target"`
	Usage  *enumdef.Usage     `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// Name returns the type name of the diff.
func (d DefinitionDiff) Name() string {
	return d.Target.Name
}

// RequiresReordering reports whether the change is anything other than a pure
// append and therefore needs the type to be recreated.
func (d DefinitionDiff) RequiresReordering() bool {
	return enumchanges.IsReorderingRequired(d.From.Values, d.Target.Values)
}

// RemovedValues returns, in current order, the labels that no longer exist in
// the target definition.
func (d DefinitionDiff) RemovedValues() []string {
	target := make(map[string]struct{}, len(d.Target.Values))
	for _, v := range d.Target.Values {
		target[v] = struct{}{}
	}
	var removed []string
	for _, v := range d.From.Values {
		if _, ok := target[v]; !ok {
			removed = append(removed, v)
		}
	}
	return removed
}

// SchemaDiff represents the differences between two enum snapshots.
//
// The diff is organized by the kind of migration each type needs:
//   - Create: types present only in the target state
//   - Alter: types whose labels were only appended to
//   - Reorder: types that must be recreated (removed, swapped or inserted labels)
//   - Drop: types present only in the current state
//
// # Example Usage
//
//	diff := schemadiff.Compare(current, target)
//	if diff.HasChanges() {
//		fmt.Printf("Found %d types to create\n", len(diff.Create))
//	}
type SchemaDiff struct {
	// Create contains definitions of types that exist in the target snapshot
	// but not in the current one
	Create []enumdef.Definition `json:"create" yaml:"create"`

	// Alter contains types that exist in both snapshots and whose target labels
	// only extend the current ones
	Alter []DefinitionDiff `json:"alter" yaml:"alter"`

	// Reorder contains types that exist in both snapshots and whose existing
	// labels moved, disappeared or got something inserted before them
	Reorder []DefinitionDiff `json:"reorder" yaml:"reorder"`

	// Drop contains definitions of types that exist in the current snapshot
	// but not in the target one
	Drop []enumdef.Definition `json:"drop" yaml:"drop"`
}

// HasChanges returns true if the diff contains any change.
func (d *SchemaDiff) HasChanges() bool {
	return len(d.Create) > 0 ||
		len(d.Alter) > 0 ||
		len(d.Reorder) > 0 ||
		len(d.Drop) > 0
}

// AlterChangeSet returns the append-only and the reorder alterations
// together, sorted by type name.
func (d *SchemaDiff) AlterChangeSet() []DefinitionDiff {
	result := make([]DefinitionDiff, 0, len(d.Alter)+len(d.Reorder))
	result = append(result, d.Alter...)
	result = append(result, d.Reorder...)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}
