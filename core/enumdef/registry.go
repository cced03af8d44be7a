package enumdef

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDuplicateTypeMapping is returned when two different sources declare
	// the same enum type name.
	ErrDuplicateTypeMapping = errors.New("duplicate enum type mapping")

	// ErrUnsupportedEnumKind is returned when a source declares labels that are
	// not backed by string values.
	ErrUnsupportedEnumKind = errors.New("unsupported enum kind")
)

// Registry collects the definitions an application declares. Each type name may
// only be declared by one source; the source is a free-form label (a Go type
// name, a file path) used in error messages.
type Registry struct {
	definitions map[string]Definition
	sources     map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]Definition),
		sources:     make(map[string]string),
	}
}

// Register adds a definition declared by source. Registering the same name
// again from the same source replaces the previous definition; registering it
// from a different source fails with ErrDuplicateTypeMapping.
func (r *Registry) Register(source string, def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("enum declared by %q has no type name", source)
	}
	if existing, ok := r.sources[def.Name]; ok && existing != source {
		return fmt.Errorf("%w: type %q is declared by both %q and %q", ErrDuplicateTypeMapping, def.Name, existing, source)
	}
	r.definitions[def.Name] = NewDefinition(def.Name, def.Values...)
	r.sources[def.Name] = source
	return nil
}

// RegisterValues registers a Go string-backed enumeration. The type parameter
// enforces the string backing at compile time.
//
// # Example Usage
//
//	type Status string
//	const (
//		StatusStarted  Status = "started"
//		StatusFinished Status = "finished"
//	)
//	err := enumdef.RegisterValues(registry, "app.Status", "status_type", StatusStarted, StatusFinished)
func RegisterValues[T ~string](r *Registry, source, name string, values ...T) error {
	labels := make([]string, len(values))
	for i, v := range values {
		labels[i] = string(v)
	}
	return r.Register(source, NewDefinition(name, labels...))
}

// RegisterAny registers labels of unknown type, as decoded from configuration
// files. Every label must be a string, otherwise ErrUnsupportedEnumKind is
// returned and nothing is registered.
func (r *Registry) RegisterAny(source, name string, values []any) error {
	labels := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: enum %q declared by %q has a %T label at position %d, only string-backed enums are supported",
				ErrUnsupportedEnumKind, name, source, v, i)
		}
		labels[i] = s
	}
	return r.Register(source, NewDefinition(name, labels...))
}

// Get returns the definition registered for name.
func (r *Registry) Get(name string) (Definition, bool) {
	def, ok := r.definitions[name]
	return def, ok
}

// Source returns the source that declared name.
func (r *Registry) Source(name string) (string, bool) {
	src, ok := r.sources[name]
	return src, ok
}

// Has reports whether a definition is registered for name.
func (r *Registry) Has(name string) bool {
	_, ok := r.definitions[name]
	return ok
}

// Definitions returns all registered definitions sorted by name.
func (r *Registry) Definitions() []Definition {
	result := make([]Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.definitions)
}
