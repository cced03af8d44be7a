package goschema

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/enumeum/pgenum/core/enumdef"
)

// ErrConflictingEnum is returned when the same enum type is declared with
// different labels.
var ErrConflictingEnum = errors.New("enum type declared with different values")

// ParseDir parses all Go files in the given root directory and its
// subdirectories and collects the enum annotations.
//
// Test files and vendor directories are skipped. An enum declared by several
// fields with the same labels is kept once, with the source of its first
// declaration; different labels fail with ErrConflictingEnum.
//
// Example:
//
//	result, err := goschema.ParseDir("./internal/entities")
//	if err != nil {
//		return fmt.Errorf("failed to parse entities: %w", err)
//	}
func ParseDir(rootDir string) (*Database, error) {
	result := &Database{
		Tables: []Table{},
		Fields: []Field{},
		Enums:  []Enum{},
	}

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		database, err := ParseFile(path)
		if err != nil {
			return err
		}
		result.Tables = append(result.Tables, database.Tables...)
		result.Fields = append(result.Fields, database.Fields...)
		result.Enums = append(result.Enums, database.Enums...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := deduplicate(result); err != nil {
		return nil, err
	}
	return result, nil
}

// deduplicate keeps one Enum per name, sorted by name.
func deduplicate(r *Database) error {
	enumMap := make(map[string]Enum)
	for _, enum := range r.Enums {
		existing, ok := enumMap[enum.Name]
		if !ok {
			enumMap[enum.Name] = enum
			continue
		}
		if !slices.Equal(existing.Values, enum.Values) {
			return fmt.Errorf("%w: %s at %s and %s", ErrConflictingEnum, enum.Name, existing.Source, enum.Source)
		}
	}

	r.Enums = make([]Enum, 0, len(enumMap))
	for _, enum := range enumMap {
		r.Enums = append(r.Enums, enum)
	}
	sort.Slice(r.Enums, func(i, j int) bool {
		return r.Enums[i].Name < r.Enums[j].Name
	})
	return nil
}

// LoadInto parses rootDir and registers every enum it declares.
func LoadInto(registry *enumdef.Registry, rootDir string) error {
	result, err := ParseDir(rootDir)
	if err != nil {
		return err
	}
	for _, enum := range result.Enums {
		if err := registry.Register(enum.Source, enumdef.NewDefinition(enum.Name, enum.Values...)); err != nil {
			return err
		}
	}
	return nil
}
