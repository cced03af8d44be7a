package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/enumeum/pgenum/core/enumdef"
)

// ErrInvalidMappingLocation is returned when a definition path does not exist.
var ErrInvalidMappingLocation = errors.New("invalid mapping location")

// definitionFile is the on-disk layout of a definition file:
//
//	enums:
//	  - name: status_type
//	    values: [started, processing, finished]
type definitionFile struct {
	Enums []definitionEntry `yaml:"enums" toml:"enums"`
}

type definitionEntry struct {
	Name   string `yaml:"name" toml:"name"`
	Values []any  `yaml:"values" toml:"values"`
}

// LoadDefinitions loads enum definitions from the given files or directories
// into a new registry. Directories are scanned recursively for .yaml, .yml and
// .toml files; other files are skipped.
//
// Errors:
//   - ErrInvalidMappingLocation when a path does not exist
//   - enumdef.ErrUnsupportedEnumKind when a label is not a string
//   - enumdef.ErrDuplicateTypeMapping when two files declare the same type
func LoadDefinitions(paths ...string) (*enumdef.Registry, error) {
	registry := enumdef.NewRegistry()
	for _, path := range paths {
		if err := LoadDefinitionsInto(registry, path); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// LoadDefinitionsInto loads the definitions found at path into registry.
func LoadDefinitionsInto(registry *enumdef.Registry, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: path %q does not exist", ErrInvalidMappingLocation, path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat definitions path: %w", err)
	}

	if !info.IsDir() {
		return loadDefinitionFile(registry, path)
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isDefinitionFile(p) {
			return nil
		}
		return loadDefinitionFile(registry, p)
	})
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".toml":
		return true
	default:
		return false
	}
}

func loadDefinitionFile(registry *enumdef.Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read definitions file: %w", err)
	}

	file, err := decodeDefinitions(path, data)
	if err != nil {
		return err
	}

	for _, entry := range file.Enums {
		if err := registry.RegisterAny(path, entry.Name, entry.Values); err != nil {
			return err
		}
	}
	return nil
}

func decodeDefinitions(path string, data []byte) (*definitionFile, error) {
	var file definitionFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &file); err != nil {
			return nil, fmt.Errorf("failed to decode TOML definitions %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to decode YAML definitions %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported definitions file format: %s", path)
	}
	return &file, nil
}
