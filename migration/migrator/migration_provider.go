package migrator

import (
	"cmp"
	"fmt"
	"io/fs"
	"maps"
	"slices"
)

// MigrationProvider provides a list of migrations
type MigrationProvider interface {
	// Migrations provides a list of migrations sorted by version in ascending order
	Migrations() []*Migration
}

// RegisteredMigrationProvider is a simple in-memory implementation of MigrationProvider
type RegisteredMigrationProvider struct {
	migrations []*Migration
	sorted     bool
}

// NewRegisteredMigrationProvider creates a new in-memory migration provider with the given migrations.
func NewRegisteredMigrationProvider(migrations ...*Migration) *RegisteredMigrationProvider {
	return &RegisteredMigrationProvider{
		migrations: migrations,
	}
}

// Register adds a migration to the provider
func (p *RegisteredMigrationProvider) Register(migration *Migration) {
	p.migrations = append(p.migrations, migration)
	p.sorted = false
}

// Migrations returns the list of migrations sorted by version in ascending order
func (p *RegisteredMigrationProvider) Migrations() []*Migration {
	if !p.sorted {
		sortMigrations(p.migrations)
		p.sorted = true
	}
	return p.migrations
}

// FSMigrationProvider loads migrations from the up/down SQL files of a
// filesystem, such as the directory the generator writes to.
type FSMigrationProvider struct {
	fsys       fs.FS
	migrations []*Migration
}

// NewFSMigrationProvider scans fsys for migration files. Every migration must
// have both an up and a down file.
func NewFSMigrationProvider(fsys fs.FS) (*FSMigrationProvider, error) {
	p := &FSMigrationProvider{fsys: fsys}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

// Migrations returns the loaded migrations sorted by version in ascending order.
func (p *FSMigrationProvider) Migrations() []*Migration {
	return p.migrations
}

func (p *FSMigrationProvider) load() error {
	byVersion := make(map[int]*Migration)

	err := fs.WalkDir(p.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		file, err := ParseMigrationFileName(d.Name())
		if err != nil {
			// not a migration file
			return nil
		}

		migration, ok := byVersion[file.Version]
		if !ok {
			migration = &Migration{Version: file.Version, Description: file.Name}
			byVersion[file.Version] = migration
		}

		switch file.Direction {
		case DirectionUp:
			migration.Up = MigrationFuncFromSQLFilename(path, p.fsys)
		case DirectionDown:
			migration.Down = MigrationFuncFromSQLFilename(path, p.fsys)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan migrations directory: %w", err)
	}

	var incomplete []int
	for version, migration := range byVersion {
		if migration.Up == nil || migration.Down == nil {
			incomplete = append(incomplete, version)
		}
	}
	if len(incomplete) > 0 {
		slices.Sort(incomplete)
		return fmt.Errorf("incomplete migrations found (missing up or down files): %v", incomplete)
	}

	p.migrations = slices.Collect(maps.Values(byVersion))
	sortMigrations(p.migrations)
	return nil
}

func sortMigrations(migrations []*Migration) {
	slices.SortFunc(migrations, func(a, b *Migration) int {
		return cmp.Compare(a.Version, b.Version)
	})
}
