package migrator_test

import (
	"log/slog"
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"

	"github.com/enumeum/pgenum/migration/migrator"
)

func TestNewMigrator(t *testing.T) {
	c := qt.New(t)

	provider := migrator.NewRegisteredMigrationProvider()
	m := migrator.NewMigrator(nil, provider)
	c.Assert(m.MigrationProvider(), qt.Equals, provider)

	// statement-only migrators get an empty provider
	m = migrator.NewMigrator(nil, nil)
	c.Assert(m.MigrationProvider().Migrations(), qt.HasLen, 0)
}

func TestNewFSMigrator(t *testing.T) {
	c := qt.New(t)

	fsys := fstest.MapFS{
		"0000000001_add_status_type.up.sql":   {Data: []byte("CREATE TYPE status_type AS ENUM ('started');")},
		"0000000001_add_status_type.down.sql": {Data: []byte("DROP TYPE IF EXISTS status_type;")},
	}
	m, err := migrator.NewFSMigrator(nil, fsys)
	c.Assert(err, qt.IsNil)
	c.Assert(m.MigrationProvider().Migrations(), qt.HasLen, 1)

	delete(fsys, "0000000001_add_status_type.down.sql")
	m, err = migrator.NewFSMigrator(nil, fsys)
	c.Assert(err, qt.ErrorMatches, "incomplete migrations found.*")
	c.Assert(m, qt.IsNil)
}

func TestMigrator_WithLogger(t *testing.T) {
	c := qt.New(t)

	m := migrator.NewMigrator(nil, nil)
	m2 := m.WithLogger(slog.Default())

	c.Assert(m2, qt.Not(qt.Equals), m)
	c.Assert(m2.MigrationProvider(), qt.Equals, m.MigrationProvider())
}
