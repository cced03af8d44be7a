package migrator

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestParseMigrationFileName(t *testing.T) {
	tests := []struct {
		filename string
		expected *MigrationFile
		wantErr  bool
	}{
		{
			filename: "20240101120000_add_status_type.up.sql",
			expected: &MigrationFile{Version: 20240101120000, Name: "Add Status Type", Direction: DirectionUp},
		},
		{
			filename: "0000000002_reorder_status_type.down.sql",
			expected: &MigrationFile{Version: 2, Name: "Reorder Status Type", Direction: DirectionDown},
		},
		{filename: "invalid_filename.sql", wantErr: true},
		{filename: "0001_add_type.sideways.sql", wantErr: true},
		{filename: "0001_.up.sql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			c := qt.New(t)

			file, err := ParseMigrationFileName(tt.filename)
			if tt.wantErr {
				c.Assert(err, qt.ErrorMatches, "invalid migration file name: .*")
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(file, qt.DeepEquals, tt.expected)
		})
	}
}

func TestGenerateMigrationFileName(t *testing.T) {
	c := qt.New(t)

	c.Assert(GenerateMigrationFileName(20240101120000, "Add Status Type", DirectionUp), qt.Equals,
		"20240101120000_add_status_type.up.sql")
	c.Assert(GenerateMigrationFileName(1, "  reorder: status-type!  ", DirectionDown), qt.Equals,
		"1_reorder_status_type.down.sql")
	c.Assert(GenerateMigrationFileName(1, "???", DirectionUp), qt.Equals, "1_migration.up.sql")

	// generated names parse back
	file, err := ParseMigrationFileName(GenerateMigrationFileName(7, "Add Status Type", DirectionDown))
	c.Assert(err, qt.IsNil)
	c.Assert(file.Name, qt.Equals, "Add Status Type")
}

func TestVersionFromTime(t *testing.T) {
	c := qt.New(t)

	c.Assert(versionFromTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), qt.Equals, 20240102030405)
	c.Assert(GetNextMigrationVersion() > 20240000000000, qt.IsTrue)
}
