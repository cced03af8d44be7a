package generator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestFormatMigrationSQL(t *testing.T) {
	c := qt.New(t)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	c.Assert(formatMigrationSQL([]string{"CREATE TYPE kind_type AS ENUM ('a')"}, "up", at), qt.Equals,
		"-- Migration generated from enum differences\n"+
			"-- Generated on: 2024-01-02T03:04:05Z\n"+
			"-- Direction: UP\n\n"+
			"CREATE TYPE kind_type AS ENUM ('a');\n")

	c.Assert(formatMigrationSQL(nil, "down", at), qt.Equals,
		"-- Migration rollback\n"+
			"-- Generated on: 2024-01-02T03:04:05Z\n"+
			"-- Direction: DOWN\n\n"+
			"-- No rollback operations needed\n")
}

func TestCreateMigrationFiles_BumpsTakenVersion(t *testing.T) {
	c := qt.New(t)

	dir := c.TempDir()
	taken := filepath.Join(dir, "100_add_kind_type.up.sql")
	c.Assert(os.WriteFile(taken, []byte("CREATE TYPE kind_type AS ENUM ('a');\n"), 0o644), qt.IsNil)

	files, err := createMigrationFiles(dir, 100, "add kind type", "up", "down")
	c.Assert(err, qt.IsNil)
	c.Assert(files.Version, qt.Equals, 101)
	c.Assert(files.UpFile, qt.Equals, filepath.Join(dir, "101_add_kind_type.up.sql"))
	c.Assert(files.DownFile, qt.Equals, filepath.Join(dir, "101_add_kind_type.down.sql"))

	content, err := os.ReadFile(files.DownFile)
	c.Assert(err, qt.IsNil)
	c.Assert(string(content), qt.Equals, "down")
}
