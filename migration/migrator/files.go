package migrator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// versionLayout formats migration versions as sortable timestamps
const versionLayout = "20060102150405"

var (
	migrationFileRe   = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)
	nonIdentifierRune = regexp.MustCompile(`[^a-z0-9]+`)
	titleCaser        = cases.Title(language.English)
)

// MigrationFile describes a migration file name
type MigrationFile struct {
	Version   int
	Name      string // human readable description, e.g. "Add Status Type"
	Direction string // up or down
}

// ParseMigrationFileName parses NNNN_description.up.sql and
// NNNN_description.down.sql file names
func ParseMigrationFileName(filename string) (*MigrationFile, error) {
	m := migrationFileRe.FindStringSubmatch(filename)
	if m == nil {
		return nil, fmt.Errorf("invalid migration file name: %s", filename)
	}

	version, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("invalid migration version in %s: %w", filename, err)
	}

	return &MigrationFile{
		Version:   version,
		Name:      titleCaser.String(strings.ReplaceAll(m[2], "_", " ")),
		Direction: m[3],
	}, nil
}

// GenerateMigrationFileName builds the file name of one direction of a
// migration. The description is lower-cased and reduced to [a-z0-9_].
func GenerateMigrationFileName(version int, description, direction string) string {
	name := nonIdentifierRune.ReplaceAllString(strings.ToLower(description), "_")
	name = strings.Trim(name, "_")
	if name == "" {
		name = "migration"
	}
	return fmt.Sprintf("%d_%s.%s.sql", version, name, direction)
}

// GetNextMigrationVersion returns the current UTC time as a migration version
func GetNextMigrationVersion() int {
	return versionFromTime(time.Now().UTC())
}

func versionFromTime(t time.Time) int {
	version, _ := strconv.Atoi(t.Format(versionLayout))
	return version
}
