// Package generator writes enum migrations as versioned up/down SQL files.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/enumeum/pgenum/config"
	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/dbschema"
	"github.com/enumeum/pgenum/migration/enumtool"
	"github.com/enumeum/pgenum/migration/migrator"
)

// GenerateMigrationOptions contains options for generating migration files
type GenerateMigrationOptions struct {
	// DefinitionPaths lists YAML/TOML definition files or directories.
	// Ignored when Definitions is set.
	DefinitionPaths []string
	// Definitions are the declared enum definitions
	Definitions *enumdef.Registry

	// DatabaseURL is used when neither Reader nor DBConn is set
	DatabaseURL string
	// Schema is the database schema to introspect, empty for the current one
	Schema string
	// DBConn is an existing connection to read the enum snapshot from
	DBConn *dbschema.DatabaseConnection
	// Reader overrides the snapshot source
	Reader enumtool.SnapshotReader

	// MigrationName is the description part of the file names
	MigrationName string
	// OutputDir is where the files are written
	OutputDir string
	// CompareOptions selects the database types taking part in the comparison
	CompareOptions *config.CompareOptions
}

// MigrationFiles represents the generated migration files
type MigrationFiles struct {
	UpFile   string // Path to the up migration file
	DownFile string // Path to the down migration file
	Version  int    // Migration version (timestamp)
}

// GenerateMigration compares the declared definitions with the database and
// writes the update statements to an up file and the rollback statements to a
// down file. It returns nil files when there is nothing to migrate.
func GenerateMigration(ctx context.Context, opts GenerateMigrationOptions) (*MigrationFiles, error) {
	if opts.MigrationName == "" {
		opts.MigrationName = "enum_migration"
	}

	definitions := opts.Definitions
	if definitions == nil {
		var err error
		definitions, err = config.LoadDefinitions(opts.DefinitionPaths...)
		if err != nil {
			return nil, fmt.Errorf("error loading enum definitions: %w", err)
		}
	}

	reader := opts.Reader
	if reader == nil {
		conn := opts.DBConn
		if conn == nil {
			var err error
			conn, err = dbschema.ConnectToDatabase(ctx, opts.DatabaseURL, opts.Schema)
			if err != nil {
				return nil, fmt.Errorf("error connecting to database: %w", err)
			}
			defer conn.Close()
		}
		reader = conn.Reader()
	}

	tool := enumtool.New(definitions, reader, nil)
	if opts.CompareOptions != nil {
		tool = tool.WithCompareOptions(opts.CompareOptions)
	}

	up, down, err := tool.MigrationSQL(ctx)
	if err != nil {
		return nil, fmt.Errorf("error generating migration SQL: %w", err)
	}
	if len(up) == 0 {
		slog.Info("No enum changes found, no migration generated")
		return nil, nil
	}

	version := migrator.GetNextMigrationVersion()
	slog.Debug("Generated migration version", "version", version)

	now := time.Now()
	files, err := createMigrationFiles(opts.OutputDir, version, opts.MigrationName,
		formatMigrationSQL(up, migrator.DirectionUp, now), formatMigrationSQL(down, migrator.DirectionDown, now))
	if err != nil {
		return nil, fmt.Errorf("error creating migration files: %w", err)
	}
	return files, nil
}

// GenerateEmptyMigrationOptions contains options for generating skeleton
// migration files
type GenerateEmptyMigrationOptions struct {
	MigrationName string
	OutputDir     string
}

// GenerateEmptyMigration writes up and down files holding only a header, to
// be filled in by hand
func GenerateEmptyMigration(opts GenerateEmptyMigrationOptions) (*MigrationFiles, error) {
	if opts.MigrationName == "" {
		return nil, fmt.Errorf("migration name is required")
	}

	now := time.Now()
	files, err := createMigrationFiles(opts.OutputDir, migrator.GetNextMigrationVersion(), opts.MigrationName,
		emptyMigrationSQL(opts.MigrationName, migrator.DirectionUp, now),
		emptyMigrationSQL(opts.MigrationName, migrator.DirectionDown, now))
	if err != nil {
		return nil, fmt.Errorf("error creating migration files: %w", err)
	}
	return files, nil
}

func emptyMigrationSQL(name, direction string, generatedAt time.Time) string {
	return fmt.Sprintf("-- Migration: %s\n-- Generated on: %s\n-- Direction: %s\n\n-- Add your SQL here\n",
		name, generatedAt.Format(time.RFC3339), strings.ToUpper(direction))
}

// formatMigrationSQL renders statements as a migration file body
func formatMigrationSQL(statements []string, direction string, generatedAt time.Time) string {
	title := "-- Migration generated from enum differences"
	if direction == migrator.DirectionDown {
		title = "-- Migration rollback"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n-- Generated on: %s\n-- Direction: %s\n\n", title,
		generatedAt.Format(time.RFC3339), strings.ToUpper(direction))

	if len(statements) == 0 {
		sb.WriteString("-- No rollback operations needed\n")
		return sb.String()
	}
	for _, stmt := range statements {
		sb.WriteString(stmt)
		sb.WriteString(";\n")
	}
	return sb.String()
}

// createMigrationFiles creates the up and down migration files. The version
// is bumped while a non-empty file with the same name exists.
func createMigrationFiles(outputDir string, version int, migrationName, upSQL, downSQL string) (*MigrationFiles, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var upFilePath, downFilePath string
	for {
		upFilePath = filepath.Join(outputDir, migrator.GenerateMigrationFileName(version, migrationName, migrator.DirectionUp))
		downFilePath = filepath.Join(outputDir, migrator.GenerateMigrationFileName(version, migrationName, migrator.DirectionDown))

		info, err := os.Stat(upFilePath)
		if err != nil || info.Size() == 0 {
			break
		}
		version++
	}

	if err := os.WriteFile(upFilePath, []byte(upSQL), 0644); err != nil { //nolint:gosec // 0644 is fine
		return nil, fmt.Errorf("failed to write up migration file: %w", err)
	}
	if err := os.WriteFile(downFilePath, []byte(downSQL), 0644); err != nil { //nolint:gosec // 0644 is fine
		return nil, fmt.Errorf("failed to write down migration file: %w", err)
	}

	return &MigrationFiles{
		UpFile:   upFilePath,
		DownFile: downFilePath,
		Version:  version,
	}, nil
}
