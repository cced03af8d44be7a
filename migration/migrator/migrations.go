package migrator

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/enumeum/pgenum/dbschema"
)

const migrationsTable = "enum_schema_migrations"

var (
	migrationsSchemaSQL = `CREATE TABLE IF NOT EXISTS ` + migrationsTable + ` (
	version BIGINT PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	getVersionSQL      = `SELECT COALESCE(MAX(version), 0) FROM ` + migrationsTable
	getAppliedSQL      = `SELECT version FROM ` + migrationsTable + ` ORDER BY version`
	recordMigrationSQL = `INSERT INTO ` + migrationsTable + ` (version, description) VALUES ($1, $2)`
	deleteMigrationSQL = `DELETE FROM ` + migrationsTable + ` WHERE version = $1`
)

// MigrationFunc represents a migration function that operates on a database connection
type MigrationFunc func(context.Context, *dbschema.DatabaseConnection) error

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// SplitSQLStatements splits a SQL script into statements using the PostgreSQL
// scanner, so semicolons inside literals and comments do not split. Comments
// are removed and trailing semicolons dropped.
func SplitSQLStatements(sql string) ([]string, error) {
	stripped, err := stripComments(sql)
	if err != nil {
		return nil, err
	}

	parts, err := pg_query.SplitWithScanner(stripped, true)
	if err != nil {
		return nil, fmt.Errorf("failed to split SQL: %w", err)
	}

	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(part), ";"))
		if part != "" {
			statements = append(statements, part)
		}
	}
	return statements, nil
}

// stripComments blanks out -- and /* */ comments reported by the scanner.
func stripComments(sql string) (string, error) {
	result, err := pg_query.Scan(sql)
	if err != nil {
		return "", fmt.Errorf("failed to scan SQL: %w", err)
	}

	buf := []byte(sql)
	for _, token := range result.GetTokens() {
		if token.GetToken() != pg_query.Token_SQL_COMMENT && token.GetToken() != pg_query.Token_C_COMMENT {
			continue
		}
		for i := token.GetStart(); i < token.GetEnd() && int(i) < len(buf); i++ {
			if buf[i] != '\n' {
				buf[i] = ' '
			}
		}
	}
	return string(buf), nil
}

// MigrationFuncFromSQLFilename returns a migration function that reads SQL from a file
// in the provided filesystem and executes it through the connection's writer
func MigrationFuncFromSQLFilename(filename string, fsys fs.FS) MigrationFunc {
	return func(ctx context.Context, conn *dbschema.DatabaseConnection) error {
		sql, err := fs.ReadFile(fsys, filename)
		if err != nil {
			return fmt.Errorf("failed to read migration file: %w", err)
		}
		return executeSQLStatements(ctx, conn, string(sql))
	}
}

// NoopMigrationFunc is a no-op migration function
func NoopMigrationFunc(_ context.Context, _ *dbschema.DatabaseConnection) error {
	return nil
}

// CreateMigrationFromSQL creates a migration from SQL strings
func CreateMigrationFromSQL(version int, description, upSQL, downSQL string) *Migration {
	return &Migration{
		Version:     version,
		Description: description,
		Up: func(ctx context.Context, conn *dbschema.DatabaseConnection) error {
			return executeSQLStatements(ctx, conn, upSQL)
		},
		Down: func(ctx context.Context, conn *dbschema.DatabaseConnection) error {
			return executeSQLStatements(ctx, conn, downSQL)
		},
	}
}

// CreateMigrationFromStatements creates a migration from already split statements
func CreateMigrationFromStatements(version int, description string, up, down []string) *Migration {
	run := func(statements []string) MigrationFunc {
		return func(ctx context.Context, conn *dbschema.DatabaseConnection) error {
			for _, stmt := range statements {
				if err := conn.Writer().ExecuteSQL(ctx, stmt); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return &Migration{
		Version:     version,
		Description: description,
		Up:          run(up),
		Down:        run(down),
	}
}

// executeSQLStatements splits SQL into individual statements and executes them
func executeSQLStatements(ctx context.Context, conn *dbschema.DatabaseConnection, sql string) error {
	statements, err := SplitSQLStatements(sql)
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if err := conn.Writer().ExecuteSQL(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration SQL: %w", err)
		}
	}
	return nil
}
