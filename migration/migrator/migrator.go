// Package migrator executes enum migration statements against PostgreSQL,
// either as a one-off statement list or as versioned up/down migrations.
package migrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/enumeum/pgenum/dbschema"
)

// MigrationStatus represents the current state of migrations
type MigrationStatus struct {
	CurrentVersion    int   `json:"current_version"`
	PendingMigrations []int `json:"pending_migrations"`
	TotalMigrations   int   `json:"total_migrations"`
	HasPendingChanges bool  `json:"has_pending_changes"`
}

// Migrator applies enum migrations
type Migrator struct {
	conn              *dbschema.DatabaseConnection
	migrationProvider MigrationProvider
	initialized       bool
	logger            *slog.Logger
}

// NewFSMigrator creates a migrator for the NNNN_description.up.sql and
// NNNN_description.down.sql files of fsys
func NewFSMigrator(conn *dbschema.DatabaseConnection, fsys fs.FS) (*Migrator, error) {
	provider, err := NewFSMigrationProvider(fsys)
	if err != nil {
		return nil, err
	}
	return NewMigrator(conn, provider), nil
}

// NewMigrator creates a new migrator with the given database connection.
// provider may be nil when only Apply and ApplyBestEffort are used.
func NewMigrator(conn *dbschema.DatabaseConnection, provider MigrationProvider) *Migrator {
	if provider == nil {
		provider = NewRegisteredMigrationProvider()
	}
	return &Migrator{
		conn:              conn,
		migrationProvider: provider,
		logger:            slog.Default(),
	}
}

// WithLogger sets the logger for the migrator
func (m *Migrator) WithLogger(l *slog.Logger) *Migrator {
	tmp := *m
	tmp.logger = l
	return &tmp
}

// MigrationProvider returns the migration provider
func (m *Migrator) MigrationProvider() MigrationProvider {
	return m.migrationProvider
}

// Apply executes statements in order inside one transaction. The first
// failing statement rolls everything back.
func (m *Migrator) Apply(ctx context.Context, statements []string) error {
	if len(statements) == 0 {
		m.logger.Info("Nothing to apply")
		return nil
	}

	return m.inTransaction(ctx, func() error {
		for _, stmt := range statements {
			if err := m.conn.Writer().ExecuteSQL(ctx, stmt); err != nil {
				return err
			}
		}
		m.logger.Info("Applied statements", "count", len(statements))
		return nil
	})
}

// ApplyBestEffort executes every statement outside of a transaction and keeps
// going after failures. Each failure is logged; all of them are returned
// joined.
func (m *Migrator) ApplyBestEffort(ctx context.Context, statements []string) error {
	var errs []error
	for _, stmt := range statements {
		err := m.conn.Writer().ExecuteSQL(ctx, stmt)
		if err == nil {
			continue
		}

		attrs := []any{"sql", stmt, "error", err}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			attrs = append(attrs, "sqlstate", pgErr.Code)
		}
		m.logger.Warn("Statement failed, continuing", attrs...)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Initialize creates the migrations table if it doesn't exist
func (m *Migrator) Initialize(ctx context.Context) error {
	if m.initialized {
		return nil
	}
	if _, err := m.conn.ExecContext(ctx, migrationsSchemaSQL); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	m.initialized = true
	return nil
}

// GetCurrentVersion returns the highest applied migration version, 0 when
// none was applied
func (m *Migrator) GetCurrentVersion(ctx context.Context) (int, error) {
	if err := m.Initialize(ctx); err != nil {
		return 0, err
	}

	var version int
	if err := m.conn.QueryRowContext(ctx, getVersionSQL).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// GetAppliedMigrations returns a list of applied migration versions
func (m *Migrator) GetAppliedMigrations(ctx context.Context) ([]int, error) {
	if err := m.Initialize(ctx); err != nil {
		return nil, err
	}

	rows, err := m.conn.QueryContext(ctx, getAppliedSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	var applied []int
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied = append(applied, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migration rows: %w", err)
	}
	return applied, nil
}

// GetPendingMigrations returns the versions newer than the current one
func (m *Migrator) GetPendingMigrations(ctx context.Context) ([]int, error) {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	return pendingVersions(m.migrationProvider.Migrations(), currentVersion), nil
}

// GetMigrationStatus returns information about the current migration status
func (m *Migrator) GetMigrationStatus(ctx context.Context) (*MigrationStatus, error) {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	migrations := m.migrationProvider.Migrations()
	pending := pendingVersions(migrations, currentVersion)
	return &MigrationStatus{
		CurrentVersion:    currentVersion,
		PendingMigrations: pending,
		TotalMigrations:   len(migrations),
		HasPendingChanges: len(pending) > 0,
	}, nil
}

// MigrateUp applies every pending migration, each in its own transaction
func (m *Migrator) MigrateUp(ctx context.Context) error {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return err
	}

	migrations := m.migrationProvider.Migrations()
	m.logger.Info("Migrating up", "currentVersion", currentVersion, "totalMigrations", len(migrations))

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}
		if err := m.runMigration(ctx, migration, DirectionUp); err != nil {
			return err
		}
	}

	m.logger.Info("All migrations applied successfully")
	return nil
}

// MigrateDown reverts the most recently applied migration
func (m *Migrator) MigrateDown(ctx context.Context) error {
	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return err
	}
	if currentVersion == 0 {
		return fmt.Errorf("no migrations to roll back")
	}

	for _, migration := range m.migrationProvider.Migrations() {
		if migration.Version == currentVersion {
			return m.runMigration(ctx, migration, DirectionDown)
		}
	}
	return fmt.Errorf("applied migration %d is not available", currentVersion)
}

func (m *Migrator) runMigration(ctx context.Context, migration *Migration, direction string) error {
	m.logger.Info("Running migration", "version", migration.Version, "description", migration.Description, "direction", direction)

	run, bookkeeping, args := migration.Up, recordMigrationSQL, []any{migration.Version, migration.Description}
	if direction == DirectionDown {
		run, bookkeeping, args = migration.Down, deleteMigrationSQL, []any{migration.Version}
	}

	err := m.inTransaction(ctx, func() error {
		if err := run(ctx, m.conn); err != nil {
			return err
		}
		return m.conn.Writer().ExecuteSQL(ctx, bookkeeping, args...)
	})
	if err != nil {
		return fmt.Errorf("failed to run migration %d %s: %w", migration.Version, direction, err)
	}
	return nil
}

func (m *Migrator) inTransaction(ctx context.Context, fn func() error) error {
	writer := m.conn.Writer()
	if err := writer.BeginTransaction(ctx); err != nil {
		return err
	}
	if err := fn(); err != nil {
		if rbErr := writer.RollbackTransaction(); rbErr != nil {
			m.logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}
	return writer.CommitTransaction()
}

func pendingVersions(migrations []*Migration, currentVersion int) []int {
	pending := []int{}
	for _, migration := range migrations {
		if migration.Version > currentVersion {
			pending = append(pending, migration.Version)
		}
	}
	slices.Sort(pending)
	return pending
}
