// Package migrate implements the pgenum migrate command running generated
// migration files.
package migrate

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/enumeum/pgenum/cmd/internal/cmdutil"
	"github.com/enumeum/pgenum/migration/migrator"
)

const dirFlag = "dir"

func migrateFlags() map[string]cobraflags.Flag {
	flags := cmdutil.ConnectionFlags()
	flags[dirFlag] = &cobraflags.StringFlag{
		Name:  dirFlag,
		Value: "./migrations",
		Usage: "Directory holding the migration files",
	}
	return flags
}

// NewMigrateCommand creates the migrate command with its up, down and status
// subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Run generated enum migrations",
		Long: `Run the <version>_<name>.up.sql and .down.sql files of a directory.

Applied versions are recorded in the enum_schema_migrations table. Each
migration runs in its own transaction.

Examples:
  pgenum migrate up --db-url postgres://localhost/app
  pgenum migrate down --db-url postgres://localhost/app --dir ./migrations
  pgenum migrate status --db-url postgres://localhost/app`,
		SilenceUsage: true,
	}

	migrateCmd.AddCommand(newSubcommand("up", "Apply every pending migration", func(ctx context.Context, _ io.Writer, m *migrator.Migrator) error {
		return m.MigrateUp(ctx)
	}))
	migrateCmd.AddCommand(newSubcommand("down", "Revert the most recently applied migration", func(ctx context.Context, _ io.Writer, m *migrator.Migrator) error {
		return m.MigrateDown(ctx)
	}))
	migrateCmd.AddCommand(newSubcommand("status", "Show the applied and pending migrations", printStatus))
	return migrateCmd
}

type action func(ctx context.Context, out io.Writer, m *migrator.Migrator) error

func newSubcommand(use, short string, run action) *cobra.Command {
	cmd := &cobra.Command{
		Use:          use,
		Short:        short,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			conn, err := cmdutil.Connect(ctx, cmd)
			if err != nil {
				return err
			}
			defer conn.Close()

			m, err := migrator.NewFSMigrator(conn, os.DirFS(cmdutil.ResolveString(cmd, dirFlag)))
			if err != nil {
				return fmt.Errorf("error loading migrations: %w", err)
			}
			return run(ctx, cmd.OutOrStdout(), m)
		},
	}
	cobraflags.RegisterMap(cmd, migrateFlags())
	return cmd
}

func printStatus(ctx context.Context, out io.Writer, m *migrator.Migrator) error {
	status, err := m.GetMigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("error getting migration status: %w", err)
	}
	WriteStatus(out, status)
	return nil
}

// WriteStatus writes a human readable migration status
func WriteStatus(out io.Writer, status *migrator.MigrationStatus) {
	fmt.Fprintf(out, "Current version: %d\n", status.CurrentVersion)
	fmt.Fprintf(out, "Total migrations: %d\n", status.TotalMigrations)
	if !status.HasPendingChanges {
		fmt.Fprintln(out, "Database is up to date")
		return
	}
	fmt.Fprintf(out, "Pending migrations (%d):\n", len(status.PendingMigrations))
	for _, version := range status.PendingMigrations {
		fmt.Fprintf(out, "  %d\n", version)
	}
}
