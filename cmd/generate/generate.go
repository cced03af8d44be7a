package generate

import (
	"context"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/enumeum/pgenum/cmd/internal/cmdutil"
	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/migration/generator"
)

// Migration generation flags
const (
	nameFlag      = "name"
	outputDirFlag = "output-dir"
	emptyFlag     = "empty"
)

func migrationFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		nameFlag: &cobraflags.StringFlag{
			Name:  nameFlag,
			Value: "enum_migration",
			Usage: "Name for the migration",
		},
		outputDirFlag: &cobraflags.StringFlag{
			Name:  outputDirFlag,
			Value: "./migrations",
			Usage: "Directory where migration files will be saved",
		},
	}
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate [migration]",
		Short: "Generate enum migration files",
		Long: `Generate versioned up/down migration files.

Available subcommands:
  migration  - Compare the declared enum types with the database and write the
               update SQL to an up file and the rollback SQL to a down file

Examples:
  pgenum generate migration --db-url postgres://localhost/app --name reorder_status
  pgenum generate migration --empty --name backfill_statuses`,
		SilenceUsage: true,
	}

	generateCmd.AddCommand(newMigrationCommand())
	return generateCmd
}

// newMigrationCommand creates the migration subcommand
func newMigrationCommand() *cobra.Command {
	migrationCmd := &cobra.Command{
		Use:   "migration",
		Short: "Generate migration files from enum differences",
		Long: `Generate migration files with proper timestamps and naming conventions.

The up file holds the statements migrating the database enum types to the
declared definitions, the down file the statements reverting them. Nothing is
written when the database is up to date. With --empty skeleton files are
created for manual editing and no database is needed.`,
		SilenceUsage: true,
		RunE:         migrationCommand,
	}

	cobraflags.RegisterMap(migrationCmd, migrationFlags())
	cobraflags.RegisterMap(migrationCmd, cmdutil.ConnectionFlags())
	cmdutil.RegisterDefinitionFlags(migrationCmd)
	migrationCmd.Flags().Bool(emptyFlag, false, "create empty migration files for manual editing")
	return migrationCmd
}

func migrationCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	migrationName := cmdutil.ResolveString(cmd, nameFlag)
	outputDir := cmdutil.ResolveString(cmd, outputDirFlag)
	out := cmd.OutOrStdout()

	if migrationName == "" {
		return fmt.Errorf("migration name is required (use --name flag)")
	}

	var (
		files *generator.MigrationFiles
		err   error
	)
	if cmdutil.ResolveBool(cmd, emptyFlag) {
		fmt.Fprintf(out, "Generating empty migration: %s\n", migrationName)
		files, err = generator.GenerateEmptyMigration(generator.GenerateEmptyMigrationOptions{
			MigrationName: migrationName,
			OutputDir:     outputDir,
		})
	} else {
		dbURL := cmdutil.ResolveString(cmd, cmdutil.DatabaseURLFlag)
		if dbURL == "" {
			return fmt.Errorf("database URL is required (use --%s or %s_DB_URL)", cmdutil.DatabaseURLFlag, cmdutil.EnvPrefix)
		}
		var definitions *enumdef.Registry
		definitions, err = cmdutil.LoadDefinitions(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Generating migration: %s\n", migrationName)
		files, err = generator.GenerateMigration(ctx, generator.GenerateMigrationOptions{
			Definitions:    definitions,
			DatabaseURL:    dbURL,
			Schema:         cmdutil.ResolveString(cmd, cmdutil.SchemaFlag),
			MigrationName:  migrationName,
			OutputDir:      outputDir,
			CompareOptions: cmdutil.CompareOptions(cmd),
		})
	}
	if err != nil {
		return fmt.Errorf("error generating migration files: %w", err)
	}
	if files == nil {
		fmt.Fprintln(out, "No enum changes found, no migration generated")
		return nil
	}

	fmt.Fprintf(out, "Generated migration files:\n")
	fmt.Fprintf(out, "  UP:   %s\n", files.UpFile)
	fmt.Fprintf(out, "  DOWN: %s\n", files.DownFile)
	fmt.Fprintf(out, "  Version: %d\n", files.Version)
	return nil
}
