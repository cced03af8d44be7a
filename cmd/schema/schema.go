// Package schema implements the pgenum schema and diff commands.
package schema

import (
	"context"
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/enumeum/pgenum/cmd/internal/cmdutil"
	"github.com/enumeum/pgenum/dbschema"
	"github.com/enumeum/pgenum/migration/enumtool"
	"github.com/enumeum/pgenum/migration/migrator"
	"github.com/enumeum/pgenum/migration/planner"
)

const (
	applyFlag           = "apply"
	preflightFlag       = "preflight"
	withoutDroppingFlag = "without-dropping"
	withoutCreatingFlag = "without-creating"
)

// NewSchemaCommand creates the schema command with its create, drop, update
// and rollback subcommands
func NewSchemaCommand() *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema [create|drop|update|rollback]",
		Short: "Print or apply the SQL managing the declared enum types",
		Long: `Print or apply the SQL managing the declared enum types.

Without --apply the statements are printed and nothing is executed.

Available subcommands:
  create    - CREATE TYPE for every declared type
  drop      - DROP TYPE for every declared type
  update    - bring the database types to the declared definitions
  rollback  - bring the declared definitions back to the database state

Examples:
  pgenum schema create --definitions ./enums
  pgenum schema update --db-url postgres://localhost/app --apply
  pgenum schema rollback --db-url postgres://localhost/app --without-dropping`,
		SilenceUsage: true,
	}

	schemaCmd.AddCommand(newOperationCommand("create", "Create the declared enum types", false, createSchema))
	schemaCmd.AddCommand(newOperationCommand("drop", "Drop the declared enum types, ignoring failures when applied", false, dropSchema))
	schemaCmd.AddCommand(newDiffOperationCommand("update", "Migrate the database enum types to the declared definitions", updateSchema))
	schemaCmd.AddCommand(newDiffOperationCommand("rollback", "Migrate the declared definitions back to the database enum types", rollbackSchema))
	return schemaCmd
}

type operation func(ctx context.Context, cmd *cobra.Command, tool *enumtool.Tool, apply bool) error

func newOperationCommand(use, short string, needsDatabase bool, op operation) *cobra.Command {
	cmd := &cobra.Command{
		Use:          use,
		Short:        short,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOperation(cmd, needsDatabase, op)
		},
	}
	cobraflags.RegisterMap(cmd, cmdutil.ConnectionFlags())
	cmdutil.RegisterDefinitionFlags(cmd)
	cmd.Flags().Bool(applyFlag, false, "execute the statements instead of printing them")
	return cmd
}

func newDiffOperationCommand(use, short string, op operation) *cobra.Command {
	cmd := newOperationCommand(use, short, true, op)
	cmd.Flags().Bool(preflightFlag, false, "fail before applying when rows still hold removed labels")
	cmd.Flags().Bool(withoutDroppingFlag, false, "leave out DROP TYPE statements of removed types")
	cmd.Flags().Bool(withoutCreatingFlag, false, "leave out CREATE TYPE statements of new types")
	return cmd
}

func runOperation(cmd *cobra.Command, needsDatabase bool, op operation) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	definitions, err := cmdutil.LoadDefinitions(cmd)
	if err != nil {
		return err
	}

	apply := cmdutil.ResolveBool(cmd, applyFlag)
	var tool *enumtool.Tool
	if needsDatabase || apply {
		conn, err := cmdutil.Connect(ctx, cmd)
		if err != nil {
			return err
		}
		defer conn.Close()
		tool = newTool(cmd, definitions, conn)
	} else {
		tool = enumtool.New(definitions, nil, nil)
	}
	tool = tool.WithCompareOptions(cmdutil.CompareOptions(cmd)).WithPlannerOptions(plannerOptions(cmd)...)

	return op(ctx, cmd, tool, apply)
}

func newTool(cmd *cobra.Command, definitions enumtool.Definitions, conn *dbschema.DatabaseConnection) *enumtool.Tool {
	tool := enumtool.New(definitions, conn.Reader(), migrator.NewMigrator(conn, nil))
	if cmd.Flags().Lookup(preflightFlag) != nil && cmdutil.ResolveBool(cmd, preflightFlag) {
		tool = tool.WithPreflight(conn.Reader().CheckRemovedValues)
	}
	return tool
}

func plannerOptions(cmd *cobra.Command) []planner.Option {
	var opts []planner.Option
	if cmd.Flags().Lookup(withoutDroppingFlag) == nil {
		return opts
	}
	if cmdutil.ResolveBool(cmd, withoutDroppingFlag) {
		opts = append(opts, planner.WithoutDropping())
	}
	if cmdutil.ResolveBool(cmd, withoutCreatingFlag) {
		opts = append(opts, planner.WithoutCreating())
	}
	return opts
}

func createSchema(ctx context.Context, cmd *cobra.Command, tool *enumtool.Tool, apply bool) error {
	if !apply {
		cmdutil.PrintStatements(cmd, tool.CreateSchemaSQL())
		return nil
	}
	if err := tool.CreateSchema(ctx); err != nil {
		return fmt.Errorf("error creating enum types: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Enum types created")
	return nil
}

func dropSchema(ctx context.Context, cmd *cobra.Command, tool *enumtool.Tool, apply bool) error {
	if !apply {
		cmdutil.PrintStatements(cmd, tool.DropSchemaSQL())
		return nil
	}
	if err := tool.DropSchema(ctx); err != nil {
		return fmt.Errorf("error dropping enum types: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Enum types dropped")
	return nil
}

func updateSchema(ctx context.Context, cmd *cobra.Command, tool *enumtool.Tool, apply bool) error {
	if !apply {
		statements, err := tool.UpdateSchemaSQL(ctx)
		if err != nil {
			return fmt.Errorf("error generating update SQL: %w", err)
		}
		cmdutil.PrintStatements(cmd, statements)
		return nil
	}
	if err := tool.UpdateSchema(ctx); err != nil {
		return fmt.Errorf("error updating enum types: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Enum types updated")
	return nil
}

func rollbackSchema(ctx context.Context, cmd *cobra.Command, tool *enumtool.Tool, apply bool) error {
	if !apply {
		statements, err := tool.RollbackSchemaSQL(ctx)
		if err != nil {
			return fmt.Errorf("error generating rollback SQL: %w", err)
		}
		cmdutil.PrintStatements(cmd, statements)
		return nil
	}
	if err := tool.RollbackSchema(ctx); err != nil {
		return fmt.Errorf("error rolling back enum types: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Enum types rolled back")
	return nil
}
