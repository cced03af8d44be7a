package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/enumeum/pgenum/cmd/generate"
	"github.com/enumeum/pgenum/cmd/internal/cmdutil"
	"github.com/enumeum/pgenum/cmd/migrate"
	"github.com/enumeum/pgenum/cmd/schema"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	_ = godotenv.Load()
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pgenum",
		Short: "Manage PostgreSQL enum types declared in definition files",
		Long: `pgenum keeps PostgreSQL enum types in line with the definitions declared in
YAML or TOML files. Appended labels become ALTER TYPE ... ADD VALUE; any other
change recreates the type and converts every column using it.

Flags can also be set with PGENUM_ environment variables (PGENUM_DB_URL) or in
a pgenum.yaml config file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdutil.InitConfig(cmd)
		},
	}
	rootCmd.PersistentFlags().String(cmdutil.ConfigFlag, "", "path to config file")

	rootCmd.AddCommand(schema.NewSchemaCommand())
	rootCmd.AddCommand(schema.NewDiffCommand())
	rootCmd.AddCommand(generate.NewGenerateCommand())
	rootCmd.AddCommand(migrate.NewMigrateCommand())
	return rootCmd
}
