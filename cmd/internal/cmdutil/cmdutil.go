// Package cmdutil holds the flag, configuration and connection plumbing shared
// by the pgenum subcommands.
package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/enumeum/pgenum/config"
	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/core/goschema"
	"github.com/enumeum/pgenum/dbschema"
)

// EnvPrefix prefixes every environment variable read by the CLI
const EnvPrefix = "PGENUM"

// Flag names shared by several commands
const (
	ConfigFlag        = "config"
	DatabaseURLFlag   = "db-url"
	SchemaFlag        = "schema"
	DefinitionsFlag   = "definitions"
	GoSourceFlag      = "go-source"
	IgnoreTypesFlag   = "ignore-types"
	ManagedTypesFlag  = "managed-types"
	DropUnmanagedFlag = "drop-unmanaged"
)

// ConnectionFlags returns the flags selecting the database to work with
func ConnectionFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		DatabaseURLFlag: &cobraflags.StringFlag{
			Name:  DatabaseURLFlag,
			Value: "",
			Usage: "Database connection URL (env PGENUM_DB_URL)",
		},
		SchemaFlag: &cobraflags.StringFlag{
			Name:  SchemaFlag,
			Value: "",
			Usage: "Database schema holding the enum types, defaults to the current schema",
		},
	}
}

// DefinitionFlags returns the flags selecting the declared definitions and
// the comparison scope
func DefinitionFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		DefinitionsFlag: &cobraflags.StringFlag{
			Name:  DefinitionsFlag,
			Value: "",
			Usage: "Comma-separated YAML/TOML definition files or directories",
		},
		GoSourceFlag: &cobraflags.StringFlag{
			Name:  GoSourceFlag,
			Value: "",
			Usage: "Comma-separated directories of Go entities with migrator enum annotations",
		},
		IgnoreTypesFlag: &cobraflags.StringFlag{
			Name:  IgnoreTypesFlag,
			Value: "",
			Usage: "Comma-separated enum types that are never created, altered or dropped",
		},
		ManagedTypesFlag: &cobraflags.StringFlag{
			Name:  ManagedTypesFlag,
			Value: "",
			Usage: "Comma-separated database enum types dropped when no longer declared",
		},
	}
}

// RegisterDefinitionFlags registers the definition flags and --drop-unmanaged on cmd
func RegisterDefinitionFlags(cmd *cobra.Command) {
	cobraflags.RegisterMap(cmd, DefinitionFlags())
	cmd.Flags().Bool(DropUnmanagedFlag, false, "drop every database enum type that is not declared")
}

// InitConfig prepares viper for the invoked command: environment variables
// with the PGENUM_ prefix and an optional YAML config file. The file comes
// from --config, then PGENUM_CONFIG, then ./pgenum.yaml when present.
func InitConfig(cmd *cobra.Command) error {
	configFlags := cmd.Flags()
	if cmd.Root() != nil && cmd.Root().PersistentFlags().Lookup(ConfigFlag) != nil {
		configFlags = cmd.Root().PersistentFlags()
	}
	configPath, err := configFlags.GetString(ConfigFlag)
	if err != nil {
		return fmt.Errorf("failed to read config flag: %w", err)
	}

	viper.Reset()
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else if envPath := os.Getenv(EnvPrefix + "_CONFIG"); envPath != "" {
		viper.SetConfigFile(envPath)
	} else {
		viper.SetConfigName("pgenum")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var missing viper.ConfigFileNotFoundError
		if !errors.As(err, &missing) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// ResolveString returns the flag value when it was set on the command line,
// otherwise the environment or config file value, otherwise the flag default.
func ResolveString(cmd *cobra.Command, key string) string {
	value, err := cmd.Flags().GetString(key)
	if err != nil {
		return ""
	}
	if f := cmd.Flags().Lookup(key); f == nil || (!f.Changed && viper.IsSet(key)) {
		return viper.GetString(key)
	}
	return value
}

// ResolveBool is ResolveString for boolean flags
func ResolveBool(cmd *cobra.Command, key string) bool {
	value, err := cmd.Flags().GetBool(key)
	if err != nil {
		return false
	}
	if f := cmd.Flags().Lookup(key); f == nil || (!f.Changed && viper.IsSet(key)) {
		return viper.GetBool(key)
	}
	return value
}

// ResolveList resolves a comma-separated flag into its trimmed, non-empty items
func ResolveList(cmd *cobra.Command, key string) []string {
	return SplitList(ResolveString(cmd, key))
}

// SplitList splits a comma-separated value into trimmed, non-empty items
func SplitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// LoadDefinitions loads the definition files named by --definitions and the
// annotated Go sources named by --go-source into one registry
func LoadDefinitions(cmd *cobra.Command) (*enumdef.Registry, error) {
	paths := ResolveList(cmd, DefinitionsFlag)
	sourceDirs := ResolveList(cmd, GoSourceFlag)
	if len(paths) == 0 && len(sourceDirs) == 0 {
		return nil, fmt.Errorf("no enum definitions given (use --%s or --%s)", DefinitionsFlag, GoSourceFlag)
	}

	registry := enumdef.NewRegistry()
	for _, path := range paths {
		if err := config.LoadDefinitionsInto(registry, path); err != nil {
			return nil, fmt.Errorf("error loading enum definitions: %w", err)
		}
	}
	for _, dir := range sourceDirs {
		if err := goschema.LoadInto(registry, dir); err != nil {
			return nil, fmt.Errorf("error loading enum definitions from Go sources: %w", err)
		}
	}
	return registry, nil
}

// CompareOptions builds the comparison scope from the definition flags
func CompareOptions(cmd *cobra.Command) *config.CompareOptions {
	return &config.CompareOptions{
		IgnoredTypes:  ResolveList(cmd, IgnoreTypesFlag),
		ManagedTypes:  ResolveList(cmd, ManagedTypesFlag),
		DropUnmanaged: ResolveBool(cmd, DropUnmanagedFlag),
	}
}

// Connect opens the database named by --db-url
func Connect(ctx context.Context, cmd *cobra.Command) (*dbschema.DatabaseConnection, error) {
	dbURL := ResolveString(cmd, DatabaseURLFlag)
	if dbURL == "" {
		return nil, fmt.Errorf("database URL is required (use --%s or %s_DB_URL)", DatabaseURLFlag, EnvPrefix)
	}
	conn, err := dbschema.ConnectToDatabase(ctx, dbURL, ResolveString(cmd, SchemaFlag))
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	return conn, nil
}

// PrintStatements writes statements to the command output, one per line,
// terminated with a semicolon
func PrintStatements(cmd *cobra.Command, statements []string) {
	out := cmd.OutOrStdout()
	if len(statements) == 0 {
		fmt.Fprintln(out, "-- No changes")
		return
	}
	for _, stmt := range statements {
		fmt.Fprintf(out, "%s;\n", stmt)
	}
}
