package schema

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/enumeum/pgenum/cmd/internal/cmdutil"
	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/migration/enumtool"
	"github.com/enumeum/pgenum/migration/schemadiff/types"
)

// Diff output formats
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

const (
	formatFlag   = "format"
	rollbackFlag = "rollback"
)

var titleCaser = cases.Title(language.English)

// NewDiffCommand creates the diff command printing the differences between
// the declared definitions and the database
func NewDiffCommand() *cobra.Command {
	diffCmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the differences between the declared enum types and the database",
		Long: `Show which enum types would be created, altered, reordered or dropped.

Examples:
  pgenum diff --db-url postgres://localhost/app
  pgenum diff --db-url postgres://localhost/app --format yaml --rollback`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiff(cmd)
		},
	}

	cobraflags.RegisterMap(diffCmd, cmdutil.ConnectionFlags())
	cmdutil.RegisterDefinitionFlags(diffCmd)
	diffCmd.Flags().String(formatFlag, FormatText, "output format: text or yaml")
	diffCmd.Flags().Bool(rollbackFlag, false, "show the rollback differences instead of the update ones")
	return diffCmd
}

func runDiff(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	format := strings.ToLower(cmdutil.ResolveString(cmd, formatFlag))
	if format != FormatText && format != FormatYAML {
		return fmt.Errorf("unsupported format %q (use %s or %s)", format, FormatText, FormatYAML)
	}

	definitions, err := cmdutil.LoadDefinitions(cmd)
	if err != nil {
		return err
	}
	conn, err := cmdutil.Connect(ctx, cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	tool := enumtool.New(definitions, conn.Reader(), nil).WithCompareOptions(cmdutil.CompareOptions(cmd))
	var diff *types.SchemaDiff
	if cmdutil.ResolveBool(cmd, rollbackFlag) {
		diff, err = tool.RollbackDiff(ctx)
	} else {
		diff, err = tool.UpdateDiff(ctx)
	}
	if err != nil {
		return fmt.Errorf("error comparing enum types: %w", err)
	}

	return WriteDiff(cmd.OutOrStdout(), diff, format)
}

// WriteDiff writes diff to w in the given format
func WriteDiff(w io.Writer, diff *types.SchemaDiff, format string) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(diff); err != nil {
			return fmt.Errorf("failed to encode diff: %w", err)
		}
		return enc.Close()
	}

	if !diff.HasChanges() {
		_, err := fmt.Fprintln(w, "No enum changes")
		return err
	}

	var sb strings.Builder
	writeDefinitions(&sb, "types to create", diff.Create)
	writeDefinitionDiffs(&sb, "types to alter", diff.Alter)
	writeDefinitionDiffs(&sb, "types to reorder", diff.Reorder)
	writeDefinitions(&sb, "types to drop", diff.Drop)
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeDefinitions(sb *strings.Builder, heading string, definitions []enumdef.Definition) {
	if len(definitions) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s (%d)\n", titleCaser.String(heading), len(definitions))
	for _, def := range definitions {
		fmt.Fprintf(sb, "  %s: %s\n", def.Name, strings.Join(def.Values, ", "))
	}
}

func writeDefinitionDiffs(sb *strings.Builder, heading string, diffs []types.DefinitionDiff) {
	if len(diffs) == 0 {
		return
	}
	fmt.Fprintf(sb, "%s (%d)\n", titleCaser.String(heading), len(diffs))
	for _, d := range diffs {
		fmt.Fprintf(sb, "  %s: %s -> %s\n", d.Name(), strings.Join(d.From.Values, ", "), strings.Join(d.Target.Values, ", "))
		if removed := d.RemovedValues(); len(removed) > 0 {
			fmt.Fprintf(sb, "    removed: %s\n", strings.Join(removed, ", "))
		}
		if d.Usage != nil {
			for _, col := range d.Usage.Columns {
				fmt.Fprintf(sb, "    used by: %s.%s\n", col.Table, col.Column)
			}
		}
	}
}
