package postgres

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/dbschema/types"
	schematypes "github.com/enumeum/pgenum/migration/schemadiff/types"
)

// ErrRemovedValueInUse is returned by CheckRemovedValues when stored rows
// still hold a label the migration removes
var ErrRemovedValueInUse = errors.New("removed enum value is still in use")

const enumValuesQuery = `
	SELECT
		t.typname AS enum_name,
		e.enumlabel AS enum_value,
		e.enumsortorder
	FROM pg_catalog.pg_type t
	JOIN pg_catalog.pg_enum e ON t.oid = e.enumtypid
	JOIN pg_catalog.pg_namespace n ON n.oid = t.typnamespace
	WHERE n.nspname = $1
	ORDER BY t.typname, e.enumsortorder`

// enumUsagesQuery lists the columns typed with an enum in relations of the
// given kinds: r and p for tables, m for materialized views.
const enumUsagesQuery = `
	SELECT DISTINCT
		t.typname AS enum_name,
		c.relname AS table_name,
		a.attname AS column_name,
		pg_get_expr(d.adbin, d.adrelid) AS column_default,
		c.relkind::text AS rel_kind
	FROM pg_catalog.pg_attribute a
	JOIN pg_catalog.pg_class c ON a.attrelid = c.oid
	JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
	JOIN pg_catalog.pg_type t ON a.atttypid = t.oid
	LEFT JOIN pg_catalog.pg_attrdef d ON d.adrelid = c.oid AND d.adnum = a.attnum
	WHERE n.nspname = $1
		AND t.typtype = 'e'
		AND c.relkind::text = ANY($2)
		AND a.attnum > 0
		AND NOT a.attisdropped
	ORDER BY t.typname, c.relname, a.attname`

var (
	tableRelKinds            = []string{"r", "p"}
	materializedViewRelKinds = []string{"m"}
)

// Reader reads enum types and their usages from PostgreSQL databases
type Reader struct {
	db     *sql.DB
	schema string
	logger *slog.Logger
}

// NewPostgreSQLReader creates a new PostgreSQL schema reader
func NewPostgreSQLReader(db *sql.DB, schema string) *Reader {
	if schema == "" {
		schema = "public"
	}
	return &Reader{
		db:     db,
		schema: schema,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the reader
func (r *Reader) WithLogger(l *slog.Logger) *Reader {
	tmp := *r
	tmp.logger = l
	return &tmp
}

// Schema returns the schema the reader introspects
func (r *Reader) Schema() string {
	return r.schema
}

// ReadSnapshot reads definitions and usages concurrently and combines them
// into a schema snapshot
func (r *Reader) ReadSnapshot(ctx context.Context) (*schematypes.Schema, error) {
	var (
		definitions []enumdef.Definition
		usages      []*enumdef.Usage
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		definitions, err = r.ReadDefinitions(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		usages, err = r.ReadUsages(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("Read enum snapshot", "schema", r.schema, "types", len(definitions), "usages", len(usages))
	return schematypes.NewSchema(definitions, usages), nil
}

// ReadDefinitions reads every enum type of the schema with its labels in
// sort order
func (r *Reader) ReadDefinitions(ctx context.Context) ([]enumdef.Definition, error) {
	rows, err := r.readEnumValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read enums: %w", err)
	}
	return GroupDefinitions(rows), nil
}

// ReadUsages reads the table and materialized view columns typed with enums
func (r *Reader) ReadUsages(ctx context.Context) ([]*enumdef.Usage, error) {
	tables, err := r.readEnumUsages(ctx, tableRelKinds)
	if err != nil {
		return nil, fmt.Errorf("failed to read table usages: %w", err)
	}
	views, err := r.readEnumUsages(ctx, materializedViewRelKinds)
	if err != nil {
		return nil, fmt.Errorf("failed to read materialized view usages: %w", err)
	}
	return GroupUsages(append(tables, views...)), nil
}

// CheckRemovedValues fails with ErrRemovedValueInUse when a column using a
// reordered type still stores one of the labels the target removes. Without
// it the failure surfaces from the USING cast in the middle of the migration.
func (r *Reader) CheckRemovedValues(ctx context.Context, diff *schematypes.SchemaDiff) error {
	var inUse []string
	for _, d := range diff.Reorder {
		removed := d.RemovedValues()
		if len(removed) == 0 || d.Usage == nil {
			continue
		}
		for _, col := range d.Usage.Columns {
			if !col.IsAlterable() {
				continue
			}
			query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s.%s WHERE %s::text = ANY($1))",
				pq.QuoteIdentifier(r.schema), pq.QuoteIdentifier(col.Table), pq.QuoteIdentifier(col.Column))

			var exists bool
			if err := r.db.QueryRowContext(ctx, query, removed).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check removed values of %s.%s: %w", col.Table, col.Column, err)
			}
			if exists {
				inUse = append(inUse, fmt.Sprintf("%s.%s (%s)", col.Table, col.Column, d.Name()))
			}
		}
	}

	if len(inUse) > 0 {
		return fmt.Errorf("%w: %s", ErrRemovedValueInUse, strings.Join(inUse, ", "))
	}
	return nil
}

func (r *Reader) readEnumValues(ctx context.Context) ([]types.DBEnumValue, error) {
	rows, err := r.db.QueryContext(ctx, enumValuesQuery, r.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query enums: %w", err)
	}
	defer rows.Close()

	var values []types.DBEnumValue
	for rows.Next() {
		var v types.DBEnumValue
		if err := rows.Scan(&v.TypeName, &v.Value, &v.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan enum: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enum rows: %w", err)
	}
	return values, nil
}

func (r *Reader) readEnumUsages(ctx context.Context, relKinds []string) ([]types.DBEnumUsage, error) {
	rows, err := r.db.QueryContext(ctx, enumUsagesQuery, r.schema, relKinds)
	if err != nil {
		return nil, fmt.Errorf("failed to query enum usages: %w", err)
	}
	defer rows.Close()

	var usages []types.DBEnumUsage
	for rows.Next() {
		var u types.DBEnumUsage
		if err := rows.Scan(&u.TypeName, &u.Table, &u.Column, &u.Default, &u.RelKind); err != nil {
			return nil, fmt.Errorf("failed to scan enum usage: %w", err)
		}
		usages = append(usages, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enum usage rows: %w", err)
	}
	return usages, nil
}

// GroupDefinitions folds label rows into definitions. Labels are ordered by
// their sort order regardless of row order; definitions are sorted by name.
func GroupDefinitions(rows []types.DBEnumValue) []enumdef.Definition {
	byName := make(map[string][]types.DBEnumValue)
	for _, row := range rows {
		byName[row.TypeName] = append(byName[row.TypeName], row)
	}

	definitions := make([]enumdef.Definition, 0, len(byName))
	for name, values := range byName {
		slices.SortStableFunc(values, func(a, b types.DBEnumValue) int {
			return cmp.Compare(a.SortOrder, b.SortOrder)
		})
		labels := make([]string, len(values))
		for i, v := range values {
			labels[i] = v.Value
		}
		definitions = append(definitions, enumdef.Definition{Name: name, Values: labels})
	}

	slices.SortFunc(definitions, func(a, b enumdef.Definition) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return definitions
}

// GroupUsages folds usage rows into one usage per type, sorted by type name.
// A column listed twice is kept once.
func GroupUsages(rows []types.DBEnumUsage) []*enumdef.Usage {
	byName := make(map[string]*enumdef.Usage)
	for _, row := range rows {
		usage, ok := byName[row.TypeName]
		if !ok {
			usage = enumdef.NewUsage(row.TypeName)
			byName[row.TypeName] = usage
		}
		usage.AddColumn(enumdef.UsageColumn{
			Name:             row.TypeName,
			Table:            row.Table,
			Column:           row.Column,
			Default:          row.Default,
			MaterializedView: row.RelKind == "m",
		})
	}

	usages := make([]*enumdef.Usage, 0, len(byName))
	for _, usage := range byName {
		usages = append(usages, usage)
	}
	slices.SortFunc(usages, func(a, b *enumdef.Usage) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return usages
}
