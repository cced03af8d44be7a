package types

import (
	"context"

	schematypes "github.com/enumeum/pgenum/migration/schemadiff/types"
)

// DBEnumValue is one row of the enum label catalog query
type DBEnumValue struct {
	TypeName  string  `json:"type_name"`
	Value     string  `json:"value"`
	SortOrder float64 `json:"sort_order"` // pg_enum.enumsortorder
}

// DBEnumUsage is one column (of a table or materialized view) typed with an enum
type DBEnumUsage struct {
	TypeName string  `json:"type_name"`
	Table    string  `json:"table"`
	Column   string  `json:"column"`
	Default  *string `json:"default"`  // Default expression as pg_get_expr prints it, can be NULL
	RelKind  string  `json:"rel_kind"` // r for tables, m for materialized views
}

// DBInfo contains connection and metadata information
type DBInfo struct {
	Dialect string `json:"dialect"` // postgres
	Version string `json:"version"`
	Schema  string `json:"schema"` // public, etc.
	URL     string `json:"url"`    // database connection URL (for reference)
}

// SchemaReader interface for reading the enum part of a database schema
type SchemaReader interface {
	ReadSnapshot(ctx context.Context) (*schematypes.Schema, error)
}

// SchemaWriter interface for writing schemas to databases
type SchemaWriter interface {
	ExecuteSQL(ctx context.Context, sql string, args ...any) error
	BeginTransaction(ctx context.Context) error
	CommitTransaction() error
	RollbackTransaction() error
	SetDryRun(dryRun bool)
	IsDryRun() bool
}
