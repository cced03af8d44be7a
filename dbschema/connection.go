// Package dbschema manages PostgreSQL connections used to introspect and
// migrate enum types.
package dbschema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/enumeum/pgenum/dbschema/postgres"
	"github.com/enumeum/pgenum/dbschema/types"
)

// DatabaseConnection wraps a database connection with its enum reader and
// statement writer
type DatabaseConnection struct {
	db     *sql.DB
	info   types.DBInfo
	reader *postgres.Reader
	writer *postgres.Writer
}

// Connect opens a database/sql handle backed by the pgx driver.
// pgxpool-only parameters are removed from URL-style DSNs first, since the
// stdlib driver rejects them.
func Connect(dbURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", removePostgresPoolParams(dbURL))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	return db, nil
}

// ConnectToDatabase connects to PostgreSQL and prepares the reader and writer
// for schema. An empty schema means the connection's current schema.
func ConnectToDatabase(ctx context.Context, dbURL, schema string) (*DatabaseConnection, error) {
	db, err := Connect(dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn, err := NewDatabaseConnection(ctx, db, schema)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	conn.info.URL = redactURL(dbURL)
	return conn, nil
}

// NewDatabaseConnection wraps an already opened database handle.
func NewDatabaseConnection(ctx context.Context, db *sql.DB, schema string) (*DatabaseConnection, error) {
	info := types.DBInfo{Dialect: "postgres", Schema: schema}

	if err := db.QueryRowContext(ctx, "SHOW server_version").Scan(&info.Version); err != nil {
		return nil, fmt.Errorf("failed to get server version: %w", err)
	}
	if info.Schema == "" {
		if err := db.QueryRowContext(ctx, "SELECT current_schema()").Scan(&info.Schema); err != nil {
			return nil, fmt.Errorf("failed to get current schema: %w", err)
		}
	}

	slog.Debug("Connected to database", "version", info.Version, "schema", info.Schema)

	return &DatabaseConnection{
		db:     db,
		info:   info,
		reader: postgres.NewPostgreSQLReader(db, info.Schema),
		writer: postgres.NewPostgreSQLWriter(db),
	}, nil
}

// Info returns the connection metadata
func (c *DatabaseConnection) Info() types.DBInfo {
	return c.info
}

// Reader returns the enum schema reader
func (c *DatabaseConnection) Reader() *postgres.Reader {
	return c.reader
}

// Writer returns the statement writer
func (c *DatabaseConnection) Writer() *postgres.Writer {
	return c.writer
}

// DB returns the underlying database handle
func (c *DatabaseConnection) DB() *sql.DB {
	return c.db
}

// ExecContext executes a statement outside of the writer's transaction
func (c *DatabaseConnection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a query outside of the writer's transaction
func (c *DatabaseConnection) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query outside of the writer's transaction
func (c *DatabaseConnection) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// Close closes the database connection
func (c *DatabaseConnection) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// removePostgresPoolParams strips pool_max_conns and pool_min_conns from a
// URL-style DSN. Anything that does not parse as a URL is returned unchanged.
func removePostgresPoolParams(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.RawQuery == "" {
		return dbURL
	}

	query := u.Query()
	query.Del("pool_max_conns")
	query.Del("pool_min_conns")
	u.RawQuery = query.Encode()
	return u.String()
}

// redactURL hides the password of a URL-style DSN.
func redactURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil || u.User == nil {
		return dbURL
	}
	return u.Redacted()
}
