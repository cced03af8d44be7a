package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoTransaction is returned when committing or rolling back without an
// active transaction
var ErrNoTransaction = errors.New("no transaction in progress")

// Writer executes statements against PostgreSQL, optionally inside a single
// transaction. It keeps the transaction as state and is not safe for
// concurrent use.
type Writer struct {
	db     *sql.DB
	tx     *sql.Tx
	dryRun bool
	logger *slog.Logger
}

// NewPostgreSQLWriter creates a new PostgreSQL statement writer
func NewPostgreSQLWriter(db *sql.DB) *Writer {
	return &Writer{
		db:     db,
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the writer
func (w *Writer) WithLogger(l *slog.Logger) *Writer {
	tmp := *w
	tmp.logger = l
	return &tmp
}

// ExecuteSQL executes a statement in the active transaction, or directly when
// there is none
func (w *Writer) ExecuteSQL(ctx context.Context, statement string, args ...any) error {
	if w.dryRun {
		w.logger.Info("[DRY RUN] Would execute SQL", "sql", statement)
		return nil
	}

	w.logger.Debug("Executing SQL", "sql", statement)

	var err error
	if w.tx != nil {
		_, err = w.tx.ExecContext(ctx, statement, args...)
	} else {
		_, err = w.db.ExecContext(ctx, statement, args...)
	}
	if err != nil {
		return fmt.Errorf("failed to execute SQL %q: %w", statement, err)
	}
	return nil
}

// BeginTransaction starts a transaction
func (w *Writer) BeginTransaction(ctx context.Context) error {
	if w.dryRun {
		w.logger.Info("[DRY RUN] Would begin transaction")
		return nil
	}
	if w.tx != nil {
		return fmt.Errorf("transaction already in progress")
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	w.tx = tx
	return nil
}

// CommitTransaction commits the active transaction
func (w *Writer) CommitTransaction() error {
	if w.dryRun {
		w.logger.Info("[DRY RUN] Would commit transaction")
		return nil
	}
	if w.tx == nil {
		return ErrNoTransaction
	}

	err := w.tx.Commit()
	w.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the active transaction
func (w *Writer) RollbackTransaction() error {
	if w.dryRun {
		w.logger.Info("[DRY RUN] Would rollback transaction")
		return nil
	}
	if w.tx == nil {
		return ErrNoTransaction
	}

	err := w.tx.Rollback()
	w.tx = nil
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// SetDryRun toggles dry-run mode, in which statements are only logged
func (w *Writer) SetDryRun(dryRun bool) {
	w.dryRun = dryRun
}

// IsDryRun reports whether the writer is in dry-run mode
func (w *Writer) IsDryRun() bool {
	return w.dryRun
}
