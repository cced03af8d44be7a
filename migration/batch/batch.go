// Package batch tracks the statements queued for each enum type during one
// migration planning run.
//
// When several columns share an enum type, generating "create or extend this
// type" once per column would emit the same statement several times. A
// MigrationBatch makes emission idempotent within a run and rejects runs that
// would both drop a type and create or use it.
package batch

import (
	"errors"
	"fmt"
	"slices"
)

// ErrSimultaneousManagement is matched by every SimultaneousManagementError.
var ErrSimultaneousManagement = errors.New("type is managed simultaneously")

// Ledger names the kind of statement recorded for a type.
type Ledger string

const (
	Persistence Ledger = "persisted"
	Usage       Ledger = "used"
	Removal     Ledger = "dropped"
)

// SimultaneousManagementError reports that one batch tried to both drop a type
// and persist or use it.
type SimultaneousManagementError struct {
	Type      string
	Queued    Ledger
	Attempted Ledger
}

func (e *SimultaneousManagementError) Error() string {
	return fmt.Sprintf("type %q is already queued to be %s and then attempted to be %s; SQL generation stopped, "+
		"change the columns and generate migrations one by one to avoid this", e.Type, e.Queued, e.Attempted)
}

// Is makes errors.Is(err, ErrSimultaneousManagement) match.
func (e *SimultaneousManagementError) Is(target error) bool {
	return target == ErrSimultaneousManagement
}

// MigrationBatch owns the persistence, usage and removal ledgers of one
// migration planning run. Create one per run; it is not safe for concurrent use.
type MigrationBatch struct {
	persistence map[string][]string
	usage       map[string][]string
	removal     map[string][]string
}

// New creates an empty batch.
func New() *MigrationBatch {
	return &MigrationBatch{
		persistence: make(map[string][]string),
		usage:       make(map[string][]string),
		removal:     make(map[string][]string),
	}
}

// AddPersistence records a statement creating or extending typeName. It
// returns false when the same statement was already recorded, in which case
// the caller must not emit it again.
func (b *MigrationBatch) AddPersistence(sql, typeName string) (bool, error) {
	if len(b.removal[typeName]) > 0 {
		return false, &SimultaneousManagementError{Type: typeName, Queued: Removal, Attempted: Persistence}
	}
	return record(b.persistence, sql, typeName), nil
}

// AddUsage records a statement making a column use typeName.
func (b *MigrationBatch) AddUsage(sql, typeName string) (bool, error) {
	if len(b.removal[typeName]) > 0 {
		return false, &SimultaneousManagementError{Type: typeName, Queued: Removal, Attempted: Usage}
	}
	return record(b.usage, sql, typeName), nil
}

// AddRemoval records a statement dropping typeName. It fails when the type was
// already persisted or used in this batch.
func (b *MigrationBatch) AddRemoval(sql, typeName string) (bool, error) {
	if len(b.persistence[typeName]) > 0 {
		return false, &SimultaneousManagementError{Type: typeName, Queued: Persistence, Attempted: Removal}
	}
	if len(b.usage[typeName]) > 0 {
		return false, &SimultaneousManagementError{Type: typeName, Queued: Usage, Attempted: Removal}
	}
	return record(b.removal, sql, typeName), nil
}

// FilterPersistence records every statement and returns the ones not recorded
// before, in order.
func (b *MigrationBatch) FilterPersistence(statements []string, typeName string) ([]string, error) {
	return filter(statements, typeName, b.AddPersistence)
}

// FilterUsage is FilterPersistence for usage statements.
func (b *MigrationBatch) FilterUsage(statements []string, typeName string) ([]string, error) {
	return filter(statements, typeName, b.AddUsage)
}

// FilterRemoval is FilterPersistence for removal statements.
func (b *MigrationBatch) FilterRemoval(statements []string, typeName string) ([]string, error) {
	return filter(statements, typeName, b.AddRemoval)
}

// IsPersisted reports whether persistence statements were recorded for typeName.
func (b *MigrationBatch) IsPersisted(typeName string) bool {
	return len(b.persistence[typeName]) > 0
}

// IsUsed reports whether usage statements were recorded for typeName.
func (b *MigrationBatch) IsUsed(typeName string) bool {
	return len(b.usage[typeName]) > 0
}

// IsRemoved reports whether removal statements were recorded for typeName.
func (b *MigrationBatch) IsRemoved(typeName string) bool {
	return len(b.removal[typeName]) > 0
}

// Reset clears all ledgers so the batch can be reused for an unrelated run.
func (b *MigrationBatch) Reset() {
	clear(b.persistence)
	clear(b.usage)
	clear(b.removal)
}

func record(ledger map[string][]string, sql, typeName string) bool {
	if slices.Contains(ledger[typeName], sql) {
		return false
	}
	ledger[typeName] = append(ledger[typeName], sql)
	return true
}

func filter(statements []string, typeName string, add func(sql, typeName string) (bool, error)) ([]string, error) {
	var result []string
	for _, sql := range statements {
		added, err := add(sql, typeName)
		if err != nil {
			return nil, err
		}
		if added {
			result = append(result, sql)
		}
	}
	return result, nil
}
