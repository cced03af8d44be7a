// Package enumchanges compares the current label order of an enum type with a
// target one.
//
// PostgreSQL can only append labels to an existing enum type in a portable,
// transaction-safe way. Any other change (a removed label, a swapped pair, a
// label inserted in the middle) requires recreating the type. The functions in
// this package tell the two cases apart by comparing labels positionally: the
// array index acts as the implicit sort key of the enum.
package enumchanges

import (
	"errors"
	"fmt"
)

// ErrReorderingProhibited is returned when the append-only path is asked to
// handle a change that displaces an existing label. Such changes must go
// through the reorder path instead.
var ErrReorderingProhibited = errors.New("enum should not be reordered on the append-only path, use the reorder path for that")

// IsChanged reports whether target differs from current at any position. An
// appended suffix, a swap and a removal all count as changes.
//
// A target that is a truncated prefix of current (dropping trailing labels)
// is reported as changed as well, even though every position of target still
// matches. PostgreSQL cannot remove a label in place, so such a change goes
// through the reorder path; see IsReorderingRequired.
func IsChanged(current, target []string) bool {
	if len(current) > len(target) {
		return true
	}
	for i, value := range target {
		if i >= len(current) || current[i] != value {
			return true
		}
	}
	return false
}

// IsReorderingRequired reports whether the change from current to target is
// anything other than a pure suffix append: a position present in both holds a
// different label, or trailing labels were removed.
func IsReorderingRequired(current, target []string) bool {
	if len(target) < len(current) {
		return true
	}
	for i := range current {
		if current[i] != target[i] {
			return true
		}
	}
	return false
}

// ResolveAddingValues returns, in target order, the labels that must be
// appended to current to reach target. It fails with ErrReorderingProhibited
// if a position present in both holds different labels.
//
// Callers should only use it when IsReorderingRequired is false.
func ResolveAddingValues(current, target []string) ([]string, error) {
	var adding []string
	for i, value := range target {
		if i >= len(current) {
			adding = append(adding, value)
			continue
		}
		if current[i] != value {
			return nil, fmt.Errorf("%w: label %q at position %d would replace %q", ErrReorderingProhibited, value, i, current[i])
		}
	}
	return adding, nil
}
