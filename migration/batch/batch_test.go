package batch_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/enumeum/pgenum/migration/batch"
)

const createStatus = "CREATE TYPE status_type AS ENUM ('started', 'finished')"

func TestAddPersistence_Deduplicates(t *testing.T) {
	c := qt.New(t)

	b := batch.New()

	added, err := b.AddPersistence(createStatus, "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(added, qt.IsTrue)

	added, err = b.AddPersistence(createStatus, "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(added, qt.IsFalse)

	c.Assert(b.IsPersisted("status_type"), qt.IsTrue)
	c.Assert(b.IsPersisted("other_type"), qt.IsFalse)
}

func TestFilterPersistence(t *testing.T) {
	c := qt.New(t)

	b := batch.New()
	statements := []string{
		"ALTER TYPE status_type ADD VALUE IF NOT EXISTS 'a'",
		"ALTER TYPE status_type ADD VALUE IF NOT EXISTS 'b'",
	}

	first, err := b.FilterPersistence(statements, "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(first, qt.DeepEquals, statements)

	second, err := b.FilterPersistence(statements, "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(second, qt.HasLen, 0)
}

func TestSimultaneousManagement(t *testing.T) {
	tests := []struct {
		name      string
		first     func(b *batch.MigrationBatch) (bool, error)
		second    func(b *batch.MigrationBatch) (bool, error)
		queued    batch.Ledger
		attempted batch.Ledger
		message   string
	}{
		{
			name:      "dropped then persisted",
			first:     func(b *batch.MigrationBatch) (bool, error) { return b.AddRemoval("DROP", "status_type") },
			second:    func(b *batch.MigrationBatch) (bool, error) { return b.AddPersistence("CREATE", "status_type") },
			queued:    batch.Removal,
			attempted: batch.Persistence,
			message:   `type "status_type" is already queued to be dropped and then attempted to be persisted.*`,
		},
		{
			name:      "dropped then used",
			first:     func(b *batch.MigrationBatch) (bool, error) { return b.AddRemoval("DROP", "status_type") },
			second:    func(b *batch.MigrationBatch) (bool, error) { return b.AddUsage("ALTER TABLE", "status_type") },
			queued:    batch.Removal,
			attempted: batch.Usage,
			message:   `type "status_type" is already queued to be dropped and then attempted to be used.*`,
		},
		{
			name:      "persisted then dropped",
			first:     func(b *batch.MigrationBatch) (bool, error) { return b.AddPersistence("CREATE", "status_type") },
			second:    func(b *batch.MigrationBatch) (bool, error) { return b.AddRemoval("DROP", "status_type") },
			queued:    batch.Persistence,
			attempted: batch.Removal,
			message:   `type "status_type" is already queued to be persisted and then attempted to be dropped.*`,
		},
		{
			name:      "used then dropped",
			first:     func(b *batch.MigrationBatch) (bool, error) { return b.AddUsage("ALTER TABLE", "status_type") },
			second:    func(b *batch.MigrationBatch) (bool, error) { return b.AddRemoval("DROP", "status_type") },
			queued:    batch.Usage,
			attempted: batch.Removal,
			message:   `type "status_type" is already queued to be used and then attempted to be dropped.*`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			b := batch.New()
			_, err := tt.first(b)
			c.Assert(err, qt.IsNil)

			added, err := tt.second(b)
			c.Assert(added, qt.IsFalse)
			c.Assert(errors.Is(err, batch.ErrSimultaneousManagement), qt.IsTrue)
			c.Assert(err, qt.ErrorMatches, tt.message)

			var smErr *batch.SimultaneousManagementError
			c.Assert(errors.As(err, &smErr), qt.IsTrue)
			c.Assert(smErr.Type, qt.Equals, "status_type")
			c.Assert(smErr.Queued, qt.Equals, tt.queued)
			c.Assert(smErr.Attempted, qt.Equals, tt.attempted)
		})
	}
}

func TestLedgersArePerType(t *testing.T) {
	c := qt.New(t)

	b := batch.New()
	_, err := b.AddRemoval("DROP TYPE IF EXISTS a_type", "a_type")
	c.Assert(err, qt.IsNil)

	added, err := b.AddPersistence("CREATE TYPE b_type AS ENUM ('x')", "b_type")
	c.Assert(err, qt.IsNil)
	c.Assert(added, qt.IsTrue)
}

func TestReset(t *testing.T) {
	c := qt.New(t)

	b := batch.New()
	_, err := b.AddRemoval("DROP TYPE IF EXISTS status_type", "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(b.IsRemoved("status_type"), qt.IsTrue)

	b.Reset()
	c.Assert(b.IsRemoved("status_type"), qt.IsFalse)

	added, err := b.AddPersistence(createStatus, "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(added, qt.IsTrue)
}

func TestFilterRemoval_StopsOnConflict(t *testing.T) {
	c := qt.New(t)

	b := batch.New()
	_, err := b.AddUsage("ALTER TABLE entity ADD COLUMN status status_type", "status_type")
	c.Assert(err, qt.IsNil)

	out, err := b.FilterRemoval([]string{"DROP TYPE IF EXISTS status_type"}, "status_type")
	c.Assert(out, qt.IsNil)
	c.Assert(errors.Is(err, batch.ErrSimultaneousManagement), qt.IsTrue)
}
