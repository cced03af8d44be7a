package planner_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"

	"github.com/enumeum/pgenum/core/enumchanges"
	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/migration/planner"
	"github.com/enumeum/pgenum/migration/schemadiff"
	"github.com/enumeum/pgenum/migration/schemadiff/types"
)

func assertStatements(c *qt.C, got, want []string) {
	c.Helper()
	if d := cmp.Diff(want, got); d != "" {
		c.Fatalf("unexpected statements (-want +got):\n%s", d)
	}
}

func TestGenerateCreate(t *testing.T) {
	c := qt.New(t)

	got := planner.GenerateCreate([]enumdef.Definition{
		enumdef.NewDefinition("status_type", "started", "processing", "finished"),
	})
	assertStatements(c, got, []string{
		"CREATE TYPE status_type AS ENUM ('started', 'processing', 'finished')",
	})
}

func TestGenerateDrop(t *testing.T) {
	c := qt.New(t)

	got := planner.GenerateDrop([]enumdef.Definition{
		enumdef.NewDefinition("status_type", "started"),
		enumdef.NewDefinition("kind_type"),
	})
	assertStatements(c, got, []string{
		"DROP TYPE IF EXISTS status_type",
		"DROP TYPE IF EXISTS kind_type",
	})
}

func TestGenerateAlterAppend(t *testing.T) {
	c := qt.New(t)

	got, err := planner.GenerateAlterAppend([]types.DefinitionDiff{{
		From:   enumdef.NewDefinition("status_type", "a", "b", "c"),
		Target: enumdef.NewDefinition("status_type", "a", "b", "c", "d", "e"),
	}})
	c.Assert(err, qt.IsNil)
	assertStatements(c, got, []string{
		"ALTER TYPE status_type ADD VALUE IF NOT EXISTS 'd'",
		"ALTER TYPE status_type ADD VALUE IF NOT EXISTS 'e'",
	})
}

func TestGenerateAlterAppend_ReorderingProhibited(t *testing.T) {
	c := qt.New(t)

	got, err := planner.GenerateAlterAppend([]types.DefinitionDiff{
		{
			From:   enumdef.NewDefinition("kind_type", "a"),
			Target: enumdef.NewDefinition("kind_type", "a", "b"),
		},
		{
			From:   enumdef.NewDefinition("status_type", "started", "processing", "finished"),
			Target: enumdef.NewDefinition("status_type", "started", "finished"),
		},
	})
	c.Assert(got, qt.IsNil)
	c.Assert(errors.Is(err, enumchanges.ErrReorderingProhibited), qt.IsTrue)
	c.Assert(err.Error(), qt.Contains, "status_type")
}

func TestGenerateReorder(t *testing.T) {
	tests := []struct {
		name     string
		usage    *enumdef.Usage
		expected []string
	}{
		{
			name:  "no usage",
			usage: nil,
			expected: []string{
				"ALTER TYPE status_type RENAME TO status_type__",
				"CREATE TYPE status_type AS ENUM ('started', 'finished')",
				"DROP TYPE IF EXISTS status_type__",
			},
		},
		{
			name: "usage with default",
			usage: enumdef.NewUsage("status_type", enumdef.UsageColumn{
				Table:   "entity",
				Column:  "status",
				Default: enumdef.StringPtr("'started'::status_type"),
			}),
			expected: []string{
				"ALTER TYPE status_type RENAME TO status_type__",
				"CREATE TYPE status_type AS ENUM ('started', 'finished')",
				"LOCK TABLE entity",
				"ALTER TABLE entity ALTER COLUMN status DROP DEFAULT",
				"ALTER TABLE entity ALTER COLUMN status TYPE status_type USING status::text::status_type",
				"ALTER TABLE entity ALTER COLUMN status SET DEFAULT 'started'::status_type",
				"DROP TYPE IF EXISTS status_type__",
			},
		},
		{
			name: "several columns keep usage order",
			usage: enumdef.NewUsage("status_type",
				enumdef.UsageColumn{Table: "entity", Column: "status"},
				enumdef.UsageColumn{Table: "another", Column: "state", Default: enumdef.StringPtr("'finished'::status_type")},
			),
			expected: []string{
				"ALTER TYPE status_type RENAME TO status_type__",
				"CREATE TYPE status_type AS ENUM ('started', 'finished')",
				"LOCK TABLE entity",
				"ALTER TABLE entity ALTER COLUMN status TYPE status_type USING status::text::status_type",
				"LOCK TABLE another",
				"ALTER TABLE another ALTER COLUMN state DROP DEFAULT",
				"ALTER TABLE another ALTER COLUMN state TYPE status_type USING state::text::status_type",
				"ALTER TABLE another ALTER COLUMN state SET DEFAULT 'finished'::status_type",
				"DROP TYPE IF EXISTS status_type__",
			},
		},
		{
			name: "materialized view column is not recast",
			usage: enumdef.NewUsage("status_type",
				enumdef.UsageColumn{Table: "entity", Column: "status"},
				enumdef.UsageColumn{Table: "entity_report", Column: "status", MaterializedView: true},
			),
			expected: []string{
				"ALTER TYPE status_type RENAME TO status_type__",
				"CREATE TYPE status_type AS ENUM ('started', 'finished')",
				"LOCK TABLE entity",
				"ALTER TABLE entity ALTER COLUMN status TYPE status_type USING status::text::status_type",
				"DROP TYPE IF EXISTS status_type__",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			got := planner.GenerateReorder([]types.DefinitionDiff{{
				From:   enumdef.NewDefinition("status_type", "started", "processing", "finished"),
				Target: enumdef.NewDefinition("status_type", "started", "finished"),
				Usage:  tt.usage,
			}})
			assertStatements(c, got, tt.expected)
		})
	}
}

func TestGenerateSchemaDiffSQLStatements_BatchOrdering(t *testing.T) {
	c := qt.New(t)

	// names chosen so that alphabetical order differs from execution order
	current := types.NewSchema([]enumdef.Definition{
		enumdef.NewDefinition("z_dropped", "x"),
		enumdef.NewDefinition("b_reordered", "a", "b"),
		enumdef.NewDefinition("a_appended", "a"),
	}, nil)
	target := types.NewSchema([]enumdef.Definition{
		enumdef.NewDefinition("b_reordered", "b", "a"),
		enumdef.NewDefinition("a_appended", "a", "b"),
		enumdef.NewDefinition("a_created", "n"),
	}, nil)

	got, err := planner.GenerateSchemaDiffSQLStatements(schemadiff.Compare(current, target))
	c.Assert(err, qt.IsNil)
	assertStatements(c, got, []string{
		"DROP TYPE IF EXISTS z_dropped",
		"ALTER TYPE b_reordered RENAME TO b_reordered__",
		"CREATE TYPE b_reordered AS ENUM ('b', 'a')",
		"DROP TYPE IF EXISTS b_reordered__",
		"ALTER TYPE a_appended ADD VALUE IF NOT EXISTS 'b'",
		"CREATE TYPE a_created AS ENUM ('n')",
	})
}

func TestGenerateSchemaDiffSQLStatements_Options(t *testing.T) {
	c := qt.New(t)

	diff := &types.SchemaDiff{
		Create: []enumdef.Definition{enumdef.NewDefinition("new_type", "a")},
		Drop:   []enumdef.Definition{enumdef.NewDefinition("old_type", "a")},
	}

	got, err := planner.GenerateSchemaDiffSQLStatements(diff, planner.WithoutDropping())
	c.Assert(err, qt.IsNil)
	assertStatements(c, got, []string{"CREATE TYPE new_type AS ENUM ('a')"})

	got, err = planner.GenerateSchemaDiffSQLStatements(diff, planner.WithoutCreating())
	c.Assert(err, qt.IsNil)
	assertStatements(c, got, []string{"DROP TYPE IF EXISTS old_type"})
}

func TestGenerateSchemaDiffSQLStatements_NoChanges(t *testing.T) {
	c := qt.New(t)

	got, err := planner.GenerateSchemaDiffSQLStatements(&types.SchemaDiff{})
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 0)
}
