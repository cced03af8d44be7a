package hooks_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/enumeum/pgenum/config"
	"github.com/enumeum/pgenum/core/enumchanges"
	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/migration/batch"
	"github.com/enumeum/pgenum/migration/hooks"
	"github.com/enumeum/pgenum/migration/schemadiff/types"
)

func registry(c *qt.C, defs ...enumdef.Definition) *enumdef.Registry {
	r := enumdef.NewRegistry()
	for _, def := range defs {
		c.Assert(r.Register("test", def), qt.IsNil)
	}
	return r
}

func TestAddColumn_CreatesTypeOnce(t *testing.T) {
	c := qt.New(t)

	h := hooks.NewColumnHandler(
		registry(c, enumdef.NewDefinition("status_type", "started", "processing", "finished")),
		types.NewSchema(nil, nil),
		nil,
	)

	first, err := h.AddColumn("entity", "status", "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(first, qt.DeepEquals, []string{
		"CREATE TYPE status_type AS ENUM ('started', 'processing', 'finished')",
		"ALTER TABLE entity ADD COLUMN status status_type",
	})

	second, err := h.AddColumn("another_entity", "status", "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(second, qt.DeepEquals, []string{
		"ALTER TABLE another_entity ADD COLUMN status status_type",
	})
}

func TestAddColumn_AppendsValues(t *testing.T) {
	c := qt.New(t)

	h := hooks.NewColumnHandler(
		registry(c, enumdef.NewDefinition("status_type", "started", "processing", "finished")),
		types.NewSchema([]enumdef.Definition{enumdef.NewDefinition("status_type", "started", "processing")}, nil),
		batch.New(),
	)

	got, err := h.AddColumn("entity", "status", "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []string{
		"ALTER TYPE status_type ADD VALUE IF NOT EXISTS 'finished'",
		"ALTER TABLE entity ADD COLUMN status status_type",
	})
}

func TestAddColumn_ReorderingProhibited(t *testing.T) {
	tests := []struct {
		name    string
		current []string
	}{
		{name: "removed from the middle", current: []string{"started", "processing", "finished"}},
		{name: "trailing label removed", current: []string{"started", "finished", "processing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			h := hooks.NewColumnHandler(
				registry(c, enumdef.NewDefinition("status_type", "started", "finished")),
				types.NewSchema([]enumdef.Definition{enumdef.NewDefinition("status_type", tt.current...)}, nil),
				nil,
			)

			got, err := h.AddColumn("entity", "status", "status_type")
			c.Assert(got, qt.IsNil)
			c.Assert(errors.Is(err, enumchanges.ErrReorderingProhibited), qt.IsTrue)
			c.Assert(err.Error(), qt.Contains, "status_type")
		})
	}
}

func TestAddColumn_UndeclaredType(t *testing.T) {
	c := qt.New(t)

	h := hooks.NewColumnHandler(registry(c), nil, nil)

	_, err := h.AddColumn("entity", "status", "status_type")
	c.Assert(errors.Is(err, hooks.ErrUndeclaredType), qt.IsTrue)
}

func TestRemoveColumn_LastUsageDropsType(t *testing.T) {
	c := qt.New(t)

	database := types.NewSchema(
		[]enumdef.Definition{enumdef.NewDefinition("status_type", "started", "finished")},
		[]*enumdef.Usage{enumdef.NewUsage("status_type", enumdef.UsageColumn{Table: "entity", Column: "status"})},
	)
	h := hooks.NewColumnHandler(registry(c, enumdef.NewDefinition("status_type", "started", "finished")), database, nil)

	got, err := h.RemoveColumn("entity", "status", "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []string{
		"ALTER TABLE entity DROP COLUMN status",
		"DROP TYPE IF EXISTS status_type",
	})
	c.Assert(h.Batch().IsRemoved("status_type"), qt.IsTrue)
}

func TestRemoveColumn_TypeScope(t *testing.T) {
	database := types.NewSchema(
		[]enumdef.Definition{
			enumdef.NewDefinition("status_type", "started"),
			enumdef.NewDefinition("foreign_type", "x"),
		},
		[]*enumdef.Usage{
			enumdef.NewUsage("status_type", enumdef.UsageColumn{Table: "entity", Column: "status"}),
			enumdef.NewUsage("foreign_type", enumdef.UsageColumn{Table: "legacy", Column: "kind"}),
		},
	)

	tests := []struct {
		name     string
		opts     *config.CompareOptions
		table    string
		column   string
		typeName string
		expected []string
	}{
		{
			name:     "undeclared type left in place",
			table:    "legacy",
			column:   "kind",
			typeName: "foreign_type",
			expected: []string{"ALTER TABLE legacy DROP COLUMN kind"},
		},
		{
			name:     "managed undeclared type dropped",
			opts:     config.WithManagedTypes("foreign_type"),
			table:    "legacy",
			column:   "kind",
			typeName: "foreign_type",
			expected: []string{"ALTER TABLE legacy DROP COLUMN kind", "DROP TYPE IF EXISTS foreign_type"},
		},
		{
			name:     "every type managed",
			opts:     &config.CompareOptions{DropUnmanaged: true},
			table:    "legacy",
			column:   "kind",
			typeName: "foreign_type",
			expected: []string{"ALTER TABLE legacy DROP COLUMN kind", "DROP TYPE IF EXISTS foreign_type"},
		},
		{
			name:     "ignored declared type left in place",
			opts:     config.WithIgnoredTypes("status_type"),
			table:    "entity",
			column:   "status",
			typeName: "status_type",
			expected: []string{"ALTER TABLE entity DROP COLUMN status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			h := hooks.NewColumnHandler(
				registry(c, enumdef.NewDefinition("status_type", "started")),
				database,
				nil,
			).WithCompareOptions(tt.opts)

			got, err := h.RemoveColumn(tt.table, tt.column, tt.typeName)
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.DeepEquals, tt.expected)
			c.Assert(h.Batch().IsRemoved(tt.typeName), qt.Equals, len(tt.expected) == 2)
		})
	}
}

func TestAddColumn_IgnoredType(t *testing.T) {
	c := qt.New(t)

	h := hooks.NewColumnHandler(registry(c), nil, nil).
		WithCompareOptions(config.WithIgnoredTypes("postgis_type"))

	got, err := h.AddColumn("entity", "shape", "postgis_type")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []string{"ALTER TABLE entity ADD COLUMN shape postgis_type"})
}

func TestRemoveColumn_UsedElsewhereKeepsType(t *testing.T) {
	c := qt.New(t)

	database := types.NewSchema(
		[]enumdef.Definition{enumdef.NewDefinition("status_type", "started")},
		[]*enumdef.Usage{enumdef.NewUsage("status_type",
			enumdef.UsageColumn{Table: "entity", Column: "status"},
			enumdef.UsageColumn{Table: "another_entity", Column: "status"},
		)},
	)
	h := hooks.NewColumnHandler(
		registry(c, enumdef.NewDefinition("status_type", "started", "finished")),
		database,
		nil,
	)

	got, err := h.RemoveColumn("entity", "status", "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []string{
		"ALTER TABLE entity DROP COLUMN status",
		"ALTER TYPE status_type ADD VALUE IF NOT EXISTS 'finished'",
	})
}

func TestRemoveColumn_AllColumnsOfUnchangedType(t *testing.T) {
	c := qt.New(t)

	database := types.NewSchema(
		[]enumdef.Definition{enumdef.NewDefinition("status_type", "started")},
		[]*enumdef.Usage{enumdef.NewUsage("status_type",
			enumdef.UsageColumn{Table: "entity", Column: "status"},
			enumdef.UsageColumn{Table: "another_entity", Column: "status"},
		)},
	)
	h := hooks.NewColumnHandler(registry(c, enumdef.NewDefinition("status_type", "started")), database, nil)

	first, err := h.RemoveColumn("entity", "status", "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(first, qt.DeepEquals, []string{"ALTER TABLE entity DROP COLUMN status"})

	second, err := h.RemoveColumn("another_entity", "status", "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(second, qt.DeepEquals, []string{
		"ALTER TABLE another_entity DROP COLUMN status",
		"DROP TYPE IF EXISTS status_type",
	})
}

func TestRemoveThenAdd_SimultaneousManagement(t *testing.T) {
	c := qt.New(t)

	database := types.NewSchema(
		[]enumdef.Definition{enumdef.NewDefinition("status_type", "started")},
		[]*enumdef.Usage{enumdef.NewUsage("status_type", enumdef.UsageColumn{Table: "entity", Column: "status"})},
	)
	h := hooks.NewColumnHandler(registry(c, enumdef.NewDefinition("status_type", "started")), database, nil)

	_, err := h.RemoveColumn("entity", "status", "status_type")
	c.Assert(err, qt.IsNil)

	_, err = h.AddColumn("another_entity", "status", "status_type")
	c.Assert(errors.Is(err, batch.ErrSimultaneousManagement), qt.IsTrue)
}

func TestAddThenRemove_KeepsQueuedType(t *testing.T) {
	c := qt.New(t)

	database := types.NewSchema(
		[]enumdef.Definition{enumdef.NewDefinition("status_type", "started")},
		[]*enumdef.Usage{enumdef.NewUsage("status_type", enumdef.UsageColumn{Table: "entity", Column: "status"})},
	)
	h := hooks.NewColumnHandler(registry(c, enumdef.NewDefinition("status_type", "started")), database, nil)

	_, err := h.AddColumn("another_entity", "status", "status_type")
	c.Assert(err, qt.IsNil)

	got, err := h.RemoveColumn("entity", "status", "status_type")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []string{"ALTER TABLE entity DROP COLUMN status"})
	c.Assert(h.Batch().IsRemoved("status_type"), qt.IsFalse)
}

func TestChangeColumn(t *testing.T) {
	database := types.NewSchema(
		[]enumdef.Definition{
			enumdef.NewDefinition("old_type", "a"),
			enumdef.NewDefinition("status_type", "started"),
		},
		[]*enumdef.Usage{
			enumdef.NewUsage("old_type", enumdef.UsageColumn{Table: "entity", Column: "status"}),
			enumdef.NewUsage("status_type", enumdef.UsageColumn{Table: "another_entity", Column: "status"}),
		},
	)

	tests := []struct {
		name     string
		opts     *config.CompareOptions
		fromType string
		toType   string
		expected []string
	}{
		{
			name:     "same type gets extended",
			fromType: "status_type",
			toType:   "status_type",
			expected: []string{"ALTER TYPE status_type ADD VALUE IF NOT EXISTS 'finished'"},
		},
		{
			name:     "switch from the last use of an undeclared enum",
			fromType: "old_type",
			toType:   "status_type",
			expected: []string{
				"ALTER TYPE status_type ADD VALUE IF NOT EXISTS 'finished'",
				"ALTER TABLE entity ALTER COLUMN status TYPE status_type USING status::text::status_type",
			},
		},
		{
			name:     "switch from the last use of a managed enum",
			opts:     config.WithManagedTypes("old_type"),
			fromType: "old_type",
			toType:   "status_type",
			expected: []string{
				"ALTER TYPE status_type ADD VALUE IF NOT EXISTS 'finished'",
				"ALTER TABLE entity ALTER COLUMN status TYPE status_type USING status::text::status_type",
				"DROP TYPE IF EXISTS old_type",
			},
		},
		{
			name:     "switch to a plain column releases the managed enum",
			opts:     config.WithManagedTypes("old_type"),
			fromType: "old_type",
			toType:   "",
			expected: []string{"DROP TYPE IF EXISTS old_type"},
		},
		{
			name:     "switch to a plain column keeps an enum used elsewhere",
			fromType: "status_type",
			toType:   "",
			expected: []string{"ALTER TYPE status_type ADD VALUE IF NOT EXISTS 'finished'"},
		},
		{
			name:     "plain column stays plain",
			fromType: "",
			toType:   "",
			expected: nil,
		},
		{
			name:     "switch from a plain column",
			fromType: "",
			toType:   "status_type",
			expected: []string{
				"ALTER TYPE status_type ADD VALUE IF NOT EXISTS 'finished'",
				"ALTER TABLE entity ALTER COLUMN status TYPE status_type USING status::text::status_type",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			h := hooks.NewColumnHandler(
				registry(c, enumdef.NewDefinition("status_type", "started", "finished")),
				database,
				nil,
			).WithCompareOptions(tt.opts)
			got, err := h.ChangeColumn("entity", "status", tt.fromType, tt.toType)
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.DeepEquals, tt.expected)
		})
	}
}

func TestIsManaged(t *testing.T) {
	c := qt.New(t)

	h := hooks.NewColumnHandler(
		registry(c, enumdef.NewDefinition("status_type", "a")),
		types.NewSchema([]enumdef.Definition{enumdef.NewDefinition("legacy_type", "b")}, nil),
		nil,
	)
	c.Assert(h.IsManaged("status_type"), qt.IsTrue)
	c.Assert(h.IsManaged("legacy_type"), qt.IsTrue)
	c.Assert(h.IsManaged("varchar"), qt.IsFalse)
}
