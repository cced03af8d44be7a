package postgres_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/enumeum/pgenum/core/enumdef"
	"github.com/enumeum/pgenum/dbschema/postgres"
	"github.com/enumeum/pgenum/dbschema/types"
)

func TestNewPostgreSQLReader_DefaultSchema(t *testing.T) {
	c := qt.New(t)

	c.Assert(postgres.NewPostgreSQLReader(nil, "").Schema(), qt.Equals, "public")
	c.Assert(postgres.NewPostgreSQLReader(nil, "billing").Schema(), qt.Equals, "billing")
}

func TestGroupDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		rows     []types.DBEnumValue
		expected []enumdef.Definition
	}{
		{
			name:     "no rows",
			rows:     nil,
			expected: []enumdef.Definition{},
		},
		{
			name: "labels follow sort order",
			rows: []types.DBEnumValue{
				{TypeName: "status_type", Value: "finished", SortOrder: 3},
				{TypeName: "status_type", Value: "started", SortOrder: 1},
				// ADD VALUE BEFORE yields fractional sort orders
				{TypeName: "status_type", Value: "processing", SortOrder: 1.5},
			},
			expected: []enumdef.Definition{
				enumdef.NewDefinition("status_type", "started", "processing", "finished"),
			},
		},
		{
			name: "types sorted by name",
			rows: []types.DBEnumValue{
				{TypeName: "zeta_type", Value: "z", SortOrder: 1},
				{TypeName: "alpha_type", Value: "a", SortOrder: 1},
				{TypeName: "alpha_type", Value: "b", SortOrder: 2},
			},
			expected: []enumdef.Definition{
				enumdef.NewDefinition("alpha_type", "a", "b"),
				enumdef.NewDefinition("zeta_type", "z"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(postgres.GroupDefinitions(tt.rows), qt.DeepEquals, tt.expected)
		})
	}
}

func TestGroupUsages(t *testing.T) {
	c := qt.New(t)

	rows := []types.DBEnumUsage{
		{TypeName: "status_type", Table: "entity", Column: "status", Default: enumdef.StringPtr("'started'::status_type"), RelKind: "r"},
		{TypeName: "kind_type", Table: "entity", Column: "kind", RelKind: "r"},
		{TypeName: "status_type", Table: "entity_report", Column: "status", RelKind: "m"},
		{TypeName: "status_type", Table: "entity", Column: "status", RelKind: "r"},
	}

	usages := postgres.GroupUsages(rows)
	c.Assert(usages, qt.HasLen, 2)

	c.Assert(usages[0].Name, qt.Equals, "kind_type")
	c.Assert(usages[0].Columns, qt.HasLen, 1)

	status := usages[1]
	c.Assert(status.Name, qt.Equals, "status_type")
	c.Assert(status.Columns, qt.HasLen, 2)
	c.Assert(status.Has("entity", "status"), qt.IsTrue)
	c.Assert(status.Has("entity_report", "status"), qt.IsTrue)
	c.Assert(status.Columns[0].HasDefault(), qt.IsTrue)
	c.Assert(*status.Columns[0].Default, qt.Equals, "'started'::status_type")
	c.Assert(status.Columns[0].Name, qt.Equals, "status_type")
	c.Assert(status.Columns[0].IsAlterable(), qt.IsTrue)
	c.Assert(status.Columns[1].MaterializedView, qt.IsTrue)
	c.Assert(status.Columns[1].IsAlterable(), qt.IsFalse)
}
