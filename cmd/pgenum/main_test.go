package main

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestRootCommand(t *testing.T) {
	c := qt.New(t)

	root := newRootCommand()
	for _, path := range [][]string{
		{"schema", "create"},
		{"schema", "drop"},
		{"schema", "update"},
		{"schema", "rollback"},
		{"diff"},
		{"generate", "migration"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
	} {
		cmd, _, err := root.Find(path)
		c.Assert(err, qt.IsNil, qt.Commentf("%v", path))
		c.Assert(cmd.Name(), qt.Equals, path[len(path)-1])
	}
	c.Assert(root.PersistentFlags().Lookup("config"), qt.IsNotNil)
}
