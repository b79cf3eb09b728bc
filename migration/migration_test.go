package migration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_ScriptCanBeSplitIntoStatements(t *testing.T) {
	tt := []struct {
		name       string
		script     string
		statements []string
	}{
		{
			name:       "single statement with no trailing separator",
			script:     "CREATE TABLE foo (id INT)",
			statements: []string{"CREATE TABLE foo (id INT)"},
		},
		{
			name:       "single statement with trailing separator",
			script:     "CREATE TABLE foo (id INT);",
			statements: []string{"CREATE TABLE foo (id INT)"},
		},
		{
			name:   "two statements separated by newlines",
			script: "CREATE TABLE foo (id INT);\n\nINSERT INTO foo (id) VALUES (1);\n",
			statements: []string{
				"CREATE TABLE foo (id INT)",
				"INSERT INTO foo (id) VALUES (1)",
			},
		},
		{
			name:   "three statements with uneven whitespace",
			script: "  CREATE TABLE foo (id INT) ;CREATE TABLE bar (id INT);\n\tCREATE INDEX foo_idx ON foo (id)  ",
			statements: []string{
				"CREATE TABLE foo (id INT)",
				"CREATE TABLE bar (id INT)",
				"CREATE INDEX foo_idx ON foo (id)",
			},
		},
		{
			name:       "empty script yields no statements",
			script:     "",
			statements: []string{},
		},
		{
			name:       "whitespace and separators only yield no statements",
			script:     " ;\n;  \t; ",
			statements: []string{},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.statements, Statements(tc.script))
		})
	}
}

func Test_DownNameIsDerivedFromUpName(t *testing.T) {
	tt := []struct {
		name string
		up   string
		down string
	}{
		{
			name: "timestamped migration",
			up:   "1596897167_create_foo_table.up.sql",
			down: "1596897167_create_foo_table.down.sql",
		},
		{
			name: "plain named migration",
			up:   "create_bar_table.up.sql",
			down: "create_bar_table.down.sql",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, IsUp(tc.up))
			assert.False(t, IsUp(tc.down))
			assert.Equal(t, tc.down, DownName(tc.up))
			assert.Equal(t, Base(tc.up), Base(tc.down))
		})
	}
}

func Test_GeneratedBasesSortChronologically(t *testing.T) {
	clockAt := func(sec int64) ClockFunc {
		return func() time.Time { return time.Unix(sec, 0) }
	}

	first := GenerateBase(clockAt(1596897167), "create foo table")
	second := GenerateBase(clockAt(1596897168), "Create Bar-Table")

	assert.Equal(t, "1596897167_create_foo_table", first)
	assert.Equal(t, "1596897168_create_bar_table", second)
	assert.Less(t, first, second)
}
