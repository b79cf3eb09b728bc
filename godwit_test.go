package godwit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godwitdb/godwit/migration"
)

func Test_MigratorRequiresAGateway(t *testing.T) {
	m, closer, err := NewMigrator()

	assert.Nil(t, m)
	assert.Nil(t, closer)
	assert.ErrorIs(t, err, ErrGatewayNotInitialized)
}

func Test_ItCanMigrateAndRollbackOnSqliteFromMemorySource(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	files := map[string]string{
		"1596897167_create_foo_table.up.sql":   "CREATE TABLE foo (id INTEGER PRIMARY KEY);",
		"1596897167_create_foo_table.down.sql": "DROP TABLE foo;",
		"1596897188_create_bar_table.up.sql":   "CREATE TABLE bar (id INTEGER PRIMARY KEY);",
		"1596897188_create_bar_table.down.sql": "DROP TABLE bar;",
	}

	m, closer, err := NewMigrator(
		UseSqlite(db, WithSqliteLedgerTable("schema_history")),
		UseInMemorySource(files),
	)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closer()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := m.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.Result{Ran: 2, Batch: 1}, result)

	tables, err := m.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "foo"}, tables)

	entries, err := m.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1596897188_create_bar_table.up.sql", entries[0].Filename)
	assert.Equal(t, "1596897167_create_foo_table.up.sql", entries[1].Filename)

	reverted, err := m.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.Result{Ran: 2, Batch: 1}, reverted)

	tablesAfter, err := m.Tables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tablesAfter)
}

func Test_ItCanMigrateUpAndDownSqliteFromAGivenFolder(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	m, closer, err := NewMigrator(
		UseSqlite(db),
		UseLocalFolderSource("./stubs/valid/sqlite"),
	)
	require.NoError(t, err)
	defer func() { assert.NoError(t, closer()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := m.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.Result{Ran: 3, Batch: 1}, result)

	tables, err := m.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "baz", "foo"}, tables)

	createStmt, err := m.CreateStatement(ctx, "foo")
	require.NoError(t, err)
	assert.Contains(t, createStmt, "CREATE TABLE foo")

	assert.Equal(t, "DROP TABLE IF EXISTS foo;", m.DropStatement("foo"))

	dump, err := m.Dump(ctx)
	require.NoError(t, err)
	assert.Contains(t, dump, "bar")
	assert.Contains(t, dump, "baz")

	// baz has no revert counterpart, so reset leaves it in place
	reverted, err := m.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.Result{Ran: 2, Batch: 0}, reverted)

	tablesAfter, err := m.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"baz"}, tablesAfter)

	entries, err := m.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1597897177_create_baz_table.up.sql", entries[0].Filename)
}

func Test_StepsLimitTheFacadeRun(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	files := map[string]string{
		"1596897167_create_foo_table.up.sql":   "CREATE TABLE foo (id INTEGER PRIMARY KEY);",
		"1596897167_create_foo_table.down.sql": "DROP TABLE foo;",
		"1596897188_create_bar_table.up.sql":   "CREATE TABLE bar (id INTEGER PRIMARY KEY);",
		"1596897188_create_bar_table.down.sql": "DROP TABLE bar;",
	}

	m, closer, err := NewMigrator(UseSqlite(db), UseInMemorySource(files))
	require.NoError(t, err)
	defer func() { assert.NoError(t, closer()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := m.Migrate(ctx, WithSteps(1))
	require.NoError(t, err)
	assert.Equal(t, migration.Result{Ran: 1, Batch: 1}, result)

	tables, err := m.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, tables)
}

func Test_RefreshRebuildsTheSchema(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	files := map[string]string{
		"1596897167_create_foo_table.up.sql":   "CREATE TABLE foo (id INTEGER PRIMARY KEY);",
		"1596897167_create_foo_table.down.sql": "DROP TABLE foo;",
		"1596897188_create_bar_table.up.sql":   "CREATE TABLE bar (id INTEGER PRIMARY KEY);",
		"1596897188_create_bar_table.down.sql": "DROP TABLE bar;",
	}

	m, closer, err := NewMigrator(UseSqlite(db), UseInMemorySource(files))
	require.NoError(t, err)
	defer func() { assert.NoError(t, closer()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = m.Migrate(ctx)
	require.NoError(t, err)

	reverted, migrated, err := m.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, migration.Result{Ran: 2, Batch: 0}, reverted)
	assert.Equal(t, migration.Result{Ran: 2, Batch: 1}, migrated)

	tables, err := m.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "foo"}, tables)
}
