package sqlgateway

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godwitdb/godwit/internal/database"
	"github.com/godwitdb/godwit/internal/source"
	"github.com/godwitdb/godwit/migration"
)

func newMockedMySQLGateway(t *testing.T) (*Gateway, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	co := &ConnectOptions{
		MaxAttempts: 1,
		MaxTimeout:  time.Second,
		RetryStep:   time.Millisecond,
	}

	return NewMySQLGateway(sqlx.NewDb(db, "sqlmock"), co, "migrations", "utf8"), mock
}

func expectLedgerInit(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectLastBatch(mock sqlmock.Sqlmock, last int) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(`batch`), 0) FROM migrations;")).
		WillReturnRows(sqlmock.NewRows([]string{"batch"}).AddRow(last))
}

func expectEntries(mock sqlmock.Sqlmock, entries ...database.Entry) {
	rows := sqlmock.NewRows([]string{"filename", "batch"})
	for _, e := range entries {
		rows.AddRow(e.Filename, e.Batch)
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT `filename`, `batch` FROM migrations ORDER BY `batch` DESC, `filename` DESC;")).
		WillReturnRows(rows)
}

func Test_MySQLGateway_ConnectionFailureIsFatal(t *testing.T) {
	g, mock := newMockedMySQLGateway(t)

	mock.ExpectPing().WillReturnError(errors.New("server has gone away"))

	src := source.NewInMemory(map[string]string{
		"1596897167_create_foo_table.up.sql": "CREATE TABLE foo (id INT);",
	})

	_, err := g.Migrate(context.Background(), src, database.Plan{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db ping failed")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_MySQLGateway_BrokenStatementIsLoggedAndTheRunContinues(t *testing.T) {
	g, mock := newMockedMySQLGateway(t)

	mock.ExpectPing()
	expectLedgerInit(mock)
	expectLastBatch(mock, 4)
	expectEntries(mock)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE broken (id INT")).
		WillReturnError(errors.New("syntax error"))

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE ok (id INT)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO migrations (`filename`, `batch`) VALUES (?, ?);")).
		WithArgs("1596897188_create_ok_table.up.sql", 5).
		WillReturnResult(sqlmock.NewResult(1, 1))

	src := source.NewInMemory(map[string]string{
		"1596897167_create_broken_table.up.sql": "CREATE TABLE broken (id INT",
		"1596897188_create_ok_table.up.sql":     "CREATE TABLE ok (id INT);",
	})

	res, err := g.Migrate(context.Background(), src, database.Plan{})
	require.NoError(t, err)
	assert.Equal(t, migration.Result{Ran: 1, Batch: 5}, res)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_MySQLGateway_LedgerWriteFailureAbortsTheRun(t *testing.T) {
	g, mock := newMockedMySQLGateway(t)

	mock.ExpectPing()
	expectLedgerInit(mock)
	expectLastBatch(mock, 0)
	expectEntries(mock)

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE foo (id INT)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO migrations (`filename`, `batch`) VALUES (?, ?);")).
		WithArgs("1596897167_create_foo_table.up.sql", 1).
		WillReturnError(errors.New("disk full"))

	src := source.NewInMemory(map[string]string{
		"1596897167_create_foo_table.up.sql": "CREATE TABLE foo (id INT);",
	})

	res, err := g.Migrate(context.Background(), src, database.Plan{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not record")
	assert.Contains(t, err.Error(), "operation [migrate] failed")
	assert.Equal(t, 0, res.Ran)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_MySQLGateway_LedgerDeleteFailureAbortsTheRollback(t *testing.T) {
	g, mock := newMockedMySQLGateway(t)

	mock.ExpectPing()
	expectLedgerInit(mock)
	expectLastBatch(mock, 2)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT `filename`, `batch` FROM migrations WHERE `batch` = ? ORDER BY `filename` DESC;")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"filename", "batch"}).
			AddRow("1596897167_create_foo_table.up.sql", 2))

	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE foo")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM migrations WHERE `filename` = ? AND `batch` = ?;")).
		WithArgs("1596897167_create_foo_table.up.sql", 2).
		WillReturnError(errors.New("lock wait timeout"))

	src := source.NewInMemory(map[string]string{
		"1596897167_create_foo_table.up.sql":   "CREATE TABLE foo (id INT);",
		"1596897167_create_foo_table.down.sql": "DROP TABLE foo;",
	})

	res, err := g.Rollback(context.Background(), src, database.Plan{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not remove")
	assert.Contains(t, err.Error(), "operation [rollback] failed")
	assert.Equal(t, 0, res.Ran)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_MySQLGateway_CreateStatementStripsTheCounter(t *testing.T) {
	g, mock := newMockedMySQLGateway(t)

	mock.ExpectPing()

	createTable := "CREATE TABLE `users` (\n" +
		"  `id` int NOT NULL AUTO_INCREMENT,\n" +
		"  PRIMARY KEY (`id`)\n" +
		") ENGINE=InnoDB AUTO_INCREMENT=99 DEFAULT CHARSET=utf8"

	mock.ExpectQuery(regexp.QuoteMeta("SHOW CREATE TABLE `users`;")).
		WillReturnRows(sqlmock.NewRows([]string{"Table", "Create Table"}).
			AddRow("users", createTable))

	stmt, err := g.CreateStatement(context.Background(), "users")
	require.NoError(t, err)
	assert.NotContains(t, stmt, "AUTO_INCREMENT=99")
	assert.Contains(t, stmt, "`id` int NOT NULL AUTO_INCREMENT")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func Test_MySQLGateway_TablesLeaveTheLedgerOut(t *testing.T) {
	g, mock := newMockedMySQLGateway(t)

	mock.ExpectPing()
	mock.ExpectQuery("SHOW TABLES").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_app"}).
			AddRow("bar").
			AddRow("foo").
			AddRow("migrations"))

	tables, err := g.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "foo"}, tables)

	assert.NoError(t, mock.ExpectationsWereMet())
}
