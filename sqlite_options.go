package godwit

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/godwitdb/godwit/internal/database"
	"github.com/godwitdb/godwit/internal/database/sqlgateway"
)

type SqliteOptionFunc func(*sqlgateway.SqliteOptions, *sqlgateway.ConnectOptions)

// UseSqlite configures the migrator to run against an SQLite database.
func UseSqlite(db *sql.DB, options ...SqliteOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		sqliteOpts := &sqlgateway.SqliteOptions{
			CommonOptions: database.CommonOptions{
				LedgerTable: database.DefaultLedgerTable,
			},
		}

		connectOpts := sqlgateway.NewDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(sqliteOpts, connectOpts)
		}

		gateway := sqlgateway.NewSqliteGateway(
			sqlx.NewDb(db, "sqlite3"),
			connectOpts,
			sqliteOpts.LedgerTable,
		)

		m.closerFns = append(m.closerFns, CloserFunc(gateway.Close))
		m.gateway = gateway

		return nil
	}
}

func WithSqliteLedgerTable(table string) SqliteOptionFunc {
	return func(sqliteOpts *sqlgateway.SqliteOptions, connectOpts *sqlgateway.ConnectOptions) {
		sqliteOpts.LedgerTable = table
	}
}

func WithSqliteConnectionTimeout(timeout time.Duration) SqliteOptionFunc {
	return func(sqliteOpts *sqlgateway.SqliteOptions, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}

func WithSqliteMaxConnectionAttempts(attempts int) SqliteOptionFunc {
	return func(sqliteOpts *sqlgateway.SqliteOptions, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}
