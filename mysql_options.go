package godwit

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/godwitdb/godwit/internal/database"
	"github.com/godwitdb/godwit/internal/database/sqlgateway"
	"github.com/godwitdb/godwit/internal/database/sqlgateway/mysql"
)

type MySQLOptionFunc func(*sqlgateway.MySQLOptions, *sqlgateway.ConnectOptions)

// UseMySQL configures the migrator to run against a MySQL database.
// The migrator never opens the connection itself, it borrows a single
// connection from the given pool when the first operation runs.
func UseMySQL(db *sql.DB, options ...MySQLOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		mysqlOpts := &sqlgateway.MySQLOptions{
			Charset: mysql.DefaultCharset,
			CommonOptions: database.CommonOptions{
				LedgerTable: database.DefaultLedgerTable,
			},
		}

		connectOpts := sqlgateway.NewDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(mysqlOpts, connectOpts)
		}

		gateway := sqlgateway.NewMySQLGateway(
			sqlx.NewDb(db, "mysql"),
			connectOpts,
			mysqlOpts.LedgerTable,
			mysqlOpts.Charset,
		)

		m.closerFns = append(m.closerFns, CloserFunc(gateway.Close))
		m.gateway = gateway

		return nil
	}
}

func WithMySQLLedgerTable(table string) MySQLOptionFunc {
	return func(mysqlOpts *sqlgateway.MySQLOptions, connectOpts *sqlgateway.ConnectOptions) {
		mysqlOpts.LedgerTable = table
	}
}

func WithMySQLCharset(charset string) MySQLOptionFunc {
	return func(mysqlOpts *sqlgateway.MySQLOptions, connectOpts *sqlgateway.ConnectOptions) {
		mysqlOpts.Charset = charset
	}
}

func WithMySQLConnectionTimeout(timeout time.Duration) MySQLOptionFunc {
	return func(mysqlOpts *sqlgateway.MySQLOptions, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}

func WithMySQLMaxConnectionAttempts(attempts int) MySQLOptionFunc {
	return func(mysqlOpts *sqlgateway.MySQLOptions, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}
