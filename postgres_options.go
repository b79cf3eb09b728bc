package godwit

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/godwitdb/godwit/internal/database"
	"github.com/godwitdb/godwit/internal/database/sqlgateway"
)

type PostgresOptionFunc func(*sqlgateway.PostgresOptions, *sqlgateway.ConnectOptions)

// UsePostgres configures the migrator to run against a Postgres database.
func UsePostgres(db *sql.DB, options ...PostgresOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		postgresOpts := &sqlgateway.PostgresOptions{
			CommonOptions: database.CommonOptions{
				LedgerTable: database.DefaultLedgerTable,
			},
		}

		connectOpts := sqlgateway.NewDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(postgresOpts, connectOpts)
		}

		gateway := sqlgateway.NewPostgresGateway(
			sqlx.NewDb(db, "postgres"),
			connectOpts,
			postgresOpts.LedgerTable,
		)

		m.closerFns = append(m.closerFns, CloserFunc(gateway.Close))
		m.gateway = gateway

		return nil
	}
}

func WithPostgresLedgerTable(table string) PostgresOptionFunc {
	return func(postgresOpts *sqlgateway.PostgresOptions, connectOpts *sqlgateway.ConnectOptions) {
		postgresOpts.LedgerTable = table
	}
}

func WithPostgresConnectionTimeout(timeout time.Duration) PostgresOptionFunc {
	return func(postgresOpts *sqlgateway.PostgresOptions, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}

func WithPostgresMaxConnectionAttempts(attempts int) PostgresOptionFunc {
	return func(postgresOpts *sqlgateway.PostgresOptions, connectOpts *sqlgateway.ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}
