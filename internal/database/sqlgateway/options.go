package sqlgateway

import "github.com/godwitdb/godwit/internal/database"

// MySQLOptions configure the MySQL gateway.
type MySQLOptions struct {
	database.CommonOptions
	Charset string
}

// SqliteOptions configure the SQLite gateway.
type SqliteOptions struct {
	database.CommonOptions
}

// PostgresOptions configure the Postgres gateway.
type PostgresOptions struct {
	database.CommonOptions
}
