package cli

import (
	"database/sql"
	"log"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/xo/dburl"
	"gopkg.in/yaml.v2"

	"github.com/godwitdb/godwit"
	"github.com/godwitdb/godwit/internal/database"
)

type (
	migratorFactory    func(cfg Config, dsn string) (*godwit.Migrator, godwit.CloserFunc, error)
	migratorFactoryMap map[string]migratorFactory

	migrationsSection struct {
		LocalFolder string `yaml:"local_folder"`
		DatabaseURL string `yaml:"database_url"`
		LedgerTable string `yaml:"ledger_table"`
	}

	configFile struct {
		Version    string            `yaml:"version"`
		Migrations migrationsSection `yaml:"migrations"`
	}
)

const configFileStub = `version: "1.0"

migrations:
  local_folder: "./migrations"
  database_url: "%%DATABASE_URL%%"
  ledger_table: "migrations"
`

func createConfigFromYaml(path string) (Config, error) {
	var cfg Config

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "could not read godwit configuration file")
	}

	var cfgFile configFile
	if err := yaml.Unmarshal(b, &cfgFile); err != nil {
		return cfg, errors.Wrap(err, "could not parse godwit configuration file")
	}

	cfg.DatabaseURL = expandEnv(cfgFile.Migrations.DatabaseURL)
	cfg.MigrationsFolder = expandEnv(cfgFile.Migrations.LocalFolder)
	cfg.LedgerTable = expandEnv(cfgFile.Migrations.LedgerTable)

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("database url was not defined")
	}

	if cfg.MigrationsFolder == "" {
		return cfg, errors.New("migrations folder was not defined")
	}

	return cfg, nil
}

// expandEnv resolves the %%ENV_VAR%% placeholder convention of the
// configuration file.
func expandEnv(v string) string {
	if strings.HasPrefix(v, "%%") && strings.HasSuffix(v, "%%") {
		return os.Getenv(strings.ReplaceAll(v, "%%", ""))
	}

	return v
}

func createMigrator(cfg Config) (*godwit.Migrator, godwit.CloserFunc, error) {
	u, err := dburl.Parse(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not parse database url [%s]", cfg.DatabaseURL)
	}

	factoryMap := migratorFactoryMap{
		"mysql":    createMySQLMigrator,
		"sqlite3":  createSqliteMigrator,
		"postgres": createPostgresMigrator,
	}

	factory, ok := factoryMap[u.Driver]
	if !ok {
		return nil, nil, errors.Wrapf(database.ErrUnsupportedDialect, "[%s]", u.Driver)
	}

	return factory(cfg, u.DSN)
}

func createMySQLMigrator(cfg Config, dsn string) (*godwit.Migrator, godwit.CloserFunc, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, nil, err
	}

	var mysqlOpts []godwit.MySQLOptionFunc
	if cfg.LedgerTable != "" {
		mysqlOpts = append(mysqlOpts, godwit.WithMySQLLedgerTable(cfg.LedgerTable))
	}

	opts := []godwit.OptionFunc{
		godwit.UseMySQL(db, mysqlOpts...),
		godwit.UseLocalFolderSource(cfg.MigrationsFolder),
		loggerOption(cfg),
	}

	m, closer, err := godwit.NewMigrator(opts...)

	return wrapDBCloser(db, m, closer, err)
}

func createSqliteMigrator(cfg Config, dsn string) (*godwit.Migrator, godwit.CloserFunc, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, err
	}

	var sqliteOpts []godwit.SqliteOptionFunc
	if cfg.LedgerTable != "" {
		sqliteOpts = append(sqliteOpts, godwit.WithSqliteLedgerTable(cfg.LedgerTable))
	}

	opts := []godwit.OptionFunc{
		godwit.UseSqlite(db, sqliteOpts...),
		godwit.UseLocalFolderSource(cfg.MigrationsFolder),
		loggerOption(cfg),
	}

	m, closer, err := godwit.NewMigrator(opts...)

	return wrapDBCloser(db, m, closer, err)
}

func createPostgresMigrator(cfg Config, dsn string) (*godwit.Migrator, godwit.CloserFunc, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, err
	}

	var postgresOpts []godwit.PostgresOptionFunc
	if cfg.LedgerTable != "" {
		postgresOpts = append(postgresOpts, godwit.WithPostgresLedgerTable(cfg.LedgerTable))
	}

	opts := []godwit.OptionFunc{
		godwit.UsePostgres(db, postgresOpts...),
		godwit.UseLocalFolderSource(cfg.MigrationsFolder),
		loggerOption(cfg),
	}

	m, closer, err := godwit.NewMigrator(opts...)

	return wrapDBCloser(db, m, closer, err)
}

func loggerOption(cfg Config) godwit.OptionFunc {
	return godwit.UseColorLogger(log.New(os.Stdout, "", 0), cfg.PrintSQL, cfg.PrintDebug)
}

// wrapDBCloser makes sure the pool the factory opened is released
// together with the migrator's own connection.
func wrapDBCloser(db *sql.DB, m *godwit.Migrator, closer godwit.CloserFunc, err error) (*godwit.Migrator, godwit.CloserFunc, error) {
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return m, func() error {
		if closeErr := closer(); closeErr != nil {
			_ = db.Close()
			return closeErr
		}

		return db.Close()
	}, nil
}
