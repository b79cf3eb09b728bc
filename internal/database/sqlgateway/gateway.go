package sqlgateway

import (
	"bytes"
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/godwitdb/godwit/internal/database"
	"github.com/godwitdb/godwit/internal/database/sqlgateway/mysql"
	"github.com/godwitdb/godwit/internal/database/sqlgateway/postgres"
	"github.com/godwitdb/godwit/internal/database/sqlgateway/sqlite"
	"github.com/godwitdb/godwit/internal/logger"
	"github.com/godwitdb/godwit/internal/source"
	"github.com/godwitdb/godwit/migration"
)

// Gateway reconciles the migration files of a source against the ledger
// of one database. The logic is backend agnostic: SQL text comes from
// the dialect, schema questions go to the inspector, and the gateway
// itself is the executor every query runs through, on one connection
// acquired lazily from the connector.
type Gateway struct {
	lg        logger.Logger
	connector *RetryingConnector
	dialect   database.Dialect
	inspector database.Inspector
	ledger    *database.Ledger
}

var _ database.Effector = (*Gateway)(nil)
var _ database.Executor = (*Gateway)(nil)

func NewGateway(connector *RetryingConnector, dialect database.Dialect, inspector database.Inspector) *Gateway {
	g := &Gateway{
		lg:        &logger.NullLogger{},
		connector: connector,
		dialect:   dialect,
		inspector: inspector,
	}

	g.ledger = database.NewLedger(g, dialect)

	return g
}

// NewMySQLGateway - creates a gateway speaking the MySQL dialect.
func NewMySQLGateway(db *sqlx.DB, co *ConnectOptions, ledgerTable, charset string) *Gateway {
	if ledgerTable == "" {
		ledgerTable = database.DefaultLedgerTable
	}

	if charset == "" {
		charset = mysql.DefaultCharset
	}

	return NewGateway(
		MakeRetryingConnector(db, co),
		mysql.NewDialect(ledgerTable, charset),
		mysql.NewInspector(ledgerTable),
	)
}

// NewSqliteGateway - creates a gateway speaking the SQLite dialect.
func NewSqliteGateway(db *sqlx.DB, co *ConnectOptions, ledgerTable string) *Gateway {
	if ledgerTable == "" {
		ledgerTable = database.DefaultLedgerTable
	}

	return NewGateway(
		MakeRetryingConnector(db, co),
		sqlite.NewDialect(ledgerTable),
		sqlite.NewInspector(ledgerTable),
	)
}

// NewPostgresGateway - creates a gateway speaking the Postgres dialect.
func NewPostgresGateway(db *sqlx.DB, co *ConnectOptions, ledgerTable string) *Gateway {
	if ledgerTable == "" {
		ledgerTable = database.DefaultLedgerTable
	}

	return NewGateway(
		MakeRetryingConnector(db, co),
		postgres.NewDialect(ledgerTable),
		postgres.NewInspector(ledgerTable),
	)
}

func (g *Gateway) SetLogger(lg logger.Logger) {
	g.lg = lg
}

func (g *Gateway) Close() error {
	return g.connector.Close()
}

func (g *Gateway) connect(ctx context.Context) (*sqlx.Conn, error) {
	return g.connector.Connect(ctx)
}

// Exec implements database.Executor on the held connection.
func (g *Gateway) Exec(ctx context.Context, query string, args ...interface{}) error {
	conn, err := g.connect(ctx)
	if err != nil {
		return err
	}

	g.lg.SQL(query, args...)

	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	return nil
}

// Select implements database.Executor on the held connection.
func (g *Gateway) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	conn, err := g.connect(ctx)
	if err != nil {
		return err
	}

	g.lg.SQL(query, args...)

	return conn.SelectContext(ctx, dest, query, args...)
}

// Get implements database.Executor on the held connection.
func (g *Gateway) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	conn, err := g.connect(ctx)
	if err != nil {
		return err
	}

	g.lg.SQL(query, args...)

	return conn.GetContext(ctx, dest, query, args...)
}

// Migrate runs every pending change-script of the source in one new
// batch. Pending files are executed in ascending filename order; a file
// whose statement fails is logged and abandoned while the run moves on,
// so one broken migration never blocks the rest.
func (g *Gateway) Migrate(ctx context.Context, src source.Source, p database.Plan) (migration.Result, error) {
	result, err := g.migrate(ctx, src, p)
	if err != nil {
		return result, errors.Wrapf(err, "operation [%s] failed", database.OperationMigrate)
	}

	return result, nil
}

func (g *Gateway) migrate(ctx context.Context, src source.Source, p database.Plan) (migration.Result, error) {
	var result migration.Result

	if err := g.ledger.Init(ctx); err != nil {
		return result, err
	}

	batch, err := g.ledger.NextBatch(ctx)
	if err != nil {
		return result, err
	}

	result.Batch = batch

	available, err := src.List(ctx, migration.UpSuffix)
	if err != nil {
		return result, err
	}

	recorded, err := g.ledger.Entries(ctx)
	if err != nil {
		return result, err
	}

	pending := database.Pending(available, recorded)
	if p.Steps > 0 && len(pending) > p.Steps {
		pending = pending[:p.Steps]
	}

	for _, filename := range pending {
		ran, err := g.migrateOne(ctx, src, filename, batch)
		if err != nil {
			var stmtErr *database.StatementError
			if errors.As(err, &stmtErr) {
				g.lg.Error(stmtErr)
				continue
			}

			return result, err
		}

		if ran {
			result.Ran++
			g.lg.Successf("migrated: %s (batch %d)", filename, batch)
		}
	}

	return result, nil
}

// migrateOne executes one change-script and records it. Files with no
// content at all are skipped without a ledger entry.
func (g *Gateway) migrateOne(ctx context.Context, src source.Source, filename string, batch int) (bool, error) {
	content, err := src.Read(ctx, filename)
	if err != nil {
		return false, err
	}

	if len(content) == 0 {
		g.lg.Debugf("skipping empty migration file [%s]", filename)
		return false, nil
	}

	if err := g.runScript(ctx, filename, string(content)); err != nil {
		return false, err
	}

	if err := g.ledger.Record(ctx, filename, batch); err != nil {
		return false, err
	}

	return true, nil
}

// Rollback reverts the most recent batch, newest filenames first.
// Entries without a revert counterpart in the source are skipped and
// stay recorded.
func (g *Gateway) Rollback(ctx context.Context, src source.Source, p database.Plan) (migration.Result, error) {
	result, err := g.rollback(ctx, src, p)
	if err != nil {
		return result, errors.Wrapf(err, "operation [%s] failed", database.OperationRollback)
	}

	return result, nil
}

func (g *Gateway) rollback(ctx context.Context, src source.Source, p database.Plan) (migration.Result, error) {
	var result migration.Result

	if err := g.ledger.Init(ctx); err != nil {
		return result, err
	}

	batch, err := g.ledger.LastBatch(ctx)
	if err != nil {
		return result, err
	}

	result.Batch = batch

	entries, err := g.ledger.ForBatch(ctx, batch)
	if err != nil {
		return result, err
	}

	ran, err := g.revert(ctx, src, entries, p)
	result.Ran = ran

	return result, err
}

// Reset reverts everything the ledger knows about, newest batches
// first. The reported batch number is always zero.
func (g *Gateway) Reset(ctx context.Context, src source.Source, p database.Plan) (migration.Result, error) {
	result, err := g.reset(ctx, src, p)
	if err != nil {
		return result, errors.Wrapf(err, "operation [%s] failed", database.OperationReset)
	}

	return result, nil
}

func (g *Gateway) reset(ctx context.Context, src source.Source, p database.Plan) (migration.Result, error) {
	var result migration.Result

	if err := g.ledger.Init(ctx); err != nil {
		return result, err
	}

	entries, err := g.ledger.Entries(ctx)
	if err != nil {
		return result, err
	}

	ran, err := g.revert(ctx, src, entries, p)
	result.Ran = ran

	return result, err
}

// Refresh - a reset followed by a full migrate.
func (g *Gateway) Refresh(ctx context.Context, src source.Source, p database.Plan) (migration.Result, migration.Result, error) {
	reset, err := g.reset(ctx, src, p)
	if err != nil {
		return reset, migration.Result{}, errors.Wrapf(err, "operation [%s] failed", database.OperationRefresh)
	}

	migrated, err := g.migrate(ctx, src, p)
	if err != nil {
		return reset, migrated, errors.Wrapf(err, "operation [%s] failed", database.OperationRefresh)
	}

	return reset, migrated, nil
}

// revert walks ledger entries in the order the dialect delivered them,
// executing each revert counterpart and unrecording the entry.
func (g *Gateway) revert(ctx context.Context, src source.Source, entries []database.Entry, p database.Plan) (int, error) {
	if p.Steps > 0 && len(entries) > p.Steps {
		entries = entries[:p.Steps]
	}

	ran := 0
	for _, entry := range entries {
		ok, err := g.revertOne(ctx, src, entry)
		if err != nil {
			var stmtErr *database.StatementError
			if errors.As(err, &stmtErr) {
				g.lg.Error(stmtErr)
				continue
			}

			return ran, err
		}

		if ok {
			ran++
			g.lg.Successf("rolled back: %s (batch %d)", entry.Filename, entry.Batch)
		}
	}

	return ran, nil
}

func (g *Gateway) revertOne(ctx context.Context, src source.Source, entry database.Entry) (bool, error) {
	if !migration.IsUp(entry.Filename) {
		g.lg.Debugf("ledger entry [%s] is not a change-script, leaving it alone", entry.Filename)
		return false, nil
	}

	downName := migration.DownName(entry.Filename)
	if !src.Exists(downName) {
		g.lg.Debugf("no revert counterpart for [%s], entry stays recorded", entry.Filename)
		return false, nil
	}

	content, err := src.Read(ctx, downName)
	if err != nil {
		return false, err
	}

	if err := g.runScript(ctx, downName, string(content)); err != nil {
		return false, err
	}

	if err := g.ledger.Remove(ctx, entry.Filename, entry.Batch); err != nil {
		return false, err
	}

	return true, nil
}

// runScript executes the statements of one file in order. A failing
// statement surfaces as a StatementError; whatever ran before it stays
// applied.
func (g *Gateway) runScript(ctx context.Context, filename, script string) error {
	conn, err := g.connect(ctx)
	if err != nil {
		return err
	}

	for _, statement := range migration.Statements(script) {
		g.lg.SQL(statement)

		if _, err := conn.ExecContext(ctx, statement); err != nil {
			return &database.StatementError{Filename: filename, Statement: statement, Err: err}
		}
	}

	return nil
}

func (g *Gateway) InitLedger(ctx context.Context) error {
	return g.ledger.Init(ctx)
}

func (g *Gateway) DropLedger(ctx context.Context) error {
	return g.ledger.Drop(ctx)
}

// Entries returns the ledger content, newest batch first.
func (g *Gateway) Entries(ctx context.Context) ([]database.Entry, error) {
	if err := g.ledger.Init(ctx); err != nil {
		return nil, err
	}

	return g.ledger.Entries(ctx)
}

func (g *Gateway) Tables(ctx context.Context) ([]string, error) {
	return g.inspector.Tables(ctx, g)
}

func (g *Gateway) CreateStatement(ctx context.Context, table string) (string, error) {
	return g.inspector.CreateStatement(ctx, g, table)
}

func (g *Gateway) DropStatement(table string) string {
	return g.inspector.DropStatement(table)
}

// Dump assembles the create statements of every table outside the
// ledger into one schema snapshot.
func (g *Gateway) Dump(ctx context.Context) (string, error) {
	tables, err := g.Tables(ctx)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for i, table := range tables {
		stmt, err := g.CreateStatement(ctx, table)
		if err != nil {
			return "", err
		}

		if i > 0 {
			buf.WriteString("\n\n")
		}

		buf.WriteString(stmt)
		buf.WriteString(";")
	}

	return buf.String(), nil
}
