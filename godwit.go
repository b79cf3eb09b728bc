package godwit

import (
	"context"

	"github.com/pkg/errors"

	"github.com/godwitdb/godwit/internal/database"
	"github.com/godwitdb/godwit/internal/logger"
	"github.com/godwitdb/godwit/internal/source"
	"github.com/godwitdb/godwit/migration"
)

var ErrGatewayNotInitialized = errors.New("database gateway has not been initialized")

type CloserFunc func() error

// Migrator reconciles a database schema with a folder of change-scripts
// through the configured database gateway. It runs single-threaded and
// must not be shared between goroutines.
type Migrator struct {
	lg        logger.Logger
	gateway   database.Effector
	src       source.Source
	closerFns []CloserFunc
}

// NewMigrator creates a migrator using option callbacks to pick the
// database gateway, the change-script source and the logger. When no
// source option is given scripts are read from the default local folder.
func NewMigrator(opts ...OptionFunc) (*Migrator, CloserFunc, error) {
	m := new(Migrator)
	m.lg = &logger.NullLogger{}

	for _, oFunc := range opts {
		if err := oFunc(m); err != nil {
			return nil, nil, err
		}
	}

	if m.gateway == nil {
		return nil, nil, ErrGatewayNotInitialized
	}

	if m.src == nil {
		m.src = source.NewLocal(source.DefaultMigrationsFolder)
	}

	m.gateway.SetLogger(m.lg)

	return m, m.close, nil
}

// Migrate runs every pending change-script, optionally capped with
// WithSteps, and records the ones that succeed under a fresh batch.
func (m *Migrator) Migrate(ctx context.Context, cfs ...ActionConfigurator) (migration.Result, error) {
	act := new(Action)
	for _, f := range cfs {
		f(act)
	}

	result, err := m.gateway.Migrate(ctx, m.src, database.Plan{Steps: act.steps})
	if err != nil {
		m.lg.Error(err)
		return result, err
	}

	return result, nil
}

// Rollback reverts the change-scripts recorded under the last batch.
func (m *Migrator) Rollback(ctx context.Context, cfs ...ActionConfigurator) (migration.Result, error) {
	act := new(Action)
	for _, f := range cfs {
		f(act)
	}

	result, err := m.gateway.Rollback(ctx, m.src, database.Plan{Steps: act.steps})
	if err != nil {
		m.lg.Error(err)
		return result, err
	}

	return result, nil
}

// Reset reverts every change-script the ledger knows about, newest first.
func (m *Migrator) Reset(ctx context.Context, cfs ...ActionConfigurator) (migration.Result, error) {
	act := new(Action)
	for _, f := range cfs {
		f(act)
	}

	result, err := m.gateway.Reset(ctx, m.src, database.Plan{Steps: act.steps})
	if err != nil {
		m.lg.Error(err)
		return result, err
	}

	return result, nil
}

// Refresh resets the schema and then migrates everything again,
// returning the results of both runs.
func (m *Migrator) Refresh(ctx context.Context, cfs ...ActionConfigurator) (migration.Result, migration.Result, error) {
	act := new(Action)
	for _, f := range cfs {
		f(act)
	}

	reverted, migrated, err := m.gateway.Refresh(ctx, m.src, database.Plan{Steps: act.steps})
	if err != nil {
		m.lg.Error(err)
		return reverted, migrated, err
	}

	return reverted, migrated, nil
}

// InitLedger creates the ledger table if it does not exist yet.
func (m *Migrator) InitLedger(ctx context.Context) error {
	return m.gateway.InitLedger(ctx)
}

// DropLedger removes the ledger table and with it all record of what ran.
func (m *Migrator) DropLedger(ctx context.Context) error {
	return m.gateway.DropLedger(ctx)
}

// Entries lists the ledger ordered by batch descending, filename
// descending.
func (m *Migrator) Entries(ctx context.Context) ([]database.Entry, error) {
	return m.gateway.Entries(ctx)
}

// Tables lists the user tables of the connected database, leaving the
// ledger table out.
func (m *Migrator) Tables(ctx context.Context) ([]string, error) {
	return m.gateway.Tables(ctx)
}

// CreateStatement reconstructs the create statement of a single table.
func (m *Migrator) CreateStatement(ctx context.Context, table string) (string, error) {
	return m.gateway.CreateStatement(ctx, table)
}

// DropStatement renders the drop statement of a single table.
func (m *Migrator) DropStatement(table string) string {
	return m.gateway.DropStatement(table)
}

// Dump renders the create statements of the whole schema.
func (m *Migrator) Dump(ctx context.Context) (string, error) {
	return m.gateway.Dump(ctx)
}

// Source returns the change-script source the migrator reads from.
func (m *Migrator) Source() source.Source {
	return m.src
}

func (m *Migrator) close() error {
	var firstErr error
	for _, fn := range m.closerFns {
		if err := fn(); err != nil {
			m.lg.Error(err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
