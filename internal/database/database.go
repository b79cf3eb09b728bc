package database

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/godwitdb/godwit/internal/logger"
	"github.com/godwitdb/godwit/internal/source"
	"github.com/godwitdb/godwit/migration"
)

// DefaultLedgerTable is the table change-scripts are recorded in.
const DefaultLedgerTable = "migrations"

const (
	OperationMigrate  = "migrate"
	OperationRollback = "rollback"
	OperationReset    = "reset"
	OperationRefresh  = "refresh"
)

var (
	ErrUnsupportedDialect = errors.New("unknown SQL dialect")
	ErrEntryMalformed     = errors.New("ledger entry is malformed")
	ErrNoCreateStatement  = errors.New("create statement reconstruction is not supported by this dialect")
)

// Entry is one ledger row: a change-script that has run and the batch
// it ran in.
type Entry struct {
	Filename string `db:"filename"`
	Batch    int    `db:"batch"`
}

// Plan tweaks how much of the available work an operation picks up.
// Zero Steps means no cap.
type Plan struct {
	Steps int
}

// CommonOptions are shared by every SQL dialect.
type CommonOptions struct {
	LedgerTable string
}

// Executor runs SQL on a live connection: Exec for statements, Select
// for row sets, Get for single values.
type Executor interface {
	Exec(ctx context.Context, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Dialect renders the ledger SQL of one database backend. Entry listing
// queries order by batch descending then filename descending, the batch
// scoped variant by filename descending, so reverts see the newest work
// first.
type Dialect interface {
	CreateLedgerQuery() string
	DropLedgerQuery() string
	SelectEntriesQuery() string
	SelectBatchEntriesQuery() string
	LastBatchQuery() string
	InsertEntryQuery() string
	DeleteEntryQuery() string
}

// Inspector answers schema questions of one database backend. Tables
// never includes the ledger table itself.
type Inspector interface {
	Tables(ctx context.Context, ex Executor) ([]string, error)
	CreateStatement(ctx context.Context, ex Executor, table string) (string, error)
	DropStatement(table string) string
}

// Effector is the surface the migrator drives: the reconciliation
// operations plus ledger and schema management.
type Effector interface {
	io.Closer

	SetLogger(lg logger.Logger)

	Migrate(ctx context.Context, src source.Source, p Plan) (migration.Result, error)
	Rollback(ctx context.Context, src source.Source, p Plan) (migration.Result, error)
	Reset(ctx context.Context, src source.Source, p Plan) (migration.Result, error)
	Refresh(ctx context.Context, src source.Source, p Plan) (migration.Result, migration.Result, error)

	InitLedger(ctx context.Context) error
	DropLedger(ctx context.Context) error
	Entries(ctx context.Context) ([]Entry, error)

	Tables(ctx context.Context) ([]string, error)
	CreateStatement(ctx context.Context, table string) (string, error)
	DropStatement(table string) string
	Dump(ctx context.Context) (string, error)
}

// StatementError reports a single failed statement. The runner logs it,
// abandons the rest of the file and moves on; statements of that file
// that already ran stay applied and the ledger is left untouched.
type StatementError struct {
	Filename  string
	Statement string
	Err       error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement [%s] of migration [%s] failed: %v", e.Statement, e.Filename, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}

// Cause keeps github.com/pkg/errors chains working.
func (e *StatementError) Cause() error {
	return e.Err
}

// Pending returns the change-scripts that have no ledger entry, sorted
// ascending so older files run first. A recorded filename never runs
// again, no matter which batch recorded it.
func Pending(available source.Set, recorded []Entry) []string {
	executed := source.NewSet()
	for i := range recorded {
		executed.Add(recorded[i].Filename)
	}

	result := make([]string, 0, len(available))
	for name := range available {
		if !executed.Has(name) {
			result = append(result, name)
		}
	}

	sort.Strings(result)

	return result
}
