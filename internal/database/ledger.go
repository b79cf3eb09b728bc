package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/godwitdb/godwit/migration"
)

// Ledger is the persistent record of executed change-scripts, one row
// per filename. All SQL comes from the dialect, all execution goes
// through the executor, so the same ledger logic serves every backend.
type Ledger struct {
	ex      Executor
	dialect Dialect
}

func NewLedger(ex Executor, dialect Dialect) *Ledger {
	return &Ledger{ex: ex, dialect: dialect}
}

// Init creates the ledger table unless it already exists.
func (l *Ledger) Init(ctx context.Context) error {
	if err := l.ex.Exec(ctx, l.dialect.CreateLedgerQuery()); err != nil {
		return errors.Wrap(err, "could not create ledger table")
	}

	return nil
}

func (l *Ledger) Drop(ctx context.Context) error {
	if err := l.ex.Exec(ctx, l.dialect.DropLedgerQuery()); err != nil {
		return errors.Wrap(err, "could not drop ledger table")
	}

	return nil
}

// Entries returns every ledger row, newest batch first, filenames
// descending within a batch.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := l.ex.Select(ctx, &entries, l.dialect.SelectEntriesQuery()); err != nil {
		return nil, errors.Wrap(err, "could not read ledger entries")
	}

	return entries, nil
}

// ForBatch returns the rows of one batch, filenames descending.
func (l *Ledger) ForBatch(ctx context.Context, batch int) ([]Entry, error) {
	var entries []Entry
	if err := l.ex.Select(ctx, &entries, l.dialect.SelectBatchEntriesQuery(), batch); err != nil {
		return nil, errors.Wrapf(err, "could not read ledger entries of batch %d", batch)
	}

	return entries, nil
}

// LastBatch returns the highest recorded batch number, zero when the
// ledger is empty.
func (l *Ledger) LastBatch(ctx context.Context) (int, error) {
	var last int
	if err := l.ex.Get(ctx, &last, l.dialect.LastBatchQuery()); err != nil {
		return 0, errors.Wrap(err, "could not read last batch number")
	}

	return last, nil
}

// NextBatch returns the batch number a new run should record under.
func (l *Ledger) NextBatch(ctx context.Context) (int, error) {
	last, err := l.LastBatch(ctx)
	if err != nil {
		return 0, err
	}

	return last + 1, nil
}

func (l *Ledger) Record(ctx context.Context, filename string, batch int) error {
	if len(filename) > migration.MaxFilenameLength {
		return errors.Wrapf(
			ErrEntryMalformed,
			"filename [%s] is longer than %d characters",
			filename, migration.MaxFilenameLength,
		)
	}

	if err := l.ex.Exec(ctx, l.dialect.InsertEntryQuery(), filename, batch); err != nil {
		return errors.Wrapf(err, "could not record [%s] in the ledger", filename)
	}

	return nil
}

// Remove deletes the row matching both filename and batch. Deleting a
// row that is not there is not an error.
func (l *Ledger) Remove(ctx context.Context, filename string, batch int) error {
	if err := l.ex.Exec(ctx, l.dialect.DeleteEntryQuery(), filename, batch); err != nil {
		return errors.Wrapf(err, "could not remove [%s] from the ledger", filename)
	}

	return nil
}
