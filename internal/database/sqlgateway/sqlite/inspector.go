package sqlite

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/godwitdb/godwit/internal/database"
)

type Inspector struct {
	ledgerTable string
}

var _ database.Inspector = (*Inspector)(nil)

func NewInspector(ledgerTable string) *Inspector {
	return &Inspector{ledgerTable: ledgerTable}
}

// Tables lists user tables, skipping sqlite internals and the ledger.
func (i Inspector) Tables(ctx context.Context, ex database.Executor) ([]string, error) {
	const q = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name;"

	var tables []string
	if err := ex.Select(ctx, &tables, q); err != nil {
		return nil, errors.Wrap(err, "could not list tables")
	}

	result := make([]string, 0, len(tables))
	for _, t := range tables {
		if t == i.ledgerTable {
			continue
		}

		result = append(result, t)
	}

	return result, nil
}

// CreateStatement returns the statement the table was created with, as
// sqlite itself remembers it.
func (i Inspector) CreateStatement(ctx context.Context, ex database.Executor, table string) (string, error) {
	const q = "SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?;"

	var stmt string
	if err := ex.Get(ctx, &stmt, q, table); err != nil {
		return "", errors.Wrapf(err, "could not read create statement of table [%s]", table)
	}

	return stmt, nil
}

func (i Inspector) DropStatement(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)
}
