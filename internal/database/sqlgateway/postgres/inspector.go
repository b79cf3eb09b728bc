package postgres

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

// Tables lists user tables of the public schema, leaving the ledger out.
func (i Inspector) Tables(ctx context.Context, ex database.Executor) ([]string, error) {
	const q = "SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname NOT IN ('pg_catalog', 'information_schema') ORDER BY tablename;"

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

// CreateStatement is not available: postgres has no single statement
// equivalent of SHOW CREATE TABLE.
func (i Inspector) CreateStatement(_ context.Context, _ database.Executor, table string) (string, error) {
	return "", errors.Wrapf(database.ErrNoCreateStatement, "table [%s]", table)
}

func (i Inspector) DropStatement(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", table)
}
