package mysql

import (
	"context"
	"fmt"
	"regexp"

	"github.com/pkg/errors"

	"github.com/godwitdb/godwit/internal/database"
)

// autoIncrementCounter matches the volatile counter MySQL appends to
// SHOW CREATE TABLE output once a table has seen auto increment rows.
var autoIncrementCounter = regexp.MustCompile(`\s+AUTO_INCREMENT=\d+`)

type Inspector struct {
	ledgerTable string
}

var _ database.Inspector = (*Inspector)(nil)

func NewInspector(ledgerTable string) *Inspector {
	return &Inspector{ledgerTable: ledgerTable}
}

// Tables lists user tables, leaving the ledger table out.
func (i Inspector) Tables(ctx context.Context, ex database.Executor) ([]string, error) {
	var tables []string
	if err := ex.Select(ctx, &tables, "SHOW TABLES;"); err != nil {
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

// CreateStatement reconstructs the CREATE TABLE statement of one table.
// The auto increment counter is stripped so the output stays stable
// across inserts.
func (i Inspector) CreateStatement(ctx context.Context, ex database.Executor, table string) (string, error) {
	var row struct {
		Table  string `db:"Table"`
		Create string `db:"Create Table"`
	}

	q := fmt.Sprintf("SHOW CREATE TABLE `%s`;", table)
	if err := ex.Get(ctx, &row, q); err != nil {
		return "", errors.Wrapf(err, "could not read create statement of table [%s]", table)
	}

	return autoIncrementCounter.ReplaceAllString(row.Create, ""), nil
}

func (i Inspector) DropStatement(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS `%s`;", table)
}
