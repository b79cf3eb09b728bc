package sqlite

import (
	"fmt"

	"github.com/godwitdb/godwit/internal/database"
)

type Dialect struct {
	ledgerTable string
}

var _ database.Dialect = (*Dialect)(nil)

func NewDialect(ledgerTable string) *Dialect {
	return &Dialect{ledgerTable: ledgerTable}
}

func (d Dialect) CreateLedgerQuery() string {
	const createSQL = `
		CREATE TABLE IF NOT EXISTS %s (
			filename VARCHAR(255) NOT NULL,
			batch INT NOT NULL
		);
	`

	return fmt.Sprintf(createSQL, d.ledgerTable)
}

func (d Dialect) DropLedgerQuery() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", d.ledgerTable)
}

func (d Dialect) SelectEntriesQuery() string {
	return fmt.Sprintf(
		"SELECT filename, batch FROM %s ORDER BY batch DESC, filename DESC;",
		d.ledgerTable,
	)
}

func (d Dialect) SelectBatchEntriesQuery() string {
	return fmt.Sprintf(
		"SELECT filename, batch FROM %s WHERE batch = ? ORDER BY filename DESC;",
		d.ledgerTable,
	)
}

func (d Dialect) LastBatchQuery() string {
	return fmt.Sprintf("SELECT COALESCE(MAX(batch), 0) FROM %s;", d.ledgerTable)
}

func (d Dialect) InsertEntryQuery() string {
	return fmt.Sprintf("INSERT INTO %s (filename, batch) VALUES (?, ?);", d.ledgerTable)
}

func (d Dialect) DeleteEntryQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE filename = ? AND batch = ?;", d.ledgerTable)
}
