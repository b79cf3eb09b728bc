package mysql

import (
	"fmt"

	"github.com/godwitdb/godwit/internal/database"
)

// DefaultCharset is applied to the ledger table unless overridden.
const DefaultCharset = "utf8"

type Dialect struct {
	ledgerTable, charset string
}

var _ database.Dialect = (*Dialect)(nil)

func NewDialect(ledgerTable, charset string) *Dialect {
	return &Dialect{ledgerTable: ledgerTable, charset: charset}
}

func (d Dialect) CreateLedgerQuery() string {
	const createSQL = `
		CREATE TABLE IF NOT EXISTS %s (
			filename VARCHAR(255) NOT NULL,
			batch INT NOT NULL,
			KEY (batch)
		) ENGINE=InnoDB CHARACTER SET=%s;
	`

	return fmt.Sprintf(createSQL, d.ledgerTable, d.charset)
}

func (d Dialect) DropLedgerQuery() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", d.ledgerTable)
}

func (d Dialect) SelectEntriesQuery() string {
	return fmt.Sprintf(
		"SELECT `filename`, `batch` FROM %s ORDER BY `batch` DESC, `filename` DESC;",
		d.ledgerTable,
	)
}

func (d Dialect) SelectBatchEntriesQuery() string {
	return fmt.Sprintf(
		"SELECT `filename`, `batch` FROM %s WHERE `batch` = ? ORDER BY `filename` DESC;",
		d.ledgerTable,
	)
}

func (d Dialect) LastBatchQuery() string {
	return fmt.Sprintf("SELECT COALESCE(MAX(`batch`), 0) FROM %s;", d.ledgerTable)
}

func (d Dialect) InsertEntryQuery() string {
	return fmt.Sprintf("INSERT INTO %s (`filename`, `batch`) VALUES (?, ?);", d.ledgerTable)
}

func (d Dialect) DeleteEntryQuery() string {
	return fmt.Sprintf("DELETE FROM %s WHERE `filename` = ? AND `batch` = ?;", d.ledgerTable)
}
