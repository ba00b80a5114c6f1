package main

import "fmt"

// Table headers. Row 1 of every table holds these and is used for schema
// validation on startup.
var (
	RecordHeaders  = []string{"partitionKey", "lane", "blockId", "holder", "note", "createdAt"}
	VersionHeaders = []string{"partitionKey", "version"}
	LockHeaders    = []string{"partitionKey", "token", "holder", "expiresAt"}
)

// RowStore is the only surface we assume from the backing datastore:
// four primitive operations over named tables of string rows, no
// transactions, no compare-and-swap. Rows are addressed by their current
// 1-based position (row 1 is the header), spreadsheet style, so deleting
// a row shifts everything below it up by one.
type RowStore interface {
	ReadAll(table string) ([][]string, error)
	Append(table string, rows [][]string) error
	// UpdateRange overwrites cells [col, col+len(cells)) of the row at idx.
	// col is 1-based as well.
	UpdateRange(table string, idx, col int, cells []string) error
	DeleteRow(table string, idx int) error
}

// EnsureTable validates the header row and (re)initializes the table if it
// doesn't match. A mismatched header means the table was never set up or
// belongs to an older schema - in both cases we wipe and start over.
func EnsureTable(rs RowStore, table string, headers []string) error {
	rows, err := rs.ReadAll(table)
	if err != nil {
		return err
	}
	if len(rows) > 0 && rowsEqual(rows[0], headers) {
		return nil
	}
	for i := len(rows); i >= 1; i-- {
		if err := rs.DeleteRow(table, i); err != nil {
			return err
		}
	}
	return rs.Append(table, [][]string{headers})
}

func rowsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// cell returns the i-th cell (0-based) of a possibly short row.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return row[i]
}

func checkIdx(idx, n int, table string) error {
	if idx < 1 || idx > n {
		return fmt.Errorf("row %d out of range for %s (%d rows)", idx, table, n)
	}
	return nil
}
