package main

import (
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// table and column names end up in SQL verbatim, so keep them boring
var validIdent = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// SQLStore emulates the positional row model on top of database/sql.
// Rows keep a monotonic pos column; position in the table is the rank of
// pos in ascending order, so deletes shift later rows up without any
// renumbering. Works with both mattn/go-sqlite3 and lib/pq - $N
// placeholders and this SQL subset are accepted by both drivers.
type SQLStore struct {
	db    *sql.DB
	ncols map[string]int
	mu    sync.Mutex
}

func NewSQLStore(db *sql.DB, tables map[string][]string) (*SQLStore, error) {
	s := &SQLStore{db: db, ncols: map[string]int{}}
	for name, headers := range tables {
		if !validIdent.MatchString(name) {
			return nil, fmt.Errorf("bad table name %q", name)
		}
		cols := make([]string, 0, len(headers))
		for i := range headers {
			cols = append(cols, fmt.Sprintf("c%d TEXT NOT NULL DEFAULT ''", i+1))
		}
		q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (pos BIGINT NOT NULL, %s)",
			name, strings.Join(cols, ", "))
		if _, err := db.Exec(q); err != nil {
			return nil, fmt.Errorf("create %s: %w", name, err)
		}
		s.ncols[name] = len(headers)
	}
	return s, nil
}

func (s *SQLStore) width(table string) (int, error) {
	n, ok := s.ncols[table]
	if !ok {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	return n, nil
}

func colList(n int) string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = fmt.Sprintf("c%d", i+1)
	}
	return strings.Join(cols, ", ")
}

func (s *SQLStore) ReadAll(table string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.width(table)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(fmt.Sprintf("SELECT %s FROM %s ORDER BY pos", colList(n), table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out [][]string
	for rows.Next() {
		cells := make([]string, n)
		dest := make([]any, n)
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		// columns pad short rows with '', trim them back off so the
		// row looks the same as it did when appended
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

func (s *SQLStore) Append(table string, rows [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.width(table)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	var max int64
	if err := tx.QueryRow(fmt.Sprintf("SELECT COALESCE(MAX(pos), 0) FROM %s", table)).Scan(&max); err != nil {
		return err
	}
	ph := make([]string, n+1)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	q := fmt.Sprintf("INSERT INTO %s (pos, %s) VALUES (%s)", table, colList(n), strings.Join(ph, ", "))
	for _, row := range rows {
		if len(row) > n {
			return fmt.Errorf("row too wide for %s: %d > %d", table, len(row), n)
		}
		max++
		args := make([]any, n+1)
		args[0] = max
		for i := 0; i < n; i++ {
			args[i+1] = cell(row, i)
		}
		if _, err := tx.Exec(q, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// posAt maps a 1-based row index to the pos value stored for that row
func (s *SQLStore) posAt(table string, idx int) (int64, error) {
	if idx < 1 {
		// a negative OFFSET reads as zero in sqlite, which would silently
		// resolve to the header row
		return 0, fmt.Errorf("row %d out of range for %s", idx, table)
	}
	var pos int64
	err := s.db.QueryRow(
		fmt.Sprintf("SELECT pos FROM %s ORDER BY pos LIMIT 1 OFFSET $1", table),
		idx-1,
	).Scan(&pos)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("row %d out of range for %s", idx, table)
	}
	return pos, err
}

func (s *SQLStore) UpdateRange(table string, idx, col int, cells []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.width(table)
	if err != nil {
		return err
	}
	if col < 1 || col-1+len(cells) > n {
		return fmt.Errorf("cell range %d..%d out of range for %s", col, col-1+len(cells), table)
	}
	pos, err := s.posAt(table, idx)
	if err != nil {
		return err
	}
	sets := make([]string, len(cells))
	args := make([]any, 0, len(cells)+1)
	for i, c := range cells {
		sets[i] = fmt.Sprintf("c%d = $%d", col+i, i+1)
		args = append(args, c)
	}
	args = append(args, pos)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE pos = $%d", table, strings.Join(sets, ", "), len(cells)+1)
	_, err = s.db.Exec(q, args...)
	return err
}

func (s *SQLStore) DeleteRow(table string, idx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.width(table); err != nil {
		return err
	}
	pos, err := s.posAt(table, idx)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE pos = $1", table), pos)
	return err
}
