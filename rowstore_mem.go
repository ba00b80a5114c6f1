package main

import "sync"

// MemStore keeps tables in RAM. Useful for tests and single-process runs,
// obviously provides none of the durability of the other backends.
type MemStore struct {
	mu     sync.Mutex
	tables map[string][][]string
}

func NewMemStore() *MemStore {
	return &MemStore{tables: map[string][][]string{}}
}

func (m *MemStore) ReadAll(table string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.tables[table]
	out := make([][]string, len(src))
	for i, row := range src {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (m *MemStore) Append(table string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range rows {
		m.tables[table] = append(m.tables[table], append([]string(nil), row...))
	}
	return nil
}

func (m *MemStore) UpdateRange(table string, idx, col int, cells []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	if err := checkIdx(idx, len(rows), table); err != nil {
		return err
	}
	row := rows[idx-1]
	// pad the row out if the range goes past its current width
	for len(row) < col-1+len(cells) {
		row = append(row, "")
	}
	for i, c := range cells {
		row[col-1+i] = c
	}
	rows[idx-1] = row
	return nil
}

func (m *MemStore) DeleteRow(table string, idx int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	if err := checkIdx(idx, len(rows), table); err != nil {
		return err
	}
	m.tables[table] = append(rows[:idx-1], rows[idx:]...)
	return nil
}
