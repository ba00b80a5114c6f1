package main

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	"rowlock/rl"
)

// PebbleStore keeps each table as a run of msgp-encoded rows under a
// common prefix. Rows are keyed by a per-table append sequence, so
// iteration order is append order; the gaps a DeleteRow leaves behind
// don't matter because position is defined by iteration, not by the
// sequence value itself.
type PebbleStore struct {
	db *pebble.DB
	// positional updates need a stable view of the table, so all four
	// primitives are serialized
	mu sync.Mutex
}

func NewPebbleStore(db *pebble.DB) *PebbleStore {
	return &PebbleStore{db: db}
}

func (p *PebbleStore) ReadAll(table string) ([][]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, rows, err := p.readKeyed(table)
	return rows, err
}

// readKeyed returns rows together with the db key each one lives under
func (p *PebbleStore) readKeyed(table string) ([][]byte, [][]string, error) {
	lo, hi := rowBounds(table)
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: lo,
		UpperBound: hi,
	})
	if err != nil {
		return nil, nil, err
	}
	defer iter.Close()
	var keys [][]byte
	var rows [][]string
	for iter.First(); iter.Valid(); iter.Next() {
		var r rl.Row
		if _, err := r.UnmarshalMsg(iter.Value()); err != nil {
			return nil, nil, fmt.Errorf("corrupt row in %s: %v", table, err)
		}
		keys = append(keys, append([]byte(nil), iter.Key()...))
		rows = append(rows, r.Cells)
	}
	return keys, rows, nil
}

func (p *PebbleStore) Append(table string, rows [][]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	seq, err := GetInt64(seqKey(table), p.db)
	if err != nil {
		return err
	}
	next := int64(0)
	if seq != nil {
		next = *seq
	}
	b := p.db.NewBatch()
	for _, row := range rows {
		next++
		r := rl.Row{Cells: row}
		d, err := r.MarshalMsg(nil)
		if err != nil {
			return err
		}
		if err := b.Set(rowKey(table, next), d, pebble.NoSync); err != nil {
			return err
		}
	}
	if err := SetInt64(seqKey(table), next, b); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (p *PebbleStore) UpdateRange(table string, idx, col int, cells []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys, rows, err := p.readKeyed(table)
	if err != nil {
		return err
	}
	if err := checkIdx(idx, len(rows), table); err != nil {
		return err
	}
	row := rows[idx-1]
	for len(row) < col-1+len(cells) {
		row = append(row, "")
	}
	for i, c := range cells {
		row[col-1+i] = c
	}
	r := rl.Row{Cells: row}
	d, err := r.MarshalMsg(nil)
	if err != nil {
		return err
	}
	return p.db.Set(keys[idx-1], d, pebble.Sync)
}

func (p *PebbleStore) DeleteRow(table string, idx int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys, rows, err := p.readKeyed(table)
	if err != nil {
		return err
	}
	if err := checkIdx(idx, len(rows), table); err != nil {
		return err
	}
	return p.db.Delete(keys[idx-1], pebble.Sync)
}
