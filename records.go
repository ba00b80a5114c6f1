package main

import (
	"sort"
	"time"
)

// Slot is the occupant of one (lane, block) pair. A nil Slot means empty.
type Slot struct {
	Holder    string `json:"holder"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// PartitionState is the full state of one partition key:
// lane -> blockId -> occupant.
type PartitionState map[string]map[string]*Slot

// NewPartitionState builds an all-empty state covering every configured
// lane/block combination.
func NewPartitionState(lanes, blocks []string) PartitionState {
	st := make(PartitionState, len(lanes))
	for _, lane := range lanes {
		st[lane] = make(map[string]*Slot, len(blocks))
		for _, b := range blocks {
			st[lane][b] = nil
		}
	}
	return st
}

// RecordStore reconstructs and replaces the row set of one partition key
// in the records table. Which lanes and blocks exist is policy, injected
// here by the caller - this layer doesn't own the shape of a partition.
type RecordStore struct {
	rs     RowStore
	table  string
	lanes  []string
	blocks []string
}

func NewRecordStore(rs RowStore, table string, lanes, blocks []string) *RecordStore {
	return &RecordStore{rs: rs, table: table, lanes: lanes, blocks: blocks}
}

// Load rebuilds the partition state from every row matching key. Rows
// with fewer cells than the schema or with an unknown lane are skipped,
// not fatal. Zero matching rows yields an all-empty state.
func (r *RecordStore) Load(key string) (PartitionState, error) {
	st := NewPartitionState(r.lanes, r.blocks)
	rows, err := r.rs.ReadAll(r.table)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 6 || row[0] != key {
			continue
		}
		lane := row[1]
		if _, ok := st[lane]; !ok {
			continue
		}
		st[lane][row[2]] = &Slot{Holder: row[3], Note: row[4], CreatedAt: row[5]}
	}
	return st, nil
}

// Save replaces the whole partition: delete every row for key (reverse
// index order, deleting shifts the rows below up), then append one row
// per occupied slot. Full replace means correctness doesn't depend on row
// order or on what was there before.
func (r *RecordStore) Save(key string, st PartitionState) error {
	rows, err := r.rs.ReadAll(r.table)
	if err != nil {
		return err
	}
	var idxs []int
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) > 0 && row[0] == key {
			idxs = append(idxs, i+1)
		}
	}
	for i := len(idxs) - 1; i >= 0; i-- {
		if err := r.rs.DeleteRow(r.table, idxs[i]); err != nil {
			return err
		}
	}
	var out [][]string
	for _, lane := range r.lanes {
		blocks := make([]string, 0, len(st[lane]))
		for b := range st[lane] {
			blocks = append(blocks, b)
		}
		sort.Strings(blocks)
		for _, b := range blocks {
			slot := st[lane][b]
			if slot == nil {
				continue
			}
			created := slot.CreatedAt
			if created == "" {
				created = time.Now().UTC().Format(time.RFC3339)
			}
			out = append(out, []string{key, lane, b, slot.Holder, slot.Note, created})
		}
	}
	if len(out) == 0 {
		return nil
	}
	return r.rs.Append(r.table, out)
}
