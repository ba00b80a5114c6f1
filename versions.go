package main

import "strconv"

// VersionStore tracks one monotonically increasing counter per partition
// key in the versions table. The counter is the only consistency check the
// commit protocol has, see Coordinator.
type VersionStore struct {
	rs    RowStore
	table string
}

func NewVersionStore(rs RowStore, table string) *VersionStore {
	return &VersionStore{rs: rs, table: table}
}

// GetVersion returns the stored version, or 0 when the key has no row yet
// or the stored value doesn't parse. Missing keys are not an error - every
// partition implicitly starts at version 0.
func (v *VersionStore) GetVersion(key string) (int64, error) {
	rows, err := v.rs.ReadAll(v.table)
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) >= 2 && row[0] == key {
			n, err := strconv.ParseInt(row[1], 10, 64)
			if err != nil {
				return 0, nil
			}
			return n, nil
		}
	}
	return 0, nil
}

// SetVersion upserts. Writing the same value twice is safe, so retries
// after a half-failed commit don't hurt.
func (v *VersionStore) SetVersion(key string, ver int64) error {
	rows, err := v.rs.ReadAll(v.table)
	if err != nil {
		return err
	}
	val := strconv.FormatInt(ver, 10)
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) >= 2 && row[0] == key {
			return v.rs.UpdateRange(v.table, i+1, 2, []string{val})
		}
	}
	return v.rs.Append(v.table, [][]string{{key, val}})
}
