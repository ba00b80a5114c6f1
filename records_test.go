package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testLanes  = []string{"A", "B"}
	testBlocks = []string{"LUNCHA", "LUNCHB", "AFTER"}
)

func newTestRecords(t *testing.T) (*RecordStore, RowStore) {
	rs := NewMemStore()
	require.NoError(t, EnsureTable(rs, "records", RecordHeaders))
	return NewRecordStore(rs, "records", testLanes, testBlocks), rs
}

func TestLoadEmpty(t *testing.T) {
	r, _ := newTestRecords(t)
	st, err := r.Load("2024-01-01")
	require.NoError(t, err)
	require.Len(t, st, 2)
	for _, lane := range testLanes {
		require.Len(t, st[lane], 3)
		for _, b := range testBlocks {
			require.Nil(t, st[lane][b])
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	r, _ := newTestRecords(t)
	st, err := r.Load("2024-01-01")
	require.NoError(t, err)
	st["A"]["LUNCHA"] = &Slot{Holder: "alice", Note: "hi", CreatedAt: "2024-01-01T11:00:00Z"}
	st["B"]["AFTER"] = &Slot{Holder: "bob", CreatedAt: "2024-01-01T11:05:00Z"}
	require.NoError(t, r.Save("2024-01-01", st))

	got, err := r.Load("2024-01-01")
	require.NoError(t, err)
	require.Equal(t, st, got)
}

func TestSaveFullReplace(t *testing.T) {
	r, rs := newTestRecords(t)
	st, _ := r.Load("2024-01-01")
	st["A"]["LUNCHA"] = &Slot{Holder: "alice", CreatedAt: "2024-01-01T11:00:00Z"}
	st["A"]["LUNCHB"] = &Slot{Holder: "alice", CreatedAt: "2024-01-01T11:00:00Z"}
	require.NoError(t, r.Save("2024-01-01", st))

	// drop one slot and save again - its row must be gone
	st["A"]["LUNCHB"] = nil
	require.NoError(t, r.Save("2024-01-01", st))
	rows, err := rs.ReadAll("records")
	require.NoError(t, err)
	require.Len(t, rows, 2) // header + one slot
}

func TestSaveLeavesOtherPartitionsAlone(t *testing.T) {
	r, rs := newTestRecords(t)
	st1, _ := r.Load("2024-01-01")
	st1["A"]["LUNCHA"] = &Slot{Holder: "alice", CreatedAt: "2024-01-01T11:00:00Z"}
	require.NoError(t, r.Save("2024-01-01", st1))

	st2, _ := r.Load("2024-01-02")
	st2["B"]["AFTER"] = &Slot{Holder: "bob", CreatedAt: "2024-01-02T11:00:00Z"}
	require.NoError(t, r.Save("2024-01-02", st2))

	// wipe day two, day one untouched
	require.NoError(t, r.Save("2024-01-02", NewPartitionState(testLanes, testBlocks)))
	rows, err := rs.ReadAll("records")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "2024-01-01", rows[1][0])
}

func TestLoadSkipsMalformedRows(t *testing.T) {
	r, rs := newTestRecords(t)
	require.NoError(t, rs.Append("records", [][]string{
		{"2024-01-01", "A"}, // too short
		{"2024-01-01", "C", "LUNCHA", "eve", "", "2024-01-01T11:00:00Z"}, // unknown lane
		{"2024-01-01", "A", "LUNCHA", "alice", "", "2024-01-01T11:00:00Z"},
	}))
	st, err := r.Load("2024-01-01")
	require.NoError(t, err)
	require.NotNil(t, st["A"]["LUNCHA"])
	require.Equal(t, "alice", st["A"]["LUNCHA"].Holder)
	_, hasC := st["C"]
	require.False(t, hasC)
}

func TestSaveFillsCreatedAt(t *testing.T) {
	r, _ := newTestRecords(t)
	st, _ := r.Load("2024-01-01")
	st["A"]["AFTER"] = &Slot{Holder: "alice"}
	require.NoError(t, r.Save("2024-01-01", st))
	got, err := r.Load("2024-01-01")
	require.NoError(t, err)
	require.NotEmpty(t, got["A"]["AFTER"].CreatedAt)
}
