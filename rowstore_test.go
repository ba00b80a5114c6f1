package main

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/require"
)

var testTables = map[string][]string{
	"records":  RecordHeaders,
	"versions": VersionHeaders,
	"locks":    LockHeaders,
}

// every backend must behave identically under the four primitives
func eachStore(t *testing.T, f func(t *testing.T, rs RowStore)) {
	t.Run("memory", func(t *testing.T) {
		f(t, NewMemStore())
	})
	t.Run("pebble", func(t *testing.T) {
		db, err := pebble.Open(filepath.Join(t.TempDir(), "db"), &pebble.Options{})
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		f(t, NewPebbleStore(db))
	})
	t.Run("sqlite", func(t *testing.T) {
		db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.sqlite"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		rs, err := NewSQLStore(db, testTables)
		require.NoError(t, err)
		f(t, rs)
	})
}

func TestAppendReadAll(t *testing.T) {
	eachStore(t, func(t *testing.T, rs RowStore) {
		rows, err := rs.ReadAll("versions")
		require.NoError(t, err)
		require.Empty(t, rows)

		require.NoError(t, rs.Append("versions", [][]string{VersionHeaders}))
		require.NoError(t, rs.Append("versions", [][]string{
			{"2024-01-01", "1"},
			{"2024-01-02", "7"},
		}))
		rows, err = rs.ReadAll("versions")
		require.NoError(t, err)
		require.Equal(t, [][]string{
			VersionHeaders,
			{"2024-01-01", "1"},
			{"2024-01-02", "7"},
		}, rows)
	})
}

func TestDeleteRowShifts(t *testing.T) {
	eachStore(t, func(t *testing.T, rs RowStore) {
		require.NoError(t, rs.Append("versions", [][]string{
			VersionHeaders,
			{"a", "1"},
			{"b", "2"},
			{"c", "3"},
		}))
		// delete the middle row; c moves up to index 3
		require.NoError(t, rs.DeleteRow("versions", 3))
		rows, err := rs.ReadAll("versions")
		require.NoError(t, err)
		require.Equal(t, [][]string{VersionHeaders, {"a", "1"}, {"c", "3"}}, rows)

		require.Error(t, rs.DeleteRow("versions", 4))
		require.Error(t, rs.DeleteRow("versions", 0))
		require.Error(t, rs.DeleteRow("versions", -1))

		// a rejected delete must not touch anything, the header included
		rows, err = rs.ReadAll("versions")
		require.NoError(t, err)
		require.Equal(t, [][]string{VersionHeaders, {"a", "1"}, {"c", "3"}}, rows)
	})
}

func TestUpdateRange(t *testing.T) {
	eachStore(t, func(t *testing.T, rs RowStore) {
		require.NoError(t, rs.Append("locks", [][]string{
			LockHeaders,
			{"2024-01-01", "tok1", "alice", "2024-01-01T12:00:00Z"},
		}))
		require.NoError(t, rs.UpdateRange("locks", 2, 2, []string{"tok2", "bob", "2024-01-01T13:00:00Z"}))
		rows, err := rs.ReadAll("locks")
		require.NoError(t, err)
		require.Equal(t, []string{"2024-01-01", "tok2", "bob", "2024-01-01T13:00:00Z"}, rows[1])

		require.Error(t, rs.UpdateRange("locks", 5, 2, []string{"x"}))
		require.Error(t, rs.UpdateRange("locks", 0, 2, []string{"x"}))

		rows, err = rs.ReadAll("locks")
		require.NoError(t, err)
		require.Equal(t, LockHeaders, rows[0])
	})
}

func TestUpdateRangePadsShortRow(t *testing.T) {
	eachStore(t, func(t *testing.T, rs RowStore) {
		require.NoError(t, rs.Append("locks", [][]string{
			LockHeaders,
			{"2024-01-01"},
		}))
		require.NoError(t, rs.UpdateRange("locks", 2, 4, []string{"2024-01-01T13:00:00Z"}))
		rows, err := rs.ReadAll("locks")
		require.NoError(t, err)
		require.Equal(t, "2024-01-01T13:00:00Z", cell(rows[1], 3))
		require.Equal(t, "", cell(rows[1], 1))
	})
}

func TestEnsureTable(t *testing.T) {
	eachStore(t, func(t *testing.T, rs RowStore) {
		require.NoError(t, EnsureTable(rs, "versions", VersionHeaders))
		rows, err := rs.ReadAll("versions")
		require.NoError(t, err)
		require.Equal(t, [][]string{VersionHeaders}, rows)

		// valid header left alone, data preserved
		require.NoError(t, rs.Append("versions", [][]string{{"k", "1"}}))
		require.NoError(t, EnsureTable(rs, "versions", VersionHeaders))
		rows, err = rs.ReadAll("versions")
		require.NoError(t, err)
		require.Len(t, rows, 2)

		// header mismatch wipes the table
		require.NoError(t, EnsureTable(rs, "versions", []string{"partitionKey"}))
		rows, err = rs.ReadAll("versions")
		require.NoError(t, err)
		require.Equal(t, [][]string{{"partitionKey"}}, rows)
	})
}
