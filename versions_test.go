package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestVersions(t *testing.T) *VersionStore {
	rs := NewMemStore()
	require.NoError(t, EnsureTable(rs, "versions", VersionHeaders))
	return NewVersionStore(rs, "versions")
}

func TestGetVersionMissing(t *testing.T) {
	v := newTestVersions(t)
	ver, err := v.GetVersion("2024-01-01")
	require.NoError(t, err)
	require.EqualValues(t, 0, ver)
}

func TestSetVersionUpsert(t *testing.T) {
	v := newTestVersions(t)
	require.NoError(t, v.SetVersion("2024-01-01", 1))
	require.NoError(t, v.SetVersion("2024-01-02", 5))
	require.NoError(t, v.SetVersion("2024-01-01", 2))

	ver, err := v.GetVersion("2024-01-01")
	require.NoError(t, err)
	require.EqualValues(t, 2, ver)
	ver, err = v.GetVersion("2024-01-02")
	require.NoError(t, err)
	require.EqualValues(t, 5, ver)

	// only one row per key, ever
	rows, err := v.rs.ReadAll("versions")
	require.NoError(t, err)
	require.Len(t, rows, 3)
}

func TestSetVersionIdempotent(t *testing.T) {
	v := newTestVersions(t)
	require.NoError(t, v.SetVersion("k", 3))
	require.NoError(t, v.SetVersion("k", 3))
	ver, err := v.GetVersion("k")
	require.NoError(t, err)
	require.EqualValues(t, 3, ver)
}

func TestGetVersionUnparsable(t *testing.T) {
	v := newTestVersions(t)
	require.NoError(t, v.rs.Append("versions", [][]string{{"k", "garbage"}}))
	ver, err := v.GetVersion("k")
	require.NoError(t, err)
	require.EqualValues(t, 0, ver)
}
