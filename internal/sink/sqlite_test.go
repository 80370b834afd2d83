package sink

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func readBack(t *testing.T, s *SQLiteSink[testRow], table string) []testRow {
	rows, err := s.DB().Query("select District, Name, Votes from " + table + " order by row_id")
	require.NoError(t, err)
	defer rows.Close()

	var out []testRow
	for rows.Next() {
		var r testRow
		require.NoError(t, rows.Scan(&r.District, &r.Name, &r.Votes))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestSQLiteSinkPreservesAppendOrder(t *testing.T) {
	s, err := OpenSQLite[testRow](":memory:", "results")
	require.NoError(t, err)
	defer s.Close()

	batches := [][]testRow{
		{{District: "Kollam", Name: "b", Votes: "2"}, {District: "Kollam", Name: "a", Votes: "1"}},
		{},
		{{District: "Wayanad", Name: "കാട്ടാക്കട", Votes: "3"}},
	}
	for _, b := range batches {
		require.NoError(t, s.Append(b))
	}

	require.Equal(t, []testRow{
		{District: "Kollam", Name: "b", Votes: "2"},
		{District: "Kollam", Name: "a", Votes: "1"},
		{District: "Wayanad", Name: "കാട്ടാക്കട", Votes: "3"},
	}, readBack(t, s, "results"))
}

func TestSQLiteSinkRecreatesTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")

	s, err := OpenSQLite[testRow](path, "results")
	require.NoError(t, err)
	require.NoError(t, s.Append([]testRow{{District: "Kollam"}}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite[testRow](path, "results")
	require.NoError(t, err)
	defer s.Close()
	require.Empty(t, readBack(t, s, "results"))
}

func TestSQLiteSinkRejectsBadTableName(t *testing.T) {
	_, err := OpenSQLite[testRow](":memory:", "results; drop table x")
	require.Error(t, err)
}
