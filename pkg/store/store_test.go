package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccollicutt/lamptest/pkg/table"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "lamptests.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRow(day int, base float64, source string) table.Row {
	ts := time.Date(2021, 3, day, 10, 15, 0, 0, time.UTC)
	r := table.Row{
		Time:        ts,
		Original:    ts.Format("02.01.06 15:04:05"),
		Lamp:        "018",
		Temperature: 23.5,
		Source:      source,
	}
	for b, label := range []string{"A", "D", "W"} {
		r.Tests[b].Label = label
		for v := range r.Tests[b].Values {
			r.Tests[b].Values[v] = base + float64(b*10+v)
		}
	}
	return r
}

func sampleTable(rows ...table.Row) *table.Table {
	tbl := table.New([3]string{"A", "D", "W"})
	tbl.Rows = append(tbl.Rows, rows...)
	return tbl
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	tbl := sampleTable(
		sampleRow(18, 300, "18V.018"),
		sampleRow(19, 301.5, "18V.018"),
	)

	summary, err := s.Save(ctx, tbl)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Inserted)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 2, summary.Total())
	_, err = uuid.Parse(summary.ImportID)
	assert.NoError(t, err, "import id is a uuid")

	loaded, err := s.Load(ctx, "18V.018")
	require.NoError(t, err)
	assert.Equal(t, tbl.Labels(), loaded.Labels())
	assert.Equal(t, tbl.Records(), loaded.Records())
}

func TestStore_SaveIsIdempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	tbl := sampleTable(sampleRow(18, 300, "18V.018"))

	_, err := s.Save(ctx, tbl)
	require.NoError(t, err)

	tbl.Rows[0].Temperature = 24
	summary, err := s.Save(ctx, tbl)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Inserted)
	assert.Equal(t, 1, summary.Updated)

	loaded, err := s.Load(ctx, "18V.018")
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
	assert.Equal(t, 24.0, loaded.Rows[0].Temperature)
}

func TestStore_LoadSortsByTime(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, sampleTable(sampleRow(20, 1, "a.txt")))
	require.NoError(t, err)
	_, err = s.Save(ctx, sampleTable(sampleRow(5, 2, "a.txt")))
	require.NoError(t, err)

	loaded, err := s.Load(ctx, "a.txt")
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())
	assert.Equal(t, 5, loaded.Rows[0].Time.Day())
	assert.Equal(t, 20, loaded.Rows[1].Time.Day())
}

func TestStore_Sources(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, sampleTable(sampleRow(1, 1, "b.txt")))
	require.NoError(t, err)
	_, err = s.Save(ctx, sampleTable(sampleRow(1, 1, "a.txt")))
	require.NoError(t, err)

	sources, err := s.Sources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt"}, sources)
}

func TestStore_LoadUnknownSource(t *testing.T) {
	s := openStore(t)

	_, err := s.Load(context.Background(), "missing.txt")

	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestStore_SaveEmptyTable(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	summary, err := s.Save(ctx, table.Empty())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total())

	sources, err := s.Sources(ctx)
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lamptests.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Save(ctx, sampleTable(sampleRow(1, 1, "a.txt")))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	loaded, err := s.Load(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}
