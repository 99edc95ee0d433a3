package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xenking/kart-wholesale/internal/domain/product"
)

func writeFeed(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

type recordingWriter struct {
	known  map[string]bool
	prices map[string]string
}

func (w *recordingWriter) SetWholesalePrice(_ context.Context, id, raw string) error {
	if !w.known[id] {
		return product.ErrNotFound
	}
	w.prices[id] = raw
	return nil
}

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name    string
		rec     []string
		want    row
		ok      bool
		wantErr bool
	}{
		{name: "valid", rec: []string{"1", "5.50"}, want: row{ProductID: "1", Price: "5.50"}, ok: true},
		{name: "trims", rec: []string{" 2 ", " 4 "}, want: row{ProductID: "2", Price: "4"}, ok: true},
		{name: "empty price clears", rec: []string{"3", ""}, want: row{ProductID: "3"}, ok: true},
		{name: "header", rec: []string{"product_id", "wholesale_price"}},
		{name: "negative price", rec: []string{"1", "-1"}, wantErr: true},
		{name: "garbage price", rec: []string{"1", "cheap"}, wantErr: true},
		{name: "out of range price", rec: []string{"1", "1e100000000"}, wantErr: true},
		{name: "empty id", rec: []string{"", "1"}, wantErr: true},
		{name: "wrong arity", rec: []string{"1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := parseRecord(tt.rec)
			if tt.wantErr {
				require.ErrorIs(t, err, errInvalidRow)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStreamFeed(t *testing.T) {
	dir := t.TempDir()
	path := writeFeed(t, dir, "a.csv.gz",
		"product_id,wholesale_price",
		"# comment",
		"1,5.00",
		"2,oops",
		"3,",
	)

	var rows []row
	invalid, err := streamFeed(context.Background(), path, func(r row) error {
		rows = append(rows, r)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, invalid)
	assert.Equal(t, []row{{ProductID: "1", Price: "5.00"}, {ProductID: "3"}}, rows)
}

func TestStreamFeed_NotGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.csv.gz")
	require.NoError(t, os.WriteFile(path, []byte("1,2\n"), 0o600))

	_, err := streamFeed(context.Background(), path, func(row) error { return nil })
	require.Error(t, err)
}

func TestImporter_Run(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFeed(t, dir, "a.csv.gz", "1,5.00", "2,3.00", "9,1.00", "1,4.50"),
		writeFeed(t, dir, "b.csv.gz", "2,2.50", "3,6.00", "bad"),
		writeFeed(t, dir, "c.csv.gz", "4,", "2,2.75"),
	}
	w := &recordingWriter{
		known:  map[string]bool{"1": true, "2": true, "3": true, "4": true},
		prices: map[string]string{},
	}

	imp := &importer{lg: zaptest.NewLogger(t), files: files, expected: 100}
	rep, err := imp.Run(context.Background(), w)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"1": "4.50", "3": "6.00", "4": ""}, w.prices)
	require.Len(t, rep.Conflicts, 1)
	assert.Equal(t, "2", rep.Conflicts[0].ProductID)
	assert.Equal(t, []string{"a.csv.gz", "b.csv.gz", "c.csv.gz"}, rep.Conflicts[0].Feeds)
	assert.Equal(t, []string{"9"}, rep.Unknown)
	assert.Equal(t, 1, rep.Invalid)
	assert.Equal(t, 4, rep.Written)
}

func TestImporter_NoConflicts(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFeed(t, dir, "a.csv.gz", "1,1.00"),
		writeFeed(t, dir, "b.csv.gz", "2,2.00"),
	}
	imp := &importer{lg: zaptest.NewLogger(t), files: files, expected: 100}

	rep, err := imp.Run(context.Background(), discardWriter{})
	require.NoError(t, err)
	assert.Empty(t, rep.Conflicts)
	assert.Equal(t, 2, rep.Written)
}
