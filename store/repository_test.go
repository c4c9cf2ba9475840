// Copyright 2026 The GeoDedup Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcodagnone/geodedup/dedup"
	"github.com/jcodagnone/geodedup/spatial"
)

func setupTestDB(t *testing.T) (*sql.DB, PointRepository) {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	repo := NewPointRepository(db)
	if err := repo.CreateSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db, repo
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stores.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

const storesCSV = `name,latitude,longitude,comments
Centro,-34.9060,-56.1910,120
Centro Bis,-34.9061,-56.1910,15
Pocitos,-34.9120,-56.1500,80
`

func TestCreateSchema(t *testing.T) {
	db, repo := setupTestDB(t)

	for _, table := range []string{"points", "runs", "run_drops"} {
		var name string

		err := db.QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s not created", table)
	}

	// idempotent
	require.NoError(t, repo.CreateSchema())
}

func TestImportCSV(t *testing.T) {
	_, repo := setupTestDB(t)

	n, err := repo.ImportCSV(writeCSV(t, storesCSV), DefaultColumns())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	records, err := repo.ListPoints()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, 0, records[0].ID)
	assert.Equal(t, "Centro", records[0].Name)
	assert.InDelta(t, -34.9060, records[0].Point.Lat, 1e-9)
	assert.InDelta(t, -56.1910, records[0].Point.Lng, 1e-9)
	assert.InDelta(t, 120.0, records[0].Criterion, 1e-9)
	assert.False(t, records[0].Dropped)

	assert.Equal(t, 2, records[2].ID)
	assert.Equal(t, "Pocitos", records[2].Name)

	cell, err := records[0].Point.Cell(9)
	require.NoError(t, err)
	assert.Equal(t, int64(cell), records[0].H3Res9)
	assert.NotZero(t, records[0].H3Res7)
	assert.NotZero(t, records[0].H3Res11)
}

func TestImportCSVFoldsColumnNames(t *testing.T) {
	_, repo := setupTestDB(t)

	path := writeCSV(t, `Nombre,Latitud,Longitud,Reseñas
Tienda A,-34.90,-56.19,3
Tienda B,-34.91,-56.18,
`)

	n, err := repo.ImportCSV(path, Columns{
		Lat:       "latitud",
		Lng:       "LONGITUD",
		Criterion: "resenas",
		Name:      "nombre",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := repo.ListPoints()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Tienda A", records[0].Name)
	assert.InDelta(t, 3.0, records[0].Criterion, 1e-9)
	assert.Zero(t, records[1].Criterion, "missing criterion defaults to 0")
}

func TestImportCSVWithoutOptionalColumns(t *testing.T) {
	_, repo := setupTestDB(t)

	path := writeCSV(t, `lat,lng
-34.90,-56.19
-34.91,-56.18
`)

	n, err := repo.ImportCSV(path, Columns{Lat: "lat", Lng: "lng", Name: "name"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := repo.ListPoints()
	require.NoError(t, err)
	assert.Empty(t, records[0].Name)
	assert.Zero(t, records[1].Criterion)
}

func TestImportCSVErrors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		cols      Columns
		wantIndex int
		wantInput bool
	}{
		{
			name:    "missing latitude column",
			content: "name,lng\nA,-56.19\n",
			cols:    Columns{Lat: "lat", Lng: "lng"},
		},
		{
			name:    "missing criterion column",
			content: "lat,lng\n-34.90,-56.19\n",
			cols:    Columns{Lat: "lat", Lng: "lng", Criterion: "comments"},
		},
		{
			name:      "empty coordinate",
			content:   "lat,lng\n-34.90,-56.19\n,-56.18\n",
			cols:      Columns{Lat: "lat", Lng: "lng"},
			wantIndex: 1,
			wantInput: true,
		},
		{
			name:      "latitude out of range",
			content:   "lat,lng\n-34.90,-56.19\n-34.91,-56.18\n95.0,-56.18\n",
			cols:      Columns{Lat: "lat", Lng: "lng"},
			wantIndex: 2,
			wantInput: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, repo := setupTestDB(t)

			_, err := repo.ImportCSV(writeCSV(t, tt.content), tt.cols)
			require.Error(t, err)

			if !tt.wantInput {
				return
			}

			require.True(t, dedup.IsInvalidCoordinateError(err), "got %v", err)

			var inputErr *dedup.InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, tt.wantIndex, inputErr.Index)

			records, err := repo.ListPoints()
			require.NoError(t, err)
			assert.Empty(t, records, "failed import must not store rows")
		})
	}
}

func TestSaveRun(t *testing.T) {
	_, repo := setupTestDB(t)

	_, err := repo.ImportCSV(writeCSV(t, storesCSV), DefaultColumns())
	require.NoError(t, err)

	first := &Run{Threshold: 100, Points: 3, Dropped: 1, Iterations: 1}
	require.NoError(t, repo.SaveRun(first, []int{1}))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	records, err := repo.ListPoints()
	require.NoError(t, err)
	assert.False(t, records[0].Dropped)
	assert.True(t, records[1].Dropped)
	assert.False(t, records[2].Dropped)

	second := &Run{Threshold: 5000, Points: 3, Dropped: 2, Iterations: 2}
	require.NoError(t, repo.SaveRun(second, []int{0, 1}))

	records, err = repo.ListPoints()
	require.NoError(t, err)
	assert.True(t, records[0].Dropped)
	assert.True(t, records[1].Dropped)

	runs, err := repo.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID, "newest first")
	assert.InDelta(t, 5000.0, runs[0].Threshold, 1e-9)
	assert.Equal(t, 2, runs[0].Iterations)
	assert.Equal(t, first.ID, runs[1].ID)

	drop, err := repo.RunDrops(first.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, drop)

	drop, err = repo.RunDrops(second.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, drop)
}

func TestSaveRunWithoutDrops(t *testing.T) {
	_, repo := setupTestDB(t)

	_, err := repo.ImportCSV(writeCSV(t, storesCSV), DefaultColumns())
	require.NoError(t, err)

	run := &Run{Threshold: 1, Points: 3}
	require.NoError(t, repo.SaveRun(run, nil))

	drop, err := repo.RunDrops(run.ID)
	require.NoError(t, err)
	assert.Empty(t, drop)
	assert.NotNil(t, drop)
}

func TestReimportClearsRuns(t *testing.T) {
	_, repo := setupTestDB(t)

	path := writeCSV(t, storesCSV)

	_, err := repo.ImportCSV(path, DefaultColumns())
	require.NoError(t, err)
	require.NoError(t, repo.SaveRun(&Run{Threshold: 100, Points: 3, Dropped: 1, Iterations: 1}, []int{1}))

	_, err = repo.ImportCSV(path, DefaultColumns())
	require.NoError(t, err)

	runs, err := repo.ListRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)

	records, err := repo.ListPoints()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.False(t, records[1].Dropped)
}

func TestExportPointsCSVLoadsBack(t *testing.T) {
	_, repo := setupTestDB(t)

	_, err := repo.ImportCSV(writeCSV(t, storesCSV), DefaultColumns())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "kept.csv")
	n, err := repo.ExportPointsCSV(out, []int{0, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,name,latitude,longitude,comments", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0,Centro,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2,Pocitos,"), lines[2])

	// exported files load back with the default columns
	_, repo2 := setupTestDB(t)
	n, err = repo2.ImportCSV(out, DefaultColumns())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestExportPointsCSV(t *testing.T) {
	tests := []struct {
		name  string
		ids   []int
		want  int
		lines []string
	}{
		{
			name:  "selected points",
			ids:   []int{2, 0},
			want:  2,
			lines: []string{"0,Centro,", "2,Pocitos,"},
		},
		{
			name: "no points",
			ids:  nil,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, repo := setupTestDB(t)

			_, err := repo.ImportCSV(writeCSV(t, storesCSV), DefaultColumns())
			require.NoError(t, err)

			out := filepath.Join(t.TempDir(), "kept.csv")
			n, err := repo.ExportPointsCSV(out, tt.ids)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)

			data, err := os.ReadFile(out)
			require.NoError(t, err)

			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			require.Len(t, lines, len(tt.lines)+1)
			assert.Equal(t, "id,name,latitude,longitude,comments", lines[0])

			for i, prefix := range tt.lines {
				assert.True(t, strings.HasPrefix(lines[i+1], prefix), lines[i+1])
			}

			// dropped flags are untouched
			records, err := repo.ListPoints()
			require.NoError(t, err)

			for _, r := range records {
				assert.False(t, r.Dropped)
			}
		})
	}
}

func TestArrays(t *testing.T) {
	records := []*Record{
		{ID: 0, Point: spatial.Point{Lat: 1, Lng: 2}, Criterion: 5},
		{ID: 1, Point: spatial.Point{Lat: 3, Lng: 4}, Criterion: 7},
	}

	points, criteria := Arrays(records)
	assert.Equal(t, []spatial.Point{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}, points)
	assert.Equal(t, []float64{5, 7}, criteria)
}
